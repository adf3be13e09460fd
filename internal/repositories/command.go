package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/bbctl/internal/bitbucket"
	"github.com/temirov/bbctl/internal/ui"
)

const (
	groupUseConstant                      = "repos"
	groupShortDescriptionConstant         = "Manage workspace repositories"
	groupLongDescriptionConstant          = "repos groups subcommands that administer Bitbucket workspace repositories."
	createCommandUseConstant              = "create-repo"
	createCommandShortDescription         = "Create a new repository in the workspace"
	createCommandLongDescription          = "create-repo creates a Git repository under a project after confirming no repository with the same slug exists."
	flagRepositorySlugNameConstant        = "repo-slug"
	flagRepositorySlugDescriptionConstant = "The repository slug (lowercase, no spaces)."
	flagProjectKeyNameConstant            = "project-key"
	flagProjectKeyDescriptionConstant     = "The project key where the repository will be created."
	flagIsPrivateNameConstant             = "is-private"
	flagIsPrivateDescriptionConstant      = "Whether the repository is private."
	commandExecutionErrorTemplateConstant = "repository creation failed: %w"
	unexpectedArgumentsMessageConstant    = "create-repo does not accept positional arguments"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// WorkspaceConfigurationProvider supplies resolved connection configuration.
type WorkspaceConfigurationProvider func() bitbucket.WorkspaceConfiguration

// ConfigurationProvider supplies repository tool configuration.
type ConfigurationProvider func() CommandConfiguration

// RepositoryCreator abstracts the repository service for command wiring and tests.
type RepositoryCreator interface {
	CreateRepository(executionContext context.Context, options CreationOptions) (bitbucket.Outcome, error)
}

// OutcomePresenter renders operation outcomes for the user.
type OutcomePresenter interface {
	Present(outcome bitbucket.Outcome)
}

// CommandBuilder assembles the repos command group.
type CommandBuilder struct {
	LoggerProvider                 LoggerProvider
	WorkspaceConfigurationProvider WorkspaceConfigurationProvider
	ConfigurationProvider          ConfigurationProvider
	Service                        RepositoryCreator
	Presenter                      OutcomePresenter
}

// Build constructs the repos command hierarchy.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	groupCommand := &cobra.Command{
		Use:   groupUseConstant,
		Short: groupShortDescriptionConstant,
		Long:  groupLongDescriptionConstant,
	}

	createCommand := &cobra.Command{
		Use:   createCommandUseConstant,
		Short: createCommandShortDescription,
		Long:  createCommandLongDescription,
		RunE:  builder.runCreate,
	}

	createCommand.Flags().String(flagRepositorySlugNameConstant, "", flagRepositorySlugDescriptionConstant)
	createCommand.Flags().String(flagProjectKeyNameConstant, "", flagProjectKeyDescriptionConstant)
	createCommand.Flags().Bool(flagIsPrivateNameConstant, defaultIsPrivateValueConstant, flagIsPrivateDescriptionConstant)

	if markError := createCommand.MarkFlagRequired(flagRepositorySlugNameConstant); markError != nil {
		return nil, markError
	}
	if markError := createCommand.MarkFlagRequired(flagProjectKeyNameConstant); markError != nil {
		return nil, markError
	}

	groupCommand.AddCommand(createCommand)

	return groupCommand, nil
}

func (builder *CommandBuilder) runCreate(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	repositorySlugValue, _ := command.Flags().GetString(flagRepositorySlugNameConstant)
	projectKeyValue, _ := command.Flags().GetString(flagProjectKeyNameConstant)

	isPrivateValue := builder.resolveConfiguration().IsPrivate
	if command.Flags().Changed(flagIsPrivateNameConstant) {
		isPrivateValue, _ = command.Flags().GetBool(flagIsPrivateNameConstant)
	}

	logger := builder.resolveLogger()

	service, serviceResolutionError := builder.resolveService(logger)
	if serviceResolutionError != nil {
		return serviceResolutionError
	}

	outcome, creationError := service.CreateRepository(command.Context(), CreationOptions{
		RepositorySlug: repositorySlugValue,
		ProjectKey:     projectKeyValue,
		IsPrivate:      isPrivateValue,
	})
	if creationError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, creationError)
	}

	builder.resolvePresenter().Present(outcome)

	if outcome.Failed() {
		return errors.New(outcome.Message)
	}

	return nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveService(logger *zap.Logger) (RepositoryCreator, error) {
	if builder.Service != nil {
		return builder.Service, nil
	}

	var configuration bitbucket.WorkspaceConfiguration
	if builder.WorkspaceConfigurationProvider != nil {
		configuration = builder.WorkspaceConfigurationProvider()
	}

	apiContext, resolutionError := bitbucket.ResolveAPIContext(configuration, nil)
	if resolutionError != nil {
		return nil, resolutionError
	}

	client := bitbucket.NewClient(apiContext, nil, logger)

	return NewService(logger, client)
}

func (builder *CommandBuilder) resolvePresenter() OutcomePresenter {
	if builder.Presenter != nil {
		return builder.Presenter
	}
	return ui.NewOutcomePresenter(nil, nil)
}
