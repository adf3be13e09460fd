package projects

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
	groupUseConstant                      = "projects"
	groupShortDescriptionConstant         = "Manage workspace projects"
	groupLongDescriptionConstant          = "projects groups subcommands that administer Bitbucket workspace projects."
	createCommandUseConstant              = "create-project"
	createCommandShortDescription         = "Create a new project in the workspace"
	createCommandLongDescription          = "create-project creates a workspace project after confirming no project with the same key exists."
	flagProjectKeyNameConstant            = "project-key"
	flagProjectKeyDescriptionConstant     = "The unique key for the project."
	flagNameNameConstant                  = "name"
	flagNameDescriptionConstant           = "The name of the project."
	flagDescriptionNameConstant           = "description"
	flagDescriptionDescriptionConstant    = "A description for the project."
	commandExecutionErrorTemplateConstant = "project creation failed: %w"
	unexpectedArgumentsMessageConstant    = "create-project does not accept positional arguments"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// WorkspaceConfigurationProvider supplies resolved connection configuration.
type WorkspaceConfigurationProvider func() bitbucket.WorkspaceConfiguration

// ProjectCreator abstracts the project service for command wiring and tests.
type ProjectCreator interface {
	CreateProject(executionContext context.Context, options CreationOptions) (bitbucket.Outcome, error)
}

// OutcomePresenter renders operation outcomes for the user.
type OutcomePresenter interface {
	Present(outcome bitbucket.Outcome)
}

// CommandBuilder assembles the projects command group.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider WorkspaceConfigurationProvider
	Service               ProjectCreator
	Presenter             OutcomePresenter
}

// Build constructs the projects command hierarchy.
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

	createCommand.Flags().String(flagProjectKeyNameConstant, "", flagProjectKeyDescriptionConstant)
	createCommand.Flags().String(flagNameNameConstant, "", flagNameDescriptionConstant)
	createCommand.Flags().String(flagDescriptionNameConstant, "", flagDescriptionDescriptionConstant)

	if markError := createCommand.MarkFlagRequired(flagProjectKeyNameConstant); markError != nil {
		return nil, markError
	}
	if markError := createCommand.MarkFlagRequired(flagNameNameConstant); markError != nil {
		return nil, markError
	}

	groupCommand.AddCommand(createCommand)

	return groupCommand, nil
}

func (builder *CommandBuilder) runCreate(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	projectKeyValue, _ := command.Flags().GetString(flagProjectKeyNameConstant)
	nameValue, _ := command.Flags().GetString(flagNameNameConstant)
	descriptionValue, _ := command.Flags().GetString(flagDescriptionNameConstant)

	logger := builder.resolveLogger()

	service, serviceResolutionError := builder.resolveService(logger)
	if serviceResolutionError != nil {
		return serviceResolutionError
	}

	outcome, creationError := service.CreateProject(command.Context(), CreationOptions{
		ProjectKey:  projectKeyValue,
		Name:        nameValue,
		Description: descriptionValue,
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

func (builder *CommandBuilder) resolveService(logger *zap.Logger) (ProjectCreator, error) {
	if builder.Service != nil {
		return builder.Service, nil
	}

	var configuration bitbucket.WorkspaceConfiguration
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
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
