package branchrules

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
	groupUseConstant                      = "branches"
	groupShortDescriptionConstant         = "Manage branch restrictions"
	groupLongDescriptionConstant          = "branches groups subcommands that administer branch push restrictions."
	exemptCommandUseConstant              = "exempt"
	exemptCommandShortDescription         = "Exempt a user from the pull request requirement"
	exemptCommandLongDescription          = "exempt allows a user to push to the restricted branch without a pull request."
	flagRepositorySlugNameConstant        = "repo-slug"
	flagRepositorySlugDescriptionConstant = "The repository slug."
	flagUsernameNameConstant              = "username"
	flagUsernameDescriptionConstant       = "The Bitbucket username or email to exempt."
	commandExecutionErrorTemplateConstant = "branch exemption failed: %w"
	unexpectedArgumentsMessageConstant    = "exempt does not accept positional arguments"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// WorkspaceConfigurationProvider supplies resolved connection configuration.
type WorkspaceConfigurationProvider func() bitbucket.WorkspaceConfiguration

// ConfigurationProvider supplies branch restriction tool configuration.
type ConfigurationProvider func() CommandConfiguration

// UserExempter abstracts the branch rule service for command wiring and tests.
type UserExempter interface {
	ExemptUser(executionContext context.Context, options ExemptionOptions) (bitbucket.Outcome, error)
}

// OutcomePresenter renders operation outcomes for the user.
type OutcomePresenter interface {
	Present(outcome bitbucket.Outcome)
}

// CommandBuilder assembles the branches command group.
type CommandBuilder struct {
	LoggerProvider                 LoggerProvider
	WorkspaceConfigurationProvider WorkspaceConfigurationProvider
	ConfigurationProvider          ConfigurationProvider
	Service                        UserExempter
	Presenter                      OutcomePresenter
}

// Build constructs the branches command hierarchy.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	groupCommand := &cobra.Command{
		Use:   groupUseConstant,
		Short: groupShortDescriptionConstant,
		Long:  groupLongDescriptionConstant,
	}

	exemptCommand := &cobra.Command{
		Use:   exemptCommandUseConstant,
		Short: exemptCommandShortDescription,
		Long:  exemptCommandLongDescription,
		RunE:  builder.runExempt,
	}

	exemptCommand.Flags().String(flagRepositorySlugNameConstant, "", flagRepositorySlugDescriptionConstant)
	exemptCommand.Flags().String(flagUsernameNameConstant, "", flagUsernameDescriptionConstant)

	if markError := exemptCommand.MarkFlagRequired(flagRepositorySlugNameConstant); markError != nil {
		return nil, markError
	}
	if markError := exemptCommand.MarkFlagRequired(flagUsernameNameConstant); markError != nil {
		return nil, markError
	}

	groupCommand.AddCommand(exemptCommand)

	return groupCommand, nil
}

func (builder *CommandBuilder) runExempt(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	repositorySlugValue, _ := command.Flags().GetString(flagRepositorySlugNameConstant)
	usernameValue, _ := command.Flags().GetString(flagUsernameNameConstant)

	logger := builder.resolveLogger()

	service, serviceResolutionError := builder.resolveService(logger)
	if serviceResolutionError != nil {
		return serviceResolutionError
	}

	outcome, exemptionError := service.ExemptUser(command.Context(), ExemptionOptions{
		RepositorySlug: repositorySlugValue,
		Username:       usernameValue,
		Pattern:        builder.resolveConfiguration().Pattern,
	})
	if exemptionError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, exemptionError)
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
	return builder.ConfigurationProvider().Sanitize()
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

func (builder *CommandBuilder) resolveService(logger *zap.Logger) (UserExempter, error) {
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
