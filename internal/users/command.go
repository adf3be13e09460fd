package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/bbctl/internal/bitbucket"
	"github.com/temirov/bbctl/internal/ui"
	flagutils "github.com/temirov/bbctl/internal/utils/flags"
)

const (
	groupUseConstant              = "users"
	groupShortDescriptionConstant = "Manage user permissions and group membership"
	groupLongDescriptionConstant  = "users groups subcommands that administer repository permissions and workspace group membership."

	addUserCommandUseConstant              = "add-user"
	addUserCommandShortDescription         = "Grant a user access to a repository"
	addUserCommandLongDescription          = "add-user grants a repository permission, skipping the write when the user already holds the requested level."
	removeUserCommandUseConstant           = "remove-user"
	removeUserCommandShortDescription      = "Remove a user's access from a repository"
	removeUserCommandLongDescription       = "remove-user revokes a repository permission, skipping the delete when no grant exists."
	addToGroupCommandUseConstant           = "add-to-group"
	addToGroupCommandShortDescription      = "Add a user to a workspace group"
	addToGroupCommandLongDescription       = "add-to-group adds the user to the named workspace group."
	removeFromGroupCommandUseConstant      = "remove-from-group"
	removeFromGroupCommandShortDescription = "Remove a user from a workspace group"
	removeFromGroupCommandLongDescription  = "remove-from-group removes the user from the named workspace group."

	flagRepositorySlugNameConstant        = "repo-slug"
	flagRepositorySlugDescriptionConstant = "The repository slug."
	flagUsernameNameConstant              = "username"
	flagUsernameDescriptionConstant       = "The Bitbucket username or email of the user."
	flagPermissionNameConstant            = "permission"
	flagPermissionDescriptionConstant     = "The permission level to grant."
	flagGroupSlugNameConstant             = "group-slug"
	flagGroupSlugDescriptionConstant      = "The workspace group slug."

	commandExecutionErrorTemplateConstant = "user administration failed: %w"
	unexpectedArgumentsMessageConstant    = "users subcommands do not accept positional arguments"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// WorkspaceConfigurationProvider supplies resolved connection configuration.
type WorkspaceConfigurationProvider func() bitbucket.WorkspaceConfiguration

// UserAdministrator abstracts the user service for command wiring and tests.
type UserAdministrator interface {
	SetUserPermission(executionContext context.Context, options GrantOptions) (bitbucket.Outcome, error)
	RemoveUserPermission(executionContext context.Context, options RevokeOptions) (bitbucket.Outcome, error)
	AddGroupMember(executionContext context.Context, options MembershipOptions) (bitbucket.Outcome, error)
	RemoveGroupMember(executionContext context.Context, options MembershipOptions) (bitbucket.Outcome, error)
}

// OutcomePresenter renders operation outcomes for the user.
type OutcomePresenter interface {
	Present(outcome bitbucket.Outcome)
}

// CommandBuilder assembles the users command group.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider WorkspaceConfigurationProvider
	Service               UserAdministrator
	Presenter             OutcomePresenter
}

// Build constructs the users command hierarchy.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	groupCommand := &cobra.Command{
		Use:   groupUseConstant,
		Short: groupShortDescriptionConstant,
		Long:  groupLongDescriptionConstant,
	}

	subcommandBuilders := []func() (*cobra.Command, error){
		builder.buildAddUserCommand,
		builder.buildRemoveUserCommand,
		builder.buildAddToGroupCommand,
		builder.buildRemoveFromGroupCommand,
	}
	for _, buildSubcommand := range subcommandBuilders {
		subcommand, buildError := buildSubcommand()
		if buildError != nil {
			return nil, buildError
		}
		groupCommand.AddCommand(subcommand)
	}

	return groupCommand, nil
}

func (builder *CommandBuilder) buildAddUserCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   addUserCommandUseConstant,
		Short: addUserCommandShortDescription,
		Long:  addUserCommandLongDescription,
		RunE: builder.runOperation(func(executionContext context.Context, service UserAdministrator, command *cobra.Command) (bitbucket.Outcome, error) {
			repositorySlugValue, _ := command.Flags().GetString(flagRepositorySlugNameConstant)
			usernameValue, _ := command.Flags().GetString(flagUsernameNameConstant)
			permissionValue, _ := command.Flags().GetString(flagPermissionNameConstant)
			return service.SetUserPermission(executionContext, GrantOptions{
				RepositorySlug: repositorySlugValue,
				Username:       usernameValue,
				Permission:     PermissionLevel(permissionValue),
			})
		}),
	}

	command.Flags().String(flagRepositorySlugNameConstant, "", flagRepositorySlugDescriptionConstant)
	command.Flags().String(flagUsernameNameConstant, "", flagUsernameDescriptionConstant)
	command.Flags().String(
		flagPermissionNameConstant,
		"",
		flagutils.FormatChoiceUsage("", PermissionLevelNames(), flagPermissionDescriptionConstant),
	)

	requiredFlagNames := []string{flagRepositorySlugNameConstant, flagUsernameNameConstant, flagPermissionNameConstant}
	if markError := markFlagsRequired(command, requiredFlagNames); markError != nil {
		return nil, markError
	}

	return command, nil
}

func (builder *CommandBuilder) buildRemoveUserCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   removeUserCommandUseConstant,
		Short: removeUserCommandShortDescription,
		Long:  removeUserCommandLongDescription,
		RunE: builder.runOperation(func(executionContext context.Context, service UserAdministrator, command *cobra.Command) (bitbucket.Outcome, error) {
			repositorySlugValue, _ := command.Flags().GetString(flagRepositorySlugNameConstant)
			usernameValue, _ := command.Flags().GetString(flagUsernameNameConstant)
			return service.RemoveUserPermission(executionContext, RevokeOptions{
				RepositorySlug: repositorySlugValue,
				Username:       usernameValue,
			})
		}),
	}

	command.Flags().String(flagRepositorySlugNameConstant, "", flagRepositorySlugDescriptionConstant)
	command.Flags().String(flagUsernameNameConstant, "", flagUsernameDescriptionConstant)

	requiredFlagNames := []string{flagRepositorySlugNameConstant, flagUsernameNameConstant}
	if markError := markFlagsRequired(command, requiredFlagNames); markError != nil {
		return nil, markError
	}

	return command, nil
}

func (builder *CommandBuilder) buildAddToGroupCommand() (*cobra.Command, error) {
	return builder.buildGroupMembershipCommand(
		addToGroupCommandUseConstant,
		addToGroupCommandShortDescription,
		addToGroupCommandLongDescription,
		UserAdministrator.AddGroupMember,
	)
}

func (builder *CommandBuilder) buildRemoveFromGroupCommand() (*cobra.Command, error) {
	return builder.buildGroupMembershipCommand(
		removeFromGroupCommandUseConstant,
		removeFromGroupCommandShortDescription,
		removeFromGroupCommandLongDescription,
		UserAdministrator.RemoveGroupMember,
	)
}

func (builder *CommandBuilder) buildGroupMembershipCommand(
	useValue string,
	shortDescription string,
	longDescription string,
	operation func(UserAdministrator, context.Context, MembershipOptions) (bitbucket.Outcome, error),
) (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   useValue,
		Short: shortDescription,
		Long:  longDescription,
		RunE: builder.runOperation(func(executionContext context.Context, service UserAdministrator, command *cobra.Command) (bitbucket.Outcome, error) {
			groupSlugValue, _ := command.Flags().GetString(flagGroupSlugNameConstant)
			usernameValue, _ := command.Flags().GetString(flagUsernameNameConstant)
			return operation(service, executionContext, MembershipOptions{
				GroupSlug: groupSlugValue,
				Username:  usernameValue,
			})
		}),
	}

	command.Flags().String(flagGroupSlugNameConstant, "", flagGroupSlugDescriptionConstant)
	command.Flags().String(flagUsernameNameConstant, "", flagUsernameDescriptionConstant)

	requiredFlagNames := []string{flagGroupSlugNameConstant, flagUsernameNameConstant}
	if markError := markFlagsRequired(command, requiredFlagNames); markError != nil {
		return nil, markError
	}

	return command, nil
}

type operationRunner func(executionContext context.Context, service UserAdministrator, command *cobra.Command) (bitbucket.Outcome, error)

func (builder *CommandBuilder) runOperation(runner operationRunner) func(*cobra.Command, []string) error {
	return func(command *cobra.Command, arguments []string) error {
		if len(arguments) > 0 {
			return errUnexpectedArguments
		}

		logger := builder.resolveLogger()

		service, serviceResolutionError := builder.resolveService(logger)
		if serviceResolutionError != nil {
			return serviceResolutionError
		}

		outcome, operationError := runner(command.Context(), service, command)
		if operationError != nil {
			return fmt.Errorf(commandExecutionErrorTemplateConstant, operationError)
		}

		builder.resolvePresenter().Present(outcome)

		if outcome.Failed() {
			return errors.New(outcome.Message)
		}

		return nil
	}
}

func markFlagsRequired(command *cobra.Command, flagNames []string) error {
	for _, flagName := range flagNames {
		if markError := command.MarkFlagRequired(flagName); markError != nil {
			return markError
		}
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

func (builder *CommandBuilder) resolveService(logger *zap.Logger) (UserAdministrator, error) {
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
