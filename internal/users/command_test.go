package users_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/bbctl/internal/bitbucket"
	"github.com/temirov/bbctl/internal/users"
)

const (
	addUserSubcommandNameConstant         = "add-user"
	removeUserSubcommandNameConstant      = "remove-user"
	addToGroupSubcommandNameConstant      = "add-to-group"
	removeFromGroupSubcommandNameConstant = "remove-from-group"
)

type fakeUserAdministrator struct {
	grantOptions      []users.GrantOptions
	revokeOptions     []users.RevokeOptions
	membershipAdds    []users.MembershipOptions
	membershipRemoves []users.MembershipOptions
	outcome           bitbucket.Outcome
	operationError    error
}

func (administrator *fakeUserAdministrator) SetUserPermission(executionContext context.Context, options users.GrantOptions) (bitbucket.Outcome, error) {
	administrator.grantOptions = append(administrator.grantOptions, options)
	return administrator.outcome, administrator.operationError
}

func (administrator *fakeUserAdministrator) RemoveUserPermission(executionContext context.Context, options users.RevokeOptions) (bitbucket.Outcome, error) {
	administrator.revokeOptions = append(administrator.revokeOptions, options)
	return administrator.outcome, administrator.operationError
}

func (administrator *fakeUserAdministrator) AddGroupMember(executionContext context.Context, options users.MembershipOptions) (bitbucket.Outcome, error) {
	administrator.membershipAdds = append(administrator.membershipAdds, options)
	return administrator.outcome, administrator.operationError
}

func (administrator *fakeUserAdministrator) RemoveGroupMember(executionContext context.Context, options users.MembershipOptions) (bitbucket.Outcome, error) {
	administrator.membershipRemoves = append(administrator.membershipRemoves, options)
	return administrator.outcome, administrator.operationError
}

type recordingPresenter struct {
	presented []bitbucket.Outcome
}

func (presenter *recordingPresenter) Present(outcome bitbucket.Outcome) {
	presenter.presented = append(presenter.presented, outcome)
}

func executeCommand(testInstance *testing.T, administrator *fakeUserAdministrator, presenter *recordingPresenter, arguments []string) error {
	testInstance.Helper()

	builder := &users.CommandBuilder{
		Service:   administrator,
		Presenter: presenter,
	}
	groupCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	groupCommand.SetOut(outputBuffer)
	groupCommand.SetErr(outputBuffer)
	groupCommand.SetArgs(arguments)

	return groupCommand.Execute()
}

func TestBuildRegistersSubcommands(testInstance *testing.T) {
	builder := &users.CommandBuilder{}
	groupCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	expectedSubcommandNames := []string{
		addUserSubcommandNameConstant,
		removeUserSubcommandNameConstant,
		addToGroupSubcommandNameConstant,
		removeFromGroupSubcommandNameConstant,
	}
	registeredNames := make([]string, 0, len(groupCommand.Commands()))
	for _, subcommand := range groupCommand.Commands() {
		registeredNames = append(registeredNames, subcommand.Name())
	}

	for _, expectedName := range expectedSubcommandNames {
		require.Contains(testInstance, registeredNames, expectedName)
	}
}

func TestAddUserCommandForwardsFlags(testInstance *testing.T) {
	administrator := &fakeUserAdministrator{outcome: bitbucket.SuccessOutcome("granted", 200)}
	presenter := &recordingPresenter{}

	executionError := executeCommand(testInstance, administrator, presenter, []string{
		addUserSubcommandNameConstant,
		"--repo-slug", testRepositorySlugConstant,
		"--username", testUsernameConstant,
		"--permission", "write",
	})

	require.NoError(testInstance, executionError)
	require.Equal(testInstance, []users.GrantOptions{{
		RepositorySlug: testRepositorySlugConstant,
		Username:       testUsernameConstant,
		Permission:     users.PermissionLevelWrite,
	}}, administrator.grantOptions)
	require.Len(testInstance, presenter.presented, 1)
	require.Equal(testInstance, bitbucket.OutcomeSuccess, presenter.presented[0].Result)
}

func TestAddUserCommandRequiresFlags(testInstance *testing.T) {
	administrator := &fakeUserAdministrator{}
	presenter := &recordingPresenter{}

	executionError := executeCommand(testInstance, administrator, presenter, []string{addUserSubcommandNameConstant})

	require.Error(testInstance, executionError)
	require.Empty(testInstance, administrator.grantOptions)
	require.Empty(testInstance, presenter.presented)
}

func TestAddUserCommandRejectsPositionalArguments(testInstance *testing.T) {
	administrator := &fakeUserAdministrator{}
	presenter := &recordingPresenter{}

	executionError := executeCommand(testInstance, administrator, presenter, []string{
		addUserSubcommandNameConstant,
		"--repo-slug", testRepositorySlugConstant,
		"--username", testUsernameConstant,
		"--permission", "write",
		"unexpected",
	})

	require.Error(testInstance, executionError)
	require.Empty(testInstance, administrator.grantOptions)
}

func TestFailureOutcomeBecomesCommandError(testInstance *testing.T) {
	administrator := &fakeUserAdministrator{
		outcome: bitbucket.FailureOutcome("Failed to grant 'write' permission to user 'alice'", 403, ""),
	}
	presenter := &recordingPresenter{}

	executionError := executeCommand(testInstance, administrator, presenter, []string{
		addUserSubcommandNameConstant,
		"--repo-slug", testRepositorySlugConstant,
		"--username", testUsernameConstant,
		"--permission", "write",
	})

	require.Error(testInstance, executionError)
	require.Equal(testInstance, "Failed to grant 'write' permission to user 'alice'", executionError.Error())
	require.Len(testInstance, presenter.presented, 1)
	require.Equal(testInstance, bitbucket.OutcomeFailure, presenter.presented[0].Result)
}

func TestNoOpOutcomeExitsCleanly(testInstance *testing.T) {
	administrator := &fakeUserAdministrator{
		outcome: bitbucket.NoOpOutcome("User 'alice' already has 'write' permission."),
	}
	presenter := &recordingPresenter{}

	executionError := executeCommand(testInstance, administrator, presenter, []string{
		addUserSubcommandNameConstant,
		"--repo-slug", testRepositorySlugConstant,
		"--username", testUsernameConstant,
		"--permission", "write",
	})

	require.NoError(testInstance, executionError)
	require.Len(testInstance, presenter.presented, 1)
	require.Equal(testInstance, bitbucket.OutcomeNoOp, presenter.presented[0].Result)
}

func TestGroupMembershipCommandsForwardFlags(testInstance *testing.T) {
	administrator := &fakeUserAdministrator{outcome: bitbucket.SuccessOutcome("done", 200)}
	presenter := &recordingPresenter{}

	addError := executeCommand(testInstance, administrator, presenter, []string{
		addToGroupSubcommandNameConstant,
		"--group-slug", testGroupSlugConstant,
		"--username", testUsernameConstant,
	})
	require.NoError(testInstance, addError)
	require.Equal(testInstance, []users.MembershipOptions{{
		GroupSlug: testGroupSlugConstant,
		Username:  testUsernameConstant,
	}}, administrator.membershipAdds)

	removeError := executeCommand(testInstance, administrator, presenter, []string{
		removeFromGroupSubcommandNameConstant,
		"--group-slug", testGroupSlugConstant,
		"--username", testUsernameConstant,
	})
	require.NoError(testInstance, removeError)
	require.Equal(testInstance, []users.MembershipOptions{{
		GroupSlug: testGroupSlugConstant,
		Username:  testUsernameConstant,
	}}, administrator.membershipRemoves)
}
