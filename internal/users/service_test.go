package users_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/bbctl/internal/bitbucket"
	"github.com/temirov/bbctl/internal/users"
)

const (
	testWorkspaceConstant             = "acme"
	testRepositorySlugConstant        = "svc"
	testUsernameConstant              = "alice"
	testGroupSlugConstant             = "developers"
	expectedPermissionPathConstant    = "repositories/acme/svc/permissions-config/users/alice"
	expectedGroupMemberPathConstant   = "workspaces/acme/groups/developers/members/alice"
	currentWritePermissionBody        = `{"permission":"write"}`
	currentReadPermissionBody         = `{"permission":"read"}`
	expectedPermissionPayloadConstant = `{"permission":"write"}`
	serviceSubtestNameTemplateConst   = "%d_%s"
)

type fakeAPIClient struct {
	probeResult     bitbucket.ExistenceProbe
	probePaths      []string
	probeSchemes    []bitbucket.AuthenticationScheme
	executeRequests []bitbucket.RequestSpecification
	executeResponse bitbucket.Response
	executeError    error
}

func (client *fakeAPIClient) Execute(executionContext context.Context, specification bitbucket.RequestSpecification) (bitbucket.Response, error) {
	client.executeRequests = append(client.executeRequests, specification)
	if client.executeError != nil {
		return bitbucket.Response{}, client.executeError
	}
	return client.executeResponse, nil
}

func (client *fakeAPIClient) ProbeResource(executionContext context.Context, resourcePath string, scheme bitbucket.AuthenticationScheme) bitbucket.ExistenceProbe {
	client.probePaths = append(client.probePaths, resourcePath)
	client.probeSchemes = append(client.probeSchemes, scheme)
	return client.probeResult
}

func (client *fakeAPIClient) Workspace() string {
	return testWorkspaceConstant
}

func encodePayload(testInstance *testing.T, payload any) string {
	testInstance.Helper()
	encoded, encodingError := json.Marshal(payload)
	require.NoError(testInstance, encodingError)
	return string(encoded)
}

func buildService(testInstance *testing.T, client *fakeAPIClient) *users.Service {
	testInstance.Helper()
	service, creationError := users.NewService(zap.NewNop(), client)
	require.NoError(testInstance, creationError)
	return service
}

func grantOptions() users.GrantOptions {
	return users.GrantOptions{
		RepositorySlug: testRepositorySlugConstant,
		Username:       testUsernameConstant,
		Permission:     users.PermissionLevelWrite,
	}
}

func TestSetUserPermissionScenarios(testInstance *testing.T) {
	testCases := []struct {
		name                string
		probeResult         bitbucket.ExistenceProbe
		executeResponse     bitbucket.Response
		expectedResult      bitbucket.OutcomeResult
		expectedWriteCalls  int
		expectedProbedPaths []string
	}{
		{
			name:                "absent_grant_issues_put",
			probeResult:         bitbucket.ExistenceProbe{State: bitbucket.ResourceMissing},
			executeResponse:     bitbucket.Response{StatusCode: http.StatusOK},
			expectedResult:      bitbucket.OutcomeSuccess,
			expectedWriteCalls:  1,
			expectedProbedPaths: []string{expectedPermissionPathConstant},
		},
		{
			name:                "matching_grant_skips_put",
			probeResult:         bitbucket.ExistenceProbe{State: bitbucket.ResourceExists, Body: []byte(currentWritePermissionBody)},
			expectedResult:      bitbucket.OutcomeNoOp,
			expectedWriteCalls:  0,
			expectedProbedPaths: []string{expectedPermissionPathConstant},
		},
		{
			name:                "differing_grant_updates",
			probeResult:         bitbucket.ExistenceProbe{State: bitbucket.ResourceExists, Body: []byte(currentReadPermissionBody)},
			executeResponse:     bitbucket.Response{StatusCode: http.StatusOK},
			expectedResult:      bitbucket.OutcomeSuccess,
			expectedWriteCalls:  1,
			expectedProbedPaths: []string{expectedPermissionPathConstant},
		},
		{
			name:                "indeterminate_probe_proceeds_to_put",
			probeResult:         bitbucket.ExistenceProbe{State: bitbucket.ResourceIndeterminate},
			executeResponse:     bitbucket.Response{StatusCode: http.StatusOK},
			expectedResult:      bitbucket.OutcomeSuccess,
			expectedWriteCalls:  1,
			expectedProbedPaths: []string{expectedPermissionPathConstant},
		},
		{
			name:                "service_rejection_is_failure",
			probeResult:         bitbucket.ExistenceProbe{State: bitbucket.ResourceMissing},
			executeResponse:     bitbucket.Response{StatusCode: http.StatusForbidden},
			expectedResult:      bitbucket.OutcomeFailure,
			expectedWriteCalls:  1,
			expectedProbedPaths: []string{expectedPermissionPathConstant},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(serviceSubtestNameTemplateConst, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			client := &fakeAPIClient{
				probeResult:     testCase.probeResult,
				executeResponse: testCase.executeResponse,
			}
			service := buildService(testInstance, client)

			outcome, operationError := service.SetUserPermission(context.Background(), grantOptions())
			require.NoError(testInstance, operationError)
			require.Equal(testInstance, testCase.expectedResult, outcome.Result)
			require.Equal(testInstance, testCase.expectedProbedPaths, client.probePaths)
			require.Len(testInstance, client.executeRequests, testCase.expectedWriteCalls)

			if testCase.expectedWriteCalls > 0 {
				writeRequest := client.executeRequests[0]
				require.Equal(testInstance, http.MethodPut, writeRequest.Method)
				require.Equal(testInstance, expectedPermissionPathConstant, writeRequest.Path)
				require.Equal(testInstance, bitbucket.AuthenticationSchemeBasic, writeRequest.Scheme)
				require.JSONEq(testInstance, expectedPermissionPayloadConstant, encodePayload(testInstance, writeRequest.Payload))
			}
		})
	}
}

func TestSetUserPermissionSecondInvocationIsNoOp(testInstance *testing.T) {
	client := &fakeAPIClient{
		probeResult:     bitbucket.ExistenceProbe{State: bitbucket.ResourceMissing},
		executeResponse: bitbucket.Response{StatusCode: http.StatusOK},
	}
	service := buildService(testInstance, client)

	firstOutcome, firstError := service.SetUserPermission(context.Background(), grantOptions())
	require.NoError(testInstance, firstError)
	require.Equal(testInstance, bitbucket.OutcomeSuccess, firstOutcome.Result)
	require.Len(testInstance, client.executeRequests, 1)

	client.probeResult = bitbucket.ExistenceProbe{State: bitbucket.ResourceExists, Body: []byte(currentWritePermissionBody)}

	secondOutcome, secondError := service.SetUserPermission(context.Background(), grantOptions())
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, bitbucket.OutcomeNoOp, secondOutcome.Result)
	require.Len(testInstance, client.executeRequests, 1)
}

func TestSetUserPermissionRejectsUnknownLevel(testInstance *testing.T) {
	client := &fakeAPIClient{}
	service := buildService(testInstance, client)

	options := grantOptions()
	options.Permission = users.PermissionLevel("owner")

	_, operationError := service.SetUserPermission(context.Background(), options)
	require.Error(testInstance, operationError)
	require.Empty(testInstance, client.probePaths)
	require.Empty(testInstance, client.executeRequests)
}

func TestSetUserPermissionTransportFailureIsFailureOutcome(testInstance *testing.T) {
	client := &fakeAPIClient{
		probeResult:  bitbucket.ExistenceProbe{State: bitbucket.ResourceMissing},
		executeError: bitbucket.TransportError{RequestURL: "http://127.0.0.1:1", Cause: fmt.Errorf("connection refused")},
	}
	service := buildService(testInstance, client)

	outcome, operationError := service.SetUserPermission(context.Background(), grantOptions())
	require.NoError(testInstance, operationError)
	require.Equal(testInstance, bitbucket.OutcomeFailure, outcome.Result)
	require.Contains(testInstance, outcome.Details, "connection refused")
}

func TestRemoveUserPermissionScenarios(testInstance *testing.T) {
	testCases := []struct {
		name                string
		probeResult         bitbucket.ExistenceProbe
		executeResponse     bitbucket.Response
		expectedResult      bitbucket.OutcomeResult
		expectedDeleteCalls int
	}{
		{
			name:                "absent_grant_is_noop",
			probeResult:         bitbucket.ExistenceProbe{State: bitbucket.ResourceMissing},
			expectedResult:      bitbucket.OutcomeNoOp,
			expectedDeleteCalls: 0,
		},
		{
			name:                "present_grant_is_deleted",
			probeResult:         bitbucket.ExistenceProbe{State: bitbucket.ResourceExists, Body: []byte(currentWritePermissionBody)},
			executeResponse:     bitbucket.Response{StatusCode: http.StatusNoContent},
			expectedResult:      bitbucket.OutcomeSuccess,
			expectedDeleteCalls: 1,
		},
		{
			name:                "indeterminate_probe_lets_delete_decide",
			probeResult:         bitbucket.ExistenceProbe{State: bitbucket.ResourceIndeterminate},
			executeResponse:     bitbucket.Response{StatusCode: http.StatusNoContent},
			expectedResult:      bitbucket.OutcomeSuccess,
			expectedDeleteCalls: 1,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(serviceSubtestNameTemplateConst, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			client := &fakeAPIClient{
				probeResult:     testCase.probeResult,
				executeResponse: testCase.executeResponse,
			}
			service := buildService(testInstance, client)

			outcome, operationError := service.RemoveUserPermission(context.Background(), users.RevokeOptions{
				RepositorySlug: testRepositorySlugConstant,
				Username:       testUsernameConstant,
			})
			require.NoError(testInstance, operationError)
			require.Equal(testInstance, testCase.expectedResult, outcome.Result)
			require.Len(testInstance, client.executeRequests, testCase.expectedDeleteCalls)

			if testCase.expectedDeleteCalls > 0 {
				deleteRequest := client.executeRequests[0]
				require.Equal(testInstance, http.MethodDelete, deleteRequest.Method)
				require.Equal(testInstance, expectedPermissionPathConstant, deleteRequest.Path)
				require.Nil(testInstance, deleteRequest.Payload)
			}
		})
	}
}

func TestGroupMembershipOperations(testInstance *testing.T) {
	testCases := []struct {
		name           string
		operation      func(*users.Service, context.Context, users.MembershipOptions) (bitbucket.Outcome, error)
		expectedMethod string
	}{
		{
			name:           "add_member_issues_put",
			operation:      (*users.Service).AddGroupMember,
			expectedMethod: http.MethodPut,
		},
		{
			name:           "remove_member_issues_delete",
			operation:      (*users.Service).RemoveGroupMember,
			expectedMethod: http.MethodDelete,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(serviceSubtestNameTemplateConst, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			client := &fakeAPIClient{executeResponse: bitbucket.Response{StatusCode: http.StatusOK}}
			service := buildService(testInstance, client)

			outcome, operationError := testCase.operation(service, context.Background(), users.MembershipOptions{
				GroupSlug: testGroupSlugConstant,
				Username:  testUsernameConstant,
			})
			require.NoError(testInstance, operationError)
			require.Equal(testInstance, bitbucket.OutcomeSuccess, outcome.Result)
			require.Empty(testInstance, client.probePaths)
			require.Len(testInstance, client.executeRequests, 1)
			require.Equal(testInstance, testCase.expectedMethod, client.executeRequests[0].Method)
			require.Equal(testInstance, expectedGroupMemberPathConstant, client.executeRequests[0].Path)
			require.Nil(testInstance, client.executeRequests[0].Payload)
		})
	}
}
