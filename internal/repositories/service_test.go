package repositories_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/bbctl/internal/bitbucket"
	"github.com/temirov/bbctl/internal/repositories"
)

const (
	testWorkspaceConstant              = "acme"
	testRepositorySlugConstant         = "svc"
	testProjectKeyConstant             = "PLAT"
	expectedRepositoryPathConstant     = "repositories/acme/svc"
	expectedPrivatePayloadConstant     = `{"scm":"git","is_private":true,"project":{"key":"PLAT"}}`
	expectedPublicPayloadConstant      = `{"scm":"git","is_private":false,"project":{"key":"PLAT"}}`
	nameCollisionResponseBodyConstant  = `{"error":{"message":"Repository name already in use"}}`
	repositorySubtestNameTemplateConst = "%d_%s"
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

func TestCreateRepositoryScenarios(testInstance *testing.T) {
	testCases := []struct {
		name                string
		options             repositories.CreationOptions
		probeResult         bitbucket.ExistenceProbe
		executeResponse     bitbucket.Response
		expectedResult      bitbucket.OutcomeResult
		expectedCreateCalls int
		expectedPayload     string
	}{
		{
			name: "missing_private_repository_is_created",
			options: repositories.CreationOptions{
				RepositorySlug: testRepositorySlugConstant,
				ProjectKey:     testProjectKeyConstant,
				IsPrivate:      true,
			},
			probeResult:         bitbucket.ExistenceProbe{State: bitbucket.ResourceMissing},
			executeResponse:     bitbucket.Response{StatusCode: http.StatusOK},
			expectedResult:      bitbucket.OutcomeSuccess,
			expectedCreateCalls: 1,
			expectedPayload:     expectedPrivatePayloadConstant,
		},
		{
			name: "public_flag_reaches_the_payload",
			options: repositories.CreationOptions{
				RepositorySlug: testRepositorySlugConstant,
				ProjectKey:     testProjectKeyConstant,
				IsPrivate:      false,
			},
			probeResult:         bitbucket.ExistenceProbe{State: bitbucket.ResourceMissing},
			executeResponse:     bitbucket.Response{StatusCode: http.StatusCreated},
			expectedResult:      bitbucket.OutcomeSuccess,
			expectedCreateCalls: 1,
			expectedPayload:     expectedPublicPayloadConstant,
		},
		{
			name: "existing_repository_blocks_creation",
			options: repositories.CreationOptions{
				RepositorySlug: testRepositorySlugConstant,
				ProjectKey:     testProjectKeyConstant,
				IsPrivate:      true,
			},
			probeResult:         bitbucket.ExistenceProbe{State: bitbucket.ResourceExists, Body: []byte(`{"slug":"svc"}`)},
			expectedResult:      bitbucket.OutcomeFailure,
			expectedCreateCalls: 0,
		},
		{
			name: "indeterminate_probe_still_creates",
			options: repositories.CreationOptions{
				RepositorySlug: testRepositorySlugConstant,
				ProjectKey:     testProjectKeyConstant,
				IsPrivate:      true,
			},
			probeResult:         bitbucket.ExistenceProbe{State: bitbucket.ResourceIndeterminate},
			executeResponse:     bitbucket.Response{StatusCode: http.StatusOK},
			expectedResult:      bitbucket.OutcomeSuccess,
			expectedCreateCalls: 1,
			expectedPayload:     expectedPrivatePayloadConstant,
		},
		{
			name: "name_collision_is_failure",
			options: repositories.CreationOptions{
				RepositorySlug: testRepositorySlugConstant,
				ProjectKey:     testProjectKeyConstant,
				IsPrivate:      true,
			},
			probeResult:         bitbucket.ExistenceProbe{State: bitbucket.ResourceMissing},
			executeResponse:     bitbucket.Response{StatusCode: http.StatusBadRequest, Body: []byte(nameCollisionResponseBodyConstant)},
			expectedResult:      bitbucket.OutcomeFailure,
			expectedCreateCalls: 1,
			expectedPayload:     expectedPrivatePayloadConstant,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(repositorySubtestNameTemplateConst, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			client := &fakeAPIClient{
				probeResult:     testCase.probeResult,
				executeResponse: testCase.executeResponse,
			}
			service, creationError := repositories.NewService(zap.NewNop(), client)
			require.NoError(testInstance, creationError)

			outcome, operationError := service.CreateRepository(context.Background(), testCase.options)
			require.NoError(testInstance, operationError)
			require.Equal(testInstance, testCase.expectedResult, outcome.Result)
			require.Equal(testInstance, []string{expectedRepositoryPathConstant}, client.probePaths)
			require.Len(testInstance, client.executeRequests, testCase.expectedCreateCalls)

			if testCase.expectedCreateCalls > 0 {
				createRequest := client.executeRequests[0]
				require.Equal(testInstance, http.MethodPost, createRequest.Method)
				require.Equal(testInstance, expectedRepositoryPathConstant, createRequest.Path)
				require.Equal(testInstance, bitbucket.AuthenticationSchemeBearer, createRequest.Scheme)

				encodedPayload, encodingError := json.Marshal(createRequest.Payload)
				require.NoError(testInstance, encodingError)
				require.JSONEq(testInstance, testCase.expectedPayload, string(encodedPayload))
			}
		})
	}
}

func TestCreateRepositoryGuardMessageNamesWorkspace(testInstance *testing.T) {
	client := &fakeAPIClient{
		probeResult: bitbucket.ExistenceProbe{State: bitbucket.ResourceExists},
	}
	service, creationError := repositories.NewService(zap.NewNop(), client)
	require.NoError(testInstance, creationError)

	outcome, operationError := service.CreateRepository(context.Background(), repositories.CreationOptions{
		RepositorySlug: testRepositorySlugConstant,
		ProjectKey:     testProjectKeyConstant,
		IsPrivate:      true,
	})
	require.NoError(testInstance, operationError)
	require.True(testInstance, outcome.Failed())
	require.Equal(testInstance, "Repository with slug 'svc' already exists in workspace 'acme'", outcome.Message)
}

func TestCreateRepositoryValidatesRequiredFields(testInstance *testing.T) {
	testCases := []struct {
		name    string
		options repositories.CreationOptions
	}{
		{
			name:    "missing_repository_slug",
			options: repositories.CreationOptions{ProjectKey: testProjectKeyConstant},
		},
		{
			name:    "missing_project_key",
			options: repositories.CreationOptions{RepositorySlug: testRepositorySlugConstant},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(repositorySubtestNameTemplateConst, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			client := &fakeAPIClient{}
			service, creationError := repositories.NewService(zap.NewNop(), client)
			require.NoError(testInstance, creationError)

			_, operationError := service.CreateRepository(context.Background(), testCase.options)

			var inputError bitbucket.InvalidInputError
			require.ErrorAs(testInstance, operationError, &inputError)
			require.Empty(testInstance, client.probePaths)
			require.Empty(testInstance, client.executeRequests)
		})
	}
}
