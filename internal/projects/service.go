package projects

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/bbctl/internal/bitbucket"
)

const (
	projectResourcePathTemplateConstant    = "workspaces/%s/projects/%s"
	projectsCollectionPathTemplateConstant = "workspaces/%s/projects"
	projectKeyFieldNameConstant            = "project key"
	projectNameFieldNameConstant           = "project name"
	creationStartedMessageConstant         = "creating project"
	logFieldProjectKeyConstant             = "project_key"
	logFieldProjectNameConstant            = "project_name"
	logFieldWorkspaceConstant              = "workspace"
	creationSuccessTemplateConstant        = "Project '%s' created successfully!"
	creationFailureTemplateConstant        = "Failed to create project '%s'"
	guardRejectionTemplateConstant         = "Project with key '%s' already exists in workspace '%s'"
	loggerRequiredMessageConstant          = "project service requires a logger"
	clientRequiredMessageConstant          = "project service requires an API client"
)

// APIClient captures the gateway surface the project service consumes.
type APIClient interface {
	Execute(executionContext context.Context, specification bitbucket.RequestSpecification) (bitbucket.Response, error)
	ProbeResource(executionContext context.Context, resourcePath string, scheme bitbucket.AuthenticationScheme) bitbucket.ExistenceProbe
	Workspace() string
}

// CreationOptions describes the project to create.
type CreationOptions struct {
	ProjectKey  string
	Name        string
	Description string
}

type projectCreationPayload struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Service performs existence-guarded project creation.
type Service struct {
	logger *zap.Logger
	client APIClient
}

// NewService constructs a project service.
func NewService(logger *zap.Logger, client APIClient) (*Service, error) {
	if logger == nil {
		return nil, errors.New(loggerRequiredMessageConstant)
	}
	if client == nil {
		return nil, errors.New(clientRequiredMessageConstant)
	}
	return &Service{logger: logger, client: client}, nil
}

// CreateProject probes for an existing project with the same key and, when
// none is confirmed, issues the creation call. A confirmed duplicate is
// rejected before any mutating request; an indeterminate probe allows
// creation to proceed so the remote duplicate check stays authoritative.
func (service *Service) CreateProject(executionContext context.Context, options CreationOptions) (bitbucket.Outcome, error) {
	trimmedProjectKey := strings.TrimSpace(options.ProjectKey)
	if len(trimmedProjectKey) == 0 {
		return bitbucket.Outcome{}, bitbucket.NewRequiredInputError(projectKeyFieldNameConstant)
	}

	trimmedName := strings.TrimSpace(options.Name)
	if len(trimmedName) == 0 {
		return bitbucket.Outcome{}, bitbucket.NewRequiredInputError(projectNameFieldNameConstant)
	}

	workspace := service.client.Workspace()

	service.logger.Info(
		creationStartedMessageConstant,
		zap.String(logFieldProjectKeyConstant, trimmedProjectKey),
		zap.String(logFieldProjectNameConstant, trimmedName),
		zap.String(logFieldWorkspaceConstant, workspace),
	)

	probePath := fmt.Sprintf(projectResourcePathTemplateConstant, workspace, trimmedProjectKey)
	existenceProbe := service.client.ProbeResource(executionContext, probePath, bitbucket.AuthenticationSchemeBearer)
	if existenceProbe.State == bitbucket.ResourceExists {
		guardMessage := fmt.Sprintf(guardRejectionTemplateConstant, trimmedProjectKey, workspace)
		return bitbucket.FailureOutcome(guardMessage, 0, ""), nil
	}

	response, executionError := service.client.Execute(executionContext, bitbucket.RequestSpecification{
		Method: http.MethodPost,
		Path:   fmt.Sprintf(projectsCollectionPathTemplateConstant, workspace),
		Scheme: bitbucket.AuthenticationSchemeBearer,
		Payload: projectCreationPayload{
			Key:         trimmedProjectKey,
			Name:        trimmedName,
			Description: options.Description,
		},
	})

	outcome := bitbucket.ClassifyCreation(
		response,
		executionError,
		fmt.Sprintf(creationSuccessTemplateConstant, trimmedName),
		fmt.Sprintf(creationFailureTemplateConstant, trimmedName),
	)

	return outcome, nil
}
