package repositories

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
	repositoryResourcePathTemplateConstant = "repositories/%s/%s"
	gitSCMValueConstant                    = "git"
	repositorySlugFieldNameConstant        = "repository slug"
	projectKeyFieldNameConstant            = "project key"
	creationStartedMessageConstant         = "creating repository"
	logFieldRepositorySlugConstant         = "repository_slug"
	logFieldProjectKeyConstant             = "project_key"
	logFieldWorkspaceConstant              = "workspace"
	logFieldIsPrivateConstant              = "is_private"
	creationSuccessTemplateConstant        = "Repository '%s' created successfully!"
	creationFailureTemplateConstant        = "Failed to create repository '%s'"
	guardRejectionTemplateConstant         = "Repository with slug '%s' already exists in workspace '%s'"
	loggerRequiredMessageConstant          = "repository service requires a logger"
	clientRequiredMessageConstant          = "repository service requires an API client"
)

// APIClient captures the gateway surface the repository service consumes.
type APIClient interface {
	Execute(executionContext context.Context, specification bitbucket.RequestSpecification) (bitbucket.Response, error)
	ProbeResource(executionContext context.Context, resourcePath string, scheme bitbucket.AuthenticationScheme) bitbucket.ExistenceProbe
	Workspace() string
}

// CreationOptions describes the repository to create.
type CreationOptions struct {
	RepositorySlug string
	ProjectKey     string
	IsPrivate      bool
}

type repositoryProjectReference struct {
	Key string `json:"key"`
}

type repositoryCreationPayload struct {
	SCM       string                     `json:"scm"`
	IsPrivate bool                       `json:"is_private"`
	Project   repositoryProjectReference `json:"project"`
}

// Service performs existence-guarded repository creation.
type Service struct {
	logger *zap.Logger
	client APIClient
}

// NewService constructs a repository service.
func NewService(logger *zap.Logger, client APIClient) (*Service, error) {
	if logger == nil {
		return nil, errors.New(loggerRequiredMessageConstant)
	}
	if client == nil {
		return nil, errors.New(clientRequiredMessageConstant)
	}
	return &Service{logger: logger, client: client}, nil
}

// CreateRepository probes for an existing repository with the same slug and,
// when none is confirmed, issues the creation call. A confirmed duplicate is
// rejected before any mutating request; an indeterminate probe allows
// creation to proceed so the remote duplicate check stays authoritative.
func (service *Service) CreateRepository(executionContext context.Context, options CreationOptions) (bitbucket.Outcome, error) {
	trimmedSlug := strings.TrimSpace(options.RepositorySlug)
	if len(trimmedSlug) == 0 {
		return bitbucket.Outcome{}, bitbucket.NewRequiredInputError(repositorySlugFieldNameConstant)
	}

	trimmedProjectKey := strings.TrimSpace(options.ProjectKey)
	if len(trimmedProjectKey) == 0 {
		return bitbucket.Outcome{}, bitbucket.NewRequiredInputError(projectKeyFieldNameConstant)
	}

	workspace := service.client.Workspace()
	resourcePath := fmt.Sprintf(repositoryResourcePathTemplateConstant, workspace, trimmedSlug)

	service.logger.Info(
		creationStartedMessageConstant,
		zap.String(logFieldRepositorySlugConstant, trimmedSlug),
		zap.String(logFieldProjectKeyConstant, trimmedProjectKey),
		zap.String(logFieldWorkspaceConstant, workspace),
		zap.Bool(logFieldIsPrivateConstant, options.IsPrivate),
	)

	existenceProbe := service.client.ProbeResource(executionContext, resourcePath, bitbucket.AuthenticationSchemeBearer)
	if existenceProbe.State == bitbucket.ResourceExists {
		guardMessage := fmt.Sprintf(guardRejectionTemplateConstant, trimmedSlug, workspace)
		return bitbucket.FailureOutcome(guardMessage, 0, ""), nil
	}

	response, executionError := service.client.Execute(executionContext, bitbucket.RequestSpecification{
		Method: http.MethodPost,
		Path:   resourcePath,
		Scheme: bitbucket.AuthenticationSchemeBearer,
		Payload: repositoryCreationPayload{
			SCM:       gitSCMValueConstant,
			IsPrivate: options.IsPrivate,
			Project:   repositoryProjectReference{Key: trimmedProjectKey},
		},
	})

	outcome := bitbucket.ClassifyCreation(
		response,
		executionError,
		fmt.Sprintf(creationSuccessTemplateConstant, trimmedSlug),
		fmt.Sprintf(creationFailureTemplateConstant, trimmedSlug),
	)

	return outcome, nil
}
