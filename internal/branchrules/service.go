package branchrules

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
	branchRestrictionsPathTemplateConstant = "repositories/%s/%s/branch-restrictions"
	pushRestrictionKindConstant            = "push"
	globBranchMatchKindConstant            = "glob"
	exemptedUserTypeConstant               = "user"
	repositorySlugFieldNameConstant        = "repository slug"
	usernameFieldNameConstant              = "username"
	exemptionStartedMessageConstant        = "exempting user from pull request requirement"
	logFieldRepositorySlugConstant         = "repository_slug"
	logFieldUsernameConstant               = "username"
	logFieldWorkspaceConstant              = "workspace"
	logFieldPatternConstant                = "pattern"
	exemptionSuccessTemplateConstant       = "User '%s' successfully exempted."
	exemptionFailureTemplateConstant       = "Failed to exempt user '%s'"
	loggerRequiredMessageConstant          = "branch rule service requires a logger"
	clientRequiredMessageConstant          = "branch rule service requires an API client"
)

// APIClient captures the gateway surface the branch rule service consumes.
type APIClient interface {
	Execute(executionContext context.Context, specification bitbucket.RequestSpecification) (bitbucket.Response, error)
	Workspace() string
}

// ExemptionOptions describes the push-restriction exemption to create.
type ExemptionOptions struct {
	RepositorySlug string
	Username       string
	Pattern        string
}

type exemptedUserReference struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

type branchRestrictionPayload struct {
	Kind            string                  `json:"kind"`
	BranchMatchKind string                  `json:"branch_match_kind"`
	Pattern         string                  `json:"pattern"`
	Users           []exemptedUserReference `json:"users"`
}

// Service creates branch push-restriction exemptions.
type Service struct {
	logger *zap.Logger
	client APIClient
}

// NewService constructs a branch rule service.
func NewService(logger *zap.Logger, client APIClient) (*Service, error) {
	if logger == nil {
		return nil, errors.New(loggerRequiredMessageConstant)
	}
	if client == nil {
		return nil, errors.New(clientRequiredMessageConstant)
	}
	return &Service{logger: logger, client: client}, nil
}

// ExemptUser posts a push-restriction rule scoped to the configured branch
// pattern naming the user as its single exemption. The operation is a
// one-shot mutation with no pre-check; the outcome is classified purely by
// HTTP status.
func (service *Service) ExemptUser(executionContext context.Context, options ExemptionOptions) (bitbucket.Outcome, error) {
	trimmedSlug := strings.TrimSpace(options.RepositorySlug)
	if len(trimmedSlug) == 0 {
		return bitbucket.Outcome{}, bitbucket.NewRequiredInputError(repositorySlugFieldNameConstant)
	}

	trimmedUsername := strings.TrimSpace(options.Username)
	if len(trimmedUsername) == 0 {
		return bitbucket.Outcome{}, bitbucket.NewRequiredInputError(usernameFieldNameConstant)
	}

	branchPattern := strings.TrimSpace(options.Pattern)
	if len(branchPattern) == 0 {
		branchPattern = defaultBranchPatternConstant
	}

	workspace := service.client.Workspace()

	service.logger.Info(
		exemptionStartedMessageConstant,
		zap.String(logFieldRepositorySlugConstant, trimmedSlug),
		zap.String(logFieldUsernameConstant, trimmedUsername),
		zap.String(logFieldWorkspaceConstant, workspace),
		zap.String(logFieldPatternConstant, branchPattern),
	)

	response, executionError := service.client.Execute(executionContext, bitbucket.RequestSpecification{
		Method: http.MethodPost,
		Path:   fmt.Sprintf(branchRestrictionsPathTemplateConstant, workspace, trimmedSlug),
		Scheme: bitbucket.AuthenticationSchemeBasic,
		Payload: branchRestrictionPayload{
			Kind:            pushRestrictionKindConstant,
			BranchMatchKind: globBranchMatchKindConstant,
			Pattern:         branchPattern,
			Users: []exemptedUserReference{
				{Type: exemptedUserTypeConstant, Username: trimmedUsername},
			},
		},
	})

	outcome := bitbucket.ClassifyMutation(
		response,
		executionError,
		fmt.Sprintf(exemptionSuccessTemplateConstant, trimmedUsername),
		fmt.Sprintf(exemptionFailureTemplateConstant, trimmedUsername),
	)

	return outcome, nil
}
