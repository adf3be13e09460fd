package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/bbctl/internal/bitbucket"
)

const (
	userPermissionPathTemplateConstant = "repositories/%s/%s/permissions-config/users/%s"
	groupMemberPathTemplateConstant    = "workspaces/%s/groups/%s/members/%s"
	repositorySlugFieldNameConstant    = "repository slug"
	usernameFieldNameConstant          = "username"
	groupSlugFieldNameConstant         = "group slug"

	grantStartedMessageConstant        = "adding user to repository"
	grantUpdatingMessageConstant       = "updating existing permission"
	revokeStartedMessageConstant       = "removing user from repository"
	membershipAddMessageConstant       = "adding user to group"
	membershipRemoveMessageConstant    = "removing user from group"
	permissionDecodeFailedMsgConstant  = "unable to decode current permission; treating grant as absent"
	logFieldRepositorySlugConstant     = "repository_slug"
	logFieldUsernameConstant           = "username"
	logFieldGroupSlugConstant          = "group_slug"
	logFieldWorkspaceConstant          = "workspace"
	logFieldPermissionConstant         = "permission"
	logFieldCurrentPermissionConstant  = "current_permission"
	logFieldDesiredPermissionConstant  = "desired_permission"

	grantSuccessTemplateConstant     = "User '%s' successfully added with '%s' permission."
	grantNoOpTemplateConstant        = "User '%s' already has '%s' permission."
	grantFailureTemplateConstant     = "Failed to grant '%s' permission to user '%s'"
	revokeSuccessTemplateConstant    = "User '%s' successfully removed from the repository."
	revokeNoOpTemplateConstant       = "User '%s' has no permission on repository '%s'; nothing to remove."
	revokeFailureTemplateConstant    = "Failed to remove user '%s' from repository '%s'"
	memberAddSuccessTemplateConstant = "User '%s' added to group '%s'."
	memberAddFailureTemplateConstant = "Failed to add user '%s' to group '%s'"
	memberRemoveSuccessTemplateConst = "User '%s' removed from group '%s'."
	memberRemoveFailureTemplateConst = "Failed to remove user '%s' from group '%s'"

	loggerRequiredMessageConstant = "user service requires a logger"
	clientRequiredMessageConstant = "user service requires an API client"
)

// APIClient captures the gateway surface the user service consumes.
type APIClient interface {
	Execute(executionContext context.Context, specification bitbucket.RequestSpecification) (bitbucket.Response, error)
	ProbeResource(executionContext context.Context, resourcePath string, scheme bitbucket.AuthenticationScheme) bitbucket.ExistenceProbe
	Workspace() string
}

// GrantOptions describes the desired permission state for a user.
type GrantOptions struct {
	RepositorySlug string
	Username       string
	Permission     PermissionLevel
}

// RevokeOptions identifies the user whose grant should be removed.
type RevokeOptions struct {
	RepositorySlug string
	Username       string
}

// MembershipOptions identifies a workspace group membership relation.
type MembershipOptions struct {
	GroupSlug string
	Username  string
}

type permissionPayload struct {
	Permission string `json:"permission"`
}

type currentPermissionEnvelope struct {
	Permission string `json:"permission"`
}

// Service reconciles repository permissions and manages group membership.
type Service struct {
	logger *zap.Logger
	client APIClient
}

// NewService constructs a user service.
func NewService(logger *zap.Logger, client APIClient) (*Service, error) {
	if logger == nil {
		return nil, errors.New(loggerRequiredMessageConstant)
	}
	if client == nil {
		return nil, errors.New(clientRequiredMessageConstant)
	}
	return &Service{logger: logger, client: client}, nil
}

// SetUserPermission converges the user's repository grant onto the desired
// level. The current grant is read first: a matching level skips the write
// entirely, a differing level is updated after an explicit notice, and an
// absent or unconfirmed grant proceeds straight to the write.
func (service *Service) SetUserPermission(executionContext context.Context, options GrantOptions) (bitbucket.Outcome, error) {
	trimmedSlug := strings.TrimSpace(options.RepositorySlug)
	if len(trimmedSlug) == 0 {
		return bitbucket.Outcome{}, bitbucket.NewRequiredInputError(repositorySlugFieldNameConstant)
	}

	trimmedUsername := strings.TrimSpace(options.Username)
	if len(trimmedUsername) == 0 {
		return bitbucket.Outcome{}, bitbucket.NewRequiredInputError(usernameFieldNameConstant)
	}

	desiredPermission, permissionError := ParsePermissionLevel(string(options.Permission))
	if permissionError != nil {
		return bitbucket.Outcome{}, permissionError
	}

	workspace := service.client.Workspace()
	resourcePath := fmt.Sprintf(userPermissionPathTemplateConstant, workspace, trimmedSlug, trimmedUsername)

	service.logger.Info(
		grantStartedMessageConstant,
		zap.String(logFieldRepositorySlugConstant, trimmedSlug),
		zap.String(logFieldUsernameConstant, trimmedUsername),
		zap.String(logFieldWorkspaceConstant, workspace),
		zap.String(logFieldPermissionConstant, string(desiredPermission)),
	)

	existenceProbe := service.client.ProbeResource(executionContext, resourcePath, bitbucket.AuthenticationSchemeBasic)
	if existenceProbe.State == bitbucket.ResourceExists {
		currentPermission := service.decodeCurrentPermission(existenceProbe.Body)
		if currentPermission == string(desiredPermission) {
			return bitbucket.NoOpOutcome(fmt.Sprintf(grantNoOpTemplateConstant, trimmedUsername, desiredPermission)), nil
		}
		if len(currentPermission) > 0 {
			service.logger.Info(
				grantUpdatingMessageConstant,
				zap.String(logFieldUsernameConstant, trimmedUsername),
				zap.String(logFieldCurrentPermissionConstant, currentPermission),
				zap.String(logFieldDesiredPermissionConstant, string(desiredPermission)),
			)
		}
	}

	response, executionError := service.client.Execute(executionContext, bitbucket.RequestSpecification{
		Method:  http.MethodPut,
		Path:    resourcePath,
		Scheme:  bitbucket.AuthenticationSchemeBasic,
		Payload: permissionPayload{Permission: string(desiredPermission)},
	})

	outcome := bitbucket.ClassifyMutation(
		response,
		executionError,
		fmt.Sprintf(grantSuccessTemplateConstant, trimmedUsername, desiredPermission),
		fmt.Sprintf(grantFailureTemplateConstant, desiredPermission, trimmedUsername),
	)

	return outcome, nil
}

// RemoveUserPermission deletes the user's repository grant. A confirmed
// absent grant becomes a no-op without any DELETE call; an unconfirmed probe
// lets the DELETE itself be the authority.
func (service *Service) RemoveUserPermission(executionContext context.Context, options RevokeOptions) (bitbucket.Outcome, error) {
	trimmedSlug := strings.TrimSpace(options.RepositorySlug)
	if len(trimmedSlug) == 0 {
		return bitbucket.Outcome{}, bitbucket.NewRequiredInputError(repositorySlugFieldNameConstant)
	}

	trimmedUsername := strings.TrimSpace(options.Username)
	if len(trimmedUsername) == 0 {
		return bitbucket.Outcome{}, bitbucket.NewRequiredInputError(usernameFieldNameConstant)
	}

	workspace := service.client.Workspace()
	resourcePath := fmt.Sprintf(userPermissionPathTemplateConstant, workspace, trimmedSlug, trimmedUsername)

	service.logger.Info(
		revokeStartedMessageConstant,
		zap.String(logFieldRepositorySlugConstant, trimmedSlug),
		zap.String(logFieldUsernameConstant, trimmedUsername),
		zap.String(logFieldWorkspaceConstant, workspace),
	)

	existenceProbe := service.client.ProbeResource(executionContext, resourcePath, bitbucket.AuthenticationSchemeBasic)
	if existenceProbe.State == bitbucket.ResourceMissing {
		return bitbucket.NoOpOutcome(fmt.Sprintf(revokeNoOpTemplateConstant, trimmedUsername, trimmedSlug)), nil
	}

	response, executionError := service.client.Execute(executionContext, bitbucket.RequestSpecification{
		Method: http.MethodDelete,
		Path:   resourcePath,
		Scheme: bitbucket.AuthenticationSchemeBasic,
	})

	outcome := bitbucket.ClassifyMutation(
		response,
		executionError,
		fmt.Sprintf(revokeSuccessTemplateConstant, trimmedUsername),
		fmt.Sprintf(revokeFailureTemplateConstant, trimmedUsername, trimmedSlug),
	)

	return outcome, nil
}

// AddGroupMember adds the user to a workspace group with a single PUT.
func (service *Service) AddGroupMember(executionContext context.Context, options MembershipOptions) (bitbucket.Outcome, error) {
	return service.changeGroupMembership(
		executionContext,
		options,
		http.MethodPut,
		membershipAddMessageConstant,
		memberAddSuccessTemplateConstant,
		memberAddFailureTemplateConstant,
	)
}

// RemoveGroupMember removes the user from a workspace group with a single DELETE.
func (service *Service) RemoveGroupMember(executionContext context.Context, options MembershipOptions) (bitbucket.Outcome, error) {
	return service.changeGroupMembership(
		executionContext,
		options,
		http.MethodDelete,
		membershipRemoveMessageConstant,
		memberRemoveSuccessTemplateConst,
		memberRemoveFailureTemplateConst,
	)
}

func (service *Service) changeGroupMembership(
	executionContext context.Context,
	options MembershipOptions,
	httpMethod string,
	startedMessage string,
	successTemplate string,
	failureTemplate string,
) (bitbucket.Outcome, error) {
	trimmedGroupSlug := strings.TrimSpace(options.GroupSlug)
	if len(trimmedGroupSlug) == 0 {
		return bitbucket.Outcome{}, bitbucket.NewRequiredInputError(groupSlugFieldNameConstant)
	}

	trimmedUsername := strings.TrimSpace(options.Username)
	if len(trimmedUsername) == 0 {
		return bitbucket.Outcome{}, bitbucket.NewRequiredInputError(usernameFieldNameConstant)
	}

	workspace := service.client.Workspace()

	service.logger.Info(
		startedMessage,
		zap.String(logFieldGroupSlugConstant, trimmedGroupSlug),
		zap.String(logFieldUsernameConstant, trimmedUsername),
		zap.String(logFieldWorkspaceConstant, workspace),
	)

	response, executionError := service.client.Execute(executionContext, bitbucket.RequestSpecification{
		Method: httpMethod,
		Path:   fmt.Sprintf(groupMemberPathTemplateConstant, workspace, trimmedGroupSlug, trimmedUsername),
		Scheme: bitbucket.AuthenticationSchemeBasic,
	})

	outcome := bitbucket.ClassifyMutation(
		response,
		executionError,
		fmt.Sprintf(successTemplate, trimmedUsername, trimmedGroupSlug),
		fmt.Sprintf(failureTemplate, trimmedUsername, trimmedGroupSlug),
	)

	return outcome, nil
}

func (service *Service) decodeCurrentPermission(probeBody []byte) string {
	var envelope currentPermissionEnvelope
	if unmarshalError := json.Unmarshal(probeBody, &envelope); unmarshalError != nil {
		service.logger.Warn(permissionDecodeFailedMsgConstant, zap.Error(unmarshalError))
		return ""
	}
	return strings.ToLower(strings.TrimSpace(envelope.Permission))
}
