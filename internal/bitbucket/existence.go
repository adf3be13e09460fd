package bitbucket

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

const (
	existencePermissionDeniedMessageConstant = "existence check denied; cannot confirm resource state"
	existenceUnexpectedStatusMessageConstant = "unexpected status during existence check"
	existenceTransportFailureMessageConstant = "transport failure during existence check"
	logFieldPathConstant                     = "path"
)

// ExistenceState classifies the result of probing a resource locator.
type ExistenceState string

// Existence state enumerations. ResourceIndeterminate means the probe could
// not confirm either state; callers must not assume existence or absence.
const (
	ResourceExists        ExistenceState = "exists"
	ResourceMissing       ExistenceState = "missing"
	ResourceIndeterminate ExistenceState = "indeterminate"
)

// ExistenceProbe reports the classified state of a resource together with the
// response body when the resource was found.
type ExistenceProbe struct {
	State ExistenceState
	Body  []byte
}

// ProbeResource issues a GET against the resource path and classifies the
// result: 200 means the resource exists, 404 means it does not, 403 and every
// other outcome degrade to indeterminate. The probe never mutates remote
// state and never fails fatally; warnings are logged and the calling mutation
// decides how to react.
func (client *Client) ProbeResource(executionContext context.Context, resourcePath string, scheme AuthenticationScheme) ExistenceProbe {
	response, executionError := client.Execute(executionContext, RequestSpecification{
		Method: http.MethodGet,
		Path:   resourcePath,
		Scheme: scheme,
	})
	if executionError != nil {
		client.logger.Warn(
			existenceTransportFailureMessageConstant,
			zap.String(logFieldPathConstant, resourcePath),
			zap.Error(executionError),
		)
		return ExistenceProbe{State: ResourceIndeterminate}
	}

	switch response.StatusCode {
	case http.StatusOK:
		return ExistenceProbe{State: ResourceExists, Body: response.Body}
	case http.StatusNotFound:
		return ExistenceProbe{State: ResourceMissing}
	case http.StatusForbidden:
		client.logger.Warn(
			existencePermissionDeniedMessageConstant,
			zap.String(logFieldPathConstant, resourcePath),
			zap.Int(logFieldStatusCodeConstant, response.StatusCode),
		)
		return ExistenceProbe{State: ResourceIndeterminate}
	default:
		client.logger.Warn(
			existenceUnexpectedStatusMessageConstant,
			zap.String(logFieldPathConstant, resourcePath),
			zap.Int(logFieldStatusCodeConstant, response.StatusCode),
		)
		return ExistenceProbe{State: ResourceIndeterminate}
	}
}
