package bitbucket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRequestTimeoutConstant                   = 30 * time.Second
	contentTypeHeaderNameConstant                   = "Content-Type"
	jsonContentTypeValueConstant                    = "application/json"
	authorizationHeaderNameConstant                 = "Authorization"
	bearerAuthorizationTemplateConstant             = "Bearer %s"
	pathSeparatorConstant                           = "/"
	payloadEncodingErrorTemplateConstant            = "unable to encode request payload: %w"
	requestCreationErrorTemplateConstant            = "unable to build request: %w"
	responseReadErrorTemplateConstant               = "unable to read response body: %w"
	unsupportedAuthenticationSchemeTemplateConstant = "unsupported authentication scheme %q"
	requestIssuedMessageConstant                    = "issuing API request"
	logFieldMethodConstant                          = "method"
	logFieldURLConstant                             = "url"
	logFieldStatusCodeConstant                      = "status_code"
	requestCompletedMessageConstant                 = "API request completed"
)

// AuthenticationScheme selects how a request is authenticated.
type AuthenticationScheme string

// Authentication scheme enumerations. Project and repository creation use
// bearer tokens while permission, group, and branch-restriction operations
// use basic authentication with an application password.
const (
	AuthenticationSchemeBasic  AuthenticationScheme = "basic"
	AuthenticationSchemeBearer AuthenticationScheme = "bearer"
)

// RequestSpecification describes a single API call.
type RequestSpecification struct {
	Method  string
	Path    string
	Scheme  AuthenticationScheme
	Payload any
}

// Response carries the status code and raw body of a completed API call.
type Response struct {
	StatusCode int
	Body       []byte
}

// Successful reports whether the status code falls in the 2xx range.
func (response Response) Successful() bool {
	return response.StatusCode >= http.StatusOK && response.StatusCode < http.StatusMultipleChoices
}

// HTTPDoer is the minimal interface required from net/http.Client.
type HTTPDoer interface {
	Do(request *http.Request) (*http.Response, error)
}

// Client issues authenticated requests against the Bitbucket API. Exactly one
// outbound HTTP call is made per Execute invocation; no retries are applied.
type Client struct {
	apiContext APIContext
	httpClient HTTPDoer
	logger     *zap.Logger
}

// NewClient constructs a Client around the provided API context. A nil
// httpClient selects a net/http client with an explicit request timeout and a
// nil logger selects a no-op logger.
func NewClient(apiContext APIContext, httpClient HTTPDoer, logger *zap.Logger) *Client {
	resolvedHTTPClient := httpClient
	if resolvedHTTPClient == nil {
		resolvedHTTPClient = &http.Client{Timeout: defaultRequestTimeoutConstant}
	}

	resolvedLogger := logger
	if resolvedLogger == nil {
		resolvedLogger = zap.NewNop()
	}

	return &Client{
		apiContext: apiContext,
		httpClient: resolvedHTTPClient,
		logger:     resolvedLogger,
	}
}

// Workspace exposes the workspace identifier the client operates in.
func (client *Client) Workspace() string {
	return client.apiContext.Workspace
}

// Execute performs the described API call and returns the status code with
// the raw response body. Transport-level failures are reported as
// TransportError; non-2xx statuses are returned as ordinary responses for the
// caller to classify.
func (client *Client) Execute(executionContext context.Context, specification RequestSpecification) (Response, error) {
	if schemeError := client.apiContext.RequireScheme(specification.Scheme); schemeError != nil {
		return Response{}, schemeError
	}

	requestURL := client.buildRequestURL(specification.Path)

	var requestBody io.Reader
	if specification.Payload != nil {
		encodedPayload, encodingError := json.Marshal(specification.Payload)
		if encodingError != nil {
			return Response{}, fmt.Errorf(payloadEncodingErrorTemplateConstant, encodingError)
		}
		requestBody = bytes.NewReader(encodedPayload)
	}

	request, requestCreationError := http.NewRequestWithContext(executionContext, specification.Method, requestURL, requestBody)
	if requestCreationError != nil {
		return Response{}, fmt.Errorf(requestCreationErrorTemplateConstant, requestCreationError)
	}

	if specification.Payload != nil {
		request.Header.Set(contentTypeHeaderNameConstant, jsonContentTypeValueConstant)
	}

	if authenticationError := client.applyAuthentication(request, specification.Scheme); authenticationError != nil {
		return Response{}, authenticationError
	}

	client.logger.Debug(
		requestIssuedMessageConstant,
		zap.String(logFieldMethodConstant, specification.Method),
		zap.String(logFieldURLConstant, requestURL),
	)

	httpResponse, transportFailure := client.httpClient.Do(request)
	if transportFailure != nil {
		return Response{}, TransportError{RequestURL: requestURL, Cause: transportFailure}
	}
	defer httpResponse.Body.Close()

	responseBody, readError := io.ReadAll(httpResponse.Body)
	if readError != nil {
		return Response{}, fmt.Errorf(responseReadErrorTemplateConstant, readError)
	}

	client.logger.Debug(
		requestCompletedMessageConstant,
		zap.String(logFieldMethodConstant, specification.Method),
		zap.String(logFieldURLConstant, requestURL),
		zap.Int(logFieldStatusCodeConstant, httpResponse.StatusCode),
	)

	return Response{StatusCode: httpResponse.StatusCode, Body: responseBody}, nil
}

func (client *Client) buildRequestURL(requestPath string) string {
	trimmedBase := strings.TrimRight(client.apiContext.BaseURL, pathSeparatorConstant)
	trimmedPath := strings.TrimLeft(requestPath, pathSeparatorConstant)
	return trimmedBase + pathSeparatorConstant + trimmedPath
}

func (client *Client) applyAuthentication(request *http.Request, scheme AuthenticationScheme) error {
	switch scheme {
	case AuthenticationSchemeBasic:
		request.SetBasicAuth(client.apiContext.Credentials.Username, client.apiContext.Credentials.AppPassword)
		return nil
	case AuthenticationSchemeBearer:
		request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(bearerAuthorizationTemplateConstant, client.apiContext.Credentials.AccessToken))
		return nil
	default:
		return fmt.Errorf(unsupportedAuthenticationSchemeTemplateConstant, scheme)
	}
}
