package bitbucket

import (
	"fmt"
	"strings"
)

const (
	transportErrorMessageTemplateConstant        = "request to %s could not complete: %s"
	apiErrorMessageTemplateConstant              = "service returned status %d"
	apiErrorWithDetailMessageTemplateConstant    = "service returned status %d: %s"
	guardRejectionMessageTemplateConstant        = "%s already exists"
	configurationErrorMessageTemplateConstant    = "missing required configuration: %s"
	configurationErrorSettingsJoinConstant       = ", "
	invalidRequestInputMessageTemplateConstant   = "%s: %s"
	requiredValueMessageConstant                 = "value required"
)

// TransportError indicates the HTTP call itself failed before a status code
// was produced (DNS, TLS, timeout, connection refused).
type TransportError struct {
	RequestURL string
	Cause      error
}

// Error describes the transport failure.
func (transportError TransportError) Error() string {
	return fmt.Sprintf(transportErrorMessageTemplateConstant, transportError.RequestURL, transportError.Cause)
}

// Unwrap exposes the underlying network error.
func (transportError TransportError) Unwrap() error {
	return transportError.Cause
}

// APIError carries a non-success HTTP status together with the structured
// error message extracted from the response body when one was present.
type APIError struct {
	StatusCode int
	Message    string
}

// Error describes the API failure.
func (apiError APIError) Error() string {
	if len(apiError.Message) == 0 {
		return fmt.Sprintf(apiErrorMessageTemplateConstant, apiError.StatusCode)
	}
	return fmt.Sprintf(apiErrorWithDetailMessageTemplateConstant, apiError.StatusCode, apiError.Message)
}

// GuardRejectionError reports that a pre-creation existence guard found the
// target resource already present, so no mutating call was issued.
type GuardRejectionError struct {
	ResourceDescription string
}

// Error describes the guard rejection.
func (guardError GuardRejectionError) Error() string {
	return fmt.Sprintf(guardRejectionMessageTemplateConstant, guardError.ResourceDescription)
}

// ConfigurationError lists required settings that were absent at startup.
type ConfigurationError struct {
	MissingSettings []string
}

// Error enumerates the missing settings.
func (configurationError ConfigurationError) Error() string {
	return fmt.Sprintf(
		configurationErrorMessageTemplateConstant,
		strings.Join(configurationError.MissingSettings, configurationErrorSettingsJoinConstant),
	)
}

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidRequestInputMessageTemplateConstant, inputError.FieldName, inputError.Message)
}

// NewRequiredInputError builds an InvalidInputError for an empty mandatory field.
func NewRequiredInputError(fieldName string) InvalidInputError {
	return InvalidInputError{FieldName: fieldName, Message: requiredValueMessageConstant}
}
