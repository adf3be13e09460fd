package bitbucket

import (
	"encoding/json"
	"net/http"
)

// OutcomeResult enumerates the terminal states of a mutating operation.
type OutcomeResult string

// Outcome result enumerations.
const (
	OutcomeSuccess OutcomeResult = "success"
	OutcomeNoOp    OutcomeResult = "noop"
	OutcomeFailure OutcomeResult = "failure"
)

// Outcome is the single terminal result every mutating operation produces.
// It is logged, rendered for the user, and mapped onto the process exit code.
type Outcome struct {
	Result     OutcomeResult
	Message    string
	StatusCode int
	Details    string
}

// Failed reports whether the outcome maps to a non-zero exit code.
func (outcome Outcome) Failed() bool {
	return outcome.Result == OutcomeFailure
}

// SuccessOutcome builds a success outcome.
func SuccessOutcome(message string, statusCode int) Outcome {
	return Outcome{Result: OutcomeSuccess, Message: message, StatusCode: statusCode}
}

// NoOpOutcome builds a no-op outcome for mutations skipped because the remote
// state already matched the desired state.
func NoOpOutcome(message string) Outcome {
	return Outcome{Result: OutcomeNoOp, Message: message}
}

// FailureOutcome builds a failure outcome.
func FailureOutcome(message string, statusCode int, details string) Outcome {
	return Outcome{Result: OutcomeFailure, Message: message, StatusCode: statusCode, Details: details}
}

type serviceErrorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// RemoteErrorMessage extracts the service's structured error message from a
// response body, returning an empty string when none is present.
func RemoteErrorMessage(responseBody []byte) string {
	var envelope serviceErrorEnvelope
	if unmarshalError := json.Unmarshal(responseBody, &envelope); unmarshalError != nil {
		return ""
	}
	return envelope.Error.Message
}

// ClassifyMutation converts the result of a mutating API call into an
// Outcome. Every mutating operation funnels through this single helper so
// status interpretation cannot drift between resource kinds: a transport or
// pre-flight error is a failure, a 2xx status is a success, and any other
// status is a failure carrying the status code and the remote error message
// when the body contained one.
func ClassifyMutation(response Response, executionError error, successMessage string, failureMessage string) Outcome {
	if executionError != nil {
		return FailureOutcome(failureMessage, 0, executionError.Error())
	}

	if response.Successful() {
		return SuccessOutcome(successMessage, response.StatusCode)
	}

	apiError := APIError{StatusCode: response.StatusCode, Message: RemoteErrorMessage(response.Body)}
	return FailureOutcome(failureMessage, response.StatusCode, apiError.Error())
}

// ClassifyCreation mirrors ClassifyMutation for resource creation calls,
// where the service signals success exclusively with 200 or 201.
func ClassifyCreation(response Response, executionError error, successMessage string, failureMessage string) Outcome {
	if executionError != nil {
		return FailureOutcome(failureMessage, 0, executionError.Error())
	}

	if response.StatusCode == http.StatusOK || response.StatusCode == http.StatusCreated {
		return SuccessOutcome(successMessage, response.StatusCode)
	}

	apiError := APIError{StatusCode: response.StatusCode, Message: RemoteErrorMessage(response.Body)}
	return FailureOutcome(failureMessage, response.StatusCode, apiError.Error())
}
