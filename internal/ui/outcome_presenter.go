package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/temirov/bbctl/internal/bitbucket"
)

const (
	successMarkerConstant             = "✅"
	noOpMarkerConstant                = "ℹ️"
	failureMarkerConstant             = "❌"
	markerLineTemplateConstant        = "%s %s\n"
	markerDetailLineTemplateConstant  = "%s %s: %s\n"
	emptyOutcomeMessagePlaceholderTxt = "operation finished"
)

// OutcomePresenter renders operation outcomes as single marker-prefixed lines:
// successes and no-ops on the success writer, failures on the failure writer.
// Structured telemetry continues to flow through zap; the presenter only owns
// the human-facing summary line.
type OutcomePresenter struct {
	successWriter io.Writer
	failureWriter io.Writer
	successPaint  func(format string, arguments ...interface{}) string
	noOpPaint     func(format string, arguments ...interface{}) string
	failurePaint  func(format string, arguments ...interface{}) string
}

// NewOutcomePresenter constructs a presenter writing to the provided streams.
// Nil writers select standard output and standard error respectively.
func NewOutcomePresenter(successWriter io.Writer, failureWriter io.Writer) *OutcomePresenter {
	resolvedSuccessWriter := successWriter
	if resolvedSuccessWriter == nil {
		resolvedSuccessWriter = os.Stdout
	}

	resolvedFailureWriter := failureWriter
	if resolvedFailureWriter == nil {
		resolvedFailureWriter = os.Stderr
	}

	return &OutcomePresenter{
		successWriter: resolvedSuccessWriter,
		failureWriter: resolvedFailureWriter,
		successPaint:  color.New(color.FgGreen).SprintfFunc(),
		noOpPaint:     color.New(color.FgYellow).SprintfFunc(),
		failurePaint:  color.New(color.FgRed).SprintfFunc(),
	}
}

// Present renders the outcome on the appropriate stream.
func (presenter *OutcomePresenter) Present(outcome bitbucket.Outcome) {
	if presenter == nil {
		return
	}

	message := outcome.Message
	if len(message) == 0 {
		message = emptyOutcomeMessagePlaceholderTxt
	}

	switch outcome.Result {
	case bitbucket.OutcomeNoOp:
		fmt.Fprint(presenter.successWriter, presenter.noOpPaint(markerLineTemplateConstant, noOpMarkerConstant, message))
	case bitbucket.OutcomeFailure:
		if len(outcome.Details) > 0 {
			fmt.Fprint(presenter.failureWriter, presenter.failurePaint(markerDetailLineTemplateConstant, failureMarkerConstant, message, outcome.Details))
			return
		}
		fmt.Fprint(presenter.failureWriter, presenter.failurePaint(markerLineTemplateConstant, failureMarkerConstant, message))
	default:
		fmt.Fprint(presenter.successWriter, presenter.successPaint(markerLineTemplateConstant, successMarkerConstant, message))
	}
}
