package errors

import (
	"time"

	"placement-core/internal/common/metrics"
)

// Reporter normalizes operation errors, logs them, and records failure metrics.
type Reporter struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewReporter(logger Logger) *Reporter {
	return &Reporter{logger: logger}
}

// Report logs err for the named operation and bumps the failure counter.
// Typed refusals are expected outcomes and log at warn; anything untyped is
// an internal fault and logs at error.
func (r *Reporter) Report(operation string, err error) *Error {
	pe := r.normalize(err)

	fields := map[string]interface{}{
		"operation": operation,
		"kind":      string(pe.Kind),
		"code":      string(pe.Code),
		"details":   pe.Details,
	}

	if pe.Code == ErrCodeStoreFailure {
		r.logger.Error(pe.Message, fields)
	} else {
		r.logger.Warn(pe.Message, fields)
	}

	metrics.OperationFailures.WithLabelValues(operation, string(pe.Code)).Inc()
	return pe
}

// normalize ensures we always have a typed *Error.
func (r *Reporter) normalize(err error) *Error {
	if pe, ok := err.(*Error); ok {
		return pe
	}
	return &Error{
		Kind:      KindIllegalState,
		Code:      ErrCodeStoreFailure,
		Message:   "unexpected error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}
