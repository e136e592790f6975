package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies pipeline failures for the UI layer. Every kind is
// recoverable by re-initiating the pipeline from the recorder stage.
type FailureKind string

const (
	FailurePermissionDenied      FailureKind = "permission_denied"
	FailureDeviceUnavailable     FailureKind = "device_unavailable"
	FailureUploadFailed          FailureKind = "upload_failed"
	FailureSubmissionFailed      FailureKind = "submission_failed"
	FailurePollingTransport      FailureKind = "polling_transport_error"
	FailureTranscriptionFailed   FailureKind = "transcription_failed"
	FailureTranscriptionTimedOut FailureKind = "transcription_timed_out"
	FailureExportFailed          FailureKind = "export_failed"
)

// PipelineError carries a failure kind and the underlying cause.
type PipelineError struct {
	Kind   FailureKind
	Detail string
	Err    error
}

// Error formats pipeline failures for logs and UI.
func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Failure builds a PipelineError from a kind and cause.
func Failure(kind FailureKind, err error) *PipelineError {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return &PipelineError{Kind: kind, Detail: detail, Err: err}
}

// Failuref builds a PipelineError with a formatted detail message.
func Failuref(kind FailureKind, format string, args ...interface{}) *PipelineError {
	return &PipelineError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from an error chain, or "" if none.
func KindOf(err error) FailureKind {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}
