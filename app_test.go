package main

import (
	"errors"
	"testing"

	"slpscribe/internal/domain"
)

func TestJobStateMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.JobState]string{
		domain.JobStateSubmitting: "Uploading audio...",
		domain.JobStateQueued:     "Waiting for transcription...",
		domain.JobStateProcessing: "Transcribing...",
		domain.JobStateCompleted:  "Transcript ready",
		domain.JobStateFailed:     "Transcription failed",
	}

	for state, want := range cases {
		state := state
		want := want
		t.Run(string(state), func(t *testing.T) {
			t.Parallel()
			if got := jobStateMessage(state); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := jobStateMessage("unknown"); got != "" {
		t.Fatalf("expected empty unknown state message, got %q", got)
	}
}

func TestFailureMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.FailureKind]string{
		domain.FailurePermissionDenied:      "Microphone access denied",
		domain.FailureDeviceUnavailable:     "Microphone unavailable",
		domain.FailureUploadFailed:          "Audio upload failed",
		domain.FailureSubmissionFailed:      "Could not start transcription",
		domain.FailurePollingTransport:      "Lost contact with the transcription service",
		domain.FailureTranscriptionFailed:   "Transcription failed",
		domain.FailureTranscriptionTimedOut: "Transcription timed out",
		domain.FailureExportFailed:          "Could not save file",
	}
	for kind, want := range cases {
		kind := kind
		want := want
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()
			if got := failureMessage(kind, "ignored"); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := failureMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := failureMessage("unknown", ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestRecordingStateMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.RecordingState]string{
		domain.RecordingStateIdle:      "Ready",
		domain.RecordingStateRecording: "Recording...",
		domain.RecordingStateStopped:   "Recording stopped",
	}
	for state, want := range cases {
		if got := recordingStateMessage(state); got != want {
			t.Fatalf("unexpected message for %s: %q", state, got)
		}
	}
}

func TestRequireReady(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.requireReady(); err == nil {
		t.Fatalf("expected uninitialized error")
	}

	bootErr := errors.New("boot")
	app.bootErr = bootErr
	if err := app.requireReady(); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error, got %v", err)
	}
}

func TestGetStatusWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{}
	status := app.GetStatus()
	if status.Recording != domain.RecordingStateIdle || status.JobID != "" {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestUpdatePlaybackWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{}
	if got := app.UpdatePlayback(1000); got != domain.NoActiveWord {
		t.Fatalf("expected no active word, got %d", got)
	}
}
