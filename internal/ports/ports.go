package ports

import (
	"context"
	"io"

	"slpscribe/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// StatusResult is one status-check response from the transcription service.
type StatusResult struct {
	Status       string
	Utterances   []domain.Utterance
	Chapters     []domain.Chapter
	ErrorMessage string
}

// TranscriptionClient talks to the remote transcription service. Upload must
// succeed before Submit is called; the usecase layer enforces the ordering.
type TranscriptionClient interface {
	Upload(ctx context.Context, audio []byte) (uploadURL string, err error)
	Submit(ctx context.Context, uploadURL string) (jobID string, err error)
	Status(ctx context.Context, jobID string) (StatusResult, error)
}

// TranscriptExporter saves completed artifacts locally.
type TranscriptExporter interface {
	SaveTranscript(utterances []domain.Utterance) (path string, err error)
	SaveRecording(audio []byte) (path string, err error)
}

// EventSink emits backend state and results to the UI.
type EventSink interface {
	RecordingStateChanged(state domain.RecordingState, sessionID string)
	JobStateChanged(jobID string, state domain.JobState)
	TranscriptReady(jobID string, transcript domain.Transcript)
	ActiveWordChanged(index int)
	PipelineFailure(kind domain.FailureKind, detail string)
}
