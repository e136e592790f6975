package main

import (
	"context"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"slpscribe/internal/bootstrap"
	"slpscribe/internal/config"
	"slpscribe/internal/domain"
	"slpscribe/internal/usecase"
)

const (
	eventRecording  = "slpscribe:recording"
	eventJob        = "slpscribe:job"
	eventTranscript = "slpscribe:transcript"
	eventWord       = "slpscribe:word"
	eventError      = "slpscribe:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	controller *usecase.PipelineController
	cfg        config.Config
	bootErr    error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.PipelineFailure(domain.FailureDeviceUnavailable, err.Error())
		return
	}

	a.cfg = services.Config
	a.controller = services.Controller
	a.RecordingStateChanged(domain.RecordingStateIdle, "")
}

func (a *App) shutdown(_ context.Context) {
	if a.controller != nil {
		a.controller.Shutdown()
	}
}

// StartRecording begins a new capture cycle, discarding any previous one.
func (a *App) StartRecording() (domain.PipelineStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.PipelineStatus{}, err
	}
	if err := a.controller.StartRecording(a.ctx); err != nil {
		return domain.PipelineStatus{}, err
	}
	return a.controller.Status(), nil
}

// StopRecording finalizes the capture and returns the recording metadata.
func (a *App) StopRecording() (domain.Recording, error) {
	if err := a.requireReady(); err != nil {
		return domain.Recording{}, err
	}
	return a.controller.StopRecording()
}

// Transcribe uploads the finished recording and starts transcription.
// Returns the remote job id.
func (a *App) Transcribe() (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	return a.controller.Transcribe(a.ctx)
}

// CancelTranscription discards the in-flight transcription job.
func (a *App) CancelTranscription() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.CancelTranscription()
	return nil
}

// UpdatePlayback reports the playback position in milliseconds and returns
// the active word index, -1 when no word is active.
func (a *App) UpdatePlayback(currentTimeMs float64) int {
	if a.controller == nil {
		return domain.NoActiveWord
	}
	return a.controller.UpdatePlayback(currentTimeMs)
}

// ExportRecording saves the finished recording as a local audio file.
func (a *App) ExportRecording() (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	return a.controller.ExportRecording()
}

// GetTranscript returns the completed transcript of the current job.
func (a *App) GetTranscript() (domain.Transcript, error) {
	if err := a.requireReady(); err != nil {
		return domain.Transcript{}, err
	}
	transcript, ok := a.controller.Transcript()
	if !ok {
		return domain.Transcript{}, fmt.Errorf("no completed transcript available")
	}
	return transcript, nil
}

// GetStatus returns the current pipeline status.
func (a *App) GetStatus() domain.PipelineStatus {
	if a.controller == nil {
		return domain.PipelineStatus{Recording: domain.RecordingStateIdle}
	}
	return a.controller.Status()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"provider":         "AssemblyAI",
		"apiBase":          a.cfg.AssemblyAI.APIBaseURL,
		"exportDir":        a.cfg.Export.Dir,
		"audioInput":       a.cfg.Audio.InputDevice,
		"audioInputFormat": a.cfg.Audio.InputFormat,
		"pollInterval":     a.cfg.Polling.Interval.String(),
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// RecordingStateChanged emits recording lifecycle updates to the frontend.
func (a *App) RecordingStateChanged(state domain.RecordingState, sessionID string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventRecording, map[string]string{
		"state":     string(state),
		"sessionId": sessionID,
		"message":   recordingStateMessage(state),
	})
}

// JobStateChanged emits transcription job progress to the frontend.
func (a *App) JobStateChanged(jobID string, state domain.JobState) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventJob, map[string]string{
		"jobId":   jobID,
		"state":   string(state),
		"message": jobStateMessage(state),
	})
}

// TranscriptReady pushes the completed transcript to the frontend.
func (a *App) TranscriptReady(jobID string, transcript domain.Transcript) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, map[string]interface{}{
		"jobId":      jobID,
		"utterances": transcript.Utterances,
		"chapters":   transcript.Chapters,
	})
}

// ActiveWordChanged emits playback word-highlight transitions.
func (a *App) ActiveWordChanged(index int) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventWord, map[string]int{"index": index})
}

// PipelineFailure emits backend errors to the UI.
func (a *App) PipelineFailure(kind domain.FailureKind, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"kind":    string(kind),
		"message": failureMessage(kind, detail),
		"detail":  detail,
	})
}

func recordingStateMessage(state domain.RecordingState) string {
	switch state {
	case domain.RecordingStateIdle:
		return "Ready"
	case domain.RecordingStateRecording:
		return "Recording..."
	case domain.RecordingStateStopped:
		return "Recording stopped"
	default:
		return ""
	}
}

func jobStateMessage(state domain.JobState) string {
	switch state {
	case domain.JobStateSubmitting:
		return "Uploading audio..."
	case domain.JobStateQueued:
		return "Waiting for transcription..."
	case domain.JobStateProcessing:
		return "Transcribing..."
	case domain.JobStateCompleted:
		return "Transcript ready"
	case domain.JobStateFailed:
		return "Transcription failed"
	default:
		return ""
	}
}

func failureMessage(kind domain.FailureKind, detail string) string {
	switch kind {
	case domain.FailurePermissionDenied:
		return "Microphone access denied"
	case domain.FailureDeviceUnavailable:
		return "Microphone unavailable"
	case domain.FailureUploadFailed:
		return "Audio upload failed"
	case domain.FailureSubmissionFailed:
		return "Could not start transcription"
	case domain.FailurePollingTransport:
		return "Lost contact with the transcription service"
	case domain.FailureTranscriptionFailed:
		return "Transcription failed"
	case domain.FailureTranscriptionTimedOut:
		return "Transcription timed out"
	case domain.FailureExportFailed:
		return "Could not save file"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
