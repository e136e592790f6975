package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"slpscribe/internal/domain"
	"slpscribe/internal/logger"
	"slpscribe/internal/ports"
)

var (
	// ErrNoRecording is returned when transcription is requested with no
	// finished recording available.
	ErrNoRecording = errors.New("no recording available")
	// ErrRecordingNotStopped is returned when transcription is requested
	// while capture is still running.
	ErrRecordingNotStopped = errors.New("recording is still in progress")
	// ErrRecordingDiscarded is returned when a new recording replaced the
	// one being submitted.
	ErrRecordingDiscarded = errors.New("recording was discarded during submission")
)

// Config controls pipeline behavior.
type Config struct {
	Audio     ports.AudioConfig
	ChunkSize int
	Polling   PollSettings
}

// PipelineController orchestrates one recording-to-transcript cycle:
// capture, upload, submission, polling, and playback synchronization. Each
// submission gets a fresh TranscriptionJob; starting a new recording cancels
// and discards any in-flight job.
type PipelineController struct {
	capture  ports.AudioCapture
	client   ports.TranscriptionClient
	exporter ports.TranscriptExporter
	events   ports.EventSink
	poller   *Poller
	tracker  *WordTracker
	cfg      Config
	log      *logrus.Entry

	mu         sync.Mutex
	session    *RecordingSession
	jobID      string
	jobState   domain.JobState
	finalJob   *domain.TranscriptionJob
	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

func NewPipelineController(
	capture ports.AudioCapture,
	client ports.TranscriptionClient,
	exporter ports.TranscriptExporter,
	events ports.EventSink,
	cfg Config,
) *PipelineController {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	return &PipelineController{
		capture:  capture,
		client:   client,
		exporter: exporter,
		events:   events,
		poller:   NewPoller(client, cfg.Polling),
		tracker:  NewWordTracker(),
		cfg:      cfg,
		log:      logger.ForModule("pipeline"),
	}
}

// StartRecording begins a new capture cycle. Any in-flight poll loop belongs
// to a discarded cycle and is cancelled; the previous session is stopped.
func (c *PipelineController) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	c.cancelPollLocked()
	previous := c.session
	session := NewRecordingSession(c.capture, c.cfg.Audio, c.cfg.ChunkSize)
	c.session = session
	c.mu.Unlock()

	c.tracker.SetWords(nil)
	if previous != nil {
		_, _ = previous.Stop()
	}

	if err := session.Start(ctx); err != nil {
		c.mu.Lock()
		if c.session == session {
			c.session = nil
		}
		c.mu.Unlock()
		c.events.PipelineFailure(failureKindOrDefault(err, domain.FailureDeviceUnavailable), err.Error())
		return err
	}

	c.log.WithField("session_id", session.ID()).Info("recording started")
	c.events.RecordingStateChanged(domain.RecordingStateRecording, session.ID())
	return nil
}

// StopRecording finalizes the current capture into an immutable artifact.
func (c *PipelineController) StopRecording() (domain.Recording, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return domain.Recording{}, ErrNoRecording
	}

	rec, err := session.Stop()
	c.log.WithFields(logrus.Fields{
		"session_id": session.ID(),
		"bytes":      rec.SizeBytes,
		"seconds":    rec.DurationSeconds,
	}).Info("recording stopped")
	c.events.RecordingStateChanged(domain.RecordingStateStopped, session.ID())
	return rec, err
}

// Transcribe uploads the finished recording, submits a transcription job,
// and starts the poll loop. The submission call is never issued unless the
// upload succeeded, and an upload failure leaves no job behind. Returns the
// remote job id.
func (c *PipelineController) Transcribe(ctx context.Context) (string, error) {
	c.mu.Lock()
	session := c.session
	if session == nil {
		c.mu.Unlock()
		return "", ErrNoRecording
	}
	if session.State() == domain.RecordingStateRecording {
		c.mu.Unlock()
		return "", ErrRecordingNotStopped
	}
	// Re-invoking after a transport abort replaces the dead loop.
	c.cancelPollLocked()
	c.mu.Unlock()

	rec, err := session.Stop()
	if err != nil {
		return "", err
	}
	if len(rec.Audio) == 0 {
		return "", ErrNoRecording
	}

	uploadURL, err := c.client.Upload(ctx, rec.Audio)
	if err != nil {
		c.events.PipelineFailure(failureKindOrDefault(err, domain.FailureUploadFailed), err.Error())
		return "", err
	}

	jobID, err := c.client.Submit(ctx, uploadURL)
	if err != nil {
		c.events.PipelineFailure(failureKindOrDefault(err, domain.FailureSubmissionFailed), err.Error())
		return "", err
	}

	c.mu.Lock()
	if c.session != session {
		// A new recording started while the submission was in flight; its
		// cycle owns the pipeline now.
		c.mu.Unlock()
		return "", ErrRecordingDiscarded
	}
	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.jobID = jobID
	c.jobState = domain.JobStateSubmitting
	c.finalJob = nil
	c.pollCancel = cancel
	c.pollDone = done
	c.mu.Unlock()

	c.events.JobStateChanged(jobID, domain.JobStateSubmitting)
	go c.runPoll(pollCtx, jobID, done)
	return jobID, nil
}

// runPoll drives one job to completion and publishes the outcome.
func (c *PipelineController) runPoll(ctx context.Context, jobID string, done chan struct{}) {
	defer close(done)

	observe := func(state domain.JobState) {
		c.mu.Lock()
		owned := c.jobID == jobID
		if owned {
			c.jobState = state
		}
		c.mu.Unlock()
		if owned {
			c.events.JobStateChanged(jobID, state)
		}
	}

	job, err := c.poller.PollUntilDone(ctx, jobID, observe)
	if IsCancellation(err) {
		// Discarded cycle: nothing may be committed.
		return
	}

	c.mu.Lock()
	owned := c.jobID == jobID
	if owned {
		c.finalJob = &job
		c.jobState = job.State
	}
	c.mu.Unlock()
	if !owned {
		return
	}

	if err != nil {
		c.events.PipelineFailure(failureKindOrDefault(err, domain.FailureTranscriptionFailed), err.Error())
		return
	}

	c.tracker.SetWords(FlattenWords(job.Transcript.Utterances))
	c.events.TranscriptReady(jobID, job.Transcript)

	path, exportErr := c.exporter.SaveTranscript(job.Transcript.Utterances)
	if exportErr != nil {
		c.events.PipelineFailure(domain.FailureExportFailed, exportErr.Error())
		return
	}
	c.log.WithFields(logrus.Fields{"job_id": jobID, "path": path}).Info("transcript exported")
}

// CancelTranscription cancels the in-flight poll loop and discards its job.
func (c *PipelineController) CancelTranscription() {
	c.mu.Lock()
	c.cancelPollLocked()
	c.mu.Unlock()
}

// UpdatePlayback feeds the playback position to the word tracker and
// reports the active word index. The changed index is also pushed as an
// event so the UI only repaints on transitions.
func (c *PipelineController) UpdatePlayback(currentTimeMs float64) int {
	index, changed := c.tracker.Update(currentTimeMs)
	if changed {
		c.events.ActiveWordChanged(index)
	}
	return index
}

// ExportRecording saves the finished artifact as a local audio file.
func (c *PipelineController) ExportRecording() (string, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil || session.State() != domain.RecordingStateStopped {
		return "", ErrNoRecording
	}
	rec, err := session.Stop()
	if err != nil {
		return "", err
	}

	path, err := c.exporter.SaveRecording(rec.Audio)
	if err != nil {
		c.events.PipelineFailure(domain.FailureExportFailed, err.Error())
		return "", err
	}
	return path, nil
}

// Transcript returns the completed transcript of the current job, if any.
func (c *PipelineController) Transcript() (domain.Transcript, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finalJob == nil || c.finalJob.State != domain.JobStateCompleted {
		return domain.Transcript{}, false
	}
	return c.finalJob.Transcript, true
}

// Status returns a snapshot for the UI.
func (c *PipelineController) Status() domain.PipelineStatus {
	c.mu.Lock()
	status := domain.PipelineStatus{
		Recording: domain.RecordingStateIdle,
		JobID:     c.jobID,
		JobState:  c.jobState,
	}
	if c.session != nil {
		status.Recording = c.session.State()
	}
	c.mu.Unlock()

	status.WordCount = c.tracker.WordCount()
	return status
}

// Shutdown releases pipeline resources: a live capture is stopped so the
// stream does not leak, and any poll loop is cancelled.
func (c *PipelineController) Shutdown() {
	c.mu.Lock()
	c.cancelPollLocked()
	session := c.session
	c.mu.Unlock()

	if session != nil && session.State() == domain.RecordingStateRecording {
		_, _ = session.Stop()
	}
}

// cancelPollLocked stops the active poll loop and clears job state. Callers
// hold c.mu.
func (c *PipelineController) cancelPollLocked() {
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
		c.pollDone = nil
	}
	c.jobID = ""
	c.jobState = ""
	c.finalJob = nil
}

// failureKindOrDefault extracts the pipeline failure kind, falling back when
// the error carries none.
func failureKindOrDefault(err error, fallback domain.FailureKind) domain.FailureKind {
	if kind := domain.KindOf(err); kind != "" {
		return kind
	}
	return fallback
}
