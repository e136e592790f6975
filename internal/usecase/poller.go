package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"slpscribe/internal/domain"
	"slpscribe/internal/logger"
	"slpscribe/internal/ports"
)

// PollSettings controls the status-check loop.
type PollSettings struct {
	// Interval is the fixed delay between status checks.
	Interval time.Duration
	// Timeout caps the wall-clock duration of the whole loop.
	Timeout time.Duration
	// MaxTransportErrors is how many consecutive failed status checks are
	// tolerated before the loop aborts with PollingTransportError.
	MaxTransportErrors int
	// RetryDelay is the pause between retries of one failed status check.
	RetryDelay time.Duration
}

func (s PollSettings) withDefaults() PollSettings {
	if s.Interval <= 0 {
		s.Interval = 3 * time.Second
	}
	if s.Timeout <= 0 {
		s.Timeout = 10 * time.Minute
	}
	if s.MaxTransportErrors <= 0 {
		s.MaxTransportErrors = 3
	}
	if s.RetryDelay <= 0 {
		s.RetryDelay = 500 * time.Millisecond
	}
	return s
}

// Poller drives one transcription job to a terminal state by repeatedly
// checking its status. One status request is outstanding at a time, and the
// job value is mutated only here.
type Poller struct {
	client   ports.TranscriptionClient
	settings PollSettings
	log      *logrus.Entry
}

func NewPoller(client ports.TranscriptionClient, settings PollSettings) *Poller {
	return &Poller{
		client:   client,
		settings: settings.withDefaults(),
		log:      logger.ForModule("poller"),
	}
}

// PollUntilDone polls jobID until it completes or fails, reporting every
// state transition through observe. The returned job is the final value.
//
// Cancelling ctx stops the loop between iterations and before any fetched
// result is committed; a cancelled loop returns context.Canceled and the
// job as it last was. Exceeding the wall-clock timeout fails the job with
// TranscriptionTimedOut. A failing status check is retried on a constant
// backoff up to MaxTransportErrors consecutive attempts; exhausting them
// aborts with PollingTransportError, leaving the job non-terminal so the
// caller can re-invoke.
func (p *Poller) PollUntilDone(ctx context.Context, jobID string, observe func(domain.JobState)) (domain.TranscriptionJob, error) {
	job := domain.TranscriptionJob{ID: jobID, State: domain.JobStateSubmitting}
	log := p.log.WithField("job_id", jobID)

	pollCtx, cancel := context.WithTimeout(ctx, p.settings.Timeout)
	defer cancel()

	timer := time.NewTimer(p.settings.Interval)
	defer timer.Stop()

	for {
		select {
		case <-pollCtx.Done():
			return p.finishOnContext(ctx, &job, observe)
		case <-timer.C:
		}

		result, err := p.checkStatus(pollCtx, jobID)
		if err != nil {
			if pollCtx.Err() != nil {
				return p.finishOnContext(ctx, &job, observe)
			}
			log.WithError(err).Warn("status checks exhausted")
			return job, domain.Failure(domain.FailurePollingTransport, err)
		}

		// Do not commit a result fetched for a discarded job.
		if pollCtx.Err() != nil {
			return p.finishOnContext(ctx, &job, observe)
		}

		switch strings.ToLower(strings.TrimSpace(result.Status)) {
		case "completed":
			job.Transcript = domain.Transcript{
				Utterances: result.Utterances,
				Chapters:   result.Chapters,
			}
			p.transition(&job, domain.JobStateCompleted, observe)
			log.WithField("utterances", len(result.Utterances)).Info("transcription completed")
			return job, nil

		case "error":
			message := result.ErrorMessage
			if message == "" {
				message = "transcription service reported an error"
			}
			job.ErrorMessage = message
			p.transition(&job, domain.JobStateFailed, observe)
			log.WithField("reason", message).Warn("transcription failed")
			return job, domain.Failuref(domain.FailureTranscriptionFailed, "%s", message)

		case "queued":
			p.transition(&job, domain.JobStateQueued, observe)

		default:
			// "processing" and anything unrecognized keep the loop going.
			p.transition(&job, domain.JobStateProcessing, observe)
		}

		timer.Reset(p.settings.Interval)
	}
}

// checkStatus issues one status request, retrying transport failures on a
// constant backoff up to the configured cap.
func (p *Poller) checkStatus(ctx context.Context, jobID string) (ports.StatusResult, error) {
	var result ports.StatusResult

	operation := func() error {
		var err error
		result, err = p.client.Status(ctx, jobID)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(p.settings.RetryDelay),
			uint64(p.settings.MaxTransportErrors-1),
		),
		ctx,
	)

	if err := backoff.Retry(operation, policy); err != nil {
		return ports.StatusResult{}, err
	}
	return result, nil
}

// finishOnContext distinguishes caller cancellation from the loop timeout.
func (p *Poller) finishOnContext(parent context.Context, job *domain.TranscriptionJob, observe func(domain.JobState)) (domain.TranscriptionJob, error) {
	if parent.Err() != nil {
		// Caller-driven cancellation: the job belongs to a discarded cycle,
		// leave it untouched.
		return *job, context.Canceled
	}

	job.ErrorMessage = "transcription did not complete in time"
	p.transition(job, domain.JobStateFailed, observe)
	p.log.WithField("job_id", job.ID).Warn("poll loop timed out")
	return *job, domain.Failuref(domain.FailureTranscriptionTimedOut, "no result after %s", p.settings.Timeout)
}

// transition applies a forward-only state change and reports it when the
// state actually changed.
func (p *Poller) transition(job *domain.TranscriptionJob, to domain.JobState, observe func(domain.JobState)) {
	if job.State == to || !isForwardTransition(job.State, to) {
		return
	}
	job.State = to
	if observe != nil {
		observe(to)
	}
}

// isForwardTransition enforces the monotonic job state machine: once a job
// reaches Completed or Failed nothing moves it again, and no state returns
// to Submitting.
func isForwardTransition(from, to domain.JobState) bool {
	if from.Terminal() {
		return false
	}
	switch to {
	case domain.JobStateQueued, domain.JobStateProcessing:
		return true
	case domain.JobStateCompleted, domain.JobStateFailed:
		return true
	default:
		return false
	}
}

// IsCancellation reports whether err is caller-driven poll cancellation.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
