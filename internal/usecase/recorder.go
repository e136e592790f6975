package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"slpscribe/internal/domain"
	"slpscribe/internal/ports"
)

var (
	// ErrAlreadyRecording is returned when Start is called on a live session.
	ErrAlreadyRecording = errors.New("capture already started")
	// ErrSessionFinished is returned when Start is called after Stop.
	ErrSessionFinished = errors.New("capture session already finished")
)

// RecordingSession owns one microphone capture cycle: Idle until Start,
// Recording while chunks accumulate, Stopped once the artifact is finalized.
// The artifact is immutable after Stop; a new cycle uses a new session.
type RecordingSession struct {
	id        string
	capture   ports.AudioCapture
	audioCfg  ports.AudioConfig
	chunkSize int
	now       func() time.Time

	mu        sync.Mutex
	state     domain.RecordingState
	session   ports.AudioSession
	chunks    [][]byte
	startedAt time.Time
	finished  domain.Recording
	pumpDone  chan struct{}
}

func NewRecordingSession(capture ports.AudioCapture, audioCfg ports.AudioConfig, chunkSize int) *RecordingSession {
	if chunkSize < 256 {
		chunkSize = 4096
	}
	return &RecordingSession{
		id:        uuid.NewString(),
		capture:   capture,
		audioCfg:  audioCfg,
		chunkSize: chunkSize,
		now:       time.Now,
		state:     domain.RecordingStateIdle,
	}
}

// ID returns the session identity.
func (s *RecordingSession) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *RecordingSession) State() domain.RecordingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start requests microphone access and begins buffering chunks. On failure
// the session stays Idle and no partial state is created.
func (s *RecordingSession) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case domain.RecordingStateRecording:
		s.mu.Unlock()
		return ErrAlreadyRecording
	case domain.RecordingStateStopped:
		s.mu.Unlock()
		return ErrSessionFinished
	}
	s.mu.Unlock()

	session, err := s.capture.Start(ctx, s.audioCfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.session = session
	s.state = domain.RecordingStateRecording
	s.startedAt = s.now()
	s.pumpDone = make(chan struct{})
	s.mu.Unlock()

	go s.pump(session, s.pumpDone)
	return nil
}

// pump reads fixed-size chunks from the capture session until it ends.
func (s *RecordingSession) pump(session ports.AudioSession, done chan struct{}) {
	defer close(done)

	buf := make([]byte, s.chunkSize)
	for {
		n, err := session.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			s.mu.Lock()
			s.chunks = append(s.chunks, chunk)
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// Stop halts buffering and finalizes the artifact. Calling Stop when the
// session is not Recording is a no-op: a Stopped session returns the same
// finished recording, an Idle session returns a zero one.
func (s *RecordingSession) Stop() (domain.Recording, error) {
	s.mu.Lock()
	switch s.state {
	case domain.RecordingStateIdle:
		s.mu.Unlock()
		return domain.Recording{}, nil
	case domain.RecordingStateStopped:
		finished := s.finished
		s.mu.Unlock()
		return finished, nil
	}
	session := s.session
	done := s.pumpDone
	s.mu.Unlock()

	stopErr := session.Stop()
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()

	// A concurrent Stop may have finalized while this call waited.
	if s.state == domain.RecordingStateStopped {
		return s.finished, stopErr
	}

	total := 0
	for _, chunk := range s.chunks {
		total += len(chunk)
	}
	audio := make([]byte, 0, total)
	for _, chunk := range s.chunks {
		audio = append(audio, chunk...)
	}

	elapsed := s.now().Sub(s.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	s.finished = domain.Recording{
		SessionID:       s.id,
		Audio:           audio,
		DurationSeconds: int(elapsed / time.Second),
		SizeBytes:       total,
	}
	s.state = domain.RecordingStateStopped
	s.session = nil
	s.chunks = nil

	return s.finished, stopErr
}
