package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"slpscribe/internal/domain"
	"slpscribe/internal/ports"
)

func TestRecordingSessionLifecycle(t *testing.T) {
	t.Parallel()

	audioSession := &fakeAudioSession{chunks: [][]byte{[]byte("aaa"), []byte("bb"), []byte("c")}}
	session := NewRecordingSession(&fakeAudioCapture{sessions: []ports.AudioSession{audioSession}}, ports.AudioConfig{}, 512)

	if session.State() != domain.RecordingStateIdle {
		t.Fatalf("expected idle, got %s", session.State())
	}

	base := time.Unix(1000, 0)
	current := base
	var clockMu sync.Mutex
	session.now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return current
	}

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if session.State() != domain.RecordingStateRecording {
		t.Fatalf("expected recording, got %s", session.State())
	}

	audioSession.waitDrained(t)
	clockMu.Lock()
	current = base.Add(7 * time.Second)
	clockMu.Unlock()

	rec, err := session.Stop()
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	if !bytes.Equal(rec.Audio, []byte("aaabbc")) {
		t.Fatalf("artifact does not concatenate chunks: %q", rec.Audio)
	}
	if rec.SizeBytes != 6 {
		t.Fatalf("expected size 6, got %d", rec.SizeBytes)
	}
	if rec.DurationSeconds != 7 {
		t.Fatalf("expected duration 7s, got %d", rec.DurationSeconds)
	}
	if rec.SessionID != session.ID() {
		t.Fatalf("recording not tagged with session id")
	}
	if session.State() != domain.RecordingStateStopped {
		t.Fatalf("expected stopped, got %s", session.State())
	}
}

func TestRecordingSessionStopIsIdempotent(t *testing.T) {
	t.Parallel()

	audioSession := &fakeAudioSession{chunks: [][]byte{[]byte("xyz")}}
	session := NewRecordingSession(&fakeAudioCapture{sessions: []ports.AudioSession{audioSession}}, ports.AudioConfig{}, 512)

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	audioSession.waitDrained(t)

	first, err := session.Stop()
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	second, err := session.Stop()
	if err != nil {
		t.Fatalf("second stop failed: %v", err)
	}

	if !bytes.Equal(first.Audio, second.Audio) || first.DurationSeconds != second.DurationSeconds {
		t.Fatalf("second stop changed the artifact: %+v vs %+v", first, second)
	}
	if audioSession.stopCalls != 1 {
		t.Fatalf("expected one capture stop, got %d", audioSession.stopCalls)
	}
}

func TestRecordingSessionStopWhenIdleIsNoop(t *testing.T) {
	t.Parallel()

	session := NewRecordingSession(&fakeAudioCapture{}, ports.AudioConfig{}, 512)
	rec, err := session.Stop()
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if len(rec.Audio) != 0 || rec.DurationSeconds != 0 {
		t.Fatalf("expected zero recording, got %+v", rec)
	}
	if session.State() != domain.RecordingStateIdle {
		t.Fatalf("idle stop must not change state, got %s", session.State())
	}
}

func TestRecordingSessionStartFailureLeavesIdle(t *testing.T) {
	t.Parallel()

	captureErr := domain.Failuref(domain.FailurePermissionDenied, "mic blocked")
	session := NewRecordingSession(&fakeAudioCapture{err: captureErr}, ports.AudioConfig{}, 512)

	err := session.Start(context.Background())
	if domain.KindOf(err) != domain.FailurePermissionDenied {
		t.Fatalf("expected permission_denied, got %v", err)
	}
	if session.State() != domain.RecordingStateIdle {
		t.Fatalf("failed start must leave session idle, got %s", session.State())
	}
}

func TestRecordingSessionStartTwiceRejected(t *testing.T) {
	t.Parallel()

	audioSession := &fakeAudioSession{chunks: [][]byte{[]byte("a")}}
	session := NewRecordingSession(&fakeAudioCapture{sessions: []ports.AudioSession{audioSession}}, ports.AudioConfig{}, 512)

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := session.Start(context.Background()); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("expected ErrAlreadyRecording, got %v", err)
	}

	if _, err := session.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := session.Start(context.Background()); !errors.Is(err, ErrSessionFinished) {
		t.Fatalf("expected ErrSessionFinished, got %v", err)
	}
}

type fakeAudioCapture struct {
	sessions []ports.AudioSession
	err      error
	calls    int
}

func (f *fakeAudioCapture) Start(_ context.Context, _ ports.AudioConfig) (ports.AudioSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.sessions) {
		return nil, errors.New("no audio session configured")
	}
	session := f.sessions[f.calls]
	f.calls++
	return session, nil
}

// fakeAudioSession serves queued chunks then blocks until stopped, like a
// live microphone with no more data.
type fakeAudioSession struct {
	mu        sync.Mutex
	chunks    [][]byte
	index     int
	stopCalls int
	stopped   chan struct{}
	stopOnce  sync.Once
	drained   chan struct{}
	drainOnce sync.Once
}

func (f *fakeAudioSession) Read(p []byte) (int, error) {
	f.mu.Lock()
	if f.stopped == nil {
		f.stopped = make(chan struct{})
	}
	if f.drained == nil {
		f.drained = make(chan struct{})
	}
	if f.index < len(f.chunks) {
		n := copy(p, f.chunks[f.index])
		f.index++
		if f.index == len(f.chunks) {
			f.drainOnce.Do(func() { close(f.drained) })
		}
		f.mu.Unlock()
		return n, nil
	}
	stopped := f.stopped
	f.mu.Unlock()

	<-stopped
	return 0, io.EOF
}

func (f *fakeAudioSession) Close() error { return nil }

func (f *fakeAudioSession) Stop() error {
	f.mu.Lock()
	if f.stopped == nil {
		f.stopped = make(chan struct{})
	}
	f.stopCalls++
	f.mu.Unlock()
	f.stopOnce.Do(func() { close(f.stopped) })
	return nil
}

func (f *fakeAudioSession) waitDrained(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	if f.drained == nil {
		f.drained = make(chan struct{})
	}
	if len(f.chunks) == 0 {
		f.drainOnce.Do(func() { close(f.drained) })
	}
	drained := f.drained
	f.mu.Unlock()

	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for chunks to drain")
	}
}
