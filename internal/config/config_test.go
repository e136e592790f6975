package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ASSEMBLYAI_API_KEY", "")
	t.Setenv("ASSEMBLYAI_API_BASE", "")
	t.Setenv("SLPSCRIBE_POLL_INTERVAL_MS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.AssemblyAI.APIBaseURL != "https://api.assemblyai.com/v2" {
		t.Fatalf("unexpected base url: %q", cfg.AssemblyAI.APIBaseURL)
	}
	if cfg.Polling.Interval != 3*time.Second {
		t.Fatalf("unexpected poll interval: %v", cfg.Polling.Interval)
	}
	if cfg.Polling.Timeout != 10*time.Minute {
		t.Fatalf("unexpected poll timeout: %v", cfg.Polling.Timeout)
	}
	if cfg.Polling.MaxTransportErrors != 3 {
		t.Fatalf("unexpected transport error cap: %d", cfg.Polling.MaxTransportErrors)
	}
	if cfg.Export.Dir != filepath.Join(home, "SLPscribe") {
		t.Fatalf("unexpected export dir: %q", cfg.Export.Dir)
	}
	if cfg.Session.ChunkSize != 4096 {
		t.Fatalf("unexpected chunk size: %d", cfg.Session.ChunkSize)
	}
}

func TestLoadRespectsOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ASSEMBLYAI_API_KEY", "  secret  ")
	t.Setenv("ASSEMBLYAI_API_BASE", "https://example.com/v2")
	t.Setenv("SLPSCRIBE_POLL_INTERVAL_MS", "1500")
	t.Setenv("SLPSCRIBE_MAX_TRANSPORT_ERRORS", "5")
	t.Setenv("SLPSCRIBE_EXPORT_DIR", filepath.Join(home, "exports"))
	t.Setenv("SLPSCRIBE_SAMPLE_RATE", "44100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.AssemblyAI.APIKey != "secret" {
		t.Fatalf("expected trimmed api key, got %q", cfg.AssemblyAI.APIKey)
	}
	if cfg.AssemblyAI.APIBaseURL != "https://example.com/v2" {
		t.Fatalf("unexpected base url: %q", cfg.AssemblyAI.APIBaseURL)
	}
	if cfg.Polling.Interval != 1500*time.Millisecond {
		t.Fatalf("unexpected poll interval: %v", cfg.Polling.Interval)
	}
	if cfg.Polling.MaxTransportErrors != 5 {
		t.Fatalf("unexpected transport error cap: %d", cfg.Polling.MaxTransportErrors)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Fatalf("unexpected sample rate: %d", cfg.Audio.SampleRate)
	}
	if cfg.Export.Dir != filepath.Join(home, "exports") {
		t.Fatalf("unexpected export dir: %q", cfg.Export.Dir)
	}
}

func TestLoadClampsInvalidValues(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SLPSCRIBE_POLL_INTERVAL_MS", "-5")
	t.Setenv("SLPSCRIBE_AUDIO_CHUNK_SIZE", "7")
	t.Setenv("SLPSCRIBE_CHANNELS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Polling.Interval != 3*time.Second {
		t.Fatalf("expected clamped interval, got %v", cfg.Polling.Interval)
	}
	if cfg.Session.ChunkSize != 4096 {
		t.Fatalf("expected clamped chunk size, got %d", cfg.Session.ChunkSize)
	}
	if cfg.Audio.Channels != 1 {
		t.Fatalf("expected fallback channels, got %d", cfg.Audio.Channels)
	}
}
