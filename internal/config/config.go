package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration for the recording pipeline.
type Config struct {
	AssemblyAI AssemblyAIConfig
	Audio      AudioConfig
	Polling    PollingConfig
	Export     ExportConfig
	Session    SessionConfig
}

type AssemblyAIConfig struct {
	APIKey     string
	APIBaseURL string
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type PollingConfig struct {
	Interval           time.Duration
	Timeout            time.Duration
	MaxTransportErrors int
}

type ExportConfig struct {
	Dir string
}

type SessionConfig struct {
	ChunkSize int
}

// Load resolves configuration from environment variables and defaults.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	cfg := Config{
		AssemblyAI: AssemblyAIConfig{
			APIKey:     strings.TrimSpace(os.Getenv("ASSEMBLYAI_API_KEY")),
			APIBaseURL: envOrDefault("ASSEMBLYAI_API_BASE", "https://api.assemblyai.com/v2"),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("SLPSCRIBE_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("SLPSCRIBE_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("SLPSCRIBE_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("SLPSCRIBE_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("SLPSCRIBE_CHANNELS", 1),
		},
		Polling: PollingConfig{
			Interval:           time.Duration(envOrDefaultInt("SLPSCRIBE_POLL_INTERVAL_MS", 3000)) * time.Millisecond,
			Timeout:            time.Duration(envOrDefaultInt("SLPSCRIBE_POLL_TIMEOUT_MS", 600000)) * time.Millisecond,
			MaxTransportErrors: envOrDefaultInt("SLPSCRIBE_MAX_TRANSPORT_ERRORS", 3),
		},
		Export: ExportConfig{
			Dir: envOrDefault("SLPSCRIBE_EXPORT_DIR", filepath.Join(home, "SLPscribe")),
		},
		Session: SessionConfig{
			ChunkSize: envOrDefaultInt("SLPSCRIBE_AUDIO_CHUNK_SIZE", 4096),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Polling.Interval <= 0 {
		cfg.Polling.Interval = 3 * time.Second
	}
	if cfg.Polling.Timeout <= 0 {
		cfg.Polling.Timeout = 10 * time.Minute
	}
	if cfg.Polling.MaxTransportErrors <= 0 {
		cfg.Polling.MaxTransportErrors = 3
	}
	if cfg.Session.ChunkSize < 256 {
		cfg.Session.ChunkSize = 4096
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
