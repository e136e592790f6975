package bootstrap

import (
	"slpscribe/internal/audio"
	"slpscribe/internal/config"
	"slpscribe/internal/export"
	"slpscribe/internal/ports"
	"slpscribe/internal/providers/assemblyai"
	"slpscribe/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.PipelineController
	Config     config.Config
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	controller := usecase.NewPipelineController(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
		assemblyai.NewClient(assemblyai.Config{
			APIKey:     cfg.AssemblyAI.APIKey,
			APIBaseURL: cfg.AssemblyAI.APIBaseURL,
		}),
		export.NewWriter(cfg.Export.Dir, cfg.Audio.SampleRate, cfg.Audio.Channels),
		eventSink,
		usecase.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			ChunkSize: cfg.Session.ChunkSize,
			Polling: usecase.PollSettings{
				Interval:           cfg.Polling.Interval,
				Timeout:            cfg.Polling.Timeout,
				MaxTransportErrors: cfg.Polling.MaxTransportErrors,
			},
		},
	)

	return Services{Controller: controller, Config: cfg}, nil
}
