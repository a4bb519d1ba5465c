package bootstrap

import (
	"intervu/internal/audio"
	"intervu/internal/client"
	"intervu/internal/config"
	"intervu/internal/ports"
	"intervu/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.InterviewController
	Config     config.Config
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink, clipboard ports.Clipboard) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	controller := usecase.NewInterviewController(
		client.New(cfg.Backend),
		audio.NewFFMPEGRecorder(cfg.Audio.RecorderCommand),
		audio.NewFFPlayPlayer(cfg.Audio.PlayerCommand),
		clipboard,
		eventSink,
		usecase.Config{
			Recorder: ports.RecorderConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			MinClipBytes: cfg.Session.MinClipBytes,
		},
	)

	return Services{Controller: controller, Config: cfg}, nil
}
