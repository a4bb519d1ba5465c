package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration for the interview trainer.
type Config struct {
	Backend BackendConfig
	Audio   AudioConfig
	Session SessionConfig
}

type BackendConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	ScoreTimeout   time.Duration
}

type AudioConfig struct {
	RecorderCommand string
	PlayerCommand   string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type SessionConfig struct {
	MinClipBytes  int
	NoticeTimeout time.Duration
}

// Load resolves configuration from .env and environment variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file loaded")
	}

	baseURL := strings.TrimRight(envOrDefault("INTERVU_API_BASE", "http://localhost:8000"), "/")
	apiKey := strings.TrimSpace(os.Getenv("INTERVU_API_KEY"))
	if apiKey == "" {
		log.Println("Warning: INTERVU_API_KEY not set - backend calls will be rejected")
	}

	cfg := Config{
		Backend: BackendConfig{
			BaseURL:        baseURL,
			APIKey:         apiKey,
			RequestTimeout: durationMS("INTERVU_REQUEST_TIMEOUT_MS", 15000),
			UploadTimeout:  durationMS("INTERVU_UPLOAD_TIMEOUT_MS", 45000),
			ScoreTimeout:   durationMS("INTERVU_SCORE_TIMEOUT_MS", 90000),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("INTERVU_FFMPEG_COMMAND", "ffmpeg"),
			PlayerCommand:   envOrDefault("INTERVU_FFPLAY_COMMAND", "ffplay"),
			InputFormat:     envOrDefault("INTERVU_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("INTERVU_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("INTERVU_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("INTERVU_CHANNELS", 1),
		},
		Session: SessionConfig{
			MinClipBytes:  envOrDefaultInt("INTERVU_MIN_CLIP_BYTES", 1000),
			NoticeTimeout: durationMS("INTERVU_NOTICE_TIMEOUT_MS", 5000),
		},
	}

	if cfg.Backend.BaseURL == "" {
		return Config{}, errors.New("backend base URL must not be empty")
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Session.MinClipBytes < 0 {
		cfg.Session.MinClipBytes = 0
	}
	if cfg.Session.NoticeTimeout <= 0 {
		cfg.Session.NoticeTimeout = 5 * time.Second
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

func durationMS(key string, fallback int) time.Duration {
	ms := envOrDefaultInt(key, fallback)
	if ms <= 0 {
		ms = fallback
	}
	return time.Duration(ms) * time.Millisecond
}
