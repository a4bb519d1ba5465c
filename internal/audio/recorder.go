package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"intervu/internal/domain"
	"intervu/internal/ports"
)

// FFMPEGRecorder captures microphone PCM audio using ffmpeg and buffers it
// in memory until the push-to-talk key is released.
type FFMPEGRecorder struct {
	command string
}

func NewFFMPEGRecorder(command string) *FFMPEGRecorder {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFMPEGRecorder{command: command}
}

func (r *FFMPEGRecorder) Start(ctx context.Context, cfg ports.RecorderConfig) (ports.RecordingSession, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}

	cmd := exec.CommandContext(ctx, r.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	// ffmpeg exits immediately when the input device cannot be opened; give
	// it a moment so device failures surface at start instead of at stop.
	select {
	case err := <-waitErr:
		if err != nil {
			return nil, fmt.Errorf("microphone unavailable: %w: %s", err, trimmed(stderr.String()))
		}
		return nil, errors.New("microphone capture exited before recording started")
	case <-time.After(250 * time.Millisecond):
	}

	session := &recorderSession{
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		stdout:     stdout,
		stderr:     &stderr,
		process:    cmd.Process,
		waitErr:    waitErr,
		readDone:   make(chan struct{}),
	}
	go session.buffer()
	return session, nil
}

type recorderSession struct {
	sampleRate int
	channels   int

	stdout io.ReadCloser
	stderr *bytes.Buffer

	process *os.Process
	waitErr <-chan error

	mu  sync.Mutex
	pcm bytes.Buffer

	readDone chan struct{}
	stopOnce sync.Once
	stopErr  error
}

func (s *recorderSession) buffer() {
	defer close(s.readDone)
	chunk := make([]byte, 4096)
	for {
		n, err := s.stdout.Read(chunk)
		if n > 0 {
			s.mu.Lock()
			s.pcm.Write(chunk[:n])
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// Stop terminates the capture process, waits for the buffered PCM to drain,
// and returns the recording as one inline WAV clip.
func (s *recorderSession) Stop() (domain.AudioClip, error) {
	s.shutdown()
	if s.stopErr != nil {
		return domain.AudioClip{}, s.stopErr
	}

	s.mu.Lock()
	pcm := make([]byte, s.pcm.Len())
	copy(pcm, s.pcm.Bytes())
	s.mu.Unlock()

	return domain.AudioClip{
		Kind:     domain.AudioKindInline,
		Data:     EncodeWAV(pcm, s.sampleRate, s.channels),
		MIMEType: "audio/wav",
	}, nil
}

// Abort releases the device and discards whatever was captured.
func (s *recorderSession) Abort() {
	s.shutdown()
}

func (s *recorderSession) shutdown() {
	s.stopOnce.Do(func() {
		select {
		case err, ok := <-s.waitErr:
			// The process already died on its own; whatever was buffered is
			// not a complete utterance.
			if ok {
				s.stopErr = classifyExit(err, false)
			}
		default:
			if s.process != nil {
				_ = s.process.Signal(os.Interrupt)
			}
			select {
			case err, ok := <-s.waitErr:
				if ok {
					s.stopErr = classifyExit(err, true)
				}
			case <-time.After(1200 * time.Millisecond):
				if s.process != nil {
					_ = s.process.Kill()
				}
				err, ok := <-s.waitErr
				if ok {
					s.stopErr = classifyExit(err, true)
				}
			}
		}

		<-s.readDone
		if closeErr := s.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			if s.stopErr == nil {
				s.stopErr = closeErr
			}
		}

		if s.stopErr != nil && s.stderr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, trimmed(s.stderr.String()))
		}
	})
}

// classifyExit decides whether the capture process exit was expected. The
// exit status of an interrupted ffmpeg is the normal stop path; an exit
// before any stop was requested means the device died mid-recording.
func classifyExit(err error, stopRequested bool) error {
	if stopRequested {
		if err == nil {
			return nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return err
	}
	if err == nil {
		return errors.New("microphone capture ended before stop was requested")
	}
	return fmt.Errorf("microphone capture ended before stop was requested: %w", err)
}

func trimmed(input string) string {
	return string(bytes.TrimSpace([]byte(input)))
}
