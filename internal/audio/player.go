package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"intervu/internal/domain"
	"intervu/internal/ports"
)

// FFPlayPlayer plays audio clips through ffplay. Inline clips are piped over
// stdin; reference clips are handed to ffplay as a URL.
type FFPlayPlayer struct {
	command string
}

func NewFFPlayPlayer(command string) *FFPlayPlayer {
	if command == "" {
		command = "ffplay"
	}
	return &FFPlayPlayer{command: command}
}

func (p *FFPlayPlayer) Play(ctx context.Context, clip domain.AudioClip) (ports.Playback, error) {
	if clip.IsZero() {
		return nil, errors.New("cannot play an empty clip")
	}

	args := []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}
	var stdin io.Reader
	switch clip.Kind {
	case domain.AudioKindInline:
		args = append(args, "-")
		stdin = bytes.NewReader(clip.Data)
	case domain.AudioKindReference:
		args = append(args, clip.URL)
	default:
		return nil, fmt.Errorf("unknown clip kind %q", clip.Kind)
	}

	cmd := exec.CommandContext(ctx, p.command, args...)
	cmd.Stdin = stdin
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffplay: %w", err)
	}

	pb := &ffplayPlayback{
		process: cmd.Process,
		done:    make(chan struct{}),
	}
	go func() {
		_ = cmd.Wait()
		close(pb.done)
	}()
	return pb, nil
}

type ffplayPlayback struct {
	process  *os.Process
	done     chan struct{}
	stopOnce sync.Once
}

func (p *ffplayPlayback) Done() <-chan struct{} {
	return p.done
}

func (p *ffplayPlayback) Stop() {
	p.stopOnce.Do(func() {
		if p.process != nil {
			_ = p.process.Signal(os.Interrupt)
		}
		select {
		case <-p.done:
		case <-time.After(500 * time.Millisecond):
			if p.process != nil {
				_ = p.process.Kill()
			}
			<-p.done
		}
	})
}
