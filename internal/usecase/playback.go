package usecase

import (
	"context"
	"sync"

	"intervu/internal/domain"
	"intervu/internal/ports"
)

// PlaybackController holds at most one loaded clip and the key of what is
// now playing. Playing the loaded key again restarts it from zero; playing a
// different key stops the previous playback first.
type PlaybackController struct {
	player ports.AudioPlayer
	events ports.EventSink

	mu         sync.Mutex
	loadedKey  string
	loadedClip domain.AudioClip
	current    ports.Playback
	nowPlaying string
	generation int
}

func NewPlaybackController(player ports.AudioPlayer, events ports.EventSink) *PlaybackController {
	return &PlaybackController{player: player, events: events}
}

// Play loads and plays the clip under the given key. The previous playback,
// if any, is stopped first so only one resource ever plays at a time.
func (pc *PlaybackController) Play(ctx context.Context, clip domain.AudioClip, key string) error {
	pc.stopCurrent()

	pc.mu.Lock()
	pc.loadedKey = key
	pc.loadedClip = clip
	pc.generation++
	generation := pc.generation
	pc.mu.Unlock()

	playback, err := pc.player.Play(ctx, clip)
	if err != nil {
		return err
	}

	pc.mu.Lock()
	pc.current = playback
	pc.nowPlaying = key
	pc.mu.Unlock()
	pc.events.PlaybackChanged(key, true)

	go func() {
		<-playback.Done()
		pc.mu.Lock()
		if pc.generation != generation {
			pc.mu.Unlock()
			return
		}
		// Natural completion: clear the now-playing key but keep the clip
		// loaded so a replay of the same key is cheap.
		pc.current = nil
		pc.nowPlaying = ""
		pc.mu.Unlock()
		pc.events.PlaybackChanged(key, false)
	}()
	return nil
}

// Replay restarts the loaded clip when it matches the requested key.
func (pc *PlaybackController) Replay(ctx context.Context, key string) (bool, error) {
	pc.mu.Lock()
	loaded := pc.loadedKey == key && !pc.loadedClip.IsZero()
	clip := pc.loadedClip
	pc.mu.Unlock()

	if !loaded {
		return false, nil
	}
	return true, pc.Play(ctx, clip, key)
}

// Stop halts playback and clears the now-playing key without discarding the
// loaded clip.
func (pc *PlaybackController) Stop() {
	pc.stopCurrent()
}

// NowPlaying returns the key of the active playback, or "".
func (pc *PlaybackController) NowPlaying() string {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.nowPlaying
}

// Shutdown stops playback and releases the loaded clip.
func (pc *PlaybackController) Shutdown() {
	pc.stopCurrent()
	pc.mu.Lock()
	pc.loadedKey = ""
	pc.loadedClip = domain.AudioClip{}
	pc.mu.Unlock()
}

func (pc *PlaybackController) stopCurrent() {
	pc.mu.Lock()
	current := pc.current
	key := pc.nowPlaying
	pc.current = nil
	pc.nowPlaying = ""
	pc.generation++
	pc.mu.Unlock()

	if current != nil {
		current.Stop()
		pc.events.PlaybackChanged(key, false)
	}
}
