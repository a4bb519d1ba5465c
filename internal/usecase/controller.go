package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"intervu/internal/domain"
	"intervu/internal/ports"
)

var (
	ErrNoInterview   = errors.New("no active interview")
	ErrBusy          = errors.New("a turn is still being processed")
	ErrInterviewOver = errors.New("interview has ended")
)

// Config controls recording and turn handling behavior.
type Config struct {
	Recorder     ports.RecorderConfig
	MinClipBytes int
}

// InterviewController orchestrates one interview screen: session lifecycle,
// the push-to-talk state machine, the per-utterance turn pipeline, and
// playback. All flags live in one mutex-guarded struct so every callback
// reads current state, never a stale snapshot.
type InterviewController struct {
	svc       ports.InterviewService
	recorder  ports.Recorder
	playback  *PlaybackController
	sessions  *SessionManager
	clipboard ports.Clipboard
	events    ports.EventSink
	cfg       Config

	mu         sync.Mutex
	personaID  string
	startedAt  time.Time
	recording  bool
	processing bool
	composing  bool
	keyHeld    bool
	ended      bool
	outcome    domain.Outcome
	capture    ports.RecordingSession

	turns turnLog
}

func NewInterviewController(
	svc ports.InterviewService,
	recorder ports.Recorder,
	player ports.AudioPlayer,
	clipboard ports.Clipboard,
	events ports.EventSink,
	cfg Config,
) *InterviewController {
	if cfg.MinClipBytes <= 0 {
		cfg.MinClipBytes = 1000
	}
	return &InterviewController{
		svc:       svc,
		recorder:  recorder,
		playback:  NewPlaybackController(player, events),
		sessions:  NewSessionManager(svc, events),
		clipboard: clipboard,
		events:    events,
		cfg:       cfg,
		outcome:   domain.OutcomeIdle,
	}
}

// Personas lists the selectable interviewee profiles.
func (c *InterviewController) Personas(ctx context.Context) ([]domain.Persona, error) {
	return c.svc.ListPersonas(ctx)
}

// Begin starts an interview against one persona. On failure no session is
// held and the caller is notified through the event sink. The turn log is
// scoped to one interview: a fresh start always begins empty.
func (c *InterviewController) Begin(ctx context.Context, personaID string) error {
	if _, err := c.sessions.Start(ctx, personaID); err != nil {
		c.events.Notice(domain.NoticeKindError, domain.ErrorCodeSession, err.Error())
		return err
	}

	c.playback.Shutdown()
	c.turns.Clear()

	c.mu.Lock()
	c.personaID = personaID
	c.startedAt = time.Now()
	c.ended = false
	c.outcome = domain.OutcomeIdle
	c.mu.Unlock()

	c.events.RecordingStateChanged(domain.RecordingStateIdle, domain.ReasonInterviewStarted)
	return nil
}

// PressTalkKey handles a physical key-down of the push-to-talk key. While the
// key stays held, repeats are swallowed; nothing toggles until release and
// re-press. A focused text input suppresses the gesture entirely.
func (c *InterviewController) PressTalkKey(ctx context.Context, typingFocused bool) {
	if typingFocused {
		return
	}

	c.mu.Lock()
	if c.keyHeld {
		c.mu.Unlock()
		return
	}
	c.keyHeld = true
	recording := c.recording
	c.mu.Unlock()

	if recording {
		c.StopRecording(ctx)
		return
	}
	if err := c.StartRecording(ctx); err != nil {
		log.Printf("push-to-talk start rejected: %v", err)
	}
}

// ReleaseTalkKey handles the physical key-up, re-arming the toggle.
func (c *InterviewController) ReleaseTalkKey() {
	c.mu.Lock()
	c.keyHeld = false
	c.mu.Unlock()
}

// StartRecording transitions Idle -> Recording. It is refused while no
// session is active, while a prior turn is still processing, or when already
// recording. Any playing audio is stopped so it cannot bleed into the mic.
func (c *InterviewController) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		return ErrInterviewOver
	}
	if c.recording {
		c.mu.Unlock()
		return nil
	}
	if c.processing {
		c.mu.Unlock()
		c.events.RecordingStateChanged(domain.RecordingStateIdle, domain.ReasonRecordingBlocked)
		return ErrBusy
	}
	c.mu.Unlock()

	if _, ok := c.sessions.Current(); !ok {
		return ErrNoInterview
	}

	c.playback.Stop()

	capture, err := c.recorder.Start(ctx, c.cfg.Recorder)
	if err != nil {
		c.events.Notice(domain.NoticeKindError, domain.ErrorCodeDevice, err.Error())
		c.events.RecordingStateChanged(domain.RecordingStateIdle, domain.ReasonDeviceUnavailable)
		return err
	}

	c.mu.Lock()
	c.recording = true
	c.capture = capture
	c.mu.Unlock()

	c.events.RecordingStateChanged(domain.RecordingStateRecording, domain.ReasonRecordingStarted)
	return nil
}

// StopRecording transitions Recording -> Idle, finalizes the captured audio
// and hands it to the turn pipeline. The microphone is released on every
// exit path, including finalize failures.
func (c *InterviewController) StopRecording(ctx context.Context) {
	c.mu.Lock()
	if !c.recording {
		c.mu.Unlock()
		return
	}
	capture := c.capture
	c.recording = false
	c.capture = nil
	c.mu.Unlock()

	c.events.RecordingStateChanged(domain.RecordingStateIdle, domain.ReasonRecordingStopped)

	clip, err := capture.Stop()
	if err != nil {
		c.events.Notice(domain.NoticeKindError, domain.ErrorCodeDevice, err.Error())
		return
	}
	if len(clip.Data) < c.cfg.MinClipBytes {
		// Mirrors the backend's tiny-file handling before wasting an upload.
		c.events.Notice(domain.NoticeKindNoSpeech, domain.ErrorCodeTranscription, "no speech detected")
		return
	}

	c.setProcessing(true)
	go c.runTurn(ctx, clip)
}

// runTurn is the per-utterance pipeline: ensure session, transcribe, append
// the optimistic turn, fetch the reply, synthesize speech, commit the turn
// in place, autoplay. Exactly one instance runs at a time; the processing
// flag gates new recordings until it concludes or aborts.
func (c *InterviewController) runTurn(ctx context.Context, studentClip domain.AudioClip) {
	defer c.setProcessing(false)

	sessionID, err := c.sessions.Ensure(ctx)
	if err != nil {
		c.fail(domain.ErrorCodeSession, err)
		return
	}

	result, err := c.svc.Transcribe(ctx, studentClip.Data)
	if err != nil {
		c.fail(domain.ErrorCodeTranscription, err)
		return
	}
	transcript := strings.TrimSpace(result.Transcript)
	if transcript == "" {
		c.events.Notice(domain.NoticeKindNoSpeech, domain.ErrorCodeTranscription, "no speech detected")
		c.setOutcome(domain.OutcomeIdle)
		return
	}

	// The student's side becomes visible before the reply arrives.
	turn := domain.Turn{
		ID:           uuid.NewString(),
		StudentText:  transcript,
		StudentAudio: &studentClip,
		CreatedAt:    time.Now(),
	}
	c.turns.Append(turn)
	c.events.TurnAppended(turn)

	c.mu.Lock()
	personaID := c.personaID
	c.mu.Unlock()

	c.setComposing(true)
	reply, err := c.svc.PersonaReply(ctx, personaID, transcript, sessionID)
	if err != nil {
		c.setComposing(false)
		c.fail(domain.ErrorCodeReply, err)
		return
	}
	replyText := strings.TrimSpace(reply.Reply)
	if replyText == "" {
		c.setComposing(false)
		c.events.Notice(domain.NoticeKindInfo, domain.ErrorCodeReply, "the persona had nothing to say")
		c.setOutcome(domain.OutcomeIdle)
		return
	}

	var personaAudio *domain.AudioClip
	personaClip, err := c.svc.Synthesize(ctx, replyText, personaID)
	if err != nil {
		// Soft failure: the reply text is still committed without audio.
		log.Printf("speech synthesis failed: %v", err)
	} else if !personaClip.IsZero() {
		personaAudio = &personaClip
	}
	c.setComposing(false)

	committed, ok := c.turns.Commit(turn.ID, replyText, personaAudio, reply.TurnNumber)
	if !ok {
		c.fail(domain.ErrorCodeReply, errors.New("turn vanished before commit"))
		return
	}
	c.events.TurnUpdated(committed)
	c.setOutcome(domain.OutcomeIdle)

	if personaAudio != nil {
		if err := c.playback.Play(ctx, *personaAudio, "p-"+committed.ID); err != nil {
			log.Printf("autoplay failed: %v", err)
		}
	}
}

// PlayTurnAudio plays one side of a turn. Requesting the key that is already
// loaded restarts it from zero.
func (c *InterviewController) PlayTurnAudio(ctx context.Context, turnID, side string) error {
	turn, ok := c.turns.Get(turnID)
	if !ok {
		return errors.New("unknown turn")
	}

	var key string
	var clip *domain.AudioClip
	switch side {
	case "persona":
		key, clip = "p-"+turnID, turn.PersonaAudio
	default:
		key, clip = "s-"+turnID, turn.StudentAudio
	}
	if clip == nil {
		return errors.New("turn has no audio for that side")
	}

	// When the key is already loaded, restart it from zero without reloading.
	if replayed, err := c.playback.Replay(ctx, key); replayed || err != nil {
		if err != nil {
			c.events.Notice(domain.NoticeKindError, domain.ErrorCodePlayback, err.Error())
		}
		return err
	}

	if err := c.playback.Play(ctx, *clip, key); err != nil {
		c.events.Notice(domain.NoticeKindError, domain.ErrorCodePlayback, err.Error())
		return err
	}
	return nil
}

// StopPlayback halts whatever is playing.
func (c *InterviewController) StopPlayback() {
	c.playback.Stop()
}

// EndInterview stops any recording, halts playback and ends the backend
// session best-effort. The turn log is kept so a report can still be built.
func (c *InterviewController) EndInterview(ctx context.Context) (domain.SessionSummary, bool) {
	c.mu.Lock()
	capture := c.capture
	c.recording = false
	c.capture = nil
	c.ended = true
	c.mu.Unlock()

	if capture != nil {
		capture.Abort()
	}
	c.playback.Stop()

	summary, ok := c.sessions.End(ctx)
	c.events.RecordingStateChanged(domain.RecordingStateIdle, domain.ReasonInterviewEnded)
	return summary, ok
}

// Shutdown is the screen-teardown path: end the session best-effort and
// release every locally held audio resource.
func (c *InterviewController) Shutdown(ctx context.Context) {
	c.EndInterview(ctx)
	c.playback.Shutdown()
	c.turns.Clear()
}

// Turns returns the turn sequence in creation order.
func (c *InterviewController) Turns() []domain.Turn {
	return c.turns.Snapshot()
}

// Status reports the externally visible controller state.
func (c *InterviewController) Status() domain.Status {
	sessionID, active := c.sessions.Current()

	c.mu.Lock()
	defer c.mu.Unlock()

	recording := domain.RecordingStateIdle
	if c.recording {
		recording = domain.RecordingStateRecording
	}
	return domain.Status{
		SessionID:  sessionID,
		Active:     active && !c.ended,
		Recording:  recording,
		Processing: c.processing,
		Composing:  c.composing,
		Outcome:    c.outcome,
		TurnCount:  c.turns.Len(),
	}
}

func (c *InterviewController) setComposing(active bool) {
	c.mu.Lock()
	c.composing = active
	c.mu.Unlock()
	c.events.ComposingChanged(active)
}

func (c *InterviewController) setProcessing(active bool) {
	c.mu.Lock()
	c.processing = active
	if active {
		c.outcome = domain.OutcomeLoading
	}
	c.mu.Unlock()
	c.events.ProcessingChanged(active)
}

func (c *InterviewController) setOutcome(outcome domain.Outcome) {
	c.mu.Lock()
	c.outcome = outcome
	c.mu.Unlock()
}

func (c *InterviewController) fail(code domain.ErrorCode, err error) {
	c.setOutcome(domain.OutcomeError)
	c.events.Notice(domain.NoticeKindError, code, err.Error())
}
