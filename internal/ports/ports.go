package ports

import (
	"context"

	"intervu/internal/domain"
)

// RecorderConfig describes how the microphone should be captured.
type RecorderConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// RecordingSession is one live push-to-talk capture episode. Exactly one of
// Stop or Abort must be called; both release the input device.
type RecordingSession interface {
	// Stop finalizes buffered audio into a single playable clip.
	Stop() (domain.AudioClip, error)
	// Abort discards the capture without producing a clip.
	Abort()
}

// Recorder acquires microphone capture sessions.
type Recorder interface {
	Start(ctx context.Context, cfg RecorderConfig) (RecordingSession, error)
}

// Playback is one in-flight audio playback.
type Playback interface {
	// Done is closed when playback finishes, naturally or via Stop.
	Done() <-chan struct{}
	Stop()
}

// AudioPlayer starts playback of a clip in either representation.
type AudioPlayer interface {
	Play(ctx context.Context, clip domain.AudioClip) (Playback, error)
}

// InterviewService is the conversational backend consumed by the controller.
type InterviewService interface {
	ListPersonas(ctx context.Context) ([]domain.Persona, error)
	StartSession(ctx context.Context, personaID string) (string, error)
	SessionStatus(ctx context.Context, sessionID string) (domain.SessionStatus, error)
	EndSession(ctx context.Context, sessionID string) (domain.SessionSummary, error)
	Transcribe(ctx context.Context, audio []byte) (domain.TranscriptionResult, error)
	PersonaReply(ctx context.Context, personaID, transcript, sessionID string) (domain.PersonaReply, error)
	Synthesize(ctx context.Context, text, personaID string) (domain.AudioClip, error)
	ScoreInterview(ctx context.Context, input domain.FeedbackInput) (domain.FeedbackReport, error)
	ExportReport(ctx context.Context, format string, report domain.FeedbackReport) (domain.ExportedReport, error)
}

// EventSink emits controller state/events to the UI.
type EventSink interface {
	RecordingStateChanged(state domain.RecordingState, reason domain.StateReason)
	SessionChanged(sessionID string, active bool)
	TurnAppended(turn domain.Turn)
	TurnUpdated(turn domain.Turn)
	ComposingChanged(active bool)
	ProcessingChanged(active bool)
	PlaybackChanged(key string, playing bool)
	Notice(kind domain.NoticeKind, code domain.ErrorCode, detail string)
}

// Clipboard writes text into the system clipboard.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}
