package domain

import "time"

// RecordingState models the push-to-talk input lifecycle.
type RecordingState string

const (
	RecordingStateIdle      RecordingState = "idle"
	RecordingStateRecording RecordingState = "recording"
)

// StateReason provides a structured reason for recording state transitions.
type StateReason string

const (
	ReasonInterviewStarted  StateReason = "interview_started"
	ReasonRecordingStarted  StateReason = "recording_started"
	ReasonRecordingStopped  StateReason = "recording_stopped"
	ReasonRecordingBlocked  StateReason = "recording_blocked"
	ReasonDeviceUnavailable StateReason = "device_unavailable"
	ReasonInterviewEnded    StateReason = "interview_ended"
)

// ErrorCode identifies where in the turn pipeline a failure originated.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeSession       ErrorCode = "session"
	ErrorCodeDevice        ErrorCode = "device"
	ErrorCodeTranscription ErrorCode = "transcription"
	ErrorCodeReply         ErrorCode = "reply"
	ErrorCodeSynthesis     ErrorCode = "synthesis"
	ErrorCodePlayback      ErrorCode = "playback"
	ErrorCodeReport        ErrorCode = "report"
)

// NoticeKind separates transport/system failures from valid empty results.
type NoticeKind string

const (
	NoticeKindError    NoticeKind = "error"
	NoticeKindNoSpeech NoticeKind = "no_speech"
	NoticeKindInfo     NoticeKind = "info"
)

// Outcome is the tri-state result of the most recent backend operation.
type Outcome string

const (
	OutcomeIdle    Outcome = "idle"
	OutcomeLoading Outcome = "loading"
	OutcomeError   Outcome = "error"
)

// Persona is a simulated interviewee profile served by the backend.
type Persona struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Location   string `json:"location"`
	Gender     string `json:"gender"`
	Age        int    `json:"age"`
	Background string `json:"background"`
}

// AudioKind tags how an AudioClip carries its payload.
type AudioKind string

const (
	// AudioKindReference points at audio hosted by the backend.
	AudioKindReference AudioKind = "reference"
	// AudioKindInline carries decoded audio bytes in memory.
	AudioKindInline AudioKind = "inline"
)

// AudioClip is a playable audio resource in one of two representations:
// a URL reference served by the backend, or inline decoded bytes.
type AudioClip struct {
	Kind     AudioKind `json:"kind"`
	URL      string    `json:"url,omitempty"`
	Data     []byte    `json:"-"`
	MIMEType string    `json:"mimeType,omitempty"`
}

// IsZero reports whether the clip carries no audio at all.
func (c AudioClip) IsZero() bool {
	return c.URL == "" && len(c.Data) == 0
}

// Turn is one student-question/persona-response exchange. A turn becomes
// visible with only its student side populated; the persona side is filled
// in place once the reply and synthesized audio arrive.
type Turn struct {
	ID           string     `json:"id"`
	StudentText  string     `json:"studentText"`
	StudentAudio *AudioClip `json:"studentAudio,omitempty"`
	PersonaText  string     `json:"personaText"`
	PersonaAudio *AudioClip `json:"personaAudio,omitempty"`
	TurnNumber   int        `json:"turnNumber"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// AwaitingReply reports whether the persona side has not been committed yet.
func (t Turn) AwaitingReply() bool {
	return t.PersonaText == "" && t.PersonaAudio == nil
}

// SessionStatus is the backend's view of a session.
type SessionStatus struct {
	Active    bool   `json:"active"`
	SessionID string `json:"session_id"`
	PersonaID string `json:"persona_id"`
	TurnCount int    `json:"turn_count"`
}

// SessionSummary is returned when a session is ended.
type SessionSummary struct {
	SessionID       string  `json:"session_id"`
	PersonaID       string  `json:"persona_id"`
	PersonaName     string  `json:"persona_name"`
	TotalTurns      int     `json:"total_turns"`
	DurationMinutes float64 `json:"duration_minutes"`
}

// TranscriptionResult is the outcome of a speech-to-text upload. An empty
// transcript is a valid response meaning no speech was detected.
type TranscriptionResult struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message,omitempty"`
}

// PersonaReply is the backend's generated response for one transcript.
type PersonaReply struct {
	Reply      string `json:"reply"`
	TurnNumber int    `json:"turn_number"`
}

// Status summarizes the controller's externally visible state.
type Status struct {
	SessionID  string         `json:"sessionId,omitempty"`
	Active     bool           `json:"active"`
	Recording  RecordingState `json:"recording"`
	Processing bool           `json:"processing"`
	Composing  bool           `json:"composing"`
	Outcome    Outcome        `json:"outcome"`
	TurnCount  int            `json:"turnCount"`
}
