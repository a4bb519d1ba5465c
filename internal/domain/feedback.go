package domain

// SpeakerRole labels who produced a feedback turn row.
type SpeakerRole string

const (
	SpeakerStudent SpeakerRole = "student"
	SpeakerPersona SpeakerRole = "persona"
)

// FeedbackTurn is one row of the transcript submitted for scoring.
type FeedbackTurn struct {
	Speaker    SpeakerRole `json:"speaker"`
	Text       string      `json:"text"`
	TurnNumber int         `json:"turn_number"`
	Timestamp  float64     `json:"timestamp"`
}

// FeedbackInput is the scoring request payload.
type FeedbackInput struct {
	PersonaID      string                 `json:"persona_id"`
	InterviewTurns []FeedbackTurn         `json:"interview_turns"`
	Metadata       map[string]interface{} `json:"session_metadata,omitempty"`
}

// CategoryScore is the per-rubric-category result.
type CategoryScore struct {
	CategoryID  string   `json:"category_id"`
	Score       int      `json:"score"`
	Level       string   `json:"level"`
	Weight      int      `json:"weight"`
	Description string   `json:"description"`
	Evidence    []string `json:"evidence"`
	Suggestions []string `json:"suggestions"`
}

// QuoteHighlight calls out a specific exchange in the feedback report.
type QuoteHighlight struct {
	Quote       string `json:"quote"`
	Context     string `json:"context"`
	TurnNumber  int    `json:"turn_number"`
	Category    string `json:"category"`
	IsPositive  bool   `json:"is_positive"`
	Explanation string `json:"explanation"`
}

// FeedbackReport is the scored interview report.
type FeedbackReport struct {
	GeneratedAt     string                   `json:"generated_at"`
	PersonaID       string                   `json:"persona_id"`
	TotalTurns      int                      `json:"total_turns"`
	DurationSeconds float64                  `json:"duration_seconds,omitempty"`
	Scores          map[string]CategoryScore `json:"scores"`
	OverallScore    float64                  `json:"overall_score"`
	OverallLevel    string                   `json:"overall_level"`
	OverallSummary  string                   `json:"overall_summary"`
	Strengths       []string                 `json:"strengths"`
	Improvements    []string                 `json:"improvements"`
	QuoteHighlights []QuoteHighlight         `json:"quote_highlights"`
}

// ExportedReport wraps one exported rendition of a report.
type ExportedReport struct {
	Format  string `json:"format"`
	Content string `json:"content"`
}
