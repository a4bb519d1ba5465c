package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"intervu/internal/bootstrap"
	"intervu/internal/config"
	"intervu/internal/domain"
	"intervu/internal/usecase"
)

const (
	eventRecording   = "intervu:recording"
	eventSession     = "intervu:session"
	eventTurn        = "intervu:turn"
	eventTurnUpdate  = "intervu:turn-update"
	eventComposing   = "intervu:composing"
	eventProcessing  = "intervu:processing"
	eventPlayback    = "intervu:playback"
	eventNotice      = "intervu:notice"
	eventNoticeClear = "intervu:notice-clear"
)

// App is the Wails application root. It forwards user intent from the
// webview into the interview controller and emits controller state back as
// events.
type App struct {
	ctx context.Context

	controller *usecase.InterviewController
	cfg        config.Config
	bootErr    error

	mu         sync.Mutex
	dismiss    func(func())
	lastReport *domain.FeedbackReport
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, a)
	if err != nil {
		a.bootErr = err
		a.Notice(domain.NoticeKindError, domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.controller = services.Controller
	a.dismiss = debounce.New(a.cfg.Session.NoticeTimeout)
}

func (a *App) shutdown(ctx context.Context) {
	if a.controller != nil {
		a.controller.Shutdown(ctx)
	}
}

// ListPersonas returns the selectable interviewee profiles.
func (a *App) ListPersonas() ([]domain.Persona, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.controller.Personas(a.ctx)
}

// StartInterview begins a session with the chosen persona.
func (a *App) StartInterview(personaID string) (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.Begin(a.ctx, personaID); err != nil {
		return domain.Status{}, err
	}
	a.mu.Lock()
	a.lastReport = nil
	a.mu.Unlock()
	return a.controller.Status(), nil
}

// PressTalkKey forwards a physical key-down of the push-to-talk key.
// typingFocused is true when a text input currently has focus.
func (a *App) PressTalkKey(typingFocused bool) {
	if a.requireReady() != nil {
		return
	}
	a.controller.PressTalkKey(a.ctx, typingFocused)
}

// ReleaseTalkKey forwards the physical key-up.
func (a *App) ReleaseTalkKey() {
	if a.requireReady() != nil {
		return
	}
	a.controller.ReleaseTalkKey()
}

// StartRecording begins capturing the student's question.
func (a *App) StartRecording() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.StartRecording(a.ctx); err != nil {
		return a.controller.Status(), err
	}
	return a.controller.Status(), nil
}

// StopRecording finalizes the capture and kicks off the turn pipeline.
func (a *App) StopRecording() domain.Status {
	if a.requireReady() != nil {
		return domain.Status{}
	}
	a.controller.StopRecording(a.ctx)
	return a.controller.Status()
}

// PlayTurnAudio plays one side ("student" or "persona") of a turn.
func (a *App) PlayTurnAudio(turnID, side string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.PlayTurnAudio(a.ctx, turnID, side)
}

// StopPlayback halts whatever is playing.
func (a *App) StopPlayback() {
	if a.requireReady() != nil {
		return
	}
	a.controller.StopPlayback()
}

// EndInterview terminates the session and returns its summary.
func (a *App) EndInterview() (domain.SessionSummary, error) {
	if err := a.requireReady(); err != nil {
		return domain.SessionSummary{}, err
	}
	summary, _ := a.controller.EndInterview(a.ctx)
	return summary, nil
}

// GetTurns returns the turn sequence in creation order.
func (a *App) GetTurns() []domain.Turn {
	if a.requireReady() != nil {
		return nil
	}
	return a.controller.Turns()
}

// GetStatus returns the current controller status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		return domain.Status{Recording: domain.RecordingStateIdle, Outcome: domain.OutcomeIdle}
	}
	return a.controller.Status()
}

// GenerateReport scores the interview and caches the report for export.
func (a *App) GenerateReport() (domain.FeedbackReport, error) {
	if err := a.requireReady(); err != nil {
		return domain.FeedbackReport{}, err
	}
	report, err := a.controller.Report(a.ctx)
	if err != nil {
		return domain.FeedbackReport{}, err
	}
	a.mu.Lock()
	a.lastReport = &report
	a.mu.Unlock()
	return report, nil
}

// ExportReport renders the cached report as json or html. The controller
// copies the result to the clipboard for convenience.
func (a *App) ExportReport(format string) (domain.ExportedReport, error) {
	if err := a.requireReady(); err != nil {
		return domain.ExportedReport{}, err
	}

	a.mu.Lock()
	report := a.lastReport
	a.mu.Unlock()
	if report == nil {
		return domain.ExportedReport{}, fmt.Errorf("generate a report before exporting")
	}

	return a.controller.Export(a.ctx, format, *report)
}

// SetText places text on the system clipboard.
func (a *App) SetText(ctx context.Context, text string) error {
	if a.ctx == nil {
		return nil
	}
	return runtime.ClipboardSetText(a.ctx, text)
}

// DismissNotice clears the transient notice immediately.
func (a *App) DismissNotice() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventNoticeClear)
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// RecordingStateChanged emits push-to-talk lifecycle updates.
func (a *App) RecordingStateChanged(state domain.RecordingState, reason domain.StateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventRecording, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": stateReasonMessage(reason),
	})
}

// SessionChanged emits session lifecycle updates.
func (a *App) SessionChanged(sessionID string, active bool) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSession, map[string]interface{}{
		"sessionId": sessionID,
		"active":    active,
	})
}

// TurnAppended emits the optimistic student half of a new turn.
func (a *App) TurnAppended(turn domain.Turn) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTurn, turn)
}

// TurnUpdated emits the committed turn once the persona side arrived.
func (a *App) TurnUpdated(turn domain.Turn) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTurnUpdate, turn)
}

// ComposingChanged emits the "persona is composing" indicator.
func (a *App) ComposingChanged(active bool) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventComposing, active)
}

// ProcessingChanged emits the turn pipeline's in-flight flag.
func (a *App) ProcessingChanged(active bool) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventProcessing, active)
}

// PlaybackChanged emits the now-playing key changes.
func (a *App) PlaybackChanged(key string, playing bool) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventPlayback, map[string]interface{}{
		"key":     key,
		"playing": playing,
	})
}

// Notice emits a transient user-visible notice and schedules its
// auto-dismissal. Repeated notices push the dismissal out.
func (a *App) Notice(kind domain.NoticeKind, code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventNotice, map[string]string{
		"kind":    string(kind),
		"code":    string(code),
		"message": noticeMessage(kind, code, detail),
		"detail":  detail,
	})

	a.mu.Lock()
	dismiss := a.dismiss
	a.mu.Unlock()
	if dismiss == nil {
		dismiss = debounce.New(5 * time.Second)
		a.mu.Lock()
		a.dismiss = dismiss
		a.mu.Unlock()
	}
	dismiss(a.DismissNotice)
}

func stateReasonMessage(reason domain.StateReason) string {
	switch reason {
	case domain.ReasonInterviewStarted:
		return "Interview started. Hold your question until the mic is live."
	case domain.ReasonRecordingStarted:
		return "Recording"
	case domain.ReasonRecordingStopped:
		return "Processing your question..."
	case domain.ReasonRecordingBlocked:
		return "Wait for the current reply to finish"
	case domain.ReasonDeviceUnavailable:
		return "Microphone unavailable"
	case domain.ReasonInterviewEnded:
		return "Interview ended"
	default:
		return ""
	}
}

func noticeMessage(kind domain.NoticeKind, code domain.ErrorCode, detail string) string {
	if kind == domain.NoticeKindNoSpeech {
		return "No speech detected. Please speak louder and more clearly."
	}
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeSession:
		return "Could not reach the interview session"
	case domain.ErrorCodeDevice:
		return "Microphone access failed"
	case domain.ErrorCodeTranscription:
		return "Transcription failed"
	case domain.ErrorCodeReply:
		return "The persona could not reply"
	case domain.ErrorCodeSynthesis:
		return "Voice synthesis failed"
	case domain.ErrorCodePlayback:
		return "Audio playback failed"
	case domain.ErrorCodeReport:
		return "Feedback report failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
