package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"intervu/internal/domain"
	"intervu/internal/ports"
)

type replyCall struct {
	personaID  string
	transcript string
	sessionID  string
}

type fakeService struct {
	mu sync.Mutex

	personas []domain.Persona

	startCalls   int
	startErr     error
	nextSessions []string

	statusCalls  int
	statusActive bool
	statusErr    error

	transcribeCalls  int
	transcribeResult domain.TranscriptionResult
	transcribeErr    error

	replyCalls []replyCall
	reply      domain.PersonaReply
	replyErr   error

	synthCalls int
	clip       domain.AudioClip
	synthErr   error

	endCalls int
	endErr   error
	summary  domain.SessionSummary

	lastInput domain.FeedbackInput
	report    domain.FeedbackReport
	reportErr error
	exported  domain.ExportedReport
	exportErr error
}

func (s *fakeService) ListPersonas(ctx context.Context) ([]domain.Persona, error) {
	return s.personas, nil
}

func (s *fakeService) StartSession(ctx context.Context, personaID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startCalls++
	if s.startErr != nil {
		return "", s.startErr
	}
	if len(s.nextSessions) == 0 {
		return "s1", nil
	}
	id := s.nextSessions[0]
	if len(s.nextSessions) > 1 {
		s.nextSessions = s.nextSessions[1:]
	}
	return id, nil
}

func (s *fakeService) SessionStatus(ctx context.Context, sessionID string) (domain.SessionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusCalls++
	if s.statusErr != nil {
		return domain.SessionStatus{}, s.statusErr
	}
	return domain.SessionStatus{Active: s.statusActive, SessionID: sessionID}, nil
}

func (s *fakeService) EndSession(ctx context.Context, sessionID string) (domain.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endCalls++
	if s.endErr != nil {
		return domain.SessionSummary{}, s.endErr
	}
	return s.summary, nil
}

func (s *fakeService) Transcribe(ctx context.Context, audio []byte) (domain.TranscriptionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcribeCalls++
	if s.transcribeErr != nil {
		return domain.TranscriptionResult{}, s.transcribeErr
	}
	return s.transcribeResult, nil
}

func (s *fakeService) PersonaReply(ctx context.Context, personaID, transcript, sessionID string) (domain.PersonaReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replyCalls = append(s.replyCalls, replyCall{personaID, transcript, sessionID})
	if s.replyErr != nil {
		return domain.PersonaReply{}, s.replyErr
	}
	return s.reply, nil
}

func (s *fakeService) Synthesize(ctx context.Context, text, personaID string) (domain.AudioClip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synthCalls++
	if s.synthErr != nil {
		return domain.AudioClip{}, s.synthErr
	}
	return s.clip, nil
}

func (s *fakeService) ScoreInterview(ctx context.Context, input domain.FeedbackInput) (domain.FeedbackReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastInput = input
	if s.reportErr != nil {
		return domain.FeedbackReport{}, s.reportErr
	}
	return s.report, nil
}

func (s *fakeService) ExportReport(ctx context.Context, format string, report domain.FeedbackReport) (domain.ExportedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exportErr != nil {
		return domain.ExportedReport{}, s.exportErr
	}
	return s.exported, nil
}

type fakeCapture struct {
	mu      sync.Mutex
	clip    domain.AudioClip
	stopErr error
	stopped bool
	aborted bool
}

func (c *fakeCapture) Stop() (domain.AudioClip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.stopErr != nil {
		return domain.AudioClip{}, c.stopErr
	}
	return c.clip, nil
}

func (c *fakeCapture) Abort() {
	c.mu.Lock()
	c.aborted = true
	c.mu.Unlock()
}

type fakeRecorder struct {
	mu       sync.Mutex
	sessions []ports.RecordingSession
	startErr error
	starts   int
}

func (r *fakeRecorder) Start(ctx context.Context, cfg ports.RecorderConfig) (ports.RecordingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	if r.startErr != nil {
		return nil, r.startErr
	}
	if len(r.sessions) == 0 {
		return &fakeCapture{clip: inlineClip("pcm")}, nil
	}
	session := r.sessions[0]
	r.sessions = r.sessions[1:]
	return session, nil
}

type fakePlayback struct {
	done     chan struct{}
	mu       sync.Mutex
	stopped  bool
	doneOnce sync.Once
}

func newFakePlayback() *fakePlayback {
	return &fakePlayback{done: make(chan struct{})}
}

func (p *fakePlayback) Done() <-chan struct{} { return p.done }

func (p *fakePlayback) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.finish()
}

func (p *fakePlayback) finish() {
	p.doneOnce.Do(func() { close(p.done) })
}

func (p *fakePlayback) wasStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

type fakePlayer struct {
	mu        sync.Mutex
	err       error
	plays     []domain.AudioClip
	playbacks []*fakePlayback
}

func (p *fakePlayer) Play(ctx context.Context, clip domain.AudioClip) (ports.Playback, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	playback := newFakePlayback()
	p.plays = append(p.plays, clip)
	p.playbacks = append(p.playbacks, playback)
	return playback, nil
}

func (p *fakePlayer) playCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.plays)
}

func (p *fakePlayer) playbackAt(i int) *fakePlayback {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playbacks[i]
}

type fakeClipboard struct {
	mu    sync.Mutex
	texts []string
}

func (c *fakeClipboard) SetText(ctx context.Context, text string) error {
	c.mu.Lock()
	c.texts = append(c.texts, text)
	c.mu.Unlock()
	return nil
}

func (c *fakeClipboard) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.texts) == 0 {
		return ""
	}
	return c.texts[len(c.texts)-1]
}

type noticeEvent struct {
	kind   domain.NoticeKind
	code   domain.ErrorCode
	detail string
}

type playbackEvent struct {
	key     string
	playing bool
}

type fakeEventSink struct {
	mu        sync.Mutex
	states    []domain.StateReason
	sessions  []string
	appended  []domain.Turn
	updated   []domain.Turn
	composing []bool
	notices   []noticeEvent
	playback  []playbackEvent
}

func (s *fakeEventSink) RecordingStateChanged(state domain.RecordingState, reason domain.StateReason) {
	s.mu.Lock()
	s.states = append(s.states, reason)
	s.mu.Unlock()
}

func (s *fakeEventSink) SessionChanged(sessionID string, active bool) {
	s.mu.Lock()
	s.sessions = append(s.sessions, sessionID)
	s.mu.Unlock()
}

func (s *fakeEventSink) TurnAppended(turn domain.Turn) {
	s.mu.Lock()
	s.appended = append(s.appended, turn)
	s.mu.Unlock()
}

func (s *fakeEventSink) TurnUpdated(turn domain.Turn) {
	s.mu.Lock()
	s.updated = append(s.updated, turn)
	s.mu.Unlock()
}

func (s *fakeEventSink) ComposingChanged(active bool) {
	s.mu.Lock()
	s.composing = append(s.composing, active)
	s.mu.Unlock()
}

func (s *fakeEventSink) ProcessingChanged(active bool) {}

func (s *fakeEventSink) PlaybackChanged(key string, playing bool) {
	s.mu.Lock()
	s.playback = append(s.playback, playbackEvent{key, playing})
	s.mu.Unlock()
}

func (s *fakeEventSink) Notice(kind domain.NoticeKind, code domain.ErrorCode, detail string) {
	s.mu.Lock()
	s.notices = append(s.notices, noticeEvent{kind, code, detail})
	s.mu.Unlock()
}

func (s *fakeEventSink) snapshotNotices() []noticeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]noticeEvent, len(s.notices))
	copy(out, s.notices)
	return out
}

func inlineClip(data string) domain.AudioClip {
	return domain.AudioClip{Kind: domain.AudioKindInline, Data: []byte(data), MIMEType: "audio/wav"}
}

func waitForIdle(t *testing.T, c *InterviewController) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !c.Status().Processing {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("pipeline never finished")
}
