package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"intervu/internal/config"
	"intervu/internal/domain"
)

// Client talks to the interview training backend over its REST surface.
// Every call carries a bounded timeout so a hung request surfaces as a
// transport failure instead of stalling the turn pipeline.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string

	requestTimeout time.Duration
	uploadTimeout  time.Duration
	scoreTimeout   time.Duration
}

func New(cfg config.BackendConfig) *Client {
	return &Client{
		HTTPClient:     &http.Client{},
		BaseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:         cfg.APIKey,
		requestTimeout: cfg.RequestTimeout,
		uploadTimeout:  cfg.UploadTimeout,
		scoreTimeout:   cfg.ScoreTimeout,
	}
}

// flexString decodes a JSON value that arrives as either a string or a
// number; the backend serves persona ids and ages in both shapes.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// ListPersonas fetches the selectable interviewee profiles.
func (c *Client) ListPersonas(ctx context.Context) ([]domain.Persona, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var raw []struct {
		ID         flexString `json:"id"`
		Name       string     `json:"name"`
		Role       string     `json:"role"`
		Location   string     `json:"location"`
		Gender     string     `json:"gender"`
		Age        flexString `json:"age"`
		Background string     `json:"background"`
	}
	if err := c.getJSON(ctx, "/api/v1/persona/list", &raw); err != nil {
		return nil, err
	}

	personas := make([]domain.Persona, 0, len(raw))
	for _, p := range raw {
		age, _ := strconv.Atoi(string(p.Age))
		personas = append(personas, domain.Persona{
			ID:         string(p.ID),
			Name:       p.Name,
			Role:       p.Role,
			Location:   p.Location,
			Gender:     p.Gender,
			Age:        age,
			Background: p.Background,
		})
	}
	return personas, nil
}

// StartSession creates a new interview session bound to one persona.
func (c *Client) StartSession(ctx context.Context, personaID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var out struct {
		SessionID string `json:"session_id"`
	}
	form := url.Values{"persona_id": {personaID}}
	if err := c.postForm(ctx, "/api/v1/interview/start-session", form, &out); err != nil {
		return "", err
	}
	if out.SessionID == "" {
		return "", fmt.Errorf("start-session: empty session id")
	}
	return out.SessionID, nil
}

// SessionStatus asks the backend whether a session is still alive.
func (c *Client) SessionStatus(ctx context.Context, sessionID string) (domain.SessionStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var status domain.SessionStatus
	path := "/api/v1/interview/session-status/" + url.PathEscape(sessionID)
	if err := c.getJSON(ctx, path, &status); err != nil {
		return domain.SessionStatus{}, err
	}
	return status, nil
}

// EndSession terminates a session and returns its summary.
func (c *Client) EndSession(ctx context.Context, sessionID string) (domain.SessionSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var summary domain.SessionSummary
	form := url.Values{"session_id": {sessionID}}
	if err := c.postForm(ctx, "/api/v1/interview/end-session", form, &summary); err != nil {
		return domain.SessionSummary{}, err
	}
	return summary, nil
}

// Transcribe uploads one recorded clip for speech-to-text. An empty
// transcript in the response is valid and means no speech was detected.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (domain.TranscriptionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "recording.wav")
	if err != nil {
		return domain.TranscriptionResult{}, err
	}
	if _, err := part.Write(audio); err != nil {
		return domain.TranscriptionResult{}, err
	}
	if err := mw.Close(); err != nil {
		return domain.TranscriptionResult{}, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/interview/upload-audio", &body)
	if err != nil {
		return domain.TranscriptionResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result domain.TranscriptionResult
	if err := c.do(req, &result); err != nil {
		return domain.TranscriptionResult{}, err
	}
	return result, nil
}

// PersonaReply asks the persona to answer the transcribed question.
func (c *Client) PersonaReply(ctx context.Context, personaID, transcript, sessionID string) (domain.PersonaReply, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var reply domain.PersonaReply
	form := url.Values{
		"persona_id": {personaID},
		"transcript": {transcript},
		"session_id": {sessionID},
	}
	if err := c.postForm(ctx, "/api/v1/interview/persona-reply", form, &reply); err != nil {
		return domain.PersonaReply{}, err
	}
	return reply, nil
}

// Synthesize converts reply text to speech. The backend answers with either
// inline base64 audio or a hosted audio URL; both are normalized into a
// single AudioClip.
func (c *Client) Synthesize(ctx context.Context, text, personaID string) (domain.AudioClip, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	var out struct {
		AudioBase64 string `json:"audio_base64"`
		AudioURL    string `json:"audio_url"`
	}
	form := url.Values{"text": {text}}
	if personaID != "" {
		form.Set("persona_id", personaID)
	}
	if err := c.postForm(ctx, "/api/v1/interview/tts", form, &out); err != nil {
		return domain.AudioClip{}, err
	}

	if out.AudioBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(out.AudioBase64)
		if err != nil {
			return domain.AudioClip{}, fmt.Errorf("tts: decode inline audio: %w", err)
		}
		return domain.AudioClip{Kind: domain.AudioKindInline, Data: data, MIMEType: "audio/mpeg"}, nil
	}
	if out.AudioURL != "" {
		return domain.AudioClip{Kind: domain.AudioKindReference, URL: c.absoluteURL(out.AudioURL)}, nil
	}
	return domain.AudioClip{}, fmt.Errorf("tts: response carried no audio")
}

// ScoreInterview submits the finished transcript for rubric scoring.
func (c *Client) ScoreInterview(ctx context.Context, input domain.FeedbackInput) (domain.FeedbackReport, error) {
	ctx, cancel := context.WithTimeout(ctx, c.scoreTimeout)
	defer cancel()

	payload, err := json.Marshal(input)
	if err != nil {
		return domain.FeedbackReport{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/feedback/report", bytes.NewReader(payload))
	if err != nil {
		return domain.FeedbackReport{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var report domain.FeedbackReport
	if err := c.do(req, &report); err != nil {
		return domain.FeedbackReport{}, err
	}
	return report, nil
}

// ExportReport renders a scored report as json or html.
func (c *Client) ExportReport(ctx context.Context, format string, report domain.FeedbackReport) (domain.ExportedReport, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	payload, err := json.Marshal(report)
	if err != nil {
		return domain.ExportedReport{}, err
	}
	path := "/api/v1/feedback/report/export/" + url.PathEscape(format)
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return domain.ExportedReport{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return domain.ExportedReport{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ExportedReport{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.ExportedReport{}, fmt.Errorf("backend error: status=%d body=%s", resp.StatusCode, string(body))
	}

	// html exports arrive wrapped as {"html": "..."}; json exports are the
	// report document itself.
	if format == "html" {
		var wrapped struct {
			HTML string `json:"html"`
		}
		if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.HTML != "" {
			return domain.ExportedReport{Format: format, Content: wrapped.HTML}, nil
		}
	}
	return domain.ExportedReport{Format: format, Content: string(body)}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.APIKey)
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend error: status=%d body=%s", resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) absoluteURL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return c.BaseURL + ref
}
