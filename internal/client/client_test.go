package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"intervu/internal/config"
	"intervu/internal/domain"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := New(config.BackendConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		RequestTimeout: 2 * time.Second,
		UploadTimeout:  2 * time.Second,
		ScoreTimeout:   2 * time.Second,
	})
	return c, server
}

func TestListPersonasNormalizesMixedIDTypes(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/persona/list" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "name": "Maya", "role": "Nurse", "location": "Austin", "gender": "female", "age": 34, "background": "ER nurse"},
			{"id": "p42", "name": "Omar", "role": "Teacher", "location": "Chicago", "gender": "male", "age": "51", "background": "High school"}
		]`))
	}))

	personas, err := c.ListPersonas(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(personas) != 2 {
		t.Fatalf("expected 2 personas, got %d", len(personas))
	}
	if personas[0].ID != "1" || personas[0].Age != 34 {
		t.Fatalf("unexpected first persona: %+v", personas[0])
	}
	if personas[1].ID != "p42" || personas[1].Age != 51 {
		t.Fatalf("unexpected second persona: %+v", personas[1])
	}
}

func TestStartSessionPostsPersonaForm(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/interview/start-session" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostFormValue("persona_id"); got != "p42" {
			t.Errorf("unexpected persona_id: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"session_id": "s1"})
	}))

	id, err := c.StartSession(context.Background(), "p42")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if id != "s1" {
		t.Fatalf("unexpected session id: %q", id)
	}
}

func TestStartSessionRejectsEmptyID(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))

	if _, err := c.StartSession(context.Background(), "p1"); err == nil {
		t.Fatalf("expected error on empty session id")
	}
}

func TestSessionStatusRoundTrip(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/interview/session-status/s1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"active": true, "session_id": "s1", "turn_count": 3})
	}))

	status, err := c.SessionStatus(context.Background(), "s1")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !status.Active || status.TurnCount != 3 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestTranscribeUploadsMultipartFile(t *testing.T) {
	t.Parallel()

	audio := []byte("RIFF-fake-wav")
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/interview/upload-audio" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Filename != "recording.wav" {
			t.Errorf("unexpected filename: %q", header.Filename)
		}
		got, err := io.ReadAll(file)
		if err != nil {
			t.Errorf("read file: %v", err)
		}
		if string(got) != string(audio) {
			t.Errorf("uploaded bytes mismatch")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"transcript": "Hello there", "confidence": 0.9})
	}))

	result, err := c.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if result.Transcript != "Hello there" {
		t.Fatalf("unexpected transcript: %q", result.Transcript)
	}
}

func TestTranscribeEmptyTranscriptIsNotAnError(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"transcript": "", "confidence": 0.0, "message": "No audio detected"})
	}))

	result, err := c.Transcribe(context.Background(), []byte("wav"))
	if err != nil {
		t.Fatalf("an empty transcript is a valid response: %v", err)
	}
	if result.Transcript != "" || result.Message == "" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestPersonaReplyFormFields(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostFormValue("persona_id") != "p42" ||
			r.PostFormValue("transcript") != "What motivates you?" ||
			r.PostFormValue("session_id") != "s1" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"reply": "I value helping others.", "turn_number": 1})
	}))

	reply, err := c.PersonaReply(context.Background(), "p42", "What motivates you?", "s1")
	if err != nil {
		t.Fatalf("reply failed: %v", err)
	}
	if reply.Reply != "I value helping others." || reply.TurnNumber != 1 {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestSynthesizeDecodesInlineAudio(t *testing.T) {
	t.Parallel()

	raw := []byte("mp3-bytes")
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"audio_base64": base64.StdEncoding.EncodeToString(raw),
			"voice_id":     "v1",
		})
	}))

	clip, err := c.Synthesize(context.Background(), "Hello", "p1")
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if clip.Kind != domain.AudioKindInline {
		t.Fatalf("expected inline clip, got %s", clip.Kind)
	}
	if string(clip.Data) != string(raw) {
		t.Fatalf("decoded audio mismatch")
	}
}

func TestSynthesizeResolvesReferenceAudio(t *testing.T) {
	t.Parallel()

	c, server := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"audio_url": "/api/v1/tts/audio/abc.mp3",
		})
	}))

	clip, err := c.Synthesize(context.Background(), "Hello", "p1")
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if clip.Kind != domain.AudioKindReference {
		t.Fatalf("expected reference clip, got %s", clip.Kind)
	}
	if clip.URL != server.URL+"/api/v1/tts/audio/abc.mp3" {
		t.Fatalf("relative audio url not resolved: %q", clip.URL)
	}
}

func TestSynthesizeWithoutAudioFails(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"voice_id": "v1"})
	}))

	if _, err := c.Synthesize(context.Background(), "Hello", "p1"); err == nil {
		t.Fatalf("expected error when response carries no audio")
	}
}

func TestScoreInterviewPostsJSONPayload(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type: %s", r.Header.Get("Content-Type"))
		}
		var input domain.FeedbackInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			t.Errorf("decode input: %v", err)
		}
		if input.PersonaID != "p42" || len(input.InterviewTurns) != 2 {
			t.Errorf("unexpected input: %+v", input)
		}
		json.NewEncoder(w).Encode(domain.FeedbackReport{OverallScore: 3.5, OverallLevel: "Proficient", TotalTurns: 1})
	}))

	input := domain.FeedbackInput{
		PersonaID: "p42",
		InterviewTurns: []domain.FeedbackTurn{
			{Speaker: domain.SpeakerStudent, Text: "Q", TurnNumber: 1},
			{Speaker: domain.SpeakerPersona, Text: "A", TurnNumber: 1},
		},
	}
	report, err := c.ScoreInterview(context.Background(), input)
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if report.OverallScore != 3.5 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestExportReportUnwrapsHTML(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/feedback/report/export/html" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"html": "<html>report</html>"})
	}))

	exported, err := c.ExportReport(context.Background(), "html", domain.FeedbackReport{})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if exported.Content != "<html>report</html>" {
		t.Fatalf("unexpected content: %q", exported.Content)
	}
}

func TestServerErrorSurfacesStatusAndBody(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Invalid API Key"}`, http.StatusUnauthorized)
	}))

	_, err := c.SessionStatus(context.Background(), "s1")
	if err == nil {
		t.Fatalf("expected error on 401")
	}
}
