package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/session"
	"github.com/spigell/interview-coach/internal/setup"
)

type stubChat struct {
	mu   sync.Mutex
	sent []string
}

func (c *stubChat) Send(_ context.Context, message string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, message)
	return "Interesting. Why?", nil
}

type stubInterviewer struct {
	mu          sync.Mutex
	chat        *stubChat
	setups      []ai.InterviewSetup
	startErr    error
	transcripts []string
}

func (s *stubInterviewer) StartSession(_ context.Context, in ai.InterviewSetup) (ai.ChatSession, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setups = append(s.setups, in)
	if s.startErr != nil {
		return nil, "", s.startErr
	}
	return s.chat, "Welcome! What brings you here?", nil
}

func (s *stubInterviewer) RequestFeedback(_ context.Context, transcript string) (*ai.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts = append(s.transcripts, transcript)
	return &ai.Feedback{
		Strengths:    []string{"clear", "concise", "structured"},
		Improvements: []string{"depth", "metrics", "examples"},
		Summary:      "Solid interview.",
		OverallScore: 72,
	}, nil
}

func newTestServer(t *testing.T) (*Server, *stubInterviewer, http.Handler) {
	t.Helper()
	interviewer := &stubInterviewer{chat: &stubChat{}}
	srv := New(interviewer, setup.NewAggregator(nil), zap.NewNop())
	return srv, interviewer, srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := doJSON(t, h, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created createResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, session.StateLanding, created.Session.State)
	return created.ID
}

func sendEvent(t *testing.T, h http.Handler, id, event string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]any{"event": event, "payload": payload})
	require.NoError(t, err)
	return doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/events", string(body))
}

func decodeSnapshot(t *testing.T, rr *httptest.ResponseRecorder) session.Snapshot {
	t.Helper()
	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&snap))
	return snap
}

func uploadResume(t *testing.T, h http.Handler, id, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("resume", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/resume", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// onePagePDF is the smallest document the intake accepts.
func onePagePDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	_, _, h := newTestServer(t)

	rr := doJSON(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestPresets(t *testing.T) {
	_, _, h := newTestServer(t)

	rr := doJSON(t, h, http.MethodGet, "/api/presets", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var presets []setup.Preset
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&presets))
	assert.Len(t, presets, 3)
}

func TestReturningUserScenario(t *testing.T) {
	_, interviewer, h := newTestServer(t)
	id := createSession(t, h)

	rr := sendEvent(t, h, id, "go_to_login", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = sendEvent(t, h, id, "login", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, session.StateSetup, decodeSnapshot(t, rr).State)

	rr = sendEvent(t, h, id, "submit_setup", map[string]any{
		"mode": "manual", "jobTitle": "X", "jobDescription": "Y",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, session.StateResumeUpload, decodeSnapshot(t, rr).State)

	rr = uploadResume(t, h, id, "cv.pdf", onePagePDF())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	snap := decodeSnapshot(t, rr)
	assert.Equal(t, session.StateInterview, snap.State)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, ai.RoleModel, snap.Messages[0].Role)

	require.Len(t, interviewer.setups, 1)
	assert.Equal(t, ai.InterviewSetup{
		JobTitle:       "X",
		JobDescription: "Y",
		Resume:         "[Content of resume: cv.pdf]",
	}, interviewer.setups[0])

	rr = sendEvent(t, h, id, "send", map[string]any{"text": "I like Go"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeSnapshot(t, rr).Messages, 3)

	rr = sendEvent(t, h, id, "end", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	snap = decodeSnapshot(t, rr)
	assert.Equal(t, session.StateFeedback, snap.State)
	require.NotNil(t, snap.Feedback)
	assert.Equal(t, 72, snap.Feedback.OverallScore)

	rr = sendEvent(t, h, id, "restart", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	snap = decodeSnapshot(t, rr)
	assert.Equal(t, session.StateSetup, snap.State)
	assert.Empty(t, snap.Messages)
	assert.Nil(t, snap.Feedback)
}

func TestNewUserScenarioWithPresetAndSkippedResume(t *testing.T) {
	_, interviewer, h := newTestServer(t)
	id := createSession(t, h)

	for _, event := range []string{"go_to_login", "go_to_signup", "signup"} {
		rr := sendEvent(t, h, id, event, nil)
		require.Equal(t, http.StatusOK, rr.Code, "%s: %s", event, rr.Body.String())
	}

	rr := sendEvent(t, h, id, "submit_resume", map[string]any{"skip": true})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, session.StateSetup, decodeSnapshot(t, rr).State)

	rr = sendEvent(t, h, id, "submit_setup", map[string]any{"mode": "preset", "presetId": "pm"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, session.StateInterview, decodeSnapshot(t, rr).State)

	require.Len(t, interviewer.setups, 1)
	assert.Equal(t, "Product Manager", interviewer.setups[0].JobTitle)
	assert.Empty(t, interviewer.setups[0].Resume)
}

func TestStartFailureIsReportedInSnapshot(t *testing.T) {
	_, interviewer, h := newTestServer(t)
	interviewer.startErr = errors.New("api key not valid")
	id := createSession(t, h)

	sendEvent(t, h, id, "start", nil)
	sendEvent(t, h, id, "submit_setup", map[string]any{"jobTitle": "X", "jobDescription": "Y"})
	rr := sendEvent(t, h, id, "submit_resume", map[string]any{"skip": true})

	require.Equal(t, http.StatusOK, rr.Code)
	snap := decodeSnapshot(t, rr)
	assert.Equal(t, session.StateError, snap.State)
	assert.Equal(t, session.MsgStartFailed, snap.Error)

	rr = sendEvent(t, h, id, "acknowledge", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, session.StateLanding, decodeSnapshot(t, rr).State)
}

func TestEventErrors(t *testing.T) {
	_, _, h := newTestServer(t)
	id := createSession(t, h)

	rr := doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/events", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = sendEvent(t, h, id, "dance", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = sendEvent(t, h, id, "restart", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	require.Equal(t, http.StatusOK, sendEvent(t, h, id, "start", nil).Code)

	rr = sendEvent(t, h, id, "submit_setup", map[string]any{"mode": "manual", "jobTitle": "  "})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, setup.MsgManualRequired), rr.Body.String())

	rr = sendEvent(t, h, id, "submit_setup", map[string]any{"mode": "preset"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, setup.MsgPresetRequired), rr.Body.String())

	rr = doJSON(t, h, http.MethodGet, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, session.StateSetup, decodeSnapshot(t, rr).State)
}

func TestResumeUploadRejectsNonPDF(t *testing.T) {
	_, interviewer, h := newTestServer(t)
	id := createSession(t, h)

	sendEvent(t, h, id, "start", nil)
	sendEvent(t, h, id, "submit_setup", map[string]any{"jobTitle": "X", "jobDescription": "Y"})

	rr := uploadResume(t, h, id, "cv.txt", []byte("plain text resume"))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Please upload a PDF file.")
	assert.Empty(t, interviewer.setups)

	rr = doJSON(t, h, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, session.StateResumeUpload, decodeSnapshot(t, rr).State)
}

func TestUnknownAndDeletedSessions(t *testing.T) {
	srv, _, h := newTestServer(t)

	rr := doJSON(t, h, http.MethodGet, "/api/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	id := createSession(t, h)
	assert.Equal(t, 1, srv.Registry().Len())

	rr = doJSON(t, h, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 0, srv.Registry().Len())

	rr = sendEvent(t, h, id, "start", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
