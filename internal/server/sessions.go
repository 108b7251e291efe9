package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/resume"
	"github.com/spigell/interview-coach/internal/session"
	"github.com/spigell/interview-coach/internal/setup"
)

var errUnknownEvent = errors.New("unknown event")

type createResponse struct {
	ID      string           `json:"id"`
	Session session.Snapshot `json:"session"`
}

type eventRequest struct {
	Event   session.Event  `json:"event"`
	Payload map[string]any `json:"payload"`
}

type sendPayload struct {
	Text string `json:"text"`
}

type resumePayload struct {
	Skip bool `json:"skip"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	o := s.registry.Create()
	s.logger.Info("session created", zap.String(logger.FieldSessionID, o.ID()))
	writeJSON(w, http.StatusCreated, createResponse{ID: o.ID(), Session: o.Snapshot()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	o, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, o.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.registry.Delete(id) {
		httpError(w, http.StatusNotFound, "session %q not found", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	o, ok := s.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	// The interviewer call must outlive a client that goes away mid-request.
	ctx := context.WithoutCancel(r.Context())

	if err := s.dispatch(ctx, o, req); err != nil {
		s.writeEventError(w, req.Event, err)
		return
	}

	writeJSON(w, http.StatusOK, o.Snapshot())
}

func (s *Server) dispatch(ctx context.Context, o *session.Orchestrator, req eventRequest) error {
	switch req.Event {
	case session.EventStart:
		return o.Start()
	case session.EventGoToLogin:
		return o.GoToLogin()
	case session.EventGoToSignup:
		return o.GoToSignup()
	case session.EventLogin:
		return o.Login()
	case session.EventSignup:
		return o.Signup()
	case session.EventSubmitSetup:
		var form setup.Form
		if err := decodePayload(req.Payload, &form); err != nil {
			return err
		}
		details, err := s.setup.Submit(form)
		if err != nil {
			return err
		}
		return o.SubmitJobDetails(ctx, details)
	case session.EventSubmitResume:
		var p resumePayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return err
		}
		if !p.Skip {
			return &payloadError{msg: "upload the resume to the resume endpoint or set skip"}
		}
		return o.SubmitResume(ctx, resume.Skip())
	case session.EventBack:
		return o.Back()
	case session.EventSend:
		var p sendPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return err
		}
		return o.SendTurn(ctx, p.Text)
	case session.EventEnd:
		return o.EndInterview(ctx)
	case session.EventRestart:
		return o.Restart()
	case session.EventHome:
		o.Home()
		return nil
	case session.EventAcknowledge:
		return o.Acknowledge()
	default:
		return errUnknownEvent
	}
}

func (s *Server) handleResumeUpload(w http.ResponseWriter, r *http.Request) {
	o, ok := s.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, resume.MaxSize+maxRequestBodySize)
	if err := r.ParseMultipartForm(resume.MaxSize); err != nil {
		httpError(w, http.StatusBadRequest, "invalid multipart body: %v", err)
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		httpError(w, http.StatusBadRequest, "resume file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, resume.MaxSize+1))
	if err != nil {
		httpError(w, http.StatusBadRequest, "unable to read resume: %v", err)
		return
	}

	label, err := s.intake.FromBytes(header.Filename, data)
	if err != nil {
		httpError(w, http.StatusUnprocessableEntity, "%s", resume.UserMessage(err))
		return
	}

	if err := o.SubmitResume(context.WithoutCancel(r.Context()), label); err != nil {
		s.writeEventError(w, session.EventSubmitResume, err)
		return
	}

	writeJSON(w, http.StatusOK, o.Snapshot())
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Orchestrator, bool) {
	id := chi.URLParam(r, "id")
	o, ok := s.registry.Get(id)
	if !ok {
		httpError(w, http.StatusNotFound, "session %q not found", id)
	}
	return o, ok
}

func (s *Server) writeEventError(w http.ResponseWriter, event session.Event, err error) {
	var (
		validation *setup.ValidationError
		payload    *payloadError
	)

	switch {
	case errors.As(err, &validation):
		httpError(w, http.StatusUnprocessableEntity, "%s", validation.Message)
	case errors.As(err, &payload):
		httpError(w, http.StatusBadRequest, "%s", payload.msg)
	case errors.Is(err, errUnknownEvent):
		httpError(w, http.StatusBadRequest, "unknown event %q", event)
	case errors.Is(err, session.ErrEmptyMessage), errors.Is(err, session.ErrIncompleteSetup):
		httpError(w, http.StatusUnprocessableEntity, "%v", err)
	case errors.Is(err, session.ErrInvalidTransition), errors.Is(err, session.ErrAwaitingReply):
		httpError(w, http.StatusConflict, "%v", err)
	default:
		s.logger.Error("handling event", zap.String(logger.FieldEvent, string(event)), zap.Error(err))
		httpError(w, http.StatusInternalServerError, "internal error")
	}
}

type payloadError struct {
	msg string
}

func (e *payloadError) Error() string {
	return e.msg
}

// decodePayload maps the loosely typed event payload onto a struct by its json tags.
func decodePayload(in map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(in); err != nil {
		return &payloadError{msg: "invalid payload: " + err.Error()}
	}
	return nil
}
