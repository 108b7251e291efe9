// Package session holds the interview state machine: which screen is active
// and everything accumulated on the way from landing to feedback.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/setup"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrAwaitingReply     = errors.New("awaiting interviewer reply")
	ErrEmptyMessage      = errors.New("message must not be empty")
	ErrIncompleteSetup   = errors.New("setup data is incomplete")
)

// Orchestrator is the single source of truth for one candidate's session.
// All mutations go through its transition methods; it is safe for concurrent use.
//
// Calls to the interviewer run without the lock held. Every reset bumps the
// generation, and a call whose generation is no longer current when it returns
// is dropped instead of applied.
type Orchestrator struct {
	id          string
	interviewer ai.Interviewer
	logger      *zap.Logger

	mu         sync.Mutex
	state      State
	setup      SetupData
	chat       ai.ChatSession
	messages   []ai.Message
	feedback   *ai.Feedback
	errMsg     string
	awaiting   bool
	generation uint64
}

func New(id string, interviewer ai.Interviewer, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		id:          id,
		interviewer: interviewer,
		logger:      logger.WithSession(log, id),
		state:       StateLanding,
	}
}

func (o *Orchestrator) ID() string {
	return o.id
}

// State returns the active screen.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Snapshot returns a copy of the current session data.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	messages := make([]ai.Message, len(o.messages))
	copy(messages, o.messages)

	var feedback *ai.Feedback
	if o.feedback != nil {
		fb := *o.feedback
		fb.Strengths = append([]string(nil), o.feedback.Strengths...)
		fb.Improvements = append([]string(nil), o.feedback.Improvements...)
		feedback = &fb
	}

	return Snapshot{
		State:         o.state,
		Setup:         o.setup,
		Messages:      messages,
		Feedback:      feedback,
		Error:         o.errMsg,
		AwaitingReply: o.awaiting,
	}
}

// Start begins setup from the landing page.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateLanding {
		return o.invalid(EventStart)
	}
	o.setup = SetupData{}
	o.transition(EventStart, StateSetup)
	return nil
}

func (o *Orchestrator) GoToLogin() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateLanding && o.state != StateSignup {
		return o.invalid(EventGoToLogin)
	}
	o.transition(EventGoToLogin, StateLogin)
	return nil
}

func (o *Orchestrator) GoToSignup() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateLogin {
		return o.invalid(EventGoToSignup)
	}
	o.transition(EventGoToSignup, StateSignup)
	return nil
}

// Login is the simulated returning-user sign in.
func (o *Orchestrator) Login() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateLogin {
		return o.invalid(EventLogin)
	}
	o.setup = SetupData{}
	o.transition(EventLogin, StateSetup)
	return nil
}

// Signup is the simulated new-user registration. New users upload the resume first.
func (o *Orchestrator) Signup() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateSignup {
		return o.invalid(EventSignup)
	}
	o.setup = SetupData{IsNewUser: true}
	o.transition(EventSignup, StateResumeUpload)
	return nil
}

// SubmitJobDetails merges validated job details. New users already gave a
// resume, so the interview starts; returning users continue to the resume step.
func (o *Orchestrator) SubmitJobDetails(ctx context.Context, details setup.JobDetails) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateSetup {
		return o.invalid(EventSubmitSetup)
	}

	merged := o.setup
	merged.JobTitle = details.JobTitle
	merged.JobDescription = details.JobDescription

	if merged.IsNewUser {
		return o.startInterview(ctx, EventSubmitSetup, merged)
	}

	o.setup = merged
	o.transition(EventSubmitSetup, StateResumeUpload)
	return nil
}

// SubmitResume stores the resume label; an empty string means the step was skipped.
func (o *Orchestrator) SubmitResume(ctx context.Context, resume string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateResumeUpload {
		return o.invalid(EventSubmitResume)
	}

	merged := o.setup
	merged.Resume = resume
	merged.ResumeProvided = true

	if !merged.IsNewUser {
		return o.startInterview(ctx, EventSubmitResume, merged)
	}

	o.setup = merged
	o.transition(EventSubmitResume, StateSetup)
	return nil
}

// Back leaves the resume step: returning users go back to setup, new users go home.
func (o *Orchestrator) Back() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateResumeUpload {
		return o.invalid(EventBack)
	}

	if o.setup.IsNewUser {
		o.reset(EventBack, StateLanding)
		return nil
	}
	o.transition(EventBack, StateSetup)
	return nil
}

// SendTurn relays one candidate answer. The answer is appended immediately; a
// failed call appends a placeholder reply instead of leaving the interview.
func (o *Orchestrator) SendTurn(ctx context.Context, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateInterview {
		return o.invalid(EventSend)
	}
	if o.awaiting {
		return ErrAwaitingReply
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	o.messages = append(o.messages, ai.Message{Role: ai.RoleUser, Text: text})
	o.awaiting = true

	chat := o.chat
	gen := o.generation

	var (
		reply string
		err   error
	)
	o.unlocked(func() {
		if chat == nil {
			err = errors.New("no chat session")
			return
		}
		reply, err = chat.Send(ctx, text)
	})

	if gen != o.generation {
		o.logger.Debug("dropping stale reply", zap.String(logger.FieldEvent, string(EventSend)))
		return nil
	}

	o.awaiting = false
	if err != nil {
		o.logger.Error("sending message", zap.Error(err))
		reply = MsgTurnFailedReply
	}
	o.messages = append(o.messages, ai.Message{Role: ai.RoleModel, Text: reply})

	return nil
}

// EndInterview requests feedback for the transcript so far.
func (o *Orchestrator) EndInterview(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateInterview {
		return o.invalid(EventEnd)
	}
	if o.awaiting {
		return ErrAwaitingReply
	}

	if len(o.messages) == 0 {
		o.errMsg = MsgEmptyInterview
		o.transition(EventEnd, StateError)
		return nil
	}

	transcript := ai.Transcript(o.messages)
	o.errMsg = ""
	o.transition(EventEnd, StateLoading)
	gen := o.generation

	var (
		fb  *ai.Feedback
		err error
	)
	o.unlocked(func() {
		fb, err = o.interviewer.RequestFeedback(ctx, transcript)
	})

	if gen != o.generation {
		o.logger.Debug("dropping stale feedback", zap.String(logger.FieldEvent, string(EventEnd)))
		return nil
	}

	if err == nil && fb == nil {
		err = errors.New("interviewer returned no feedback")
	}
	if err != nil {
		o.logger.Error("generating feedback", zap.Error(err))
		o.errMsg = MsgFeedbackFailed
		o.transition(EventFeedbackFailed, StateError)
		return nil
	}

	o.feedback = fb
	o.transition(EventFeedbackReady, StateFeedback)
	return nil
}

// Restart clears everything and goes back to setup for another interview.
func (o *Orchestrator) Restart() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateFeedback {
		return o.invalid(EventRestart)
	}
	o.reset(EventRestart, StateSetup)
	return nil
}

// Home clears everything and returns to landing. It is valid from every state.
func (o *Orchestrator) Home() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reset(EventHome, StateLanding)
}

// Acknowledge dismisses the error screen.
func (o *Orchestrator) Acknowledge() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateError {
		return o.invalid(EventAcknowledge)
	}
	o.reset(EventAcknowledge, StateLanding)
	return nil
}

// startInterview must be called with the lock held; it releases the lock for
// the remote call.
func (o *Orchestrator) startInterview(ctx context.Context, event Event, data SetupData) error {
	if !data.Complete() {
		return ErrIncompleteSetup
	}

	o.setup = data
	o.chat = nil
	o.messages = nil
	o.errMsg = ""
	o.transition(event, StateLoading)
	gen := o.generation

	var (
		chat  ai.ChatSession
		first string
		err   error
	)
	o.unlocked(func() {
		chat, first, err = o.interviewer.StartSession(ctx, data.interviewSetup())
	})

	if gen != o.generation {
		o.logger.Debug("dropping stale interview session", zap.String(logger.FieldEvent, string(EventSessionStarted)))
		return nil
	}

	if err == nil && chat == nil {
		err = errors.New("interviewer returned no chat session")
	}
	if err != nil {
		o.logger.Error("starting interview session", zap.Error(err))
		o.setup = SetupData{}
		o.errMsg = MsgStartFailed
		o.transition(EventSessionFailed, StateError)
		return nil
	}

	o.chat = chat
	o.messages = []ai.Message{{Role: ai.RoleModel, Text: first}}
	o.transition(EventSessionStarted, StateInterview)
	return nil
}

func (o *Orchestrator) reset(event Event, to State) {
	o.generation++
	o.setup = SetupData{}
	o.chat = nil
	o.messages = nil
	o.feedback = nil
	o.errMsg = ""
	o.awaiting = false
	o.transition(event, to)
}

func (o *Orchestrator) transition(event Event, to State) {
	o.logger.Debug("transition", logger.Transition(string(event), string(o.state), string(to))...)
	o.state = to
}

func (o *Orchestrator) invalid(event Event) error {
	o.logger.Debug("rejected event",
		zap.String(logger.FieldEvent, string(event)),
		zap.String(logger.FieldState, string(o.state)),
	)
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, event, o.state)
}

func (o *Orchestrator) unlocked(fn func()) {
	o.mu.Unlock()
	defer o.mu.Lock()
	fn()
}
