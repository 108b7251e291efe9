package session

import (
	"strings"

	"github.com/spigell/interview-coach/internal/ai"
)

// State names the active screen.
type State string

const (
	StateLanding      State = "landing"
	StateLogin        State = "login"
	StateSignup       State = "signup"
	StateResumeUpload State = "resume_upload"
	StateSetup        State = "setup"
	StateInterview    State = "interview"
	StateLoading      State = "loading"
	StateFeedback     State = "feedback"
	StateError        State = "error"
)

// Event names a user action or call completion that drives a transition.
type Event string

const (
	EventStart          Event = "start"
	EventGoToLogin      Event = "go_to_login"
	EventGoToSignup     Event = "go_to_signup"
	EventLogin          Event = "login"
	EventSignup         Event = "signup"
	EventSubmitSetup    Event = "submit_setup"
	EventSubmitResume   Event = "submit_resume"
	EventBack           Event = "back"
	EventSend           Event = "send"
	EventEnd            Event = "end"
	EventRestart        Event = "restart"
	EventHome           Event = "home"
	EventAcknowledge    Event = "acknowledge"
	EventSessionStarted Event = "session_started"
	EventSessionFailed  Event = "session_failed"
	EventFeedbackReady  Event = "feedback_ready"
	EventFeedbackFailed Event = "feedback_failed"
)

// User-facing error texts.
const (
	MsgStartFailed      = "Failed to start interview session. Please check your API key and try again."
	MsgFeedbackFailed   = "Failed to generate feedback. Please try again."
	MsgEmptyInterview   = "Cannot generate feedback for an empty interview."
	MsgTurnFailedReply  = "Sorry, I encountered an error. Please try again."
	defaultJobTitleText = "Interview"
)

// SetupData accumulates the interview inputs across the setup screens.
type SetupData struct {
	JobTitle       string `json:"jobTitle"`
	JobDescription string `json:"jobDescription"`
	Resume         string `json:"resume"`
	IsNewUser      bool   `json:"isNewUser"`
	// ResumeProvided is set once the resume step was taken, even when skipped.
	ResumeProvided bool `json:"resumeProvided"`
}

// Complete reports whether an interview can be started from the data.
func (d SetupData) Complete() bool {
	return strings.TrimSpace(d.JobTitle) != "" &&
		strings.TrimSpace(d.JobDescription) != "" &&
		d.ResumeProvided
}

func (d SetupData) interviewSetup() ai.InterviewSetup {
	return ai.InterviewSetup{
		JobTitle:       d.JobTitle,
		JobDescription: d.JobDescription,
		Resume:         d.Resume,
	}
}

// Snapshot is a read-only view of the orchestrator handed to front ends.
type Snapshot struct {
	State         State        `json:"state"`
	Setup         SetupData    `json:"setup"`
	Messages      []ai.Message `json:"messages"`
	Feedback      *ai.Feedback `json:"feedback,omitempty"`
	Error         string       `json:"error,omitempty"`
	AwaitingReply bool         `json:"awaitingReply"`
}

// JobTitle is the heading shown on the interview screen.
func (s Snapshot) JobTitle() string {
	if t := strings.TrimSpace(s.Setup.JobTitle); t != "" {
		return t
	}
	return defaultJobTitleText
}
