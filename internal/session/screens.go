package session

import (
	"context"

	"github.com/spigell/interview-coach/internal/setup"
)

// Each screen only sees the actions it can trigger.

type Navigator interface {
	Home()
}

type LandingScreen interface {
	Start() error
	GoToLogin() error
}

type LoginScreen interface {
	Login() error
	GoToSignup() error
}

type SignupScreen interface {
	Signup() error
	GoToLogin() error
}

type SetupScreen interface {
	SubmitJobDetails(ctx context.Context, details setup.JobDetails) error
}

type ResumeScreen interface {
	SubmitResume(ctx context.Context, resume string) error
	Back() error
}

type InterviewScreen interface {
	SendTurn(ctx context.Context, text string) error
	EndInterview(ctx context.Context) error
}

type FeedbackScreen interface {
	Restart() error
}

type ErrorScreen interface {
	Acknowledge() error
}

var (
	_ Navigator       = (*Orchestrator)(nil)
	_ LandingScreen   = (*Orchestrator)(nil)
	_ LoginScreen     = (*Orchestrator)(nil)
	_ SignupScreen    = (*Orchestrator)(nil)
	_ SetupScreen     = (*Orchestrator)(nil)
	_ ResumeScreen    = (*Orchestrator)(nil)
	_ InterviewScreen = (*Orchestrator)(nil)
	_ FeedbackScreen  = (*Orchestrator)(nil)
	_ ErrorScreen     = (*Orchestrator)(nil)
)
