package ai

import (
	"context"
	"strings"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is a single turn of the interview transcript.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// InterviewSetup is the complete set of inputs needed to open an interview.
type InterviewSetup struct {
	JobTitle       string
	JobDescription string
	Resume         string
}

// Feedback is the structured evaluation of a finished interview.
type Feedback struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Summary      string   `json:"summary"`
	OverallScore int      `json:"overallScore"`
}

// ChatSession is one open conversation with the interviewer model.
type ChatSession interface {
	Send(ctx context.Context, message string) (string, error)
}

type Interviewer interface {
	StartSession(ctx context.Context, setup InterviewSetup) (ChatSession, string, error)
	RequestFeedback(ctx context.Context, transcript string) (*Feedback, error)
}

// Transcript renders messages as Candidate/Interviewer lines in turn order.
func Transcript(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		speaker := "Interviewer"
		if m.Role == RoleUser {
			speaker = "Candidate"
		}
		lines = append(lines, speaker+": "+m.Text)
	}
	return strings.Join(lines, "\n")
}
