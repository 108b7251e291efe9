package gemini

import (
	"context"
	"errors"
	"strings"

	_ "embed"

	"github.com/spigell/interview-coach/internal/ai"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Primer is the first user message of every interview chat.
const Primer = "Hello, let's begin the interview. Please ask your first question."

//go:embed prompts/interviewer.md
var interviewerTemplate string

type chatStarter interface {
	StartChat(ctx context.Context, systemInstruction, primer string) (chatSession, string, error)
	Send(ctx context.Context, chat chatSession, message string) (string, error)
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// Interviewer runs mock interviews against Gemini.
type Interviewer struct {
	generator chatStarter
	logger    *zap.Logger
}

var _ ai.Interviewer = (*Interviewer)(nil)

func NewInterviewer(generator *Generator, logger *zap.Logger) *Interviewer {
	return newInterviewer(generator, logger)
}

func newInterviewer(generator chatStarter, logger *zap.Logger) *Interviewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interviewer{generator: generator, logger: logger}
}

// StartSession opens the interview chat and returns it with the greeting and first question.
func (i *Interviewer) StartSession(ctx context.Context, setup ai.InterviewSetup) (ai.ChatSession, string, error) {
	instruction := buildInstruction(setup)

	chat, first, err := i.generator.StartChat(ctx, instruction, Primer)
	if err != nil {
		return nil, "", err
	}
	if chat == nil {
		return nil, "", errors.New("gemini api returned no chat session")
	}

	i.logger.Debug("interview session started", zap.String("job_title", setup.JobTitle))

	return &session{generator: i.generator, chat: chat}, first, nil
}

func buildInstruction(setup ai.InterviewSetup) string {
	replacer := strings.NewReplacer(
		"{{JOB_TITLE}}", setup.JobTitle,
		"{{JOB_DESCRIPTION}}", setup.JobDescription,
		"{{RESUME}}", setup.Resume,
	)
	return strings.TrimSpace(replacer.Replace(interviewerTemplate))
}

// session is the chat handle handed to the orchestrator.
type session struct {
	generator chatStarter
	chat      chatSession
}

func (s *session) Send(ctx context.Context, message string) (string, error) {
	return s.generator.Send(ctx, s.chat, message)
}
