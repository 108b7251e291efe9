package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel        = "gemini-2.5-flash"
	defaultMaxLogLength = 200
	provider            = "gemini"
)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// genaiChats adapts *genai.Chats to chatCreator.
type genaiChats struct {
	chats *genai.Chats
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	chat, err := c.chats.Create(ctx, model, config, history)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Generator wraps the Google GenAI client with the two call shapes the
// interview needs: an open chat and a one-shot JSON completion.
type Generator struct {
	chats     chatCreator
	models    contentGenerator
	model     string
	timeout   time.Duration
	maxLogLen int
	logger    *zap.Logger
}

// Options tune a Generator. Zero values fall back to defaults.
type Options struct {
	Model        string
	Timeout      time.Duration
	MaxLogLength int
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey string, opts Options, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(genaiChats{chats: client.Chats}, client.Models, opts, log), nil
}

func newGenerator(chats chatCreator, models contentGenerator, opts Options, log *zap.Logger) *Generator {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Generator{
		chats:     chats,
		models:    models,
		model:     model,
		timeout:   opts.Timeout,
		maxLogLen: maxLogLen,
		logger:    logger.WithCommonFields(log, provider, model),
	}
}

// StartChat opens a chat with the given system instruction and sends the
// primer, returning the live chat and the text of its first reply.
func (g *Generator) StartChat(ctx context.Context, systemInstruction, primer string) (chatSession, string, error) {
	if g == nil || g.chats == nil {
		return nil, "", errors.New("gemini generator is not initialized")
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
	}

	chat, err := g.chats.Create(ctx, g.model, cfg, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create chat: %w", err)
	}
	if chat == nil {
		return nil, "", errors.New("gemini api returned no chat session")
	}

	g.logger.Debug("chat created",
		zap.Int("instruction_length", utf8.RuneCountInString(systemInstruction)),
		zap.String("instruction_preview", utils.TruncateForLog(systemInstruction, g.maxLogLen)),
	)

	reply, err := g.Send(ctx, chat, primer)
	if err != nil {
		return nil, "", err
	}

	return chat, reply, nil
}

// Send delivers one message to an open chat and returns the reply text.
func (g *Generator) Send(ctx context.Context, chat chatSession, message string) (string, error) {
	if chat == nil {
		return "", errors.New("chat session is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	reply, err := responseText(resp)
	if err != nil {
		return "", err
	}

	g.logger.Debug("chat reply",
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.Int("response_length", utf8.RuneCountInString(reply)),
		zap.String("response_preview", utils.TruncateForLog(reply, g.maxLogLen)),
	)

	return reply, nil
}

// GenerateJSON sends a one-shot prompt constrained to the given response schema.
func (g *Generator) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	g.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, g.maxLogLen)),
	)

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	output, err := responseText(resp)
	if err != nil {
		return "", err
	}

	g.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", utils.TruncateForLog(output, g.maxLogLen)),
	)

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Generator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned empty response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}
