package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	_ "embed"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

//go:embed prompts/feedback.md
var feedbackTemplate string

//go:embed prompts/feedback.schema.json
var feedbackJSONSchema string

var feedbackSchemaLoader = gojsonschema.NewStringLoader(feedbackJSONSchema)

// feedbackResponseSchema constrains the model output to the Feedback shape.
var feedbackResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"strengths": {
			Type:     genai.TypeArray,
			Items:    &genai.Schema{Type: genai.TypeString},
			MinItems: genai.Ptr[int64](3),
		},
		"improvements": {
			Type:     genai.TypeArray,
			Items:    &genai.Schema{Type: genai.TypeString},
			MinItems: genai.Ptr[int64](3),
		},
		"summary": {Type: genai.TypeString},
		"overallScore": {
			Type:    genai.TypeNumber,
			Minimum: genai.Ptr[float64](1),
			Maximum: genai.Ptr[float64](100),
		},
	},
	Required:         []string{"strengths", "improvements", "summary", "overallScore"},
	PropertyOrdering: []string{"strengths", "improvements", "summary", "overallScore"},
}

// FieldError is a single schema violation in a feedback response.
type FieldError struct {
	Field   string
	Message string
}

// SchemaError reports a feedback response that does not match the expected structure.
type SchemaError struct {
	Errors []FieldError
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "feedback does not match schema: " + strings.Join(parts, "; ")
}

// RequestFeedback asks the model to evaluate the transcript and parses the structured result.
func (i *Interviewer) RequestFeedback(ctx context.Context, transcript string) (*ai.Feedback, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("transcript must not be empty")
	}

	raw, err := i.generator.GenerateJSON(ctx, buildFeedbackPrompt(transcript), feedbackResponseSchema)
	if err != nil {
		return nil, err
	}

	feedback, err := parseFeedback(raw)
	if err != nil {
		return nil, err
	}

	i.logger.Debug("feedback parsed",
		zap.Int("score", feedback.OverallScore),
		zap.Int("strengths", len(feedback.Strengths)),
		zap.Int("improvements", len(feedback.Improvements)),
	)

	return feedback, nil
}

func buildFeedbackPrompt(transcript string) string {
	return strings.ReplaceAll(feedbackTemplate, "{{TRANSCRIPT}}", transcript)
}

func parseFeedback(raw string) (*ai.Feedback, error) {
	cleaned := extractJSON(raw)

	result, err := gojsonschema.Validate(feedbackSchemaLoader, gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	if !result.Valid() {
		schemaErr := &SchemaError{Errors: make([]FieldError, 0, len(result.Errors()))}
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			schemaErr.Errors = append(schemaErr.Errors, FieldError{Field: field, Message: desc.Description()})
		}
		return nil, schemaErr
	}

	var data struct {
		Strengths    []string `json:"strengths"`
		Improvements []string `json:"improvements"`
		Summary      string   `json:"summary"`
		OverallScore float64  `json:"overallScore"`
	}
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	return &ai.Feedback{
		Strengths:    trimAll(data.Strengths),
		Improvements: trimAll(data.Improvements),
		Summary:      strings.TrimSpace(data.Summary),
		OverallScore: int(math.Round(data.OverallScore)),
	}, nil
}

// extractJSON strips markdown code fences the model sometimes wraps around JSON.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.TrimSpace(item))
	}
	return out
}
