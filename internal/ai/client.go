package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/smartmed/smartmed-api/internal/config"
)

// Generator is the boundary to the generative-text collaborator.
// Implementations must tolerate and surface malformed upstream output
// as errors rather than panicking.
type Generator interface {
	GenerateDraft(ctx context.Context, prompt string) (*ReportDraft, error)
}

// ReportDraft is the structured content the collaborator must return:
// six required string fields. UrgencyLevel is requested as one of
// LOW/MEDIUM/HIGH but not enforced upstream; callers normalize it.
type ReportDraft struct {
	Summary          string `json:"summary"`
	DetailedAnalysis string `json:"detailedAnalysis"`
	Diagnosis        string `json:"diagnosis"`
	Recommendations  string `json:"recommendations"`
	UrgencyLevel     string `json:"urgencyLevel"`
	AdditionalNotes  string `json:"additionalNotes"`
}

var (
	ErrEmptyResponse     = errors.New("empty response from model")
	ErrMalformedResponse = errors.New("malformed response from model")
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, cfg config.AIConfig) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: cfg.Model}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// GenerateDraft submits the prompt and decodes the JSON payload of the
// first candidate. The JSON shape is demanded by the prompt, not
// enforced upstream; ParseDraft tolerates fences and surrounding
// prose. Every invocation is one upstream call; there is no retry or
// caching here.
func (c *GeminiClient) GenerateDraft(ctx context.Context, prompt string) (*ReportDraft, error) {
	model := c.client.GenerativeModel(c.model)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, ErrMalformedResponse
	}

	return ParseDraft(string(text))
}

// ParseDraft extracts and decodes a ReportDraft from raw model output,
// tolerating code fences or prose around the JSON object.
func ParseDraft(raw string) (*ReportDraft, error) {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return nil, ErrEmptyResponse
	}

	var draft ReportDraft
	if err := json.Unmarshal([]byte(jsonStr), &draft); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &draft, nil
}

// extractJSON pulls the first '{' .. last '}' span out of the given
// string, handling responses wrapped in code blocks or text.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}
