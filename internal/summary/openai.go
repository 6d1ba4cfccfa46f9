package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// OpenAI calls a chat-completions endpoint in JSON mode.
type OpenAI struct {
	cfg    OpenAIConfig
	client *http.Client
}

func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is empty")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1-mini"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAI{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type summaryPayload struct {
	Strengths      []string `json:"strengths"`
	Risks          []string `json:"risks"`
	Recommendation string   `json:"recommendation"`
	Narrative      string   `json:"narrative"`
}

func (o *OpenAI) Summarize(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(chatRequest{
		Model: o.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a recruiting assistant. Return only valid JSON."},
			{Role: "user", Content: buildPrompt(req)},
		},
		Temperature:    0.2,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(o.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(raw))
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}

	var payload summaryPayload
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("parse summary json: %w", err)
	}

	return &Result{
		Recommendation: ParseRecommendation(payload.Recommendation),
		Narrative:      strings.TrimSpace(payload.Narrative),
		Strengths:      capHighlights(payload.Strengths),
		Risks:          capHighlights(payload.Risks),
	}, nil
}

func buildPrompt(req Request) string {
	var feedback strings.Builder
	for _, it := range req.Items {
		fmt.Fprintf(&feedback, "- %s: %s. %s\n", it.ParticipantName, it.Decision, strings.TrimSpace(it.Comment))
	}
	return fmt.Sprintf(`Consolidate interview feedback for the candidate.
Return ONLY valid JSON with the fields:
  "strengths": [strings], "risks": [strings],
  "recommendation": "Hire"|"No Hire"|"Mixed / Need debrief"|"Insufficient data",
  "narrative": string
Language: English.

Candidate: %s
Job: %s
Feedback:
%s`, req.CandidateName, req.JobTitle, feedback.String())
}

// ParseRecommendation accepts display labels and enum values; anything
// else is treated as mixed.
func ParseRecommendation(label string) model.Recommendation {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "hire":
		return model.RecommendationHire
	case "no hire", "no_hire":
		return model.RecommendationNoHire
	case "insufficient data", "insufficient_data":
		return model.RecommendationInsufficientData
	default:
		return model.RecommendationMixed
	}
}
