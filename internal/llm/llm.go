// Package llm enriches bank questions with a suggested formulation and a
// short rationale, using an OpenAI-compatible API.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/civique/internal/model"
)

// Enrichment holds the LLM-generated additions for one question.
type Enrichment struct {
	SuggestedFormulation string `json:"suggested_formulation"`
	Rationale            string `json:"rationale"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the API is reachable with the configured model.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "ping"},
		},
		MaxTokens: 1,
	})
	if err != nil {
		return fmt.Errorf("LLM ping: %w", err)
	}
	return nil
}

// Enrich asks the LLM for a model formulation and rationale for a question.
func (c *Client) Enrich(ctx context.Context, q model.Question) (*Enrichment, error) {
	systemPrompt := buildEnrichSystemPrompt(q)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: q.Text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := sanitize(resp.Choices[0].Message.Content)
	slog.Debug("LLM response", "question", q.ID, "raw", raw)

	var enr Enrichment
	if err := json.Unmarshal([]byte(raw), &enr); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	if strings.TrimSpace(enr.SuggestedFormulation) == "" {
		return nil, fmt.Errorf("LLM returned an empty formulation (raw: %s)", raw)
	}

	return &enr, nil
}

func buildEnrichSystemPrompt(q model.Question) string {
	var sb strings.Builder
	sb.WriteString("You are a French language coach preparing a candidate for the ")
	sb.WriteString("naturalization interview at the préfecture. The candidate must answer ")
	sb.WriteString("civics questions orally, in clear and natural French.\n\n")
	sb.WriteString("QUESTION: " + q.Text + "\n\n")

	if q.Answer != "" {
		sb.WriteString("EXPECTED ANSWER (factual content):\n" + q.Answer + "\n\n")
	}
	if len(q.KeyPoints) > 0 {
		sb.WriteString("KEY POINTS:\n")
		for _, kp := range q.KeyPoints {
			sb.WriteString("- " + kp + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- Write one complete, well-formed French sentence the candidate could say as a model answer.\n")
	sb.WriteString("- Keep the factual content of the expected answer; do not add facts.\n")
	sb.WriteString("- Then write a one-sentence rationale, in French, explaining why this answer is expected.\n")
	sb.WriteString("\nRespond ONLY with a JSON object:\n")
	sb.WriteString(`{"suggested_formulation": "<model answer in French>", "rationale": "<one sentence in French>"}`)
	sb.WriteString("\n")

	return sb.String()
}

// sanitize strips markdown code fences some models wrap around JSON output.
func sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
