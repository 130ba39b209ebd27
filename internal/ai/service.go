package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	maxSummaryLength = 2000
	maxStepLength    = 300
	minActionSteps   = 2
	maxActionSteps   = 8
)

type Service struct {
	client Client
}

// NewService создает сервис работы с AI-клиентом.
func NewService(client Client) *Service {
	return &Service{client: client}
}

// Narrate просит модель переписать отчет по плану простым языком и валидирует ответ.
// Возвращает также промпт и сырой ответ API для журнала запросов.
func (s *Service) Narrate(ctx context.Context, input NarrativeInput) (NarrativeResponse, string, []byte, error) {
	prompt, err := buildNarrativePrompt(input)
	if err != nil {
		return NarrativeResponse{}, "", nil, err
	}

	messages := []Message{
		{Role: "system", Content: "You are a careful personal finance assistant. Respond with JSON only, without extra text. Never invent numbers."},
		{Role: "user", Content: prompt},
	}

	content, raw, err := s.client.Chat(ctx, messages)
	if err != nil {
		return NarrativeResponse{}, prompt, raw, err
	}

	var response NarrativeResponse
	if err := parseJSON(content, &response); err != nil {
		return NarrativeResponse{}, prompt, raw, err
	}

	normalizeNarrativeResponse(&response)
	if err := validateNarrativeResponse(response); err != nil {
		return NarrativeResponse{}, prompt, raw, err
	}

	return response, prompt, raw, nil
}

func buildNarrativePrompt(input NarrativeInput) (string, error) {
	payload, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`Explain a debt payoff and investing plan to the user as JSON.

Requirements:
- Output JSON only, no code fences, no extra text.
- Use only the numbers from the input. Do not round months, do not invent returns.
- A null months_to_debt_free means the debt is not paid off within the planning horizon.
- Investment values are estimates, never describe them as guaranteed.
- Schema:
{
  "executive_summary": string,
  "tradeoff_summary": string,
  "action_steps": [string]
}
- executive_summary: 3-5 sentences.
- tradeoff_summary: 2-4 sentences comparing the scenarios.
- Provide 3-6 action_steps, each one sentence.

Input:
%s`, string(payload))

	return prompt, nil
}

func parseJSON(input string, target interface{}) error {
	payload := extractJSON(input)
	if payload == "" {
		return errors.New("ai response does not contain json")
	}

	return json.Unmarshal([]byte(payload), target)
}

func extractJSON(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimPrefix(strings.TrimSpace(trimmed), "json")
		trimmed = strings.TrimSpace(trimmed)
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}

	return trimmed[start : end+1]
}

func normalizeNarrativeResponse(response *NarrativeResponse) {
	response.ExecutiveSummary = strings.TrimSpace(response.ExecutiveSummary)
	response.TradeoffSummary = strings.TrimSpace(response.TradeoffSummary)

	steps := make([]string, 0, len(response.ActionSteps))
	for _, step := range response.ActionSteps {
		if trimmed := strings.TrimSpace(step); trimmed != "" {
			steps = append(steps, trimmed)
		}
	}
	response.ActionSteps = steps
}

func validateNarrativeResponse(response NarrativeResponse) error {
	if response.ExecutiveSummary == "" {
		return errors.New("executive summary is required")
	}
	if len(response.ExecutiveSummary) > maxSummaryLength {
		return errors.New("executive summary is too long")
	}
	if len(response.TradeoffSummary) > maxSummaryLength {
		return errors.New("tradeoff summary is too long")
	}

	if len(response.ActionSteps) < minActionSteps {
		return errors.New("not enough action steps")
	}
	if len(response.ActionSteps) > maxActionSteps {
		return errors.New("too many action steps")
	}
	for _, step := range response.ActionSteps {
		if len(step) > maxStepLength {
			return errors.New("action step is too long")
		}
	}

	lowered := strings.ToLower(response.ExecutiveSummary + " " + response.TradeoffSummary)
	if strings.Contains(lowered, "guaranteed return") && !strings.Contains(lowered, "not guaranteed") {
		return errors.New("narrative presents investment returns as guaranteed")
	}

	return nil
}
