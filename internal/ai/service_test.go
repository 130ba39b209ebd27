package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubClient struct {
	content  string
	err      error
	messages []Message
}

func (c *stubClient) Chat(ctx context.Context, messages []Message) (string, []byte, error) {
	c.messages = messages
	return c.content, []byte(c.content), c.err
}

func sampleNarrativeInput() NarrativeInput {
	months := 18
	return NarrativeInput{
		Strategy:         "avalanche",
		Currency:         "USD",
		MonthlySurplus:   900,
		DebtShare:        1,
		ExtraDebtPayment: 900,
		MonthsToDebtFree: &months,
	}
}

// TestNarrateParsesFencedJSON проверяет разбор ответа в code fence и нормализацию шагов.
func TestNarrateParsesFencedJSON(t *testing.T) {
	client := &stubClient{content: "```json\n{\"executive_summary\": \" You can be debt-free in 18 months. \", " +
		"\"tradeoff_summary\": \"Investing later keeps interest low.\", " +
		"\"action_steps\": [\"Automate minimums.\", \"  \", \"Send the extra to the card.\"]}\n```"}

	response, prompt, _, err := NewService(client).Narrate(context.Background(), sampleNarrativeInput())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if response.ExecutiveSummary != "You can be debt-free in 18 months." {
		t.Fatalf("unexpected summary %q", response.ExecutiveSummary)
	}
	if len(response.ActionSteps) != 2 {
		t.Fatalf("expected blank steps dropped, got %v", response.ActionSteps)
	}
	if !strings.Contains(prompt, "\"months_to_debt_free\": 18") {
		t.Fatalf("expected plan numbers in prompt, got %s", prompt)
	}
	if len(client.messages) != 2 || client.messages[0].Role != "system" {
		t.Fatalf("unexpected messages %+v", client.messages)
	}
}

// TestNarrateRejectsInvalidResponse проверяет валидацию ответа модели.
func TestNarrateRejectsInvalidResponse(t *testing.T) {
	cases := map[string]string{
		"no json":         "Sorry, I cannot help with that.",
		"missing summary": `{"executive_summary": "", "action_steps": ["a", "b"]}`,
		"too few steps":   `{"executive_summary": "ok", "action_steps": ["only one"]}`,
		"guaranteed":      `{"executive_summary": "Investing gives a guaranteed return of 7%.", "action_steps": ["a", "b"]}`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := NewService(&stubClient{content: content}).Narrate(context.Background(), sampleNarrativeInput())
			if err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

// TestNarratePropagatesClientError проверяет, что ошибка клиента возвращается вместе с промптом.
func TestNarratePropagatesClientError(t *testing.T) {
	clientErr := errors.New("timeout")
	_, prompt, _, err := NewService(&stubClient{err: clientErr}).Narrate(context.Background(), sampleNarrativeInput())
	if !errors.Is(err, clientErr) {
		t.Fatalf("expected client error, got %v", err)
	}
	if prompt == "" {
		t.Fatal("expected prompt for request log")
	}
}
