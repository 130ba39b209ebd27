package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Client interface {
	Chat(ctx context.Context, messages []Message) (string, []byte, error)
}

// ClientOptions — параметры подключения к провайдеру.
type ClientOptions struct {
	Provider  string
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// NewClient выбирает клиента по имени провайдера.
func NewClient(options ClientOptions) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(options.Provider)) {
	case ProviderGroq:
		return NewGroqClient(options.APIKey, options.BaseURL, options.Model, options.Timeout, options.MaxTokens), nil
	case ProviderGemini:
		return NewGeminiClient(options.APIKey, options.BaseURL, options.Model, options.Timeout, options.MaxTokens), nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", options.Provider)
	}
}

func resolveMaxTokens(value int) int {
	if value > 0 {
		return value
	}

	return defaultMaxTokens
}

// APIError — ответ провайдера с неуспешным HTTP-статусом.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// postJSON отправляет JSON и возвращает тело ответа. Для статусов вне 2xx тело тоже возвращается,
// чтобы его можно было сохранить в журнал запросов.
func postJSON(ctx context.Context, httpClient *http.Client, endpoint string, headers map[string]string, payload interface{}) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}

	request.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	response, err := httpClient.Do(request)
	if err != nil {
		return nil, 0, err
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, response.StatusCode, err
	}

	return raw, response.StatusCode, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
