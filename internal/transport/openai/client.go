package openai

import (
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ClientConfig holds connection settings shared by the embedder and the chat client.
type ClientConfig struct {
	APIKey  string
	BaseURL string
}

func newClient(cfg ClientConfig) *openai.Client {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(c)
}

// apiError turns a client error into a readable message wrapping sentinel.
func apiError(op string, err, sentinel error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := detail(reqErr.Body)
		if msg == "" {
			msg = string(reqErr.Body)
		}
		return fmt.Errorf("%s: status %d: %s: %w", op, reqErr.HTTPStatusCode, msg, sentinel)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: status %d: %s: %w", op, apiErr.HTTPStatusCode, apiErr.Message, sentinel)
	}
	return fmt.Errorf("%s: %w: %w", op, sentinel, err)
}

// detail reads the "detail" field some OpenAI-compatible providers return.
func detail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		return parsed.Detail
	}
	return ""
}
