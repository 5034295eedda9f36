// Package openai implements the llm.Dialect for OpenAI-compatible
// /chat/completions endpoints. Importing it registers the "openai" dialect.
package openai

import (
	"encoding/json"
	"fmt"

	"github.com/kbukum/dictation/llm"
)

// DialectName is the registered dialect name.
const DialectName = "openai"

func init() {
	llm.RegisterDialect(DialectName, &Dialect{})
}

// Dialect maps llm types to the OpenAI chat-completion format.
type Dialect struct{}

// Name returns "openai".
func (d *Dialect) Name() string { return DialectName }

// ChatPath returns "/chat/completions".
func (d *Dialect) ChatPath() string { return "/chat/completions" }

// BuildRequest builds the chat-completion body. SystemPrompt becomes the
// first message.
func (d *Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}
	messages := make([]chatMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: llm.RoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		messages = append(messages, chatMessage(m))
	}
	return &chatRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}, nil
}

// ParseResponse returns the first choice's message content verbatim.
func (d *Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: response has no choices")
	}
	return &llm.CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// ParseError returns error.message from an error body.
func (d *Dialect) ParseError(body []byte) string {
	var resp struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Error == nil {
		return ""
	}
	return resp.Error.Message
}

// --- wire types ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
