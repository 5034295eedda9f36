package llm

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// CompletionRequest is the universal input for all providers.
type CompletionRequest struct {
	// Model overrides the adapter's default model.
	Model string `json:"model,omitempty" yaml:"model"`
	// Messages is the conversation history.
	Messages []Message `json:"messages" yaml:"messages"`
	// SystemPrompt is prepended as a system message.
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt"`
	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	// Nil uses the adapter's default.
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature"`
	// MaxTokens limits the response length. 0 means provider default.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens"`
}

// CompletionResponse is the universal output from all providers.
type CompletionResponse struct {
	// Content is the generated text.
	Content string `json:"content"`
	// Model is the model that produced the response.
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
