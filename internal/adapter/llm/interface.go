// Package llm provides an abstraction for chat completion backends.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// LLMClient defines the interface for LLM API operations.
type LLMClient interface {
	// CreateChatCompletion sends a non-streaming chat completion request.
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// Ensure implementations satisfy LLMClient.
var (
	_ LLMClient = (*OpenAIClient)(nil)
	_ LLMClient = (*MockClient)(nil)
)

// ChatMessage is a single chat message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest describes one completion call.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	// JSONObject asks the backend for a JSON object response.
	JSONObject bool `json:"json_object,omitempty"`
}

// ChatCompletionResponse is the first choice of a completion.
type ChatCompletionResponse struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Roles used in chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrTimeout is returned when the backend did not answer in time.
var ErrTimeout = fmt.Errorf("llm request timed out: %w", context.DeadlineExceeded)

// ErrEmptyCompletion is returned when the backend answered without choices.
var ErrEmptyCompletion = errors.New("llm returned no choices")

// ServiceError is a non-success response from the backend.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("LLM API error [%d]: %s", e.StatusCode, e.Message)
}
