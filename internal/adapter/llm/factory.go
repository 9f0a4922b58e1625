package llm

import (
	"log"
	"time"
)

// ModeMock selects the mock client.
const ModeMock = "MOCK"

// NewLLMClient returns a MockClient when mode is MOCK, otherwise an OpenAIClient.
func NewLLMClient(mode, baseURL, apiKey string, timeout time.Duration) LLMClient {
	if mode == ModeMock {
		log.Println("CALLASSIST_MODE=MOCK detected, using mock LLM client")
		return NewMockClient()
	}
	if apiKey == "" {
		log.Println("WARN: LLM_API_KEY is empty, suggestion requests will likely be rejected")
	}
	return NewOpenAIClient(baseURL, apiKey, timeout)
}
