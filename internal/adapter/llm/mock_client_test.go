package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_Keywords(t *testing.T) {
	tests := []struct {
		name     string
		last     string
		contains string
	}{
		{"price objection", "КЛИЕНТ: Это слишком дорого для нас", `"type":"objection"`},
		{"postpone", "КЛИЕНТ: Мне надо подумать", `"type":"objection"`},
		{"satisfied", "КЛИЕНТ: Отлично, нас всё устраивает", `"type":"upsell"`},
		{"nothing", "КЛИЕНТ: Добрый день", "null"},
	}

	m := NewMockClient()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := m.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
				Model: "mock",
				Messages: []ChatMessage{
					{Role: RoleSystem, Content: "sys"},
					{Role: RoleUser, Content: "КЛИЕНТ: дорого было в прошлый раз"},
					{Role: RoleUser, Content: tt.last},
				},
			})
			require.NoError(t, err)
			assert.Contains(t, resp.Content, tt.contains)
		})
	}
}

func TestMockClient_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockClient().CreateChatCompletion(ctx, &ChatCompletionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLLMClient_Mode(t *testing.T) {
	_, ok := NewLLMClient(ModeMock, "", "", 0).(*MockClient)
	assert.True(t, ok)

	_, ok = NewLLMClient("", "http://localhost", "k", 0).(*OpenAIClient)
	assert.True(t, ok)
}
