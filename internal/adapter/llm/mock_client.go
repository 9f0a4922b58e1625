package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MockClient is a keyword-driven LLMClient for demo mode and tests.
// It only looks at the last user message.
type MockClient struct{}

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

type mockRule struct {
	keywords []string
	reply    string
}

var mockRules = []mockRule{
	{
		keywords: []string{"дорого", "дороговато", "цена", "expensive", "price"},
		reply:    `{"type":"objection","title":"Возражение по цене","content":"Подчеркните ценность: экономия времени и гарантия качества. Предложите рассрочку.","priority":"high"}`,
	},
	{
		keywords: []string{"подумать", "подумаю", "think about it"},
		reply:    `{"type":"objection","title":"Клиент откладывает решение","content":"Уточните, что именно вызывает сомнения, и предложите зафиксировать условия.","priority":"medium"}`,
	},
	{
		keywords: []string{"отлично", "устраивает", "нравится", "great"},
		reply:    `{"type":"upsell","title":"Возможность допродажи","content":"Клиент доволен. Предложите расширенный пакет со скидкой.","priority":"low"}`,
	},
}

// CreateChatCompletion returns a canned suggestion or "null".
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := m.generateMockResponse(req)
	return &ChatCompletionResponse{
		ID:           fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Model:        req.Model,
		Content:      content,
		FinishReason: "stop",
		Usage: &Usage{
			PromptTokens:     m.estimateTokens(req),
			CompletionTokens: len(content) / 4,
			TotalTokens:      m.estimateTokens(req) + len(content)/4,
		},
	}, nil
}

func (m *MockClient) generateMockResponse(req *ChatCompletionRequest) string {
	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			last = strings.ToLower(req.Messages[i].Content)
			break
		}
	}
	for _, rule := range mockRules {
		for _, kw := range rule.keywords {
			if strings.Contains(last, kw) {
				return rule.reply
			}
		}
	}
	return "null"
}

// estimateTokens provides a rough token count estimate.
func (m *MockClient) estimateTokens(req *ChatCompletionRequest) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	return total
}
