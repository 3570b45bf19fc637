// Package assistant talks to the chat completion API on behalf of the
// inventory: free-form questions, structured product suggestions and
// generated reports.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockroom/internal/apperr"
	"stockroom/internal/logger"
	"stockroom/internal/metrics"
	"stockroom/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

// ChatCompleter is the part of the OpenAI client the gateways use.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

const (
	DefaultModel     = openai.GPT3Dot5Turbo
	askTemperature   = 0.7
	askMaxTokens     = 500
	reportHistoryLen = 20
)

var errNotConfigured = errors.New("assistant is not configured")

type Gateway struct {
	client  ChatCompleter
	model   string
	metrics *metrics.Collector
}

// NewClient builds the OpenAI client used in production.
func NewClient(apiKey string) *openai.Client {
	return openai.NewClient(apiKey)
}

// NewGateway returns a gateway over client. A nil client yields a gateway
// whose calls fail with a gateway error.
func NewGateway(client ChatCompleter, model string, m *metrics.Collector) *Gateway {
	if model == "" {
		model = DefaultModel
	}
	return &Gateway{client: client, model: model, metrics: m}
}

func (g *Gateway) Enabled() bool {
	return g != nil && g.client != nil
}

// Reply is the assistant's answer. Suggestion is set only when the text
// carried all four product fields.
type Reply struct {
	Text       string                    `json:"text"`
	Suggestion *models.ProductSuggestion `json:"suggestion,omitempty"`
}

// Ask sends instruction together with a snapshot of the caller's inventory.
func (g *Gateway) Ask(ctx context.Context, instruction string, items []models.InventoryItem, categories []string) (*Reply, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, apperr.New(apperr.CodeValidation, "question is required")
	}

	text, err := g.complete(ctx, "assistant", openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(items, categories)},
			{Role: openai.ChatMessageRoleUser, Content: instruction},
		},
		Temperature: askTemperature,
		MaxTokens:   askMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	reply := &Reply{Text: text}
	if suggestion, ok := ParseSuggestion(text); ok {
		reply.Suggestion = suggestion
	}
	return reply, nil
}

// Complete runs one chat completion and returns the first choice's text.
// Faults come back as gateway errors.
func Complete(ctx context.Context, client ChatCompleter, request openai.ChatCompletionRequest) (string, error) {
	if client == nil {
		return "", gatewayError(errNotConfigured)
	}

	resp, err := client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", gatewayError(err)
	}
	if len(resp.Choices) == 0 {
		return "", gatewayError(errors.New("empty response"))
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *Gateway) complete(ctx context.Context, name string, request openai.ChatCompletionRequest) (string, error) {
	started := time.Now()
	text, err := Complete(ctx, g.client, request)
	g.metrics.GatewayCall(name, started, err)
	if err != nil {
		logger.Warn("Chat completion failed", "gateway", name, "error", err)
	}
	return text, err
}

func gatewayError(err error) error {
	return apperr.Wrap(apperr.CodeGateway, err, fmt.Sprintf("error processing request: %v", err))
}

func systemPrompt(items []models.InventoryItem, categories []string) string {
	var b strings.Builder
	b.WriteString("You are an inventory management assistant. You have access to the following inventory data:\n")
	b.WriteString(FormatSnapshot(items))
	b.WriteString(`
You can:
1. Add new products to the inventory
2. Update quantities of existing products
3. Check inventory levels
4. Generate reports
5. Suggest new categories if needed

When adding or updating products, provide the information in this format:
- Product Name: [name]
- Category: [category]
- Unit: [unit]
- Quantity: [quantity]

`)
	fmt.Fprintf(&b, "Available categories: %s\n", strings.Join(categories, ", "))
	fmt.Fprintf(&b, "Available units: %s", strings.Join(models.Units, ", "))
	return b.String()
}
