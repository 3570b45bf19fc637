// Package vision identifies a product from a photo: Cloud Vision supplies
// labels, text and objects, and a chat model turns those into a product
// suggestion.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"stockroom/internal/apperr"
	"stockroom/internal/assistant"
	"stockroom/internal/logger"
	"stockroom/internal/metrics"
	"stockroom/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

const (
	fallbackProductName = "Unknown Product"
	fallbackCategory    = "Grocery"
	fallbackQuantity    = 1.0
	fallbackNotes       = "Could not parse detailed analysis"

	suggestTemperature = 0.3
	suggestMaxTokens   = 1000
)

// Annotator turns image bytes into raw detections.
type Annotator interface {
	Annotate(ctx context.Context, image []byte) (*models.VisionResult, error)
}

type Gateway struct {
	annotator Annotator
	chat      assistant.ChatCompleter
	model     string
	metrics   *metrics.Collector
}

// NewGateway wires an annotator and an optional chat client. Without a chat
// client every analysis gets the fallback suggestion.
func NewGateway(annotator Annotator, chat assistant.ChatCompleter, model string, m *metrics.Collector) *Gateway {
	if model == "" {
		model = assistant.DefaultModel
	}
	return &Gateway{annotator: annotator, chat: chat, model: model, metrics: m}
}

func (g *Gateway) Enabled() bool {
	return g != nil && g.annotator != nil
}

// Analyze detects what is in image and proposes a product for it.
func (g *Gateway) Analyze(ctx context.Context, image []byte) (*models.ImageAnalysis, error) {
	if !g.Enabled() {
		return nil, apperr.New(apperr.CodeGateway, "error processing request: vision is not configured")
	}
	if len(image) == 0 {
		return nil, apperr.New(apperr.CodeValidation, "image is empty")
	}

	started := time.Now()
	detections, err := g.annotator.Annotate(ctx, image)
	g.metrics.GatewayCall("vision", started, err)
	if err != nil {
		logger.Warn("Image annotation failed", "error", err)
		return nil, apperr.Wrap(apperr.CodeGateway, err, fmt.Sprintf("error processing request: %v", err))
	}

	return &models.ImageAnalysis{Vision: *detections, Suggestion: g.suggest(ctx, *detections)}, nil
}

// suggest asks the chat model to name the product. Without a model, or when
// the call fails, the suggestion is built from the detections alone.
func (g *Gateway) suggest(ctx context.Context, detections models.VisionResult) models.ProductSuggestion {
	if g.chat == nil {
		return Fallback(detections)
	}

	started := time.Now()
	content, err := assistant.Complete(ctx, g.chat, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: suggestSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: suggestPrompt(detections)},
		},
		Temperature:    suggestTemperature,
		MaxTokens:      suggestMaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	g.metrics.GatewayCall("vision_suggest", started, err)
	if err != nil {
		logger.Warn("Product suggestion failed, using detections", "error", err)
		return Fallback(detections)
	}

	return ParseAnalysis(content, detections)
}

const suggestSystemPrompt = "You are an expert in product identification and inventory management. " +
	"Provide accurate and detailed analysis. Feel free to suggest new categories if they better describe the product."

func suggestPrompt(d models.VisionResult) string {
	return fmt.Sprintf(`Analyze the following product image detection results and identify the product.

Vision API Results:
- Labels: %s
- Detected Text: %s
- Objects: %s

Provide:
1. product_name: specific and accurate name
2. category: the most appropriate category; you may create a new one
3. unit: must be one of: %s
4. quantity: estimated typical quantity as a number
5. notes: brand, size, packaging, storage requirements, and why you chose this category and unit

Respond with a JSON object with exactly these keys: product_name, category, unit, quantity, notes.`,
		strings.Join(d.Labels, ", "),
		strings.Join(d.Texts, ", "),
		strings.Join(d.Objects, ", "),
		strings.Join(models.Units, ", "))
}

type rawSuggestion struct {
	ProductName string          `json:"product_name"`
	Category    string          `json:"category"`
	Unit        string          `json:"unit"`
	Quantity    json.RawMessage `json:"quantity"`
	Notes       string          `json:"notes"`
}

// ParseAnalysis decodes the model's JSON answer. Units outside the known set
// become pcs and a quantity that is not a positive number becomes 1. Output
// that is not JSON yields the fallback suggestion.
func ParseAnalysis(content string, detections models.VisionResult) models.ProductSuggestion {
	var raw rawSuggestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return Fallback(detections)
	}

	fallback := Fallback(detections)
	s := models.ProductSuggestion{
		ProductName: strings.TrimSpace(raw.ProductName),
		Category:    strings.TrimSpace(raw.Category),
		Unit:        models.NormalizeUnit(raw.Unit),
		Quantity:    parseQuantity(raw.Quantity),
		Notes:       strings.TrimSpace(raw.Notes),
	}
	if s.ProductName == "" {
		s.ProductName = fallback.ProductName
	}
	if s.Category == "" {
		s.Category = fallback.Category
	}
	return s
}

func parseQuantity(raw json.RawMessage) float64 {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fallbackQuantity
	}

	var q float64
	switch t := v.(type) {
	case float64:
		q = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return fallbackQuantity
		}
		q = parsed
	default:
		return fallbackQuantity
	}

	if q <= 0 || math.IsInf(q, 0) || math.IsNaN(q) {
		return fallbackQuantity
	}
	return q
}

// Fallback is the suggestion used when the model's answer cannot be read.
func Fallback(detections models.VisionResult) models.ProductSuggestion {
	name := fallbackProductName
	if len(detections.Labels) > 0 && strings.TrimSpace(detections.Labels[0]) != "" {
		name = detections.Labels[0]
	}
	return models.ProductSuggestion{
		ProductName: name,
		Category:    fallbackCategory,
		Unit:        models.DefaultUnit,
		Quantity:    fallbackQuantity,
		Notes:       fallbackNotes,
	}
}
