package assistant

import (
	"context"
	"fmt"
	"strings"

	"stockroom/internal/apperr"
	"stockroom/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

type ReportKind string

const (
	ReportSummary        ReportKind = "summary"
	ReportLowStock       ReportKind = "low_stock"
	ReportRecentActivity ReportKind = "recent_activity"
	ReportCustom         ReportKind = "custom"
)

// ReportHistoryLimit is how many usage events a report prompt includes.
const ReportHistoryLimit = reportHistoryLen

const emptyInventoryReport = "No inventory data available for report generation."

const reportSystemPrompt = "You are an inventory management expert. Provide clear, actionable insights in a professional tone."

var reportAsks = map[ReportKind]struct {
	intro string
	asks  []string
}{
	ReportSummary: {
		intro: "Generate a summary report for the following inventory data:",
		asks: []string{
			"Total number of unique products",
			"Total inventory value",
			"Products with highest and lowest quantities",
			"Any products approaching their minimum stock level",
			"Recent inventory changes and trends",
		},
	},
	ReportLowStock: {
		intro: "Analyze the following inventory data for low stock items:",
		asks: []string{
			"Products below their minimum stock level",
			"Products close to their minimum stock level",
			"Recommended reorder quantities",
			"Priority items that need immediate attention",
			"Usage patterns that might affect stock levels",
		},
	},
	ReportRecentActivity: {
		intro: "Analyze the following inventory data for recent changes:",
		asks: []string{
			"Recently added products",
			"Products with significant quantity changes",
			"Any unusual patterns in inventory levels",
			"Recommendations for inventory management",
			"Usage trends and patterns",
		},
	},
	ReportCustom: {
		intro: "Provide a comprehensive analysis of the following inventory data:",
		asks: []string{
			"Overall inventory health assessment",
			"Key trends and patterns",
			"Risk areas and opportunities",
			"Specific recommendations for improvement",
			"Analysis of usage patterns and inventory changes",
		},
	},
}

func ParseReportKind(s string) (ReportKind, error) {
	kind := ReportKind(strings.ToLower(strings.TrimSpace(s)))
	if kind == "" {
		return ReportSummary, nil
	}
	if _, ok := reportAsks[kind]; !ok {
		return "", apperr.Newf(apperr.CodeValidation, "unknown report type %q", s)
	}
	return kind, nil
}

func reportPrompt(kind ReportKind, items []models.InventoryItem, history []models.UsageEvent) string {
	report := reportAsks[kind]

	var b strings.Builder
	b.WriteString(report.intro)
	b.WriteString("\n")
	b.WriteString(FormatSnapshot(items))
	b.WriteString("\nRecent usage history:\n")
	b.WriteString(FormatHistory(history))
	b.WriteString("\nPlease include:\n")
	for i, ask := range report.asks {
		fmt.Fprintf(&b, "%d. %s\n", i+1, ask)
	}
	return b.String()
}

// Report asks the model for a report of the given kind over the inventory
// and its recent usage. An empty inventory short-circuits without a call.
func (g *Gateway) Report(ctx context.Context, kind ReportKind, items []models.InventoryItem, history []models.UsageEvent) (string, error) {
	if _, ok := reportAsks[kind]; !ok {
		return "", apperr.Newf(apperr.CodeValidation, "unknown report type %q", kind)
	}
	if len(items) == 0 {
		return emptyInventoryReport, nil
	}

	return g.complete(ctx, "report", openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: reportSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: reportPrompt(kind, items, history)},
		},
		Temperature: askTemperature,
		MaxTokens:   askMaxTokens,
	})
}
