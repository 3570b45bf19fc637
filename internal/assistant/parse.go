package assistant

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"stockroom/internal/models"
)

var (
	productNameField = fieldPattern("Product Name")
	categoryField    = fieldPattern("Category")
	unitField        = fieldPattern("Unit")
	quantityField    = fieldPattern("Quantity")
)

// fieldPattern matches "Label: value" on its own line, optionally behind a
// list marker or bold markers.
func fieldPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?mi)^[ \t]*(?:[-*•][ \t]*)?(?:\*\*)?` + regexp.QuoteMeta(label) + `:(?:\*\*)?[ \t]*(.*?)[ \t]*$`)
}

func field(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.Trim(strings.TrimSpace(m[1]), "[]*")
}

// ParseSuggestion extracts a product suggestion from free text. All four
// fields must be present and the quantity must be a positive number;
// otherwise no suggestion is returned.
func ParseSuggestion(text string) (*models.ProductSuggestion, bool) {
	name := field(productNameField, text)
	category := field(categoryField, text)
	unit := field(unitField, text)
	rawQty := field(quantityField, text)
	if name == "" || category == "" || unit == "" || rawQty == "" {
		return nil, false
	}

	qty, err := strconv.ParseFloat(rawQty, 64)
	if err != nil || qty <= 0 || math.IsInf(qty, 0) || math.IsNaN(qty) {
		return nil, false
	}

	return &models.ProductSuggestion{
		ProductName: name,
		Category:    category,
		Unit:        unit,
		Quantity:    qty,
	}, true
}
