package assistant

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"stockroom/internal/models"
	"stockroom/internal/quantity"
)

const timeLayout = "2006-01-02 15:04"

// FormatSnapshot renders items as an aligned text table for a prompt.
func FormatSnapshot(items []models.InventoryItem) string {
	if len(items) == 0 {
		return "(inventory is empty)\n"
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "product_name\tcategory\tquantity\tunit\tmin_stock_level\tdate_added\tlast_used")
	for _, item := range items {
		minStock := "-"
		if item.MinStockLevel != nil {
			minStock = quantity.Format(*item.MinStockLevel)
		}
		lastUsed := "-"
		if item.LastUsed != nil {
			lastUsed = item.LastUsed.Format(timeLayout)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			item.ProductName,
			item.Category,
			quantity.Format(item.Quantity),
			item.Unit,
			minStock,
			item.DateAdded.Format(timeLayout),
			lastUsed)
	}
	w.Flush()
	return b.String()
}

// FormatHistory renders usage events one per line, newest first.
func FormatHistory(events []models.UsageEvent) string {
	if len(events) == 0 {
		return "(no recent usage)\n"
	}

	var b strings.Builder
	for _, e := range events {
		fmt.Fprintf(&b, "%s %s %s %s\n",
			e.Timestamp.Format(timeLayout),
			e.OperationType,
			quantity.Format(e.QuantityDelta),
			e.ProductName)
	}
	return b.String()
}
