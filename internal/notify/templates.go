package notify

import (
	"fmt"
	"html"
	"strings"

	"stockroom/internal/models"
	"stockroom/internal/quantity"
)

func lowStockSubject(items []models.InventoryItem) string {
	if len(items) == 1 {
		return fmt.Sprintf("Low stock: %s", items[0].ProductName)
	}
	return fmt.Sprintf("Low stock: %d items", len(items))
}

func threshold(item models.InventoryItem) string {
	if item.MinStockLevel == nil {
		return "-"
	}
	return quantity.Format(*item.MinStockLevel)
}

func lowStockText(owner string, items []models.InventoryItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello,\n\nThe following items in %s's inventory are at or below their minimum stock level:\n\n", owner)
	for _, item := range items {
		fmt.Fprintf(&b, "- %s (%s): %s %s, minimum %s\n",
			item.ProductName, item.Category, quantity.Format(item.Quantity), item.Unit, threshold(item))
	}
	b.WriteString("\nStockroom\n")
	return b.String()
}

func lowStockHTML(owner string, items []models.InventoryItem) string {
	var rows strings.Builder
	for _, item := range items {
		fmt.Fprintf(&rows, `
            <tr>
                <td>%s</td>
                <td>%s</td>
                <td class="qty">%s %s</td>
                <td class="qty">%s</td>
            </tr>`,
			html.EscapeString(item.ProductName),
			html.EscapeString(item.Category),
			quantity.Format(item.Quantity),
			html.EscapeString(item.Unit),
			threshold(item))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Low stock alert</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        table { width: 100%%; border-collapse: collapse; }
        th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid #e5e5e5; }
        .qty { text-align: right; }
    </style>
</head>
<body>
    <h2>Low stock in %s's inventory</h2>
    <table>
        <tr><th>Product</th><th>Category</th><th class="qty">Quantity</th><th class="qty">Minimum</th></tr>%s
    </table>
</body>
</html>`, html.EscapeString(owner), rows.String())
}
