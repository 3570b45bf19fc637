package database

import (
	"database/sql"
	"fmt"

	"stockroom/internal/models"
)

const DefaultHistoryLimit = 5

// UsageHistory returns the owner's most recent usage events, newest first,
// optionally limited to one product name.
func UsageHistory(db *sql.DB, userID int, productName string, limit int) ([]models.UsageEvent, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT h.id, h.user_id, h.product_id, i.product_name, h.quantity_used, h.usage_date, h.operation_type
		FROM product_usage_history h
		JOIN inventory i ON h.product_id = i.id
		WHERE h.user_id = ?
	`
	args := []any{userID}
	if productName != "" {
		query += ` AND i.product_name = ?`
		args = append(args, productName)
	}
	query += ` ORDER BY h.usage_date DESC, h.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage history: %w", err)
	}
	defer rows.Close()

	events := []models.UsageEvent{}
	for rows.Next() {
		var event models.UsageEvent
		var op string
		err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.ProductID,
			&event.ProductName,
			&event.QuantityDelta,
			&event.Timestamp,
			&op,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage event: %w", err)
		}
		event.OperationType = models.OperationType(op)
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage history: %w", err)
	}

	return events, nil
}
