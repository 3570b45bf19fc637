package database

import (
	"database/sql"
	"fmt"
	"time"
)

const recentActivityWindow = 7 * 24 * time.Hour

type InventoryStats struct {
	TotalItems      int `json:"total_items"`
	TotalCategories int `json:"total_categories"`
	LowStockItems   int `json:"low_stock_items"`
	RecentEvents    int `json:"recent_events"`
}

func GetInventoryStats(db *sql.DB, userID int) (*InventoryStats, error) {
	stats := &InventoryStats{}

	err := db.QueryRow("SELECT COUNT(*) FROM inventory WHERE user_id = ?", userID).Scan(&stats.TotalItems)
	if err != nil {
		return nil, fmt.Errorf("failed to get item count: %w", err)
	}

	err = db.QueryRow("SELECT COUNT(DISTINCT category) FROM inventory WHERE user_id = ?", userID).Scan(&stats.TotalCategories)
	if err != nil {
		return nil, fmt.Errorf("failed to get category count: %w", err)
	}

	err = db.QueryRow(`
		SELECT COUNT(*) FROM inventory
		WHERE user_id = ? AND min_stock_level IS NOT NULL AND quantity <= min_stock_level
	`, userID).Scan(&stats.LowStockItems)
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock count: %w", err)
	}

	since := time.Now().UTC().Add(-recentActivityWindow)
	err = db.QueryRow("SELECT COUNT(*) FROM product_usage_history WHERE user_id = ? AND usage_date >= ?", userID, since).Scan(&stats.RecentEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent activity count: %w", err)
	}

	return stats, nil
}
