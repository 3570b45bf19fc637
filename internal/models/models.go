package models

import (
	"strings"
	"time"
)

type OperationType string

const (
	OperationAdd    OperationType = "add"
	OperationRemove OperationType = "remove"
)

// Units accepted by the product forms and the vision normalizer.
var Units = []string{"kg", "g", "L", "ml", "pcs", "box", "pack"}

const DefaultUnit = "pcs"

// NormalizeUnit returns u when it is one of Units and DefaultUnit otherwise.
func NormalizeUnit(u string) string {
	u = strings.TrimSpace(u)
	for _, known := range Units {
		if u == known {
			return u
		}
	}
	return DefaultUnit
}

// DefaultCategories seed the category registry.
var DefaultCategories = []string{
	"Fresh Produce",
	"Meat & Eggs",
	"Grocery",
	"Household Supplies",
	"Dairy & Alternatives",
	"Beverages",
	"Frozen Foods",
	"Bakery",
}

type User struct {
	ID           int       `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type Category struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type InventoryItem struct {
	ID            int        `json:"id" db:"id"`
	UserID        int        `json:"user_id" db:"user_id"`
	ProductName   string     `json:"product_name" db:"product_name"`
	Category      string     `json:"category" db:"category"`
	Quantity      float64    `json:"quantity" db:"quantity"`
	Unit          string     `json:"unit" db:"unit"`
	DateAdded     time.Time  `json:"date_added" db:"date_added"`
	LastUsed      *time.Time `json:"last_used,omitempty" db:"last_used"`
	ImagePath     *string    `json:"image_path,omitempty" db:"image_path"`
	MinStockLevel *float64   `json:"min_stock_level,omitempty" db:"min_stock_level"`
}

// IsLowStock reports whether the item is at or below its threshold. Items
// without a threshold are never low.
func (i InventoryItem) IsLowStock() bool {
	return i.MinStockLevel != nil && i.Quantity <= *i.MinStockLevel
}

type UsageEvent struct {
	ID            int           `json:"id" db:"id"`
	UserID        int           `json:"user_id" db:"user_id"`
	ProductID     int           `json:"product_id" db:"product_id"`
	ProductName   string        `json:"product_name" db:"product_name"`
	QuantityDelta float64       `json:"quantity_delta" db:"quantity_used"`
	Timestamp     time.Time     `json:"timestamp" db:"usage_date"`
	OperationType OperationType `json:"operation_type" db:"operation_type"`
}

type Session struct {
	ID        string    `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ProductSuggestion is a structured product proposal coming from one of the
// AI gateways.
type ProductSuggestion struct {
	ProductName string  `json:"product_name"`
	Category    string  `json:"category"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	Notes       string  `json:"notes,omitempty"`
}

// VisionResult holds the raw detections for one image.
type VisionResult struct {
	Labels  []string `json:"labels"`
	Texts   []string `json:"texts"`
	Objects []string `json:"objects"`
}

type ImageAnalysis struct {
	Vision     VisionResult      `json:"vision_results"`
	Suggestion ProductSuggestion `json:"enhanced_results"`
}
