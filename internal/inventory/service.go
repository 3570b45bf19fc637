// Package inventory applies the stock rules on top of the database layer:
// additions merge into existing items, usage never drives a quantity below
// zero, and every quantity change lands in the usage ledger.
package inventory

import (
	"context"
	"database/sql"
	"strings"

	"stockroom/internal/apperr"
	"stockroom/internal/database"
	"stockroom/internal/logger"
	"stockroom/internal/metrics"
	"stockroom/internal/models"
	"stockroom/internal/quantity"
)

// LowStockNotifier is told when an operation moves items to or below their
// threshold.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, owner string, items []models.InventoryItem) error
}

type Service struct {
	db       *sql.DB
	notifier LowStockNotifier
	metrics  *metrics.Collector
	images   imageStore
}

type Option func(*Service)

func WithNotifier(n LowStockNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(s *Service) { s.metrics = c }
}

// WithImageDir sets where uploaded product images are written and the largest
// accepted upload.
func WithImageDir(dir string, maxBytes int64) Option {
	return func(s *Service) { s.images = imageStore{dir: dir, maxBytes: maxBytes} }
}

func NewService(db *sql.DB, opts ...Option) *Service {
	s := &Service{
		db:     db,
		images: imageStore{dir: "images", maxBytes: 10 << 20},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ProductDetails struct {
	ProductName   string   `json:"product_name" validate:"required,max=100"`
	Category      string   `json:"category" validate:"required,max=50"`
	Quantity      float64  `json:"quantity" validate:"gt=0"`
	Unit          string   `json:"unit" validate:"required,oneof=kg g L ml pcs box pack"`
	ImagePath     *string  `json:"image_path,omitempty"`
	MinStockLevel *float64 `json:"min_stock_level,omitempty" validate:"omitempty,gte=0"`
}

func (d *ProductDetails) normalize() {
	d.ProductName = strings.TrimSpace(d.ProductName)
	d.Category = strings.TrimSpace(d.Category)
	d.Unit = strings.TrimSpace(d.Unit)
}

// EditRow is one row of a bulk edit. Quantity overwrites the stored value.
type EditRow struct {
	ProductName   string   `json:"product_name" validate:"required"`
	Category      string   `json:"category,omitempty"`
	Quantity      *float64 `json:"quantity" validate:"required,gte=0"`
	MinStockLevel *float64 `json:"min_stock_level,omitempty" validate:"omitempty,gte=0"`
}

type EditResult struct {
	ProductName string                `json:"product_name"`
	Item        *models.InventoryItem `json:"item,omitempty"`
	Error       string                `json:"error,omitempty"`
	Code        apperr.Code           `json:"code,omitempty"`
}

func (r EditResult) OK() bool {
	return r.Error == ""
}

// AddResult reports the item after an addition and whether it merged into an
// existing one.
type AddResult struct {
	Item   *models.InventoryItem `json:"item"`
	Merged bool                  `json:"merged"`
}

// AddOrMergeProduct adds details to the owner's inventory, merging into an
// item with the same name and category when one exists. The category is
// registered in the same transaction.
func (s *Service) AddOrMergeProduct(userID int, details ProductDetails) (result *AddResult, err error) {
	defer func() { s.metrics.Operation("add_product", err) }()

	details.normalize()
	if err := validateStruct(details); err != nil {
		return nil, err
	}

	item, merged, err := database.UpsertProduct(s.db, userID, database.ProductInput{
		ProductName:   details.ProductName,
		Category:      details.Category,
		Quantity:      details.Quantity,
		Unit:          details.Unit,
		ImagePath:     details.ImagePath,
		MinStockLevel: details.MinStockLevel,
	})
	if err != nil {
		return nil, apperr.Classify(err, "failed to add product")
	}

	logger.Info("Product added",
		"user_id", userID,
		"product", item.ProductName,
		"category", item.Category,
		"quantity", quantity.Format(details.Quantity),
		"merged", merged)

	return &AddResult{Item: item, Merged: merged}, nil
}

// ApplySuggestion feeds a gateway suggestion into AddOrMergeProduct after
// normalizing its unit.
func (s *Service) ApplySuggestion(userID int, suggestion models.ProductSuggestion) (*AddResult, error) {
	return s.AddOrMergeProduct(userID, ProductDetails{
		ProductName: suggestion.ProductName,
		Category:    suggestion.Category,
		Quantity:    suggestion.Quantity,
		Unit:        models.NormalizeUnit(suggestion.Unit),
	})
}

// RecordUsage subtracts quantityUsed from a product. A usage larger than the
// stock on hand is rejected and nothing is written. Category may be empty
// unless the name exists in several categories.
func (s *Service) RecordUsage(ctx context.Context, userID int, productName, category string, quantityUsed float64) (item *models.InventoryItem, err error) {
	defer func() { s.metrics.Operation("record_usage", err) }()

	if quantityUsed <= 0 {
		return nil, apperr.New(apperr.CodeValidation, "quantity used must be greater than 0")
	}

	current, err := database.GetProduct(s.db, userID, strings.TrimSpace(productName), strings.TrimSpace(category))
	if err != nil {
		return nil, apperr.Classify(err, "failed to look up product")
	}

	remaining := quantity.Sub(current.Quantity, quantityUsed)
	if remaining < 0 {
		return nil, apperr.New(apperr.CodeInvariant, "cannot use more than available quantity").
			WithDetails(map[string]float64{"available": current.Quantity, "requested": quantityUsed})
	}

	item, err = database.SetQuantity(s.db, userID, current.ProductName, database.QuantityUpdate{
		Category: current.Category,
		Quantity: remaining,
		Usage:    &database.UsageEntry{Operation: models.OperationRemove, Delta: quantityUsed},
	})
	if err != nil {
		return nil, apperr.Classify(err, "failed to record usage")
	}

	logger.Info("Usage recorded",
		"user_id", userID,
		"product", item.ProductName,
		"used", quantity.Format(quantityUsed),
		"remaining", quantity.Format(item.Quantity))

	if !current.IsLowStock() && item.IsLowStock() {
		s.alertLowStock(ctx, userID, []models.InventoryItem{*item})
	}

	return item, nil
}

// BulkEdit applies each row on its own. A failing row is reported in its
// result and does not undo the rows before it.
func (s *Service) BulkEdit(ctx context.Context, userID int, rows []EditRow) []EditResult {
	results := make([]EditResult, 0, len(rows))
	var newlyLow []models.InventoryItem

	for _, row := range rows {
		item, becameLow, err := s.editRow(userID, row)
		s.metrics.Operation("bulk_edit_row", err)

		result := EditResult{ProductName: row.ProductName, Item: item}
		if err != nil {
			result.Code = apperr.CodeOf(err)
			result.Error = apperr.MessageOf(err)
			logger.Warn("Bulk edit row failed",
				"user_id", userID,
				"product", row.ProductName,
				"error", err)
		}
		if becameLow {
			newlyLow = append(newlyLow, *item)
		}
		results = append(results, result)
	}

	if len(newlyLow) > 0 {
		s.alertLowStock(ctx, userID, newlyLow)
	}

	return results
}

func (s *Service) editRow(userID int, row EditRow) (*models.InventoryItem, bool, error) {
	row.ProductName = strings.TrimSpace(row.ProductName)
	row.Category = strings.TrimSpace(row.Category)
	if err := validateStruct(row); err != nil {
		return nil, false, err
	}

	current, err := database.GetProduct(s.db, userID, row.ProductName, row.Category)
	if err != nil {
		return nil, false, apperr.Classify(err, "failed to look up product")
	}

	update := database.QuantityUpdate{
		Category:      current.Category,
		Quantity:      *row.Quantity,
		MinStockLevel: row.MinStockLevel,
	}
	if delta, increase := quantity.Delta(current.Quantity, *row.Quantity); delta > 0 {
		op := models.OperationRemove
		if increase {
			op = models.OperationAdd
		}
		update.Usage = &database.UsageEntry{Operation: op, Delta: delta}
	}

	item, err := database.SetQuantity(s.db, userID, current.ProductName, update)
	if err != nil {
		return nil, false, apperr.Classify(err, "failed to update product")
	}

	return item, !current.IsLowStock() && item.IsLowStock(), nil
}

// ComputeLowStock lists items at or below their threshold. Items without a
// threshold are never low.
func (s *Service) ComputeLowStock(userID int) ([]models.InventoryItem, error) {
	items, err := database.LowStockItems(s.db, userID)
	if err != nil {
		return nil, apperr.Classify(err, "failed to load low stock items")
	}
	return items, nil
}

func (s *Service) List(userID int) ([]models.InventoryItem, error) {
	items, err := database.ListInventory(s.db, userID)
	if err != nil {
		return nil, apperr.Classify(err, "failed to load inventory")
	}
	return items, nil
}

func (s *Service) Get(userID int, productName, category string) (*models.InventoryItem, error) {
	item, err := database.GetProduct(s.db, userID, strings.TrimSpace(productName), strings.TrimSpace(category))
	if err != nil {
		return nil, apperr.Classify(err, "failed to look up product")
	}
	return item, nil
}

// Delete removes a product together with its usage history.
func (s *Service) Delete(userID int, productName, category string) (err error) {
	defer func() { s.metrics.Operation("delete_product", err) }()

	if err := database.DeleteProduct(s.db, userID, strings.TrimSpace(productName), strings.TrimSpace(category)); err != nil {
		return apperr.Classify(err, "failed to delete product")
	}

	logger.Info("Product deleted", "user_id", userID, "product", productName)
	return nil
}

func (s *Service) History(userID int, productName string, limit int) ([]models.UsageEvent, error) {
	events, err := database.UsageHistory(s.db, userID, strings.TrimSpace(productName), limit)
	if err != nil {
		return nil, apperr.Classify(err, "failed to load usage history")
	}
	return events, nil
}

func (s *Service) Categories() ([]string, error) {
	names, err := database.CategoryNames(s.db)
	if err != nil {
		return nil, apperr.Classify(err, "failed to load categories")
	}
	return names, nil
}

func (s *Service) RegisterCategory(name string) error {
	if err := database.RegisterCategory(s.db, name); err != nil {
		return apperr.Classify(err, "failed to register category")
	}
	return nil
}

func (s *Service) Stats(userID int) (*database.InventoryStats, error) {
	stats, err := database.GetInventoryStats(s.db, userID)
	if err != nil {
		return nil, apperr.Classify(err, "failed to load stats")
	}
	return stats, nil
}

// alertLowStock is best effort: a failed alert is logged and never fails the
// operation that triggered it.
func (s *Service) alertLowStock(ctx context.Context, userID int, items []models.InventoryItem) {
	if s.notifier == nil {
		return
	}

	owner := "unknown"
	if user, err := database.GetUserByID(s.db, userID); err == nil {
		owner = user.Username
	}

	if err := s.notifier.NotifyLowStock(ctx, owner, items); err != nil {
		logger.Warn("Failed to send low stock alert", "user_id", userID, "error", err)
		return
	}
	s.metrics.LowStockAlert()
}
