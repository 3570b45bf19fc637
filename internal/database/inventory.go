package database

import (
	"database/sql"
	"fmt"
	"time"

	"stockroom/internal/apperr"
	"stockroom/internal/models"
	"stockroom/internal/quantity"
)

type queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// ProductInput is one addition to the inventory. Quantity is the amount added.
type ProductInput struct {
	ProductName   string
	Category      string
	Quantity      float64
	Unit          string
	ImagePath     *string
	MinStockLevel *float64
}

// UsageEntry describes the ledger row written alongside a quantity change.
type UsageEntry struct {
	Operation models.OperationType
	Delta     float64
}

// QuantityUpdate overwrites the quantity of one product. Category is only
// needed when the owner has the same product name in several categories.
type QuantityUpdate struct {
	Category      string
	Quantity      float64
	MinStockLevel *float64
	Usage         *UsageEntry
}

const itemColumns = `id, user_id, product_name, category, quantity, unit, date_added, last_used, image_path, min_stock_level`

func scanItem(row rowScanner) (*models.InventoryItem, error) {
	var item models.InventoryItem
	var dateAdded, lastUsed sql.NullTime
	var imagePath sql.NullString
	var minStock sql.NullFloat64

	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.ProductName,
		&item.Category,
		&item.Quantity,
		&item.Unit,
		&dateAdded,
		&lastUsed,
		&imagePath,
		&minStock,
	)
	if err != nil {
		return nil, err
	}

	if dateAdded.Valid {
		item.DateAdded = dateAdded.Time
	}
	if lastUsed.Valid {
		item.LastUsed = &lastUsed.Time
	}
	if imagePath.Valid {
		item.ImagePath = &imagePath.String
	}
	if minStock.Valid {
		item.MinStockLevel = &minStock.Float64
	}

	return &item, nil
}

func queryItems(q queryer, query string, args ...any) ([]models.InventoryItem, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	items := []models.InventoryItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, *item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory: %w", err)
	}

	return items, nil
}

func insertUsage(q queryer, userID, productID int, entry UsageEntry, at time.Time) error {
	_, err := q.Exec(`
		INSERT INTO product_usage_history (user_id, product_id, quantity_used, usage_date, operation_type)
		VALUES (?, ?, ?, ?, ?)
	`, userID, productID, entry.Delta, at, string(entry.Operation))
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// findProduct resolves a product by name, and by category when one is given.
// Names and categories compare case-insensitively.
func findProduct(q queryer, userID int, name, category string) (*models.InventoryItem, error) {
	var items []models.InventoryItem
	var err error
	if category != "" {
		items, err = queryItems(q, `SELECT `+itemColumns+` FROM inventory WHERE user_id = ? AND product_name = ? AND category = ?`,
			userID, name, category)
	} else {
		items, err = queryItems(q, `SELECT `+itemColumns+` FROM inventory WHERE user_id = ? AND product_name = ? ORDER BY id`,
			userID, name)
	}
	if err != nil {
		return nil, err
	}

	switch len(items) {
	case 0:
		return nil, apperr.Newf(apperr.CodeNotFound, "product %q not found", name)
	case 1:
		return &items[0], nil
	default:
		return nil, apperr.Newf(apperr.CodeValidation,
			"product %q exists in %d categories; specify a category", name, len(items))
	}
}

func GetProduct(db *sql.DB, userID int, name, category string) (*models.InventoryItem, error) {
	return findProduct(db, userID, name, category)
}

func GetProductByID(db *sql.DB, userID, productID int) (*models.InventoryItem, error) {
	item, err := scanItem(db.QueryRow(`SELECT `+itemColumns+` FROM inventory WHERE id = ? AND user_id = ?`, productID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.New(apperr.CodeNotFound, "product not found")
		}
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return item, nil
}

// UpsertProduct adds input to the owner's inventory. An existing item with the
// same name and category has its quantity increased; otherwise a new item is
// created. The category registration and an "add" usage event are written in
// the same transaction. The returned flag reports whether an existing item was
// merged.
func UpsertProduct(db *sql.DB, userID int, input ProductInput) (*models.InventoryItem, bool, error) {
	var productID int
	merged := false
	now := time.Now().UTC()

	err := withTx(db, func(tx *sql.Tx) error {
		if err := registerCategory(tx, input.Category); err != nil {
			return err
		}

		var existingID int
		var existingQty float64
		err := tx.QueryRow(`
			SELECT id, quantity FROM inventory
			WHERE user_id = ? AND product_name = ? AND category = ?
		`, userID, input.ProductName, input.Category).Scan(&existingID, &existingQty)

		switch {
		case err == nil:
			merged = true
			productID = existingID
			_, err = tx.Exec(`
				UPDATE inventory
				SET quantity = ?, date_added = ?,
				    image_path = COALESCE(?, image_path),
				    min_stock_level = COALESCE(?, min_stock_level)
				WHERE id = ?
			`, quantity.Add(existingQty, input.Quantity), now, input.ImagePath, input.MinStockLevel, existingID)
			if err != nil {
				return fmt.Errorf("failed to update product: %w", err)
			}
		case err == sql.ErrNoRows:
			result, err := tx.Exec(`
				INSERT INTO inventory (user_id, product_name, category, quantity, unit, date_added, image_path, min_stock_level)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, userID, input.ProductName, input.Category, input.Quantity, input.Unit, now, input.ImagePath, input.MinStockLevel)
			if err != nil {
				return fmt.Errorf("failed to create product: %w", err)
			}
			id, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get product ID: %w", err)
			}
			productID = int(id)
		default:
			return fmt.Errorf("failed to query product: %w", err)
		}

		return insertUsage(tx, userID, productID, UsageEntry{Operation: models.OperationAdd, Delta: input.Quantity}, now)
	})
	if err != nil {
		return nil, false, err
	}

	item, err := GetProductByID(db, userID, productID)
	if err != nil {
		return nil, false, err
	}
	return item, merged, nil
}

func ListInventory(db *sql.DB, userID int) ([]models.InventoryItem, error) {
	return queryItems(db, `
		SELECT `+itemColumns+`
		FROM inventory
		WHERE user_id = ?
		ORDER BY category, product_name
	`, userID)
}

// SetQuantity overwrites the quantity of a product and refreshes last_used.
// It does not check the new quantity against zero; callers do.
func SetQuantity(db *sql.DB, userID int, productName string, update QuantityUpdate) (*models.InventoryItem, error) {
	var productID int
	now := time.Now().UTC()

	err := withTx(db, func(tx *sql.Tx) error {
		item, err := findProduct(tx, userID, productName, update.Category)
		if err != nil {
			return err
		}
		productID = item.ID

		_, err = tx.Exec(`
			UPDATE inventory
			SET quantity = ?, last_used = ?, min_stock_level = COALESCE(?, min_stock_level)
			WHERE id = ?
		`, update.Quantity, now, update.MinStockLevel, item.ID)
		if err != nil {
			return fmt.Errorf("failed to update inventory: %w", err)
		}

		if update.Usage != nil && update.Usage.Delta > 0 {
			return insertUsage(tx, userID, item.ID, *update.Usage, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetProductByID(db, userID, productID)
}

func LowStockItems(db *sql.DB, userID int) ([]models.InventoryItem, error) {
	return queryItems(db, `
		SELECT `+itemColumns+`
		FROM inventory
		WHERE user_id = ? AND min_stock_level IS NOT NULL AND quantity <= min_stock_level
		ORDER BY category, product_name
	`, userID)
}

// DeleteProduct removes a product; its usage history goes with it through the
// foreign key cascade.
func DeleteProduct(db *sql.DB, userID int, productName, category string) error {
	return withTx(db, func(tx *sql.Tx) error {
		item, err := findProduct(tx, userID, productName, category)
		if err != nil {
			return err
		}

		result, err := tx.Exec(`DELETE FROM inventory WHERE id = ? AND user_id = ?`, item.ID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperr.Newf(apperr.CodeNotFound, "product %q not found", productName)
		}
		return nil
	})
}
