package database

import (
	"database/sql"
	"fmt"
	"strings"

	"stockroom/internal/apperr"
	"stockroom/internal/models"
)

// RegisterCategory adds name to the category registry. Registering a name that
// already exists, in any letter case, is a no-op.
func RegisterCategory(db *sql.DB, name string) error {
	return registerCategory(db, name)
}

func registerCategory(q queryer, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.New(apperr.CodeValidation, "category name is required")
	}

	if _, err := q.Exec(`INSERT OR IGNORE INTO categories (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("failed to register category: %w", err)
	}
	return nil
}

func GetCategories(db *sql.DB) ([]models.Category, error) {
	rows, err := db.Query(`SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// CategoryNames is GetCategories reduced to the names.
func CategoryNames(db *sql.DB) ([]string, error) {
	categories, err := GetCategories(db)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names, nil
}
