package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/milyonersgroup/catchthespy/internal/domain/models"
)

type CategoryRepository interface {
	// ListCategories returns every category with its word pairs.
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type categoryRepo struct {
	db *sqlx.DB
}

func NewCategoryRepo(db *sqlx.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

type wordPairRow struct {
	CategoryID   string `db:"category_id"`
	CategoryName string `db:"category_name"`
	Normal       string `db:"normal"`
	Spy          string `db:"spy"`
}

func (r *categoryRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []wordPairRow

	query := `
		SELECT c.id AS category_id, c.name AS category_name, wp.normal, wp.spy
		FROM categories c
		JOIN word_pairs wp ON wp.category_id = c.id
		ORDER BY c.id, wp.id`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	var categories []models.Category
	index := make(map[string]int)

	for _, row := range rows {
		i, ok := index[row.CategoryID]
		if !ok {
			i = len(categories)
			index[row.CategoryID] = i
			categories = append(categories, models.Category{
				ID:   row.CategoryID,
				Name: row.CategoryName,
			})
		}

		categories[i].WordPairs = append(categories[i].WordPairs, models.WordPair{
			Normal: row.Normal,
			Spy:    row.Spy,
		})
	}

	return categories, nil
}
