package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/milyonersgroup/catchthespy/internal/domain/models"
	"github.com/milyonersgroup/catchthespy/internal/infra/adapters/postgres/repository"
)

// WordUsecase serves the static word-category content. The content is
// read once at startup; rooms only ever need a random pair out of one
// category.
type WordUsecase interface {
	Categories() []models.Category
	Category(id string) (models.Category, bool)
	RandomPair(categoryID string) (models.WordPair, error)
}

type wordUsecase struct {
	categories []models.Category
	byID       map[string]int
}

// NewWordUsecase loads every category from the repository up front.
func NewWordUsecase(ctx context.Context, categoryRepo repository.CategoryRepository) (WordUsecase, error) {
	categories, err := categoryRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load word categories: %w", err)
	}

	return NewStaticWordUsecase(categories), nil
}

// NewStaticWordUsecase builds the provider from an in-memory list.
func NewStaticWordUsecase(categories []models.Category) WordUsecase {
	byID := make(map[string]int, len(categories))
	for i, c := range categories {
		byID[c.ID] = i
	}

	return &wordUsecase{categories: categories, byID: byID}
}

func (uc *wordUsecase) Categories() []models.Category {
	return uc.categories
}

func (uc *wordUsecase) Category(id string) (models.Category, bool) {
	i, ok := uc.byID[id]
	if !ok {
		return models.Category{}, false
	}
	return uc.categories[i], true
}

func (uc *wordUsecase) RandomPair(categoryID string) (models.WordPair, error) {
	category, ok := uc.Category(categoryID)
	if !ok {
		return models.WordPair{}, fmt.Errorf("%w: unknown category %q", ErrPreconditionFailed, categoryID)
	}

	if len(category.WordPairs) == 0 {
		return models.WordPair{}, fmt.Errorf("%w: category %q has no word pairs", ErrPreconditionFailed, categoryID)
	}

	return category.WordPairs[rand.IntN(len(category.WordPairs))], nil
}
