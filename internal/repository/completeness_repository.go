package repository

import (
	"context"
	"errors"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"gorm.io/gorm"
	"variants-service/internal/models"
)

// CompletenessRepository reads product completenesses for the API
type CompletenessRepository struct {
	db    *gorm.DB
	cache *cache.CacheLayer
}

func NewCompletenessRepository(db *gorm.DB, cache *cache.CacheLayer) *CompletenessRepository {
	return &CompletenessRepository{db: db, cache: cache}
}

// GetByIdentifier returns the completeness set of a product, cached when redis is available
func (r *CompletenessRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.ProductCompleteness, error) {
	if r.cache != nil {
		var view models.ProductCompleteness
		err := r.cache.GetOrSetJSON(ctx, completenessCacheKey(identifier), &view, CompletenessCacheTTL, func() (any, error) {
			return r.load(ctx, identifier)
		})
		if err != nil {
			return nil, err
		}
		return &view, nil
	}
	return r.load(ctx, identifier)
}

func (r *CompletenessRepository) load(ctx context.Context, identifier string) (*models.ProductCompleteness, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Completenesses", func(db *gorm.DB) *gorm.DB {
			return db.Order("channel_code ASC, locale_code ASC")
		}).
		Where("identifier = ?", identifier).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return models.NewProductCompleteness(&product), nil
}
