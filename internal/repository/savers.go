package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"gorm.io/gorm"
	"variants-service/internal/models"
)

// CompletenessCacheTTL is how long a product completeness read stays cached
const CompletenessCacheTTL = 5 * time.Minute

func completenessCacheKey(identifier string) string {
	return "completeness:" + identifier
}

type ProductModelSaver struct {
	db *gorm.DB
}

func NewProductModelSaver(db *gorm.DB) *ProductModelSaver {
	return &ProductModelSaver{db: db}
}

func (s *ProductModelSaver) Save(ctx context.Context, pm *models.ProductModel) error {
	return s.SaveAll(ctx, []*models.ProductModel{pm})
}

// SaveAll persists the product models in a single transaction
func (s *ProductModelSaver) SaveAll(ctx context.Context, productModels []*models.ProductModel) error {
	if len(productModels) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, pm := range productModels {
			if err := tx.Save(pm).Error; err != nil {
				return fmt.Errorf("failed to save product model %q: %w", pm.Code, err)
			}
		}
		return nil
	})
}

type ProductSaver struct {
	db    *gorm.DB
	cache *cache.CacheLayer
}

// NewProductSaver creates a product saver. cache may be nil.
func NewProductSaver(db *gorm.DB, cache *cache.CacheLayer) *ProductSaver {
	return &ProductSaver{db: db, cache: cache}
}

func (s *ProductSaver) Save(ctx context.Context, p *models.Product) error {
	return s.SaveAll(ctx, []*models.Product{p})
}

// SaveAll persists the products in a single transaction and replaces their completenesses
func (s *ProductSaver) SaveAll(ctx context.Context, products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range products {
			if err := tx.Omit("Completenesses").Save(p).Error; err != nil {
				return fmt.Errorf("failed to save product %q: %w", p.Identifier, err)
			}
			if err := tx.Where("product_id = ?", p.ID).Delete(&models.Completeness{}).Error; err != nil {
				return fmt.Errorf("failed to clear completenesses of %q: %w", p.Identifier, err)
			}
			if len(p.Completenesses) == 0 {
				continue
			}
			for i := range p.Completenesses {
				p.Completenesses[i].ID = 0
				p.Completenesses[i].ProductID = p.ID
			}
			if err := tx.Create(&p.Completenesses).Error; err != nil {
				return fmt.Errorf("failed to save completenesses of %q: %w", p.Identifier, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, products)
	return nil
}

func (s *ProductSaver) invalidate(ctx context.Context, products []*models.Product) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(products))
	for _, p := range products {
		keys = append(keys, completenessCacheKey(p.Identifier))
	}
	_ = s.cache.Delete(ctx, keys...)
}
