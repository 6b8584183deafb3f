package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"variants-service/internal/models"
	"variants-service/internal/query"
)

// DefaultCursorPageSize is the number of product models fetched per page
const DefaultCursorPageSize = 500

// ProductModelQueryBuilderFactory creates gorm backed product model searches
type ProductModelQueryBuilderFactory struct {
	db       *gorm.DB
	pageSize int
}

func NewProductModelQueryBuilderFactory(db *gorm.DB, pageSize int) *ProductModelQueryBuilderFactory {
	if pageSize <= 0 {
		pageSize = DefaultCursorPageSize
	}
	return &ProductModelQueryBuilderFactory{db: db, pageSize: pageSize}
}

func (f *ProductModelQueryBuilderFactory) Create() query.Builder {
	return &productModelQueryBuilder{db: f.db, pageSize: f.pageSize}
}

type productModelQueryBuilder struct {
	db       *gorm.DB
	pageSize int
	filters  []query.Filter
}

func (b *productModelQueryBuilder) AddFilter(field string, op query.Operator, value interface{}) error {
	filter, err := query.NewFilter(field, op, value)
	if err != nil {
		return err
	}
	b.filters = append(b.filters, filter)
	return nil
}

func (b *productModelQueryBuilder) Execute(ctx context.Context) (query.Cursor, error) {
	return &keysetCursor{
		scope:    b.scope,
		db:       b.db,
		pageSize: b.pageSize,
	}, nil
}

// scope applies the filters to a product_models query
func (b *productModelQueryBuilder) scope(db *gorm.DB) *gorm.DB {
	for _, filter := range b.filters {
		switch filter.Field {
		case query.FieldFamily:
			variants := db.Session(&gorm.Session{NewDB: true}).
				Model(&models.FamilyVariant{}).
				Select("code").
				Where("family_code IN ?", filter.Strings())
			db = db.Where("family_variant_code IN (?)", variants)
		case query.FieldFamilyVariant:
			db = db.Where("family_variant_code IN ?", filter.Strings())
		case query.FieldCode:
			db = db.Where("code IN ?", filter.Strings())
		case query.FieldParent:
			if filter.Operator == query.OperatorIsEmpty {
				db = db.Where("parent_id IS NULL")
			} else {
				db = db.Where("parent_id IS NOT NULL")
			}
		}
	}
	return db
}

// keysetCursor pages through product models ordered by id
type keysetCursor struct {
	scope    func(*gorm.DB) *gorm.DB
	db       *gorm.DB
	pageSize int

	page    []*models.ProductModel
	pos     int
	lastID  *uuid.UUID
	done    bool
	current *models.ProductModel
	err     error
}

func (c *keysetCursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	if c.pos >= len(c.page) {
		if c.done {
			c.current = nil
			return false
		}
		if err := c.fetch(ctx); err != nil {
			c.err = err
			return false
		}
		if len(c.page) == 0 {
			c.current = nil
			return false
		}
	}
	c.current = c.page[c.pos]
	c.pos++
	return true
}

func (c *keysetCursor) fetch(ctx context.Context) error {
	q := c.db.WithContext(ctx).Model(&models.ProductModel{}).Scopes(c.scope)
	if c.lastID != nil {
		q = q.Where("id > ?", *c.lastID)
	}
	var page []*models.ProductModel
	if err := q.Order("id ASC").Limit(c.pageSize).Find(&page).Error; err != nil {
		return err
	}
	c.page = page
	c.pos = 0
	if len(page) < c.pageSize {
		c.done = true
	}
	if len(page) > 0 {
		last := page[len(page)-1].ID
		c.lastID = &last
	}
	return nil
}

func (c *keysetCursor) Current() *models.ProductModel { return c.current }
func (c *keysetCursor) Err() error                    { return c.err }

func (c *keysetCursor) Close() error {
	c.page = nil
	c.done = true
	return nil
}
