package query

import (
	"context"

	"variants-service/internal/models"
)

// SliceCursor iterates over product models already in memory
type SliceCursor struct {
	items []*models.ProductModel
	pos   int
	err   error
}

// NewSliceCursor creates a cursor over items
func NewSliceCursor(items []*models.ProductModel) *SliceCursor {
	return &SliceCursor{items: items, pos: -1}
}

func (c *SliceCursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		return false
	}
	if c.pos+1 >= len(c.items) {
		return false
	}
	c.pos++
	return true
}

func (c *SliceCursor) Current() *models.ProductModel {
	if c.pos < 0 || c.pos >= len(c.items) {
		return nil
	}
	return c.items[c.pos]
}

func (c *SliceCursor) Err() error   { return c.err }
func (c *SliceCursor) Close() error { return nil }
