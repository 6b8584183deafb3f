package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"variants-service/internal/models"
	"variants-service/internal/variant"
)

// VariantTreeLoader loads a whole product model tree, one level per query
type VariantTreeLoader struct {
	db *gorm.DB
}

func NewVariantTreeLoader(db *gorm.DB) *VariantTreeLoader {
	return &VariantTreeLoader{db: db}
}

// Load builds the arena of the tree rooted at root, breadth first
func (l *VariantTreeLoader) Load(ctx context.Context, root *models.ProductModel) (*variant.Tree, error) {
	tree := variant.NewTree(root)

	frontier := map[uuid.UUID]variant.NodeID{root.ID: tree.Root()}
	for len(frontier) > 0 {
		parentIDs := make([]uuid.UUID, 0, len(frontier))
		for id := range frontier {
			parentIDs = append(parentIDs, id)
		}

		var subModels []*models.ProductModel
		if err := l.db.WithContext(ctx).Where("parent_id IN ?", parentIDs).Order("code ASC").Find(&subModels).Error; err != nil {
			return nil, fmt.Errorf("failed to load sub product models of %q: %w", root.Code, err)
		}
		var products []*models.Product
		if err := l.db.WithContext(ctx).Where("parent_id IN ?", parentIDs).Order("identifier ASC").Find(&products).Error; err != nil {
			return nil, fmt.Errorf("failed to load products of %q: %w", root.Code, err)
		}

		next := make(map[uuid.UUID]variant.NodeID, len(subModels))
		for _, pm := range subModels {
			id, err := tree.AddProductModel(frontier[*pm.ParentID], pm)
			if err != nil {
				return nil, err
			}
			next[pm.ID] = id
		}
		for _, p := range products {
			if _, err := tree.AddProduct(frontier[*p.ParentID], p); err != nil {
				return nil, err
			}
		}
		frontier = next
	}
	return tree, nil
}
