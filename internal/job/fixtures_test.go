package job

import (
	"context"

	"github.com/google/uuid"
	"variants-service/internal/models"
	"variants-service/internal/variant"
)

func jacketVariant() *models.FamilyVariant {
	return &models.FamilyVariant{
		Code:       "jacket_color_size",
		FamilyCode: "outerwear",
		Levels: models.VariationLevels{
			{Attributes: models.CodeList{"name"}},
			{Attributes: models.CodeList{"color"}, Axes: models.CodeList{"color"}},
			{Attributes: models.CodeList{"size"}, Axes: models.CodeList{"size"}},
		},
	}
}

func outerwearFamily() *models.Family {
	ecommerce := &models.Channel{Code: "ecommerce", Locales: models.CodeList{"en_US"}}
	return &models.Family{
		Code: "outerwear",
		Requirements: []models.AttributeRequirement{
			{FamilyCode: "outerwear", ChannelCode: "ecommerce", AttributeCode: "name", Required: true, Channel: ecommerce, Attribute: &models.Attribute{Code: "name"}},
			{FamilyCode: "outerwear", ChannelCode: "ecommerce", AttributeCode: "size", Required: true, Channel: ecommerce, Attribute: &models.Attribute{Code: "size"}},
		},
	}
}

func rootModel(code string) *models.ProductModel {
	return &models.ProductModel{
		ID:                uuid.New(),
		Code:              code,
		FamilyVariantCode: "jacket_color_size",
		Values:            models.NewValueCollection(models.Value{Attribute: "name", Data: code}),
	}
}

// jacketTree builds a root with two colors of two sizes each: seven valid nodes
func jacketTree(root *models.ProductModel) *variant.Tree {
	fv := "jacket_color_size"
	tree := variant.NewTree(root)
	for _, color := range []string{"red", "blue"} {
		sub, _ := tree.AddProductModel(tree.Root(), &models.ProductModel{
			ID:                uuid.New(),
			Code:              root.Code + "_" + color,
			FamilyVariantCode: fv,
			Level:             1,
			Values:            models.NewValueCollection(models.Value{Attribute: "color", Data: color}),
		})
		for _, size := range []string{"s", "m"} {
			_, _ = tree.AddProduct(sub, &models.Product{
				ID:                uuid.New(),
				Identifier:        root.Code + "_" + color + "_" + size,
				FamilyVariantCode: &fv,
				Level:             2,
				Values:            models.NewValueCollection(models.Value{Attribute: "size", Data: size}),
			})
		}
	}
	return tree
}

// singleNodeBatch treats every tree as one valid product model
func singleNodeBatch(t *variant.Tree, _ *variant.Scope) (*variant.Batch, error) {
	return &variant.Batch{ProductModels: []*models.ProductModel{t.Node(t.Root()).Model}}, nil
}

func singleNodeTree(_ context.Context, root *models.ProductModel) (*variant.Tree, error) {
	return variant.NewTree(root), nil
}
