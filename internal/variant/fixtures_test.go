package variant

import (
	"github.com/google/uuid"
	"variants-service/internal/models"
)

func clothingVariant() *models.FamilyVariant {
	return &models.FamilyVariant{
		Code:       "clothing_color_size",
		FamilyCode: "clothing",
		Levels: models.VariationLevels{
			{Attributes: models.CodeList{"name", "description", "collection"}},
			{Attributes: models.CodeList{"color", "material"}, Axes: models.CodeList{"color"}},
			{Attributes: models.CodeList{"size", "sku", "weight"}, Axes: models.CodeList{"size"}},
		},
	}
}

func clothingFamily() *models.Family {
	ecommerce := &models.Channel{Code: "ecommerce", Locales: models.CodeList{"en_US"}}
	return &models.Family{
		Code: "clothing",
		Requirements: []models.AttributeRequirement{
			{FamilyCode: "clothing", ChannelCode: "ecommerce", AttributeCode: "name", Required: true, Channel: ecommerce, Attribute: &models.Attribute{Code: "name"}},
		},
	}
}

func newModel(code string, level int, values ...models.Value) *models.ProductModel {
	return &models.ProductModel{
		ID:                uuid.New(),
		Code:              code,
		FamilyVariantCode: "clothing_color_size",
		Level:             level,
		Values:            models.NewValueCollection(values...),
	}
}

func newProduct(identifier string, level int, values ...models.Value) *models.Product {
	fv := "clothing_color_size"
	return &models.Product{
		ID:                uuid.New(),
		Identifier:        identifier,
		FamilyVariantCode: &fv,
		Level:             level,
		Values:            models.NewValueCollection(values...),
	}
}

func val(attribute string, data interface{}) models.Value {
	return models.Value{Attribute: attribute, Data: data}
}

// clothingTree builds:
//
//	tshirt (0)
//	├── tshirt_red (1)
//	│   ├── tshirt_red_s (3)
//	│   └── tshirt_red_m (4)
//	└── tshirt_blue (2)
//	    └── tshirt_blue_s (5)
func clothingTree() *Tree {
	root := newModel("tshirt", 0, val("name", "T-shirt"), val("color", "stray"), val("weight", "200g"))
	tree := NewTree(root)
	red, _ := tree.AddProductModel(tree.Root(), newModel("tshirt_red", 1, val("color", "red"), val("name", "stray")))
	blue, _ := tree.AddProductModel(tree.Root(), newModel("tshirt_blue", 1, val("color", "blue")))
	_, _ = tree.AddProduct(red, newProduct("tshirt_red_s", 2, val("size", "s"), val("name", "stray")))
	_, _ = tree.AddProduct(red, newProduct("tshirt_red_m", 2, val("size", "m")))
	_, _ = tree.AddProduct(blue, newProduct("tshirt_blue_s", 2, val("size", "s")))
	return tree
}

func clothingScope() *Scope {
	scope := NewScope()
	scope.AddFamilyVariant(clothingVariant())
	scope.AddFamily(clothingFamily())
	return scope
}

type violationCount int

func (v violationCount) Count() int { return int(v) }

// recordingValidator reports the nodes listed in invalid and remembers the visit order
type recordingValidator struct {
	invalid map[NodeID]bool
	visited []NodeID
}

func (v *recordingValidator) Validate(t *Tree, id NodeID, fv *models.FamilyVariant) Violations {
	v.visited = append(v.visited, id)
	if v.invalid[id] {
		return violationCount(1)
	}
	return violationCount(0)
}

// recordingCalculator keeps the effective values it was given per product
type recordingCalculator struct {
	values map[string]models.ValueCollection
}

func (c *recordingCalculator) Compute(product *models.Product, family *models.Family, values models.ValueCollection) []models.Completeness {
	if c.values == nil {
		c.values = make(map[string]models.ValueCollection)
	}
	c.values[product.Identifier] = values
	if family == nil {
		return []models.Completeness{}
	}
	return []models.Completeness{{ChannelCode: "ecommerce", LocaleCode: "en_US", RequiredCount: 1}}
}
