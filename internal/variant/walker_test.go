package variant

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"variants-service/internal/models"
)

func newTestWalker(v Validator, c CompletenessCalculator) *Walker {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewWalker(NewResolver(), v, c, logrus.NewEntry(logger))
}

func TestWalker_BottomUpOrder(t *testing.T) {
	validator := &recordingValidator{}
	w := newTestWalker(validator, &recordingCalculator{})

	batch, err := w.Walk(clothingTree(), clothingScope())
	require.NoError(t, err)

	assert.Equal(t, []NodeID{3, 4, 1, 5, 2, 0}, validator.visited)
	require.Len(t, batch.Products, 3)
	require.Len(t, batch.ProductModels, 3)
	assert.Equal(t, "tshirt_red_s", batch.Products[0].Identifier)
	assert.Equal(t, "tshirt", batch.ProductModels[2].Code)
	assert.Empty(t, batch.Skipped)
	assert.True(t, batch.Invalid.IsEmpty())
}

func TestWalker_PrunesEveryNode(t *testing.T) {
	tree := clothingTree()
	w := newTestWalker(&recordingValidator{}, &recordingCalculator{})

	batch, err := w.Walk(tree, clothingScope())
	require.NoError(t, err)

	assert.Equal(t, 4, batch.PrunedValues)
	assert.Equal(t, []string{"name"}, tree.Node(0).Values().AttributeCodes())
	assert.Equal(t, []string{"color"}, tree.Node(1).Values().AttributeCodes())
	assert.Equal(t, []string{"size"}, tree.Node(3).Values().AttributeCodes())
}

func TestWalker_SkipsInvalidNodeAndContinues(t *testing.T) {
	validator := &recordingValidator{invalid: map[NodeID]bool{4: true}}
	w := newTestWalker(validator, &recordingCalculator{})

	batch, err := w.Walk(clothingTree(), clothingScope())
	require.NoError(t, err)

	assert.Equal(t, []NodeID{4}, batch.Skipped)
	assert.True(t, batch.Invalid.Contains(4))
	assert.Equal(t, uint64(1), batch.Invalid.GetCardinality())
	assert.Len(t, batch.Products, 2)
	assert.Len(t, batch.ProductModels, 3)
	assert.Equal(t, 5, batch.Len())
	assert.Len(t, validator.visited, 6)
}

func TestWalker_ComputesCompletenessFromInheritedValues(t *testing.T) {
	calculator := &recordingCalculator{}
	tree := clothingTree()
	w := newTestWalker(&recordingValidator{}, calculator)

	_, err := w.Walk(tree, clothingScope())
	require.NoError(t, err)

	values := calculator.values["tshirt_red_s"]
	require.NotNil(t, values)
	assert.Equal(t, []string{"color", "name", "size"}, values.AttributeCodes())

	name, _ := values.Get("name", "", "")
	assert.Equal(t, "T-shirt", name.Data)
	color, _ := values.Get("color", "", "")
	assert.Equal(t, "red", color.Data)

	product := tree.Node(3).Product
	require.Len(t, product.Completenesses, 1)
	assert.Equal(t, product.ID, product.Completenesses[0].ProductID)
}

func TestWalker_ProductFamilyFallsBackToVariantFamily(t *testing.T) {
	tree := clothingTree()
	w := newTestWalker(&recordingValidator{}, &recordingCalculator{})

	other := "accessories"
	tree.Node(5).Product.FamilyCode = &other

	_, err := w.Walk(tree, clothingScope())
	require.NoError(t, err)

	assert.Len(t, tree.Node(3).Product.Completenesses, 1)
	assert.Empty(t, tree.Node(5).Product.Completenesses)
}

func TestWalker_StoredLevelMismatchAbortsTree(t *testing.T) {
	tree := clothingTree()
	tree.Node(4).Product.Level = 1
	w := newTestWalker(&recordingValidator{}, &recordingCalculator{})

	_, err := w.Walk(tree, clothingScope())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedTree)

	var treeErr *TreeError
	require.True(t, errors.As(err, &treeErr))
	assert.Equal(t, "tshirt_red_m", treeErr.Node)
	assert.Equal(t, 2, treeErr.Depth)
}

func TestWalker_DepthBeyondVariantAbortsTree(t *testing.T) {
	scope := NewScope()
	scope.AddFamilyVariant(&models.FamilyVariant{
		Code:       "clothing_color_size",
		FamilyCode: "clothing",
		Levels: models.VariationLevels{
			{Attributes: models.CodeList{"name"}},
			{Attributes: models.CodeList{"color"}, Axes: models.CodeList{"color"}},
		},
	})
	w := newTestWalker(&recordingValidator{}, &recordingCalculator{})

	_, err := w.Walk(clothingTree(), scope)
	assert.ErrorIs(t, err, ErrMalformedTree)
}

func TestWalker_MissingFamilyVariant(t *testing.T) {
	w := newTestWalker(&recordingValidator{}, &recordingCalculator{})

	_, err := w.Walk(clothingTree(), NewScope())
	assert.ErrorIs(t, err, ErrUnknownLevel)
}

func TestWalker_SecondPassIsStable(t *testing.T) {
	tree := clothingTree()
	w := newTestWalker(&recordingValidator{}, &recordingCalculator{})

	_, err := w.Walk(tree, clothingScope())
	require.NoError(t, err)
	batch, err := w.Walk(tree, clothingScope())
	require.NoError(t, err)

	assert.Equal(t, 0, batch.PrunedValues)
	assert.Equal(t, 6, batch.Len())
}
