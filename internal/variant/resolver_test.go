package variant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"variants-service/internal/models"
)

func TestResolver_MaxDepth(t *testing.T) {
	r := NewResolver()
	assert.Equal(t, 2, r.MaxDepth(clothingVariant()))
}

func TestResolver_AttributesOwnedAt(t *testing.T) {
	r := NewResolver()
	fv := clothingVariant()

	common, err := r.AttributesOwnedAt(fv, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"collection", "description", "name"}, common.Codes())

	leaf, err := r.AttributesOwnedAt(fv, 2)
	require.NoError(t, err)
	assert.True(t, leaf.Has("size"))
	assert.False(t, leaf.Has("color"))
}

func TestResolver_AxesAt(t *testing.T) {
	r := NewResolver()
	fv := clothingVariant()

	axes, err := r.AxesAt(fv, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"color"}, axes.Codes())

	axes, err = r.AxesAt(fv, 0)
	require.NoError(t, err)
	assert.Empty(t, axes)
}

func TestResolver_UnknownLevel(t *testing.T) {
	r := NewResolver()
	fv := clothingVariant()

	for _, depth := range []int{-1, 3, 10} {
		_, err := r.LevelFor(fv, depth)
		assert.True(t, errors.Is(err, ErrUnknownLevel), "depth %d", depth)
	}

	_, err := r.AttributesOwnedAt(nil, 0)
	assert.ErrorIs(t, err, ErrUnknownLevel)
}

func TestResolver_LevelsPartitionAttributes(t *testing.T) {
	r := NewResolver()
	fv := clothingVariant()
	require.NoError(t, fv.Validate())

	seen := make(map[string]int)
	for depth := 0; depth <= r.MaxDepth(fv); depth++ {
		owned, err := r.AttributesOwnedAt(fv, depth)
		require.NoError(t, err)
		for _, code := range owned.Codes() {
			prev, dup := seen[code]
			assert.False(t, dup, "%s owned by levels %d and %d", code, prev, depth)
			seen[code] = depth
		}
		axes, err := r.AxesAt(fv, depth)
		require.NoError(t, err)
		for _, axis := range axes.Codes() {
			assert.True(t, owned.Has(axis), "axis %s must be owned by level %d", axis, depth)
		}
	}
}

func TestResolver_SeesDefinitionChanges(t *testing.T) {
	r := NewResolver()
	fv := clothingVariant()

	owned, err := r.AttributesOwnedAt(fv, 2)
	require.NoError(t, err)
	assert.False(t, owned.Has("material"))

	fv.Levels[1].Attributes = models.CodeList{"color"}
	fv.Levels[2].Attributes = append(fv.Levels[2].Attributes, "material")

	owned, err = r.AttributesOwnedAt(fv, 2)
	require.NoError(t, err)
	assert.True(t, owned.Has("material"))
}
