// Package variant holds the variant tree engine: the schema resolver, the
// value pruner, the arena representation of product model trees and the
// bottom-up walker that prepares every node for persistence.
package variant

import (
	"errors"
	"fmt"
	"sort"

	"variants-service/internal/models"
)

var (
	// ErrUnknownLevel is returned when a depth has no variation level in the family variant
	ErrUnknownLevel = errors.New("unknown variation level")
	// ErrMalformedTree is returned when the shape of a tree disagrees with its family variant
	ErrMalformedTree = errors.New("malformed variant tree")
)

// AttributeSet is a set of attribute codes
type AttributeSet map[string]struct{}

// NewAttributeSet builds a set from codes
func NewAttributeSet(codes ...string) AttributeSet {
	set := make(AttributeSet, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}

// Has reports whether the code belongs to the set
func (s AttributeSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Codes returns the sorted codes of the set
func (s AttributeSet) Codes() []string {
	codes := make([]string, 0, len(s))
	for code := range s {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Resolver answers which attributes and axes belong to a depth of a family variant.
// It keeps no state: family variant definitions may change between passes.
type Resolver struct{}

// NewResolver creates a resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

// MaxDepth returns the depth of the leaves of a family variant tree
func (r *Resolver) MaxDepth(fv *models.FamilyVariant) int {
	return len(fv.Levels) - 1
}

// LevelFor returns the variation level of the given depth
func (r *Resolver) LevelFor(fv *models.FamilyVariant, depth int) (models.VariationLevel, error) {
	if fv == nil {
		return models.VariationLevel{}, fmt.Errorf("%w: no family variant", ErrUnknownLevel)
	}
	if depth < 0 || depth >= len(fv.Levels) {
		return models.VariationLevel{}, fmt.Errorf("%w: family variant %q has no level %d (max %d)",
			ErrUnknownLevel, fv.Code, depth, r.MaxDepth(fv))
	}
	return fv.Levels[depth], nil
}

// AttributesOwnedAt returns the attribute codes owned by the given depth
func (r *Resolver) AttributesOwnedAt(fv *models.FamilyVariant, depth int) (AttributeSet, error) {
	level, err := r.LevelFor(fv, depth)
	if err != nil {
		return nil, err
	}
	return NewAttributeSet(level.Attributes...), nil
}

// AxesAt returns the axis attribute codes distinguishing siblings at the given depth
func (r *Resolver) AxesAt(fv *models.FamilyVariant, depth int) (AttributeSet, error) {
	level, err := r.LevelFor(fv, depth)
	if err != nil {
		return nil, err
	}
	return NewAttributeSet(level.Axes...), nil
}
