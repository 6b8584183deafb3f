package variant

import (
	"variants-service/internal/models"
)

// Pruner keeps on each node only the values its variation level owns.
// Values of attributes owned by another level are dropped, never moved.
type Pruner struct {
	resolver *Resolver
}

// NewPruner creates a pruner
func NewPruner(resolver *Resolver) *Pruner {
	return &Pruner{resolver: resolver}
}

// Prune filters the entity values in place and returns how many values were dropped
func (p *Pruner) Prune(entity models.EntityWithFamilyVariant, fv *models.FamilyVariant) (int, error) {
	owned, err := p.resolver.AttributesOwnedAt(fv, entity.GetVariationLevel())
	if err != nil {
		return 0, err
	}
	return entity.GetValues().RemoveWhere(func(v models.Value) bool {
		return !owned.Has(v.Attribute)
	}), nil
}

// OwnedValues returns a copy of values restricted to the attributes owned at depth
func (p *Pruner) OwnedValues(values models.ValueCollection, fv *models.FamilyVariant, depth int) (models.ValueCollection, error) {
	owned, err := p.resolver.AttributesOwnedAt(fv, depth)
	if err != nil {
		return nil, err
	}
	kept := make(models.ValueCollection, len(values))
	for key, v := range values {
		if owned.Has(v.Attribute) {
			kept[key] = v
		}
	}
	return kept, nil
}
