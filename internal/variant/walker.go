package variant

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"
	"github.com/sirupsen/logrus"
	"variants-service/internal/models"
)

// Violations is the result of validating one node
type Violations interface {
	Count() int
}

// Validator checks the structural validity of a tree node
type Validator interface {
	Validate(t *Tree, id NodeID, fv *models.FamilyVariant) Violations
}

// CompletenessCalculator computes the completeness set of a product from its effective values
type CompletenessCalculator interface {
	Compute(product *models.Product, family *models.Family, values models.ValueCollection) []models.Completeness
}

// Scope holds the definitions a walk resolves nodes against
type Scope struct {
	FamilyVariants map[string]*models.FamilyVariant
	Families       map[string]*models.Family
}

// NewScope creates an empty scope
func NewScope() *Scope {
	return &Scope{
		FamilyVariants: make(map[string]*models.FamilyVariant),
		Families:       make(map[string]*models.Family),
	}
}

// AddFamilyVariant registers a family variant definition
func (s *Scope) AddFamilyVariant(fv *models.FamilyVariant) {
	s.FamilyVariants[fv.Code] = fv
}

// AddFamily registers a family definition
func (s *Scope) AddFamily(f *models.Family) {
	s.Families[f.Code] = f
}

// FamilyVariant returns the family variant registered under code, or nil
func (s *Scope) FamilyVariant(code string) *models.FamilyVariant {
	return s.FamilyVariants[code]
}

// FamilyFor returns the family of a product. The family of a variant product
// derives from its family variant when not set on the product itself.
func (s *Scope) FamilyFor(p *models.Product, fv *models.FamilyVariant) *models.Family {
	if p.FamilyCode != nil {
		return s.Families[*p.FamilyCode]
	}
	if fv != nil {
		return s.Families[fv.FamilyCode]
	}
	return nil
}

// TreeError reports a tree whose shape disagrees with its family variant
type TreeError struct {
	Node  string
	Kind  NodeKind
	Depth int
	Err   error
}

func (e *TreeError) Error() string {
	return fmt.Sprintf("%s %q at depth %d: %v", e.Kind, e.Node, e.Depth, e.Err)
}

func (e *TreeError) Unwrap() error {
	return e.Err
}

// Batch collects the outcome of walking one tree
type Batch struct {
	ProductModels []*models.ProductModel
	Products      []*models.Product
	Skipped       []NodeID
	Invalid       *roaring.Bitmap
	PrunedValues  int
}

func newBatch() *Batch {
	return &Batch{Invalid: roaring.New()}
}

// Len returns the number of valid entities in the batch
func (b *Batch) Len() int {
	return len(b.ProductModels) + len(b.Products)
}

// Walker prunes, computes completeness for and validates every node of a tree,
// children first. Invalid nodes are skipped without stopping the walk.
type Walker struct {
	resolver   *Resolver
	pruner     *Pruner
	validator  Validator
	calculator CompletenessCalculator
	logger     *logrus.Entry
}

// NewWalker creates a tree walker
func NewWalker(resolver *Resolver, validator Validator, calculator CompletenessCalculator, logger *logrus.Entry) *Walker {
	return &Walker{
		resolver:   resolver,
		pruner:     NewPruner(resolver),
		validator:  validator,
		calculator: calculator,
		logger:     logger.WithField("component", "variant-walker"),
	}
}

// Walk processes the whole tree. A TreeError aborts the walk; the returned
// batch then only holds what was processed before the failure.
func (w *Walker) Walk(t *Tree, scope *Scope) (*Batch, error) {
	batch := newBatch()
	if err := w.walk(t, t.Root(), 0, scope, batch); err != nil {
		return batch, err
	}
	return batch, nil
}

func (w *Walker) walk(t *Tree, id NodeID, depth int, scope *Scope, batch *Batch) error {
	node := t.Node(id)
	fv := scope.FamilyVariant(node.FamilyVariantCode())
	if fv == nil {
		return w.treeError(node, depth, fmt.Errorf("%w: family variant %q is not loaded", ErrUnknownLevel, node.FamilyVariantCode()))
	}
	if max := w.resolver.MaxDepth(fv); depth > max {
		return w.treeError(node, depth, fmt.Errorf("%w: family variant %q allows a depth of %d", ErrMalformedTree, fv.Code, max))
	}
	if node.Level() != depth {
		return w.treeError(node, depth, fmt.Errorf("%w: stored level %d", ErrMalformedTree, node.Level()))
	}

	for _, child := range t.Children(id) {
		if err := w.walk(t, child, depth+1, scope, batch); err != nil {
			return err
		}
	}

	return w.process(t, id, depth, fv, scope, batch)
}

func (w *Walker) process(t *Tree, id NodeID, depth int, fv *models.FamilyVariant, scope *Scope, batch *Batch) error {
	node := t.Node(id)

	removed, err := w.pruner.Prune(node.Entity(), fv)
	if err != nil {
		return w.treeError(node, depth, err)
	}
	batch.PrunedValues += removed

	if node.Kind == KindProduct {
		values, err := w.effectiveValues(t, id, scope)
		if err != nil {
			return w.treeError(node, depth, err)
		}
		family := scope.FamilyFor(node.Product, fv)
		node.Product.SetCompletenesses(w.calculator.Compute(node.Product, family, values))
	}

	if violations := w.validator.Validate(t, id, fv); violations != nil && violations.Count() > 0 {
		batch.Skipped = append(batch.Skipped, id)
		batch.Invalid.Add(uint32(id))
		w.logger.WithFields(logrus.Fields{
			"kind":       node.Kind.String(),
			"node":       node.Label(),
			"violations": violations.Count(),
		}).Debug("Skipping invalid node")
		return nil
	}

	switch node.Kind {
	case KindProductModel:
		batch.ProductModels = append(batch.ProductModels, node.Model)
	case KindProduct:
		batch.Products = append(batch.Products, node.Product)
	}
	return nil
}

// effectiveValues merges the node values with the values each ancestor owns at its level
func (w *Walker) effectiveValues(t *Tree, id NodeID, scope *Scope) (models.ValueCollection, error) {
	values := t.Node(id).Values().Clone()
	for _, ancestor := range t.Ancestors(id) {
		node := t.Node(ancestor)
		owned, err := w.pruner.OwnedValues(node.Values(), scope.FamilyVariant(node.FamilyVariantCode()), t.Depth(ancestor))
		if err != nil {
			return nil, err
		}
		values.Merge(owned)
	}
	return values, nil
}

func (w *Walker) treeError(node *Node, depth int, err error) error {
	return &TreeError{Node: node.Label(), Kind: node.Kind, Depth: depth, Err: err}
}
