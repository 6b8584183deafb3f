package variant

import (
	"fmt"

	"variants-service/internal/models"
)

// NodeID addresses a node inside a Tree
type NodeID int

// NoNode is the parent of the root
const NoNode NodeID = -1

// NodeKind tells which entity a node carries
type NodeKind uint8

const (
	KindProductModel NodeKind = iota
	KindProduct
)

func (k NodeKind) String() string {
	switch k {
	case KindProductModel:
		return "product_model"
	case KindProduct:
		return "product"
	default:
		return "unknown"
	}
}

// Node is one entry of the arena. Exactly one of Model and Product is set, matching Kind.
type Node struct {
	Kind     NodeKind
	Model    *models.ProductModel
	Product  *models.Product
	children []NodeID
}

// Entity returns the node entity through the shared interface
func (n *Node) Entity() models.EntityWithFamilyVariant {
	if n.Kind == KindProduct {
		return n.Product
	}
	return n.Model
}

// Label returns the product model code or the product identifier
func (n *Node) Label() string {
	if n.Kind == KindProduct {
		return n.Product.Identifier
	}
	return n.Model.Code
}

func (n *Node) Values() models.ValueCollection { return n.Entity().GetValues() }
func (n *Node) Level() int                     { return n.Entity().GetVariationLevel() }
func (n *Node) FamilyVariantCode() string      { return n.Entity().GetFamilyVariantCode() }

// Tree is an arena holding one product model tree. Nodes are addressed by
// index; parents are kept as back references and never own their children.
type Tree struct {
	nodes   []Node
	parents []NodeID
}

// NewTree starts a tree rooted at the given product model
func NewTree(root *models.ProductModel) *Tree {
	t := &Tree{}
	t.nodes = append(t.nodes, Node{Kind: KindProductModel, Model: root})
	t.parents = append(t.parents, NoNode)
	return t
}

// Root returns the id of the root node
func (t *Tree) Root() NodeID { return 0 }

// Len returns the number of nodes in the tree
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node with the given id
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Children returns the child ids of a node in insertion order
func (t *Tree) Children(id NodeID) []NodeID {
	return t.nodes[id].children
}

// Parent returns the parent id of a node, or NoNode for the root
func (t *Tree) Parent(id NodeID) NodeID {
	return t.parents[id]
}

// Depth returns the distance from the root
func (t *Tree) Depth(id NodeID) int {
	depth := 0
	for p := t.parents[id]; p != NoNode; p = t.parents[p] {
		depth++
	}
	return depth
}

// Ancestors returns the ids from the parent of the node up to the root
func (t *Tree) Ancestors(id NodeID) []NodeID {
	var ancestors []NodeID
	for p := t.parents[id]; p != NoNode; p = t.parents[p] {
		ancestors = append(ancestors, p)
	}
	return ancestors
}

// Siblings returns the other children of the node's parent
func (t *Tree) Siblings(id NodeID) []NodeID {
	parent := t.parents[id]
	if parent == NoNode {
		return nil
	}
	siblings := make([]NodeID, 0, len(t.nodes[parent].children))
	for _, child := range t.nodes[parent].children {
		if child != id {
			siblings = append(siblings, child)
		}
	}
	return siblings
}

// AddProductModel attaches a sub product model under parent
func (t *Tree) AddProductModel(parent NodeID, pm *models.ProductModel) (NodeID, error) {
	if err := t.checkParent(parent, KindProductModel); err != nil {
		return NoNode, fmt.Errorf("cannot attach product model %q: %w", pm.Code, err)
	}
	return t.add(parent, Node{Kind: KindProductModel, Model: pm}), nil
}

// AddProduct attaches a product under parent
func (t *Tree) AddProduct(parent NodeID, p *models.Product) (NodeID, error) {
	if err := t.checkParent(parent, KindProduct); err != nil {
		return NoNode, fmt.Errorf("cannot attach product %q: %w", p.Identifier, err)
	}
	return t.add(parent, Node{Kind: KindProduct, Product: p}), nil
}

// Walk visits every node depth-first, children before their parent
func (t *Tree) Walk(fn func(id NodeID) error) error {
	return t.postOrder(t.Root(), fn)
}

func (t *Tree) postOrder(id NodeID, fn func(id NodeID) error) error {
	for _, child := range t.nodes[id].children {
		if err := t.postOrder(child, fn); err != nil {
			return err
		}
	}
	return fn(id)
}

func (t *Tree) checkParent(parent NodeID, kind NodeKind) error {
	if parent < 0 || int(parent) >= len(t.nodes) {
		return fmt.Errorf("%w: unknown parent node %d", ErrMalformedTree, parent)
	}
	p := &t.nodes[parent]
	if p.Kind == KindProduct {
		return fmt.Errorf("%w: product %q cannot have children", ErrMalformedTree, p.Label())
	}
	if len(p.children) > 0 && t.nodes[p.children[0]].Kind != kind {
		return fmt.Errorf("%w: product model %q cannot mix product models and products", ErrMalformedTree, p.Label())
	}
	return nil
}

func (t *Tree) add(parent NodeID, node Node) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node)
	t.parents = append(t.parents, parent)
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	return id
}
