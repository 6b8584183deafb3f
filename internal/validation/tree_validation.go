package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"variants-service/internal/models"
	"variants-service/internal/variant"
)

// NodeViolation represents a constraint a tree node breaks
type NodeViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (v NodeViolation) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// NodeViolations is a collection of node violations
type NodeViolations []NodeViolation

func (v NodeViolations) Error() string {
	if len(v) == 0 {
		return ""
	}
	var msgs []string
	for _, violation := range v {
		msgs = append(msgs, violation.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are violations
func (v NodeViolations) HasErrors() bool {
	return len(v) > 0
}

// Count returns the number of violations
func (v NodeViolations) Count() int {
	return len(v)
}

const (
	CodeConstraint        = "CONSTRAINT"
	CodeUnownedValue      = "UNOWNED_VALUE"
	CodeEmptyAxis         = "EMPTY_AXIS"
	CodeDuplicateAxis     = "DUPLICATE_AXIS_COMBINATION"
	CodeWrongLevel        = "WRONG_LEVEL"
	CodeFamilyVariantDiff = "FAMILY_VARIANT_MISMATCH"
)

// TreeValidator checks the nodes of a variant tree before they are saved
type TreeValidator struct {
	validate *validator.Validate
	resolver *variant.Resolver
}

// NewTreeValidator creates a tree validator
func NewTreeValidator(resolver *variant.Resolver) *TreeValidator {
	return &TreeValidator{
		validate: validator.New(),
		resolver: resolver,
	}
}

// Validate returns every violation of the node. An empty result means the node can be saved.
func (tv *TreeValidator) Validate(t *variant.Tree, id variant.NodeID, fv *models.FamilyVariant) variant.Violations {
	node := t.Node(id)
	var violations NodeViolations

	violations = append(violations, tv.validateStruct(node)...)
	violations = append(violations, tv.validateLevel(t, id, fv)...)
	violations = append(violations, tv.validateOwnedValues(node, fv)...)
	violations = append(violations, tv.validateAxes(t, id, fv)...)
	violations = append(violations, validateFamilyVariant(t, id)...)

	return violations
}

func (tv *TreeValidator) validateStruct(node *variant.Node) NodeViolations {
	var err error
	if node.Kind == variant.KindProduct {
		err = tv.validate.Struct(node.Product)
	} else {
		err = tv.validate.Struct(node.Model)
	}
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return NodeViolations{{Field: node.Label(), Message: err.Error(), Code: CodeConstraint}}
	}
	violations := make(NodeViolations, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		violations = append(violations, NodeViolation{
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
			Code:    CodeConstraint,
		})
	}
	return violations
}

// validateLevel requires products at the last level and product models above it
func (tv *TreeValidator) validateLevel(t *variant.Tree, id variant.NodeID, fv *models.FamilyVariant) NodeViolations {
	node := t.Node(id)
	last := tv.resolver.MaxDepth(fv)
	switch {
	case node.Kind == variant.KindProduct && node.Level() != last:
		return NodeViolations{{
			Field:   "level",
			Message: fmt.Sprintf("product must be at level %d of family variant %q", last, fv.Code),
			Code:    CodeWrongLevel,
		}}
	case node.Kind == variant.KindProductModel && node.Level() >= last:
		return NodeViolations{{
			Field:   "level",
			Message: fmt.Sprintf("product model cannot be at the last level of family variant %q", fv.Code),
			Code:    CodeWrongLevel,
		}}
	}
	return nil
}

func (tv *TreeValidator) validateOwnedValues(node *variant.Node, fv *models.FamilyVariant) NodeViolations {
	owned, err := tv.resolver.AttributesOwnedAt(fv, node.Level())
	if err != nil {
		return NodeViolations{{Field: "level", Message: err.Error(), Code: CodeWrongLevel}}
	}
	var violations NodeViolations
	for _, code := range node.Values().AttributeCodes() {
		if !owned.Has(code) {
			violations = append(violations, NodeViolation{
				Field:   "values." + code,
				Message: fmt.Sprintf("attribute is not owned by level %d", node.Level()),
				Code:    CodeUnownedValue,
			})
		}
	}
	return violations
}

// validateAxes requires a value for every axis and a combination unique among siblings
func (tv *TreeValidator) validateAxes(t *variant.Tree, id variant.NodeID, fv *models.FamilyVariant) NodeViolations {
	node := t.Node(id)
	if node.Level() == 0 {
		return nil
	}
	axes, err := tv.resolver.AxesAt(fv, node.Level())
	if err != nil || len(axes) == 0 {
		return nil
	}

	var violations NodeViolations
	for _, axis := range axes.Codes() {
		if axisValue(node.Values(), axis) == "" {
			violations = append(violations, NodeViolation{
				Field:   "values." + axis,
				Message: "variant axis has no value",
				Code:    CodeEmptyAxis,
			})
		}
	}
	if len(violations) > 0 {
		return violations
	}

	combination := axisCombination(node.Values(), axes)
	for _, sibling := range t.Siblings(id) {
		other := t.Node(sibling)
		if other.Kind != node.Kind {
			continue
		}
		if axisCombination(other.Values(), axes) == combination {
			violations = append(violations, NodeViolation{
				Field:   "axes",
				Message: fmt.Sprintf("combination [%s] is already used by %q", combination, other.Label()),
				Code:    CodeDuplicateAxis,
			})
			break
		}
	}
	return violations
}

func validateFamilyVariant(t *variant.Tree, id variant.NodeID) NodeViolations {
	parent := t.Parent(id)
	if parent == variant.NoNode {
		return nil
	}
	node := t.Node(id)
	if expected := t.Node(parent).FamilyVariantCode(); node.FamilyVariantCode() != expected {
		return NodeViolations{{
			Field:   "familyVariantCode",
			Message: fmt.Sprintf("expected %q like the parent, got %q", expected, node.FamilyVariantCode()),
			Code:    CodeFamilyVariantDiff,
		}}
	}
	return nil
}

// axisValue renders the first non-empty value of an axis attribute
func axisValue(values models.ValueCollection, axis string) string {
	for _, v := range values.GetByAttribute(axis) {
		if v.Data == nil {
			continue
		}
		if rendered := strings.TrimSpace(fmt.Sprint(v.Data)); rendered != "" {
			return rendered
		}
	}
	return ""
}

func axisCombination(values models.ValueCollection, axes variant.AttributeSet) string {
	codes := axes.Codes()
	parts := make([]string, 0, len(codes))
	for _, axis := range codes {
		parts = append(parts, axis+"="+axisValue(values, axis))
	}
	return strings.Join(parts, ",")
}
