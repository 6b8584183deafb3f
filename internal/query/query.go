// Package query describes the product model searches the recomputation jobs
// run, independently from the storage that executes them.
package query

import (
	"context"
	"errors"
	"fmt"

	"variants-service/internal/models"
)

// Operator is a filter comparison
type Operator string

const (
	OperatorEquals     Operator = "EQUALS"
	OperatorIn         Operator = "IN"
	OperatorIsEmpty    Operator = "IS_EMPTY"
	OperatorIsNotEmpty Operator = "IS_NOT_EMPTY"
)

// Filterable fields
const (
	FieldFamily        = "family"
	FieldFamilyVariant = "family_variant"
	FieldParent        = "parent"
	FieldCode          = "code"
)

// ErrUnsupportedFilter is returned for an unknown field or an operator the field does not accept
var ErrUnsupportedFilter = errors.New("unsupported filter")

var supported = map[string][]Operator{
	FieldFamily:        {OperatorEquals, OperatorIn},
	FieldFamilyVariant: {OperatorEquals, OperatorIn},
	FieldParent:        {OperatorIsEmpty, OperatorIsNotEmpty},
	FieldCode:          {OperatorEquals, OperatorIn},
}

// Filter is one condition of a search
type Filter struct {
	Field    string
	Operator Operator
	Value    interface{}
}

// NewFilter checks the field/operator pair and the value shape
func NewFilter(field string, op Operator, value interface{}) (Filter, error) {
	ops, ok := supported[field]
	if !ok {
		return Filter{}, fmt.Errorf("%w: unknown field %q", ErrUnsupportedFilter, field)
	}
	allowed := false
	for _, candidate := range ops {
		if candidate == op {
			allowed = true
			break
		}
	}
	if !allowed {
		return Filter{}, fmt.Errorf("%w: operator %s on field %q", ErrUnsupportedFilter, op, field)
	}

	switch op {
	case OperatorEquals:
		if _, ok := value.(string); !ok {
			return Filter{}, fmt.Errorf("%w: %s on %q expects a string, got %T", ErrUnsupportedFilter, op, field, value)
		}
	case OperatorIn:
		if _, ok := value.([]string); !ok {
			return Filter{}, fmt.Errorf("%w: %s on %q expects a list of strings, got %T", ErrUnsupportedFilter, op, field, value)
		}
	}
	return Filter{Field: field, Operator: op, Value: value}, nil
}

// Strings returns the filter value as a list
func (f Filter) Strings() []string {
	switch v := f.Value.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	default:
		return nil
	}
}

// Cursor iterates lazily over search results
type Cursor interface {
	Next(ctx context.Context) bool
	Current() *models.ProductModel
	Err() error
	Close() error
}

// Builder accumulates filters and executes the search
type Builder interface {
	AddFilter(field string, op Operator, value interface{}) error
	Execute(ctx context.Context) (Cursor, error)
}

// BuilderFactory creates a fresh builder for each search
type BuilderFactory interface {
	Create() Builder
}
