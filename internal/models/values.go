package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	// AllChannels and AllLocales replace an empty scope/locale in value keys
	AllChannels = "<all_channels>"
	AllLocales  = "<all_locales>"
)

// CodeList type for PostgreSQL JSONB (ordered list of codes)
type CodeList []string

func (c CodeList) Value() (driver.Value, error) {
	if c == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(c))
}

func (c *CodeList) Scan(value interface{}) error {
	if value == nil {
		*c = make(CodeList, 0)
		return nil
	}
	bytes, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, (*[]string)(c))
}

// Contains reports whether code is part of the list
func (c CodeList) Contains(code string) bool {
	for _, item := range c {
		if item == code {
			return true
		}
	}
	return false
}

// Value is a single attribute value, optionally scoped to a channel and localized
type Value struct {
	Attribute string      `json:"attribute"`
	Scope     string      `json:"scope,omitempty"`
	Locale    string      `json:"locale,omitempty"`
	Data      interface{} `json:"data"`
}

// Key returns the storage key of the value, e.g. "description-ecommerce-en_US"
func (v Value) Key() string {
	return ValueKey(v.Attribute, v.Scope, v.Locale)
}

// ValueKey builds the key for an attribute code and an optional scope and locale
func ValueKey(attribute, scope, locale string) string {
	if scope == "" {
		scope = AllChannels
	}
	if locale == "" {
		locale = AllLocales
	}
	return attribute + "-" + scope + "-" + locale
}

// ValueCollection holds the values of an entity, indexed by value key.
// Stored as a JSONB array sorted by key.
type ValueCollection map[string]Value

// NewValueCollection builds a collection from a list of values
func NewValueCollection(values ...Value) ValueCollection {
	collection := make(ValueCollection, len(values))
	for _, v := range values {
		collection.Add(v)
	}
	return collection
}

// Add sets a value, replacing any existing value with the same key
func (c ValueCollection) Add(v Value) {
	c[v.Key()] = v
}

// Get returns the value for an attribute in the given scope and locale
func (c ValueCollection) Get(attribute, scope, locale string) (Value, bool) {
	v, ok := c[ValueKey(attribute, scope, locale)]
	return v, ok
}

// GetByAttribute returns every value of the given attribute
func (c ValueCollection) GetByAttribute(attribute string) []Value {
	var found []Value
	for _, key := range c.Keys() {
		if v := c[key]; v.Attribute == attribute {
			found = append(found, v)
		}
	}
	return found
}

// RemoveWhere deletes the values matching the predicate and returns how many were removed
func (c ValueCollection) RemoveWhere(fn func(Value) bool) int {
	removed := 0
	for key, v := range c {
		if fn(v) {
			delete(c, key)
			removed++
		}
	}
	return removed
}

// AttributeCodes returns the distinct attribute codes present, sorted
func (c ValueCollection) AttributeCodes() []string {
	seen := make(map[string]struct{}, len(c))
	codes := make([]string, 0, len(c))
	for _, v := range c {
		if _, ok := seen[v.Attribute]; ok {
			continue
		}
		seen[v.Attribute] = struct{}{}
		codes = append(codes, v.Attribute)
	}
	sort.Strings(codes)
	return codes
}

// Keys returns the value keys sorted
func (c ValueCollection) Keys() []string {
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of the collection
func (c ValueCollection) Clone() ValueCollection {
	clone := make(ValueCollection, len(c))
	for key, v := range c {
		clone[key] = v
	}
	return clone
}

// Merge copies every value of other into c without overwriting existing keys
func (c ValueCollection) Merge(other ValueCollection) {
	for key, v := range other {
		if _, exists := c[key]; !exists {
			c[key] = v
		}
	}
}

func (c ValueCollection) MarshalJSON() ([]byte, error) {
	list := make([]Value, 0, len(c))
	for _, key := range c.Keys() {
		list = append(list, c[key])
	}
	return json.Marshal(list)
}

func (c *ValueCollection) UnmarshalJSON(data []byte) error {
	var list []Value
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*c = NewValueCollection(list...)
	return nil
}

func (c ValueCollection) Value() (driver.Value, error) {
	return c.MarshalJSON()
}

func (c *ValueCollection) Scan(value interface{}) error {
	if value == nil {
		*c = make(ValueCollection)
		return nil
	}
	bytes, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return c.UnmarshalJSON(bytes)
}

func (c ValueCollection) String() string {
	return "[" + strings.Join(c.Keys(), ", ") + "]"
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSON column type %T", value)
	}
}
