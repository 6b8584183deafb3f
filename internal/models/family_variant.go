package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// VariationLevel is one depth layer of a family variant tree.
// Level 0 holds the common attributes shared by the whole tree.
type VariationLevel struct {
	Attributes CodeList `json:"attributes"`
	Axes       CodeList `json:"axes,omitempty"`
}

// VariationLevels type for PostgreSQL JSONB (ordered list of levels)
type VariationLevels []VariationLevel

func (l VariationLevels) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]VariationLevel{})
	}
	return json.Marshal([]VariationLevel(l))
}

func (l *VariationLevels) Scan(value interface{}) error {
	if value == nil {
		*l = make(VariationLevels, 0)
		return nil
	}
	bytes, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, (*[]VariationLevel)(l))
}

// FamilyVariant splits the attributes of a family across variation levels
type FamilyVariant struct {
	Code       string          `json:"code" gorm:"primaryKey;size:100"`
	FamilyCode string          `json:"familyCode" gorm:"not null;index"`
	Levels     VariationLevels `json:"levels" gorm:"type:jsonb"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Validate checks that every attribute code is owned by exactly one level
// and that axes are owned by the level declaring them.
func (fv *FamilyVariant) Validate() error {
	if len(fv.Levels) == 0 {
		return fmt.Errorf("family variant %q has no variation levels", fv.Code)
	}
	owner := make(map[string]int)
	for i, level := range fv.Levels {
		for _, code := range level.Attributes {
			if prev, ok := owner[code]; ok {
				return fmt.Errorf("family variant %q: attribute %q is owned by levels %d and %d", fv.Code, code, prev, i)
			}
			owner[code] = i
		}
		for _, axis := range level.Axes {
			if !level.Attributes.Contains(axis) {
				return fmt.Errorf("family variant %q: axis %q is not an attribute of level %d", fv.Code, axis, i)
			}
		}
	}
	if len(fv.Levels[0].Axes) > 0 {
		return fmt.Errorf("family variant %q: the common level cannot declare axes", fv.Code)
	}
	return nil
}
