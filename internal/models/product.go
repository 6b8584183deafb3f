package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntityWithFamilyVariant is implemented by every node of a variant tree
type EntityWithFamilyVariant interface {
	GetFamilyVariantCode() string
	GetVariationLevel() int
	GetValues() ValueCollection
	GetParentID() *uuid.UUID
}

// ProductModel is an inner node of a variant tree. Its children are either
// sub product models or products, never both.
type ProductModel struct {
	ID                uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Code              string          `json:"code" gorm:"not null;uniqueIndex" validate:"required,max=255"`
	FamilyVariantCode string          `json:"familyVariantCode" gorm:"not null;index" validate:"required"`
	ParentID          *uuid.UUID      `json:"parentId,omitempty" gorm:"type:uuid;index"`
	Level             int             `json:"level" gorm:"not null;default:0" validate:"gte=0"`
	Values            ValueCollection `json:"values" gorm:"type:jsonb"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

func (pm *ProductModel) BeforeCreate(tx *gorm.DB) error {
	if pm.ID == uuid.Nil {
		pm.ID = uuid.New()
	}
	return nil
}

func (pm *ProductModel) GetFamilyVariantCode() string { return pm.FamilyVariantCode }
func (pm *ProductModel) GetVariationLevel() int       { return pm.Level }
func (pm *ProductModel) GetParentID() *uuid.UUID      { return pm.ParentID }

func (pm *ProductModel) GetValues() ValueCollection {
	if pm.Values == nil {
		pm.Values = make(ValueCollection)
	}
	return pm.Values
}

// Product is a leaf of a variant tree (or a standalone product when it has no parent)
type Product struct {
	ID                uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Identifier        string          `json:"identifier" gorm:"not null;uniqueIndex" validate:"required,max=255"`
	FamilyCode        *string         `json:"familyCode,omitempty" gorm:"index"`
	FamilyVariantCode *string         `json:"familyVariantCode,omitempty" gorm:"index"`
	ParentID          *uuid.UUID      `json:"parentId,omitempty" gorm:"type:uuid;index"`
	Level             int             `json:"level" gorm:"not null;default:0" validate:"gte=0"`
	Values            ValueCollection `json:"values" gorm:"type:jsonb"`
	Completenesses    []Completeness  `json:"completenesses,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" validate:"dive"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Product) GetVariationLevel() int  { return p.Level }
func (p *Product) GetParentID() *uuid.UUID { return p.ParentID }

func (p *Product) GetFamilyVariantCode() string {
	if p.FamilyVariantCode == nil {
		return ""
	}
	return *p.FamilyVariantCode
}

func (p *Product) GetValues() ValueCollection {
	if p.Values == nil {
		p.Values = make(ValueCollection)
	}
	return p.Values
}

// IsVariant reports whether the product belongs to a variant tree
func (p *Product) IsVariant() bool {
	return p.ParentID != nil
}

// SetCompletenesses replaces the whole completeness set of the product
func (p *Product) SetCompletenesses(completenesses []Completeness) {
	for i := range completenesses {
		completenesses[i].ProductID = p.ID
	}
	p.Completenesses = completenesses
}

// Completeness tells how many required values a product misses for a channel and locale
type Completeness struct {
	ID            uint      `json:"-" gorm:"primaryKey"`
	ProductID     uuid.UUID `json:"productId" gorm:"type:uuid;not null;index:idx_completeness_product_channel_locale,unique"`
	ChannelCode   string    `json:"channel" gorm:"not null;index:idx_completeness_product_channel_locale,unique" validate:"required"`
	LocaleCode    string    `json:"locale" gorm:"not null;index:idx_completeness_product_channel_locale,unique" validate:"required"`
	MissingCount  int       `json:"missingCount" gorm:"not null" validate:"gte=0,ltefield=RequiredCount"`
	RequiredCount int       `json:"requiredCount" gorm:"not null" validate:"gte=0"`
}

// IsComplete reports whether nothing is missing
func (c Completeness) IsComplete() bool {
	return c.MissingCount == 0
}

// Ratio returns the completeness percentage. A channel without requirements is complete.
func (c Completeness) Ratio() int {
	if c.RequiredCount == 0 {
		return 100
	}
	return (c.RequiredCount - c.MissingCount) * 100 / c.RequiredCount
}

// ProductCompleteness is the API representation of a product completeness set
type ProductCompleteness struct {
	Identifier     string                `json:"identifier"`
	Completenesses []CompletenessSummary `json:"completenesses"`
}

// CompletenessSummary adds derived fields to a completeness record
type CompletenessSummary struct {
	Channel       string `json:"channel"`
	Locale        string `json:"locale"`
	MissingCount  int    `json:"missingCount"`
	RequiredCount int    `json:"requiredCount"`
	Ratio         int    `json:"ratio"`
	Complete      bool   `json:"complete"`
}

// NewProductCompleteness builds the API view of a product completeness set
func NewProductCompleteness(product *Product) *ProductCompleteness {
	view := &ProductCompleteness{
		Identifier:     product.Identifier,
		Completenesses: make([]CompletenessSummary, 0, len(product.Completenesses)),
	}
	for _, c := range product.Completenesses {
		view.Completenesses = append(view.Completenesses, CompletenessSummary{
			Channel:       c.ChannelCode,
			Locale:        c.LocaleCode,
			MissingCount:  c.MissingCount,
			RequiredCount: c.RequiredCount,
			Ratio:         c.Ratio(),
			Complete:      c.IsComplete(),
		})
	}
	return view
}

// TableName specifies the table name for Completeness
func (Completeness) TableName() string {
	return "completenesses"
}
