package models

import "time"

// AttributeType represents the kind of data an attribute holds
type AttributeType string

const (
	AttributeTypeIdentifier   AttributeType = "identifier"
	AttributeTypeText         AttributeType = "text"
	AttributeTypeTextarea     AttributeType = "textarea"
	AttributeTypeNumber       AttributeType = "number"
	AttributeTypeBoolean      AttributeType = "boolean"
	AttributeTypeSimpleSelect AttributeType = "simpleselect"
	AttributeTypeMultiSelect  AttributeType = "multiselect"
	AttributeTypePrice        AttributeType = "price_collection"
	AttributeTypeMetric       AttributeType = "metric"
	AttributeTypeMedia        AttributeType = "media"
)

// Attribute describes a catalog attribute and where its values apply
type Attribute struct {
	Code        string        `json:"code" gorm:"primaryKey;size:100"`
	Type        AttributeType `json:"type" gorm:"not null;default:'text'"`
	Localizable bool          `json:"localizable" gorm:"not null;default:false"`
	Scopable    bool          `json:"scopable" gorm:"not null;default:false"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Channel is a publication target with its own locales and currencies
type Channel struct {
	Code       string    `json:"code" gorm:"primaryKey;size:100"`
	Locales    CodeList  `json:"locales" gorm:"type:jsonb"`
	Currencies CodeList  `json:"currencies" gorm:"type:jsonb"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AttributeRequirement tells whether an attribute must be filled for a channel
type AttributeRequirement struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	FamilyCode    string     `json:"familyCode" gorm:"not null;index:idx_requirements_family_channel"`
	ChannelCode   string     `json:"channelCode" gorm:"not null;index:idx_requirements_family_channel"`
	AttributeCode string     `json:"attributeCode" gorm:"not null"`
	Required      bool       `json:"required" gorm:"not null"`
	Channel       *Channel   `json:"channel,omitempty" gorm:"foreignKey:ChannelCode;references:Code"`
	Attribute     *Attribute `json:"attribute,omitempty" gorm:"foreignKey:AttributeCode;references:Code"`
}

// Family groups products sharing the same attribute requirements
type Family struct {
	Code         string                 `json:"code" gorm:"primaryKey;size:100"`
	Label        *string                `json:"label,omitempty"`
	Requirements []AttributeRequirement `json:"requirements,omitempty" gorm:"foreignKey:FamilyCode;references:Code"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}
