package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"variants-service/internal/models"
)

// ErrNotFound is returned when a looked up record does not exist
var ErrNotFound = errors.New("record not found")

type FamilyRepository struct {
	db       *gorm.DB
	identity *IdentityMap
}

func NewFamilyRepository(db *gorm.DB, identity *IdentityMap) *FamilyRepository {
	if identity == nil {
		identity = NewIdentityMap()
	}
	return &FamilyRepository{db: db, identity: identity}
}

// FindByCode returns the family with its requirements, channels and attributes.
// A missing family yields nil without error.
func (r *FamilyRepository) FindByCode(ctx context.Context, code string) (*models.Family, error) {
	if family, ok := r.identity.Family(code); ok {
		return family, nil
	}

	var family models.Family
	err := r.db.WithContext(ctx).
		Preload("Requirements", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Requirements.Channel").
		Preload("Requirements.Attribute").
		Where("code = ?", code).
		First(&family).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.identity.PutFamily(&family)
	return &family, nil
}

// FindVariantsByFamily returns the family variants of a family, ordered by code
func (r *FamilyRepository) FindVariantsByFamily(ctx context.Context, familyCode string) ([]*models.FamilyVariant, error) {
	var variants []*models.FamilyVariant
	if err := r.db.WithContext(ctx).Where("family_code = ?", familyCode).Order("code ASC").Find(&variants).Error; err != nil {
		return nil, err
	}
	for _, fv := range variants {
		r.identity.PutFamilyVariant(fv)
	}
	return variants, nil
}

// FindVariantsByCode returns the family variants found among codes, ordered by code
func (r *FamilyRepository) FindVariantsByCode(ctx context.Context, codes []string) ([]*models.FamilyVariant, error) {
	if len(codes) == 0 {
		return []*models.FamilyVariant{}, nil
	}
	var variants []*models.FamilyVariant
	if err := r.db.WithContext(ctx).Where("code IN ?", codes).Order("code ASC").Find(&variants).Error; err != nil {
		return nil, err
	}
	for _, fv := range variants {
		r.identity.PutFamilyVariant(fv)
	}
	return variants, nil
}

// FindChannels returns every channel ordered by code
func (r *FamilyRepository) FindChannels(ctx context.Context) ([]models.Channel, error) {
	var channels []models.Channel
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}
