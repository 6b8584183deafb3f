package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"variants-service/internal/config"
	"variants-service/internal/models"
)

// setupTestDB creates an in-memory SQLite database with the catalog schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// every connection to :memory: is a new database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))
	return db
}

// seedCatalog stores the shoes family, one family variant and its channel
func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()

	require.NoError(t, db.Create(&models.Channel{Code: "ecommerce", Locales: models.CodeList{"en_US", "fr_FR"}, Currencies: models.CodeList{"EUR"}}).Error)
	require.NoError(t, db.Create(&[]models.Attribute{
		{Code: "name", Type: models.AttributeTypeText, Localizable: true},
		{Code: "color", Type: models.AttributeTypeSimpleSelect},
		{Code: "size", Type: models.AttributeTypeSimpleSelect},
	}).Error)
	require.NoError(t, db.Create(&models.Family{Code: "shoes"}).Error)
	require.NoError(t, db.Create(&[]models.AttributeRequirement{
		{FamilyCode: "shoes", ChannelCode: "ecommerce", AttributeCode: "name", Required: true},
		{FamilyCode: "shoes", ChannelCode: "ecommerce", AttributeCode: "size", Required: true},
		{FamilyCode: "shoes", ChannelCode: "ecommerce", AttributeCode: "color", Required: false},
	}).Error)
	require.NoError(t, db.Create(&models.FamilyVariant{
		Code:       "shoes_color_size",
		FamilyCode: "shoes",
		Levels: models.VariationLevels{
			{Attributes: models.CodeList{"name"}},
			{Attributes: models.CodeList{"color"}, Axes: models.CodeList{"color"}},
			{Attributes: models.CodeList{"size"}, Axes: models.CodeList{"size"}},
		},
	}).Error)
}

func createModel(t *testing.T, db *gorm.DB, code string, parent *models.ProductModel, level int, values ...models.Value) *models.ProductModel {
	t.Helper()
	pm := &models.ProductModel{
		Code:              code,
		FamilyVariantCode: "shoes_color_size",
		Level:             level,
		Values:            models.NewValueCollection(values...),
	}
	if parent != nil {
		pm.ParentID = &parent.ID
	}
	require.NoError(t, db.Create(pm).Error)
	return pm
}

func createProduct(t *testing.T, db *gorm.DB, identifier string, parent *models.ProductModel, values ...models.Value) *models.Product {
	t.Helper()
	family := "shoes"
	fv := "shoes_color_size"
	p := &models.Product{
		Identifier:        identifier,
		FamilyCode:        &family,
		FamilyVariantCode: &fv,
		Level:             2,
		Values:            models.NewValueCollection(values...),
	}
	if parent != nil {
		p.ParentID = &parent.ID
		p.Level = parent.Level + 1
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func text(attribute, data string) models.Value {
	return models.Value{Attribute: attribute, Data: data}
}
