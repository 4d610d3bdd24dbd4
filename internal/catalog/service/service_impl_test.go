package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/marugo/torioki/internal/catalog/domain"
	"github.com/marugo/torioki/internal/catalog/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCatalogService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Preset{},
		&domain.FormSettings{},
		&domain.PresetProduct{},
		&domain.Product{},
		&domain.PickupWindow{},
	))

	svc := New(Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
	})
	return svc, db
}

func TestCreatePresetRejectsBlankName(t *testing.T) {
	svc, _ := setupCatalogService(t)

	_, err := svc.CreatePreset(context.Background(), domain.CreatePresetRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestCreateAndListPresets(t *testing.T) {
	svc, _ := setupCatalogService(t)

	created, err := svc.CreatePreset(context.Background(), domain.CreatePresetRequest{Name: " 春の和菓子セット "})
	require.NoError(t, err)
	assert.Equal(t, "春の和菓子セット", created.Name)

	presets, err := svc.ListPresets(context.Background())
	require.NoError(t, err)
	require.Len(t, presets, 1)
	assert.Equal(t, created.ID, presets[0].ID)
}

func TestUpdateFormSettingsUnknownPreset(t *testing.T) {
	svc, _ := setupCatalogService(t)

	_, err := svc.UpdateFormSettings(context.Background(), domain.UpdateFormSettingsRequest{PresetID: 99})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateFormSettingsReplacesExistingRow(t *testing.T) {
	svc, db := setupCatalogService(t)

	preset, err := svc.CreatePreset(context.Background(), domain.CreatePresetRequest{Name: "夏の和菓子セット"})
	require.NoError(t, err)

	_, err = svc.UpdateFormSettings(context.Background(), domain.UpdateFormSettingsRequest{
		PresetID:  preset.ID,
		ShowPrice: true,
		IsEnabled: false,
	})
	require.NoError(t, err)

	second, err := svc.UpdateFormSettings(context.Background(), domain.UpdateFormSettingsRequest{
		PresetID:  preset.ID,
		ShowPrice: false,
		IsEnabled: true,
	})
	require.NoError(t, err)
	assert.True(t, second.IsEnabled)

	var count int64
	require.NoError(t, db.Model(&domain.FormSettings{}).Where("preset_id = ?", preset.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "a staff save keeps exactly one settings row per preset")
}

func TestReplacePresetProductsSwapsLinks(t *testing.T) {
	svc, db := setupCatalogService(t)

	preset, err := svc.CreatePreset(context.Background(), domain.CreatePresetRequest{Name: "秋の和菓子セット"})
	require.NoError(t, err)

	require.NoError(t, svc.ReplacePresetProducts(context.Background(), preset.ID, []domain.PresetProductInput{
		{ProductID: 10, DisplayOrder: 1, IsActive: true},
		{ProductID: 11, DisplayOrder: 2, IsActive: true},
	}))

	require.NoError(t, svc.ReplacePresetProducts(context.Background(), preset.ID, []domain.PresetProductInput{
		{ProductID: 12, DisplayOrder: 1, IsActive: true},
	}))

	var links []domain.PresetProduct
	require.NoError(t, db.Where("preset_id = ?", preset.ID).Find(&links).Error)
	require.Len(t, links, 1)
	assert.EqualValues(t, 12, links[0].ProductID)
}

func TestReplacePickupWindowsRejectsInvertedRange(t *testing.T) {
	svc, _ := setupCatalogService(t)

	preset, err := svc.CreatePreset(context.Background(), domain.CreatePresetRequest{Name: "冬の和菓子セット"})
	require.NoError(t, err)

	start := time.Date(2026, 5, 6, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 29, 0, 0, 0, 0, time.UTC)
	err = svc.ReplacePickupWindows(context.Background(), preset.ID, []domain.PickupWindowInput{
		{PickupStart: start, PickupEnd: end},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)
}

func TestCreateProductDefaultsToVisible(t *testing.T) {
	svc, _ := setupCatalogService(t)

	product, err := svc.CreateProduct(context.Background(), domain.CreateProductRequest{Name: "いちご大福", Price: 398})
	require.NoError(t, err)
	assert.True(t, product.Visible)
}

func TestCreateProductRejectsNegativePrice(t *testing.T) {
	svc, _ := setupCatalogService(t)

	_, err := svc.CreateProduct(context.Background(), domain.CreateProductRequest{Name: "みたらし団子", Price: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestUpdateProductAppliesPartialChanges(t *testing.T) {
	svc, _ := setupCatalogService(t)

	product, err := svc.CreateProduct(context.Background(), domain.CreateProductRequest{Name: "栗きんとん", Price: 800})
	require.NoError(t, err)

	newPrice := int64(850)
	updated, err := svc.UpdateProduct(context.Background(), domain.UpdateProductRequest{
		ID:    product.ID,
		Price: &newPrice,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 850, updated.Price)
	assert.Equal(t, "栗きんとん", updated.Name)
}

func TestSetProductVisibilityHidesFromList(t *testing.T) {
	svc, _ := setupCatalogService(t)

	product, err := svc.CreateProduct(context.Background(), domain.CreateProductRequest{Name: "豆大福", Price: 300})
	require.NoError(t, err)

	hidden, err := svc.SetProductVisibility(context.Background(), product.ID, false)
	require.NoError(t, err)
	assert.False(t, hidden.Visible)

	visible := true
	products, err := svc.ListProducts(context.Background(), domain.ListProductRequest{Visible: &visible})
	require.NoError(t, err)
	assert.Empty(t, products)
}
