package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	catalogdomain "github.com/marugo/torioki/internal/catalog/domain"
	catalogrepo "github.com/marugo/torioki/internal/catalog/repository"
	"github.com/marugo/torioki/internal/formconfig/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupFormConfigService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(
		&catalogdomain.Preset{},
		&catalogdomain.FormSettings{},
		&catalogdomain.PresetProduct{},
		&catalogdomain.Product{},
		&catalogdomain.PickupWindow{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := New(Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: catalogrepo.Provide(),
	})
	return svc, db
}

func seedForm(t *testing.T, db *gorm.DB) {
	t.Helper()

	mustCreate := func(value any) {
		if err := db.Create(value).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	mustCreate(&catalogdomain.Preset{ID: 1, Name: "春の和菓子セット"})
	mustCreate(&catalogdomain.FormSettings{
		ID:        1,
		PresetID:  1,
		ShowPrice: true,
		IsEnabled: true,
	})

	mustCreate(&catalogdomain.Product{ID: 10, Name: "いちご大福", Price: 398, Visible: true})
	mustCreate(&catalogdomain.Product{ID: 11, Name: "みたらし団子", Price: 250, Visible: true})
	// gorm skips zero-value fields with a default tag on Create, so the
	// column's default:true would win; set visible=false explicitly.
	mustCreate(&catalogdomain.Product{ID: 12, Name: "栗きんとん", Price: 800, Visible: false})
	if err := db.Model(&catalogdomain.Product{}).Where("id = ?", 12).Update("visible", false).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Link order deliberately disagrees with product IDs so the re-sort
	// into display_order is observable.
	mustCreate(&catalogdomain.PresetProduct{ID: 1, PresetID: 1, ProductID: 11, DisplayOrder: 1, IsActive: true})
	mustCreate(&catalogdomain.PresetProduct{ID: 2, PresetID: 1, ProductID: 10, DisplayOrder: 2, IsActive: true})
	mustCreate(&catalogdomain.PresetProduct{ID: 3, PresetID: 1, ProductID: 12, DisplayOrder: 3, IsActive: true})
}

func TestResolveBuildsCompleteConfig(t *testing.T) {
	svc, db := setupFormConfigService(t)
	seedForm(t, db)

	windowPrice := int64(350)
	productID := int64(10)
	if err := db.Create(&catalogdomain.PickupWindow{
		ID:          1,
		PresetID:    1,
		ProductID:   &productID,
		PickupStart: time.Date(2026, 4, 29, 0, 0, 0, 0, time.UTC),
		PickupEnd:   time.Date(2026, 5, 6, 0, 0, 0, 0, time.UTC),
		Price:       &windowPrice,
	}).Error; err != nil {
		t.Fatalf("seed window: %v", err)
	}

	cfg, err := svc.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if cfg.Preset.Name != "春の和菓子セット" {
		t.Fatalf("unexpected preset %q", cfg.Preset.Name)
	}
	if cfg.SettingsPick != domain.SettingsPickUnique {
		t.Fatalf("expected unique settings pick, got %q", cfg.SettingsPick)
	}

	// Hidden product 12 drops out; the rest follow display_order.
	if len(cfg.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(cfg.Products))
	}
	if cfg.Products[0].ID != 11 || cfg.Products[1].ID != 10 {
		t.Fatalf("products out of display order: %d, %d", cfg.Products[0].ID, cfg.Products[1].ID)
	}

	if len(cfg.PickupWindows) != 1 {
		t.Fatalf("expected 1 pickup window, got %d", len(cfg.PickupWindows))
	}
	view := cfg.PickupWindows[0]
	if view.Product == nil || view.Product.ID != 10 {
		t.Fatalf("expected window product 10, got %+v", view.Product)
	}
	if view.Price == nil || *view.Price != 350 {
		t.Fatalf("expected window price 350, got %+v", view.Price)
	}
}

func TestResolveUnknownPresetWinsOverEnabledSettings(t *testing.T) {
	svc, db := setupFormConfigService(t)

	// Enabled settings pointing at a preset that does not exist.
	if err := db.Create(&catalogdomain.FormSettings{ID: 1, PresetID: 99, IsEnabled: true}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := svc.Resolve(context.Background(), 99)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveDisabledWithoutEnabledSettings(t *testing.T) {
	svc, db := setupFormConfigService(t)

	if err := db.Create(&catalogdomain.Preset{ID: 1, Name: "冬の和菓子セット"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Create(&catalogdomain.FormSettings{ID: 1, PresetID: 1, IsEnabled: false}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := svc.Resolve(context.Background(), 1)
	if !errors.Is(err, domain.ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestResolveAmbiguousSettingsPicksLatest(t *testing.T) {
	svc, db := setupFormConfigService(t)

	if err := db.Create(&catalogdomain.Preset{ID: 1, Name: "夏の和菓子セット"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	older := catalogdomain.FormSettings{
		ID:        1,
		PresetID:  1,
		IsEnabled: true,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := catalogdomain.FormSettings{
		ID:        2,
		PresetID:  1,
		IsEnabled: true,
		ShowPrice: true,
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&older).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Create(&newer).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg, err := svc.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.SettingsPick != domain.SettingsPickAmbiguousPickLatest {
		t.Fatalf("expected ambiguous pick, got %q", cfg.SettingsPick)
	}
	if cfg.Settings.ID != 2 {
		t.Fatalf("expected latest settings row 2, got %d", cfg.Settings.ID)
	}
}

func TestResolveEmptyPresetStillRenders(t *testing.T) {
	svc, db := setupFormConfigService(t)

	if err := db.Create(&catalogdomain.Preset{ID: 1, Name: "準備中セット"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Create(&catalogdomain.FormSettings{ID: 1, PresetID: 1, IsEnabled: true}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg, err := svc.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(cfg.Products) != 0 || len(cfg.PickupWindows) != 0 {
		t.Fatalf("expected empty product and window sets, got %d/%d", len(cfg.Products), len(cfg.PickupWindows))
	}
}
