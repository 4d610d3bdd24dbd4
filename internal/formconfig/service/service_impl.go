package service

import (
	"context"

	catalogdomain "github.com/marugo/torioki/internal/catalog/domain"
	"github.com/marugo/torioki/internal/formconfig/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo catalogdomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo catalogdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("formconfig.service"),
		repo: p.Repo,
	}
}

// Resolve joins form settings, preset, product links, products and pickup
// windows into one FormConfig. Any store failure aborts the whole
// resolution; callers never see a partially filled config.
func (s *Service) Resolve(ctx context.Context, presetID int64) (*domain.FormConfig, error) {
	settingsRows, err := s.repo.ListEnabledFormSettings(ctx, s.db, presetID)
	if err != nil {
		return nil, &domain.ResolutionError{Step: domain.StepFormSettings, Err: err}
	}

	preset, err := s.repo.FindPreset(ctx, s.db, presetID)
	if err != nil {
		return nil, &domain.ResolutionError{Step: domain.StepPreset, Err: err}
	}
	// A missing preset wins over every other outcome, including enabled
	// settings rows pointing at a deleted preset.
	if preset == nil {
		return nil, domain.ErrNotFound
	}

	pick := domain.SettingsPickUnique
	switch len(settingsRows) {
	case 0:
		return nil, domain.ErrDisabled
	case 1:
	default:
		// Rows come back newest-first, so the head is the tie-break
		// winner. Data-quality condition, not an error.
		pick = domain.SettingsPickAmbiguousPickLatest
		s.log.Warn("multiple enabled form settings for preset, picking latest",
			zap.Int64("preset_id", presetID),
			zap.Int("enabled_rows", len(settingsRows)),
			zap.Int64("picked_id", settingsRows[0].ID),
		)
	}
	settings := settingsRows[0]

	links, err := s.repo.ListActivePresetProducts(ctx, s.db, presetID)
	if err != nil {
		return nil, &domain.ResolutionError{Step: domain.StepPresetProducts, Err: err}
	}

	productIDs := make([]int64, 0, len(links))
	for _, link := range links {
		productIDs = append(productIDs, link.ProductID)
	}

	fetched, err := s.repo.ListVisibleProductsByIDs(ctx, s.db, productIDs)
	if err != nil {
		return nil, &domain.ResolutionError{Step: domain.StepProducts, Err: err}
	}

	// The store returns products in its own order; re-sort into the
	// display_order sequence captured from the links.
	byID := make(map[int64]catalogdomain.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}
	products := make([]catalogdomain.Product, 0, len(links))
	for _, link := range links {
		if p, ok := byID[link.ProductID]; ok {
			products = append(products, p)
		}
	}

	windows, err := s.repo.ListPickupWindows(ctx, s.db, presetID)
	if err != nil {
		return nil, &domain.ResolutionError{Step: domain.StepPickupWindows, Err: err}
	}

	// Attach products from the set fetched above, never a fresh read, so
	// a concurrent admin edit cannot split the two views.
	views := make([]domain.PickupWindowView, 0, len(windows))
	for _, w := range windows {
		view := domain.PickupWindowView{PickupWindow: w}
		if w.ProductID != nil {
			if p, ok := byID[*w.ProductID]; ok {
				product := p
				view.Product = &product
			}
		}
		views = append(views, view)
	}

	return &domain.FormConfig{
		Preset:        *preset,
		Settings:      settings,
		SettingsPick:  pick,
		Products:      products,
		PickupWindows: views,
	}, nil
}
