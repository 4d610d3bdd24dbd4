package service

import (
	"context"
	"strings"
	"time"

	"github.com/marugo/torioki/internal/catalog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("catalog.service"),
		repo: p.Repo,
	}
}

func (s *Service) CreatePreset(ctx context.Context, req domain.CreatePresetRequest) (domain.Preset, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Preset{}, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	preset := domain.Preset{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertPreset(ctx, s.db, &preset); err != nil {
		return domain.Preset{}, err
	}
	return preset, nil
}

func (s *Service) ListPresets(ctx context.Context) ([]domain.Preset, error) {
	return s.repo.ListPresets(ctx, s.db)
}

func (s *Service) UpdateFormSettings(ctx context.Context, req domain.UpdateFormSettingsRequest) (domain.FormSettings, error) {
	if req.PresetID <= 0 {
		return domain.FormSettings{}, domain.ErrInvalidPresetID
	}
	preset, err := s.repo.FindPreset(ctx, s.db, req.PresetID)
	if err != nil {
		return domain.FormSettings{}, err
	}
	if preset == nil {
		return domain.FormSettings{}, domain.ErrNotFound
	}

	now := time.Now().UTC()
	settings := domain.FormSettings{
		PresetID:        req.PresetID,
		ShowPrice:       req.ShowPrice,
		RequirePhone:    req.RequirePhone,
		RequireFurigana: req.RequireFurigana,
		AllowNote:       req.AllowNote,
		IsEnabled:       req.IsEnabled,
		CustomMessage:   req.CustomMessage,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.UpsertFormSettings(ctx, s.db, &settings); err != nil {
		return domain.FormSettings{}, err
	}
	return settings, nil
}

func (s *Service) ReplacePresetProducts(ctx context.Context, presetID int64, inputs []domain.PresetProductInput) error {
	if presetID <= 0 {
		return domain.ErrInvalidPresetID
	}
	preset, err := s.repo.FindPreset(ctx, s.db, presetID)
	if err != nil {
		return err
	}
	if preset == nil {
		return domain.ErrNotFound
	}

	now := time.Now().UTC()
	links := make([]domain.PresetProduct, 0, len(inputs))
	for _, in := range inputs {
		if in.ProductID <= 0 {
			return domain.ErrInvalidProduct
		}
		links = append(links, domain.PresetProduct{
			PresetID:     presetID,
			ProductID:    in.ProductID,
			DisplayOrder: in.DisplayOrder,
			IsActive:     in.IsActive,
			CreatedAt:    now,
		})
	}
	return s.repo.ReplacePresetProducts(ctx, s.db, presetID, links)
}

func (s *Service) ReplacePickupWindows(ctx context.Context, presetID int64, inputs []domain.PickupWindowInput) error {
	if presetID <= 0 {
		return domain.ErrInvalidPresetID
	}
	preset, err := s.repo.FindPreset(ctx, s.db, presetID)
	if err != nil {
		return err
	}
	if preset == nil {
		return domain.ErrNotFound
	}

	now := time.Now().UTC()
	windows := make([]domain.PickupWindow, 0, len(inputs))
	for _, in := range inputs {
		if !in.PickupEnd.After(in.PickupStart) {
			return domain.ErrInvalidWindow
		}
		if in.Price != nil && *in.Price < 0 {
			return domain.ErrInvalidPrice
		}
		windows = append(windows, domain.PickupWindow{
			PresetID:    presetID,
			ProductID:   in.ProductID,
			PickupStart: in.PickupStart.UTC(),
			PickupEnd:   in.PickupEnd.UTC(),
			Price:       in.Price,
			Comment:     in.Comment,
			CreatedAt:   now,
		})
	}
	return s.repo.ReplacePickupWindows(ctx, s.db, presetID, windows)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Product{}, domain.ErrInvalidName
	}
	if req.Price < 0 {
		return domain.Product{}, domain.ErrInvalidPrice
	}

	visible := true
	if req.Visible != nil {
		visible = *req.Visible
	}
	now := time.Now().UTC()
	product := domain.Product{
		Name:       name,
		Price:      req.Price,
		CategoryID: req.CategoryID,
		Visible:    visible,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.InsertProduct(ctx, s.db, &product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, req domain.UpdateProductRequest) (domain.Product, error) {
	product, err := s.repo.FindProduct(ctx, s.db, req.ID)
	if err != nil {
		return domain.Product{}, err
	}
	if product == nil {
		return domain.Product{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, domain.ErrInvalidName
		}
		product.Name = name
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return domain.Product{}, domain.ErrInvalidPrice
		}
		product.Price = *req.Price
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateProduct(ctx, s.db, product); err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) SetProductVisibility(ctx context.Context, id int64, visible bool) (domain.Product, error) {
	if err := s.repo.SetProductVisibility(ctx, s.db, id, visible); err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Product{}, domain.ErrNotFound
		}
		return domain.Product{}, err
	}
	product, err := s.repo.FindProduct(ctx, s.db, id)
	if err != nil {
		return domain.Product{}, err
	}
	if product == nil {
		return domain.Product{}, domain.ErrNotFound
	}
	return *product, nil
}

func (s *Service) ListProducts(ctx context.Context, req domain.ListProductRequest) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, s.db, domain.ListProductFilter{
		Name:    strings.TrimSpace(req.Name),
		Visible: req.Visible,
	})
}
