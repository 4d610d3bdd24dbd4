package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/marugo/torioki/internal/catalog/domain"
	notificationdomain "github.com/marugo/torioki/internal/notification/domain"
	"github.com/marugo/torioki/internal/reservation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	Catalog    catalogdomain.Repository
	Dispatcher notificationdomain.Dispatcher
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	catalog    catalogdomain.Repository
	dispatcher notificationdomain.Dispatcher
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("reservation.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		catalog:    p.Catalog,
		dispatcher: p.Dispatcher,
	}
}

// Create validates, prices and persists a reservation with its items in
// one transaction, then hands the confirmation push to the dispatcher.
// The push can only ever surface as CreateResult.Notification; a failed
// send never fails or rolls back the write.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.CreateResult, error) {
	if vErr := validate(req); vErr != nil {
		return nil, vErr
	}

	preset, err := s.catalog.FindPreset(ctx, s.db, req.PresetID)
	if err != nil {
		return nil, err
	}
	if preset == nil {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{
			{Field: "preset_id", Code: "unknown_preset"},
		}}
	}

	productIDs := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.catalog.ListVisibleProductsByIDs(ctx, s.db, productIDs)
	if err != nil {
		return nil, err
	}
	productByID := make(map[int64]catalogdomain.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	windows, err := s.catalog.ListPickupWindows(ctx, s.db, req.PresetID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reservation := domain.Reservation{
		ID:           s.genID.Generate(),
		PresetID:     req.PresetID,
		CustomerName: strings.TrimSpace(req.CustomerName),
		Furigana:     req.Furigana,
		Phone:        strings.TrimSpace(req.Phone),
		PickupDate:   req.PickupDate.UTC(),
		Status:       domain.StatusPending,
		Note:         req.Note,
		LineUserID:   req.LineUserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Totals are derived here and nowhere else. A client-sent
	// total_amount has already been dropped by this point.
	items := make([]domain.ReservationItem, 0, len(req.Items))
	var total int64
	for _, in := range req.Items {
		product, ok := productByID[in.ProductID]
		if !ok {
			return nil, &domain.ValidationError{Fields: []domain.FieldError{
				{Field: "items", Code: "unknown_product"},
			}}
		}
		unitPrice := resolveUnitPrice(product, windows, reservation.PickupDate)
		subtotal := unitPrice * int64(in.Quantity)
		items = append(items, domain.ReservationItem{
			ID:            s.genID.Generate(),
			ReservationID: reservation.ID,
			ProductID:     product.ID,
			ProductName:   product.Name,
			Quantity:      in.Quantity,
			UnitPrice:     unitPrice,
			Subtotal:      subtotal,
			CreatedAt:     now,
		})
		total += subtotal
	}
	reservation.TotalAmount = total

	// Reservation and items commit or roll back together. On stores
	// without multi-statement transactions the equivalent is: write
	// items last, delete the reservation row when the item write fails.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &reservation); err != nil {
			return err
		}
		return s.repo.InsertItems(ctx, tx, items)
	})
	if err != nil {
		return nil, err
	}

	result := &domain.CreateResult{
		Reservation:  reservation,
		Items:        items,
		Notification: domain.NotificationSkipped,
	}
	if req.LineUserID != nil && *req.LineUserID != "" {
		s.dispatcher.DispatchAsync(*req.LineUserID, notificationdomain.KindConfirmation, summarize(reservation, items))
		result.Notification = domain.NotificationQueued
	}
	return result, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Reservation, []domain.ReservationItem, error) {
	reservation, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, nil, err
	}
	if reservation == nil {
		return nil, nil, domain.ErrNotFound
	}
	items, err := s.repo.ListItems(ctx, s.db, id)
	if err != nil {
		return nil, nil, err
	}
	return reservation, items, nil
}

func (s *Service) ListByUser(ctx context.Context, lineUserID string) ([]domain.Reservation, error) {
	return s.repo.ListByUser(ctx, s.db, strings.TrimSpace(lineUserID))
}

func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (*domain.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, s.db, req.ID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, domain.ErrNotFound
	}
	if !domain.CanTransition(reservation.Status, req.Status) {
		return nil, domain.ErrInvalidTransition
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, s.db, req.ID, req.Status, now); err != nil {
		return nil, err
	}
	reservation.Status = req.Status
	reservation.UpdatedAt = now
	return reservation, nil
}

// Cancel is the customer-facing cancellation: same transition rules as
// staff, plus a cancellation notice push.
func (s *Service) Cancel(ctx context.Context, id snowflake.ID) (*domain.Reservation, error) {
	reservation, err := s.UpdateStatus(ctx, domain.UpdateStatusRequest{ID: id, Status: domain.StatusCancelled})
	if err != nil {
		return nil, err
	}
	if reservation.LineUserID != nil && *reservation.LineUserID != "" {
		items, err := s.repo.ListItems(ctx, s.db, id)
		if err != nil {
			s.log.Warn("load items for cancellation notice", zap.String("reservation_id", id.String()), zap.Error(err))
			items = nil
		}
		s.dispatcher.DispatchAsync(*reservation.LineUserID, notificationdomain.KindCancellation, summarize(*reservation, items))
	}
	return reservation, nil
}

// resolveUnitPrice applies the pricing precedence: a product-specific
// pickup window covering the pickup date with its own price overrides
// the product's base price.
func resolveUnitPrice(product catalogdomain.Product, windows []catalogdomain.PickupWindow, pickupDate time.Time) int64 {
	for _, w := range windows {
		if w.ProductID == nil || *w.ProductID != product.ID || w.Price == nil {
			continue
		}
		if pickupDate.Before(w.PickupStart) || pickupDate.After(w.PickupEnd) {
			continue
		}
		return *w.Price
	}
	return product.Price
}

func validate(req domain.CreateRequest) *domain.ValidationError {
	var fields []domain.FieldError
	if strings.TrimSpace(req.CustomerName) == "" {
		fields = append(fields, domain.FieldError{Field: "customer_name", Code: "required"})
	}
	if strings.TrimSpace(req.Phone) == "" {
		fields = append(fields, domain.FieldError{Field: "phone", Code: "required"})
	}
	if req.PickupDate.IsZero() {
		fields = append(fields, domain.FieldError{Field: "pickup_date", Code: "required"})
	}
	if len(req.Items) == 0 {
		fields = append(fields, domain.FieldError{Field: "items", Code: "required"})
	}
	for _, item := range req.Items {
		if item.ProductID <= 0 {
			fields = append(fields, domain.FieldError{Field: "items", Code: "invalid_product_id"})
			break
		}
	}
	for _, item := range req.Items {
		if item.Quantity < 1 || item.Quantity > domain.MaxItemQuantity {
			fields = append(fields, domain.FieldError{Field: "items", Code: "invalid_quantity"})
			break
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &domain.ValidationError{Fields: fields}
}

func summarize(reservation domain.Reservation, items []domain.ReservationItem) notificationdomain.ReservationSummary {
	summaries := make([]notificationdomain.ItemSummary, 0, len(items))
	for _, item := range items {
		summaries = append(summaries, notificationdomain.ItemSummary{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
	return notificationdomain.ReservationSummary{
		ReservationID: reservation.ID.String(),
		CustomerName:  reservation.CustomerName,
		PickupDate:    reservation.PickupDate,
		TotalAmount:   reservation.TotalAmount,
		Items:         summaries,
		Note:          reservation.Note,
	}
}
