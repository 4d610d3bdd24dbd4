package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/marugo/torioki/internal/catalog/domain"
	historydomain "github.com/marugo/torioki/internal/history/domain"
	reservationdomain "github.com/marugo/torioki/internal/reservation/domain"
	"github.com/marugo/torioki/internal/scheduler"
	"go.uber.org/zap"
)

func (s *Server) listPresets(c *gin.Context) {
	presets, err := s.catalogSvc.ListPresets(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"presets": presets})
}

type createPresetRequest struct {
	Name string `json:"name"`
}

func (s *Server) createPreset(c *gin.Context) {
	var req createPresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	preset, err := s.catalogSvc.CreatePreset(c.Request.Context(), catalogdomain.CreatePresetRequest{Name: req.Name})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preset": preset})
}

type updateFormSettingsRequest struct {
	ShowPrice       bool    `json:"show_price"`
	RequirePhone    bool    `json:"require_phone"`
	RequireFurigana bool    `json:"require_furigana"`
	AllowNote       bool    `json:"allow_note"`
	IsEnabled       bool    `json:"is_enabled"`
	CustomMessage   *string `json:"custom_message"`
}

func (s *Server) updateFormSettings(c *gin.Context) {
	presetID, err := parseInt64Param(c, "presetId")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req updateFormSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	settings, err := s.catalogSvc.UpdateFormSettings(c.Request.Context(), catalogdomain.UpdateFormSettingsRequest{
		PresetID:        presetID,
		ShowPrice:       req.ShowPrice,
		RequirePhone:    req.RequirePhone,
		RequireFurigana: req.RequireFurigana,
		AllowNote:       req.AllowNote,
		IsEnabled:       req.IsEnabled,
		CustomMessage:   req.CustomMessage,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form_settings": settings})
}

type presetProductsRequest struct {
	Products []struct {
		ProductID    int64 `json:"product_id"`
		DisplayOrder int   `json:"display_order"`
		IsActive     *bool `json:"is_active"`
	} `json:"products"`
}

func (s *Server) replacePresetProducts(c *gin.Context) {
	presetID, err := parseInt64Param(c, "presetId")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req presetProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	links := make([]catalogdomain.PresetProductInput, 0, len(req.Products))
	for _, p := range req.Products {
		active := true
		if p.IsActive != nil {
			active = *p.IsActive
		}
		links = append(links, catalogdomain.PresetProductInput{
			ProductID:    p.ProductID,
			DisplayOrder: p.DisplayOrder,
			IsActive:     active,
		})
	}

	if err := s.catalogSvc.ReplacePresetProducts(c.Request.Context(), presetID, links); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type pickupWindowsRequest struct {
	Windows []struct {
		ProductID   *int64    `json:"product_id"`
		PickupStart time.Time `json:"pickup_start"`
		PickupEnd   time.Time `json:"pickup_end"`
		Price       *int64    `json:"price"`
		Comment     *string   `json:"comment"`
	} `json:"windows"`
}

func (s *Server) replacePickupWindows(c *gin.Context) {
	presetID, err := parseInt64Param(c, "presetId")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req pickupWindowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	windows := make([]catalogdomain.PickupWindowInput, 0, len(req.Windows))
	for _, w := range req.Windows {
		windows = append(windows, catalogdomain.PickupWindowInput{
			ProductID:   w.ProductID,
			PickupStart: w.PickupStart,
			PickupEnd:   w.PickupEnd,
			Price:       w.Price,
			Comment:     w.Comment,
		})
	}

	if err := s.catalogSvc.ReplacePickupWindows(c.Request.Context(), presetID, windows); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listProducts(c *gin.Context) {
	req := catalogdomain.ListProductRequest{Name: strings.TrimSpace(c.Query("name"))}
	if raw := strings.TrimSpace(c.Query("visible")); raw != "" {
		visible, err := strconv.ParseBool(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		req.Visible = &visible
	}

	products, err := s.catalogSvc.ListProducts(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

type createProductRequest struct {
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	CategoryID *int64 `json:"category_id"`
	Visible    *bool  `json:"visible"`
}

func (s *Server) createProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	product, err := s.catalogSvc.CreateProduct(c.Request.Context(), catalogdomain.CreateProductRequest{
		Name:       req.Name,
		Price:      req.Price,
		CategoryID: req.CategoryID,
		Visible:    req.Visible,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

type updateProductRequest struct {
	Name       *string `json:"name"`
	Price      *int64  `json:"price"`
	CategoryID *int64  `json:"category_id"`
}

func (s *Server) updateProduct(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	product, err := s.catalogSvc.UpdateProduct(c.Request.Context(), catalogdomain.UpdateProductRequest{
		ID:         id,
		Name:       req.Name,
		Price:      req.Price,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

type productVisibilityRequest struct {
	Visible bool `json:"visible"`
}

func (s *Server) setProductVisibility(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req productVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	product, err := s.catalogSvc.SetProductVisibility(c.Request.Context(), id, req.Visible)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (s *Server) searchHistory(c *gin.Context) {
	req := historydomain.SearchRequest{
		CustomerName: strings.TrimSpace(c.Query("customer_name")),
		Phone:        strings.TrimSpace(c.Query("phone")),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := reservationdomain.Status(raw)
		if !status.Valid() {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		req.Status = &status
	}
	if from, ok := parseTimeQuery(c, "pickup_from"); ok {
		req.PickupFrom = from
	} else {
		return
	}
	if to, ok := parseTimeQuery(c, "pickup_to"); ok {
		req.PickupTo = to
	} else {
		return
	}
	req.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	req.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	rows, total, err := s.historySvc.Search(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"history": rows,
		"total":   total,
	})
}

func (s *Server) historyStats(c *gin.Context) {
	stats, err := s.historySvc.Stats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type batchRequest struct {
	Type string `json:"type"`
}

// runBatch triggers batch jobs on demand. daily_maintenance is the
// combined route external cron hits once a day.
func (s *Server) runBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	switch strings.TrimSpace(req.Type) {
	case scheduler.JobHistoryMaintenance:
		result, err := s.historySvc.RunMaintenance(ctx)
		if err != nil {
			s.log.Warn("history maintenance finished with errors", zap.Error(err))
		}
		c.JSON(http.StatusOK, gin.H{"type": req.Type, "result": result})
	case scheduler.JobSendReminders:
		if err := s.scheduler.SendRemindersJob(ctx); err != nil {
			s.log.Warn("reminder batch finished with errors", zap.Error(err))
		}
		c.JSON(http.StatusOK, gin.H{"type": req.Type, "status": "ok"})
	case "daily_maintenance":
		if err := s.scheduler.RunOnce(ctx); err != nil {
			s.log.Warn("daily maintenance finished with errors", zap.Error(err))
		}
		c.JSON(http.StatusOK, gin.H{"type": req.Type, "status": "ok"})
	default:
		AbortWithError(c, ErrInvalidRequest)
	}
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return nil, false
	}
	return &parsed, true
}
