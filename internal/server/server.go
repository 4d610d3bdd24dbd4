package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marugo/torioki/internal/catalog"
	catalogdomain "github.com/marugo/torioki/internal/catalog/domain"
	"github.com/marugo/torioki/internal/config"
	"github.com/marugo/torioki/internal/formconfig"
	formconfigdomain "github.com/marugo/torioki/internal/formconfig/domain"
	"github.com/marugo/torioki/internal/history"
	historydomain "github.com/marugo/torioki/internal/history/domain"
	"github.com/marugo/torioki/internal/joblock"
	"github.com/marugo/torioki/internal/notification"
	"github.com/marugo/torioki/internal/observability"
	obsmetrics "github.com/marugo/torioki/internal/observability/metrics"
	"github.com/marugo/torioki/internal/providers/line"
	"github.com/marugo/torioki/internal/reminder"
	"github.com/marugo/torioki/internal/reservation"
	reservationdomain "github.com/marugo/torioki/internal/reservation/domain"
	"github.com/marugo/torioki/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	catalog.Module,
	formconfig.Module,
	line.Module,
	notification.Module,
	reservation.Module,
	history.Module,
	reminder.Module,
	joblock.Module,
	scheduler.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log))
	r.Use(observability.Metrics(obsmetrics.HTTPWithConfig(obsmetrics.Config{
		ServiceName: cfg.AppName,
		Environment: cfg.Environment,
	})))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, log *zap.Logger) *gin.Engine {
	return NewEngine(cfg, log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	catalogSvc     catalogdomain.Service
	formConfigSvc  formconfigdomain.Service
	reservationSvc reservationdomain.Service
	historySvc     historydomain.Service
	scheduler      *scheduler.Scheduler
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	CatalogSvc     catalogdomain.Service
	FormConfigSvc  formconfigdomain.Service
	ReservationSvc reservationdomain.Service
	HistorySvc     historydomain.Service
	Scheduler      *scheduler.Scheduler
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("server"),
		catalogSvc:     p.CatalogSvc,
		formConfigSvc:  p.FormConfigSvc,
		reservationSvc: p.ReservationSvc,
		historySvc:     p.HistorySvc,
		scheduler:      p.Scheduler,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	api.GET("/form/:presetId", s.getFormConfig)
	api.POST("/form/:presetId", s.createReservation)

	api.GET("/reservations", s.listReservations)
	api.GET("/reservations/:id", s.getReservation)
	api.POST("/reservations/:id/cancel", s.cancelReservation)
	api.DELETE("/reservations/:id", s.cancelReservation)

	admin := api.Group("/admin")
	admin.GET("/presets", s.listPresets)
	admin.POST("/presets", s.createPreset)
	admin.PUT("/presets/:presetId/form-settings", s.updateFormSettings)
	admin.PUT("/presets/:presetId/products", s.replacePresetProducts)
	admin.PUT("/presets/:presetId/pickup-windows", s.replacePickupWindows)

	admin.GET("/products", s.listProducts)
	admin.POST("/products", s.createProduct)
	admin.PATCH("/products/:id", s.updateProduct)
	admin.PATCH("/products/:id/visibility", s.setProductVisibility)

	admin.PATCH("/reservations/:id/status", s.updateReservationStatus)

	admin.GET("/history", s.searchHistory)
	admin.GET("/history/stats", s.historyStats)

	admin.POST("/batch", s.runBatch)
}
