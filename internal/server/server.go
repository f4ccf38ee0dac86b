package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/procura/internal/config"
	"github.com/smallbiznis/procura/internal/observability/logger"
	"github.com/smallbiznis/procura/internal/observability/metrics"
	"github.com/smallbiznis/procura/internal/realtime"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/smallbiznis/procura/internal/audit/domain"
	metricsdomain "github.com/smallbiznis/procura/internal/procurementmetrics/domain"
	orderdomain "github.com/smallbiznis/procura/internal/purchaseorder/domain"
	requestdomain "github.com/smallbiznis/procura/internal/purchaserequest/domain"
	supplierdomain "github.com/smallbiznis/procura/internal/supplier/domain"
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

// NewEngine builds the gin engine with the ambient middleware stack.
func NewEngine(cfg config.Config, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{SkipPaths: []string{"/healthz", "/metrics"}}))
	engine.Use(metrics.GinMiddleware(httpMetrics))
	return engine
}

// ServerParam collects the server dependencies.
type ServerParam struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	DB       *gorm.DB
	Engine   *gin.Engine
	Hub      *realtime.Hub
	Registry *metrics.Registry

	SupplierSvc supplierdomain.Service
	RequestSvc  requestdomain.Service
	OrderSvc    orderdomain.Service
	MetricsSvc  metricsdomain.Service
	AuditSvc    auditdomain.Service
}

// Server wires HTTP handlers to the workflow services and the realtime hub.
type Server struct {
	cfg    config.Config
	log    *zap.Logger
	db     *gorm.DB
	engine *gin.Engine
	hub    *realtime.Hub
	reg    *metrics.Registry

	supplierSvc supplierdomain.Service
	requestSvc  requestdomain.Service
	orderSvc    orderdomain.Service
	metricsSvc  metricsdomain.Service
	auditSvc    auditdomain.Service
}

func NewServer(p ServerParam) *Server {
	return &Server{
		cfg:         p.Cfg,
		log:         p.Log.Named("server"),
		db:          p.DB,
		engine:      p.Engine,
		hub:         p.Hub,
		reg:         p.Registry,
		supplierSvc: p.SupplierSvc,
		requestSvc:  p.RequestSvc,
		orderSvc:    p.OrderSvc,
		metricsSvc:  p.MetricsSvc,
		auditSvc:    p.AuditSvc,
	}
}

// RegisterRoutes attaches every API route to the engine.
func (s *Server) RegisterRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.reg != nil && s.reg.Prometheus != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.reg.Prometheus, promhttp.HandlerOpts{})))
	}

	s.engine.GET("/ws", s.Subscribe)

	api := s.engine.Group("/api", ActorMiddleware())
	{
		api.POST("/suppliers", s.CreateSupplier)
		api.GET("/suppliers", s.ListSuppliers)
		api.GET("/suppliers/:id", s.GetSupplierByID)
		api.PATCH("/suppliers/:id", s.UpdateSupplier)
		api.DELETE("/suppliers/:id", s.DeleteSupplier)
		api.GET("/suppliers/:id/performance", s.GetSupplierPerformance)

		api.POST("/purchase-requests", s.SubmitPurchaseRequest)
		api.GET("/purchase-requests", s.ListPurchaseRequests)
		api.GET("/purchase-requests/:id", s.GetPurchaseRequestByID)
		api.POST("/purchase-requests/:id/decision", s.DecidePurchaseRequest)
		api.POST("/purchase-requests/:id/convert", s.ConvertPurchaseRequest)

		api.POST("/purchase-orders", s.CreatePurchaseOrder)
		api.GET("/purchase-orders", s.ListPurchaseOrders)
		api.GET("/purchase-orders/:id", s.GetPurchaseOrderByID)
		api.PATCH("/purchase-orders/:id", s.UpdatePurchaseOrder)
		api.POST("/purchase-orders/:id/status", s.SetPurchaseOrderStatus)

		api.GET("/dashboard/metrics", s.GetDashboardMetrics)
	}
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// audit records a workflow action, never failing the caller.
func (s *Server) audit(c *gin.Context, action, targetType, targetID string, detail map[string]any) {
	if s.auditSvc == nil {
		return
	}
	var target *string
	if targetID != "" {
		target = &targetID
	}
	_ = s.auditSvc.Record(c.Request.Context(), action, targetType, target, detail)
}
