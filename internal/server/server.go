// Package server exposes the claim intake and batch management HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/healthlane/claimflow/internal/analytics"
	batchdomain "github.com/healthlane/claimflow/internal/batch/domain"
	claimdomain "github.com/healthlane/claimflow/internal/claim/domain"
	"github.com/healthlane/claimflow/internal/config"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
	obslogger "github.com/healthlane/claimflow/internal/observability/logger"
	obsmetrics "github.com/healthlane/claimflow/internal/observability/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(httpMetrics *obsmetrics.HTTPMetrics, reg *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return r
}

func registerGin(httpMetrics *obsmetrics.HTTPMetrics, reg *prometheus.Registry) *gin.Engine {
	return NewEngine(httpMetrics, reg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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
	engine       *gin.Engine
	cfg          config.Config
	claimSvc     claimdomain.Service
	batchSvc     batchdomain.Service
	insurerSvc   insurerdomain.Service
	analyticsSvc *analytics.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	ClaimSvc     claimdomain.Service
	BatchSvc     batchdomain.Service
	InsurerSvc   insurerdomain.Service
	AnalyticsSvc *analytics.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		claimSvc:     p.ClaimSvc,
		batchSvc:     p.BatchSvc,
		insurerSvc:   p.InsurerSvc,
		analyticsSvc: p.AnalyticsSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	// -------- Claims --------
	api.POST("/claims", s.SubmitClaim)
	api.GET("/claims", s.ListClaims)
	api.GET("/claims/:id", s.GetClaimByID)
	api.GET("/claims/:id/cost-breakdown", s.GetClaimCostBreakdown)
	api.DELETE("/claims/:id", s.CancelClaim)

	// -------- Claim items --------
	api.POST("/claims/:id/items", s.AddClaimItem)
	api.PATCH("/claims/:id/items/:itemId", s.UpdateClaimItem)
	api.DELETE("/claims/:id/items/:itemId", s.RemoveClaimItem)

	// -------- Insurers --------
	api.GET("/insurers", s.ListInsurers)

	// -------- Batches --------
	api.GET("/batches", s.ListBatches)
	api.GET("/batches/:id", s.GetBatchByID)
	api.POST("/batches/process", s.ProcessBatches)
	api.POST("/batches/:id/complete", s.CompleteBatch)

	// -------- Analytics --------
	api.GET("/analytics", s.GetAnalytics)
	api.GET("/cost-analysis", s.GetCostAnalysis)
}
