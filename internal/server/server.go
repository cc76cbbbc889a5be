package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/prizewheel/internal/config"
	"github.com/smallbiznis/prizewheel/internal/observability"
	obsmiddleware "github.com/smallbiznis/prizewheel/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/prizewheel/internal/observability/metrics"
	obstracing "github.com/smallbiznis/prizewheel/internal/observability/tracing"
	playdomain "github.com/smallbiznis/prizewheel/internal/play/domain"
	prizedomain "github.com/smallbiznis/prizewheel/internal/prize/domain"
	"github.com/smallbiznis/prizewheel/internal/ratelimit"
	spindomain "github.com/smallbiznis/prizewheel/internal/spin/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	engine   *gin.Engine
	cfg      config.Config
	prizeSvc prizedomain.Service
	playSvc  playdomain.Service
	spinSvc  spindomain.Service
	limiter  *ratelimit.SpinLimiter
	metrics  *obsmetrics.Metrics
	log      *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	PrizeSvc prizedomain.Service
	PlaySvc  playdomain.Service
	SpinSvc  spindomain.Service
	Limiter  *ratelimit.SpinLimiter `optional:"true"`
	Metrics  *obsmetrics.Metrics    `optional:"true"`
	Log      *zap.Logger
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:   p.Gin,
		cfg:      p.Cfg,
		prizeSvc: p.PrizeSvc,
		playSvc:  p.PlaySvc,
		spinSvc:  p.SpinSvc,
		limiter:  p.Limiter,
		metrics:  p.Metrics,
		log:      p.Log.Named("http.server"),
	}

	svc.registerProxyRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Storefront widget calls, forwarded by the platform app proxy.
func (s *Server) registerProxyRoutes() {
	proxy := s.engine.Group("/proxy", s.ProxySignatureRequired(), ShopContext())

	proxy.GET("/wheel", s.GetPublicWheel)
	proxy.POST("/wheel/spin", s.SpinRateLimit(), s.SpinWheel)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	admin.Use(s.AdminAuthRequired())
	admin.Use(ShopContext())

	admin.GET("/wheel", s.GetWheelSettings)
	admin.PUT("/wheel", s.SaveWheelSettings)
	admin.GET("/wheel/plays", s.ListPlays)
	admin.DELETE("/wheel/plays/:id", s.DeletePlay)
}
