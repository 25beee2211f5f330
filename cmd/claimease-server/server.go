package main

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/claimease/claimease/internal/config"
	"github.com/claimease/claimease/internal/domain/catalog"
	"github.com/claimease/claimease/internal/domain/claims"
	"github.com/claimease/claimease/internal/domain/identity"
	"github.com/claimease/claimease/internal/domain/stats"
	"github.com/claimease/claimease/internal/platform/apperr"
	"github.com/claimease/claimease/internal/platform/auth"
	"github.com/claimease/claimease/internal/platform/blobstore"
	"github.com/claimease/claimease/internal/platform/db"
	"github.com/claimease/claimease/internal/platform/metrics"
	"github.com/claimease/claimease/internal/platform/middleware"
)

const (
	version             = "1.0.0"
	defaultBodyLimit    = 1 << 20
	uploadPath          = "/api/documents/upload"
	referenceDataMaxAge = time.Minute
)

// store is the database handle every component shares. *pgxpool.Pool
// satisfies it.
type store interface {
	db.Queryable
	db.Beginner
}

type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *metrics.Metrics
	tokens  *auth.TokenIssuer
	limiter middleware.Limiter

	identity *identity.Service
	catalog  *catalog.Service
	claims   *claims.Service
	stats    *stats.Aggregator
}

func newApp(cfg *config.Config, logger zerolog.Logger, pool store, blobs blobstore.Store, limiter middleware.Limiter) (*app, error) {
	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		tokens:  auth.NewTokenIssuer(cfg.SigningKey(), cfg.TokenTTL),
		limiter: limiter,
	}

	a.identity = identity.NewService(identity.NewUserRepoPG(pool), hasher, a.tokens, logger)
	a.identity.SetMetrics(a.metrics)

	a.catalog = catalog.NewService(catalog.NewRepoPG(pool), logger)
	a.catalog.SetMetrics(a.metrics)

	uploads := blobstore.Policy{MaxBytes: cfg.UploadMaxBytes, AllowedExtensions: cfg.AllowedExtensions}
	a.claims = claims.NewService(claims.NewRepoPG(pool), db.NewTransactor(pool), blobs, uploads, logger)
	a.claims.SetMetrics(a.metrics)

	a.stats = stats.NewAggregator(stats.NewRepoPG(pool), cfg.StatsTopN, logger)
	a.stats.SetMetrics(a.metrics)

	return a, nil
}

func (a *app) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(a.logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.Metrics(a.metrics))
	e.Use(middleware.SecurityHeaders(middleware.HeaderPolicy{
		HSTS:           a.cfg.IsProduction(),
		PublicPrefixes: []string{"/api/hospitals", "/api/insurance-companies", "/api/policies"},
		PublicMaxAge:   referenceDataMaxAge,
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
	}))
	e.Use(middleware.BodyLimit(defaultBodyLimit, a.cfg.UploadMaxBytes, uploadPath))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/metrics", echo.WrapHandler(a.metrics.Handler()))

	api := e.Group("/api")
	if a.limiter != nil {
		api.Use(middleware.RateLimit(a.limiter, middleware.UserOrIPKey(a.tokens), a.logger))
	}
	protected := api.Group("", auth.RequireUser(a.tokens), middleware.Audit(a.logger, middleware.AuditRecorderFunc(a.recordAudit)))

	identity.NewHandler(a.identity).RegisterRoutes(api, protected)
	catalog.NewHandler(a.catalog).RegisterRoutes(api)
	stats.NewHandler(a.stats).RegisterRoutes(api)
	claims.NewHandler(a.claims).RegisterRoutes(protected)

	return e
}

func (a *app) recordAudit(entry middleware.AuditEntry) error {
	outcome := "ok"
	switch {
	case entry.StatusCode == http.StatusNotFound || entry.StatusCode == http.StatusUnauthorized:
		outcome = "denied"
	case entry.StatusCode >= http.StatusBadRequest:
		outcome = "error"
	}
	a.metrics.AuditedAccess.WithLabelValues(entry.Resource, entry.Action, outcome).Inc()
	return nil
}
