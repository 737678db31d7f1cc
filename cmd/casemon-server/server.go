package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.elastic.co/ecszerolog"

	"github.com/casemon/casemon/internal/config"
	"github.com/casemon/casemon/internal/domain/assessment"
	"github.com/casemon/casemon/internal/domain/audit"
	"github.com/casemon/casemon/internal/domain/closecontact"
	"github.com/casemon/casemon/internal/domain/jurisdiction"
	"github.com/casemon/casemon/internal/domain/laboratory"
	"github.com/casemon/casemon/internal/domain/monitoree"
	"github.com/casemon/casemon/internal/domain/vaccine"
	"github.com/casemon/casemon/internal/interop"
	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/db"
	"github.com/casemon/casemon/internal/platform/fhir"
	"github.com/casemon/casemon/internal/platform/middleware"
)

const maxBodySize = "2M"

func newLogger(format string, w io.Writer) zerolog.Logger {
	switch format {
	case "console":
		return zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	case "ecs":
		return ecszerolog.New(w).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// signingKey decodes the hex HS256 key. In development a missing key is
// replaced by a random one, so locally issued tokens die with the process.
func signingKey(cfg *config.Config) ([]byte, bool, error) {
	if cfg.AuthSigningKey != "" {
		key, err := hex.DecodeString(cfg.AuthSigningKey)
		if err != nil {
			return nil, false, fmt.Errorf("invalid AUTH_SIGNING_KEY hex value: %w", err)
		}
		return key, false, nil
	}
	if !cfg.IsDev() || cfg.AuthJWKSURL != "" {
		return nil, false, nil
	}
	key := make([]byte, 32)
	if _, err := crypto_rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate signing key: %w", err)
	}
	return key, true, nil
}

// subtreeLoader caches jurisdiction subtrees in Redis when REDIS_URL is set.
func subtreeLoader(cfg *config.Config, svc *jurisdiction.Service, logger zerolog.Logger) (auth.SubtreeLoader, func(), error) {
	if cfg.RedisURL == "" {
		return svc, func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, subtree lookups fall back to the database")
	}
	cache := jurisdiction.NewRedisCache(client, svc, cfg.JurisdictionCacheTTL, logger)
	return cache, func() { _ = client.Close() }, nil
}

// newServer assembles the HTTP surface around an interop handler.
func newServer(logger zerolog.Logger, h *interop.Handler, health db.Pinger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = fhir.JSONSerializer{}

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(maxBodySize))

	e.GET("/health", db.HealthHandler(health))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	h.RegisterRoutes(e)
	return e
}

func runServer() error {
	logger := newLogger(os.Getenv("LOG_FORMAT"), os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.IsDev() && os.Getenv("LOG_FORMAT") == "" {
		cfg.LogFormat = "console"
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	logger = newLogger(cfg.LogFormat, os.Stdout)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	jurisdictions := jurisdiction.NewService(jurisdiction.NewRepoPG(pool))
	subtrees, closeRedis, err := subtreeLoader(cfg, jurisdictions, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure jurisdiction cache")
	}
	defer closeRedis()

	key, generated, err := signingKey(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve signing key")
	}
	if generated {
		logger.Warn().Msg("AUTH_SIGNING_KEY not set, using a random development key")
	}
	verifier := auth.NewJWTVerifier(auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		JWKSURL:    cfg.AuthJWKSURL,
		SigningKey: key,
	})
	resolver := auth.NewResolver(auth.NewActorStorePG(pool), subtrees)

	tx := db.NewTransactor(pool)
	recorder := audit.NewRecorderPG(pool)
	patients := monitoree.NewService(monitoree.NewRepoPG(pool), jurisdictions, recorder, tx)

	handler := interop.NewHandler(interop.Services{
		Patients:      patients,
		CloseContacts: closecontact.NewService(closecontact.NewRepoPG(pool), patients, recorder, tx),
		Vaccines:      vaccine.NewService(vaccine.NewRepoPG(pool), patients, recorder, tx),
		Laboratories:  laboratory.NewService(laboratory.NewRepoPG(pool)),
		Assessments:   assessment.NewService(assessment.NewRepoPG(pool)),
	}, verifier, resolver, interop.Config{
		Root:    cfg.PublicURL,
		Version: version,
		OAuth: fhir.OAuthEndpoints{
			Authorize:  cfg.OAuthAuthorizeURL,
			Token:      cfg.OAuthTokenURL,
			Revoke:     cfg.OAuthRevokeURL,
			Introspect: cfg.OAuthIntrospectURL,
		},
	}, logger)

	e := newServer(logger, handler, pool)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("root", cfg.PublicURL).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
