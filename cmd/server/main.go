package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/swarnim921/Smart-Resume/internal/auth"
	"github.com/swarnim921/Smart-Resume/internal/config"
	"github.com/swarnim921/Smart-Resume/internal/handler"
	"github.com/swarnim921/Smart-Resume/internal/logger"
	"github.com/swarnim921/Smart-Resume/internal/mail"
	"github.com/swarnim921/Smart-Resume/internal/middleware"
	"github.com/swarnim921/Smart-Resume/internal/oauth"
	"github.com/swarnim921/Smart-Resume/internal/queue"
	"github.com/swarnim921/Smart-Resume/internal/repository"
	"github.com/swarnim921/Smart-Resume/internal/router"
	"github.com/swarnim921/Smart-Resume/internal/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	svc, err := config.LoadServices()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg := logger.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, svc, lg); err != nil {
		lg.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, svc config.Services, lg *slog.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, svc, lg)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Warn("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	var pub queue.Publisher = queue.LogPublisher{Log: lg}
	if svc.AMQP.PublishEnabled {
		pub = queue.NewAMQPPublisher(svc.AMQP.URL, svc.AMQP.Queue, lg)
	}

	mailer, err := mail.New(svc.Mail, cfg.VerificationCodeTTL, lg)
	if err != nil {
		return fmt.Errorf("mail: %w", err)
	}
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTTL)
	if err != nil {
		return fmt.Errorf("tokens: %w", err)
	}
	authSvc := auth.NewService(auth.Deps{
		Users:     store,
		Hasher:    utils.Bcrypt{Cost: cfg.BcryptCost},
		Codes:     auth.NewCodeManager(store, cfg.VerificationCodeTTL),
		Tokens:    tokens,
		Mailer:    mailer,
		Publisher: pub,
		Log:       lg,
	})

	deps := router.Deps{
		Auth:      handler.NewAuthHandler(authSvc),
		Users:     handler.NewUserHandler(authSvc),
		Version:   handler.VersionHandler{Version: cfg.Version, Commit: cfg.Commit, Env: cfg.Env},
		Store:     store,
		Tokens:    tokens,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, lg),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}
	if svc.Google.ClientID != "" {
		coord, err := newCoordinator(cfg, svc, rdb, store, tokens, pub, lg)
		if err != nil {
			return err
		}
		deps.OAuth = handler.NewOAuthHandler(coord)
	} else {
		lg.Info("GOOGLE_OAUTH_CLIENT_ID not set; oauth routes disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(lg)
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(lg))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	router.Register(e, deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		lg.Info("listening", slog.String("addr", addr), slog.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})
	g.Go(func() error {
		sw := &repository.Sweeper{Store: store, Interval: cfg.SweepInterval, Log: lg}
		return sw.Run(gctx)
	})
	if svc.AMQP.ConsumerEnabled {
		g.Go(func() error {
			c := &queue.AuditConsumer{URL: svc.AMQP.URL, Queue: svc.AMQP.Queue, LogDir: svc.AMQP.LogDir, Log: lg}
			return c.Run(gctx)
		})
	}
	return g.Wait()
}

func newCoordinator(cfg config.Config, svc config.Services, rdb *redis.Client, store repository.UserStore,
	tokens *auth.TokenService, pub queue.Publisher, lg *slog.Logger) (*auth.Coordinator, error) {
	policy, err := auth.ParseOverwritePolicy(cfg.OAuthOverwrite)
	if err != nil {
		return nil, err
	}
	var guard auth.ReplayGuard = auth.NewMemoryReplayGuard()
	if rdb != nil {
		guard = auth.NewRedisReplayGuard(rdb, "sr:oauth:state:")
	}
	carrier := auth.ChainCarrier{
		auth.NewCookieCarrier(cfg.HintSecret, cfg.HintTTL, cfg.CookieSecure),
		auth.NewStateCarrier(cfg.HintSecret, cfg.HintTTL, guard),
	}
	return auth.NewCoordinator(
		auth.CoordinatorConfig{SuccessURL: cfg.OAuthSuccessURL, FailureURL: cfg.OAuthFailureURL, Policy: policy},
		oauth.NewGoogle(svc.Google),
		carrier, store, tokens, pub, lg,
	), nil
}
