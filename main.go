package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/socialfeed/internal/config"
	"github.com/msomdec/socialfeed/internal/domain"
	"github.com/msomdec/socialfeed/internal/handler"
	"github.com/msomdec/socialfeed/internal/mail"
	"github.com/msomdec/socialfeed/internal/metrics"
	"github.com/msomdec/socialfeed/internal/repository/mongo"
	"github.com/msomdec/socialfeed/internal/repository/sqlite"
	"github.com/msomdec/socialfeed/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	logOpts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	db, err := openStore(context.Background(), cfg.Store)
	if err != nil {
		slog.Error("failed to open database", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready", "driver", cfg.Store.Driver)

	var notifier domain.Notifier = mail.LogSender{Logger: logger}
	if cfg.SMTP.Host != "" {
		notifier = &mail.SMTPSender{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}
	} else {
		slog.Warn("SMTP_HOST not set; emails will be logged")
	}

	m := metrics.New()
	timeouts := service.Timeouts{Store: cfg.Store.Timeout, Media: cfg.Store.MediaTimeout}

	authService := service.NewAuthService(db.Users(), cfg.Auth.JWTSecret, cfg.Auth.BcryptCost, cfg.Auth.TokenTTL, timeouts)
	passwordService := service.NewPasswordService(db.Users(), notifier, cfg.Auth.BcryptCost, cfg.FrontendURL, timeouts)
	mediaService := service.NewMediaService(db.Files(), cfg.PublicBaseURL, timeouts)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Deps{
		Auth:         authService,
		Passwords:    passwordService,
		Profiles:     service.NewProfileService(db.Users(), mediaService, timeouts),
		Posts:        service.NewPostService(db.Posts(), mediaService, m, timeouts),
		Feed:         service.NewFeedService(db.Users(), db.Feed(), timeouts),
		Engagement:   service.NewEngagementService(db, m, timeouts),
		Media:        mediaService,
		LoginLimiter: service.NewRateLimiter(cfg.Login.PerSecond, cfg.Login.Burst),
		Metrics:      m.Handler(),
		CookieSecure: cfg.Auth.CookieSecure,
		Debug:        cfg.Debug,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           m.InstrumentHandler(handler.RequestLogger(handler.SecurityHeaders(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "public_url", cfg.PublicBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func openStore(ctx context.Context, c config.StoreConfig) (domain.Store, error) {
	switch c.Driver {
	case config.DriverSQLite:
		return sqlite.New(c.DatabasePath)
	case config.DriverMongo:
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return mongo.Connect(ctx, mongo.Options{
			URI:          c.MongoURI,
			Database:     c.MongoDatabase,
			Transactions: c.MongoTransactions,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", c.Driver)
	}
}
