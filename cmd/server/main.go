package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/social_feed/internal/config"
	"github.com/Skotchmaster/social_feed/internal/db"
	"github.com/Skotchmaster/social_feed/internal/hash"
	"github.com/Skotchmaster/social_feed/internal/httpserver"
	"github.com/Skotchmaster/social_feed/internal/logging"
	"github.com/Skotchmaster/social_feed/internal/mykafka"
	"github.com/Skotchmaster/social_feed/internal/repo"
	"github.com/Skotchmaster/social_feed/internal/search"
	"github.com/Skotchmaster/social_feed/internal/service"
	"github.com/Skotchmaster/social_feed/internal/tokens"
)

type eventSink interface {
	service.Publisher
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}

	l := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(l)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, l)
	if err != nil {
		l.Error("db_open_failed", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(ctx, gdb); err != nil {
		l.Error("db_migrate_failed", "error", err)
		os.Exit(1)
	}

	hasher, err := hash.New(cfg.PasswordHasher)
	if err != nil {
		l.Error("hasher_invalid", "error", err)
		os.Exit(1)
	}
	tm, err := tokens.NewManager([]byte(cfg.JWTSecret), cfg.JWTTTL, nil)
	if err != nil {
		l.Error("tokens_invalid", "error", err)
		os.Exit(1)
	}

	var events eventSink = mykafka.Discard{}
	if cfg.KafkaEnabled() {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			l.Error("kafka_init_failed", "error", err)
			os.Exit(1)
		}
		events = prod
	}

	var index service.PostIndex
	if cfg.SearchEnabled() {
		index = openIndex(ctx, l, cfg)
	}

	store := &repo.GormRepo{DB: gdb}
	auth := &service.AuthService{Store: store, Hasher: hasher, Tokens: tm, Events: events}
	h := &httpserver.Handlers{
		Auth:          auth,
		Users:         &service.UserService{Store: store, Hasher: hasher, Index: index, Events: events},
		Posts:         &service.PostService{Store: store, Index: index, Events: events},
		Tutorials:     &service.TutorialService{Store: store},
		News:          &service.NewsService{Store: store},
		DB:            store,
		SecureCookies: cfg.SecureCookies,
	}
	e := httpserver.New(l, &httpserver.Deps{Handlers: h, Auth: auth})

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		l.Info("http_listening", "addr", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("http_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	l.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("http_shutdown_failed", "error", err)
	}
	if err := events.Close(); err != nil {
		l.Error("kafka_close_failed", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		l.Error("db_close_failed", "error", err)
	}

	l.Info("shutdown_complete")
}

// openIndex returns nil when the search cluster is unreachable so that
// search falls back to the database.
func openIndex(ctx context.Context, l *slog.Logger, cfg *config.Config) service.PostIndex {
	client, err := search.NewClient(ctx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
	if err != nil {
		l.Warn("search_disabled", "reason", err.Error())
		return nil
	}
	ix := &search.Index{ES: client, Name: cfg.ESIndex}
	if err := ix.EnsureIndex(ctx); err != nil {
		l.Warn("search_disabled", "reason", err.Error())
		return nil
	}
	return ix
}
