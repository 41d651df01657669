// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/menu-cleaner/internal/cache"
	"github.com/olegiv/menu-cleaner/internal/cleaner"
	"github.com/olegiv/menu-cleaner/internal/config"
	"github.com/olegiv/menu-cleaner/internal/handler"
	"github.com/olegiv/menu-cleaner/internal/itemstore"
	"github.com/olegiv/menu-cleaner/internal/logging"
	"github.com/olegiv/menu-cleaner/internal/middleware"
	"github.com/olegiv/menu-cleaner/internal/model"
	"github.com/olegiv/menu-cleaner/internal/scheduler"
	"github.com/olegiv/menu-cleaner/internal/service"
	"github.com/olegiv/menu-cleaner/internal/session"
	"github.com/olegiv/menu-cleaner/internal/store"
	"github.com/olegiv/menu-cleaner/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	createKey := flag.String("create-api-key", "", "Create an API key with the given name, print it and exit")
	keyPerms := flag.String("api-key-perms", model.PermissionCleanerWrite, "Comma separated permissions for -create-api-key")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "menucleaner - batch deletion and restore of navigation menu items\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MC_SESSION_SECRET      Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MC_DB_PATH             SQLite database path (default: ./data/menucleaner.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MC_SERVER_PORT         Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MC_ENV                 Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MC_REDIS_URL           Redis URL for shared menu counts (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MC_DO_SEED             Create admin@example.com on first start\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MC_DEMO_SEED           Create a demo menu\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("menucleaner %s\n", version.Current())
		os.Exit(0)
	}

	if err := run(*createKey, *keyPerms); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func run(createKey, keyPerms string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// WARN and above also go to the events table.
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()

	if createKey != "" {
		return createAPIKey(ctx, db, createKey, keyPerms)
	}

	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}
	if cfg.DemoSeed {
		if err := store.SeedDemo(ctx, db); err != nil {
			return fmt.Errorf("seeding demo content: %w", err)
		}
	}

	sessionManager := session.New(db, cfg.IsDevelopment())

	counter := cache.NewCache(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheTTLDuration(),
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
	defer func() { _ = counter.Close() }()
	counts := cache.NewCountCache(counter, cfg.CacheTTLDuration())

	eventService := service.NewEventService(db)
	items := itemstore.New(db)
	svc := cleaner.NewService(items, items, logger)
	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	sched := scheduler.New(logger)
	if err := scheduler.AddRetentionJobs(sched, scheduler.RetentionConfig{
		History:     items,
		HistoryDays: cfg.HistoryRetentionDays,
		Events:      eventService,
		EventDays:   cfg.EventRetentionDays,
		PruneLogins: loginProtection.Prune,
	}, logger); err != nil {
		return fmt.Errorf("scheduling retention jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	cleanerHandler := handler.NewCleanerHandler(svc, counts, eventService, logger, cfg.DefaultBatchSize)
	authHandler := handler.NewAuthHandler(db, sessionManager, loginProtection)
	healthHandler := handler.NewHealthHandler(db, counter)
	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment()))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	r.Get(handler.RouteHealth, healthHandler.Health)
	r.Get(handler.RouteLive, healthHandler.Liveness)

	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(csrfMiddleware)
		r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
		r.Post(handler.RouteLogout, authHandler.Logout)
	})

	r.Route(handler.RouteAdminCleaner, func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.Auth(sessionManager))
		r.Use(middleware.LoadUser(sessionManager, db))
		r.Use(middleware.RequireCleaner(eventService))
		r.Use(csrfMiddleware)
		cleanerHandler.Routes(r, r)
	})

	r.Route(handler.RouteAPICleaner, func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(db))
		r.Use(middleware.APIRateLimit(cfg.APIRateLimit, cfg.APIRateBurst))
		read := r.With(middleware.RequirePermission(model.PermissionCleanerRead))
		write := r.With(middleware.RequirePermission(model.PermissionCleanerWrite))
		cleanerHandler.Routes(read, write)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSONError(w, http.StatusNotFound, "Not found.")
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Current().Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// createAPIKey stores a new key and prints it. The raw key is not kept.
func createAPIKey(ctx context.Context, db *sql.DB, name, permList string) error {
	var perms []string
	for _, p := range strings.Split(permList, ",") {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}
	perms = model.ValidPermissions(perms)
	if len(perms) == 0 {
		return fmt.Errorf("no valid permissions in %q (known: %s)", permList, strings.Join(model.AllPermissions(), ", "))
	}

	raw, prefix, err := model.GenerateAPIKey()
	if err != nil {
		return fmt.Errorf("generating API key: %w", err)
	}
	if _, err := store.New(db).CreateAPIKey(ctx, store.CreateAPIKeyParams{
		Name:        name,
		KeyHash:     model.HashAPIKey(raw),
		KeyPrefix:   prefix,
		Permissions: model.PermissionsToJSON(perms),
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("storing API key: %w", err)
	}

	_, _ = fmt.Printf("API key %q created with permissions %s\n", name, strings.Join(perms, ","))
	_, _ = fmt.Printf("%s\n", raw)
	_, _ = fmt.Println("Store it now; it cannot be shown again.")
	return nil
}
