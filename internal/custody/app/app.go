package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/custodian/internal/custody/http"
	"github.com/aussiebroadwan/custodian/internal/custody/service"
	"github.com/aussiebroadwan/custodian/internal/custody/store"
	"github.com/aussiebroadwan/custodian/internal/custody/store/drivers/bolt"
	"github.com/aussiebroadwan/custodian/internal/custody/store/drivers/jsonfile"
	"github.com/aussiebroadwan/custodian/internal/custody/store/drivers/sqlite"
	"github.com/aussiebroadwan/custodian/pkg/cryptox"
	"github.com/aussiebroadwan/custodian/pkg/jwtx"
	"github.com/aussiebroadwan/custodian/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application owns the record store and every service built on it.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	cipher   *cryptox.SecretCipher
	verifier *jwtx.Verifier

	enrollmentService *service.EnrollmentService
	unlockService     *service.UnlockService
	auditService      *service.AuditService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "custodian",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.auditService.Start()

	app.logger.Info("custodian starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"store", app.cfg.StoreDriver,
		"gateway_auth", app.verifier != nil,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.auditService.Stop()
		_ = app.db.Close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down custodian...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.auditService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("custodian stopped")
	return nil
}

// Handler exposes the router, mainly for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// Audit runs a single audit pass against the configured store.
func (app *Application) Audit(ctx context.Context) (service.AuditReport, error) {
	return app.auditService.Run(ctx)
}

// Close releases the store without touching the HTTP server.
func (app *Application) Close() error { return app.db.Close() }

// OpenStore opens and migrates the record store selected by cfg.
func OpenStore(cfg Config, logger *slog.Logger) (store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	var (
		st  store.Store
		err error
	)
	switch cfg.StoreDriver {
	case DriverFile:
		st, err = jsonfile.Open(cfg.StorePath, logger)
	case DriverSQLite:
		st, err = sqlite.NewStore(fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", cfg.StorePath))
	case DriverBolt:
		st, err = bolt.NewStore(cfg.StorePath, 5*time.Second)
	default:
		err = fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, cfg.StoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}

	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to apply store migrations: %w", err)
	}
	return st, nil
}

func (app *Application) initStore() error {
	db, err := OpenStore(app.cfg, app.logger)
	if err != nil {
		return err
	}
	app.db = db

	app.logger.Info("store ready", "driver", app.cfg.StoreDriver, "path", app.cfg.StorePath)
	return nil
}

func (app *Application) initServices() error {
	cipher, err := cryptox.NewSecretCipher(app.cfg.KDFParams())
	if err != nil {
		return fmt.Errorf("failed to initialize cipher: %w", err)
	}
	app.cipher = cipher

	if app.cfg.GatewaySecret != "" {
		v, err := jwtx.NewVerifier([]byte(app.cfg.GatewaySecret), app.cfg.GatewayIssuer)
		if err != nil {
			return fmt.Errorf("failed to initialize gateway verifier: %w", err)
		}
		app.verifier = v
	} else {
		app.logger.Warn("CUSTODY_GATEWAY_SECRET not set, API is unauthenticated", "env", app.cfg.Env)
	}

	app.enrollmentService = &service.EnrollmentService{Store: app.db, Cipher: app.cipher}
	app.unlockService = &service.UnlockService{Store: app.db, Cipher: app.cipher}
	app.auditService = service.NewAuditService(
		app.db,
		app.logger,
		app.cfg.AuditInterval,
		app.cfg.KDFParams(),
	)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.TrustProxyHeaders = app.cfg.TrustProxyHeaders
	router.EnrollmentService = app.enrollmentService
	router.UnlockService = app.unlockService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
