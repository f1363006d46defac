package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/seuss/internal/seuss/http"
	"github.com/aussiebroadwan/seuss/internal/seuss/domain"
	"github.com/aussiebroadwan/seuss/internal/seuss/metrics"
	"github.com/aussiebroadwan/seuss/internal/seuss/service"
	"github.com/aussiebroadwan/seuss/internal/seuss/store"
	redisstore "github.com/aussiebroadwan/seuss/internal/seuss/store/drivers/redis"
	"github.com/aussiebroadwan/seuss/internal/seuss/store/drivers/sqlite"
	"github.com/aussiebroadwan/seuss/pkg/authx"
	"github.com/aussiebroadwan/seuss/pkg/cryptox"
	"github.com/aussiebroadwan/seuss/pkg/privilege"
	"github.com/aussiebroadwan/seuss/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the Redfish session service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db           *sqlite.Store
	sessionStore store.Sessions
	redisStore   *redisstore.SessionStore // Optional: only with the redis session store
	hasher       *cryptox.Hasher
	metrics      *metrics.Metrics

	// Services
	accountService      *service.AccountService
	sessionService      *service.SessionService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService
	authenticator       authx.Chain

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "seuss",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewHasher(pepper)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := app.initSessionStore(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.Close()
		return nil, err
	}

	if err := app.bootstrap(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("seuss starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"session_store", app.cfg.SessionStore,
		"auth_schemes", app.authenticator.Challenge(),
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down seuss...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	if err := app.Close(); err != nil {
		return err
	}

	app.logger.Info("seuss stopped")
	return nil
}

// Close releases the session backend and the database. Shutdown calls it;
// callers that never ran the server use it directly.
func (app *Application) Close() error {
	var errs []error
	if app.redisStore != nil {
		if err := app.redisStore.Close(); err != nil {
			app.logger.Error("error closing session store", "error", err)
			errs = append(errs, err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := OpenDatabase(app.cfg.DatabaseFile)
	if err != nil {
		return err
	}
	app.db = db

	app.logger.Info("database migrations applied successfully")
	return nil
}

// OpenDatabase opens the SQLite database at path and applies migrations.
func OpenDatabase(path string) (*sqlite.Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}

// initSessionStore selects where sessions live. Accounts and roles always
// stay in the database.
func (app *Application) initSessionStore(ctx context.Context) error {
	switch app.cfg.SessionStore {
	case SessionStoreRedis:
		client, err := redisstore.NewClient(ctx, app.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.redisStore = redisstore.NewSessionStore(client, app.cfg.RedisKeyPrefix)
		app.sessionStore = app.redisStore
		app.logger.Info("using redis session store", "prefix", app.cfg.RedisKeyPrefix)
	default:
		app.sessionStore = app.db.Sessions()
	}
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	app.metrics = metrics.New(app.sessionStore)

	app.accountService = &service.AccountService{
		Store:  app.db,
		Hasher: app.hasher,
	}
	app.bootstrapService = &service.BootstrapService{
		Store:  app.db,
		Hasher: app.hasher,
	}

	app.sessionService = service.NewSessionService(app.sessionStore, app.accountService, service.SessionSettings{
		Timeout:     app.cfg.SessionTimeout,
		MaxSessions: app.cfg.MaxSessions,
		BindOrigin:  app.cfg.BindSessionOrigin,
	})
	app.sessionService.Observer = app.metrics

	app.housekeepingService = service.NewHousekeepingService(
		app.sessionStore,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.SessionTimeout,
	)
	app.housekeepingService.Observer = app.metrics

	chain, err := NewAuthenticator(app.cfg.AuthSchemes, app.accountService, app.sessionService)
	if err != nil {
		return err
	}
	app.authenticator = chain

	return nil
}

// bootstrap seeds the standard roles and the admin account on first start.
// A generated password is logged exactly once.
func (app *Application) bootstrap(ctx context.Context) error {
	generated, err := app.bootstrapService.Bootstrap(slogx.WithContext(ctx, app.logger), domain.BootstrapData{
		AdminUsername: app.cfg.AdminUsername,
		AdminPassword: app.cfg.AdminPassword,
		AdminRole:     privilege.RoleAdministrator,
		Roles:         privilege.StandardRoles(),
	})
	switch {
	case errors.Is(err, service.ErrBootstrapAlready):
		return nil
	case err != nil:
		return fmt.Errorf("failed to bootstrap: %w", err)
	}

	if generated != "" {
		app.logger.Warn("generated initial admin password, change it after first login",
			"username", app.cfg.AdminUsername,
			"password", generated,
		)
	}
	app.logger.Info("bootstrap complete", "username", app.cfg.AdminUsername)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.logger)

	// Wire services to router
	router.Authenticator = app.authenticator
	router.Sessions = app.sessionService
	router.Observer = app.metrics
	router.Metrics = app.metrics.Handler()
	router.SessionTimeout = app.cfg.SessionTimeout
	router.ServiceUUID = app.cfg.ServiceUUID
	router.ReadyChecks = map[string]httpapi.Pinger{"database": app.db}
	if app.redisStore != nil {
		router.ReadyChecks["sessions"] = app.redisStore
	}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// NewAuthenticator builds the strategy chain in the given scheme order.
func NewAuthenticator(schemes []string, accounts authx.BasicAuthentication, sessions authx.SessionManagement) (authx.Chain, error) {
	chain := make(authx.Chain, 0, len(schemes))
	for _, scheme := range schemes {
		switch {
		case strings.EqualFold(scheme, authx.SchemeBasic):
			chain = append(chain, authx.NewBasicAuthenticationProxy(accounts))
		case strings.EqualFold(scheme, authx.SchemeSession):
			chain = append(chain, authx.NewSessionAuthenticationProxy(sessions))
		default:
			return nil, fmt.Errorf("unknown authentication scheme %q", scheme)
		}
	}
	if len(chain) == 0 {
		return nil, errors.New("no authentication schemes configured")
	}
	return chain, nil
}
