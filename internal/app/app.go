package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldar/school-social/internal/config"
	httpcontroller "github.com/eldar/school-social/internal/controller/http"
	"github.com/eldar/school-social/internal/database"
	announcementdao "github.com/eldar/school-social/internal/domain/announcement/dao"
	announcementservice "github.com/eldar/school-social/internal/domain/announcement/service"
	communitydao "github.com/eldar/school-social/internal/domain/community/dao"
	communityservice "github.com/eldar/school-social/internal/domain/community/service"
	messagedao "github.com/eldar/school-social/internal/domain/message/dao"
	messagepolicy "github.com/eldar/school-social/internal/domain/message/policy"
	messageservice "github.com/eldar/school-social/internal/domain/message/service"
	moderationdao "github.com/eldar/school-social/internal/domain/moderation/dao"
	moderationentity "github.com/eldar/school-social/internal/domain/moderation/entity"
	moderationpolicy "github.com/eldar/school-social/internal/domain/moderation/policy"
	moderationservice "github.com/eldar/school-social/internal/domain/moderation/service"
	postdao "github.com/eldar/school-social/internal/domain/post/dao"
	postentity "github.com/eldar/school-social/internal/domain/post/entity"
	postservice "github.com/eldar/school-social/internal/domain/post/service"
	profiledao "github.com/eldar/school-social/internal/domain/profile/dao"
	profilepolicy "github.com/eldar/school-social/internal/domain/profile/policy"
	profileservice "github.com/eldar/school-social/internal/domain/profile/service"
	"github.com/eldar/school-social/internal/metrics"
	"github.com/eldar/school-social/internal/realtime"
	"github.com/eldar/school-social/internal/storage"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	pool    *pgxpool.Pool
	broker  realtime.Broker
	storage *storage.S3Storage

	// Domain layers wired into HTTP handlers
	messagePolicy       *messagepolicy.Policy
	moderationPolicy    *moderationpolicy.Policy
	profilePolicy       *profilepolicy.Policy
	postService         *postservice.Service
	communityService    *communityservice.Service
	announcementService *announcementservice.Service
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Initialize router with middleware
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	app := &App{
		cfg:    cfg,
		router: r,
		logger: logger,
	}

	// Initialize infrastructure
	if err := app.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	// Initialize domain layers
	app.initDomains()

	// Register routes
	app.registerRoutes()

	// Initialize HTTP server
	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// initInfrastructure initializes the database pool, change-feed broker and
// object storage
func (a *App) initInfrastructure(ctx context.Context) error {
	pool, err := database.NewPostgresPool(ctx, a.cfg.Database.PostgresDSN, database.PoolConfig{
		MaxConns:     a.cfg.Database.MaxConns,
		MinConns:     a.cfg.Database.MinConns,
		ConnLifetime: a.cfg.Database.ConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	a.pool = pool

	broker, err := realtime.NewNatsBroker(a.cfg.NATS.URL, a.logger)
	if err != nil {
		return fmt.Errorf("connecting to nats: %w", err)
	}
	a.broker = broker

	s3store, err := storage.NewS3Storage(storage.S3Config{
		Endpoint:        a.cfg.S3.Endpoint,
		AccessKeyID:     a.cfg.S3.AccessKeyID,
		SecretAccessKey: a.cfg.S3.SecretAccessKey,
		Bucket:          a.cfg.S3.Bucket,
		Region:          a.cfg.S3.Region,
		PublicURL:       a.cfg.S3.PublicURL,
	})
	if err != nil {
		return fmt.Errorf("initializing s3 storage: %w", err)
	}
	a.storage = s3store

	return nil
}

// initDomains initializes domain layers (DAO, Service, Policy)
func (a *App) initDomains() {
	// Profiles and follows
	profileRepo := profiledao.NewProfilePostgres(a.pool)
	followRepo := profiledao.NewFollowPostgres(a.pool)
	profileSvc := profileservice.New(profileRepo, followRepo)
	a.profilePolicy = profilepolicy.New(profileSvc)

	// Direct messages and per-viewer inboxes
	messageRepo := messagedao.NewMessagePostgres(a.pool)
	messageSvc := messageservice.New(messageRepo, a.broker, messageservice.Config{
		SendPerMinute: a.cfg.Messaging.SendPerMinute,
	}, a.logger)
	a.messagePolicy = messagepolicy.New(messageSvc, a.broker, messageservice.InboxConfig{
		PollInterval: a.cfg.Messaging.InboxPollInterval,
	}, a.logger)

	// Posts and interactions
	postRepo := postdao.NewPostPostgres(a.pool)
	interactionRepo := postdao.NewInteractionPostgres(a.pool)
	a.postService = postservice.New(postRepo, interactionRepo, a.broker, a.logger)

	// Moderation: actions, reports and flagged-post deletion
	actionRepo := moderationdao.NewActionPostgres(a.pool)
	reportRepo := moderationdao.NewReportPostgres(a.pool)
	moderationSvc := moderationservice.New(actionRepo, reportRepo, &flaggedPostStore{posts: postRepo}, a.broker, a.logger)
	a.moderationPolicy = moderationpolicy.New(moderationSvc, &moderatorRoles{profiles: profileSvc})

	// Communities
	communityRepo := communitydao.NewCommunityPostgres(a.pool)
	a.communityService = communityservice.New(communityRepo, a.broker, a.logger)

	// Announcements
	announcementRepo := announcementdao.NewAnnouncementPostgres(a.pool)
	a.announcementService = announcementservice.New(announcementRepo, &announcerRoles{profiles: profileSvc}, a.broker, a.logger)
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() {
	// Health check
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)

	// Prometheus scrape endpoint
	a.router.Handle("/metrics", metrics.Handler())

	// API v1
	a.router.Route("/api/v1", func(r chi.Router) {
		r.Use(httpcontroller.Authenticate)

		httpcontroller.NewMessageHandler(a.messagePolicy).RegisterRoutes(r)
		httpcontroller.NewModerationHandler(a.moderationPolicy).RegisterRoutes(r)
		httpcontroller.NewProfileHandler(a.profilePolicy).RegisterRoutes(r)
		httpcontroller.NewPostHandler(a.postService).RegisterRoutes(r)
		httpcontroller.NewCommunityHandler(a.communityService).RegisterRoutes(r)
		httpcontroller.NewAnnouncementHandler(a.announcementService).RegisterRoutes(r)
		httpcontroller.NewMediaHandler(a.storage).RegisterRoutes(r)
	})
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler handles readiness check requests
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.pool.Ping(r.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"database unavailable"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	// Channel to receive errors from server
	errCh := make(chan error, 1)

	// Start HTTP server in goroutine
	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	// Graceful shutdown
	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	// Stop per-viewer inboxes before tearing down the broker they listen on
	a.messagePolicy.Shutdown()

	if a.broker != nil {
		a.broker.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}

	a.logger.Info("shutdown complete")
	return nil
}

// moderatorRoles adapts the profile service to the moderation policy's
// role lookup
type moderatorRoles struct {
	profiles *profileservice.Service
}

func (m *moderatorRoles) GetRole(ctx context.Context, userID string) (moderationpolicy.CallerRole, error) {
	p, err := m.profiles.GetProfile(ctx, userID)
	if err != nil {
		return moderationpolicy.CallerRole{}, err
	}
	return moderationpolicy.CallerRole{
		IsModerator: p.IsModerator,
		UserType:    string(p.UserType),
	}, nil
}

// flaggedPostStore adapts the post DAO to the moderation service, translating
// the post domain's not-found sentinel into the moderation one
type flaggedPostStore struct {
	posts *postdao.PostPostgres
}

func (f *flaggedPostStore) DeleteReturningAuthor(ctx context.Context, postID string) (string, error) {
	authorID, err := f.posts.DeleteReturningAuthor(ctx, postID)
	if errors.Is(err, postentity.ErrPostNotFound) {
		return "", moderationentity.ErrPostNotFound
	}
	return authorID, err
}

// announcerRoles adapts the profile service to the announcement service's
// role lookup
type announcerRoles struct {
	profiles *profileservice.Service
}

func (m *announcerRoles) GetRole(ctx context.Context, userID string) (announcementservice.AuthorRole, error) {
	p, err := m.profiles.GetProfile(ctx, userID)
	if err != nil {
		return announcementservice.AuthorRole{}, err
	}
	return announcementservice.AuthorRole{
		IsModerator: p.IsModerator,
		UserType:    string(p.UserType),
	}, nil
}
