package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fhuszti/skillswap-media-ms/internal/assets"
	"github.com/fhuszti/skillswap-media-ms/internal/config"
	"github.com/fhuszti/skillswap-media-ms/internal/db"
	"github.com/fhuszti/skillswap-media-ms/internal/events"
	"github.com/fhuszti/skillswap-media-ms/internal/handler/api"
	"github.com/fhuszti/skillswap-media-ms/internal/ingress"
	"github.com/fhuszti/skillswap-media-ms/internal/logger"
	"github.com/fhuszti/skillswap-media-ms/internal/metrics"
	cMiddleware "github.com/fhuszti/skillswap-media-ms/internal/middleware"
	"github.com/fhuszti/skillswap-media-ms/internal/policy"
	"github.com/fhuszti/skillswap-media-ms/internal/port"
	"github.com/fhuszti/skillswap-media-ms/internal/repository/mariadb"
	"github.com/fhuszti/skillswap-media-ms/internal/scratch"
	"github.com/fhuszti/skillswap-media-ms/internal/storage"
	"github.com/fhuszti/skillswap-media-ms/internal/task"
	"github.com/fhuszti/skillswap-media-ms/internal/usecase/upload"
	"github.com/fhuszti/skillswap-media-ms/internal/uuid"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// route binds one upload endpoint to its profile.
type route struct {
	method  string
	pattern string
	idParam string
	binding api.Binding
}

var routes = []route{
	{http.MethodPost, "/users/upload-avatar", "", api.Binding{Profile: policy.UserAvatar, Message: "Avatar uploaded successfully"}},
	{http.MethodPatch, "/communities/{id}/image", "id", api.Binding{Profile: policy.CommunityImage, Owner: api.OwnerFromPath, Message: "Community image updated successfully"}},
	{http.MethodPatch, "/communities/{id}/avatar", "id", api.Binding{Profile: policy.CommunityAvatar, Owner: api.OwnerFromPath, Message: "Community avatar updated successfully"}},
	{http.MethodPatch, "/communities/{id}/header-image", "id", api.Binding{Profile: policy.CommunityHeader, Owner: api.OwnerFromPath, Message: "Community header image updated successfully"}},
	{http.MethodPost, "/chat/message/{chatId}/file", "chatId", api.Binding{Profile: policy.ChatAttachment, Owner: api.OwnerFromPath, Status: http.StatusCreated, Message: "File sent successfully"}},
	{http.MethodPost, "/chat/message/{chatId}/audio", "chatId", api.Binding{Profile: policy.AudioMessage, Owner: api.OwnerFromPath, Status: http.StatusCreated, Message: "Voice message sent successfully"}},
	{http.MethodPost, "/posts/with-images", "", api.Binding{Profile: policy.PostImages, Status: http.StatusCreated, Message: "Post created successfully"}},
	{http.MethodPost, "/users/upload-document", "", api.Binding{Profile: policy.Document, Status: http.StatusCreated, Message: "Document uploaded successfully"}},
}

type closer interface {
	Close() error
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.Init()

	database := initDb(ctx, cfg)

	store := scratch.New(cfg.ScratchDir)
	if err := store.EnsureRoot(); err != nil {
		logger.Errorf(ctx, "❌  Failed to prepare scratch directory %q: %v", cfg.ScratchDir, err)
		os.Exit(1)
	}

	registry, err := policy.New(policy.Defaults(cfg.ImageProvider, cfg.ObjectStoreEnabled())...)
	if err != nil {
		logger.Errorf(ctx, "❌  Invalid upload profiles: %v", err)
		os.Exit(1)
	}

	assetSvc := initAssets(ctx, cfg, registry)

	var dispatcher port.TaskDispatcher
	var publisher port.EventPublisher
	var closers []closer
	var inline *task.InlineDispatcher
	if cfg.RedisAddr != "" {
		d := task.NewDispatcher(cfg.RedisAddr, cfg.RedisPassword)
		p := events.NewRedisPublisher(cfg.RedisAddr, cfg.RedisPassword)
		dispatcher, publisher = d, p
		closers = append(closers, d, p)
		logger.Info(ctx, "✅  Redis enabled for deletions and events")
	} else {
		inline = task.NewInlineDispatcher(assetSvc, cfg.AssetTimeout)
		dispatcher, publisher = inline, events.NewNoop()
		logger.Warn(ctx, "⚠️  Redis not configured: deletions run inline and events are disabled")
	}

	committer := upload.NewCommitter(
		mariadb.NewDocumentRepository(database.DB),
		mariadb.NewActivityRepository(database.DB),
		dispatcher,
		publisher,
		upload.CommitterOptions{MaxAttempts: cfg.CommitMaxAttempts, NewID: uuid.NewUUID, Now: time.Now},
	)
	pipeline := upload.NewPipeline(registry, ingress.New(store), assetSvc, committer,
		upload.PipelineOptions{UploadConcurrency: cfg.AssetUploadConcurrency})

	r := initRouter(ctx, cfg, database)
	r.Group(func(r chi.Router) {
		r.Use(cMiddleware.WithBearerAuth(cfg.JWTPublicKey, cfg.JWTIssuer, cfg.JWTAudience))
		r.Use(cMiddleware.WithRateLimit(cMiddleware.RateLimitConfig{
			RequestsPerMinute: cfg.UploadRatePerMinute,
			Burst:             cfg.UploadRateBurst,
		}))
		r.Use(cMiddleware.WithCleanupSentinel(store))
		mountUploads(ctx, r, registry, pipeline)
	})

	listenRouter(ctx, r, cfg, database, closers, inline)
}

func initDb(ctx context.Context, cfg *config.Settings) *db.Database {
	logger.Info(ctx, "initialising database...")

	database, err := db.New(cfg.MariaDBDSN, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		os.Exit(1)
	}

	return database
}

func initAssets(ctx context.Context, cfg *config.Settings, registry *policy.Registry) *assets.Service {
	var providers []assets.Provider

	if cfg.CloudinaryEnabled() {
		c, err := assets.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			logger.Errorf(ctx, "❌  Failed to initialise Cloudinary: %v", err)
			os.Exit(1)
		}
		providers = append(providers, c)
	}

	if cfg.ObjectStoreEnabled() {
		strg, err := storage.NewStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
		if err != nil {
			logger.Errorf(ctx, "❌  Failed to initialise MinIO client: %v", err)
			os.Exit(1)
		}
		for _, b := range registry.Buckets(policy.ProviderObjectStore) {
			if err := strg.InitBucket(b); err != nil {
				logger.Errorf(ctx, "❌  Failed to initialise bucket %q: %v", b, err)
				os.Exit(1)
			}
		}
		providers = append(providers, assets.NewObjectStore(strg))
	}

	svc := assets.NewService(assets.Options{
		Timeout:            cfg.AssetTimeout,
		BreakerFailureRate: cfg.BreakerFailureRate,
		BreakerMinRequests: cfg.BreakerMinRequests,
		BreakerTimeout:     cfg.BreakerTimeout,
	}, providers...)

	if err := registry.RequireProviders(svc.Providers()); err != nil {
		logger.Errorf(ctx, "❌  Missing asset provider credentials: %v", err)
		os.Exit(1)
	}
	logger.Infof(ctx, "✅  Asset providers ready: %v", svc.ProviderNames())
	return svc
}

func initRouter(ctx context.Context, cfg *config.Settings, database *db.Database) *chi.Mux {
	logger.Info(ctx, "initialising router...")

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(api.NotFoundHandler())
	r.MethodNotAllowed(api.MethodNotAllowedHandler())

	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.PingContext(r.Context()); err != nil {
			api.WriteError(w, http.StatusServiceUnavailable, "database unreachable", err)
			return
		}
		api.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

// mountUploads registers every route whose profile is configured.
func mountUploads(ctx context.Context, r chi.Router, registry *policy.Registry, pipeline port.UploadPipeline) {
	for _, rt := range routes {
		if _, err := registry.Resolve(rt.binding.Profile); err != nil {
			logger.Infof(ctx, "skipping %s %s: profile %q not configured", rt.method, rt.pattern, rt.binding.Profile)
			continue
		}
		h := http.Handler(api.UploadHandler(rt.binding, pipeline))
		if rt.idParam != "" {
			h = cMiddleware.WithPathID(rt.idParam)(h)
		}
		r.Method(rt.method, rt.pattern, h)
		logger.Debugf(ctx, "mounted %s %s -> %s", rt.method, rt.pattern, rt.binding.Profile)
	}
}

func listenRouter(ctx context.Context, r *chi.Mux, cfg *config.Settings, database *db.Database, closers []closer, inline *task.InlineDispatcher) {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// start serving
	go func() {
		logger.Infof(ctx, "🚀 API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "❌  Listen error: %v", err)
			os.Exit(1)
		}
	}()

	// block until we get SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// in-flight uploads finish and their sentinels release scratch files
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "❌  Server shutdown failed: %v", err)
	}

	if inline != nil {
		inline.Wait()
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warnf(ctx, "⚠️  close error: %v", err)
		}
	}
	if err := database.Close(); err != nil {
		logger.Errorf(ctx, "DB close error: %v", err)
		os.Exit(1)
	}
	logger.Info(ctx, "✅  Server gracefully stopped")
}
