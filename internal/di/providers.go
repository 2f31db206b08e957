package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/aki-13627/animalia/internal/app"
	"github.com/aki-13627/animalia/internal/config"
	"github.com/aki-13627/animalia/internal/database"
	"github.com/aki-13627/animalia/internal/http/handler"
	"github.com/aki-13627/animalia/internal/http/middleware"
	"github.com/aki-13627/animalia/internal/http/router"
	"github.com/aki-13627/animalia/internal/identity"
	"github.com/aki-13627/animalia/internal/observability"
	"github.com/aki-13627/animalia/internal/repository"
	"github.com/aki-13627/animalia/internal/security"
	"github.com/aki-13627/animalia/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	observability.NewLogger,
	provideRuntime,
)

var RuntimeInfraSet = wire.NewSet(
	database.Open,
	provideRedisClient,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewLocalCredentialRepository,
	repository.NewVerificationTokenRepository,
	repository.NewSessionRepository,
	repository.NewPetRepository,
	repository.NewPostRepository,
	repository.NewCommentRepository,
	repository.NewLikeRepository,
	repository.NewFollowRepository,
)

var SecuritySet = wire.NewSet(
	provideJWTManager,
	provideCookieManager,
)

var ServiceSet = wire.NewSet(
	provideStorageService,
	provideEmailVerificationNotifier,
	provideIdentityProvider,
	provideFeedCacheStore,
	provideAuthService,
	provideUserService,
	providePetService,
	providePostService,
)

var HTTPSet = wire.NewSet(
	provideAuthHandler,
	handler.NewUserHandler,
	handler.NewPetHandler,
	handler.NewPostHandler,
	provideRateLimiter,
	provideRouterDependencies,
	router.New,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

func provideRuntime(cfg *config.Config, logger *slog.Logger) (*observability.Runtime, error) {
	return observability.InitRuntime(context.Background(), cfg, logger)
}

// provideRedisClient returns nil when no Redis address is configured.
// Downstream providers fall back to in-process implementations on nil.
func provideRedisClient(cfg *config.Config, rt *observability.Runtime, logger *slog.Logger) redis.UniversalClient {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if hook, err := observability.NewRedisMetricsHook(rt.MeterProvider); err != nil {
		logger.Warn("redis metrics hook disabled", slog.String("error", err.Error()))
	} else {
		client.AddHook(hook)
	}
	return client
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)
}

func provideStorageService(cfg *config.Config) (service.StorageService, error) {
	return service.NewMinIOStorageService(
		cfg.StorageEndpoint, cfg.StorageAccessKey, cfg.StorageSecretKey,
		cfg.StorageBucket, cfg.StorageUseSSL)
}

func provideEmailVerificationNotifier(logger *slog.Logger) identity.EmailVerificationNotifier {
	return identity.NewDevEmailVerificationNotifier(logger)
}

func provideIdentityProvider(
	cfg *config.Config,
	creds repository.LocalCredentialRepository,
	codes repository.VerificationTokenRepository,
	sessions repository.SessionRepository,
	jwt *security.JWTManager,
	notifier identity.EmailVerificationNotifier,
) identity.Provider {
	return identity.NewLocalProvider(
		creds, codes, sessions, jwt, notifier,
		cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.VerificationCodeTTL,
		cfg.RefreshTokenPepper)
}

func provideFeedCacheStore(client redis.UniversalClient) service.FeedCacheStore {
	if client == nil {
		return service.NewNoopFeedCacheStore()
	}
	return service.NewRedisFeedCacheStore(client, "feed_cache")
}

func provideAuthService(provider identity.Provider, users repository.UserRepository, storage service.StorageService) service.AuthServiceInterface {
	return service.NewAuthService(provider, users, storage)
}

func provideUserService(users repository.UserRepository, follows repository.FollowRepository, storage service.StorageService) service.UserServiceInterface {
	return service.NewUserService(users, follows, storage)
}

func providePetService(pets repository.PetRepository, storage service.StorageService) service.PetServiceInterface {
	return service.NewPetService(pets, storage)
}

func providePostService(
	cfg *config.Config,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	likes repository.LikeRepository,
	storage service.StorageService,
	cache service.FeedCacheStore,
	logger *slog.Logger,
) service.PostServiceInterface {
	return service.NewPostService(posts, comments, likes, storage, cache, cfg.FeedCacheTTL, logger)
}

func provideAuthHandler(authSvc service.AuthServiceInterface, storage service.StorageService, cookies *security.CookieManager, cfg *config.Config) *handler.AuthHandler {
	return handler.NewAuthHandler(authSvc, storage, cookies, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
}

func provideRateLimiter(client redis.UniversalClient) middleware.Limiter {
	if client == nil {
		return middleware.NewLocalFixedWindowLimiter()
	}
	return middleware.NewRedisFixedWindowLimiter(client, "rate")
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	petHandler *handler.PetHandler,
	postHandler *handler.PostHandler,
	authSvc service.AuthServiceInterface,
	limiter middleware.Limiter,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:      authHandler,
		UserHandler:      userHandler,
		PetHandler:       petHandler,
		PostHandler:      postHandler,
		AuthService:      authSvc,
		RateLimiter:      limiter,
		CORSOrigins:      cfg.CORSAllowedOrigins,
		AuthRateLimitRPM: cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:  cfg.APIRateLimitPerMin,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// MigrationRunner opens the database and applies the schema, used by the
// migrate subcommand so the API process is not required.
type MigrationRunner struct {
	db *gorm.DB
}

func NewMigrationRunner(db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{db: db}
}

func (m *MigrationRunner) Run() error {
	return database.Migrate(m.db)
}
