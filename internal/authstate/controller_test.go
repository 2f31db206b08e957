package authstate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aki-13627/animalia/internal/database"
	"github.com/aki-13627/animalia/internal/domain"
	"github.com/aki-13627/animalia/internal/http/handler"
	"github.com/aki-13627/animalia/internal/http/middleware"
	"github.com/aki-13627/animalia/internal/http/router"
	"github.com/aki-13627/animalia/internal/identity"
	"github.com/aki-13627/animalia/internal/repository"
	"github.com/aki-13627/animalia/internal/security"
	"github.com/aki-13627/animalia/internal/service"
)

type serverNotifier struct {
	lastCode string
}

func (n *serverNotifier) SendEmailVerification(_ context.Context, notification identity.VerificationNotification) error {
	n.lastCode = notification.Code
	return nil
}

type serverStorage struct{}

func (serverStorage) UploadImage(_ context.Context, kind string, _ io.Reader, _ int64, _ string) (string, error) {
	return kind + "/uploaded", nil
}

func (serverStorage) DeleteImage(context.Context, string) error { return nil }

func (serverStorage) ImageURL(_ context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", nil
	}
	return "https://storage.test/" + objectKey, nil
}

type authTestEnv struct {
	server   *httptest.Server
	notifier *serverNotifier
	jwt      *security.JWTManager
	db       *gorm.DB
}

// newAuthTestEnv boots the real route tree over sqlite so the controller
// is exercised against the actual response envelope and error codes.
func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	jwt := security.NewJWTManager(
		"animalia-test", "animalia-api",
		"0123456789abcdef0123456789abcdef",
		"fedcba9876543210fedcba9876543210",
	)
	notifier := &serverNotifier{}
	storage := serverStorage{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	provider := identity.NewLocalProvider(
		repository.NewLocalCredentialRepository(db),
		repository.NewVerificationTokenRepository(db),
		repository.NewSessionRepository(db),
		jwt, notifier,
		15*time.Minute, 24*time.Hour, 10*time.Minute,
		"0123456789abcdef",
	)

	users := repository.NewUserRepository(db)
	authSvc := service.NewAuthService(provider, users, storage)
	userSvc := service.NewUserService(users, repository.NewFollowRepository(db), storage)
	petSvc := service.NewPetService(repository.NewPetRepository(db), storage)
	postSvc := service.NewPostService(
		repository.NewPostRepository(db),
		repository.NewCommentRepository(db),
		repository.NewLikeRepository(db),
		storage,
		service.NewNoopFeedCacheStore(),
		time.Minute,
		log,
	)

	cookies := security.NewCookieManager("", false, "lax")
	dep := router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authSvc, storage, cookies, 15*time.Minute, 24*time.Hour),
		UserHandler:      handler.NewUserHandler(userSvc, storage),
		PetHandler:       handler.NewPetHandler(petSvc),
		PostHandler:      handler.NewPostHandler(postSvc),
		AuthService:      authSvc,
		RateLimiter:      middleware.NewLocalFixedWindowLimiter(),
		CORSOrigins:      []string{"*"},
		AuthRateLimitRPM: 1000,
		APIRateLimitRPM:  1000,
	}

	srv := httptest.NewServer(router.New(dep))
	t.Cleanup(srv.Close)
	return &authTestEnv{server: srv, notifier: notifier, jwt: jwt, db: db}
}

func newControllerForTest(t *testing.T) (*Controller, *authTestEnv, *MemoryTokenStore) {
	t.Helper()
	env := newAuthTestEnv(t)
	store := NewMemoryTokenStore()
	ctrl := NewController(NewClient(env.server.URL), store)
	return ctrl, env, store
}

func registerTaro(t *testing.T, ctrl *Controller, env *authTestEnv) {
	t.Helper()
	ctx := context.Background()
	if err := ctrl.Signup(ctx, "Taro", "taro@example.com", "Passw0rd1"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if env.notifier.lastCode == "" {
		t.Fatal("expected verification code issued")
	}
	if err := ctrl.VerifyEmail(ctx, "taro@example.com", env.notifier.lastCode); err != nil {
		t.Fatalf("verify email: %v", err)
	}
}

func storedTokens(t *testing.T, store TokenStore) (string, string, string) {
	t.Helper()
	access, _ := store.Get(KeyAccessToken)
	id, _ := store.Get(KeyIDToken)
	refresh, _ := store.Get(KeyRefreshToken)
	return access, id, refresh
}

func TestControllerSignupLoginFlow(t *testing.T) {
	ctrl, env, store := newControllerForTest(t)
	ctx := context.Background()

	if ctrl.State() != StateLoading {
		t.Fatalf("expected loading before restore, got %v", ctrl.State())
	}

	registerTaro(t, ctrl, env)

	triple, err := ctrl.Login(ctx, "taro@example.com", "Passw0rd1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if triple.AccessToken == "" || triple.IDToken == "" || triple.RefreshToken == "" {
		t.Fatalf("expected non-empty triple, got %+v", triple)
	}

	if ctrl.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %v", ctrl.State())
	}
	user := ctrl.CurrentUser()
	if user == nil || user.Email != "taro@example.com" || user.Name != "Taro" {
		t.Fatalf("unexpected current user: %+v", user)
	}

	access, id, refresh := storedTokens(t, store)
	if access != triple.AccessToken || id != triple.IDToken || refresh != triple.RefreshToken {
		t.Fatal("store must hold the issued triple")
	}
}

func TestControllerLoginBeforeVerification(t *testing.T) {
	ctrl, _, _ := newControllerForTest(t)
	ctx := context.Background()

	if err := ctrl.Signup(ctx, "Taro", "taro@example.com", "Passw0rd1"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, err := ctrl.Login(ctx, "taro@example.com", "Passw0rd1")
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Code != "EMAIL_UNVERIFIED" {
		t.Fatalf("expected AuthError EMAIL_UNVERIFIED, got %v", err)
	}
	if ctrl.State() != StateAnonymous {
		t.Fatalf("expected anonymous after failed login, got %v", ctrl.State())
	}
}

func TestControllerLoginFailureClearsTokens(t *testing.T) {
	ctrl, env, store := newControllerForTest(t)
	ctx := context.Background()
	registerTaro(t, ctrl, env)

	if _, err := ctrl.Login(ctx, "taro@example.com", "Passw0rd1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err := ctrl.Login(ctx, "taro@example.com", "WrongPass1")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if ctrl.State() != StateAnonymous || ctrl.CurrentUser() != nil {
		t.Fatal("failed login must demote to anonymous")
	}
	if access, id, refresh := storedTokens(t, store); access != "" || id != "" || refresh != "" {
		t.Fatal("failed login must clear stored tokens")
	}
}

func TestControllerConcurrentLoginsSerialize(t *testing.T) {
	ctrl, env, store := newControllerForTest(t)
	ctx := context.Background()
	registerTaro(t, ctrl, env)

	// Two logins race for the same controller. The mutex serializes them,
	// so the store must end up holding one login's complete triple, never
	// tokens interleaved from both.
	const workers = 2
	triples := make([]*TokenTriple, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			triple, err := ctrl.Login(ctx, "taro@example.com", "Passw0rd1")
			if err != nil {
				t.Errorf("login %d: %v", i, err)
				return
			}
			triples[i] = triple
		}(i)
	}
	wg.Wait()

	if ctrl.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %v", ctrl.State())
	}
	// The refresh token carries a unique jti per login, so it identifies
	// which login's triple the store ended up with.
	access, id, refresh := storedTokens(t, store)
	for _, triple := range triples {
		if triple == nil {
			t.Fatal("missing login result")
		}
		if refresh == triple.RefreshToken {
			if access != triple.AccessToken || id != triple.IDToken {
				t.Fatal("store holds tokens interleaved across logins")
			}
			return
		}
	}
	t.Fatal("stored refresh token matches neither login")
}

func TestControllerLogoutIdempotent(t *testing.T) {
	ctrl, env, store := newControllerForTest(t)
	ctx := context.Background()
	registerTaro(t, ctrl, env)

	triple, err := ctrl.Login(ctx, "taro@example.com", "Passw0rd1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := ctrl.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if ctrl.State() != StateAnonymous || ctrl.CurrentUser() != nil {
		t.Fatal("expected anonymous after logout")
	}
	if access, _, _ := storedTokens(t, store); access != "" {
		t.Fatal("expected tokens cleared")
	}

	// Logout while anonymous stays a no-op.
	if err := ctrl.Logout(ctx); err != nil {
		t.Fatalf("repeat logout: %v", err)
	}

	// The revoked session must not refresh anymore.
	if _, err := NewClient(env.server.URL).Refresh(ctx, triple.RefreshToken); err == nil {
		t.Fatal("expected revoked refresh token rejected")
	}
}

func TestControllerRefetch(t *testing.T) {
	ctrl, env, _ := newControllerForTest(t)
	ctx := context.Background()

	_, err := ctrl.Refetch(ctx)
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Code != "NO_CREDENTIAL" {
		t.Fatalf("expected NO_CREDENTIAL while logged out, got %v", err)
	}

	registerTaro(t, ctrl, env)
	if _, err := ctrl.Login(ctx, "taro@example.com", "Passw0rd1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	user, err := ctrl.Refetch(ctx)
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if user.Email != "taro@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestControllerRefetchDeletedUser(t *testing.T) {
	ctrl, env, _ := newControllerForTest(t)
	ctx := context.Background()
	registerTaro(t, ctrl, env)
	if _, err := ctrl.Login(ctx, "taro@example.com", "Passw0rd1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// A valid session whose local account disappeared is a consistency
	// failure, not an auth failure.
	if err := env.db.Unscoped().Where("email = ?", "taro@example.com").Delete(&domain.User{}).Error; err != nil {
		t.Fatalf("delete user row: %v", err)
	}

	_, err := ctrl.Refetch(ctx)
	var consErr *ConsistencyError
	if !errors.As(err, &consErr) {
		t.Fatalf("expected ConsistencyError, got %v", err)
	}
}

func TestControllerRestoreWithoutTokens(t *testing.T) {
	ctrl, _, _ := newControllerForTest(t)

	if err := ctrl.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if ctrl.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %v", ctrl.State())
	}
}

func TestControllerRestoreValidSession(t *testing.T) {
	ctrl, env, _ := newControllerForTest(t)
	ctx := context.Background()
	registerTaro(t, ctrl, env)
	if _, err := ctrl.Login(ctx, "taro@example.com", "Passw0rd1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// A fresh controller over the same store recovers the session.
	restored := NewController(NewClient(env.server.URL), ctrl.store)
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %v", restored.State())
	}
	if user := restored.CurrentUser(); user == nil || user.Email != "taro@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestControllerRestoreRefreshesExpiredAccess(t *testing.T) {
	ctrl, env, store := newControllerForTest(t)
	ctx := context.Background()
	registerTaro(t, ctrl, env)
	if _, err := ctrl.Login(ctx, "taro@example.com", "Passw0rd1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// Replace the stored access token with an already expired one; the
	// refresh token stays live, so Restore recovers in one exchange.
	var cred domain.LocalCredential
	if err := env.db.Where("email = ?", "taro@example.com").First(&cred).Error; err != nil {
		t.Fatalf("load credential: %v", err)
	}
	expired, err := env.jwt.SignAccessToken(cred.ID, cred.Email, -time.Minute)
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	if err := store.Set(KeyAccessToken, expired); err != nil {
		t.Fatalf("store expired token: %v", err)
	}

	restored := NewController(NewClient(env.server.URL), store)
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.State() != StateAuthenticated {
		t.Fatalf("expected recovered session, got %v", restored.State())
	}
	if access, _ := store.Get(KeyAccessToken); access == expired || access == "" {
		t.Fatal("expected a fresh access token persisted")
	}
}

func TestControllerRestoreDeadSessionResolvesAnonymous(t *testing.T) {
	ctrl, env, store := newControllerForTest(t)
	ctx := context.Background()
	registerTaro(t, ctrl, env)
	if _, err := ctrl.Login(ctx, "taro@example.com", "Passw0rd1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// Kill the session server-side, then poison the access token: the one
	// allowed refresh fails and Restore settles on anonymous without error.
	if err := ctrl.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := store.Set(KeyAccessToken, "garbage"); err != nil {
		t.Fatalf("seed garbage token: %v", err)
	}
	if err := store.Set(KeyRefreshToken, "garbage-refresh"); err != nil {
		t.Fatalf("seed garbage refresh: %v", err)
	}

	restored := NewController(NewClient(env.server.URL), store)
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("restore must not fail for a dead session: %v", err)
	}
	if restored.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %v", restored.State())
	}
	if access, _, refresh := storedTokens(t, store); access != "" || refresh != "" {
		t.Fatal("expected dead tokens deleted")
	}
}

func TestControllerRestoreNetworkFailureKeepsTokens(t *testing.T) {
	env := newAuthTestEnv(t)
	store := NewMemoryTokenStore()
	ctrl := NewController(NewClient(env.server.URL), store)
	ctx := context.Background()
	registerTaro(t, ctrl, env)
	if _, err := ctrl.Login(ctx, "taro@example.com", "Passw0rd1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// Point a fresh controller at a dead endpoint: the tokens must survive
	// so a later restore can succeed.
	dead := httptest.NewServer(nil)
	dead.Close()
	offline := NewController(NewClient(dead.URL), store)

	err := offline.Restore(ctx)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if offline.State() != StateAnonymous {
		t.Fatalf("expected anonymous while offline, got %v", offline.State())
	}
	if access, _, _ := storedTokens(t, store); access == "" {
		t.Fatal("tokens must survive a transport failure")
	}

	// Back online, the same store restores the session.
	online := NewController(NewClient(env.server.URL), store)
	if err := online.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if online.State() != StateAuthenticated {
		t.Fatalf("expected authenticated after recovery, got %v", online.State())
	}
}
