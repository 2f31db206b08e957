package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aki-13627/animalia/internal/database"
	"github.com/aki-13627/animalia/internal/http/handler"
	"github.com/aki-13627/animalia/internal/http/middleware"
	"github.com/aki-13627/animalia/internal/http/router"
	"github.com/aki-13627/animalia/internal/identity"
	"github.com/aki-13627/animalia/internal/repository"
	"github.com/aki-13627/animalia/internal/security"
	"github.com/aki-13627/animalia/internal/service"
)

type codeCaptureNotifier struct {
	lastCode string
}

func (n *codeCaptureNotifier) SendEmailVerification(_ context.Context, notification identity.VerificationNotification) error {
	n.lastCode = notification.Code
	return nil
}

type fakeStorage struct{}

func (fakeStorage) UploadImage(_ context.Context, kind string, _ io.Reader, _ int64, _ string) (string, error) {
	return kind + "/object", nil
}

func (fakeStorage) DeleteImage(context.Context, string) error { return nil }

func (fakeStorage) ImageURL(_ context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", nil
	}
	return "https://storage.test/" + objectKey, nil
}

type testServerOptions struct {
	authRateLimitRPM int
}

func newAPIServer(t *testing.T, opts testServerOptions) (*httptest.Server, *codeCaptureNotifier) {
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
	notifier := &codeCaptureNotifier{}
	storage := fakeStorage{}
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

	authRPM := opts.authRateLimitRPM
	if authRPM == 0 {
		authRPM = 1000
	}

	cookies := security.NewCookieManager("", false, "lax")
	srv := httptest.NewServer(router.New(router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authSvc, storage, cookies, 15*time.Minute, 24*time.Hour),
		UserHandler:      handler.NewUserHandler(userSvc, storage),
		PetHandler:       handler.NewPetHandler(petSvc),
		PostHandler:      handler.NewPostHandler(postSvc),
		AuthService:      authSvc,
		RateLimiter:      middleware.NewLocalFixedWindowLimiter(),
		CORSOrigins:      []string{"*"},
		AuthRateLimitRPM: authRPM,
		APIRateLimitRPM:  1000,
	}))
	t.Cleanup(srv.Close)
	return srv, notifier
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func call(t *testing.T, method, url, token string, body any) (int, apiEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp.StatusCode, env
}

func errCode(env apiEnvelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func TestAuthLifecycle(t *testing.T) {
	srv, notifier := newAPIServer(t, testServerOptions{})
	base := srv.URL

	// Unverified accounts cannot sign in.
	status, env := call(t, http.MethodPost, base+"/auth/signup", "", map[string]string{
		"name": "Taro", "email": "taro@example.com", "password": "Passw0rd1",
	})
	if status != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d (%+v)", status, env.Error)
	}

	status, env = call(t, http.MethodPost, base+"/auth/signin", "", map[string]string{
		"email": "taro@example.com", "password": "Passw0rd1",
	})
	if status != http.StatusUnauthorized || errCode(env) != "EMAIL_UNVERIFIED" {
		t.Fatalf("pre-verify signin: expected 401 EMAIL_UNVERIFIED, got %d %s", status, errCode(env))
	}

	// Wrong code is rejected, right code verifies.
	status, env = call(t, http.MethodPost, base+"/auth/verify-email", "", map[string]string{
		"email": "taro@example.com", "code": "000000",
	})
	if status != http.StatusBadRequest || errCode(env) != "INVALID_CODE" {
		t.Fatalf("bad code: expected 400 INVALID_CODE, got %d %s", status, errCode(env))
	}
	status, _ = call(t, http.MethodPost, base+"/auth/verify-email", "", map[string]string{
		"email": "taro@example.com", "code": notifier.lastCode,
	})
	if status != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d", status)
	}

	status, env = call(t, http.MethodPost, base+"/auth/signin", "", map[string]string{
		"email": "taro@example.com", "password": "Passw0rd1",
	})
	if status != http.StatusOK {
		t.Fatalf("signin: expected 200, got %d %s", status, errCode(env))
	}
	var tokens struct {
		AccessToken  string `json:"accessToken"`
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(env.Data, &tokens); err != nil {
		t.Fatalf("decode tokens: %v", err)
	}
	if tokens.AccessToken == "" || tokens.IDToken == "" || tokens.RefreshToken == "" {
		t.Fatal("expected full token triple")
	}

	// The access token resolves the session user.
	status, env = call(t, http.MethodGet, base+"/auth/me", tokens.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("me: expected 200, got %d %s", status, errCode(env))
	}
	var me struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &me); err != nil || me.User.Email != "taro@example.com" {
		t.Fatalf("unexpected me payload: %s (%v)", env.Data, err)
	}

	// Refresh rotates access and id tokens, echoes the refresh token.
	status, env = call(t, http.MethodPost, base+"/auth/refresh", "", map[string]string{
		"refreshToken": tokens.RefreshToken,
	})
	if status != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d %s", status, errCode(env))
	}
	var rotated struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(env.Data, &rotated); err != nil {
		t.Fatalf("decode refresh payload: %v", err)
	}
	if rotated.RefreshToken != tokens.RefreshToken {
		t.Fatal("refresh token must be echoed unchanged")
	}

	// Sign-out revokes the session: refresh stops working.
	status, _ = call(t, http.MethodPost, base+"/auth/signout", rotated.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("signout: expected 200, got %d", status)
	}
	status, env = call(t, http.MethodPost, base+"/auth/refresh", "", map[string]string{
		"refreshToken": tokens.RefreshToken,
	})
	if status != http.StatusBadRequest || errCode(env) != "INVALID_OR_EXPIRED_TOKEN" {
		t.Fatalf("post-signout refresh: expected 400 INVALID_OR_EXPIRED_TOKEN, got %d %s", status, errCode(env))
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	srv, _ := newAPIServer(t, testServerOptions{})
	base := srv.URL

	status, env := call(t, http.MethodGet, base+"/posts/timeline", "", nil)
	if status != http.StatusUnauthorized || errCode(env) != "NO_CREDENTIAL" {
		t.Fatalf("expected 401 NO_CREDENTIAL, got %d %s", status, errCode(env))
	}

	status, env = call(t, http.MethodGet, base+"/posts/timeline", "garbage-token", nil)
	if status != http.StatusForbidden || errCode(env) != "INVALID_OR_EXPIRED_TOKEN" {
		t.Fatalf("expected 403 INVALID_OR_EXPIRED_TOKEN, got %d %s", status, errCode(env))
	}
}

func TestAuthEndpointsRateLimited(t *testing.T) {
	srv, _ := newAPIServer(t, testServerOptions{authRateLimitRPM: 3})
	base := srv.URL

	var lastStatus int
	var lastEnv apiEnvelope
	for i := 0; i < 4; i++ {
		lastStatus, lastEnv = call(t, http.MethodPost, base+"/auth/signin", "", map[string]string{
			"email": "taro@example.com", "password": "Passw0rd1",
		})
	}
	if lastStatus != http.StatusTooManyRequests || errCode(lastEnv) != "RATE_LIMITED" {
		t.Fatalf("expected 429 RATE_LIMITED on the fourth attempt, got %d %s", lastStatus, errCode(lastEnv))
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newAPIServer(t, testServerOptions{})

	status, env := call(t, http.MethodGet, srv.URL+"/health", "", nil)
	if status != http.StatusOK || !env.Success {
		t.Fatalf("expected healthy response, got %d %+v", status, env)
	}
}
