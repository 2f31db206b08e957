package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/aki-13627/animalia/internal/http/middleware"
	"github.com/aki-13627/animalia/internal/http/response"
	"github.com/aki-13627/animalia/internal/identity"
	"github.com/aki-13627/animalia/internal/security"
	"github.com/aki-13627/animalia/internal/service"
)

type AuthHandler struct {
	authSvc    service.AuthServiceInterface
	storageSvc service.StorageService
	cookies    *security.CookieManager
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthHandler(authSvc service.AuthServiceInterface, storageSvc service.StorageService, cookies *security.CookieManager, accessTTL, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authSvc:    authSvc,
		storageSvc: storageSvc,
		cookies:    cookies,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (req *signUpRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name is required")
	}
	return validateEmailPassword(req.Email, req.Password)
}

func validateEmailPassword(email, password string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return errors.New("email is invalid")
	}
	if password == "" {
		return errors.New("password is required")
	}
	return nil
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	user, err := h.authSvc.SignUp(r.Context(), strings.TrimSpace(req.Name), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailTaken):
			response.Error(w, r, http.StatusBadRequest, "EMAIL_TAKEN", "email already registered", nil)
		case errors.Is(err, identity.ErrWeakPassword):
			response.Error(w, r, http.StatusBadRequest, "WEAK_PASSWORD", "password does not meet policy", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to sign up", nil)
		}
		return
	}

	view, err := service.NewUserView(r.Context(), h.storageSvc, user)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to render user", nil)
		return
	}
	response.JSON(w, r, http.StatusCreated, map[string]any{"user": view})
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Code) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "email and code are required", nil)
		return
	}

	if err := h.authSvc.VerifyEmail(r.Context(), req.Email, req.Code); err != nil {
		if errors.Is(err, identity.ErrInvalidCode) || errors.Is(err, identity.ErrCodeExpired) {
			response.Error(w, r, http.StatusBadRequest, "INVALID_CODE", "invalid or expired confirmation code", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to verify email", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"message": "email verified"})
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateEmailPassword(req.Email, req.Password); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	meta := identity.ClientMeta{UserAgent: r.UserAgent(), IP: clientIP(r)}
	result, err := h.authSvc.SignIn(r.Context(), req.Email, req.Password, meta)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrNotConfirmed):
			response.Error(w, r, http.StatusUnauthorized, "EMAIL_UNVERIFIED", "email not confirmed", nil)
		case errors.Is(err, identity.ErrInvalidCredentials):
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid email or password", nil)
		case errors.Is(err, service.ErrUserRecordMissing):
			response.Error(w, r, http.StatusNotFound, "USER_NOT_FOUND", "no user for this account", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to sign in", nil)
		}
		return
	}

	h.cookies.SetTokenCookies(w,
		result.AccessToken, result.IDToken, result.RefreshToken,
		h.accessTTL, h.refreshTTL)

	response.JSON(w, r, http.StatusOK, map[string]any{
		"message":      "signed in",
		"user":         result.User,
		"accessToken":  result.AccessToken,
		"idToken":      result.IDToken,
		"refreshToken": result.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	refreshToken := req.RefreshToken
	if refreshToken == "" {
		refreshToken = security.GetCookie(r, security.CookieRefreshToken)
	}
	if refreshToken == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "refreshToken is required", nil)
		return
	}

	triple, err := h.authSvc.Refresh(r.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			response.Error(w, r, http.StatusBadRequest, "INVALID_OR_EXPIRED_TOKEN", "refresh token rejected", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to refresh tokens", nil)
		return
	}

	h.cookies.SetTokenCookies(w,
		triple.AccessToken, triple.IDToken, triple.RefreshToken,
		h.accessTTL, h.refreshTTL)

	response.JSON(w, r, http.StatusOK, map[string]any{
		"accessToken":  triple.AccessToken,
		"idToken":      triple.IDToken,
		"refreshToken": triple.RefreshToken,
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "NO_CREDENTIAL", "no token provided", nil)
		return
	}
	view, err := service.NewUserView(r.Context(), h.storageSvc, user)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to render user", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"user": view})
}

// SignOut revokes the session remotely on a best-effort basis and always
// clears the cookies: local logout must succeed even when the provider
// call does not.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractAccessToken(r)
	if token == "" {
		response.Error(w, r, http.StatusUnauthorized, "NO_CREDENTIAL", "no token provided", nil)
		return
	}

	_ = h.authSvc.SignOut(r.Context(), token)

	h.cookies.ClearTokenCookies(w)
	response.JSON(w, r, http.StatusOK, map[string]any{"message": "signed out"})
}
