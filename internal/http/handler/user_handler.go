package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aki-13627/animalia/internal/http/middleware"
	"github.com/aki-13627/animalia/internal/http/response"
	"github.com/aki-13627/animalia/internal/repository"
	"github.com/aki-13627/animalia/internal/service"
)

const maxMultipartMemory = 32 << 20

type UserHandler struct {
	userSvc    service.UserServiceInterface
	storageSvc service.StorageService
}

func NewUserHandler(userSvc service.UserServiceInterface, storageSvc service.StorageService) *UserHandler {
	return &UserHandler{userSvc: userSvc, storageSvc: storageSvc}
}

// UpdateProfile accepts multipart form data so the profile icon can ride
// along with the text fields.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "NO_CREDENTIAL", "no token provided", nil)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid multipart form", nil)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "name is required", nil)
		return
	}
	bio := r.FormValue("bio")

	icon, err := formImage(r, "image")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid image upload", nil)
		return
	}
	defer closeUpload(icon)

	updated, err := h.userSvc.UpdateProfile(r.Context(), user.ID, name, bio, icon)
	if err != nil {
		writeUploadError(w, r, err, "failed to update profile")
		return
	}

	view, err := service.NewUserView(r.Context(), h.storageSvc, updated)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to render user", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"user": view})
}

func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	h.setFollow(w, r, h.userSvc.Follow)
}

func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	h.setFollow(w, r, h.userSvc.Unfollow)
}

func (h *UserHandler) setFollow(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, fromID, toID string) error) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "NO_CREDENTIAL", "no token provided", nil)
		return
	}
	targetID := chi.URLParam(r, "id")

	if err := op(r.Context(), user.ID, targetID); err != nil {
		switch {
		case errors.Is(err, repository.ErrSelfFollow):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "cannot follow yourself", nil)
		case errors.Is(err, repository.ErrUserNotFound):
			response.Error(w, r, http.StatusNotFound, "USER_NOT_FOUND", "user not found", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to update follow state", nil)
		}
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"message": "ok"})
}

func (h *UserHandler) FollowStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	followers, err := h.userSvc.FollowerCount(r.Context(), userID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to count followers", nil)
		return
	}
	follows, err := h.userSvc.FollowsCount(r.Context(), userID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to count follows", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"followersCount": followers,
		"followsCount":   follows,
	})
}

func (h *UserHandler) Followers(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	views, err := h.userSvc.FollowerUsers(r.Context(), userID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list followers", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"users": views})
}

func (h *UserHandler) Follows(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	views, err := h.userSvc.FollowsUsers(r.Context(), userID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list follows", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"users": views})
}

// writeUploadError maps storage validation failures to 400 and everything
// else to 500.
func writeUploadError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrFileTooBig):
		response.Error(w, r, http.StatusBadRequest, "FILE_TOO_BIG", "image exceeds the size limit", nil)
	case errors.Is(err, service.ErrInvalidFileType):
		response.Error(w, r, http.StatusBadRequest, "INVALID_FILE_TYPE", "only jpeg and png images are accepted", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", fallback, nil)
	}
}
