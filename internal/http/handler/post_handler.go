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

type PostHandler struct {
	postSvc service.PostServiceInterface
}

func NewPostHandler(postSvc service.PostServiceInterface) *PostHandler {
	return &PostHandler{postSvc: postSvc}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "NO_CREDENTIAL", "no token provided", nil)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid multipart form", nil)
		return
	}

	image, err := formImage(r, "image")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid image upload", nil)
		return
	}
	defer closeUpload(image)

	caption := strings.TrimSpace(r.FormValue("caption"))
	view, err := h.postSvc.Create(r.Context(), user.ID, caption, image)
	if err != nil {
		writePostError(w, r, err, "failed to create post")
		return
	}
	response.JSON(w, r, http.StatusCreated, map[string]any{"post": view})
}

// Timeline returns the reverse chronological feed. The viewer identity only
// affects the likedByMe flags, so the page itself is shared and cacheable.
func (h *PostHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "NO_CREDENTIAL", "no token provided", nil)
		return
	}

	view, err := h.postSvc.Timeline(r.Context(), user.ID, pageRequestFromQuery(r))
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load timeline", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, view)
}

func (h *PostHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	viewer, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "NO_CREDENTIAL", "no token provided", nil)
		return
	}
	userID := chi.URLParam(r, "id")

	views, err := h.postSvc.ListByUser(r.Context(), userID, viewer.ID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list posts", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"posts": views})
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "NO_CREDENTIAL", "no token provided", nil)
		return
	}
	postID := chi.URLParam(r, "id")

	if err := h.postSvc.Delete(r.Context(), postID, user.ID); err != nil {
		writePostError(w, r, err, "failed to delete post")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"message": "deleted"})
}

type addCommentRequest struct {
	Content string `json:"content"`
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "NO_CREDENTIAL", "no token provided", nil)
		return
	}
	postID := chi.URLParam(r, "id")

	var req addCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "content is required", nil)
		return
	}

	view, err := h.postSvc.AddComment(r.Context(), postID, user.ID, req.Content)
	if err != nil {
		writePostError(w, r, err, "failed to add comment")
		return
	}
	response.JSON(w, r, http.StatusCreated, map[string]any{"comment": view})
}

func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	views, err := h.postSvc.ListComments(r.Context(), postID)
	if err != nil {
		writePostError(w, r, err, "failed to list comments")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"comments": views})
}

func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.setLike(w, r, h.postSvc.Like, "failed to like post")
}

func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.setLike(w, r, h.postSvc.Unlike, "failed to unlike post")
}

func (h *PostHandler) setLike(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, postID, userID string) error, fallback string) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "NO_CREDENTIAL", "no token provided", nil)
		return
	}
	postID := chi.URLParam(r, "id")

	if err := op(r.Context(), postID, user.ID); err != nil {
		writePostError(w, r, err, fallback)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"message": "ok"})
}

func writePostError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrMissingImage):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "image is required", nil)
	case errors.Is(err, service.ErrNotPostOwner):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "post belongs to another user", nil)
	case errors.Is(err, repository.ErrPostNotFound):
		response.Error(w, r, http.StatusNotFound, "POST_NOT_FOUND", "post not found", nil)
	case errors.Is(err, service.ErrFileTooBig), errors.Is(err, service.ErrInvalidFileType):
		writeUploadError(w, r, err, fallback)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", fallback, nil)
	}
}
