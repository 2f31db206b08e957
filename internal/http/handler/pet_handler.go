package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aki-13627/animalia/internal/http/middleware"
	"github.com/aki-13627/animalia/internal/http/response"
	"github.com/aki-13627/animalia/internal/repository"
	"github.com/aki-13627/animalia/internal/service"
)

type PetHandler struct {
	petSvc service.PetServiceInterface
}

func NewPetHandler(petSvc service.PetServiceInterface) *PetHandler {
	return &PetHandler{petSvc: petSvc}
}

func petInputFromForm(r *http.Request) service.PetInput {
	return service.PetInput{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Type:     r.FormValue("type"),
		Species:  r.FormValue("species"),
		BirthDay: r.FormValue("birthDay"),
	}
}

func (h *PetHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	view, err := h.petSvc.Create(r.Context(), user.ID, petInputFromForm(r), image)
	if err != nil {
		writePetError(w, r, err, "failed to create pet")
		return
	}
	response.JSON(w, r, http.StatusCreated, map[string]any{"pet": view})
}

func (h *PetHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "NO_CREDENTIAL", "no token provided", nil)
		return
	}
	petID := chi.URLParam(r, "id")

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

	view, err := h.petSvc.Update(r.Context(), petID, user.ID, petInputFromForm(r), image)
	if err != nil {
		writePetError(w, r, err, "failed to update pet")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"pet": view})
}

func (h *PetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "NO_CREDENTIAL", "no token provided", nil)
		return
	}
	petID := chi.URLParam(r, "id")

	if err := h.petSvc.Delete(r.Context(), petID, user.ID); err != nil {
		writePetError(w, r, err, "failed to delete pet")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"message": "deleted"})
}

func (h *PetHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "NO_CREDENTIAL", "no token provided", nil)
		return
	}

	views, err := h.petSvc.ListByOwner(r.Context(), user.ID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list pets", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"pets": views})
}

func writePetError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidPetType),
		errors.Is(err, service.ErrInvalidPetSpecies),
		errors.Is(err, service.ErrInvalidBirthDay):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, service.ErrNotPetOwner):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "pet belongs to another user", nil)
	case errors.Is(err, repository.ErrPetNotFound):
		response.Error(w, r, http.StatusNotFound, "PET_NOT_FOUND", "pet not found", nil)
	case errors.Is(err, service.ErrFileTooBig), errors.Is(err, service.ErrInvalidFileType):
		writeUploadError(w, r, err, fallback)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", fallback, nil)
	}
}
