// Package handler contains the chi HTTP handlers. Handlers decode and
// validate the request, call one service method, and render the shared
// response envelope. Domain rules live in the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/aki-13627/animalia/internal/http/response"
	"github.com/aki-13627/animalia/internal/repository"
	"github.com/aki-13627/animalia/internal/service"
)

const maxJSONBodyBytes = 1 << 20

// decodeJSON parses the request body into dst and writes a 400 envelope on
// malformed input. Unknown fields are rejected so contract drift surfaces
// as an error instead of silently dropped data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return false
	}
	if dec.More() {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return false
	}
	return true
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// pageRequestFromQuery reads ?page= and ?pageSize=, falling back to the
// repository defaults on absent or unparsable values.
func pageRequestFromQuery(r *http.Request) repository.PageRequest {
	var req repository.PageRequest
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		req.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil {
		req.PageSize = v
	}
	return req
}

// formImage pulls a multipart file field into the upload descriptor the
// storage service expects. Returns (nil, nil) when the field is absent.
func formImage(r *http.Request, field string) (*service.ImageUpload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	return &service.ImageUpload{
		Reader:      file,
		Size:        header.Size,
		ContentType: contentTypeOf(header),
	}, nil
}

func contentTypeOf(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// closeUpload releases the multipart file backing an optional upload.
func closeUpload(upload *service.ImageUpload) {
	if upload == nil {
		return
	}
	if closer, ok := upload.Reader.(io.Closer); ok {
		_ = closer.Close()
	}
}
