package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/mediaforge/compose-api/internal/compose"
	"github.com/mediaforge/compose-api/internal/container"
	"github.com/mediaforge/compose-api/internal/render"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing.
const maxUploadMemory = 32 << 20

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service    *render.Service
	containers *container.Manager
	validator  *validator.Validate
	logger     *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *render.Service, containers *container.Manager, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:    service,
		containers: containers,
		validator:  validator.New(),
		logger:     logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// ComposeImage handles POST /compose/image requests.
func (h *Handlers) ComposeImage(w http.ResponseWriter, r *http.Request) {
	var req ComposeImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	result, err := h.service.ComposeImage(r.Context(), render.ComposeImageInput{
		Elements: req.Elements,
		Ratio:    req.Ratio,
	})
	if err != nil {
		h.writeComposeError(w, err)
		return
	}

	h.writeComposeResult(w, result)
}

// ComposeVideo handles POST /compose/video requests.
func (h *Handlers) ComposeVideo(w http.ResponseWriter, r *http.Request) {
	var req ComposeVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	result, err := h.service.ComposeVideo(r.Context(), render.ComposeVideoInput{
		Elements:    req.Elements,
		Ratio:       req.Ratio,
		ContainerID: req.ContainerID,
		LengthSec:   req.Length,
	})
	if err != nil {
		h.writeComposeError(w, err)
		return
	}

	h.writeComposeResult(w, result)
}

// CreateContainer handles POST /containers requests.
func (h *Handlers) CreateContainer(w http.ResponseWriter, r *http.Request) {
	c, err := h.containers.Create(r.Context())
	if err != nil {
		h.logger.Error("failed to create container",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create container", "CONTAINER_CREATE_FAILED")
		return
	}

	h.logger.Info("container created",
		slog.String("container_id", c.ID),
	)
	writeJSON(w, http.StatusCreated, CreateContainerResponse{ContainerID: c.ID})
}

// UploadFiles handles POST /containers/{id}/files requests. Each
// multipart file part is stored under its field name plus the upload's
// original extension.
func (h *Handlers) UploadFiles(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "container ID is required", "MISSING_CONTAINER_ID")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body", "INVALID_MULTIPART")
		return
	}

	var saved []string
	for field, headers := range r.MultipartForm.File {
		for _, hdr := range headers {
			f, err := hdr.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "unreadable file part", "INVALID_MULTIPART")
				return
			}
			path, err := h.containers.SaveFile(r.Context(), id, field, hdr.Filename, f)
			_ = f.Close()
			if err != nil {
				if errors.Is(err, container.ErrContainerNotFound) {
					writeError(w, http.StatusNotFound, "container not found", "CONTAINER_NOT_FOUND")
					return
				}
				h.logger.Error("failed to save upload",
					slog.String("container_id", id),
					slog.String("field", field),
					slog.String("error", err.Error()),
				)
				writeError(w, http.StatusInternalServerError, "failed to save upload", "UPLOAD_FAILED")
				return
			}
			saved = append(saved, path)
		}
	}

	writeJSON(w, http.StatusOK, UploadResponse{ContainerID: id, Saved: saved})
}

// writeComposeResult serializes a composition result: raw bytes with the
// artifact content type in inline mode, a JSON link otherwise. The
// skipped-element count always travels with the response.
func (h *Handlers) writeComposeResult(w http.ResponseWriter, result *render.Result) {
	if result.URL != "" {
		writeJSON(w, http.StatusOK, ComposeLinkResponse{
			RequestID:       result.RequestID,
			URL:             result.URL,
			SkippedElements: result.Skipped,
		})
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("X-Skipped-Elements", strconv.Itoa(result.Skipped))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		h.logger.Error("failed to write artifact response",
			slog.String("request_id", result.RequestID),
			slog.String("error", err.Error()),
		)
	}
}

// writeComposeError maps domain errors to HTTP status codes. Processing
// diagnostics are logged by the render service, never echoed to callers.
func (h *Handlers) writeComposeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, compose.ErrNoUsableLayers):
		writeError(w, http.StatusBadRequest, "no usable elements in request", "NO_USABLE_ELEMENTS")
	case errors.Is(err, container.ErrContainerNotFound):
		writeError(w, http.StatusNotFound, "container not found", "CONTAINER_NOT_FOUND")
	case errors.Is(err, container.ErrBaseMediaNotFound):
		writeError(w, http.StatusNotFound, "base media not found in container", "BASE_MEDIA_NOT_FOUND")
	default:
		var procErr *render.ProcessingError
		if errors.As(err, &procErr) {
			writeError(w, http.StatusInternalServerError, "media processing failed", "PROCESSING_FAILED")
			return
		}
		h.logger.Error("compose request failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
