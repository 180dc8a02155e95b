package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/pdftext"
	importservice "github.com/FACorreiaa/echo-statements/internal/domain/import/service"
)

// ImportHandler serves the statement parsing endpoints
type ImportHandler struct {
	importSvc *importservice.ImportService
	maxBytes  int64
	logger    *slog.Logger
}

// NewImportHandler creates a new import handler. Request bodies larger than
// maxBytes are rejected before they reach the service.
func NewImportHandler(importSvc *importservice.ImportService, maxBytes int64, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importSvc: importSvc,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// Register mounts the handler's routes on mux
func (h *ImportHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/statements/parse", h.ParseStatement)
	mux.HandleFunc("GET /healthz", h.Health)
}

// ParseStatement parses the raw request body. The file name comes from the
// "name" query parameter or the X-File-Name header and drives type
// detection together with the content.
func (h *ImportHandler) ParseStatement(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = strings.TrimSpace(r.Header.Get("X-File-Name"))
	}
	if name == "" {
		writeError(w, http.StatusBadRequest, "file name is required (name query parameter or X-File-Name header)")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, importservice.ErrInputTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	result, err := h.importSvc.Parse(r.Context(), importservice.File{Name: name, Data: data})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("failed to parse statement", slog.String("file", name), slog.Any("error", err))
		}
		writeError(w, status, err.Error())
		return
	}

	w.Header().Set("X-Batch-Id", result.BatchID)
	writeJSON(w, http.StatusOK, result)
}

// Health reports liveness
func (h *ImportHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, importservice.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, importservice.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, importservice.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, importservice.ErrNoParser),
		errors.Is(err, pdftext.ErrNoText),
		errors.Is(err, pdftext.ErrInvalidPDF):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
