package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"commandcenter/internal/codec"
	"commandcenter/internal/kernel"
	"commandcenter/internal/repository"
	"commandcenter/internal/session"
)

const (
	defaultArchiveLimit = 100
	maxArchiveLimit     = 5000
	maxCommandBody      = 64 * 1024
)

// Session is the coordinator surface the API drives
type Session interface {
	ID() string
	Frame() *session.Frame
	Logs(since uint64) []session.LogEntry
	Status() string
	Running() bool
	Launch() error
	Stop(ctx context.Context) error
	Send(text string) error
}

// APIHandler handles command center API requests
type APIHandler struct {
	session     Session
	archive     repository.TranscriptStore
	stopTimeout time.Duration
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewAPIHandler creates a handler. archive may be nil when archiving is disabled.
func NewAPIHandler(s Session, archive repository.TranscriptStore, stopTimeout time.Duration, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stopTimeout <= 0 {
		stopTimeout = 5 * time.Second
	}
	return &APIHandler{
		session:     s,
		archive:     archive,
		stopTimeout: stopTimeout,
		validate:    newValidator(),
		logger:      logger.Named("api"),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	// one request is one kernel command
	_ = v.RegisterValidation("singleline", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "\r\n")
	})
	return v
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// StatusResponse summarizes the session
type StatusResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Running   bool   `json:"running"`
	Tick      uint64 `json:"tick"`
	Nodes     int    `json:"nodes"`
	Edges     int    `json:"edges"`
	LogSeq    uint64 `json:"log_seq"`
}

// LogsResponse is a page of the transcript
type LogsResponse struct {
	Entries []session.LogEntry `json:"entries"`
	Next    uint64             `json:"next"`
}

// CommandRequest carries an operator command
type CommandRequest struct {
	Command string `json:"command" validate:"required,max=4096,singleline"`
}

// GetGraph returns the latest frame
func (h *APIHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.session.Frame(), http.StatusOK)
}

// ExportGraph writes the latest graph snapshot as JSON or YAML
func (h *APIHandler) ExportGraph(w http.ResponseWriter, r *http.Request) {
	exporter, err := codec.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=graph.%s", exporter.Format()))
	if err := exporter.Export(h.session.Frame().Graph, w); err != nil {
		h.logger.Error("Failed to export graph", zap.String("format", exporter.Format()), zap.Error(err))
	}
}

// GetLogs returns transcript entries after ?since=N
func (h *APIHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.writeError(w, "Invalid since", err.Error(), http.StatusBadRequest)
			return
		}
		since = v
	}

	entries := h.session.Logs(since)
	next := since
	if len(entries) > 0 {
		next = entries[len(entries)-1].Seq
	}
	h.writeJSON(w, LogsResponse{Entries: entries, Next: next}, http.StatusOK)
}

// GetStatus returns the session summary
func (h *APIHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.status(), http.StatusOK)
}

func (h *APIHandler) status() StatusResponse {
	frame := h.session.Frame()
	return StatusResponse{
		SessionID: h.session.ID(),
		Status:    h.session.Status(),
		Running:   h.session.Running(),
		Tick:      frame.Graph.Tick,
		Nodes:     len(frame.Graph.Nodes),
		Edges:     len(frame.Graph.Edges),
		LogSeq:    frame.LogSeq,
	}
}

// LaunchKernel starts the kernel
func (h *APIHandler) LaunchKernel(w http.ResponseWriter, r *http.Request) {
	err := h.session.Launch()

	var launchErr *kernel.LaunchError
	switch {
	case err == nil:
		h.writeJSON(w, h.status(), http.StatusOK)
	case errors.Is(err, kernel.ErrAlreadyRunning):
		h.writeError(w, "Kernel already running", err.Error(), http.StatusConflict)
	case errors.As(err, &launchErr):
		h.writeError(w, "Failed to launch kernel", h.session.Status(), http.StatusBadGateway)
	default:
		h.logger.Error("Kernel launch failed", zap.Error(err))
		h.writeError(w, "Failed to launch kernel", err.Error(), http.StatusInternalServerError)
	}
}

// StopKernel closes the kernel's stdin and waits for it, killing it after the stop timeout
func (h *APIHandler) StopKernel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.stopTimeout)
	defer cancel()

	if err := h.session.Stop(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		h.logger.Error("Kernel stop failed", zap.Error(err))
		h.writeError(w, "Failed to stop kernel", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, h.status(), http.StatusOK)
}

// SendCommand forwards {"command": "..."} to the kernel
func (h *APIHandler) SendCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody)).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, "Invalid command", err.Error(), http.StatusBadRequest)
		return
	}

	err := h.session.Send(req.Command)
	switch {
	case err == nil:
		h.writeJSON(w, map[string]string{"command": req.Command}, http.StatusOK)
	case errors.Is(err, kernel.ErrNotRunning):
		h.writeError(w, "Kernel not running", err.Error(), http.StatusConflict)
	case errors.Is(err, session.ErrMultilineCommand):
		h.writeError(w, "Invalid command", err.Error(), http.StatusBadRequest)
	case errors.Is(err, kernel.ErrCommandQueueFull):
		h.writeError(w, "Kernel busy", err.Error(), http.StatusServiceUnavailable)
	default:
		h.logger.Error("Command failed", zap.Error(err))
		h.writeError(w, "Failed to send command", err.Error(), http.StatusInternalServerError)
	}
}

// GetArchive returns the most recent archived lines (?limit=N)
func (h *APIHandler) GetArchive(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		h.writeError(w, "Archive disabled", "set archive.enabled in the config file", http.StatusNotFound)
		return
	}

	limit := defaultArchiveLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			h.writeError(w, "Invalid limit", fmt.Sprintf("limit must be a positive integer, got %q", raw), http.StatusBadRequest)
			return
		}
		limit = min(v, maxArchiveLimit)
	}

	records, err := h.archive.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to read archive", zap.Error(err))
		h.writeError(w, "Failed to read archive", err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []repository.TranscriptRecord{}
	}
	h.writeJSON(w, records, http.StatusOK)
}

// Healthz reports liveness
func (h *APIHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("Failed to encode JSON", zap.Error(err))
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		h.logger.Warn("Failed to encode error response", zap.Error(err))
	}
}
