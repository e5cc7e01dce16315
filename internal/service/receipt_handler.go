package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmynk/godutch/internal/metrics"
	"github.com/mmynk/godutch/internal/middleware"
	"github.com/mmynk/godutch/internal/models"
	"github.com/mmynk/godutch/internal/scanning"
	"github.com/mmynk/godutch/internal/session"
	"github.com/mmynk/godutch/internal/storage"
)

// ReceiptProcessPath is where ReceiptHandler is mounted.
const ReceiptProcessPath = "/api/receipt/process"

// maxUploadSize bounds the multipart body; phone photos can be large.
const maxUploadSize = int64(50 << 20)

// Error codes in the processing response envelope.
const (
	errCodeMethod     = "method_not_allowed"
	errCodeBadForm    = "invalid_form"
	errCodeNoImage    = "missing_image"
	errCodeSession    = "invalid_session"
	errCodeProcessing = "processing_failed"
)

// processingFailedMessage is the user-facing text for scanner failures.
// The details go to the log only.
const processingFailedMessage = "Failed to process receipt. Please try again."

// ReceiptHandler serves POST /api/receipt/process. It extracts a receipt
// from the uploaded image and, when the request carries a session token,
// feeds the result into that session.
type ReceiptHandler struct {
	sessions    *SessionService
	scanner     scanning.Scanner
	metrics     *metrics.Metrics
	scanTimeout time.Duration
}

// NewReceiptHandler creates a handler. A zero scanTimeout leaves the scanner
// call bounded only by the request context.
func NewReceiptHandler(sessions *SessionService, scanner scanning.Scanner, m *metrics.Metrics, scanTimeout time.Duration) *ReceiptHandler {
	return &ReceiptHandler{
		sessions:    sessions,
		scanner:     scanner,
		metrics:     m,
		scanTimeout: scanTimeout,
	}
}

func (h *ReceiptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeProcessingError(w, http.StatusMethodNotAllowed, errCodeMethod, "Only POST is supported")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Warn("Error parsing multipart form", "error", err)
		message := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			message = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		writeProcessingError(w, http.StatusBadRequest, errCodeBadForm, message)
		return
	}

	data, contentType, filename, err := readUpload(r)
	if err != nil {
		slog.Warn("No image in upload", "error", err)
		writeProcessingError(w, http.StatusBadRequest, errCodeNoImage, "No image file provided")
		return
	}

	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)
	if sessionID != "" {
		if _, err := h.sessions.mutate(ctx, sessionID, session.StartUpload); err != nil {
			h.writeSessionError(w, sessionID, err)
			return
		}
	}

	result, err := h.scan(ctx, data, contentType)
	if err != nil {
		slog.Error("Error processing receipt",
			"filename", filename,
			"session_id", sessionID,
			"scanner", h.scanner.Name(),
			"error", err,
		)
		h.recordFailure(ctx, sessionID, processingFailedMessage)
		writeProcessingError(w, http.StatusBadGateway, errCodeProcessing, processingFailedMessage)
		return
	}

	if !result.Readable() {
		slog.Info("Receipt unreadable", "session_id", sessionID, "reason", result.ErrorText)
		h.recordFailure(ctx, sessionID, result.ErrorText)
		writeJSON(w, http.StatusOK, models.ProcessingResponse{Success: true, Data: result})
		return
	}

	if sessionID != "" {
		// The scan already happened; keep it even if the client is gone.
		_, err := h.sessions.mutate(context.WithoutCancel(ctx), sessionID, func(s *models.Session) error {
			return session.LoadReceipt(s, result)
		})
		switch {
		case errors.Is(err, session.ErrWrongStep):
			slog.Info("Discarding receipt for abandoned upload", "session_id", sessionID, "error", err)
		case err != nil:
			h.writeSessionError(w, sessionID, err)
			return
		}
	}

	slog.Info("Receipt processed",
		"session_id", sessionID,
		"items", len(result.Items),
		"additional_costs", len(result.AdditionalCosts),
		"total", result.TotalPrice,
	)
	writeJSON(w, http.StatusOK, models.ProcessingResponse{Success: true, Data: result})
}

// scan runs the scanner and records its duration and outcome.
func (h *ReceiptHandler) scan(ctx context.Context, data []byte, contentType string) (*models.ReceiptAnalysisResult, error) {
	if h.scanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.scanTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := h.scanner.ScanReceipt(ctx, data, contentType)
	outcome := metrics.OutcomeSuccess
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
	case !result.Readable():
		outcome = metrics.OutcomeUnreadable
	}
	h.metrics.ObserveScan(h.scanner.Name(), outcome, time.Since(start))
	return result, err
}

// recordFailure sends the session back to upload with message. The
// session is updated even if the client has gone away, unless the upload
// was abandoned in the meantime.
func (h *ReceiptHandler) recordFailure(ctx context.Context, sessionID, message string) {
	if sessionID == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	_, err := h.sessions.mutate(ctx, sessionID, func(s *models.Session) error {
		return session.FailReceipt(s, message)
	})
	switch {
	case errors.Is(err, session.ErrWrongStep):
		slog.Info("Discarding failure for abandoned upload", "session_id", sessionID, "error", err)
	case err != nil:
		slog.Error("Failed to record receipt failure", "session_id", sessionID, "error", err)
	}
}

// RejectToken answers a request carrying an invalid bearer token with the
// processing envelope.
func (h *ReceiptHandler) RejectToken(w http.ResponseWriter, r *http.Request, err error) {
	slog.Warn("Rejected receipt upload token", "path", r.URL.Path, "error", err)
	writeProcessingError(w, http.StatusUnauthorized, errCodeSession, "Invalid or expired session token")
}

func (h *ReceiptHandler) writeSessionError(w http.ResponseWriter, sessionID string, err error) {
	slog.Warn("Session rejected receipt", "session_id", sessionID, "error", err)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeProcessingError(w, http.StatusNotFound, errCodeSession, "Session not found")
	case errors.Is(err, session.ErrWrongStep):
		writeProcessingError(w, http.StatusConflict, errCodeSession, "Session is not waiting for a receipt")
	default:
		writeProcessingError(w, http.StatusInternalServerError, errCodeSession, "Could not update session")
	}
}

// readUpload returns the uploaded file from the "image" field, falling back
// to "file".
func readUpload(r *http.Request) ([]byte, string, string, error) {
	f, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		f, header, err = r.FormFile("file")
	}
	if err != nil {
		return nil, "", "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", "", err
	}
	if len(data) == 0 {
		return nil, "", "", http.ErrMissingFile
	}

	return data, detectContentType(header.Header.Get("Content-Type"), header.Filename, data), header.Filename, nil
}

// detectContentType trusts the part header, then the file extension, then
// the content itself.
func detectContentType(declared, filename string, data []byte) string {
	contentType := strings.ToLower(strings.TrimSpace(declared))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	return http.DetectContentType(data)
}

func writeProcessingError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, models.ProcessingResponse{
		Success: false,
		Error:   &models.ProcessingError{Error: code, Message: message},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}
