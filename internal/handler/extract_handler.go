// Package handler provides the synchronous HTTP transport.
package handler

import (
	"errors"
	"io"
	"net/http"

	"pdf-extractor/internal/codec"
	"pdf-extractor/internal/domain"
	apperrors "pdf-extractor/pkg/errors"
)

// maxLoggedPayload caps how much of a rejected body ends up in the logs.
const maxLoggedPayload = 4096

// ExtractHandler runs one extraction per request.
type ExtractHandler struct {
	extractor   domain.Extractor
	logger      domain.Logger
	maxBodySize int64
}

// NewExtractHandler creates a new extract handler
func NewExtractHandler(extractor domain.Extractor, logger domain.Logger, maxBodySize int64) *ExtractHandler {
	return &ExtractHandler{
		extractor:   extractor,
		logger:      logger,
		maxBodySize: maxBodySize,
	}
}

// Extract handles POST /.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength == 0 {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("Request body too large", "limit", tooLarge.Limit)
			writeStatus(w, http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Warn("Failed to read request body", "error", err)
		writeStatus(w, http.StatusBadRequest)
		return
	}
	if len(body) == 0 {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	job, err := codec.DecodeJob(body)
	if job == nil {
		h.logger.Error("Received invalid JSON", err, "payload", truncate(body), "payload_size", len(body))
		writeStatus(w, http.StatusBadRequest)
		return
	}

	req := domain.ExtractionRequest{}
	if err == nil {
		req, err = job.Request()
	}
	if err != nil {
		h.logger.Warn("Rejected malformed job", "id", job.ID, "error", err)
		writeStatus(w, http.StatusBadRequest)
		return
	}

	text, err := h.extractor.Extract(req.PDF, req.Password, req.Rotation)
	if err != nil {
		h.logger.Warn("Could not extract content", "id", job.ID, "error", err)
		writeText(w, apperrors.GetStatusCode(err), apperrors.Reason(err))
		return
	}

	out, err := codec.EncodeSuccess(job, job.ID, text, job.RequestID != "")
	if err != nil {
		h.logger.Error("Failed to encode outcome", err, "id", job.ID)
		writeStatus(w, http.StatusInternalServerError)
		return
	}

	h.logger.Info("Extracted document", "id", job.ID, "bytes", len(req.PDF), "chars", len(text))
	writeJSON(w, http.StatusOK, out)
}

// OnlyPost handles GET / without touching the extractor.
func (h *ExtractHandler) OnlyPost(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Only POST")
}

func truncate(body []byte) []byte {
	if len(body) > maxLoggedPayload {
		return body[:maxLoggedPayload]
	}
	return body
}
