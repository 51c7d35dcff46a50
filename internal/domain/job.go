package domain

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	apperrors "pdf-extractor/pkg/errors"
)

// Job is one unit of work as it arrives on either transport.
// Opaque fields are kept raw so they can be forwarded untouched.
type Job struct {
	ID          string          `json:"id"`
	Base64PDF   *string         `json:"base64pdf"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	PDFMetadata json.RawMessage `json:"pdfMetadata,omitempty"`
	SourceID    json.RawMessage `json:"source_id,omitempty"`
	Version     json.RawMessage `json:"version,omitempty"`
	Password    string          `json:"password,omitempty"`
	Rotation    int             `json:"rotation,omitempty"`
	RequestID   string          `json:"request_id,omitempty"`
}

// Request decodes the embedded document. The base64 text may be unpadded and
// may contain whitespace such as line wrapping.
func (j *Job) Request() (ExtractionRequest, error) {
	if j.Base64PDF == nil {
		return ExtractionRequest{}, apperrors.NewMalformedPayloadError(ErrMissingPDF.Error(), ErrMissingPDF)
	}

	encoded := strings.TrimRight(strings.Join(strings.Fields(*j.Base64PDF), ""), "=")
	data, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return ExtractionRequest{}, apperrors.NewMalformedPayloadError("invalid base64pdf", err)
	}

	return ExtractionRequest{
		PDF:      data,
		Password: []byte(j.Password),
		Rotation: NormalizeRotation(j.Rotation),
	}, nil
}

// UseLegacyMetadata falls back to the pdfMetadata field when metadata is absent.
func (j *Job) UseLegacyMetadata() {
	if len(j.Metadata) == 0 && len(j.PDFMetadata) > 0 {
		j.Metadata = j.PDFMetadata
	}
}

// ExtractionRequest is the decoded input of a single extraction.
type ExtractionRequest struct {
	PDF      []byte
	Password []byte
	Rotation int
}

// SuccessOutcome is published or returned when text was extracted.
type SuccessOutcome struct {
	Text              string          `json:"text"`
	Metadata          json.RawMessage `json:"metadata"`
	SourceID          json.RawMessage `json:"source_id"`
	Version           json.RawMessage `json:"version"`
	OriginalMessageID string          `json:"original_message_id"`
	RequestID         string          `json:"request_id,omitempty"`
}

// ErrorOutcome is published when a job could not be processed.
type ErrorOutcome struct {
	Error             string          `json:"error"`
	OriginalMessageID string          `json:"original_message_id"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
	SourceID          json.RawMessage `json:"source_id,omitempty"`
	Version           json.RawMessage `json:"version,omitempty"`
}

// NormalizeRotation maps any rotation in degrees into [0, 360).
func NormalizeRotation(degrees int) int {
	r := degrees % 360
	if r < 0 {
		r += 360
	}
	return r
}
