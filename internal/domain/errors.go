package domain

import "errors"

// Domain errors
var (
	ErrExtractionNotAllowed = errors.New("text extraction is not allowed")
	ErrEmptyPayload         = errors.New("empty payload")
	ErrMissingPDF           = errors.New("missing base64pdf")
	ErrPublishRejected      = errors.New("publish rejected by broker")
)
