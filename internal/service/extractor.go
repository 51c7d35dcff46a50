package service

import (
	"strings"

	"pdf-extractor/internal/domain"
	"pdf-extractor/internal/pdf"
	apperrors "pdf-extractor/pkg/errors"
)

// PDFExtractor turns PDF bytes into plain text, one form-feed terminated block per page.
type PDFExtractor struct {
	decoder pdf.Decoder
	logger  domain.Logger
}

// NewPDFExtractor creates a new extractor
func NewPDFExtractor(decoder pdf.Decoder, logger domain.Logger) *PDFExtractor {
	return &PDFExtractor{
		decoder: decoder,
		logger:  logger,
	}
}

// Extract opens the document with password and lays out every page with the
// page's own rotation plus rotation. Any failure discards the text gathered so far.
func (e *PDFExtractor) Extract(data []byte, password []byte, rotation int) (string, error) {
	if password == nil {
		password = []byte{}
	}
	rotation = domain.NormalizeRotation(rotation)

	doc, err := e.decoder.Open(data, password)
	if err != nil {
		return "", apperrors.NewExtractionError(err.Error(), err)
	}
	defer doc.Close()

	numPages := doc.NumPages()
	var sb strings.Builder
	for n := 1; n <= numPages; n++ {
		e.logger.Debug("Extracting page", "page", n, "total", numPages)

		page, err := doc.Page(n)
		if err != nil {
			e.logger.Warn("Failed to extract text from page", "page", n, "total", numPages, "error", err)
			return "", apperrors.NewExtractionError(err.Error(), err)
		}

		sb.WriteString(pdf.LayoutText(page, domain.NormalizeRotation(page.Rotate+rotation)))
		sb.WriteByte('\f')
	}

	return sb.String(), nil
}
