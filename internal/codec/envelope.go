// Package codec decodes job envelopes and encodes outcome messages.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"pdf-extractor/internal/domain"
	apperrors "pdf-extractor/pkg/errors"
)

// InvalidJSON is the reason reported for payloads that are not JSON objects.
const InvalidJSON = "Invalid JSON"

var emptyObject = json.RawMessage("{}")

// wireJob mirrors domain.Job with every field kept raw, so one mistyped field
// does not hide the pass-through fields of an otherwise readable job.
type wireJob struct {
	ID          json.RawMessage `json:"id"`
	Base64PDF   json.RawMessage `json:"base64pdf"`
	Metadata    json.RawMessage `json:"metadata"`
	PDFMetadata json.RawMessage `json:"pdfMetadata"`
	SourceID    json.RawMessage `json:"source_id"`
	Version     json.RawMessage `json:"version"`
	Password    json.RawMessage `json:"password"`
	Rotation    json.RawMessage `json:"rotation"`
	RequestID   json.RawMessage `json:"request_id"`
}

// DecodeJob parses a job envelope. Input that is not a JSON object yields a
// nil job and the InvalidJSON reason. A JSON object with a mistyped field
// yields the job with its pass-through fields filled in, together with a
// MalformedPayload error naming the field.
func DecodeJob(raw []byte) (*domain.Job, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, apperrors.NewMalformedPayloadError(InvalidJSON, domain.ErrEmptyPayload)
	}
	if !json.Valid(raw) {
		return nil, apperrors.NewMalformedPayloadError(InvalidJSON, errors.New("payload is not valid JSON"))
	}
	if bytes.TrimSpace(raw)[0] != '{' {
		return nil, apperrors.NewMalformedPayloadError(InvalidJSON, errors.New("payload is not a JSON object"))
	}
	var w wireJob
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, apperrors.NewMalformedPayloadError(InvalidJSON, err)
	}

	job := &domain.Job{
		Metadata:    w.Metadata,
		PDFMetadata: w.PDFMetadata,
		SourceID:    w.SourceID,
		Version:     w.Version,
	}
	if err := decodeID(w.ID, &job.ID); err != nil {
		return job, invalidField("id", err)
	}
	if err := decodeString(w.RequestID, &job.RequestID); err != nil {
		return job, invalidField("request_id", err)
	}
	if err := decodeString(w.Password, &job.Password); err != nil {
		return job, invalidField("password", err)
	}
	if !isNull(w.Base64PDF) {
		var encoded string
		if err := json.Unmarshal(w.Base64PDF, &encoded); err != nil {
			return job, invalidField("base64pdf", err)
		}
		job.Base64PDF = &encoded
	}
	rotation, err := decodeRotation(w.Rotation)
	if err != nil {
		return job, invalidField("rotation", err)
	}
	job.Rotation = rotation
	return job, nil
}

func invalidField(name string, err error) error {
	return apperrors.NewMalformedPayloadError("invalid "+name, err)
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func decodeString(raw json.RawMessage, dst *string) error {
	if isNull(raw) {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// decodeID accepts a string or a number, keeping a number's literal text.
func decodeID(raw json.RawMessage, dst *string) error {
	if !isNull(raw) && isNumber(raw) {
		*dst = string(raw)
		return nil
	}
	return decodeString(raw, dst)
}

// decodeRotation accepts any JSON number with an integral value, 90.0 included.
func decodeRotation(raw json.RawMessage) (int, error) {
	if isNull(raw) {
		return 0, nil
	}
	if !isNumber(raw) {
		return 0, fmt.Errorf("rotation must be a number, got %s", raw)
	}
	n := json.Number(raw)
	if i, err := n.Int64(); err == nil {
		return int(i % 360), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("rotation must be a whole number of degrees, got %s", raw)
	}
	return int(math.Mod(f, 360)), nil
}

func isNumber(raw json.RawMessage) bool {
	c := raw[0]
	return c == '-' || (c >= '0' && c <= '9')
}

// EncodeSuccess builds the success outcome for job. The text is trimmed of
// surrounding whitespace, page separators included.
func EncodeSuccess(job *domain.Job, messageID, text string, includeRequestID bool) ([]byte, error) {
	out := domain.SuccessOutcome{
		Text:              strings.TrimFunc(text, unicode.IsSpace),
		Metadata:          metadataOf(job),
		SourceID:          job.SourceID,
		Version:           job.Version,
		OriginalMessageID: messageID,
	}
	if includeRequestID {
		out.RequestID = job.RequestID
	}
	return encode(out)
}

// EncodeError builds the error outcome. A nil job means the payload could not
// be parsed, so only the reason and message id are emitted.
func EncodeError(job *domain.Job, messageID, reason string) ([]byte, error) {
	out := domain.ErrorOutcome{
		Error:             reason,
		OriginalMessageID: messageID,
	}
	if job != nil {
		out.Metadata = metadataOf(job)
		out.SourceID = job.SourceID
		out.Version = job.Version
	}
	return encode(out)
}

func metadataOf(job *domain.Job) json.RawMessage {
	if len(job.Metadata) == 0 {
		return emptyObject
	}
	return job.Metadata
}

func encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, apperrors.NewInternalError("failed to encode outcome", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
