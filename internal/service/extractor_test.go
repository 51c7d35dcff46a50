package service

import (
	"errors"
	"testing"

	"pdf-extractor/internal/domain"
	"pdf-extractor/internal/pdf"
	"pdf-extractor/internal/pdf/pdftest"
	apperrors "pdf-extractor/pkg/errors"
)

// Mock implementations for testing
type MockLogger struct{}

func (l *MockLogger) Info(msg string, fields ...interface{})             {}
func (l *MockLogger) Error(msg string, err error, fields ...interface{}) {}
func (l *MockLogger) Debug(msg string, fields ...interface{})            {}
func (l *MockLogger) Warn(msg string, fields ...interface{})             {}

type MockDecoder struct {
	pages        []*pdf.Page
	openErr      error
	failPage     int
	lastPassword []byte
	closed       int
}

func (m *MockDecoder) Open(data []byte, password []byte) (pdf.Document, error) {
	m.lastPassword = password
	if m.openErr != nil {
		return nil, m.openErr
	}
	return &mockDocument{decoder: m}, nil
}

type mockDocument struct {
	decoder *MockDecoder
}

func (d *mockDocument) NumPages() int { return len(d.decoder.pages) }

func (d *mockDocument) Page(n int) (*pdf.Page, error) {
	if n == d.decoder.failPage {
		return nil, errors.New("corrupt content stream")
	}
	return d.decoder.pages[n-1], nil
}

func (d *mockDocument) Close() error {
	d.decoder.closed++
	return nil
}

func textPage(s string) *pdf.Page {
	p := &pdf.Page{MediaBox: pdf.Box{X1: 612, Y1: 792}}
	x := 72.0
	for _, r := range s {
		p.Glyphs = append(p.Glyphs, pdf.Glyph{X: x, Y: 720, W: 6, Size: 10, S: string(r)})
		x += 6
	}
	return p
}

func newExtractor(decoder pdf.Decoder) *PDFExtractor {
	return NewPDFExtractor(decoder, &MockLogger{})
}

func TestExtract_SinglePage(t *testing.T) {
	text, err := newExtractor(pdf.NewDecoder()).Extract(pdftest.Build("Hello world", "Second line"), nil, 0)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if text != "Hello world\nSecond line\n\f" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtract_PagesInOrder(t *testing.T) {
	data := pdftest.BuildPages([]string{"one"}, []string{"two"}, []string{"three"})
	text, err := newExtractor(pdf.NewDecoder()).Extract(data, nil, 0)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if text != "one\n\ftwo\n\fthree\n\f" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtract_EmptyPageIsSuccess(t *testing.T) {
	text, err := newExtractor(pdf.NewDecoder()).Extract(pdftest.Build(), nil, 0)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if text != "\f" {
		t.Fatalf("expected a lone form feed, got %q", text)
	}
}

func TestExtract_RotationNormalization(t *testing.T) {
	e := newExtractor(pdf.NewDecoder())
	data := pdftest.Build("AB")

	cases := []struct {
		rotation int
		want     string
	}{
		{0, "AB\n\f"},
		{90, "A\nB\n\f"},
		{180, "BA\n\f"},
		{270, "B\nA\n\f"},
	}
	for _, tc := range cases {
		for _, r := range []int{tc.rotation, tc.rotation + 360, tc.rotation - 360, tc.rotation + 720} {
			got, err := e.Extract(data, nil, r)
			if err != nil {
				t.Fatalf("rotation %d: %v", r, err)
			}
			if got != tc.want {
				t.Fatalf("rotation %d: got %q, want %q", r, got, tc.want)
			}
		}
	}
}

func TestExtract_AddsPageRotation(t *testing.T) {
	data := pdftest.BuildWithOptions(pdftest.Options{Pages: [][]string{{"AB"}}, Rotate: 90})
	e := newExtractor(pdf.NewDecoder())

	got, err := e.Extract(data, nil, 270)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if got != "AB\n\f" {
		t.Fatalf("page rotation plus request rotation should cancel out, got %q", got)
	}

	got, err = e.Extract(data, nil, 0)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if got != "A\nB\n\f" {
		t.Fatalf("page rotation alone should apply, got %q", got)
	}
}

func TestExtract_Password(t *testing.T) {
	data := pdftest.BuildWithOptions(pdftest.Options{
		Pages:        [][]string{{"classified"}},
		Encrypt:      true,
		UserPassword: "secret",
	})
	e := newExtractor(pdf.NewDecoder())

	text, err := e.Extract(data, []byte("secret"), 0)
	if err != nil {
		t.Fatalf("extract with password failed: %v", err)
	}
	if text != "classified\n\f" {
		t.Fatalf("unexpected text %q", text)
	}

	text, err = e.Extract(data, []byte("nope"), 0)
	if !apperrors.IsType(err, apperrors.ErrorTypeExtractionFailure) {
		t.Fatalf("expected extraction failure, got %v", err)
	}
	if text != "" {
		t.Fatalf("failed extraction must not return text, got %q", text)
	}
}

func TestExtract_ExtractionNotAllowed(t *testing.T) {
	data := pdftest.BuildWithOptions(pdftest.Options{
		Pages:       [][]string{{"locked"}},
		Encrypt:     true,
		Permissions: pdftest.PermNoExtract,
	})

	_, err := newExtractor(pdf.NewDecoder()).Extract(data, nil, 0)
	if !apperrors.IsType(err, apperrors.ErrorTypeExtractionFailure) {
		t.Fatalf("expected extraction failure, got %v", err)
	}
	if !errors.Is(err, domain.ErrExtractionNotAllowed) {
		t.Fatalf("expected extraction not allowed cause, got %v", err)
	}
	if apperrors.Reason(err) != "text extraction is not allowed" {
		t.Fatalf("unexpected reason %q", apperrors.Reason(err))
	}
}

func TestExtract_CorruptInput(t *testing.T) {
	text, err := newExtractor(pdf.NewDecoder()).Extract([]byte("%PDF-1.4\ngarbage"), nil, 0)
	if !apperrors.IsType(err, apperrors.ErrorTypeExtractionFailure) {
		t.Fatalf("expected extraction failure, got %v", err)
	}
	if text != "" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtract_PageFailureDiscardsPartialText(t *testing.T) {
	decoder := &MockDecoder{
		pages:    []*pdf.Page{textPage("first"), textPage("second"), textPage("third")},
		failPage: 2,
	}

	text, err := newExtractor(decoder).Extract([]byte("doc"), nil, 0)
	if !apperrors.IsType(err, apperrors.ErrorTypeExtractionFailure) {
		t.Fatalf("expected extraction failure, got %v", err)
	}
	if text != "" {
		t.Fatalf("partial text must be discarded, got %q", text)
	}
	if decoder.closed != 1 {
		t.Fatalf("document should be closed once, got %d", decoder.closed)
	}
}

func TestExtract_OpenFailure(t *testing.T) {
	decoder := &MockDecoder{openErr: errors.New("encrypted PDF: invalid password")}

	_, err := newExtractor(decoder).Extract([]byte("doc"), []byte("pw"), 0)
	if apperrors.Reason(err) != "encrypted PDF: invalid password" {
		t.Fatalf("reason should carry the decoder message, got %q", apperrors.Reason(err))
	}
}

func TestExtract_NilPasswordBecomesEmpty(t *testing.T) {
	decoder := &MockDecoder{pages: []*pdf.Page{textPage("x")}}

	if _, err := newExtractor(decoder).Extract([]byte("doc"), nil, 0); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if decoder.lastPassword == nil || len(decoder.lastPassword) != 0 {
		t.Fatalf("expected empty non-nil password, got %v", decoder.lastPassword)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	e := newExtractor(pdf.NewDecoder())
	data := pdftest.BuildPages([]string{"alpha beta", "gamma"}, []string{"delta"})

	first, err := e.Extract(data, nil, 0)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := e.Extract(data, nil, 0)
		if err != nil || again != first {
			t.Fatalf("run %d differs: %q vs %q (%v)", i, again, first, err)
		}
	}
}
