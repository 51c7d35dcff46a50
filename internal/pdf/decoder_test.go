package pdf

import (
	"errors"
	"math"
	"testing"

	"pdf-extractor/internal/domain"
	"pdf-extractor/internal/pdf/pdftest"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestDecoder_OpenPlainDocument(t *testing.T) {
	doc, err := NewDecoder().Open(pdftest.Build("Hi there", "Bye"), nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer doc.Close()

	if doc.NumPages() != 1 {
		t.Fatalf("expected 1 page, got %d", doc.NumPages())
	}

	page, err := doc.Page(1)
	if err != nil {
		t.Fatalf("page failed: %v", err)
	}
	if page.Number != 1 || page.Rotate != 0 {
		t.Fatalf("unexpected page header %+v", page)
	}
	if page.MediaBox != (Box{X0: 0, Y0: 0, X1: 612, Y1: 792}) {
		t.Fatalf("media box should be inherited from the page tree, got %+v", page.MediaBox)
	}
	if len(page.Glyphs) != len("Hi there")+len("Bye") {
		t.Fatalf("unexpected glyph count %d", len(page.Glyphs))
	}

	first := page.Glyphs[0]
	if first.S != "H" || !almostEqual(first.X, pdftest.Origin.X) || !almostEqual(first.Y, pdftest.Origin.Y) {
		t.Fatalf("unexpected first glyph %+v", first)
	}
	if !almostEqual(first.Size, pdftest.FontSize) || !almostEqual(first.W, pdftest.CharWidth) {
		t.Fatalf("unexpected glyph metrics %+v", first)
	}

	last := page.Glyphs[len(page.Glyphs)-1]
	if last.S != "e" || !almostEqual(last.Y, pdftest.Origin.Y-pdftest.Leading) {
		t.Fatalf("unexpected last glyph %+v", last)
	}
}

func TestDecoder_MissingPage(t *testing.T) {
	doc, err := NewDecoder().Open(pdftest.Build("only"), nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, err := doc.Page(2); err == nil {
		t.Fatalf("expected error for missing page")
	}
}

func TestDecoder_ClosedDocument(t *testing.T) {
	doc, err := NewDecoder().Open(pdftest.Build("only"), nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	doc.Close()
	if _, err := doc.Page(1); err == nil {
		t.Fatalf("expected error after close")
	}
}

func TestDecoder_InvalidInput(t *testing.T) {
	cases := map[string][]byte{
		"empty":     nil,
		"text":      []byte("definitely not a pdf"),
		"truncated": pdftest.Build("cut short")[:120],
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewDecoder().Open(data, nil); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDecoder_InheritedRotation(t *testing.T) {
	data := pdftest.BuildWithOptions(pdftest.Options{Pages: [][]string{{"a"}, {"b"}}, Rotate: 90})
	doc, err := NewDecoder().Open(data, nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	for n := 1; n <= doc.NumPages(); n++ {
		page, err := doc.Page(n)
		if err != nil {
			t.Fatalf("page %d failed: %v", n, err)
		}
		if page.Rotate != 90 {
			t.Fatalf("page %d: expected inherited rotation 90, got %d", n, page.Rotate)
		}
	}
}

func TestDecoder_Encrypted(t *testing.T) {
	data := pdftest.BuildWithOptions(pdftest.Options{
		Pages:        [][]string{{"classified"}},
		Encrypt:      true,
		UserPassword: "secret",
	})

	if _, err := NewDecoder().Open(data, nil); err == nil {
		t.Fatalf("expected failure without password")
	}
	if _, err := NewDecoder().Open(data, []byte("wrong")); err == nil {
		t.Fatalf("expected failure with wrong password")
	}

	doc, err := NewDecoder().Open(data, []byte("secret"))
	if err != nil {
		t.Fatalf("open with password failed: %v", err)
	}
	page, err := doc.Page(1)
	if err != nil {
		t.Fatalf("page failed: %v", err)
	}
	if got := LayoutText(page, 0); got != "classified\n" {
		t.Fatalf("unexpected decrypted text %q", got)
	}
}

func TestDecoder_EncryptedEmptyUserPassword(t *testing.T) {
	data := pdftest.BuildWithOptions(pdftest.Options{Pages: [][]string{{"open"}}, Encrypt: true})
	if _, err := NewDecoder().Open(data, nil); err != nil {
		t.Fatalf("empty user password should open without a password: %v", err)
	}
}

func TestDecoder_ExtractionNotAllowed(t *testing.T) {
	data := pdftest.BuildWithOptions(pdftest.Options{
		Pages:       [][]string{{"locked"}},
		Encrypt:     true,
		Permissions: pdftest.PermNoExtract,
	})
	_, err := NewDecoder().Open(data, nil)
	if !errors.Is(err, domain.ErrExtractionNotAllowed) {
		t.Fatalf("expected extraction not allowed, got %v", err)
	}
}
