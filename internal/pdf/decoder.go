// Package pdf wraps the PDF decoding library behind a small page-stream API and
// lays out decoded glyphs as plain text.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"pdf-extractor/internal/domain"

	lpdf "github.com/ledongthuc/pdf"
)

// permExtract is the "copy or extract text" bit of the /P permission flags.
const permExtract = 1 << 4

// Glyph is one decoded character with its position in user space.
type Glyph struct {
	X, Y float64
	W    float64
	Size float64
	S    string
}

// Box is a page rectangle in user space.
type Box struct {
	X0, Y0, X1, Y1 float64
}

// Page is a decoded page ready for layout.
type Page struct {
	Number   int
	Rotate   int
	MediaBox Box
	Glyphs   []Glyph
}

// Document is an opened PDF. Pages are numbered from 1.
type Document interface {
	NumPages() int
	Page(number int) (*Page, error)
	Close() error
}

// Decoder opens PDF bytes into a Document.
type Decoder interface {
	Open(data []byte, password []byte) (Document, error)
}

// LedongDecoder decodes documents with github.com/ledongthuc/pdf.
type LedongDecoder struct{}

// NewDecoder creates the default decoder.
func NewDecoder() *LedongDecoder {
	return &LedongDecoder{}
}

// Open parses data, authenticating with password when the file is encrypted.
// Encrypted documents whose permissions forbid text extraction are rejected.
func (LedongDecoder) Open(data []byte, password []byte) (doc Document, err error) {
	defer recoverAs(&err)

	if len(data) == 0 {
		return nil, errors.New("empty document")
	}

	// The library retries the callback until it returns "", so hand the
	// password out once.
	offered := false
	r, err := lpdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), func() string {
		if offered {
			return ""
		}
		offered = true
		return string(password)
	})
	if err != nil {
		return nil, err
	}

	if !extractable(r) {
		return nil, domain.ErrExtractionNotAllowed
	}
	return &ledongDocument{r: r, pages: r.NumPage()}, nil
}

func extractable(r *lpdf.Reader) bool {
	encrypt := r.Trailer().Key("Encrypt")
	if encrypt.IsNull() {
		return true
	}
	p := encrypt.Key("P")
	if p.IsNull() {
		return true
	}
	return uint32(p.Int64())&permExtract != 0
}

type ledongDocument struct {
	r     *lpdf.Reader
	pages int
}

func (d *ledongDocument) NumPages() int {
	return d.pages
}

func (d *ledongDocument) Page(number int) (page *Page, err error) {
	defer recoverAs(&err)

	if d.r == nil {
		return nil, errors.New("document is closed")
	}
	p := d.r.Page(number)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d not found", number)
	}

	content := p.Content()
	glyphs := make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		// Text-object separators come through as bare line breaks; layout
		// derives lines from positions instead.
		if t.S == "" || strings.Trim(t.S, "\r\n") == "" {
			continue
		}
		glyphs = append(glyphs, Glyph{X: t.X, Y: t.Y, W: t.W, Size: t.FontSize, S: t.S})
	}

	return &Page{
		Number:   number,
		Rotate:   int(inherited(p.V, "Rotate").Int64()),
		MediaBox: mediaBox(inherited(p.V, "MediaBox")),
		Glyphs:   glyphs,
	}, nil
}

func (d *ledongDocument) Close() error {
	d.r = nil
	return nil
}

// inherited walks up the page tree for inheritable attributes.
func inherited(v lpdf.Value, key string) lpdf.Value {
	for ; !v.IsNull(); v = v.Key("Parent") {
		if x := v.Key(key); !x.IsNull() {
			return x
		}
	}
	return lpdf.Value{}
}

func mediaBox(v lpdf.Value) Box {
	if v.Len() != 4 {
		return Box{X1: 612, Y1: 792}
	}
	return Box{
		X0: v.Index(0).Float64(),
		Y0: v.Index(1).Float64(),
		X1: v.Index(2).Float64(),
		Y1: v.Index(3).Float64(),
	}
}

// recoverAs turns a panic raised inside the library into an error.
func recoverAs(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = e
			return
		}
		*err = fmt.Errorf("%v", r)
	}
}
