// Package pdftest builds small PDF documents for tests: Courier text pages with
// optional page rotation and RC4 encryption.
package pdftest

import (
	"bytes"
	"crypto/md5"
	"crypto/rc4"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// FontSize is the text size used on every page.
	FontSize = 12
	// Leading is the distance between baselines.
	Leading = 14
	// CharWidth is the advance of one Courier glyph at FontSize.
	CharWidth = 600.0 / 1000 * FontSize

	// PermAll grants every permission.
	PermAll int32 = -4
	// PermNoExtract grants everything except copying or extracting text.
	PermNoExtract int32 = -4 &^ (1 << 4)
)

// Origin is where the first line of a page starts.
var Origin = struct{ X, Y float64 }{72, 720}

var passwordPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41, 0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80, 0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

var fileID = []byte("pdftest-document")

// Options controls the generated document.
type Options struct {
	// Pages holds the text lines of each page.
	Pages [][]string
	// Rotate is written to the page tree root and inherited by every page.
	Rotate int
	// Encrypt turns on RC4 128-bit encryption with UserPassword.
	Encrypt      bool
	UserPassword string
	// Permissions is the /P value; zero means PermAll.
	Permissions int32
}

// Build returns a single-page document with the given lines.
func Build(lines ...string) []byte {
	return BuildWithOptions(Options{Pages: [][]string{lines}})
}

// BuildPages returns a document with one page per entry.
func BuildPages(pages ...[]string) []byte {
	return BuildWithOptions(Options{Pages: pages})
}

// BuildWithOptions returns a document described by opts.
func BuildWithOptions(opts Options) []byte {
	pages := opts.Pages
	if len(pages) == 0 {
		pages = [][]string{nil}
	}
	perms := opts.Permissions
	if perms == 0 {
		perms = PermAll
	}

	var key []byte
	if opts.Encrypt {
		key = fileKey(opts.UserPassword, perms)
	}

	w := &writer{}
	w.buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	rotate := ""
	if opts.Rotate != 0 {
		rotate = fmt.Sprintf(" /Rotate %d", opts.Rotate)
	}

	w.object(1, "<< /Type /Catalog /Pages 2 0 R >>")
	w.object(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792]%s >>",
		strings.Join(kids, " "), len(pages), rotate))
	w.object(3, fontDict())
	for i, lines := range pages {
		pageID, contentID := 4+2*i, 5+2*i
		w.object(pageID, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentID))
		data := contentStream(lines)
		if key != nil {
			data = rc4Crypt(objectKey(key, contentID), data)
		}
		w.stream(contentID, data)
	}

	trailer := fmt.Sprintf("/Size %d /Root 1 0 R /ID [<%s> <%s>]",
		len(w.offsets)+1, hex.EncodeToString(fileID), hex.EncodeToString(fileID))
	if key != nil {
		trailer += fmt.Sprintf(" /Encrypt << /Filter /Standard /V 2 /R 3 /Length 128 /P %d /O <%s> /U <%s> >>",
			perms, hex.EncodeToString(passwordPad), hex.EncodeToString(userHash(key)))
	}
	return w.finish(trailer)
}

type writer struct {
	buf     bytes.Buffer
	offsets []int
}

func (w *writer) object(id int, body string) {
	w.mark(id)
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", id, body)
}

func (w *writer) stream(id int, data []byte) {
	w.mark(id)
	fmt.Fprintf(&w.buf, "%d 0 obj\n<< /Length %d >>\nstream\n", id, len(data))
	w.buf.Write(data)
	w.buf.WriteString("\nendstream\nendobj\n")
}

func (w *writer) mark(id int) {
	for len(w.offsets) < id {
		w.offsets = append(w.offsets, 0)
	}
	w.offsets[id-1] = w.buf.Len()
}

func (w *writer) finish(trailer string) []byte {
	xref := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n", len(w.offsets)+1)
	w.buf.WriteString("0000000000 65535 f \n")
	for _, off := range w.offsets {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&w.buf, "trailer\n<< %s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xref)
	return w.buf.Bytes()
}

func fontDict() string {
	widths := strings.TrimSpace(strings.Repeat("600 ", 126-32+1))
	return "<< /Type /Font /Subtype /Type1 /BaseFont /Courier /FirstChar 32 /LastChar 126 /Widths [" +
		widths + "] /Encoding /WinAnsiEncoding >>"
}

func contentStream(lines []string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "BT\n/F1 %d Tf\n%d TL\n%g %g Td\n", FontSize, Leading, Origin.X, Origin.Y)
	for i, line := range lines {
		if i > 0 {
			b.WriteString("T*\n")
		}
		fmt.Fprintf(&b, "(%s) Tj\n", escape(line))
	}
	b.WriteString("ET")
	return []byte(b.String())
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`).Replace(s)
}

// fileKey derives the revision 3 encryption key for a 128-bit handler.
func fileKey(password string, perms int32) []byte {
	pw := []byte(password)
	if len(pw) > 32 {
		pw = pw[:32]
	}
	h := md5.New()
	h.Write(pw)
	h.Write(passwordPad[:32-len(pw)])
	h.Write(passwordPad) // owner entry
	p := uint32(perms)
	h.Write([]byte{byte(p), byte(p >> 8), byte(p >> 16), byte(p >> 24)})
	h.Write(fileID)
	key := h.Sum(nil)
	for i := 0; i < 50; i++ {
		sum := md5.Sum(key[:16])
		key = sum[:]
	}
	return key[:16]
}

// userHash computes the /U entry for revision 3.
func userHash(key []byte) []byte {
	h := md5.New()
	h.Write(passwordPad)
	h.Write(fileID)
	u := rc4Crypt(key, h.Sum(nil))
	for i := 1; i <= 19; i++ {
		k := make([]byte, len(key))
		for j := range key {
			k[j] = key[j] ^ byte(i)
		}
		u = rc4Crypt(k, u)
	}
	return append(u, make([]byte, 16)...)
}

func objectKey(key []byte, id int) []byte {
	h := md5.New()
	h.Write(key)
	h.Write([]byte{byte(id), byte(id >> 8), byte(id >> 16), 0, 0})
	return h.Sum(nil)
}

func rc4Crypt(key, data []byte) []byte {
	c, err := rc4.NewCipher(key)
	if err != nil {
		panic(err)
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out
}
