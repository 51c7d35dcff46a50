package pdf

import (
	"math"
	"sort"
	"strings"
)

// placed is a glyph in the rotated reading frame.
type placed struct {
	left, right float64
	y           float64
	size        float64
	s           string
}

// LayoutText renders a page as text lines read top to bottom, left to right,
// after rotating the page clockwise by rotation degrees. Only quarter turns
// change the frame; any other angle lays the page out unrotated.
func LayoutText(page *Page, rotation int) string {
	if page == nil || len(page.Glyphs) == 0 {
		return ""
	}

	glyphs := make([]placed, 0, len(page.Glyphs))
	for _, g := range page.Glyphs {
		glyphs = append(glyphs, place(g, page.MediaBox, rotation))
	}

	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].y > glyphs[j].y })

	var lines [][]placed
	for _, g := range glyphs {
		if n := len(lines); n > 0 && math.Abs(lines[n-1][0].y-g.y) <= lineTolerance(g.size) {
			lines[n-1] = append(lines[n-1], g)
			continue
		}
		lines = append(lines, []placed{g})
	}

	var sb strings.Builder
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].left < line[j].left })
		for i, g := range line {
			if i > 0 && needsSpace(line[i-1], g) {
				sb.WriteByte(' ')
			}
			sb.WriteString(g.s)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func place(g Glyph, box Box, rotation int) placed {
	p := placed{size: g.Size, s: g.S}
	switch rotation {
	case 90:
		p.left, p.right = g.Y-box.Y0, g.Y-box.Y0
		p.y = box.X1 - g.X
	case 180:
		p.left, p.right = box.X1-g.X-g.W, box.X1-g.X
		p.y = box.Y1 - g.Y
	case 270:
		p.left, p.right = box.Y1-g.Y, box.Y1-g.Y
		p.y = g.X - box.X0
	default:
		p.left, p.right = g.X, g.X+g.W
		p.y = g.Y
	}
	return p
}

func lineTolerance(size float64) float64 {
	return math.Max(1, math.Abs(size)/2)
}

// needsSpace reports a word gap between two neighbours on one line.
func needsSpace(prev, cur placed) bool {
	if strings.HasSuffix(prev.s, " ") || strings.HasPrefix(cur.s, " ") {
		return false
	}
	size := math.Max(math.Abs(prev.size), math.Abs(cur.size))
	return cur.left-prev.right > size/4
}
