package console

// Glyphs are looked up in a 16x16 grid of character cells.
const gridCells = 16

// FloatsPerVertex is the text mesh layout: x, y, u, v, r, g, b, a.
const FloatsPerVertex = 8

var textColor = [4]float32{1, 1, 1, 1}

// Mesh is the geometry for a block of text.
type Mesh struct {
	Vertices []float32
	Indices  []uint32
}

// GlyphUV returns the texture coordinates of the top-left corner of the
// cell holding code.
func GlyphUV(code int) (u, v float32) {
	const frac = 1.0 / gridCells
	return float32(code%gridCells) * frac, float32(code/gridCells) * frac
}

// BuildMesh lays lines out bottom-up in window pixels: the last line sits
// on y = 0 and each earlier line one character height above it. Every
// character becomes a quad of charW x charH. Characters outside the atlas
// draw as '?'.
func BuildMesh(lines []string, charW, charH float32) Mesh {
	const frac = 1.0 / gridCells

	var m Mesh
	for row, line := range lines {
		y := float32(len(lines)-1-row) * charH
		x := float32(0)
		for _, r := range line {
			code := int(r)
			if code < 0 || code >= gridCells*gridCells {
				code = '?'
			}
			u, v := GlyphUV(code)
			i := uint32(len(m.Vertices) / FloatsPerVertex)

			m.Vertices = appendVertex(m.Vertices, x, y+charH, u, v)
			m.Vertices = appendVertex(m.Vertices, x, y, u, v+frac)
			m.Vertices = appendVertex(m.Vertices, x+charW, y+charH, u+frac, v)
			m.Vertices = appendVertex(m.Vertices, x+charW, y, u+frac, v+frac)
			m.Indices = append(m.Indices, i+1, i+3, i+2, i, i+1, i+2)

			x += charW
		}
	}
	return m
}

func appendVertex(dst []float32, x, y, u, v float32) []float32 {
	return append(dst, x, y, u, v, textColor[0], textColor[1], textColor[2], textColor[3])
}
