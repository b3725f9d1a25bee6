package console

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/fzipp/bmfont"
	"github.com/richinsley/goglitch/imageio"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Atlas is a glyph sheet of 16x16 equal cells; the cell for character
// code c is column c%16, row c/16, counted from the top-left.
type Atlas struct {
	Image *image.RGBA
}

// CharSize is the size of one cell in pixels.
func (a *Atlas) CharSize() (w, h float32) {
	b := a.Image.Bounds()
	return float32(b.Dx()) / gridCells, float32(b.Dy()) / gridCells
}

const (
	defaultCellW = 10
	defaultCellH = 20
)

// DefaultAtlas renders the printable ASCII range of the built-in 7x13 face
// into 10x20 cells.
func DefaultAtlas() *Atlas {
	img := image.NewRGBA(image.Rect(0, 0, defaultCellW*gridCells, defaultCellH*gridCells))
	d := font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: basicfont.Face7x13,
	}
	for code := 32; code < 127; code++ {
		col, row := code%gridCells, code/gridCells
		d.Dot = fixed.P(col*defaultCellW+1, row*defaultCellH+15)
		d.DrawString(string(rune(code)))
	}
	return &Atlas{Image: img}
}

// LoadAtlas reads a glyph sheet. A .fnt file is read as an AngelCode bitmap
// font and repacked into the grid; anything else must already be a grid
// image.
func LoadAtlas(path string) (*Atlas, error) {
	if strings.EqualFold(filepath.Ext(path), ".fnt") {
		return loadBitmapFont(path)
	}
	img, err := imageio.Open(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() < gridCells || b.Dy() < gridCells {
		return nil, fmt.Errorf("font atlas %s is %dx%d, too small for a 16x16 grid", path, b.Dx(), b.Dy())
	}
	return &Atlas{Image: img}, nil
}

func loadBitmapFont(path string) (*Atlas, error) {
	f, err := bmfont.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load bitmap font: %w", err)
	}

	pages := make(map[int]image.Image)
	for _, p := range f.Descriptor.Pages {
		img, err := imageio.Open(filepath.Join(filepath.Dir(path), p.File))
		if err != nil {
			return nil, err
		}
		pages[p.ID] = img
	}

	cellW, cellH := 0, f.Descriptor.Common.LineHeight
	for _, g := range f.Descriptor.Chars {
		if int(g.ID) >= gridCells*gridCells {
			continue
		}
		if g.XAdvance > cellW {
			cellW = g.XAdvance
		}
		if g.Height+g.YOffset > cellH {
			cellH = g.Height + g.YOffset
		}
	}
	if cellW == 0 || cellH == 0 {
		return nil, fmt.Errorf("bitmap font %s has no glyphs below 256", path)
	}

	dst := image.NewRGBA(image.Rect(0, 0, cellW*gridCells, cellH*gridCells))
	for _, g := range f.Descriptor.Chars {
		code := int(g.ID)
		if code >= gridCells*gridCells {
			continue
		}
		page, ok := pages[g.Page]
		if !ok {
			continue
		}
		cell := image.Pt((code%gridCells)*cellW, (code/gridCells)*cellH)
		at := cell.Add(image.Pt(g.XOffset, g.YOffset))
		r := image.Rect(at.X, at.Y, at.X+g.Width, at.Y+g.Height).
			Intersect(image.Rect(cell.X, cell.Y, cell.X+cellW, cell.Y+cellH))
		draw.Draw(dst, r, page, image.Pt(g.X, g.Y).Add(r.Min.Sub(at)), draw.Src)
	}
	return &Atlas{Image: dst}, nil
}
