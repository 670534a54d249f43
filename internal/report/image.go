package report

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"sfperms/internal/logging"
	"sfperms/internal/matrix"
)

// Ellipsis marks truncated cell text.
const Ellipsis = "..."

// ImageOptions configures table rasterization. Widths are in pixels.
type ImageOptions struct {
	FontSize       float64
	CellPadding    int
	RowHeight      int
	MinColumnWidth int
	MaxColumnWidth int
}

var (
	colorBackground = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorHeader     = color.RGBA{0xe8, 0xee, 0xf4, 0xff}
	colorGrid       = color.RGBA{0xb0, 0xb8, 0xc0, 0xff}
	colorText       = color.RGBA{0x10, 0x1f, 0x38, 0xff}
	colorMuted      = color.RGBA{0x9a, 0xa3, 0xad, 0xff}
)

// ImageRenderer draws matrices as PNG tables with computed column widths.
type ImageRenderer struct {
	opts ImageOptions
	face font.Face
}

// NewImageRenderer loads the Go Regular face at the configured size.
func NewImageRenderer(opts ImageOptions) (*ImageRenderer, error) {
	if opts.FontSize <= 0 {
		return nil, fmt.Errorf("font size must be positive, got %v", opts.FontSize)
	}
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return &ImageRenderer{opts: opts, face: face}, nil
}

// Close releases the font face.
func (r *ImageRenderer) Close() error {
	return r.face.Close()
}

// Measure returns the advance width of s in pixels.
func (r *ImageRenderer) Measure(s string) int {
	return font.MeasureString(r.face, s).Ceil()
}

// ColumnWidths computes each column's width from its widest content plus
// padding, clamped to the configured minimum and maximum.
func (r *ImageRenderer) ColumnWidths(header []string, rows [][]string) []int {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = r.Measure(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if w := r.Measure(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	for i := range widths {
		w := widths[i] + 2*r.opts.CellPadding
		if w < r.opts.MinColumnWidth {
			w = r.opts.MinColumnWidth
		}
		if r.opts.MaxColumnWidth > 0 && w > r.opts.MaxColumnWidth {
			w = r.opts.MaxColumnWidth
		}
		widths[i] = w
	}
	return widths
}

// Truncate shortens text with an ellipsis so it fits within budget pixels.
func (r *ImageRenderer) Truncate(text string, budget int) string {
	if r.Measure(text) <= budget {
		return text
	}
	runes := []rune(text)
	for n := len(runes) - 1; n > 0; n-- {
		candidate := string(runes[:n]) + Ellipsis
		if r.Measure(candidate) <= budget {
			return candidate
		}
	}
	return Ellipsis
}

// Render rasterizes the matrix table to PNG bytes.
func (r *ImageRenderer) Render(m *matrix.Matrix) ([]byte, error) {
	timer := logging.StartTimer(logging.CategoryRender, "render "+string(m.Kind)+" image")
	defer timer.Stop()

	header, rows := Table(m)
	widths := r.ColumnWidths(header, rows)

	totalWidth := 1
	for _, w := range widths {
		totalWidth += w
	}
	rowHeight := r.opts.RowHeight
	totalHeight := rowHeight*(len(rows)+1) + 1

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)
	fillRect(img, image.Rect(0, 0, totalWidth, rowHeight), colorHeader)

	r.drawRow(img, header, widths, 0, colorText)
	for i, row := range rows {
		r.drawRow(img, row, widths, (i+1)*rowHeight, colorText)
	}

	// grid
	for y := 0; y <= len(rows)+1; y++ {
		fillRect(img, image.Rect(0, y*rowHeight, totalWidth, y*rowHeight+1), colorGrid)
	}
	x := 0
	for _, w := range widths {
		fillRect(img, image.Rect(x, 0, x+1, totalHeight), colorGrid)
		x += w
	}
	fillRect(img, image.Rect(x, 0, x+1, totalHeight), colorGrid)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	logging.RenderDebug("%s image %dx%d, %d bytes", m.Kind, totalWidth, totalHeight, buf.Len())
	return buf.Bytes(), nil
}

func (r *ImageRenderer) drawRow(img *image.RGBA, cells []string, widths []int, top int, fg color.Color) {
	metrics := r.face.Metrics()
	ascent := metrics.Ascent.Ceil()
	descent := metrics.Descent.Ceil()
	baseline := top + (r.opts.RowHeight+ascent-descent)/2

	x := 0
	for i, w := range widths {
		if i < len(cells) {
			text := r.Truncate(cells[i], w-2*r.opts.CellPadding)
			src := fg
			if i >= 2 && text == "-" {
				src = colorMuted
			}
			d := &font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(src),
				Face: r.face,
				Dot:  fixed.P(x+r.opts.CellPadding, baseline),
			}
			d.DrawString(text)
		}
		x += w
	}
}

func fillRect(img *image.RGBA, rect image.Rectangle, c color.Color) {
	draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Src)
}
