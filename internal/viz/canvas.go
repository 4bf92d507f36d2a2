package viz

import (
	"strings"

	"github.com/omnidrive/holotrack/internal/geom"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800 // Empty braille char
		}
	}
	return c
}

// Set lights a pixel at (x, y) in sub-pixel coordinates. The canvas size in
// sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	subX := x % 2
	subY := y % 4

	c.Grid[row][col] |= rune(pixelMap[subY][subX])
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Projection maps field coordinates (meters, y up) onto the canvas's
// sub-pixel grid (y down).
type Projection struct {
	minX, minY float64
	scale      float64
	offX, offY int
	subH       int
}

// NewProjection fits the bounding box of the given poses into a canvas of
// the given character size, preserving aspect ratio and leaving a margin.
func NewProjection(path []geom.Pose, width, height int) Projection {
	subW, subH := width*2, height*4

	minX, maxX := path[0].X(), path[0].X()
	minY, maxY := path[0].Y(), path[0].Y()
	for _, p := range path {
		minX = minFloat(minX, p.X())
		maxX = maxFloat(maxX, p.X())
		minY = minFloat(minY, p.Y())
		maxY = maxFloat(maxY, p.Y())
	}

	// Pad so a run that drifts off the path stays visible.
	const margin = 0.5
	minX -= margin
	maxX += margin
	minY -= margin
	maxY += margin

	scaleX := float64(subW) / (maxX - minX)
	scaleY := float64(subH) / (maxY - minY)
	scale := minFloat(scaleX, scaleY)

	offX := (subW - int(scale*(maxX-minX))) / 2
	offY := (subH - int(scale*(maxY-minY))) / 2

	return Projection{minX: minX, minY: minY, scale: scale, offX: offX, offY: offY, subH: subH}
}

// ToPixel converts a field coordinate to sub-pixel coordinates.
func (p Projection) ToPixel(x, y float64) (int, int) {
	px := p.offX + int(p.scale*(x-p.minX))
	py := p.subH - p.offY - int(p.scale*(y-p.minY))
	return px, py
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
