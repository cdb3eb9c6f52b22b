package viz

import (
	"math"
	"strings"
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

const brailleBlank = 0x2800

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
	}
	c.Clear()
	return c
}

// PixelSize is the canvas size in sub-pixels.
func (c *Canvas) PixelSize() (int, int) {
	return c.Width * 2, c.Height * 4
}

func (c *Canvas) cell(x, y int) (*rune, rune, bool) {
	if x < 0 || y < 0 {
		return nil, 0, false
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return nil, 0, false
	}
	return &c.Grid[row][col], rune(pixelMap[y%4][x%2]), true
}

// Set sets a pixel at (x, y) in sub-pixel coordinates.
func (c *Canvas) Set(x, y int) {
	if r, bit, ok := c.cell(x, y); ok {
		*r |= bit
	}
}

// Unset clears a pixel
func (c *Canvas) Unset(x, y int) {
	if r, bit, ok := c.cell(x, y); ok {
		*r &^= bit
		*r |= brailleBlank
	}
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
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
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Viewport is the world-space rectangle mapped onto a canvas.
type Viewport struct {
	MinX, MaxX, MinY, MaxY float64
}

// Include grows the viewport to contain (x, y) with a 10% margin.
// Non-finite points are ignored.
func (v *Viewport) Include(x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return
	}
	if x >= v.MinX && x <= v.MaxX && y >= v.MinY && y <= v.MaxY {
		return
	}
	minX, maxX := math.Min(v.MinX, x), math.Max(v.MaxX, x)
	minY, maxY := math.Min(v.MinY, y), math.Max(v.MaxY, y)
	padX, padY := 0.1*(maxX-minX), 0.1*(maxY-minY)
	v.MinX, v.MaxX = minX-padX, maxX+padX
	v.MinY, v.MaxY = minY-padY, maxY+padY
}

// Center and Span describe the square that encloses the viewport.
func (v Viewport) Center() (float64, float64) {
	return (v.MinX + v.MaxX) / 2, (v.MinY + v.MaxY) / 2
}

func (v Viewport) Span() float64 {
	s := math.Max(v.MaxX-v.MinX, v.MaxY-v.MinY)
	if s <= 0 {
		return 1
	}
	return s
}

// Map converts world coordinates to sub-pixels on a w x h pixel grid, with
// y pointing up.
func (v Viewport) Map(x, y float64, w, h int) (int, int) {
	rx, ry := v.MaxX-v.MinX, v.MaxY-v.MinY
	if rx <= 0 {
		rx = 1
	}
	if ry <= 0 {
		ry = 1
	}
	px := int((x - v.MinX) / rx * float64(w-1))
	py := h - 1 - int((y-v.MinY)/ry*float64(h-1))
	return px, py
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
