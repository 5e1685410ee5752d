package viz

import "strings"

const brailleBlank = 0x2800

// dot bits of a Braille cell, indexed [row][col]
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of Braille cells, each holding 2x4 dots.
type Canvas struct {
	cols, rows int
	cells      []rune
}

func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{cols: cols, rows: rows, cells: make([]rune, cols*rows)}
	c.Clear()
	return c
}

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (w, h int) { return c.cols * 2, c.rows * 4 }

func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = brailleBlank
	}
}

// Set lights the dot at (x, y). Out of range dots are ignored.
func (c *Canvas) Set(x, y int) {
	w, h := c.Dots()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	c.cells[(y/4)*c.cols+x/2] |= dotBits[y%4][x%2]
}

// Line draws a Bresenham line between two dots.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// Lit reports whether any dot is set.
func (c *Canvas) Lit() bool {
	for _, r := range c.cells {
		if r != brailleBlank {
			return true
		}
	}
	return false
}

func (c *Canvas) String() string {
	var b strings.Builder
	for r := 0; r < c.rows; r++ {
		b.WriteString(string(c.cells[r*c.cols : (r+1)*c.cols]))
		if r < c.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
