package visualizer

import "strings"

// Braille dot positions (col, row) → bit offset:
//
//	(0,0)=0  (1,0)=3
//	(0,1)=1  (1,1)=4
//	(0,2)=2  (1,2)=5
//	(0,3)=6  (1,3)=7
var brailleBits = [2][4]uint{
	{0, 1, 2, 6},
	{3, 4, 5, 7},
}

// canvas is a grid of braille cells addressed in dots: each cell is two
// dots wide and four tall. A cell takes the colour of its brightest dot.
type canvas struct {
	cols, rows int
	bits       []uint8
	color      []colorRGB
}

func (c *canvas) resize(cols, rows int) {
	cols, rows = max(cols, 1), max(rows, 1)
	if c.cols == cols && c.rows == rows {
		c.clear()
		return
	}
	c.cols, c.rows = cols, rows
	c.bits = make([]uint8, cols*rows)
	c.color = make([]colorRGB, cols*rows)
}

func (c *canvas) clear() {
	clear(c.bits)
	clear(c.color)
}

// dots returns the canvas size in dots.
func (c *canvas) dots() (int, int) { return c.cols * 2, c.rows * 4 }

// plot sets the dot at (x, y). Out-of-range dots are dropped.
func (c *canvas) plot(x, y int, col colorRGB) {
	if x < 0 || y < 0 || x >= c.cols*2 || y >= c.rows*4 {
		return
	}
	i := (y/4)*c.cols + x/2
	c.bits[i] |= 1 << brailleBits[x%2][y%4]
	if luma(col) >= luma(c.color[i]) {
		c.color[i] = col
	}
}

// line draws from (x0, y0) to (x1, y1) with Bresenham's algorithm.
func (c *canvas) line(x0, y0, x1, y1 int, col colorRGB) {
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy

	for {
		c.plot(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *canvas) render(p colorProfile) string {
	var out strings.Builder
	color := ansiWriter{profile: p}
	for r := range c.rows {
		if r > 0 {
			out.WriteByte('\n')
		}
		for col := range c.cols {
			i := r*c.cols + col
			if c.bits[i] == 0 {
				out.WriteByte(' ')
				continue
			}
			color.set(&out, c.color[i])
			out.WriteRune(rune(0x2800 + int(c.bits[i])))
		}
		color.reset(&out)
	}
	return out.String()
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
