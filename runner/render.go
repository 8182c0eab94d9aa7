package runner

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/nf/nic/intcode"
)

// Memory view geometry.
const (
	viewCols   = 32
	cellPx     = 8
	lineHeight = 13
	textLines  = 2
)

var (
	bgColor    = color.RGBA{0x10, 0x10, 0x18, 0xff}
	zeroColor  = color.RGBA{0x28, 0x28, 0x30, 0xff}
	pcColor    = color.RGBA{0xe0, 0x30, 0x30, 0xff}
	textColor  = color.RGBA{0xd0, 0xd0, 0xd0, 0xff}
	faultColor = color.RGBA{0xff, 0x60, 0x60, 0xff}
)

// ViewSize returns the size of the image Render draws for a memory of n
// cells.
func ViewSize(n int) image.Point {
	rows := (n + viewCols - 1) / viewCols
	if rows == 0 {
		rows = 1
	}
	return image.Point{viewCols * cellPx, rows*cellPx + textLines*lineHeight + 4}
}

// Render draws s onto dst: one square per memory cell, the instruction
// pointer highlighted, and a status line and the output trace below.
func Render(dst *image.RGBA, s intcode.Snapshot) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bgColor), image.Point{}, draw.Src)
	for i, w := range s.Cells {
		c := cellColor(w)
		if i == s.PC && !s.State.Terminal() {
			c = pcColor
		}
		draw.Draw(dst, cellRect(i).Add(dst.Bounds().Min), image.NewUniform(c), image.Point{}, draw.Src)
	}

	status := fmt.Sprintf("pc %d  steps %d  %s", s.PC, s.Steps, s.State)
	fg := textColor
	if s.Err != nil {
		status = s.Err.Error()
		fg = faultColor
	}
	top := ViewSize(len(s.Cells)).Y - textLines*lineHeight
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: basicfont.Face7x13,
	}
	d.Dot = fixed.P(dst.Bounds().Min.X+2, dst.Bounds().Min.Y+top+lineHeight-2)
	d.DrawString(status)

	d.Src = image.NewUniform(textColor)
	d.Dot = fixed.P(dst.Bounds().Min.X+2, dst.Bounds().Min.Y+top+2*lineHeight-2)
	d.DrawString(outputLine(s.Output, dst.Bounds().Dx()/basicfont.Face7x13.Advance))
}

func cellRect(i int) image.Rectangle {
	x, y := i%viewCols*cellPx, i/viewCols*cellPx
	return image.Rect(x, y, x+cellPx-1, y+cellPx-1)
}

// cellColor maps a word to a colour: zero is dim, positive words are
// green and negative words blue, brighter for larger magnitudes.
func cellColor(w intcode.Word) color.RGBA {
	if w == 0 {
		return zeroColor
	}
	mag := w
	if mag < 0 {
		mag = -mag
	}
	b := uint8(0x60)
	for ; mag > 0 && b < 0xf0; mag /= 10 {
		b += 0x18
	}
	if w < 0 {
		return color.RGBA{0x20, 0x40, b, 0xff}
	}
	return color.RGBA{0x20, b, 0x40, 0xff}
}

// outputLine renders the tail of the output trace in at most width
// characters.
func outputLine(out []intcode.Word, width int) string {
	var b strings.Builder
	b.WriteString("out:")
	var tail []string
	n := b.Len()
	for i := len(out) - 1; i >= 0; i-- {
		t := strconv.FormatInt(out[i], 10)
		if n+1+len(t) > width {
			break
		}
		n += 1 + len(t)
		tail = append(tail, t)
	}
	for i := len(tail) - 1; i >= 0; i-- {
		b.WriteByte(' ')
		b.WriteString(tail[i])
	}
	return b.String()
}
