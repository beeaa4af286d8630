package console

import (
	"errors"
	"image/color"

	"brainos/hal"

	"tinygo.org/x/drivers"
)

// fbDisplay draws into a horizontal band of an RGB565 framebuffer. Its own
// coordinates start at the top of the band, so a terminal configured on it
// never touches the rest of the screen.
type fbDisplay struct {
	fb hal.Framebuffer
	y0 int
	h  int
}

func newFBDisplay(fb hal.Framebuffer, y0, h int) *fbDisplay {
	if fb != nil {
		if y0 < 0 {
			y0 = 0
		}
		if y0+h > fb.Height() {
			h = fb.Height() - y0
		}
	}
	if h < 0 {
		h = 0
	}
	return &fbDisplay{fb: fb, y0: y0, h: h}
}

func (d *fbDisplay) usable() bool {
	return d.fb != nil && d.fb.Format() == hal.PixelFormatRGB565 && d.fb.Buffer() != nil
}

func (d *fbDisplay) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.h)
}

func (d *fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	if !d.usable() {
		return
	}
	ix := int(x)
	iy := int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.h {
		return
	}

	buf := d.fb.Buffer()
	pixel := rgb565From888(c.R, c.G, c.B)
	off := (d.y0+iy)*d.fb.StrideBytes() + ix*2
	if off < 0 || off+1 >= len(buf) {
		return
	}
	buf[off] = byte(pixel)
	buf[off+1] = byte(pixel >> 8)
}

func (d *fbDisplay) Display() error {
	if d.fb == nil {
		return nil
	}
	// Screens without a panel still take the log.
	if err := d.fb.Present(); err != nil && !errors.Is(err, hal.ErrNotImplemented) {
		return err
	}
	return nil
}

// ScrollUp moves the band up by lines pixel rows and clears the rows exposed
// at the bottom.
func (d *fbDisplay) ScrollUp(lines int16, bg color.RGBA) error {
	if !d.usable() || lines <= 0 {
		return nil
	}
	w := d.fb.Width()
	n := int(lines)
	if n >= d.h {
		return d.FillRectangle(0, 0, int16(w), int16(d.h), bg)
	}

	buf := d.fb.Buffer()
	stride := d.fb.StrideBytes()
	dst := d.y0 * stride
	src := (d.y0 + n) * stride
	end := (d.y0 + d.h) * stride
	if end > len(buf) {
		end = len(buf)
	}
	if src < end {
		copy(buf[dst:], buf[src:end])
	}
	return d.FillRectangle(0, int16(d.h-n), int16(w), int16(n), bg)
}

func (d *fbDisplay) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if !d.usable() {
		return nil
	}
	buf := d.fb.Buffer()
	w := d.fb.Width()

	x0 := clampInt(int(x), 0, w)
	y0 := clampInt(int(y), 0, d.h)
	x1 := clampInt(int(x)+int(width), 0, w)
	y1 := clampInt(int(y)+int(height), 0, d.h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	pixel := rgb565From888(c.R, c.G, c.B)
	lo := byte(pixel)
	hi := byte(pixel >> 8)

	stride := d.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		row := (d.y0 + py) * stride
		for px := x0; px < x1; px++ {
			off := row + px*2
			if off < 0 || off+1 >= len(buf) {
				continue
			}
			buf[off] = lo
			buf[off+1] = hi
		}
	}
	return nil
}

func (d *fbDisplay) SetScroll(line int16) {}

func (d *fbDisplay) SetRotation(rotation drivers.Rotation) error {
	return nil
}

func rgb565From888(r, g, b uint8) uint16 {
	return uint16((uint16(r>>3)&0x1F)<<11 | (uint16(g>>2)&0x3F)<<5 | (uint16(b>>3) & 0x1F))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
