package gui

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"

	"github.com/charlie0129/battray/pkg/display"
)

const (
	iconSize = 32
	lowLevel = 15.0
)

// Icon draws a battery glyph filled to percent. A nil percent draws an empty
// gray glyph. On windows the PNG is wrapped in an ICO container.
func Icon(percent *float64, charging bool) ([]byte, error) {
	img := drawBattery(percent, charging)
	return encodeIcon(img, runtime.GOOS == "windows")
}

func fillColor(percent *float64, charging bool) display.Color {
	switch {
	case percent == nil:
		return display.Gray
	case charging:
		return display.Green
	case *percent < lowLevel:
		return display.Red
	default:
		return display.White
	}
}

func rgba(c display.Color) color.RGBA {
	a, r, g, b := c.ARGB()
	return color.RGBA{R: r, G: g, B: b, A: a}
}

func drawBattery(percent *float64, charging bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))

	outline := rgba(display.White)
	if percent == nil {
		outline = rgba(display.Gray)
	}
	fill := rgba(fillColor(percent, charging))

	// Body spans x 2..27, y 8..23; the terminal sits at x 28..30.
	const x0, x1, y0, y1 = 2, 27, 8, 23
	for x := x0; x <= x1; x++ {
		img.Set(x, y0, outline)
		img.Set(x, y1, outline)
	}
	for y := y0; y <= y1; y++ {
		img.Set(x0, y, outline)
		img.Set(x1, y, outline)
	}
	for x := x1 + 1; x <= x1+3; x++ {
		for y := 12; y <= 19; y++ {
			img.Set(x, y, outline)
		}
	}

	if percent == nil {
		return img
	}

	p := *percent
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	inner := x1 - x0 - 3
	width := int(p / 100 * float64(inner))
	for x := x0 + 2; x < x0+2+width; x++ {
		for y := y0 + 2; y <= y1-2; y++ {
			img.Set(x, y, fill)
		}
	}

	return img
}

// encodeIcon encodes img as PNG, optionally inside a single-image ICO
// container.
func encodeIcon(img image.Image, ico bool) ([]byte, error) {
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, err
	}
	if !ico {
		return pngBuf.Bytes(), nil
	}

	b := img.Bounds()
	var buf bytes.Buffer
	// ICONDIR: reserved, type 1 (icon), one image.
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	_ = binary.Write(&buf, binary.LittleEndian, struct {
		Width, Height, Colors, Reserved uint8
		Planes, BitCount                uint16
		Size, Offset                    uint32
	}{
		Width:    uint8(b.Dx()),
		Height:   uint8(b.Dy()),
		Planes:   1,
		BitCount: 32,
		Size:     uint32(pngBuf.Len()),
		Offset:   6 + 16,
	})
	buf.Write(pngBuf.Bytes())
	return buf.Bytes(), nil
}
