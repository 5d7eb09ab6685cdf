package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
)

const thumbnailMaxEdge = 128

// thumbnail decodes an image and downscales it so its longest edge fits
// thumbnailMaxEdge, re-encoded as PNG. Nearest-neighbour sampling keeps the
// standard library sufficient; thumbnails are small enough that quality loss
// does not matter.
func thumbnail(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("decode image: empty bounds")
	}

	tw, th := w, h
	if w > thumbnailMaxEdge || h > thumbnailMaxEdge {
		if w >= h {
			tw = thumbnailMaxEdge
			th = h * thumbnailMaxEdge / w
		} else {
			th = thumbnailMaxEdge
			tw = w * thumbnailMaxEdge / h
		}
		if tw < 1 {
			tw = 1
		}
		if th < 1 {
			th = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			sx := bounds.Min.X + x*w/tw
			sy := bounds.Min.Y + y*h/th
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
