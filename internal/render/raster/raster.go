// Package raster renders SVG export documents to PNG previews.
//
// Only geometry is rasterized; text labels are skipped by the SVG reader.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

// ContentType of the rendered preview.
const ContentType = "image/png"

// ErrEmptyCanvas is returned when the document has no drawable size.
var ErrEmptyCanvas = errors.New("svg document has no width or height")

// PNG rasterizes an SVG document. A positive maxWidth below the document
// width downscales the result, keeping the aspect ratio.
func PNG(svgDoc []byte, maxWidth int) ([]byte, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgDoc), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	w, h := int(icon.ViewBox.W), int(icon.ViewBox.H)
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyCanvas
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.SetTarget(0, 0, float64(w), float64(h))
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)

	var out image.Image = img
	if maxWidth > 0 && maxWidth < w {
		dh := h * maxWidth / w
		if dh < 1 {
			dh = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, dh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
