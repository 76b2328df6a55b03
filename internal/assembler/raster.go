package assembler

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// rasterizeSVG renders SVG bytes onto a PNG canvas. When maxDim is
// positive the output is scaled down to fit within maxDim on its longer
// edge; zero leaves the natural viewbox size untouched.
func rasterizeSVG(data []byte, maxDim int) ([]byte, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	w := icon.ViewBox.W
	h := icon.ViewBox.H
	if w <= 0 || h <= 0 {
		w, h = float64(maxRasterDim), float64(maxRasterDim)
	}
	if maxDim > 0 {
		if longest := max(w, h); longest > float64(maxDim) {
			scale := float64(maxDim) / longest
			w *= scale
			h *= scale
		}
	}
	outW := int(w + 0.5)
	outH := int(h + 0.5)
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}

	icon.SetTarget(0, 0, float64(outW), float64(outH))
	rgba := image.NewRGBA(image.Rect(0, 0, outW, outH))
	scanner := rasterx.NewScannerGV(outW, outH, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(outW, outH, scanner), 1)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
