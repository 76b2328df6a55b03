package generation

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"
	"time"

	"brandstudio/internal/assembler"
)

// DebugDelay returns how long a debug prompt asks the pipeline to take.
// "debug: slow" simulates a slow external call so the polling and
// progress machinery can be exercised end-to-end.
func DebugDelay(prompt string) time.Duration {
	directive := strings.TrimSpace(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(prompt)), "debug:"))
	if strings.HasPrefix(directive, "slow") {
		return 8 * time.Second
	}
	return 0
}

// generateSynthetic renders a deterministic placeholder image from the
// assembled parts. The seed covers every text segment so identical
// requests produce identical pixels.
func (c *Client) generateSynthetic(parts []assembler.Part, constraints Constraints) (*Image, error) {
	seedParts := make([]any, 0, len(parts)+1)
	for _, p := range parts {
		if p.IsText() {
			seedParts = append(seedParts, p.Text)
		}
	}
	seedParts = append(seedParts, constraints.AspectRatio, string(constraints.Tier))
	seed := deterministicSeed(seedParts...)

	width, height := normalizeAspect(constraints.AspectRatio)
	data := renderSyntheticImage(width, height, seed)
	if len(data) == 0 {
		return nil, ErrNoImage
	}

	c.logger.Debug().
		Str("seed", seed).
		Str("tier", string(constraints.Tier)).
		Msg("generation: rendered synthetic placeholder")

	return &Image{Data: data, MIME: "image/png", Width: width, Height: height}, nil
}

func renderSyntheticImage(width, height int, seed string) []byte {
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	stripeHeight := maxInt(32, height/12)
	for y := 0; y < height; y += stripeHeight * 2 {
		stripe := image.Rect(0, y, width, minInt(height, y+stripeHeight))
		draw.Draw(img, stripe, &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	diagonal := colorFromSeed(seed, 2)
	for i := 0; i < maxInt(width, height); i += maxInt(16, width/32) {
		x := i
		for y := 0; y < height; y++ {
			xx := x + y
			if xx >= width {
				break
			}
			img.Set(xx, y, diagonal)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if seed == "" {
		seed = "000000"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	r := mustParseHexByte(segment[0:2])
	g := mustParseHexByte(segment[2:4])
	b := mustParseHexByte(segment[4:6])
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func mustParseHexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func deterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(fmt.Sprintf("%v", part)))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

func normalizeAspect(aspect string) (int, int) {
	switch strings.TrimSpace(strings.ToLower(aspect)) {
	case "16:9":
		return 1920, 1080
	case "9:16":
		return 1080, 1920
	case "4:5":
		return 1024, 1280
	case "3:2":
		return 1536, 1024
	case "1:1", "square", "":
		return 1024, 1024
	default:
		parts := strings.Split(aspect, ":")
		if len(parts) == 2 {
			if a, errA := strconv.Atoi(strings.TrimSpace(parts[0])); errA == nil {
				if b, errB := strconv.Atoi(strings.TrimSpace(parts[1])); errB == nil && a > 0 && b > 0 {
					width := 1024
					height := int(float64(width) * float64(b) / float64(a))
					return width, height
				}
			}
		}
		return 1024, 1024
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
