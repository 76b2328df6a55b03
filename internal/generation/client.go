package generation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"google.golang.org/genai"

	"brandstudio/internal/admission"
	"brandstudio/internal/assembler"
	"brandstudio/internal/domain"
	"brandstudio/internal/infra"
)

// ErrNoImage is returned when the model answered but produced no image
// part. Callers treat it like any other generation failure but log it
// separately from transport errors.
var ErrNoImage = errors.New("no image in generation response")

// Constraints carries the output requirements of a generation call.
type Constraints struct {
	AspectRatio string
	Tier        domain.ModelTier
}

// Image is a raw generated payload.
type Image struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Generator is the contract the executor depends on.
type Generator interface {
	Generate(ctx context.Context, parts []assembler.Part, c Constraints) (*Image, error)
}

// Options controls how the generation client is configured.
type Options struct {
	APIKey     string
	ModelFlash string
	ModelPro   string
	ModelUltra string
	Logger     infra.Logger
}

// Client wraps a single call to the Gemini image model. It performs no
// internal retry; retries belong to the caller, where cost accounting
// lives. Without an API key the client produces deterministic synthetic
// assets so local and CI environments stay operational.
type Client struct {
	genai  *genai.Client
	models map[domain.ModelTier]string
	logger infra.Logger
}

// NewClient constructs a generation client. The genai SDK client is
// only dialed when an API key is present.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	models := map[domain.ModelTier]string{
		domain.ModelTierFlash: firstNonEmpty(opts.ModelFlash, "gemini-2.5-flash-image"),
		domain.ModelTierPro:   firstNonEmpty(opts.ModelPro, "gemini-2.5-pro"),
		domain.ModelTierUltra: firstNonEmpty(opts.ModelUltra, "gemini-2.5-pro"),
	}

	c := &Client{models: models, logger: opts.Logger}
	if key := strings.TrimSpace(opts.APIKey); key != "" {
		sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("configure genai client: %w", err)
		}
		c.genai = sdk
	}
	return c, nil
}

// Generate performs one external multimodal call and returns the raw
// image payload.
func (c *Client) Generate(ctx context.Context, parts []assembler.Part, constraints Constraints) (*Image, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("generate: no parts")
	}
	// Debug prompts never reach the paid model: they skip admission, so
	// letting them through would be unmetered provider use.
	if c.genai == nil || isDebugRequest(parts) {
		return c.generateSynthetic(parts, constraints)
	}

	content := toGenAIContent(parts, constraints)
	model := c.models[constraints.Tier]
	if model == "" {
		model = c.models[domain.ModelTierFlash]
	}

	resp, err := c.genai.Models.GenerateContent(ctx, model, content, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return nil, fmt.Errorf("generation call: %w", err)
	}

	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			img := &Image{
				Data: part.InlineData.Data,
				MIME: firstNonEmpty(part.InlineData.MIMEType, "image/png"),
			}
			img.Width, img.Height = decodeImageDimensions(img.Data)
			c.logger.Debug().
				Str("model", model).
				Int("bytes", len(img.Data)).
				Msg("generation: received image payload")
			return img, nil
		}
	}

	return nil, ErrNoImage
}

// isDebugRequest reports whether the assembled request came from a
// debug prompt. The prompt is always the leading text part.
func isDebugRequest(parts []assembler.Part) bool {
	for _, p := range parts {
		if p.IsText() {
			return admission.IsDebugPrompt(p.Text)
		}
	}
	return false
}

// toGenAIContent maps assembled parts onto a single user turn,
// preserving order, and appends the output constraints as a trailing
// instruction.
func toGenAIContent(parts []assembler.Part, constraints Constraints) []*genai.Content {
	out := make([]*genai.Part, 0, len(parts)+1)
	for _, p := range parts {
		if p.IsText() {
			out = append(out, &genai.Part{Text: p.Text})
			continue
		}
		out = append(out, &genai.Part{InlineData: &genai.Blob{MIMEType: p.MIME, Data: p.Data}})
	}
	if instruction := constraintInstruction(constraints); instruction != "" {
		out = append(out, &genai.Part{Text: instruction})
	}
	return []*genai.Content{{Role: genai.RoleUser, Parts: out}}
}

func constraintInstruction(constraints Constraints) string {
	var b strings.Builder
	if aspect := strings.TrimSpace(constraints.AspectRatio); aspect != "" {
		b.WriteString("Aspect ratio: ")
		b.WriteString(aspect)
	}
	if constraints.Tier != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Resolution tier: ")
		b.WriteString(string(constraints.Tier))
	}
	return b.String()
}

func decodeImageDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
