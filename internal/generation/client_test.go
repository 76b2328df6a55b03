package generation

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"brandstudio/internal/assembler"
	"brandstudio/internal/domain"
)

func newKeylessClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), Options{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestGenerateRequiresParts(t *testing.T) {
	c := newKeylessClient(t)
	if _, err := c.Generate(context.Background(), nil, Constraints{}); err == nil {
		t.Fatal("expected error for empty part list")
	}
}

func TestSyntheticGenerationIsDeterministic(t *testing.T) {
	c := newKeylessClient(t)
	parts := []assembler.Part{{Text: "a bakery poster"}}
	constraints := Constraints{AspectRatio: "1:1", Tier: domain.ModelTierFlash}

	first, err := c.Generate(context.Background(), parts, constraints)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := c.Generate(context.Background(), parts, constraints)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Fatal("identical requests should produce identical pixels")
	}

	other, err := c.Generate(context.Background(), []assembler.Part{{Text: "a cafe poster"}}, constraints)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if bytes.Equal(first.Data, other.Data) {
		t.Fatal("different prompts should produce different pixels")
	}
}

func TestSyntheticGenerationHonorsAspectRatio(t *testing.T) {
	c := newKeylessClient(t)
	cases := []struct {
		aspect string
		w, h   int
	}{
		{"1:1", 1024, 1024},
		{"16:9", 1920, 1080},
		{"9:16", 1080, 1920},
		{"4:5", 1024, 1280},
		{"5:4", 1024, 819},
		{"garbage", 1024, 1024},
	}
	for _, tc := range cases {
		img, err := c.Generate(context.Background(), []assembler.Part{{Text: "poster"}}, Constraints{AspectRatio: tc.aspect})
		if err != nil {
			t.Fatalf("generate %s: %v", tc.aspect, err)
		}
		if img.MIME != "image/png" {
			t.Fatalf("%s: MIME = %q, want image/png", tc.aspect, img.MIME)
		}
		cfg, err := png.DecodeConfig(bytes.NewReader(img.Data))
		if err != nil {
			t.Fatalf("%s: decode: %v", tc.aspect, err)
		}
		if cfg.Width != tc.w || cfg.Height != tc.h {
			t.Errorf("%s: got %dx%d, want %dx%d", tc.aspect, cfg.Width, cfg.Height, tc.w, tc.h)
		}
		if img.Width != tc.w || img.Height != tc.h {
			t.Errorf("%s: reported %dx%d, want %dx%d", tc.aspect, img.Width, img.Height, tc.w, tc.h)
		}
	}
}

func TestDebugPromptStaysSyntheticWithAPIKey(t *testing.T) {
	keyed, err := NewClient(context.Background(), Options{APIKey: "test-key", Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	parts := []assembler.Part{{Text: "debug: quick poster"}}
	constraints := Constraints{AspectRatio: "1:1", Tier: domain.ModelTierFlash}

	img, err := keyed.Generate(context.Background(), parts, constraints)
	if err != nil {
		t.Fatalf("debug prompt must not reach the external model: %v", err)
	}
	if img.MIME != "image/png" || len(img.Data) == 0 {
		t.Fatalf("expected synthetic png, got %+v", img)
	}

	keyless := newKeylessClient(t)
	want, err := keyless.Generate(context.Background(), parts, constraints)
	if err != nil {
		t.Fatalf("keyless generate: %v", err)
	}
	if !bytes.Equal(img.Data, want.Data) {
		t.Fatal("keyed and keyless debug output should be identical")
	}
}

func TestDebugDelay(t *testing.T) {
	if got := DebugDelay("debug: slow"); got != 8*time.Second {
		t.Errorf("debug: slow delay = %v, want 8s", got)
	}
	if got := DebugDelay("DEBUG: SLOW"); got != 8*time.Second {
		t.Errorf("case-insensitive delay = %v, want 8s", got)
	}
	if got := DebugDelay("debug: anything else"); got != 0 {
		t.Errorf("other debug prompt delay = %v, want 0", got)
	}
	if got := DebugDelay("a bakery poster"); got != 0 {
		t.Errorf("normal prompt delay = %v, want 0", got)
	}
}

func TestConstraintInstruction(t *testing.T) {
	got := constraintInstruction(Constraints{AspectRatio: "16:9", Tier: domain.ModelTierPro})
	if !strings.Contains(got, "16:9") || !strings.Contains(got, "pro") {
		t.Fatalf("instruction missing constraints: %q", got)
	}
	if constraintInstruction(Constraints{}) != "" {
		t.Fatal("empty constraints should produce no instruction")
	}
}

func TestToGenAIContentPreservesOrder(t *testing.T) {
	parts := []assembler.Part{
		{Text: "prompt"},
		{Text: "This image is the subject."},
		{MIME: "image/png", Data: []byte{1, 2, 3}},
	}
	contents := toGenAIContent(parts, Constraints{AspectRatio: "1:1"})
	if len(contents) != 1 {
		t.Fatalf("expected a single user turn, got %d", len(contents))
	}
	turn := contents[0]
	if len(turn.Parts) != 4 {
		t.Fatalf("expected 4 parts including trailing instruction, got %d", len(turn.Parts))
	}
	if turn.Parts[0].Text != "prompt" || turn.Parts[1].Text != "This image is the subject." {
		t.Fatal("text parts out of order")
	}
	if turn.Parts[2].InlineData == nil || turn.Parts[2].InlineData.MIMEType != "image/png" {
		t.Fatal("image part not mapped to inline data")
	}
	if turn.Parts[3].Text == "" {
		t.Fatal("trailing constraint instruction missing")
	}
}
