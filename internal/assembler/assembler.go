package assembler

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"brandstudio/internal/infra"
	"brandstudio/internal/metrics"
)

// Role tells the downstream model what a reference image is.
type Role string

const (
	RoleSubject   Role = "subject"
	RoleBrandMark Role = "brand_mark"
	RoleStyle     Role = "style"
)

// Reference points at a context image for a generation request.
// Critical references get one extra fetch attempt before being dropped.
type Reference struct {
	URL      string
	Role     Role
	Critical bool
}

// Part is one ordered element of a multimodal request: either a text
// segment or an image segment.
type Part struct {
	Text string
	MIME string
	Data []byte
}

// IsText reports whether the part is a text segment.
func (p Part) IsText() bool { return len(p.Data) == 0 }

const (
	// maxRasterDim bounds the canvas used when rasterizing vector
	// references. Subject images are exempt from the bound.
	maxRasterDim = 1024

	retryBackoff = 500 * time.Millisecond

	maxReferenceBytes = 20 << 20
)

// Assembler turns a prompt plus reference images into the ordered part
// list of a single multimodal generation request.
type Assembler struct {
	httpClient   *http.Client
	fetchTimeout time.Duration
	logger       infra.Logger
}

// New constructs an Assembler. A nil httpClient gets a default one; the
// per-reference fetch timeout is applied on top of the client's own.
func New(httpClient *http.Client, fetchTimeout time.Duration, logger infra.Logger) *Assembler {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	return &Assembler{httpClient: httpClient, fetchTimeout: fetchTimeout, logger: logger}
}

// Assemble fetches every reference and produces the ordered parts for
// the generation call. References that cannot be fetched or converted
// are dropped with a logged reason; partial context is preferred over
// total failure. The interleaved role labels are a correctness
// requirement: the model attributes images by the text that precedes
// them.
func (a *Assembler) Assemble(ctx context.Context, prompt string, refs []Reference) ([]Part, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("assemble: prompt is required")
	}

	parts := []Part{{Text: prompt}}
	styleIndex := 0
	for _, ref := range refs {
		if strings.TrimSpace(ref.URL) == "" {
			continue
		}
		data, mimeType, err := a.fetchReference(ctx, ref)
		if err != nil {
			a.logger.Warn().Err(err).
				Str("url", ref.URL).
				Str("role", string(ref.Role)).
				Msg("assembler: reference dropped after fetch failure")
			metrics.IncReferenceDrop("fetch")
			continue
		}
		if isVectorMIME(mimeType) {
			// The downstream model does not accept vector formats.
			bound := maxRasterDim
			if ref.Role == RoleSubject {
				bound = 0
			}
			raster, err := rasterizeSVG(data, bound)
			if err != nil {
				a.logger.Warn().Err(err).
					Str("url", ref.URL).
					Str("role", string(ref.Role)).
					Msg("assembler: reference dropped after rasterization failure")
				metrics.IncReferenceDrop("rasterize")
				continue
			}
			data = raster
			mimeType = "image/png"
		}
		label := ""
		switch ref.Role {
		case RoleSubject:
			label = "This image is the subject."
		case RoleBrandMark:
			label = "This image is the brand mark."
		default:
			styleIndex++
			label = fmt.Sprintf("This image is style reference %d.", styleIndex)
		}
		parts = append(parts, Part{Text: label}, Part{MIME: mimeType, Data: data})
	}

	return parts, nil
}

// fetchReference downloads one reference with a bounded timeout. A
// critical reference is retried once after a short backoff.
func (a *Assembler) fetchReference(ctx context.Context, ref Reference) ([]byte, string, error) {
	data, mimeType, err := a.fetchOnce(ctx, ref.URL)
	if err == nil || !ref.Critical {
		return data, mimeType, err
	}

	select {
	case <-ctx.Done():
		return nil, "", ctx.Err()
	case <-time.After(retryBackoff):
	}
	return a.fetchOnce(ctx, ref.URL)
}

func (a *Assembler) fetchOnce(ctx context.Context, url string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch reference: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", fmt.Errorf("fetch reference: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReferenceBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read reference: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("read reference: empty body")
	}

	// The MIME type comes from the response, never from the URL.
	mimeType := resp.Header.Get("Content-Type")
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return data, mimeType, nil
}

func isVectorMIME(mimeType string) bool {
	return strings.EqualFold(strings.TrimSpace(mimeType), "image/svg+xml")
}
