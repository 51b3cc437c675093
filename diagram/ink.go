package diagram

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

// ErrNotImage reports a rendering-service response that is not a decodable image.
var ErrNotImage = errors.New("rendering service returned non-image data")

// DefaultInkBaseURL is the public mermaid.ink endpoint.
const DefaultInkBaseURL = "https://mermaid.ink"

// maxInkResponseBytes bounds how much of a service response is read.
const maxInkResponseBytes = 16 << 20

// svgDimensions pulls the view-box out of a compiled SVG; mermaid emits
// percentage widths, so the view-box is the only reliable intrinsic size.
var svgDimensions = regexp.MustCompile(`viewBox="[-0-9.]+ [-0-9.]+ ([0-9.]+) ([0-9.]+)"`)

// InkBackend renders diagrams through the mermaid.ink HTTP service using
// pako-compressed request URLs. It needs no local browser, at the cost
// of a network dependency, and serves as the fallback backend where
// Chrome is unavailable.
type InkBackend struct {
	client  *http.Client
	baseURL string
	theme   string
}

// NewInkBackend creates an HTTP backend against baseURL (empty selects
// the public service) rendering with the given mermaid theme.
func NewInkBackend(baseURL, theme string) *InkBackend {
	if baseURL == "" {
		baseURL = DefaultInkBaseURL
	}
	if theme == "" {
		theme = "default"
	}
	return &InkBackend{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		theme:   theme,
	}
}

// Close implements Backend; the HTTP backend holds no resources.
func (b *InkBackend) Close() error { return nil }

// pakoEncode builds the deflate-compressed, URL-safe payload the mermaid
// services accept in their URLs.
func pakoEncode(source, theme string) (string, error) {
	payload := map[string]any{
		"code":    source,
		"mermaid": map[string]string{"theme": theme},
	}
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := w.Write(jsonBytes); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	return "pako:" + base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

// Compile fetches the diagram as SVG and reads its intrinsic dimensions
// from the view-box.
func (b *InkBackend) Compile(ctx context.Context, source string) (*Vector, error) {
	pako, err := pakoEncode(source, b.theme)
	if err != nil {
		return nil, err
	}

	svg, err := b.fetch(ctx, fmt.Sprintf("%s/svg/%s", b.baseURL, pako))
	if err != nil {
		return nil, err
	}

	width, height := parseSVGDimensions(svg)
	return &Vector{Data: svg, Width: width, Height: height, Ref: pako}, nil
}

// Rasterize fetches the bitmap rendering at the vector's intrinsic width,
// re-encoding to PNG when the service responds with another format (the
// public service defaults to webp).
func (b *InkBackend) Rasterize(ctx context.Context, v *Vector) ([]byte, error) {
	if v.Ref == "" {
		return nil, fmt.Errorf("%w: vector carries no service reference", ErrRasterize)
	}

	data, err := b.fetch(ctx, fmt.Sprintf("%s/img/%s?type=webp&width=%d", b.baseURL, v.Ref, v.Width))
	if err != nil {
		return nil, err
	}

	pngBytes, _, _, err := decodeToPNG(data)
	if err != nil {
		return nil, err
	}
	return pngBytes, nil
}

// fetch performs one GET against the rendering service.
func (b *InkBackend) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rendering service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rendering service returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxInkResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading rendering service response: %w", err)
	}
	return data, nil
}

// parseSVGDimensions reads intrinsic pixel dimensions from SVG text.
// Returns zeros when they cannot be determined; the coordinator applies
// its fallback in that case.
func parseSVGDimensions(svg []byte) (int, int) {
	m := svgDimensions.FindSubmatch(svg)
	if m == nil {
		return 0, 0
	}
	w, errW := strconv.ParseFloat(string(m[1]), 64)
	h, errH := strconv.ParseFloat(string(m[2]), 64)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0
	}
	return int(w + 0.5), int(h + 0.5)
}

// decodeToPNG decodes img (png, jpeg, or webp) and returns PNG bytes,
// re-encoding only when the source is not already PNG.
func decodeToPNG(data []byte) ([]byte, int, int, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if format == "png" {
		return data, cfg.Width, cfg.Height, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, 0, 0, err
	}
	return buf.Bytes(), cfg.Width, cfg.Height, nil
}
