package diagram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Sentinel errors for the browser backend.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
)

// mermaidScriptURL is the mermaid bundle loaded into the render page.
const mermaidScriptURL = "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.min.js"

// defaultRenderTimeout bounds a single page load plus script evaluation.
const defaultRenderTimeout = 30 * time.Second

// compilePage hosts the diagram source for in-page compilation. The
// source is embedded escaped inside a hidden pre element and read back by
// the compile script, which avoids quoting issues in the eval call.
const compilePage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<script src="%s"></script>
</head>
<body>
<pre id="source" style="display:none">%s</pre>
</body>
</html>`

// compileScript compiles the embedded source to SVG and reports the
// intrinsic pixel dimensions of the result.
const compileScript = `async (theme) => {
	mermaid.initialize({ startOnLoad: false, securityLevel: "strict", theme: theme });
	const source = document.getElementById("source").textContent;
	const { svg } = await mermaid.render("diagram", source);
	const holder = document.createElement("div");
	holder.innerHTML = svg;
	document.body.appendChild(holder);
	const el = holder.querySelector("svg");
	const box = el.getBBox();
	return { svg: svg, width: Math.ceil(box.width), height: Math.ceil(box.height) };
}`

// rasterPage hosts a compiled SVG for screenshotting at its intrinsic size.
const rasterPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>body { margin: 0; background: white; }</style></head>
<body>%s</body>
</html>`

// RodBackend renders mermaid diagrams in headless Chrome via go-rod.
// The browser is connected lazily on first use and reused across renders;
// a mutex serializes page use, matching the one-at-a-time render policy.
//
// Rod downloads a managed Chromium on first run. Set ROD_BROWSER_BIN to
// use a pre-installed browser; the sandbox is disabled automatically in
// CI and containerized environments.
type RodBackend struct {
	mu      sync.Mutex
	browser *rod.Browser
	theme   string
	timeout time.Duration
}

// NewRodBackend creates a browser backend rendering with the given
// mermaid theme (empty selects "default").
func NewRodBackend(theme string) *RodBackend {
	if theme == "" {
		theme = "default"
	}
	return &RodBackend{theme: theme, timeout: defaultRenderTimeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (b *RodBackend) ensureBrowser() error {
	if b.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	b.browser = rod.New().ControlURL(u)
	if err := b.browser.Connect(); err != nil {
		b.browser = nil
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return nil
}

// Close releases browser resources.
func (b *RodBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		err := b.browser.Close()
		b.browser = nil
		return err
	}
	return nil
}

// Compile renders source to SVG inside the browser and reads the
// intrinsic dimensions of the resulting drawing.
func (b *RodBackend) Compile(ctx context.Context, source string) (*Vector, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := b.newPage(ctx, fmt.Sprintf(compilePage, mermaidScriptURL, html.EscapeString(source)))
	if err != nil {
		return nil, err
	}
	defer page.Close()

	obj, err := page.Eval(compileScript, b.theme)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}

	v := obj.Value
	return &Vector{
		Data:   []byte(v.Get("svg").Str()),
		Width:  v.Get("width").Int(),
		Height: v.Get("height").Int(),
	}, nil
}

// Rasterize screenshots the compiled SVG onto a drawing surface at its
// intrinsic dimensions and returns PNG bytes.
func (b *RodBackend) Rasterize(ctx context.Context, v *Vector) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := b.newPage(ctx, fmt.Sprintf(rasterPage, string(v.Data)))
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             v.Width,
		Height:            v.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}

	img, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      0,
			Y:      0,
			Width:  float64(v.Width),
			Height: float64(v.Height),
			Scale:  1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	return img, nil
}

// newPage opens a blank page, installs content, and waits for load.
func (b *RodBackend) newPage(ctx context.Context, content string) (*rod.Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	timeout := b.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			page.Close()
			return nil, context.DeadlineExceeded
		}
	}
	page = page.Timeout(timeout)

	if err := page.SetDocumentContent(content); err != nil {
		page.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := page.WaitLoad(); err != nil {
		page.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	return page, nil
}
