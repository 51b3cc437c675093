// Package diagram renders diagram source text to raster images, one
// diagram at a time.
//
// Rendering is memory-heavy: each render allocates a drawing surface
// sized to the diagram before producing a bitmap. The Coordinator
// therefore processes diagrams strictly sequentially with an explicit
// yield between items, so a released surface can be reclaimed before the
// next one is allocated. A batch of N sources always produces exactly N
// results in input order; individual failures never abort the batch and
// never escape as panics.
package diagram

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"runtime"

	"go.uber.org/zap"
)

// Sentinel errors for diagram rendering.
var (
	ErrCompile   = errors.New("diagram compilation failed")
	ErrRasterize = errors.New("diagram rasterization failed")
	ErrNoBackend = errors.New("no rendering backend configured")
)

// Fallback intrinsic dimensions used when the compiled vector does not
// declare parsable dimensions.
const (
	FallbackWidth  = 800
	FallbackHeight = 600
)

// DefaultMaxRasterDim is the default single-axis pixel ceiling for the
// rasterization surface. It tracks the common canvas/texture limit of
// browser rendering targets.
const DefaultMaxRasterDim = 4096

// TooLargeError reports a diagram whose intrinsic dimensions exceed the
// raster ceiling. It is a rendering failure subtype: the offending
// diagram degrades to a placeholder, the batch continues.
type TooLargeError struct {
	Width  int
	Height int
	Limit  int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("diagram dimensions %dx%d exceed the maximum raster dimension %d",
		e.Width, e.Height, e.Limit)
}

// Vector is a compiled diagram: vector image data plus the intrinsic
// pixel dimensions read from it. Zero or negative dimensions mean the
// backend could not determine them. Ref is an opaque backend-specific
// reference carried unchanged from Compile to Rasterize.
type Vector struct {
	Data   []byte
	Width  int
	Height int
	Ref    string
}

// Backend compiles diagram source to a vector image and rasterizes a
// compiled vector to a bitmap. Implementations are opaque collaborators;
// all sequencing and size-limit policy lives in the Coordinator.
type Backend interface {
	Compile(ctx context.Context, source string) (*Vector, error)
	Rasterize(ctx context.Context, v *Vector) ([]byte, error)
	Close() error
}

// Result is the outcome of rendering one diagram. Exactly one Result is
// produced per input source, in input order. On success Image holds the
// raster bytes and Width/Height the intrinsic dimensions used to produce
// it; on failure Err holds the reason.
type Result struct {
	OK         bool
	Image      []byte
	Width      int
	Height     int
	SourceHash uint64
	Err        error
}

// SourceHash returns the FNV-64a hash of a diagram source. Results carry
// it so a consumer can verify that a positionally-consumed result really
// belongs to the fence it is about to replace.
func SourceHash(source string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(source))
	return h.Sum64()
}

// ProgressFunc observes per-diagram completion during RenderAll.
// index is the 0-based position of the finished diagram.
type ProgressFunc func(index int, total int, r Result)

// Coordinator owns rendering policy: one diagram at a time, a raster-cap
// check between the compile and rasterize phases, and per-item failure
// isolation.
type Coordinator struct {
	backend Backend
	maxDim  int
	logger  *zap.Logger
}

// NewCoordinator creates a Coordinator around backend. maxDim <= 0
// selects DefaultMaxRasterDim; a nil logger disables logging.
func NewCoordinator(backend Backend, maxDim int, logger *zap.Logger) *Coordinator {
	if maxDim <= 0 {
		maxDim = DefaultMaxRasterDim
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{backend: backend, maxDim: maxDim, logger: logger}
}

// RenderOne renders a single diagram. It never panics and never returns
// an error out-of-band: every failure mode is captured in the Result.
func (c *Coordinator) RenderOne(ctx context.Context, source, id string) (res Result) {
	res.SourceHash = SourceHash(source)

	// Backends are external collaborators; a panic in one must degrade to
	// a per-diagram failure, not take down the export.
	defer func() {
		if r := recover(); r != nil {
			res.OK = false
			res.Image = nil
			res.Err = fmt.Errorf("%w: panic in backend: %v", ErrRasterize, r)
		}
	}()

	if c.backend == nil {
		res.Err = ErrNoBackend
		return res
	}

	vec, err := c.backend.Compile(ctx, source)
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrCompile, err)
		c.logger.Debug("diagram compile failed", zap.String("id", id), zap.Error(err))
		return res
	}

	width, height := vec.Width, vec.Height
	if width <= 0 || height <= 0 {
		width, height = FallbackWidth, FallbackHeight
	}

	if width > c.maxDim || height > c.maxDim {
		res.Err = &TooLargeError{Width: width, Height: height, Limit: c.maxDim}
		c.logger.Debug("diagram exceeds raster cap",
			zap.String("id", id), zap.Int("width", width), zap.Int("height", height),
			zap.Int("limit", c.maxDim))
		return res
	}

	sized := &Vector{Data: vec.Data, Width: width, Height: height, Ref: vec.Ref}
	img, err := c.backend.Rasterize(ctx, sized)
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrRasterize, err)
		c.logger.Debug("diagram rasterize failed", zap.String("id", id), zap.Error(err))
		return res
	}

	res.OK = true
	res.Image = img
	res.Width = width
	res.Height = height
	return res
}

// RenderAll renders sources strictly one at a time, yielding the
// scheduler between items so the previous surface can be reclaimed
// before the next allocation. It returns exactly len(sources) results in
// input order. Cancellation takes effect between renders, never
// mid-render; remaining items are marked failed with the context error.
func (c *Coordinator) RenderAll(ctx context.Context, sources []string, onProgress ProgressFunc) []Result {
	results := make([]Result, len(sources))
	for i, source := range sources {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(sources); j++ {
				results[j] = Result{SourceHash: SourceHash(sources[j]), Err: err}
			}
			return results
		}

		if i > 0 {
			// Yield point between renders: backpressure for peak memory.
			runtime.Gosched()
		}

		results[i] = c.RenderOne(ctx, source, fmt.Sprintf("diagram-%d", i+1))
		c.logger.Info("diagram rendered",
			zap.Int("index", i), zap.Int("total", len(sources)),
			zap.Bool("ok", results[i].OK))
		if onProgress != nil {
			onProgress(i, len(sources), results[i])
		}
	}
	return results
}
