package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/csites/osm2svg4opcd/pkg/cache"
	"github.com/csites/osm2svg4opcd/pkg/observability"
	"github.com/csites/osm2svg4opcd/pkg/svg"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store stage results. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete convert → smooth → outset → compose pipeline
// with per-stage caching.
func (r *Runner) Execute(ctx context.Context, data []byte, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		InputHash: cache.Hash(data),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Convert
	convertStart := time.Now()
	observability.Stage().OnStageStart(ctx, StageConvert, 0)
	doc, warnings, convertHit, err := r.ConvertWithCacheInfo(ctx, data, opts)
	observability.Stage().OnStageComplete(ctx, StageConvert, featureCount(doc), time.Since(convertStart), err)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	result.Warnings = warnings
	result.Stats.ConvertTime = time.Since(convertStart)
	result.Stats.FeatureCount = len(doc.Features)
	result.CacheInfo.ConvertHit = convertHit
	result.Artifacts[StageConvert] = encodeDocument(doc)

	r.Logger.Info("converted map features",
		"features", len(doc.Features),
		"warnings", len(warnings),
		"duration", result.Stats.ConvertTime)

	// Stage 2: Smooth
	smoothStart := time.Now()
	observability.Stage().OnStageStart(ctx, StageSmooth, len(doc.Features))
	doc, smoothWarnings, smoothHit := r.SmoothWithCacheInfo(ctx, doc, opts)
	observability.Stage().OnStageComplete(ctx, StageSmooth, len(doc.Features), time.Since(smoothStart), nil)
	result.Warnings = append(result.Warnings, smoothWarnings...)
	result.Stats.SmoothTime = time.Since(smoothStart)
	result.CacheInfo.SmoothHit = smoothHit
	result.Artifacts[StageSmooth] = encodeDocument(doc)

	r.Logger.Info("fitted curves",
		"tightness", opts.Tightness,
		"warnings", len(smoothWarnings),
		"duration", result.Stats.SmoothTime)

	// Stage 3: Outset
	outsetStart := time.Now()
	observability.Stage().OnStageStart(ctx, StageOutset, len(doc.Features))
	doc, outsetWarnings, outsetHit := r.OutsetWithCacheInfo(ctx, doc, opts)
	observability.Stage().OnStageComplete(ctx, StageOutset, len(doc.Features), time.Since(outsetStart), nil)
	result.Warnings = append(result.Warnings, outsetWarnings...)
	result.Stats.OutsetTime = time.Since(outsetStart)
	result.CacheInfo.OutsetHit = outsetHit
	result.Artifacts[StageOutset] = encodeDocument(doc)

	r.Logger.Info("applied outset correction",
		"warnings", len(outsetWarnings),
		"duration", result.Stats.OutsetTime)

	// Stage 4: Compose
	composeStart := time.Now()
	observability.Stage().OnStageStart(ctx, StageCompose, len(doc.Features))
	doc, dropped, composeHit, err := r.ComposeWithCacheInfo(ctx, doc, opts)
	observability.Stage().OnStageComplete(ctx, StageCompose, featureCount(doc), time.Since(composeStart), err)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	result.Dropped = dropped
	result.Stats.ComposeTime = time.Since(composeStart)
	result.CacheInfo.ComposeHit = composeHit

	r.Logger.Info("composited layers",
		"features", len(doc.Features),
		"dropped", len(dropped),
		"duration", result.Stats.ComposeTime)

	// The run id is stamped on the final document only, so cached stage
	// artifacts stay byte-identical across runs.
	doc.RunID = opts.RunID
	result.Document = doc
	result.Artifacts[StageCompose] = encodeDocument(doc)

	return result, nil
}

// ConvertWithCacheInfo runs the convert stage with caching and returns cache
// hit info. Warnings are only available on a cache miss; the cached artifact
// does not carry them.
func (r *Runner) ConvertWithCacheInfo(ctx context.Context, data []byte, opts Options) (*svg.Document, []string, bool, error) {
	if err := opts.ValidateForConvert(); err != nil {
		return nil, nil, false, err
	}
	r.applyLogger(&opts)

	cacheKey := r.Keyer.StageKey(StageConvert, cache.Hash(data), opts.ConvertKeyOpts())

	if doc, hit := r.cachedDocument(ctx, cacheKey, StageConvert, opts.Refresh); hit {
		return doc, nil, true, nil
	}

	doc, warnings, err := Convert(data, opts)
	if err != nil {
		return nil, nil, false, err
	}

	r.storeDocument(ctx, cacheKey, StageConvert, opts.Refresh, doc)

	return doc, warnings, false, nil // Cache miss
}

// Convert is a convenience wrapper that discards the cache hit info.
func (r *Runner) Convert(ctx context.Context, data []byte, opts Options) (*svg.Document, []string, error) {
	doc, warnings, _, err := r.ConvertWithCacheInfo(ctx, data, opts)
	return doc, warnings, err
}

// SmoothWithCacheInfo runs the smooth stage with caching and returns cache
// hit info. Warnings are only available on a cache miss.
func (r *Runner) SmoothWithCacheInfo(ctx context.Context, doc *svg.Document, opts Options) (*svg.Document, []string, bool) {
	opts.SetSmoothDefaults()
	r.applyLogger(&opts)

	input := encodeDocument(doc)
	cacheKey := r.Keyer.StageKey(StageSmooth, cache.Hash(input), opts.SmoothKeyOpts())

	if out, hit := r.cachedDocument(ctx, cacheKey, StageSmooth, opts.Refresh); hit {
		return out, nil, true
	}

	out, warnings := Smooth(doc, opts)

	r.storeDocument(ctx, cacheKey, StageSmooth, opts.Refresh, out)

	return out, warnings, false // Cache miss
}

// Smooth is a convenience wrapper that discards the cache hit info.
func (r *Runner) Smooth(ctx context.Context, doc *svg.Document, opts Options) (*svg.Document, []string) {
	out, warnings, _ := r.SmoothWithCacheInfo(ctx, doc, opts)
	return out, warnings
}

// OutsetWithCacheInfo runs the outset stage with caching and returns cache
// hit info. Warnings are only available on a cache miss.
func (r *Runner) OutsetWithCacheInfo(ctx context.Context, doc *svg.Document, opts Options) (*svg.Document, []string, bool) {
	opts.SetOutsetDefaults()
	r.applyLogger(&opts)

	input := encodeDocument(doc)
	cacheKey := r.Keyer.StageKey(StageOutset, cache.Hash(input), opts.OutsetKeyOpts())

	if out, hit := r.cachedDocument(ctx, cacheKey, StageOutset, opts.Refresh); hit {
		return out, nil, true
	}

	out, warnings := Outset(doc, opts)

	r.storeDocument(ctx, cacheKey, StageOutset, opts.Refresh, out)

	return out, warnings, false // Cache miss
}

// Outset is a convenience wrapper that discards the cache hit info.
func (r *Runner) Outset(ctx context.Context, doc *svg.Document, opts Options) (*svg.Document, []string) {
	out, warnings, _ := r.OutsetWithCacheInfo(ctx, doc, opts)
	return out, warnings
}

// ComposeWithCacheInfo runs the compose stage with caching and returns cache
// hit info. Dropped feature ids are only available on a cache miss.
func (r *Runner) ComposeWithCacheInfo(ctx context.Context, doc *svg.Document, opts Options) (*svg.Document, []string, bool, error) {
	opts.SetComposeDefaults()
	r.applyLogger(&opts)

	input := encodeDocument(doc)
	cacheKey := r.Keyer.StageKey(StageCompose, cache.Hash(input), opts.ComposeKeyOpts())

	if out, hit := r.cachedDocument(ctx, cacheKey, StageCompose, opts.Refresh); hit {
		return out, nil, true, nil
	}

	out, dropped, err := Compose(doc, opts)
	if err != nil {
		return nil, nil, false, err
	}

	r.storeDocument(ctx, cacheKey, StageCompose, opts.Refresh, out)

	return out, dropped, false, nil // Cache miss
}

// Compose is a convenience wrapper that discards the cache hit info.
func (r *Runner) Compose(ctx context.Context, doc *svg.Document, opts Options) (*svg.Document, []string, error) {
	out, dropped, _, err := r.ComposeWithCacheInfo(ctx, doc, opts)
	return out, dropped, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// cachedDocument tries the cache for a stage artifact. Refresh skips the
// lookup entirely so a forced recomputation never reports a hit.
func (r *Runner) cachedDocument(ctx context.Context, key, stage string, refresh bool) (*svg.Document, bool) {
	if refresh {
		return nil, false
	}
	cached, hit, err := r.Cache.Get(ctx, key)
	if err == nil && hit {
		if doc, err := svg.Read(bytes.NewReader(cached)); err == nil {
			observability.Cache().OnCacheHit(ctx, stage)
			return doc, true
		}
	}
	observability.Cache().OnCacheMiss(ctx, stage)
	return nil, false
}

// storeDocument writes a freshly computed stage artifact to the cache.
// Refresh skips the write so a bypassed run does not overwrite entries.
func (r *Runner) storeDocument(ctx context.Context, key, stage string, refresh bool, doc *svg.Document) {
	if refresh {
		return
	}
	data := encodeDocument(doc)
	if err := r.Cache.Set(ctx, key, data, cache.TTLStage); err == nil {
		observability.Cache().OnCacheSet(ctx, stage, len(data))
	}
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// featureCount is nil-safe for stages that can fail.
func featureCount(doc *svg.Document) int {
	if doc == nil {
		return 0
	}
	return len(doc.Features)
}

// encodeDocument serializes a document for caching and artifact output.
// Writing to an in-memory buffer cannot fail.
func encodeDocument(doc *svg.Document) []byte {
	var buf bytes.Buffer
	_ = svg.Write(&buf, doc)
	return buf.Bytes()
}
