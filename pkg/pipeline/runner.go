package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/planestack/pkg/cache"
	"github.com/matzehuels/planestack/pkg/observability"
	"github.com/matzehuels/planestack/pkg/plane"
	"github.com/matzehuels/planestack/pkg/scenario"
)

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the debug server use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, artifacts are rendered on every call.
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

// Execute runs the complete load → play → validate → render pipeline.
//
// When a step does not behave as the scenario expects, Execute still
// validates and renders the context as that step left it, and returns the
// result together with the [*scenario.StepError].
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	// Stage 1: Load
	script, err := r.Load(opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result := &Result{
		Script:    script,
		Artifacts: make(map[string][]byte),
	}

	c, err := opts.NewContext(script)
	if err != nil {
		return nil, err
	}
	result.Context = c

	// Stage 2: Play
	playStart := time.Now()
	pb, playErr := scenario.Play(ctx, script, c)
	result.Playback = pb
	result.Stats.Steps = len(pb.Results)
	result.Stats.PlayTime = time.Since(playStart)
	var stepErr *scenario.StepError
	if playErr != nil && !stderrors.As(playErr, &stepErr) {
		return nil, fmt.Errorf("play: %w", playErr)
	}

	r.Logger.Info("played scenario",
		"name", script.Name,
		"steps", result.Stats.Steps,
		"duration", result.Stats.PlayTime)

	// Stage 3: Validate
	validateStart := time.Now()
	result.Report = r.Validate(ctx, c)
	result.Stats.Planes = len(result.Report.Entries)
	result.Stats.Findings = len(result.Report.Findings)
	result.Stats.ValidateTime = time.Since(validateStart)

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, c, result.Report, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	if stepErr != nil {
		return result, stepErr
	}
	return result, nil
}

// Load reads the scenario named by opts.
func (r *Runner) Load(opts Options) (*scenario.Script, error) {
	switch {
	case opts.Script != nil:
		if err := scenario.Validate(opts.Script); err != nil {
			return nil, err
		}
		return opts.Script, nil
	case opts.Source != nil:
		return scenario.Parse(opts.Source)
	default:
		return scenario.Load(opts.Path)
	}
}

// Validate walks the stack of c and reports the walk to the validate hooks.
func (r *Runner) Validate(ctx context.Context, c *plane.Context) *plane.Report {
	start := time.Now()
	report := c.Validate()
	observability.Validate().OnValidate(ctx, len(report.Entries), len(report.Findings), time.Since(start))
	if !report.OK() {
		r.Logger.Warn("plane stack is inconsistent", "findings", len(report.Findings))
	}
	return report
}

// RenderWithCacheInfo generates artifacts and returns cache hit info.
// Only Graphviz output is cached; it is keyed by the hash of the DOT source,
// so any change to the stack or the render options is a miss.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, c *plane.Context, report *plane.Report, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)

	artifacts, hit, err := r.render(ctx, c, report, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	return artifacts, hit, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, c *plane.Context, report *plane.Report, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, c, report, opts)
	return artifacts, err
}

func (r *Runner) render(ctx context.Context, c *plane.Context, report *plane.Report, opts Options) (map[string][]byte, bool, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	var dotSrc string
	graphviz, hits := 0, 0

	for _, format := range opts.Formats {
		if _, done := artifacts[format]; done {
			continue
		}
		if !needsGraphviz(format) {
			data, err := renderPlain(c, report, format, opts)
			if err != nil {
				return nil, false, err
			}
			artifacts[format] = data
			continue
		}

		graphviz++
		if dotSrc == "" {
			dotSrc = toDOT(c, report, opts)
		}
		key := r.Keyer.ArtifactKey(cache.Hash([]byte(dotSrc)), opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				hits++
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}

		data, err := renderGraphviz(ctx, dotSrc, format)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			r.Logger.Warn("failed to cache artifact", "format", format, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return artifacts, graphviz > 0 && hits == graphviz, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
