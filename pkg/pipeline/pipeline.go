// Package pipeline provides the scenario pipeline for planestack.
//
// This package implements the complete load → play → validate → render
// pipeline used by the CLI commands and the debug server. By centralizing
// this logic, every entry point builds contexts, plays scenarios and names
// artifacts the same way.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Parse and statically validate a scenario file
//  2. Play: Apply the scenario's steps to a fresh plane context
//  3. Validate: Walk the final stack and collect findings
//  4. Render: Produce artifacts (text dump, JSON snapshot, DOT, SVG, PNG)
//
// Graphviz renders are cached by the hash of their DOT source.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "popup.toml",
//	    Formats: []string{"text", "svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/planestack/pkg/cache"
	"github.com/matzehuels/planestack/pkg/errors"
	"github.com/matzehuels/planestack/pkg/plane"
	"github.com/matzehuels/planestack/pkg/scenario"
)

// Format constants for output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// Identity modes.
const (
	IdentityUUID       = "uuid"
	IdentitySequential = "sequential"
)

// DefaultFormats is used when no format is requested.
var DefaultFormats = []string{FormatText}

// extensions maps formats to file extensions.
var extensions = map[string]string{
	FormatText: "txt",
	FormatJSON: "json",
	FormatDOT:  "dot",
	FormatSVG:  "svg",
	FormatPNG:  "png",
}

// Extension returns the file extension for format.
func Extension(format string) string {
	if ext, ok := extensions[format]; ok {
		return ext
	}
	return format
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run. Exactly one of
// Path, Source and Script names the scenario.
type Options struct {
	Path   string           `json:"path,omitempty"`
	Source []byte           `json:"-"`
	Script *scenario.Script `json:"-"`

	// Rows and Cols override the scenario's terminal when positive.
	Rows int `json:"rows,omitempty"`
	Cols int `json:"cols,omitempty"`

	// Identity selects identity tokens: uuid (default) or sequential.
	Identity string `json:"identity,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Stack    bool     `json:"stack,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"` // bypass the artifact cache

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Script   *scenario.Script
	Context  *plane.Context
	Playback *scenario.Playback

	// Report is the validator report for the final stack.
	Report *plane.Report

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Steps        int
	Planes       int
	Findings     int
	PlayTime     time.Duration
	ValidateTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	RenderHit bool // Whether every Graphviz artifact came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := errors.ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateIdentity checks an identity mode.
func ValidateIdentity(mode string) error {
	switch mode {
	case "", IdentityUUID, IdentitySequential:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "invalid identity: %q (must be one of: uuid, sequential)", mode)
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	n := 0
	for _, set := range []bool{o.Path != "", o.Source != nil, o.Script != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return errors.New(errors.ErrCodeInvalidInput, "exactly one of path, source or script is required")
	}
	if o.Rows < 0 || o.Cols < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "terminal geometry must not be negative")
	}
	if err := ValidateIdentity(o.Identity); err != nil {
		return err
	}
	if o.Identity == "" {
		o.Identity = IdentityUUID
	}
	if len(o.Formats) == 0 {
		o.Formats = DefaultFormats
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ArtifactKeyOpts returns cache key options for a Graphviz artifact.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
		Stack:    o.Stack,
	}
}

// NewContext creates the plane context for script, honoring the terminal
// override, the identity mode and the logger.
func (o *Options) NewContext(script *scenario.Script) (*plane.Context, error) {
	rows, cols := script.Dims()
	if o.Rows > 0 {
		rows = o.Rows
	}
	if o.Cols > 0 {
		cols = o.Cols
	}
	opts := []plane.Option{plane.WithLogger(o.Logger)}
	if o.Identity == IdentitySequential {
		opts = append(opts, plane.WithIdentity(plane.SequentialIdentity()))
	}
	c, err := plane.New(rows, cols, opts...)
	if err != nil {
		return nil, fmt.Errorf("terminal: %w", scenario.Classify(err))
	}
	return c, nil
}
