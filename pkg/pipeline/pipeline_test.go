package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/planestack/pkg/cache"
	"github.com/matzehuels/planestack/pkg/errors"
	"github.com/matzehuels/planestack/pkg/scenario"
	"github.com/matzehuels/planestack/pkg/snapshot"
)

const dialog = `
name = "dialog"

[terminal]
rows = 12
cols = 40

[[step]]
op = "create"
plane = "dialog"
y = 2
x = 4
rows = 6
cols = 20

[[step]]
op = "create"
plane = "ok"
parent = "dialog"
y = 4
x = 2
rows = 1
cols = 4

[[step]]
op = "check"
`

func newTestRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(io.Discard))
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		formats []string
		wantErr bool
	}{
		{[]string{"text"}, false},
		{[]string{"json", "dot", "svg", "png"}, false},
		{nil, false},
		{[]string{"text", "pdf"}, true},
		{[]string{"SVG"}, true},
		{[]string{""}, true},
	}

	for _, tt := range tests {
		err := ValidateFormats(tt.formats)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"path", Options{Path: "a.toml"}, ""},
		{"source", Options{Source: []byte(dialog)}, ""},
		{"script", Options{Script: &scenario.Script{}}, ""},
		{"nothing", Options{}, errors.ErrCodeInvalidInput},
		{"two sources", Options{Path: "a.toml", Source: []byte(dialog)}, errors.ErrCodeInvalidInput},
		{"negative rows", Options{Path: "a.toml", Rows: -1}, errors.ErrCodeInvalidInput},
		{"bad identity", Options{Path: "a.toml", Identity: "random"}, errors.ErrCodeInvalidInput},
		{"bad format", Options{Path: "a.toml", Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if got := errors.GetCode(err); got != tt.code {
				t.Fatalf("ValidateAndSetDefaults() error = %v, want code %q", err, tt.code)
			}
			if err != nil {
				return
			}
			if tt.opts.Identity != IdentityUUID {
				t.Errorf("Identity = %q, want %q", tt.opts.Identity, IdentityUUID)
			}
			if len(tt.opts.Formats) != 1 || tt.opts.Formats[0] != FormatText {
				t.Errorf("Formats = %v, want [text]", tt.opts.Formats)
			}
			if tt.opts.Logger == nil {
				t.Error("Logger should default to a discard logger")
			}
		})
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{"text": "txt", "json": "json", "svg": "svg", "other": "other"}
	for format, want := range tests {
		if got := Extension(format); got != want {
			t.Errorf("Extension(%q) = %q, want %q", format, got, want)
		}
	}
}

func TestExecute(t *testing.T) {
	r := newTestRunner(nil)
	res, err := r.Execute(context.Background(), Options{
		Source:   []byte(dialog),
		Identity: IdentitySequential,
		Formats:  []string{"text", "json", "dot"},
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if res.Stats.Steps != 3 || res.Stats.Planes != 3 || res.Stats.Findings != 0 {
		t.Errorf("Stats = %+v, want 3 steps, 3 planes, 0 findings", res.Stats)
	}
	if rows, cols := res.Context.StdDim(); rows != 12 || cols != 40 {
		t.Errorf("StdDim() = %d,%d, want 12,40", rows, cols)
	}
	if res.CacheInfo.RenderHit {
		t.Error("RenderHit should be false without graphviz formats")
	}

	text := string(res.Artifacts["text"])
	for _, want := range []string{
		"plane stack debug state",
		"0000 off y:   6 x:   6 geom y:   1 x:   4 curs y:   0 x:   0     p0002\n",
		" bound to p0001, next bound (nil), bind p0002\n",
		"std p0000\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text artifact missing %q:\n%s", want, text)
		}
	}

	snap, err := snapshot.ReadJSON(bytes.NewReader(res.Artifacts["json"]))
	if err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if len(snap.Planes) != 3 || len(snap.Findings) != 0 {
		t.Errorf("snapshot has %d planes, %d findings", len(snap.Planes), len(snap.Findings))
	}

	var decoded map[string]any
	if err := json.Unmarshal(res.Artifacts["json"], &decoded); err != nil {
		t.Errorf("json artifact is not valid JSON: %v", err)
	}

	if !strings.HasPrefix(string(res.Artifacts["dot"]), "digraph planes {") {
		t.Errorf("dot artifact = %q", res.Artifacts["dot"])
	}
}

func TestExecuteTerminalOverride(t *testing.T) {
	res, err := newTestRunner(nil).Execute(context.Background(), Options{
		Source: []byte(dialog),
		Rows:   30,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if rows, cols := res.Context.StdDim(); rows != 30 || cols != 40 {
		t.Errorf("StdDim() = %d,%d, want 30,40", rows, cols)
	}
}

func TestExecuteStepMismatch(t *testing.T) {
	src := dialog + `
[[step]]
op = "bind"
plane = "dialog"
parent = "ok"
`
	res, err := newTestRunner(nil).Execute(context.Background(), Options{
		Source:   []byte(src),
		Identity: IdentitySequential,
	})

	var stepErr *scenario.StepError
	if !stderrors.As(err, &stepErr) {
		t.Fatalf("Execute() error = %v, want *scenario.StepError", err)
	}
	if stepErr.Index != 3 {
		t.Errorf("StepError.Index = %d, want 3", stepErr.Index)
	}
	if res == nil || res.Report == nil || len(res.Artifacts["text"]) == 0 {
		t.Fatal("result should still carry the report and artifacts")
	}
	if !res.Report.OK() {
		t.Errorf("failed bind should leave a consistent stack: %+v", res.Report.Findings)
	}
}

func TestExecuteLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing file", Options{Path: "testdata/nope.toml"}, errors.ErrCodeFileNotFound},
		{"bad toml", Options{Source: []byte("[[step]\n")}, errors.ErrCodeInvalidScenario},
		{"bad step", Options{Source: []byte("[[step]]\nop = \"fly\"\n")}, errors.ErrCodeInvalidScenario},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestRunner(nil).Execute(context.Background(), tt.opts)
			if err == nil || res != nil {
				t.Fatalf("Execute() = %v, %v; want error", res, err)
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %s, want %s (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestExecuteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestRunner(nil).Execute(ctx, Options{Source: []byte(dialog)}); !stderrors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestRenderUsesCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(fc)
	opts := Options{Source: []byte(dialog), Identity: IdentitySequential, Formats: []string{"dot"}}

	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	// Seed the svg entry for this DOT source so no Graphviz run is needed.
	key := r.Keyer.ArtifactKey(cache.Hash(res.Artifacts["dot"]), cache.ArtifactKeyOpts{Format: "svg"})
	if err := fc.Set(context.Background(), key, []byte("<svg/>"), cache.TTLArtifact); err != nil {
		t.Fatal(err)
	}

	arts, hit, err := r.RenderWithCacheInfo(context.Background(), res.Context, res.Report, Options{
		Source:  opts.Source,
		Formats: []string{"svg", "text"},
	})
	if err != nil {
		t.Fatalf("RenderWithCacheInfo() error: %v", err)
	}
	if !hit {
		t.Error("RenderWithCacheInfo() hit = false, want true")
	}
	if string(arts["svg"]) != "<svg/>" {
		t.Errorf("svg artifact = %q, want cached value", arts["svg"])
	}
	if len(arts["text"]) == 0 {
		t.Error("text artifact should be rendered alongside cached svg")
	}
}

func TestExamples(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "*.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no example scenarios found")
	}

	r := newTestRunner(nil)
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			res, err := r.Execute(context.Background(), Options{
				Path:     path,
				Identity: IdentitySequential,
				Formats:  []string{"text", "json", "dot"},
			})
			if err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			if !res.Report.OK() {
				t.Errorf("findings: %+v", res.Report.Findings)
			}
			for i, rep := range res.Playback.Reports() {
				if !rep.OK() {
					t.Errorf("check step %d findings: %+v", i+1, rep.Findings)
				}
			}
		})
	}
}
