package scenario

import (
	"context"
	stderrors "errors"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/planestack/pkg/errors"
	"github.com/matzehuels/planestack/pkg/observability"
	"github.com/matzehuels/planestack/pkg/plane"
)

func newContext(t *testing.T, s *Script) *plane.Context {
	t.Helper()
	rows, cols := s.Dims()
	c, err := plane.New(rows, cols,
		plane.WithIdentity(plane.SequentialIdentity()),
		plane.WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func mustParse(t *testing.T, src string) *Script {
	t.Helper()
	s, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return s
}

func TestPlayPopup(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "popup.toml"))
	if err != nil {
		t.Fatal(err)
	}
	c := newContext(t, s)

	pb, err := Play(context.Background(), s, c)
	if err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if len(pb.Results) != len(s.Steps) {
		t.Errorf("played %d steps, want %d", len(pb.Results), len(s.Steps))
	}
	if !errors.Is(pb.Results[4].Err, errors.ErrCodeInvalidBinding) {
		t.Errorf("bind step error = %v, want INVALID_BINDING", pb.Results[4].Err)
	}

	reports := pb.Reports()
	if len(reports) != 1 || !reports[0].OK() || len(reports[0].Entries) != 4 {
		t.Fatalf("reports = %+v", reports)
	}

	if _, ok := c.Lookup("item1"); ok {
		t.Error("item1 should be destroyed")
	}
	menu, _ := c.Lookup("menu")
	item2, _ := c.Lookup("item2")
	tip, _ := c.Lookup("tip")
	if got := c.Children(menu); !slices.Equal(got, []plane.Handle{item2}) {
		t.Errorf("Children(menu) = %v, want [item2]", got)
	}
	if p, _ := c.Plane(item2); p.AbsY != 5 || p.AbsX != 5 {
		t.Errorf("item2 abs = %d,%d, want 5,5", p.AbsY, p.AbsX)
	}
	if c.Bottom() != tip {
		t.Errorf("Bottom() = %v, want tip", c.Bottom())
	}
}

func TestPlayStopsOnUnexpectedOutcome(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		played  int
		wantMsg string
		cause   error
	}{
		{
			name:    "unexpected failure",
			src:     "[[step]]\nop = \"create\"\nplane = \"a\"\nrows = 1\ncols = 1\n[[step]]\nop = \"bind\"\nplane = \"a\"\nparent = \"a\"\n[[step]]\nop = \"check\"\n",
			played:  2,
			wantMsg: "step 2 (bind): INVALID_BINDING",
			cause:   plane.ErrSelfBinding,
		},
		{
			name:    "unexpected success",
			src:     "[[step]]\nop = \"raise\"\nplane = \"std\"\nexpect = \"STD_PLANE\"\n",
			played:  1,
			wantMsg: "step 1 (raise): expected STD_PLANE, got success",
		},
		{
			name:    "wrong code",
			src:     "[[step]]\nop = \"move\"\nplane = \"std\"\nexpect = \"UNKNOWN_PLANE\"\n",
			played:  1,
			wantMsg: "step 1 (move): expected UNKNOWN_PLANE, got STD_PLANE",
			cause:   plane.ErrStdPlane,
		},
		{
			name:    "unknown name",
			src:     "[[step]]\nop = \"destroy\"\nplane = \"ghost\"\n",
			played:  1,
			wantMsg: `plane "ghost"`,
			cause:   plane.ErrUnknownPlane,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustParse(t, tt.src)
			pb, err := Play(context.Background(), s, newContext(t, s))

			var se *StepError
			if !stderrors.As(err, &se) {
				t.Fatalf("Play() error = %v, want *StepError", err)
			}
			if len(pb.Results) != tt.played || se.Index != tt.played-1 {
				t.Errorf("played %d steps, failed at %d", len(pb.Results), se.Index)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantMsg)
			}
			if tt.cause != nil && !stderrors.Is(err, tt.cause) {
				t.Errorf("error does not wrap %v", tt.cause)
			}
		})
	}
}

func TestPlayCanceled(t *testing.T) {
	s := mustParse(t, "[[step]]\nop = \"check\"\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pb, err := Play(ctx, s, newContext(t, s))
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("Play() error = %v, want context.Canceled", err)
	}
	if len(pb.Results) != 0 {
		t.Errorf("played %d steps after cancel", len(pb.Results))
	}
}

func TestApplyEveryOp(t *testing.T) {
	s := &Script{}
	c := newContext(t, s)
	ctx := context.Background()

	steps := []Step{
		{Op: OpCreate, Plane: "a", Rows: 4, Cols: 4},
		{Op: OpCreate, Plane: "b", Rows: 2, Cols: 2, Parent: "a", Y: 1, X: 1},
		{Op: OpCreate, Plane: "c", Rows: 1, Cols: 1},
		{Op: OpMove, Plane: "a", Y: 2, X: 2},
		{Op: OpResize, Plane: "b", Rows: 3, Cols: 3},
		{Op: OpCursor, Plane: "b", Y: 2, X: 2},
		{Op: OpHome, Plane: "b"},
		{Op: OpUnbind, Plane: "b"},
		{Op: OpBind, Plane: "b", Parent: "c"},
		{Op: OpRebind, Plane: "b", Parent: "a"},
		{Op: OpRaise, Plane: "a"},
		{Op: OpLower, Plane: "a"},
		{Op: OpAbove, Plane: "c", Target: "std"},
		{Op: OpBelow, Plane: "b", Target: "std"},
		{Op: OpCheck},
		{Op: OpDestroy, Plane: "c"},
		{Op: OpDrop},
	}
	for i, st := range steps {
		res := Apply(ctx, c, st)
		if res.Err != nil {
			t.Fatalf("step %d (%s): %v", i, st, res.Err)
		}
		if st.Op == OpCheck && (res.Report == nil || !res.Report.OK()) {
			t.Fatalf("check report = %+v", res.Report)
		}
	}
	if c.Len() != 1 {
		t.Errorf("Len() after drop = %d, want 1", c.Len())
	}

	_ = c.Close()
	if res := Apply(ctx, c, Step{Op: OpDrop}); !errors.Is(res.Err, errors.ErrCodeClosed) {
		t.Errorf("drop after close error = %v, want CONTEXT_CLOSED", res.Err)
	}
	if res := Apply(ctx, c, Step{Op: OpRaise, Plane: "std"}); !errors.Is(res.Err, errors.ErrCodeClosed) {
		t.Errorf("raise after close error = %v, want CONTEXT_CLOSED", res.Err)
	}
}

type countingHooks struct {
	observability.NoopScenarioHooks
	steps    int
	failures int
	complete bool
}

func (h *countingHooks) OnStep(_ context.Context, _ int, _ string, _ time.Duration, err error) {
	h.steps++
	if err != nil {
		h.failures++
	}
}

func (h *countingHooks) OnPlayComplete(context.Context, string, int, time.Duration, error) {
	h.complete = true
}

func TestPlayHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetScenarioHooks(hooks)
	defer observability.Reset()

	s := mustParse(t, "[[step]]\nop = \"check\"\n[[step]]\nop = \"raise\"\nplane = \"nope\"\n")
	_, _ = Play(context.Background(), s, newContext(t, s))

	if hooks.steps != 2 || hooks.failures != 1 || !hooks.complete {
		t.Errorf("hooks saw steps=%d failures=%d complete=%v", hooks.steps, hooks.failures, hooks.complete)
	}
}
