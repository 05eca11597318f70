package plane

import (
	"errors"
	"io"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/charmbracelet/log"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	c, err := New(24, 80, WithIdentity(SequentialIdentity()), WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func mustCreate(t *testing.T, c *Context, name string) Handle {
	t.Helper()
	h, err := c.Create(PlaneOptions{Rows: 2, Cols: 4, Name: name})
	if err != nil {
		t.Fatalf("Create(%q) error: %v", name, err)
	}
	return h
}

// walkDown follows Below from the top.
func walkDown(c *Context) []Handle {
	var out []Handle
	for h := c.Top(); h != None && len(out) <= c.Len(); h = c.Below(h) {
		out = append(out, h)
	}
	return out
}

// walkUp follows Above from the bottom.
func walkUp(c *Context) []Handle {
	var out []Handle
	for h := c.Bottom(); h != None && len(out) <= c.Len(); h = c.Above(h) {
		out = append(out, h)
	}
	return out
}

func assertStack(t *testing.T, c *Context, want ...Handle) {
	t.Helper()
	down := walkDown(c)
	if !slices.Equal(down, want) {
		t.Fatalf("stack top-down = %v, want %v", down, want)
	}
	up := walkUp(c)
	slices.Reverse(up)
	if !slices.Equal(up, want) {
		t.Fatalf("stack bottom-up reversed = %v, want %v", up, want)
	}
	if len(want) > 0 {
		if c.Top() != want[0] {
			t.Errorf("Top() = %v, want %v", c.Top(), want[0])
		}
		if c.Bottom() != want[len(want)-1] {
			t.Errorf("Bottom() = %v, want %v", c.Bottom(), want[len(want)-1])
		}
	}
}

func TestCreateInsertsAtTop(t *testing.T) {
	c := newTestContext(t)
	std := c.Std()
	assertStack(t, c, std)

	a := mustCreate(t, c, "a")
	b := mustCreate(t, c, "b")
	assertStack(t, c, b, a, std)

	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestUnlinkMiddle(t *testing.T) {
	c := newTestContext(t)
	cc := mustCreate(t, c, "c")
	b := mustCreate(t, c, "b")
	a := mustCreate(t, c, "a")

	if err := c.Destroy(b); err != nil {
		t.Fatalf("Destroy() error: %v", err)
	}
	assertStack(t, c, a, cc, c.Std())

	if c.Below(a) != cc {
		t.Errorf("a.Below = %v, want %v", c.Below(a), cc)
	}
	if c.Above(cc) != a {
		t.Errorf("c.Above = %v, want %v", c.Above(cc), a)
	}
}

func TestUnlinkEndpoints(t *testing.T) {
	c := newTestContext(t)
	a := mustCreate(t, c, "a")
	b := mustCreate(t, c, "b")

	if err := c.Destroy(b); err != nil {
		t.Fatalf("Destroy(top) error: %v", err)
	}
	assertStack(t, c, a, c.Std())

	if err := c.MoveBottom(a); err != nil {
		t.Fatalf("MoveBottom() error: %v", err)
	}
	if err := c.Destroy(a); err != nil {
		t.Fatalf("Destroy(bottom) error: %v", err)
	}
	assertStack(t, c, c.Std())
}

func TestReorder(t *testing.T) {
	c := newTestContext(t)
	std := c.Std()
	a := mustCreate(t, c, "a")
	b := mustCreate(t, c, "b")
	d := mustCreate(t, c, "d")
	// d b a std

	tests := []struct {
		name string
		op   func() error
		want []Handle
	}{
		{"move bottom", func() error { return c.MoveBottom(d) }, []Handle{b, a, std, d}},
		{"move top", func() error { return c.MoveTop(std) }, []Handle{std, b, a, d}},
		{"move above", func() error { return c.MoveAbove(d, b) }, []Handle{std, d, b, a}},
		{"move below", func() error { return c.MoveBelow(std, a) }, []Handle{d, b, a, std}},
		{"move above top", func() error { return c.MoveAbove(a, d) }, []Handle{a, d, b, std}},
		{"move below bottom", func() error { return c.MoveBelow(a, std) }, []Handle{d, b, std, a}},
		{"already above", func() error { return c.MoveAbove(d, b) }, []Handle{d, b, std, a}},
		{"top is top", func() error { return c.MoveTop(d) }, []Handle{d, b, std, a}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(); err != nil {
				t.Fatalf("error: %v", err)
			}
			assertStack(t, c, tt.want...)
		})
	}
}

func TestReorderErrors(t *testing.T) {
	c := newTestContext(t)
	a := mustCreate(t, c, "a")
	b := mustCreate(t, c, "b")

	if err := c.MoveAbove(a, a); !errors.Is(err, ErrSelfTarget) {
		t.Errorf("MoveAbove(a, a) error = %v, want ErrSelfTarget", err)
	}
	if err := c.MoveBelow(b, b); !errors.Is(err, ErrSelfTarget) {
		t.Errorf("MoveBelow(b, b) error = %v, want ErrSelfTarget", err)
	}
	if err := c.MoveTop(Handle(999)); !errors.Is(err, ErrUnknownPlane) {
		t.Errorf("MoveTop(unknown) error = %v, want ErrUnknownPlane", err)
	}
	if err := c.MoveAbove(a, None); !errors.Is(err, ErrUnknownPlane) {
		t.Errorf("MoveAbove(a, None) error = %v, want ErrUnknownPlane", err)
	}
	assertStack(t, c, b, a, c.Std())
}

func TestStackRandomOperations(t *testing.T) {
	c := newTestContext(t)
	rng := rand.New(rand.NewPCG(7, 11))
	live := []Handle{c.Std()}

	for i := range 500 {
		switch op := rng.IntN(6); {
		case op == 0 || len(live) < 3:
			h, err := c.Create(PlaneOptions{Rows: 1, Cols: 1})
			if err != nil {
				t.Fatalf("step %d: Create() error: %v", i, err)
			}
			live = append(live, h)
		case op == 1:
			j := 1 + rng.IntN(len(live)-1)
			if err := c.Destroy(live[j]); err != nil {
				t.Fatalf("step %d: Destroy() error: %v", i, err)
			}
			live = slices.Delete(live, j, j+1)
		case op == 2:
			_ = c.MoveTop(live[rng.IntN(len(live))])
		case op == 3:
			_ = c.MoveBottom(live[rng.IntN(len(live))])
		case op == 4:
			_ = c.MoveAbove(live[rng.IntN(len(live))], live[rng.IntN(len(live))])
		default:
			_ = c.MoveBelow(live[rng.IntN(len(live))], live[rng.IntN(len(live))])
		}

		down := walkDown(c)
		if len(down) != len(live) || c.Len() != len(live) {
			t.Fatalf("step %d: walked %d planes, Len() = %d, want %d", i, len(down), c.Len(), len(live))
		}
		up := walkUp(c)
		slices.Reverse(up)
		if !slices.Equal(down, up) {
			t.Fatalf("step %d: forward walk %v != reversed backward walk %v", i, down, up)
		}
		for _, h := range live {
			if !slices.Contains(down, h) {
				t.Fatalf("step %d: live plane %v missing from stack", i, h)
			}
		}
		if r := c.Validate(); !r.OK() {
			t.Fatalf("step %d: Validate() findings: %+v", i, r.Findings)
		}
	}
}

func TestStaleHandle(t *testing.T) {
	c := newTestContext(t)
	a := mustCreate(t, c, "a")
	if err := c.Destroy(a); err != nil {
		t.Fatalf("Destroy() error: %v", err)
	}
	b := mustCreate(t, c, "b")

	if a.index() != b.index() {
		t.Fatalf("expected slot reuse, got %v and %v", a, b)
	}
	if _, ok := c.Plane(a); ok {
		t.Error("Plane(stale) should not resolve")
	}
	if err := c.Destroy(a); !errors.Is(err, ErrUnknownPlane) {
		t.Errorf("Destroy(stale) error = %v, want ErrUnknownPlane", err)
	}
	if _, ok := c.Plane(b); !ok {
		t.Error("Plane(b) should resolve")
	}
}
