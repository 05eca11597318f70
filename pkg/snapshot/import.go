package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/matzehuels/planestack/pkg/plane"
)

// ReadJSON decodes a snapshot from r. It does not close r.
func ReadJSON(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &s, nil
}

// ImportJSON reads a snapshot file at path.
func ImportJSON(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// Restore builds a context equivalent to the one s was taken from: the
// same z-order, geometry, cursors, names, identity tokens, bindings and
// child order. Findings are ignored.
//
// opts are applied before the identity generator Restore installs, so an
// identity option among them has no effect.
//
// Restore returns an error if the snapshot does not have exactly one
// standard plane, repeats an identity token, links to an unknown token,
// disagrees with itself about a plane's parent, or describes bindings the
// context rejects.
func Restore(s *Snapshot, opts ...plane.Option) (*plane.Context, error) {
	stdIdx := -1
	seen := make(map[string]bool, len(s.Planes))
	for i, p := range s.Planes {
		if p.ID == "" {
			return nil, fmt.Errorf("plane %d: missing id", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("plane %s: duplicate id", p.ID)
		}
		seen[p.ID] = true
		if p.Std {
			if stdIdx >= 0 {
				return nil, fmt.Errorf("plane %s: second standard plane", p.ID)
			}
			stdIdx = i
		}
	}
	if stdIdx < 0 {
		return nil, fmt.Errorf("snapshot has no standard plane")
	}
	std := s.Planes[stdIdx]

	// Identity tokens are handed out in creation order: the standard plane
	// first, then the rest bottom to top.
	order := []Plane{std}
	for _, p := range slices.Backward(s.Planes) {
		if !p.Std {
			order = append(order, p)
		}
	}
	next := 0
	identity := func(plane.Handle) string {
		id := order[next].ID
		next++
		return id
	}

	c, err := plane.New(std.Rows, std.Cols, append(slices.Clip(opts), plane.WithIdentity(identity))...)
	if err != nil {
		return nil, fmt.Errorf("terminal: %w", err)
	}
	handles := map[string]plane.Handle{std.ID: c.Std()}
	for _, p := range order[1:] {
		h, err := c.Create(plane.PlaneOptions{Y: p.Y, X: p.X, Rows: p.Rows, Cols: p.Cols, Name: p.Name})
		if err != nil {
			return nil, fmt.Errorf("plane %s: %w", p.ID, err)
		}
		handles[p.ID] = h
	}

	for _, p := range slices.Backward(s.Planes) {
		h := handles[p.ID]
		if err := c.MoveTop(h); err != nil {
			return nil, fmt.Errorf("plane %s: %w", p.ID, err)
		}
		if err := c.CursorMove(h, p.CursorY, p.CursorX); err != nil {
			return nil, fmt.Errorf("plane %s: %w", p.ID, err)
		}
	}

	for _, p := range s.Planes {
		parent := handles[p.ID]
		// Bind inserts at the head, so bind the last child first.
		for _, id := range slices.Backward(p.Children) {
			child, ok := handles[id]
			if !ok {
				return nil, fmt.Errorf("plane %s: unknown child %s", p.ID, id)
			}
			if c.Parent(child) != plane.None {
				return nil, fmt.Errorf("plane %s: child %s bound twice", p.ID, id)
			}
			if err := c.Bind(child, parent); err != nil {
				return nil, fmt.Errorf("plane %s: child %s: %w", p.ID, id, err)
			}
		}
	}
	for _, p := range s.Planes {
		parent := c.Parent(handles[p.ID])
		switch {
		case parent == plane.None && p.Parent != "":
			return nil, fmt.Errorf("plane %s: parent %s does not list it as a child", p.ID, p.Parent)
		case parent != plane.None && c.Token(parent) != p.Parent:
			return nil, fmt.Errorf("plane %s: listed as a child of %s but parent is %q", p.ID, c.Token(parent), p.Parent)
		}
	}
	return c, nil
}
