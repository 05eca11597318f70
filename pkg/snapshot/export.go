package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/planestack/pkg/plane"
)

// Snapshot is the serialisable state of a context.
type Snapshot struct {
	Terminal Terminal  `json:"terminal"`
	Planes   []Plane   `json:"planes"`
	Findings []Finding `json:"findings,omitempty"`
}

// Terminal is the geometry of the standard plane.
type Terminal struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Plane is one plane of a snapshot. Links are identity tokens.
type Plane struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Std      bool     `json:"std,omitempty"`
	Y        int      `json:"y"`
	X        int      `json:"x"`
	Rows     int      `json:"rows"`
	Cols     int      `json:"cols"`
	CursorY  int      `json:"cursor_y,omitempty"`
	CursorX  int      `json:"cursor_x,omitempty"`
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children,omitempty"`
}

// Finding is a validator finding with identity tokens in place of handles.
type Finding struct {
	Kind     string `json:"kind"`
	Index    int    `json:"index"`
	Plane    string `json:"plane,omitempty"`
	Expected string `json:"expected,omitempty"`
	Got      string `json:"got,omitempty"`
}

// Take captures c. When r is not nil its findings are included.
func Take(c *plane.Context, r *plane.Report) *Snapshot {
	rows, cols := c.StdDim()
	s := &Snapshot{
		Terminal: Terminal{Rows: rows, Cols: cols},
		Planes:   []Plane{},
	}
	for _, p := range c.Planes() {
		sp := Plane{
			ID:      p.ID,
			Name:    p.Name,
			Std:     p.Std,
			Y:       p.AbsY,
			X:       p.AbsX,
			Rows:    p.Rows,
			Cols:    p.Cols,
			CursorY: p.CursorY,
			CursorX: p.CursorX,
		}
		if p.BoundTo != plane.None {
			sp.Parent = c.Token(p.BoundTo)
		}
		for _, child := range c.Children(p.Handle) {
			sp.Children = append(sp.Children, c.Token(child))
		}
		s.Planes = append(s.Planes, sp)
	}
	if r != nil {
		s.Findings = Findings(r)
	}
	return s
}

// Findings converts the findings of a report.
func Findings(r *plane.Report) []Finding {
	out := make([]Finding, 0, len(r.Findings))
	for _, f := range r.Findings {
		sf := Finding{Kind: f.Kind.String(), Index: f.Index}
		if f.Plane != plane.None {
			sf.Plane = r.Token(f.Plane)
		}
		if f.Expected != plane.None || f.Got != plane.None {
			sf.Expected = r.Token(f.Expected)
			sf.Got = r.Token(f.Got)
		}
		out = append(out, sf)
	}
	return out
}

// WriteJSON encodes a snapshot as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(s *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a snapshot to a JSON file at path.
func ExportJSON(s *Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(s, f)
}
