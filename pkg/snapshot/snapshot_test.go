package snapshot

import (
	"bytes"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/planestack/pkg/plane"
)

func quiet() plane.Option { return plane.WithLogger(log.New(io.Discard)) }

// buildContext creates item2, item1, menu, std, tip (top to bottom) with
// item1 and item2 bound to menu.
func buildContext(t *testing.T) *plane.Context {
	t.Helper()
	c, err := plane.New(24, 80, plane.WithIdentity(plane.SequentialIdentity()), quiet())
	if err != nil {
		t.Fatal(err)
	}
	menu, _ := c.Create(plane.PlaneOptions{Y: 1, X: 2, Rows: 10, Cols: 20, Name: "menu"})
	item1, _ := c.Create(plane.PlaneOptions{Y: 1, X: 1, Rows: 1, Cols: 18, Parent: menu})
	_, _ = c.Create(plane.PlaneOptions{Y: 2, X: 1, Rows: 1, Cols: 18, Parent: menu, Name: "item2"})
	tip, _ := c.Create(plane.PlaneOptions{Rows: 1, Cols: 5, Name: "tip"})
	_ = c.CursorMove(item1, 0, 7)
	_ = c.MoveBottom(tip)
	return c
}

func TestTake(t *testing.T) {
	c := buildContext(t)
	s := Take(c, nil)

	if s.Terminal != (Terminal{Rows: 24, Cols: 80}) {
		t.Errorf("Terminal = %+v", s.Terminal)
	}
	var ids []string
	for _, p := range s.Planes {
		ids = append(ids, p.ID)
	}
	if want := []string{"p0003", "p0002", "p0001", "p0000", "p0004"}; !slices.Equal(ids, want) {
		t.Fatalf("plane order = %v, want %v", ids, want)
	}
	menu := s.Planes[2]
	if menu.Name != "menu" || !slices.Equal(menu.Children, []string{"p0003", "p0002"}) {
		t.Errorf("menu = %+v", menu)
	}
	if item1 := s.Planes[1]; item1.Parent != "p0001" || item1.Y != 2 || item1.X != 3 || item1.CursorX != 7 {
		t.Errorf("item1 = %+v", item1)
	}
	if !s.Planes[3].Std {
		t.Error("std flag missing")
	}
	if s.Findings != nil {
		t.Errorf("Findings = %v, want nil without report", s.Findings)
	}
}

func TestRoundTrip(t *testing.T) {
	c := buildContext(t)
	orig := Take(c, c.Validate())

	var buf bytes.Buffer
	if err := WriteJSON(orig, &buf); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}
	decoded, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON error: %v", err)
	}
	restored, err := Restore(decoded, quiet())
	if err != nil {
		t.Fatalf("Restore error: %v", err)
	}

	again := Take(restored, nil)
	orig.Findings = nil
	if len(again.Planes) != len(orig.Planes) {
		t.Fatalf("restored %d planes, want %d", len(again.Planes), len(orig.Planes))
	}
	for i := range orig.Planes {
		a, b := orig.Planes[i], again.Planes[i]
		if a.ID != b.ID || a.Name != b.Name || a.Y != b.Y || a.X != b.X ||
			a.Rows != b.Rows || a.Cols != b.Cols || a.CursorY != b.CursorY ||
			a.CursorX != b.CursorX || a.Parent != b.Parent || !slices.Equal(a.Children, b.Children) {
			t.Errorf("plane %d: restored %+v, want %+v", i, b, a)
		}
	}
	if r := restored.Validate(); !r.OK() {
		t.Errorf("restored context has findings: %+v", r.Findings)
	}
	if _, ok := restored.Lookup("tip"); !ok {
		t.Error("restored context lost names")
	}
}

func TestExportImport(t *testing.T) {
	c := buildContext(t)
	path := filepath.Join(t.TempDir(), "planes.json")
	if err := ExportJSON(Take(c, nil), path); err != nil {
		t.Fatalf("ExportJSON error: %v", err)
	}
	s, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON error: %v", err)
	}
	if len(s.Planes) != 5 {
		t.Errorf("imported %d planes, want 5", len(s.Planes))
	}
	if _, err := ImportJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ImportJSON(missing) should fail")
	}
}

func TestFindings(t *testing.T) {
	c, _ := plane.New(4, 4, plane.WithIdentity(plane.SequentialIdentity()), quiet())
	_, _ = c.Create(plane.PlaneOptions{Rows: 1, Cols: 1})
	r := c.Validate()
	if got := Findings(r); len(got) != 0 {
		t.Errorf("Findings(clean) = %v", got)
	}
}

func TestRestoreErrors(t *testing.T) {
	std := Plane{ID: "s", Name: "std", Std: true, Rows: 4, Cols: 4}
	tests := []struct {
		name    string
		planes  []Plane
		wantErr string
	}{
		{"no std", []Plane{{ID: "a", Rows: 1, Cols: 1}}, "no standard plane"},
		{"two std", []Plane{std, {ID: "t", Std: true, Rows: 1, Cols: 1}}, "second standard plane"},
		{"missing id", []Plane{std, {Rows: 1, Cols: 1}}, "missing id"},
		{"duplicate id", []Plane{std, {ID: "s", Rows: 1, Cols: 1}}, "duplicate id"},
		{"bad geometry", []Plane{std, {ID: "a", Rows: 0, Cols: 1}}, "geometry"},
		{"unknown child", []Plane{{ID: "a", Rows: 1, Cols: 1, Children: []string{"zz"}}, std}, "unknown child zz"},
		{"cycle", []Plane{
			{ID: "a", Rows: 1, Cols: 1, Children: []string{"b"}},
			{ID: "b", Rows: 1, Cols: 1, Children: []string{"a"}},
			std,
		}, "cycle"},
		{"orphan parent", []Plane{{ID: "a", Rows: 1, Cols: 1, Parent: "s"}, std}, "does not list it"},
		{"child without parent", []Plane{
			{ID: "a", Rows: 1, Cols: 1},
			{ID: "p", Rows: 1, Cols: 1, Children: []string{"a"}},
			std,
		}, `listed as a child of p but parent is ""`},
		{"child of another parent", []Plane{
			{ID: "a", Rows: 1, Cols: 1, Parent: "q"},
			{ID: "p", Rows: 1, Cols: 1, Children: []string{"a"}},
			{ID: "q", Rows: 1, Cols: 1},
			std,
		}, "listed as a child of p but parent is \"q\""},
		{"cursor", []Plane{{ID: "a", Rows: 1, Cols: 1, CursorY: 3}, std}, "cursor out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Restore(&Snapshot{Planes: tt.planes}, quiet())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Restore() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
