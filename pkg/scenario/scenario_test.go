package scenario

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/planestack/pkg/errors"
)

func TestLoad(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "popup.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.Name != "popup" {
		t.Errorf("Name = %q, want popup (from file name)", s.Name)
	}
	if len(s.Steps) != 9 {
		t.Fatalf("len(Steps) = %d, want 9", len(s.Steps))
	}
	if st := s.Steps[1]; st.Op != OpCreate || st.Parent != "menu" || st.Rows != 1 || st.Cols != 18 {
		t.Errorf("Steps[1] = %+v", st)
	}
	if s.Steps[4].Expect != "INVALID_BINDING" {
		t.Errorf("Steps[4].Expect = %q", s.Steps[4].Expect)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty", ``, ""},
		{"terminal only", "[terminal]\nrows = 10\ncols = 10\n", ""},
		{"std target", "[[step]]\nop = \"raise\"\nplane = \"std\"\n", ""},
		{"check", "[[step]]\nop = \"check\"\n", ""},

		{"bad toml", "name = ", "decode scenario"},
		{"unknown key", "[[step]]\nop = \"raise\"\nplan = \"a\"\n", "unknown keys: step.plan"},
		{"unknown op", "[[step]]\nop = \"fly\"\nplane = \"a\"\n", `unknown op "fly"`},
		{"missing plane", "[[step]]\nop = \"destroy\"\n", "destroy needs plane"},
		{"missing parent", "[[step]]\nop = \"bind\"\nplane = \"a\"\n", "bind needs parent"},
		{"missing target", "[[step]]\nop = \"above\"\nplane = \"a\"\n", "above needs target"},
		{"plane on drop", "[[step]]\nop = \"drop\"\nplane = \"a\"\n", "drop takes no plane"},
		{"bad name", "[[step]]\nop = \"raise\"\nplane = \"1a\"\n", "invalid plane name"},
		{"bad expect", "[[step]]\nop = \"raise\"\nplane = \"a\"\nexpect = \"OOPS\"\n", `unknown error code "OOPS"`},
		{"negative terminal", "[terminal]\nrows = -1\n", "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Parse() error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Parse() succeeded, want error containing %q", tt.wantErr)
			}
			if !errors.Is(err, errors.ErrCodeInvalidScenario) {
				t.Errorf("error code = %v, want INVALID_SCENARIO", errors.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestDims(t *testing.T) {
	s := &Script{}
	if r, c := s.Dims(); r != DefaultRows || c != DefaultCols {
		t.Errorf("Dims() = %d,%d, want defaults", r, c)
	}
	s.Terminal = Terminal{Rows: 5, Cols: 7}
	if r, c := s.Dims(); r != 5 || c != 7 {
		t.Errorf("Dims() = %d,%d, want 5,7", r, c)
	}
}

func TestStepString(t *testing.T) {
	tests := []struct {
		step Step
		want string
	}{
		{Step{Op: OpCreate, Plane: "a", Rows: 2, Cols: 3, Y: 1, X: 4}, "create a 2x3 at 1,4"},
		{Step{Op: OpCreate, Plane: "a", Rows: 1, Cols: 1, Parent: "p"}, "create a 1x1 at 0,0 under p"},
		{Step{Op: OpMove, Plane: "a", Y: 5, X: 6}, "move a to 5,6"},
		{Step{Op: OpResize, Plane: "a", Rows: 3, Cols: 9}, "resize a to 3x9"},
		{Step{Op: OpBind, Plane: "a", Parent: "b", Expect: "INVALID_BINDING"}, "bind a -> b (expect INVALID_BINDING)"},
		{Step{Op: OpBelow, Plane: "a", Target: "b"}, "below a b"},
		{Step{Op: OpCheck}, "check"},
	}
	for _, tt := range tests {
		if got := tt.step.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
