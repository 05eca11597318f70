package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/planestack/pkg/errors"
	"github.com/matzehuels/planestack/pkg/plane"
)

// Default terminal geometry used when a scenario does not set one.
const (
	DefaultRows = 24
	DefaultCols = 80
)

// Operation names.
const (
	OpCreate  = "create"
	OpDestroy = "destroy"
	OpMove    = "move"
	OpResize  = "resize"
	OpCursor  = "cursor"
	OpHome    = "home"
	OpBind    = "bind"
	OpUnbind  = "unbind"
	OpRebind  = "rebind"
	OpRaise   = "raise"
	OpLower   = "lower"
	OpAbove   = "above"
	OpBelow   = "below"
	OpDrop    = "drop"
	OpCheck   = "check"
)

// Ops lists every operation in the order they are documented.
var Ops = []string{
	OpCreate, OpDestroy, OpMove, OpResize, OpCursor, OpHome,
	OpBind, OpUnbind, OpRebind, OpRaise, OpLower, OpAbove, OpBelow,
	OpDrop, OpCheck,
}

// Script is a parsed scenario.
type Script struct {
	Name        string   `toml:"name" json:"name,omitempty"`
	Description string   `toml:"description" json:"description,omitempty"`
	Terminal    Terminal `toml:"terminal" json:"terminal"`
	Steps       []Step   `toml:"step" json:"steps"`
}

// Terminal is the geometry of the standard plane.
type Terminal struct {
	Rows int `toml:"rows" json:"rows,omitempty"`
	Cols int `toml:"cols" json:"cols,omitempty"`
}

// Dims returns the terminal geometry with defaults applied.
func (s *Script) Dims() (rows, cols int) {
	rows, cols = s.Terminal.Rows, s.Terminal.Cols
	if rows == 0 {
		rows = DefaultRows
	}
	if cols == 0 {
		cols = DefaultCols
	}
	return rows, cols
}

// Step is one operation. Which fields are used depends on Op.
type Step struct {
	Op     string `toml:"op" json:"op"`
	Plane  string `toml:"plane" json:"plane,omitempty"`
	Parent string `toml:"parent" json:"parent,omitempty"`
	Target string `toml:"target" json:"target,omitempty"`
	Y      int    `toml:"y" json:"y,omitempty"`
	X      int    `toml:"x" json:"x,omitempty"`
	Rows   int    `toml:"rows" json:"rows,omitempty"`
	Cols   int    `toml:"cols" json:"cols,omitempty"`
	// Expect is the error code the step must fail with.
	Expect string `toml:"expect" json:"expect,omitempty"`
}

// String formats the step the way it is shown in listings.
func (st Step) String() string {
	var b strings.Builder
	b.WriteString(st.Op)
	if st.Plane != "" {
		b.WriteString(" " + st.Plane)
	}
	switch st.Op {
	case OpCreate:
		fmt.Fprintf(&b, " %dx%d at %d,%d", st.Rows, st.Cols, st.Y, st.X)
		if st.Parent != "" {
			b.WriteString(" under " + st.Parent)
		}
	case OpMove, OpCursor:
		fmt.Fprintf(&b, " to %d,%d", st.Y, st.X)
	case OpResize:
		fmt.Fprintf(&b, " to %dx%d", st.Rows, st.Cols)
	case OpBind, OpRebind:
		b.WriteString(" -> " + st.Parent)
	case OpAbove, OpBelow:
		b.WriteString(" " + st.Target)
	}
	if st.Expect != "" {
		b.WriteString(" (expect " + st.Expect + ")")
	}
	return b.String()
}

// Load reads and parses a scenario file. A script without a name is named
// after the file.
func Load(path string) (*Script, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scenario %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read scenario %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Parse decodes and validates a scenario. Unknown keys are rejected.
func Parse(data []byte) (*Script, error) {
	var s Script
	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "decode scenario")
	}
	if und := md.Undecoded(); len(und) > 0 {
		keys := make([]string, len(und))
		for i, k := range und {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidScenario, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks a script statically: known operations, the fields each
// operation needs, well-formed plane names and known expectation codes.
// It does not check that a step will succeed; that is what expect is for.
func Validate(s *Script) error {
	if s.Terminal.Rows < 0 || s.Terminal.Cols < 0 {
		return errors.New(errors.ErrCodeInvalidScenario, "terminal geometry must not be negative")
	}
	for i, st := range s.Steps {
		if err := ValidateStep(st); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScenario, err, "step %d", i+1)
		}
	}
	return nil
}

// ValidateStep checks a single step.
func ValidateStep(st Step) error {
	if !slices.Contains(Ops, st.Op) {
		return errors.New(errors.ErrCodeInvalidScenario, "unknown op %q", st.Op)
	}

	needs := func(field, value string) error {
		if value == "" {
			return errors.New(errors.ErrCodeInvalidScenario, "%s needs %s", st.Op, field)
		}
		if value == plane.StdName {
			return nil
		}
		return errors.ValidatePlaneName(value)
	}

	switch st.Op {
	case OpDrop, OpCheck:
		if st.Plane != "" {
			return errors.New(errors.ErrCodeInvalidScenario, "%s takes no plane", st.Op)
		}
	default:
		if err := needs("plane", st.Plane); err != nil {
			return err
		}
	}

	switch st.Op {
	case OpCreate:
		if st.Parent != "" {
			if err := needs("parent", st.Parent); err != nil {
				return err
			}
		}
	case OpBind, OpRebind:
		if err := needs("parent", st.Parent); err != nil {
			return err
		}
	case OpAbove, OpBelow:
		if err := needs("target", st.Target); err != nil {
			return err
		}
	}

	if st.Expect != "" {
		if err := errors.ValidateCode(st.Expect); err != nil {
			return err
		}
	}
	return nil
}
