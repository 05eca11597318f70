package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/planestack/pkg/errors"
	"github.com/matzehuels/planestack/pkg/observability"
	"github.com/matzehuels/planestack/pkg/plane"
)

// Result is the outcome of one played step.
type Result struct {
	Index    int
	Step     Step
	Err      error         // classified operation error, nil on success
	Report   *plane.Report // set by check steps
	Duration time.Duration
}

// Playback collects the results of [Play].
type Playback struct {
	Script  *Script
	Results []Result
}

// Reports returns the reports recorded by check steps, in order.
func (p *Playback) Reports() []*plane.Report {
	var out []*plane.Report
	for _, r := range p.Results {
		if r.Report != nil {
			out = append(out, r.Report)
		}
	}
	return out
}

// StepError reports a step whose outcome did not match the scenario: an
// unexpected failure, a success where a failure was expected, or a failure
// with a different code.
type StepError struct {
	Index int
	Step  Step
	Err   error
}

func (e *StepError) Error() string {
	prefix := fmt.Sprintf("step %d (%s)", e.Index+1, e.Step.Op)
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: expected %s, got success", prefix, e.Step.Expect)
	case e.Step.Expect != "":
		return fmt.Sprintf("%s: expected %s, got %v", prefix, e.Step.Expect, e.Err)
	default:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
}

func (e *StepError) Unwrap() error { return e.Err }

// Play applies every step of s to c in order. It stops at the first step
// whose outcome does not match its expectation and returns the playback so
// far together with a [*StepError]. The context is left as the last step
// left it, so a caller can still validate or dump it.
func Play(ctx context.Context, s *Script, c *plane.Context) (*Playback, error) {
	hooks := observability.Scenario()
	start := time.Now()
	hooks.OnPlayStart(ctx, s.Name, len(s.Steps))

	pb := &Playback{Script: s}
	var playErr error
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			playErr = err
			break
		}
		res := Apply(ctx, c, st)
		res.Index = i
		pb.Results = append(pb.Results, res)

		err := Check(st, res.Err)
		if err != nil {
			err = &StepError{Index: i, Step: st, Err: res.Err}
		}
		hooks.OnStep(ctx, i, st.Op, res.Duration, err)
		if err != nil {
			playErr = err
			break
		}
	}

	hooks.OnPlayComplete(ctx, s.Name, len(pb.Results), time.Since(start), playErr)
	return pb, playErr
}

// Check compares an operation error with the step's expectation. It
// returns nil when they agree.
func Check(st Step, opErr error) error {
	if st.Expect == "" {
		return opErr
	}
	if opErr == nil {
		return errors.New(errors.ErrCodeInvalidScenario, "expected %s, got success", st.Expect)
	}
	if got := errors.GetCode(opErr); got != errors.Code(st.Expect) {
		return errors.Wrap(errors.ErrCodeInvalidScenario, opErr, "expected %s, got %s", st.Expect, got)
	}
	return nil
}

// Apply applies a single step to c. Names resolve through c, so planes
// created by earlier steps are addressable by the name they were created
// with. The error in the result is classified with [Classify].
func Apply(ctx context.Context, c *plane.Context, st Step) Result {
	start := time.Now()
	res := Result{Step: st}
	res.Report, res.Err = apply(ctx, c, st)
	res.Err = Classify(res.Err)
	res.Duration = time.Since(start)
	return res
}

func apply(ctx context.Context, c *plane.Context, st Step) (*plane.Report, error) {
	switch st.Op {
	case OpCreate:
		opts := plane.PlaneOptions{Y: st.Y, X: st.X, Rows: st.Rows, Cols: st.Cols, Name: st.Plane}
		if st.Parent != "" {
			parent, err := resolve(c, st.Parent)
			if err != nil {
				return nil, err
			}
			opts.Parent = parent
		}
		_, err := c.Create(opts)
		return nil, err
	case OpDrop:
		if c.Closed() {
			return nil, plane.ErrClosed
		}
		c.DropPlanes()
		return nil, nil
	case OpCheck:
		start := time.Now()
		r := c.Validate()
		observability.Validate().OnValidate(ctx, len(r.Entries), len(r.Findings), time.Since(start))
		return r, nil
	}

	h, err := resolve(c, st.Plane)
	if err != nil {
		return nil, err
	}
	switch st.Op {
	case OpDestroy:
		return nil, c.Destroy(h)
	case OpMove:
		return nil, c.Move(h, st.Y, st.X)
	case OpResize:
		return nil, c.Resize(h, st.Rows, st.Cols)
	case OpCursor:
		return nil, c.CursorMove(h, st.Y, st.X)
	case OpHome:
		return nil, c.Home(h)
	case OpUnbind:
		return nil, c.Unbind(h)
	case OpRaise:
		return nil, c.MoveTop(h)
	case OpLower:
		return nil, c.MoveBottom(h)
	}

	var other string
	switch st.Op {
	case OpBind, OpRebind:
		other = st.Parent
	case OpAbove, OpBelow:
		other = st.Target
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown op %q", st.Op)
	}
	o, err := resolve(c, other)
	if err != nil {
		return nil, err
	}
	switch st.Op {
	case OpBind:
		return nil, c.Bind(h, o)
	case OpRebind:
		return nil, c.Rebind(h, o)
	case OpAbove:
		return nil, c.MoveAbove(h, o)
	default:
		return nil, c.MoveBelow(h, o)
	}
}

func resolve(c *plane.Context, name string) (plane.Handle, error) {
	if c.Closed() {
		return plane.None, plane.ErrClosed
	}
	h, ok := c.Lookup(name)
	if !ok {
		return plane.None, fmt.Errorf("plane %q: %w", name, plane.ErrUnknownPlane)
	}
	return h, nil
}
