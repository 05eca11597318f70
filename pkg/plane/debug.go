package plane

import (
	"fmt"
	"io"
	"strings"
)

const (
	debugHeader = "*************************** plane stack debug state ***************************"
	markerStd   = "std"
	markerNone  = "   "
)

var debugFooter = strings.Repeat("*", len(debugHeader))

// FindingKind classifies a broken invariant found by [Context.Validate].
type FindingKind int

const (
	// FindingSelfReference: a plane's bound parent or next sibling is the
	// plane itself.
	FindingSelfReference FindingKind = iota + 1
	// FindingBackReference: the slot named by a plane's back-reference
	// does not point at the plane.
	FindingBackReference
	// FindingBrokenLink: a plane's Above is not the plane visited before it.
	FindingBrokenLink
	// FindingTailMismatch: the walk did not end at the context's bottom.
	FindingTailMismatch
	// FindingDangling: a Below link names a plane that no longer exists.
	FindingDangling
	// FindingCycle: the Below chain revisits a plane.
	FindingCycle
)

// String returns a short name for the kind.
func (k FindingKind) String() string {
	switch k {
	case FindingSelfReference:
		return "self-reference"
	case FindingBackReference:
		return "back-reference"
	case FindingBrokenLink:
		return "broken-link"
	case FindingTailMismatch:
		return "tail-mismatch"
	case FindingDangling:
		return "dangling"
	case FindingCycle:
		return "cycle"
	}
	return "unknown"
}

// Finding is one broken invariant. Index is the walk position the finding
// was raised at; findings raised after the walk use the number of planes
// visited.
type Finding struct {
	Kind     FindingKind
	Index    int
	Plane    Handle
	Expected Handle
	Got      Handle
}

// Entry is one plane as seen by the validator walk.
type Entry struct {
	Index int
	Plane Plane
	// Slot is the dereferenced back-reference, None when unbound.
	Slot Handle
}

// related reports whether the entry gets a relationship line.
func (e Entry) related() bool {
	return e.Plane.BoundTo != None || e.Plane.BoundNext != None || e.Slot != None
}

// Report is the result of a validator walk. It keeps the identity tokens
// it saw, so it can be written after the context has moved on.
type Report struct {
	Entries  []Entry
	Findings []Finding
	tokens   map[Handle]string
}

// OK reports whether the walk found no broken invariant.
func (r *Report) OK() bool { return len(r.Findings) == 0 }

// Count returns the number of findings of the given kind.
func (r *Report) Count(kind FindingKind) int {
	n := 0
	for _, f := range r.Findings {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// Token returns the identity token recorded for h.
func (r *Report) Token(h Handle) string {
	if t, ok := r.tokens[h]; ok {
		return t
	}
	return nilToken
}

// Validate walks the z-order stack from the top using the links as they
// are, checks every plane's binding and stack links, and returns the
// collected findings. It never modifies the context and never stops at a
// broken link; the walk only ends early when a Below link is dangling or
// revisits a plane, since following it further would not terminate.
func (c *Context) Validate() *Report {
	r := &Report{tokens: map[Handle]string{None: nilToken}}
	note := func(hs ...Handle) {
		for _, h := range hs {
			if _, ok := r.tokens[h]; !ok {
				r.tokens[h] = c.Token(h)
			}
		}
	}

	seen := make(map[Handle]bool, c.count)
	prev := None
	index := 0
	for h := c.top; h != None; index++ {
		n := c.get(h)
		if n == nil {
			note(h)
			r.Findings = append(r.Findings, Finding{Kind: FindingDangling, Index: index, Plane: prev, Got: h})
			break
		}
		slot, hasSlot := c.bindSlot(n)
		note(h, n.BoundTo, n.BoundNext, slot, n.Above, prev)
		r.Entries = append(r.Entries, Entry{Index: index, Plane: *n, Slot: slot})

		if n.BoundTo == h || n.BoundNext == h {
			r.Findings = append(r.Findings, Finding{Kind: FindingSelfReference, Index: index, Plane: h})
		}
		if hasSlot && slot != h {
			r.Findings = append(r.Findings, Finding{Kind: FindingBackReference, Index: index, Plane: h, Expected: h, Got: slot})
		}
		if n.Above != prev {
			r.Findings = append(r.Findings, Finding{Kind: FindingBrokenLink, Index: index, Plane: h, Expected: prev, Got: n.Above})
		}

		seen[h] = true
		prev = h
		h = n.Below
		if seen[h] {
			note(h)
			r.Findings = append(r.Findings, Finding{Kind: FindingCycle, Index: index + 1, Plane: prev, Got: h})
			index++
			break
		}
	}
	if c.bottom != prev {
		note(c.bottom, prev)
		r.Findings = append(r.Findings, Finding{Kind: FindingTailMismatch, Index: index, Expected: prev, Got: c.bottom})
	}

	c.logger.Debug("validated plane stack", "planes", len(r.Entries), "findings", len(r.Findings))
	return r
}

// Dump validates the context and writes the report: the plane listing to
// out and the warnings to errOut. The first write error is returned.
func (c *Context) Dump(out, errOut io.Writer) error {
	return c.Validate().Write(out, errOut)
}

// Write renders the report. Plane lines and relationship lines go to out
// between a header and a footer banner; warnings go to errOut, each after
// the plane it concerns. The first write error is returned.
func (r *Report) Write(out, errOut io.Writer) error {
	ow := &errWriter{w: out}
	ew := &errWriter{w: errOut}

	ow.printf("%s\n", debugHeader)
	fi := 0
	for _, e := range r.Entries {
		p := e.Plane
		marker := markerNone
		if p.Std {
			marker = markerStd
		}
		ow.printf("%04d off y: %3d x: %3d geom y: %3d x: %3d curs y: %3d x: %3d %s %s\n",
			e.Index, p.AbsY, p.AbsX, p.Rows, p.Cols, p.CursorY, p.CursorX, marker, r.Token(p.Handle))
		if e.related() {
			ow.printf(" bound to %s, next bound %s, bind %s\n",
				r.Token(p.BoundTo), r.Token(p.BoundNext), r.Token(e.Slot))
		}
		for ; fi < len(r.Findings) && r.Findings[fi].Index <= e.Index; fi++ {
			r.writeFinding(ew, r.Findings[fi])
		}
	}
	for ; fi < len(r.Findings); fi++ {
		r.writeFinding(ew, r.Findings[fi])
	}
	ow.printf("%s\n", debugFooter)

	if ow.err != nil {
		return ow.err
	}
	return ew.err
}

func (r *Report) writeFinding(w *errWriter, f Finding) {
	switch f.Kind {
	case FindingSelfReference:
		w.printf("WARNING: bound pointers target self\n")
	case FindingBackReference:
		w.printf(" WARNING: expected *->bprev %s, got %s\n", r.Token(f.Expected), r.Token(f.Got))
	case FindingBrokenLink:
		w.printf(" WARNING: expected ->above %s, got %s\n", r.Token(f.Expected), r.Token(f.Got))
	case FindingTailMismatch:
		w.printf(" WARNING: expected ->bottom %s, got %s\n", r.Token(f.Expected), r.Token(f.Got))
	case FindingDangling:
		w.printf(" WARNING: expected live plane, got %s\n", r.Token(f.Got))
	case FindingCycle:
		w.printf(" WARNING: ->below revisits %s\n", r.Token(f.Got))
	}
}

// errWriter remembers the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (w *errWriter) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}
