package plane

import "fmt"

// Handle addresses a plane inside a [Context]. The low 32 bits hold the
// arena slot index plus one, the high 32 bits the slot generation.
//
// The zero value is [None]. Handles are only meaningful for the Context
// that issued them.
type Handle uint64

// None is the absent handle: no plane.
const None Handle = 0

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index+1))
}

func (h Handle) index() uint32 { return uint32(h) - 1 }
func (h Handle) gen() uint32   { return uint32(h >> 32) }

// String formats the handle as slot/generation, or "none".
func (h Handle) String() string {
	if h == None {
		return "none"
	}
	return fmt.Sprintf("%d/%d", h.index(), h.gen())
}

// Plane is a rectangular drawing surface together with its stack and
// binding links.
//
// Values returned by [Context.Plane] and [Context.Planes] are copies:
// changing them does not affect the context. All mutation goes through
// Context methods so the invariants hold between calls.
type Plane struct {
	Handle Handle // the plane's own handle
	ID     string // identity token, stable for the life of the plane
	Name   string // optional label, unique among live planes

	AbsY, AbsX       int // origin relative to the terminal origin
	Rows, Cols       int // geometry, both > 0
	CursorY, CursorX int // write cursor, inside the geometry

	Std bool // true only for the standard plane

	BoundTo   Handle // parent, or None when unbound
	BoundNext Handle // next sibling in the parent's bound list
	// BoundPrev is the back-reference: the previous sibling, or None when
	// this plane heads its parent's list (the parent's head slot points
	// at it).
	BoundPrev Handle
	BoundHead Handle // first plane bound to this one

	Above Handle // neighbour toward the top, None at the top
	Below Handle // neighbour toward the bottom, None at the bottom
}

// PlaneOptions describes a plane for [Context.Create].
type PlaneOptions struct {
	// Y and X are relative to Parent when it is set, absolute otherwise.
	Y, X int
	// Rows and Cols must both be positive.
	Rows, Cols int
	// Parent binds the new plane at creation when not None.
	Parent Handle
	// Name is an optional label; "std" is reserved for the standard plane.
	Name string
}

// IdentityFunc produces the identity token of a new plane. Tokens must be
// distinct for every plane created by the same Context.
type IdentityFunc func(Handle) string

// SequentialIdentity returns an IdentityFunc producing "p0000", "p0001", ...
// It is useful for reproducible dumps.
func SequentialIdentity() IdentityFunc {
	n := 0
	return func(Handle) string {
		id := fmt.Sprintf("p%04d", n)
		n++
		return id
	}
}
