package plane

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBinding is matched (via errors.Is) by every binding failure.
	// A failed bind leaves the binding tree unchanged.
	ErrInvalidBinding = errors.New("invalid binding")

	// ErrSelfBinding is returned by [Context.Bind] when a plane would be
	// bound to itself.
	ErrSelfBinding = fmt.Errorf("%w: plane cannot be bound to itself", ErrInvalidBinding)

	// ErrBindingCycle is returned by [Context.Bind] when the parent is a
	// descendant of the child, so linking would close a cycle.
	ErrBindingCycle = fmt.Errorf("%w: binding would create a cycle", ErrInvalidBinding)

	// ErrUnknownPlane is returned when a handle is None, stale, or belongs
	// to a destroyed plane.
	ErrUnknownPlane = errors.New("unknown plane")

	// ErrDuplicateName is returned by [Context.Create] when the requested
	// name is already in use by a live plane.
	ErrDuplicateName = errors.New("duplicate plane name")

	// ErrInvalidGeometry is returned when a plane would have zero or
	// negative rows or columns.
	ErrInvalidGeometry = errors.New("plane geometry must be positive")

	// ErrCursorOutOfRange is returned by [Context.CursorMove] when the
	// target cell is outside the plane.
	ErrCursorOutOfRange = errors.New("cursor out of range")

	// ErrStdPlane is returned by operations that are not allowed on the
	// standard plane (destroy, move, binding it under another plane).
	ErrStdPlane = errors.New("operation not permitted on the standard plane")

	// ErrSelfTarget is returned by [Context.MoveAbove] and
	// [Context.MoveBelow] when a plane is placed relative to itself.
	ErrSelfTarget = errors.New("plane cannot be placed relative to itself")

	// ErrClosed is returned by every mutating operation after
	// [Context.Close].
	ErrClosed = errors.New("context closed")
)
