// Package plane provides the plane stack of a terminal rendering context.
//
// # Overview
//
// A rendering context holds an ordered collection of rectangular drawing
// surfaces called planes. Each plane has an absolute offset, a geometry,
// a write cursor and an optional binding to a parent plane. Two
// independent structures hold the planes together:
//
//   - the z-order stack, a doubly linked list of every live plane from
//     top (frontmost) to bottom, used for compositing order
//   - the binding tree, where a plane may be bound to exactly one parent
//     and a parent keeps a singly linked list of its bound children
//
// Exactly one plane, the standard plane, is created by [New] and lives
// until [Context.Close].
//
// # Handles
//
// Planes live in an arena owned by the [Context] and are addressed by
// generational [Handle] values instead of pointers. Every link (above,
// below, bound parent, next sibling, back-reference) is a handle. A handle
// to a destroyed plane is stale: it no longer resolves, even if its arena
// slot has been reused. [None] is the absent handle.
//
// # Basic Usage
//
//	c, _ := plane.New(24, 80)
//	panel, _ := c.Create(plane.PlaneOptions{Y: 2, X: 4, Rows: 10, Cols: 30})
//	label, _ := c.Create(plane.PlaneOptions{Y: 1, X: 1, Rows: 1, Cols: 20, Parent: panel})
//	_ = c.MoveBottom(panel)
//	_ = c.Bind(label, c.Std())
//
// # Validation
//
// [Context.Validate] walks the z-order stack and the binding links and
// collects every broken invariant as a [Finding]. It never mutates and
// never corrects the structure. [Context.Dump] writes the same walk as a
// human-readable report, with warnings on a separate stream:
//
//	c.Dump(os.Stdout, os.Stderr)
//
// # Concurrency
//
// A Context is single-threaded. It is not safe for concurrent use without
// external synchronization, and Validate must only run between completed
// mutations.
package plane
