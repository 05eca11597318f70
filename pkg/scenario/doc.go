// Package scenario loads and plays scripted sequences of plane operations.
//
// # Overview
//
// A scenario is a TOML file describing a terminal and a list of steps. Each
// step is one operation on a [plane.Context]: creating, destroying, moving,
// resizing, restacking, binding and unbinding planes, and running the
// validator. Planes are addressed by name; "std" names the standard plane.
//
// # Format
//
//	name = "popup"
//
//	[terminal]
//	rows = 24
//	cols = 80
//
//	[[step]]
//	op = "create"
//	plane = "menu"
//	y = 1
//	x = 2
//	rows = 10
//	cols = 20
//
//	[[step]]
//	op = "bind"
//	plane = "menu"
//	parent = "menu"
//	expect = "INVALID_BINDING"
//
//	[[step]]
//	op = "check"
//
// A step with expect must fail with that error code; a step without it must
// succeed. [Play] stops at the first step whose outcome differs and reports
// it as a [*StepError].
//
// # Operations
//
//   - create: plane, rows, cols, optional y, x and parent
//   - destroy, raise, lower, home, unbind: plane
//   - move, cursor: plane, y, x
//   - resize: plane, rows, cols
//   - bind, rebind: plane, parent
//   - above, below: plane, target
//   - drop: destroy every plane but the standard plane
//   - check: run the validator and record its report
package scenario
