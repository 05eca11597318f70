// Package pkg provides the core libraries for planestack.
//
// # Overview
//
// Planestack models the planes of a terminal rendering context: a z-ordered
// stack of rectangular drawing surfaces, plus a binding tree in which child
// planes follow their parent. The pkg directory is organized into:
//
//  1. [plane] - The plane stack, the binding tree and the validator
//  2. [scenario] - TOML scripts of plane operations and their playback
//  3. [snapshot] - JSON export and restore of a plane stack
//  4. [render/dot] - Graphviz diagrams of the binding tree
//  5. [pipeline] - Orchestration (load → play → validate → render)
//  6. [cache], [errors], [observability], [buildinfo] - Supporting infrastructure
//
// # Architecture
//
// The typical data flow through planestack:
//
//	scenario.toml
//	     ↓
//	[scenario] package (parse + static checks)
//	     ↓
//	[plane] package (apply steps to a Context)
//	     ↓
//	Context.Validate (walk the stack, collect findings)
//	     ↓
//	text dump / JSON snapshot / DOT / SVG / PNG
//
// # Quick Start
//
// Build a stack by hand and dump it:
//
//	c, _ := plane.New(24, 80)
//	menu, _ := c.Create(plane.PlaneOptions{Y: 1, X: 2, Rows: 10, Cols: 20, Name: "menu"})
//	item, _ := c.Create(plane.PlaneOptions{Y: 1, X: 1, Rows: 1, Cols: 18, Parent: menu})
//	_ = c.MoveBottom(item)
//	_ = c.Dump(os.Stdout, os.Stderr)
//
// Or play a scenario through the pipeline:
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "popup.toml",
//	    Formats: []string{"text", "svg"},
//	})
package pkg
