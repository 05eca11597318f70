// Package dot renders plane stacks as Graphviz diagrams.
//
// # Overview
//
// [ToDOT] converts a [plane.Context] into DOT source: one box per plane,
// solid edges from each plane to the planes bound to it, and optionally
// dashed edges following the z-order stack from top to bottom. The
// standard plane is highlighted, and planes named in a validator report's
// findings are outlined in red.
//
// [RenderSVG] and [RenderPNG] lay the DOT source out in-process with
// go-graphviz, so no Graphviz installation is needed.
//
// # Usage
//
//	src := dot.ToDOT(c, dot.Options{Stack: true, Report: c.Validate()})
//	svg, err := dot.RenderSVG(ctx, src)
package dot
