package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/planestack/pkg/plane"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed adds geometry and cursor to node labels.
	// When false, only the name and identity token are shown.
	Detailed bool
	// Stack adds dashed z-order edges from each plane to the one below it.
	Stack bool
	// Report, when set, outlines planes named by its findings.
	Report *plane.Report
}

// ToDOT converts the planes of c to Graphviz DOT source.
// The result can be rendered with [RenderSVG] or [RenderPNG].
func ToDOT(c *plane.Context, opts Options) string {
	flagged := map[plane.Handle]bool{}
	if opts.Report != nil {
		for _, f := range opts.Report.Findings {
			flagged[f.Plane] = true
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph planes {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"monospace\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	planes := c.Planes()
	for _, p := range planes {
		attrs := fmtAttrs(p, fmtLabel(p, opts.Detailed), flagged[p.Handle])
		fmt.Fprintf(&buf, "  %q [%s];\n", p.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, p := range planes {
		for _, child := range c.Children(p.Handle) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", p.ID, c.Token(child))
		}
	}

	if opts.Stack && len(planes) > 1 {
		buf.WriteString("\n")
		for i := 1; i < len(planes); i++ {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, color=grey, arrowhead=open, constraint=false];\n",
				planes[i-1].ID, planes[i].ID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(p plane.Plane, detailed bool) string {
	label := p.ID
	if p.Name != "" && p.Name != p.ID {
		label = p.Name + "\n" + p.ID
	}
	if !detailed {
		return label
	}
	return fmt.Sprintf("%s\nat %d,%d\n%dx%d\ncursor %d,%d",
		label, p.AbsY, p.AbsX, p.Rows, p.Cols, p.CursorY, p.CursorX)
}

func fmtAttrs(p plane.Plane, label string, flagged bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if p.Std {
		attrs = append(attrs, "fillcolor=lightblue", "penwidth=2")
	}
	if flagged {
		attrs = append(attrs, "color=red", "penwidth=3")
	}
	return attrs
}

// RenderSVG lays out DOT source and renders it to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG lays out DOT source and renders it to PNG.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag so the drawing scales from a
// zero origin at its natural size.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
