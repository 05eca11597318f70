package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/planestack/pkg/errors"
	"github.com/matzehuels/planestack/pkg/plane"
	"github.com/matzehuels/planestack/pkg/render/dot"
	"github.com/matzehuels/planestack/pkg/snapshot"
)

func needsGraphviz(format string) bool {
	return format == FormatSVG || format == FormatPNG
}

// renderPlain renders the formats that need no Graphviz.
func renderPlain(c *plane.Context, report *plane.Report, format string, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatText:
		// Listing and warnings share one buffer so warnings stay next to
		// the plane they concern.
		if err := report.Write(&buf, &buf); err != nil {
			return nil, fmt.Errorf("text: %w", err)
		}
	case FormatJSON:
		if err := snapshot.WriteJSON(snapshot.Take(c, report), &buf); err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
	case FormatDOT:
		buf.WriteString(toDOT(c, report, opts))
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "format %q needs graphviz", format)
	}
	return buf.Bytes(), nil
}

func toDOT(c *plane.Context, report *plane.Report, opts Options) string {
	return dot.ToDOT(c, dot.Options{
		Detailed: opts.Detailed,
		Stack:    opts.Stack,
		Report:   report,
	})
}

func renderGraphviz(ctx context.Context, src, format string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatSVG:
		data, err = dot.RenderSVG(ctx, src)
	case FormatPNG:
		data, err = dot.RenderPNG(ctx, src)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "format %q is not a graphviz format", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", format, err)
	}
	return data, nil
}
