package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/planestack/pkg/plane"
	"github.com/matzehuels/planestack/pkg/scenario"
)

var tableHeaders = []string{"#", "ID", "Name", "Pos", "Size", "Cursor", "Parent", "Children"}

// lsCommand creates the ls command.
func (c *CLI) lsCommand() *cobra.Command {
	var flags scenarioFlags

	cmd := &cobra.Command{
		Use:   "ls [scenario.toml]",
		Short: "Play a scenario and list the final stack as a table",
		Long: `Play a scenario and list the final stack as a table, top plane first.

Planes named by a validator finding are highlighted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLs(cmd.Context(), args[0], flags)
		},
	}

	flags.register(cmd, c.Config)
	return cmd
}

func (c *CLI) runLs(ctx context.Context, path string, flags scenarioFlags) error {
	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	result, err := runner.Execute(ctx, flags.options(path, c.Logger))
	var stepErr *scenario.StepError
	if err != nil && !stderrors.As(err, &stepErr) {
		return err
	}

	rows, cols := result.Context.StdDim()
	fmt.Println(StyleTitle.Render(result.Script.Name) + " " + StyleDim.Render(fmt.Sprintf("%dx%d", rows, cols)))
	fmt.Println(renderStackTable(result.Context, result.Report))
	fmt.Println(statsLine(result.Stats.Steps, result.Stats.Planes, result.Stats.Findings, false))
	return stepErr
}

// stackRows returns one table row per plane, top first.
func stackRows(c *plane.Context) [][]string {
	var rows [][]string
	for i, p := range c.Planes() {
		parent := "-"
		if p.BoundTo != plane.None {
			parent = c.Token(p.BoundTo)
		}
		var kids []string
		for _, h := range c.Children(p.Handle) {
			kids = append(kids, c.Token(h))
		}
		name := p.Name
		if name == "" {
			name = "-"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			p.ID,
			name,
			fmt.Sprintf("%d,%d", p.AbsY, p.AbsX),
			fmt.Sprintf("%dx%d", p.Rows, p.Cols),
			fmt.Sprintf("%d,%d", p.CursorY, p.CursorX),
			parent,
			strings.Join(kids, " "),
		})
	}
	return rows
}

// renderStackTable renders the stack of c as a bordered table. Rows of
// planes named by a finding in r are drawn in red.
func renderStackTable(c *plane.Context, r *plane.Report) string {
	planes := c.Planes()
	flagged := map[plane.Handle]bool{}
	if r != nil {
		for _, f := range r.Findings {
			flagged[f.Plane] = true
		}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(tableHeaders...).
		Rows(stackRows(c)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			if row < 0 || row >= len(planes) {
				return base
			}
			p := planes[row]
			switch {
			case flagged[p.Handle]:
				return base.Foreground(colorRed).Bold(true)
			case p.Std:
				return base.Foreground(colorCyan)
			case col == 0 || col == 1:
				return base.Foreground(colorDim)
			}
			return base.Foreground(colorWhite)
		})

	return t.Render()
}
