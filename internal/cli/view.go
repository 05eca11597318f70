package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/planestack/pkg/pipeline"
	"github.com/matzehuels/planestack/pkg/plane"
	"github.com/matzehuels/planestack/pkg/scenario"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// viewCommand creates the view command.
func (c *CLI) viewCommand() *cobra.Command {
	var flags scenarioFlags

	cmd := &cobra.Command{
		Use:   "view [scenario.toml]",
		Short: "Step through a scenario interactively",
		Long: `Step through a scenario interactively.

The left pane lists the scenario's steps; the right pane shows the debug
dump of the stack after the steps applied so far. Stepping back replays
the scenario from the start.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(args[0], log.New(io.Discard))
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			runner := pipeline.NewRunner(nil, nil, c.Logger)
			script, err := runner.Load(opts)
			if err != nil {
				return err
			}
			m, err := newViewModel(script, func() (*plane.Context, error) {
				return opts.NewContext(script)
			})
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	flags.register(cmd, c.Config)
	return cmd
}

// =============================================================================
// ViewModel - Scenario stepper
// =============================================================================

// ViewModel is the bubbletea model for stepping through a scenario.
type ViewModel struct {
	Script *scenario.Script

	// Applied is the number of steps applied to the current context.
	Applied int

	newContext func() (*plane.Context, error)
	ctx        *plane.Context
	outcomes   []error // per applied step, nil when it behaved as expected
	report     *plane.Report
	err        error
}

// newViewModel creates a stepper with no steps applied.
func newViewModel(script *scenario.Script, newContext func() (*plane.Context, error)) (ViewModel, error) {
	m := ViewModel{Script: script, newContext: newContext}
	m.replay(0)
	return m, m.err
}

// replay rebuilds the context and applies the first n steps.
func (m *ViewModel) replay(n int) {
	if m.ctx != nil && !m.ctx.Closed() {
		_ = m.ctx.Close()
	}
	m.ctx, m.err = m.newContext()
	m.Applied = 0
	m.outcomes = nil
	if m.err != nil {
		return
	}
	for range n {
		m.step()
	}
	m.report = m.ctx.Validate()
}

// step applies the next step.
func (m *ViewModel) step() {
	if m.Applied >= len(m.Script.Steps) {
		return
	}
	st := m.Script.Steps[m.Applied]
	res := scenario.Apply(context.Background(), m.ctx, st)
	m.outcomes = append(m.outcomes, scenario.Check(st, res.Err))
	m.Applied++
}

func (m ViewModel) Init() tea.Cmd {
	return nil
}

func (m ViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.err != nil {
		return m, tea.Quit
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "l", "n", " ":
			m.outcomes = append([]error(nil), m.outcomes...)
			m.step()
			m.report = m.ctx.Validate()
		case "left", "h", "p":
			if m.Applied > 0 {
				m.replay(m.Applied - 1)
			}
		case "home", "g":
			m.replay(0)
		case "end", "G":
			m.replay(len(m.Script.Steps))
		}
	}
	return m, nil
}

func (m ViewModel) View() string {
	if m.err != nil {
		return StyleError.Render(m.err.Error()) + "\n"
	}

	var steps strings.Builder
	steps.WriteString(StyleTitle.Render(m.Script.Name))
	steps.WriteString("\n")
	steps.WriteString(listDimStyle.Render("←/→ step  g/G first/last  q quit"))
	steps.WriteString("\n\n")
	for i, st := range m.Script.Steps {
		cursor := "  "
		if i == m.Applied {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%s %2d %s", cursor, m.mark(i), i+1, st)
		switch {
		case i == m.Applied:
			steps.WriteString(listSelectedStyle.Render(line))
		case i < m.Applied:
			steps.WriteString(listNormalStyle.Render(line))
		default:
			steps.WriteString(listDimStyle.Render(line))
		}
		steps.WriteString("\n")
	}
	if m.Applied > 0 {
		if err := m.outcomes[m.Applied-1]; err != nil {
			steps.WriteString("\n")
			steps.WriteString(StyleError.Render(err.Error()))
			steps.WriteString("\n")
		}
	}
	steps.WriteString("\n")
	steps.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Applied, len(m.Script.Steps))))

	return lipgloss.JoinHorizontal(lipgloss.Top, steps.String(), "   ", m.dump())
}

// mark returns the status icon of step i.
func (m ViewModel) mark(i int) string {
	switch {
	case i >= m.Applied:
		return StyleDim.Render("·")
	case m.outcomes[i] != nil:
		return styleIconError.Render(iconError)
	default:
		return styleIconSuccess.Render(iconSuccess)
	}
}

// dump renders the current report with warnings highlighted.
func (m ViewModel) dump() string {
	var buf bytes.Buffer
	if err := m.report.Write(&buf, &buf); err != nil {
		return StyleError.Render(err.Error())
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	for i, line := range lines {
		if strings.Contains(line, "WARNING:") {
			lines[i] = StyleWarning.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
