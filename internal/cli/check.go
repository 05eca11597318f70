package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/planestack/pkg/pipeline"
	"github.com/matzehuels/planestack/pkg/plane"
	"github.com/matzehuels/planestack/pkg/scenario"
	"github.com/matzehuels/planestack/pkg/snapshot"
)

// errFindings is returned by check when a report is not clean, so the
// process exits non-zero.
var errFindings = stderrors.New("plane stack has findings")

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	var (
		flags scenarioFlags
		quiet bool
	)

	cmd := &cobra.Command{
		Use:   "check [scenario.toml | snapshot.json]",
		Short: "Validate a plane stack and print its debug dump",
		Long: `Validate a plane stack and print its debug dump.

For a scenario, every step is played and the final stack is validated,
along with the reports recorded by the scenario's check steps. For a JSON
snapshot written by 'run -f json', the stack is restored and validated.

The dump goes to stdout and warnings to stderr. The command exits non-zero
when any report has findings or a step behaved unexpectedly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var stdout, stderr io.Writer = os.Stdout, os.Stderr
			if quiet {
				stdout, stderr = io.Discard, io.Discard
			}
			return c.runCheck(cmd.Context(), args[0], flags, stdout, stderr)
		},
	}

	flags.register(cmd, c.Config)
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only report the outcome")

	return cmd
}

// runCheck validates the stack described by path and writes the dump to
// stdout and the warnings to stderr.
func (c *CLI) runCheck(ctx context.Context, path string, flags scenarioFlags, stdout, stderr io.Writer) error {
	if filepath.Ext(path) == ".json" {
		return c.checkSnapshot(ctx, path, stdout, stderr)
	}

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := flags.options(path, c.Logger)
	result, err := runner.Execute(ctx, opts)
	var stepErr *scenario.StepError
	if err != nil && !stderrors.As(err, &stepErr) {
		return err
	}

	findings := 0
	for i, r := range result.Playback.Reports() {
		if r.OK() {
			continue
		}
		printInfo("check step %d of %s", i+1, result.Script.Name)
		printFindings(r)
		findings += len(r.Findings)
	}
	if err := result.Report.Write(stdout, stderr); err != nil {
		return err
	}
	findings += len(result.Report.Findings)

	if stepErr != nil {
		return stepErr
	}
	return summarize(result.Script.Name, findings)
}

// checkSnapshot restores a JSON snapshot and validates it.
func (c *CLI) checkSnapshot(ctx context.Context, path string, stdout, stderr io.Writer) error {
	snap, err := snapshot.ImportJSON(path)
	if err != nil {
		return err
	}
	pc, err := snapshot.Restore(snap, plane.WithLogger(c.Logger))
	if err != nil {
		return fmt.Errorf("restore %s: %w", path, err)
	}
	defer pc.Close()

	report := pipeline.NewRunner(nil, nil, c.Logger).Validate(ctx, pc)
	if err := report.Write(stdout, stderr); err != nil {
		return err
	}
	return summarize(filepath.Base(path), len(report.Findings))
}

func summarize(name string, findings int) error {
	if findings > 0 {
		printWarning("%s: %d findings", name, findings)
		return fmt.Errorf("%w: %d", errFindings, findings)
	}
	printSuccess("%s is consistent", StyleHighlight.Render(name))
	return nil
}
