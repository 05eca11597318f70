package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/planestack/pkg/errors"
	"github.com/matzehuels/planestack/pkg/pipeline"
	"github.com/matzehuels/planestack/pkg/scenario"
)

// stdoutName is the output name that writes a single artifact to stdout.
const stdoutName = "-"

// runCommand creates the run command: play a scenario and write artifacts.
func (c *CLI) runCommand() *cobra.Command {
	var (
		flags      scenarioFlags
		formatsStr string
		output     string
		detailed   bool
		stack      bool
	)

	cmd := &cobra.Command{
		Use:   "run [scenario.toml]",
		Short: "Play a scenario and write the resulting artifacts",
		Long: `Play a scenario and write the resulting artifacts.

The scenario's steps are applied in order to a fresh plane context. Once
the last step has run (or the first step behaved unexpectedly), the stack
is validated and rendered to each requested format:

  text  the debug dump with warnings next to the planes they concern
  json  a snapshot that 'check' can restore
  dot   Graphviz source of the binding tree
  svg   the binding tree rendered with Graphviz
  png   the same as a raster image

Files are named after the scenario (or --output) with the format's
extension. Use --output - to write a single artifact to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := c.Config.Formats
			if cmd.Flags().Changed("format") {
				formats = parseFormats(formatsStr)
			}
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			if output == stdoutName && len(formats) != 1 {
				return errors.New(errors.ErrCodeInvalidInput, "--output - needs exactly one format")
			}
			opts := flags.options(args[0], c.Logger)
			opts.Formats = formats
			opts.Detailed = detailed
			opts.Stack = stack
			return c.runRun(cmd.Context(), opts, output, flags.noCache)
		},
	}

	flags.register(cmd, c.Config)
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): text, json, dot, svg, png (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path, or - for stdout")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show geometry and cursor in diagram nodes")
	cmd.Flags().BoolVar(&stack, "stack", false, "draw z-order edges in diagrams")

	return cmd
}

// runRun executes the pipeline and writes its artifacts. A step that did
// not behave as expected is reported after the artifacts are written.
func (c *CLI) runRun(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	play := startPlay(c.Logger)
	var spinner *Spinner
	if slices.Contains(opts.Formats, pipeline.FormatSVG) || slices.Contains(opts.Formats, pipeline.FormatPNG) {
		spinner = newSpinnerWithContext(ctx, "Rendering "+filepath.Base(opts.Path)+"...")
		spinner.Start()
	}

	result, err := runner.Execute(ctx, opts)
	if spinner != nil {
		spinner.Stop()
	}
	var stepErr *scenario.StepError
	if err != nil && !stderrors.As(err, &stepErr) {
		return err
	}
	play.done(result, stepErr)

	if output == stdoutName {
		_, err := os.Stdout.Write(result.Artifacts[opts.Formats[0]])
		if err != nil {
			return err
		}
	} else {
		paths, err := writeArtifacts(result.Artifacts, opts.Formats, basePath(output, opts.Path))
		if err != nil {
			return err
		}
		printSuccess("Played %s", StyleHighlight.Render(result.Script.Name))
		fmt.Println(statsLine(result.Stats.Steps, result.Stats.Planes, result.Stats.Findings, result.CacheInfo.RenderHit))
		for _, p := range paths {
			printFile(p)
		}
	}

	if stepErr != nil {
		return stepErr
	}
	if !result.Report.OK() {
		printFindings(result.Report)
		printNextStep("Inspect the stack", appName+" check "+opts.Path)
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .txt, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	for _, f := range errors.Formats {
		if ext == "."+pipeline.Extension(f) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

// writeArtifacts writes each requested format to base.<ext> and returns the
// paths written, in format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, base string) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	var paths []string
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok || slices.Contains(paths, base+"."+pipeline.Extension(format)) {
			continue
		}
		path := base + "." + pipeline.Extension(format)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
