// Package cli implements the planestack command-line interface.
//
// This package provides commands for playing plane scenarios, checking the
// resulting stacks for broken invariants, browsing them interactively and
// serving them over HTTP for inspection. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - run: Play a scenario and write text, JSON, DOT, SVG or PNG artifacts
//   - check: Play a scenario (or restore a snapshot) and report findings
//   - ls: Print the final stack as a table
//   - view: Step through a scenario interactively
//   - serve: Expose a live plane context over HTTP
//   - cache: Manage the rendered artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which
// includes every plane mutation and one line per played step. The debug
// server tags its log lines with the request id.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/planestack/pkg/errors"
	"github.com/matzehuels/planestack/pkg/pipeline"
	"github.com/matzehuels/planestack/pkg/scenario"
)

// newLogger creates a logger writing to w at level, with timestamps like
// "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// playLog times a pipeline run and logs what the scenario did.
type playLog struct {
	logger *log.Logger
	start  time.Time
}

func startPlay(l *log.Logger) *playLog {
	return &playLog{logger: l, start: time.Now()}
}

// done logs every played step at debug level, a warning for a step that
// did not behave as its scenario says, and a summary line:
//
//	Played popup steps=6 planes=5 findings=0 elapsed=12ms
func (p *playLog) done(res *pipeline.Result, stepErr *scenario.StepError) {
	if res.Playback != nil {
		for _, r := range res.Playback.Results {
			p.step(r)
		}
	}
	if stepErr != nil {
		p.logger.Warn("step did not match scenario", "step", stepErr.Index+1, "op", stepErr.Step.Op, "err", stepErr)
	}
	p.logger.Info("Played "+res.Script.Name,
		"steps", res.Stats.Steps,
		"planes", res.Stats.Planes,
		"findings", res.Stats.Findings,
		"elapsed", time.Since(p.start).Round(time.Millisecond))
}

func (p *playLog) step(r scenario.Result) {
	kv := []any{"step", r.Index + 1, "op", r.Step.String()}
	if r.Err != nil {
		kv = append(kv, "code", errors.GetCode(r.Err))
	}
	if r.Report != nil {
		kv = append(kv, "findings", len(r.Report.Findings))
	}
	p.logger.Debug("played step", kv...)
}
