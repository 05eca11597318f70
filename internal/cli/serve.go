package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/planestack/pkg/buildinfo"
	"github.com/matzehuels/planestack/pkg/cache"
	"github.com/matzehuels/planestack/pkg/errors"
	"github.com/matzehuels/planestack/pkg/observability"
	"github.com/matzehuels/planestack/pkg/pipeline"
	"github.com/matzehuels/planestack/pkg/plane"
	"github.com/matzehuels/planestack/pkg/scenario"
	"github.com/matzehuels/planestack/pkg/snapshot"
)

const shutdownTimeout = 5 * time.Second

// contentTypes maps artifact formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatText: "text/plain; charset=utf-8",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags scenarioFlags
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve [scenario.toml]",
		Short: "Serve a live plane context over HTTP",
		Long: `Serve a live plane context over HTTP.

The scenario is played once at startup. Further steps can be applied with
POST /steps, and the stack inspected at any time:

  GET  /planes   JSON snapshot of the stack
  GET  /debug    debug dump (?format=text|json|dot|svg|png)
  GET  /check    validator findings as JSON
  POST /steps    apply one JSON-encoded step
  POST /reset    replay the scenario on a fresh context
  GET  /healthz  liveness probe with build info`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], addr, flags)
		},
	}

	flags.register(cmd, c.Config)
	cmd.Flags().StringVar(&addr, "addr", c.Config.Addr, "listen address")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, path, addr string, flags scenarioFlags) error {
	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv, err := newServer(ctx, runner, flags.options(path, c.Logger))
	if err != nil {
		return err
	}

	hs := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		errc <- hs.ListenAndServe()
	}()

	printInfo("Serving %s on %s", StyleHighlight.Render(srv.script.Name), StyleValue.Render("http://"+addr))
	printDetail("session %s", srv.session)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return ctx.Err()
}

// =============================================================================
// Server
// =============================================================================

// server holds one live plane context. Every handler takes mu, so the
// context only ever sees one operation at a time.
type server struct {
	mu      sync.Mutex
	runner  *pipeline.Runner
	opts    pipeline.Options
	script  *scenario.Script
	pc      *plane.Context
	steps   int
	session string
	logger  *log.Logger
}

// newServer loads the scenario and plays it on a fresh context. Rendered
// artifacts are cached under a per-session key scope.
func newServer(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*server, error) {
	if opts.Logger == nil {
		opts.Logger = runner.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	script, err := runner.Load(opts)
	if err != nil {
		return nil, err
	}

	session := uuid.NewString()
	scoped := *runner
	scoped.Keyer = cache.NewScopedKeyer(runner.Keyer, session)

	s := &server{
		runner:  &scoped,
		opts:    opts,
		script:  script,
		session: session,
		logger:  opts.Logger.With("session", session[:8]),
	}
	if err := s.reset(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// reset replays the scenario on a fresh context. The caller holds mu or
// owns s exclusively.
func (s *server) reset(ctx context.Context) error {
	pc, err := s.opts.NewContext(s.script)
	if err != nil {
		return err
	}
	pb, err := scenario.Play(ctx, s.script, pc)
	var stepErr *scenario.StepError
	if err != nil && !stderrors.As(err, &stepErr) {
		_ = pc.Close()
		return err
	}
	if stepErr != nil {
		s.logger.Warn("scenario stopped early", "error", stepErr)
	}
	if s.pc != nil && !s.pc.Closed() {
		_ = s.pc.Close()
	}
	s.pc = pc
	s.steps = len(pb.Results)
	return nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Session: s.session, Build: buildinfo.Get()})
	})
	r.Get("/planes", s.handlePlanes)
	r.Get("/debug", s.handleDebug)
	r.Get("/check", s.handleCheck)
	r.Post("/steps", s.handleStep)
	r.Post("/reset", s.handleReset)
	return r
}

// observe reports requests to the HTTP hooks and attaches a request-scoped
// logger to the request context.
func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), requestLoggerKey{}, logger)))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, time.Since(start))
		logger.Debug("handled request", "method", r.Method, "path", r.URL.Path, "status", status, "duration", time.Since(start))
	})
}

// requestLoggerKey is the context key observe stores the request logger under.
type requestLoggerKey struct{}

// requestLogger returns the logger tagged with the request id, or the
// server's logger outside a request.
func (s *server) requestLogger(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(requestLoggerKey{}).(*log.Logger); ok {
		return l
	}
	return s.logger
}

// =============================================================================
// Handlers
// =============================================================================

func (s *server) handlePlanes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.runner.Validate(r.Context(), s.pc)
	writeJSON(w, http.StatusOK, snapshot.Take(s.pc, report))
}

func (s *server) handleDebug(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatText
	}
	if err := errors.ValidateFormat(format); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	opts := s.opts
	opts.Formats = []string{format}
	opts.Logger = s.requestLogger(r.Context())
	report := s.runner.Validate(r.Context(), s.pc)
	artifacts, err := s.runner.Render(r.Context(), s.pc, report, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	_, _ = w.Write(artifacts[format])
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status  string         `json:"status"`
	Session string         `json:"session"`
	Build   buildinfo.Info `json:"build"`
}

// checkResponse is the body of GET /check.
type checkResponse struct {
	OK       bool               `json:"ok"`
	Planes   int                `json:"planes"`
	Findings []snapshot.Finding `json:"findings"`
}

func (s *server) handleCheck(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.runner.Validate(r.Context(), s.pc)
	findings := snapshot.Findings(report)
	if findings == nil {
		findings = []snapshot.Finding{}
	}
	writeJSON(w, http.StatusOK, checkResponse{
		OK:       report.OK(),
		Planes:   len(report.Entries),
		Findings: findings,
	})
}

// stepResponse is the body of POST /steps.
type stepResponse struct {
	Index    int                `json:"index"`
	Step     scenario.Step      `json:"step"`
	OK       bool               `json:"ok"`
	Code     string             `json:"code,omitempty"`
	Error    string             `json:"error,omitempty"`
	Findings []snapshot.Finding `json:"findings,omitempty"`
}

// handleStep applies one step. The response is 200 when the step behaved
// as its expect field says and 422 otherwise.
func (s *server) handleStep(w http.ResponseWriter, r *http.Request) {
	var st scenario.Step
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&st); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidScenario, err, "decode step"))
		return
	}
	if err := scenario.ValidateStep(st); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := scenario.Apply(r.Context(), s.pc, st)
	resp := stepResponse{Index: s.steps, Step: st}
	s.steps++
	if res.Err != nil {
		resp.Code = string(errors.GetCode(res.Err))
		resp.Error = res.Err.Error()
	}
	if res.Report != nil {
		resp.Findings = snapshot.Findings(res.Report)
	}

	status := http.StatusOK
	if err := scenario.Check(st, res.Err); err != nil {
		status = http.StatusUnprocessableEntity
	} else {
		resp.OK = true
	}
	s.requestLogger(r.Context()).Info("applied step", "index", resp.Index, "step", st.String(), "ok", resp.OK)
	writeJSON(w, status, resp)
}

func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"steps": s.steps})
}

// =============================================================================
// Response Helpers
// =============================================================================

// errorResponse is the body of every error response.
type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypes[pipeline.FormatJSON])
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorResponse{Code: string(code), Error: errors.UserMessage(err)})
}
