package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/bpowers/mathquill/internal/mcp"
	"github.com/bpowers/mathquill/internal/observability"
	"github.com/bpowers/mathquill/pkg/script"
)

const (
	shutdownTimeout = 10 * time.Second
	meterName       = "mqtree"
)

// RunResponse is the body returned by POST /api/run.
type RunResponse struct {
	Result *script.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
	Class  string         `json:"class,omitempty"`
	Issues []script.Issue `json:"issues,omitempty"`
}

// apiDeps are the collaborators of the HTTP API.
type apiDeps struct {
	logger      *slog.Logger
	tracer      trace.Tracer
	red         *observability.REDMetrics
	treeMetrics *observability.TreeMetrics
	metrics     http.Handler
	scripts     *script.LoadCache
	assertions  bool
}

// NewServeCommand creates the HTTP server command.
func NewServeCommand(global *GlobalOptions) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the script runner over HTTP",
		Long: `Start an HTTP server exposing the script runner.

Routes:
  POST /api/run   run the script in the request body, JSON result
  GET  /healthz   liveness probe
  GET  /metrics   Prometheus metrics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd.Context(), global, observability.ModeServe, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()

			if cmd.Flags().Changed("host") {
				env.cfg.Server.Host = host
			}

			if cmd.Flags().Changed("port") {
				env.cfg.Server.Port = port
			}

			return serve(cmd.Context(), env)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "interface to listen on (overrides server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")

	return cmd
}

func serve(ctx context.Context, env *environment) error {
	provider, promHandler, err := observability.PrometheusProvider()
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := provider.Shutdown(context.Background())
		if shutdownErr != nil {
			env.providers.Logger.Warn("prometheus provider shutdown failed", "error", shutdownErr)
		}
	}()

	meter := provider.Meter(meterName)

	red, err := observability.NewREDMetrics(meter)
	if err != nil {
		return err
	}

	treeMetrics, err := observability.NewTreeMetrics(meter)
	if err != nil {
		return err
	}

	handler := newServeMux(apiDeps{
		logger:      env.providers.Logger,
		tracer:      env.providers.Tracer,
		red:         red,
		treeMetrics: treeMetrics,
		metrics:     promHandler,
		scripts:     script.NewLoadCache(env.cfg.Server.ScriptCache),
		assertions:  env.cfg.Tree.Assertions,
	})

	server := &http.Server{
		Addr:         env.cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  env.cfg.Server.ReadTimeout,
		WriteTimeout: env.cfg.Server.WriteTimeout,
		IdleTimeout:  env.cfg.Server.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)

	go func() {
		env.providers.Logger.Info("mqtree server starting", "addr", "http://"+server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	env.providers.Logger.Info("mqtree server stopping")

	err = server.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

// newServeMux creates the HTTP mux. API routes are wrapped in the tracing
// and metrics middleware; probes and the scrape endpoint are not.
func newServeMux(deps apiDeps) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/run", deps.handleRun)

	mux := http.NewServeMux()
	mux.Handle("/api/", observability.HTTPMiddleware(deps.tracer, deps.red, api))
	mux.Handle("GET /healthz", observability.HealthHandler())

	if deps.metrics != nil {
		mux.Handle("GET /metrics", deps.metrics)
	}

	return mux
}

func (deps apiDeps) handleRun(rw http.ResponseWriter, hr *http.Request) {
	ctx := hr.Context()

	data, err := io.ReadAll(http.MaxBytesReader(rw, hr.Body, mcp.MaxScriptBytes))
	if err != nil {
		status := http.StatusBadRequest

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}

		writeJSON(ctx, deps.logger, rw, status, RunResponse{Error: err.Error()})

		return
	}

	parsed, err := deps.load(data)
	if err != nil {
		resp := RunResponse{Error: err.Error()}

		var verr *script.ValidationError
		if errors.As(err, &verr) {
			resp.Issues = verr.Issues
		}

		writeJSON(ctx, deps.logger, rw, http.StatusBadRequest, resp)

		return
	}

	assertions, _ := strconv.ParseBool(hr.URL.Query().Get("assertions"))

	opts := script.Options{
		Assertions: deps.assertions || assertions,
		Logger:     deps.logger,
	}

	if deps.treeMetrics != nil {
		opts.Observer = deps.treeMetrics.WithContext(ctx)
	}

	result, err := script.Run(ctx, parsed, opts)

	resp := RunResponse{Result: result}
	status := http.StatusOK

	if err != nil {
		resp.Error = err.Error()
		resp.Class = script.Classify(err)
		status = http.StatusUnprocessableEntity
	}

	writeJSON(ctx, deps.logger, rw, status, resp)
}

func (deps apiDeps) load(data []byte) (*script.Script, error) {
	if deps.scripts == nil {
		return script.Load(data)
	}

	return deps.scripts.Load(data)
}

// writeJSON encodes the given value as JSON and writes it to the response writer.
func writeJSON(ctx context.Context, logger *slog.Logger, rw http.ResponseWriter, status int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	encodeErr := json.NewEncoder(rw).Encode(value)
	if encodeErr != nil && logger != nil {
		logger.ErrorContext(ctx, "failed to encode JSON response", "error", encodeErr)
	}
}
