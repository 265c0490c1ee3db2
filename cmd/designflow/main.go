// designflow: Design Session Workflow MCP Server
//
// Guides an AI assistant and its user through a structured design
// process, from discovery to an implementation plan, confirming each
// phase against coverage thresholds and declared constraints.
//
// Usage:
//
//	designflow serve                 # Start MCP server (stdio transport)
//	designflow check --phase ID FILE # Gate a phase document (CI friendly)
//	designflow version
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/designflow/internal/config"
	"github.com/HendryAvila/designflow/internal/confirm"
	"github.com/HendryAvila/designflow/internal/logging"
	"github.com/HendryAvila/designflow/internal/metrics"
	dfserver "github.com/HendryAvila/designflow/internal/server"
	"github.com/HendryAvila/designflow/internal/session"
)

var (
	configPath  string
	metricsAddr string
	checkPhase  string
	checkCons   []string
)

// errGateFailed signals a failed check without printing a usage error.
var errGateFailed = errors.New("phase did not pass the coverage gate")

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errGateFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "designflow",
	Short: "Design session workflow MCP server",
	Long: `designflow drives structured design sessions over MCP: discovery,
requirements, architecture, specification and planning, each confirmed
against coverage thresholds and declared constraints before moving on.`,
	Version:       dfserver.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides config)")
	checkCmd.Flags().StringVar(&checkPhase, "phase", "", "catalog phase id the document is for (required)")
	checkCmd.Flags().StringSliceVar(&checkCons, "constraint", nil, "constraint id to enforce (repeatable)")
	_ = checkCmd.MarkFlagRequired("phase")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	RunE:  runServe,
}

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Gate a phase document against its coverage thresholds",
	Long: `Run a strict confirmation of one phase document without a session.
Exits non-zero when the document does not pass.

Examples:
  # Gate an architecture document
  designflow check --phase architecture docs/architecture.md

  # Enforce security as a mandatory constraint, reading stdin
  cat design.md | designflow check --phase specification --constraint technical.security -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("designflow v%s\n", dfserver.Version)
	},
}

func loadConfig() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, logger, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if metricsAddr != "" {
		cfg.Server.MetricsAddr = metricsAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.Default()
	s, cleanup, err := dfserver.New(cfg, logger, m)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	if addr := cfg.Server.MetricsAddr; addr != "" {
		srv := startMetrics(ctx, addr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info(ctx, "designflow starting",
		zap.String("version", dfserver.Version),
		zap.String("rationale_backend", cfg.Rationale.Backend))

	// Logs go to stderr so they don't interfere with MCP's stdio
	// transport on stdout.
	return server.ServeStdio(s)
}

// startMetrics serves /metrics in the background.
func startMetrics(ctx context.Context, addr string, logger *logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info(ctx, "metrics endpoint listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "metrics endpoint failed", zap.Error(err))
		}
	}()
	return srv
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	c, cleanup, err := dfserver.Build(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	gate := confirm.NewGate(c.Engine)
	res, err := gate.EnforceContent(cmd.Context(), session.Config{
		SessionID:   "check",
		Constraints: c.Provider.Lookup(checkCons),
	}, checkPhase, text)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	verdict := "PASS"
	if !res.Passed {
		verdict = "FAIL"
	}
	fmt.Fprintf(out, "%s %s: phase coverage %.0f%% (minimum %.0f%%), overall %.0f%%\n",
		verdict, checkPhase, res.PhaseCoverage, res.Threshold, res.OverallCoverage)
	for _, gap := range res.Gaps {
		fmt.Fprintf(out, "  - %s\n", gap)
	}
	if !res.Passed {
		return errGateFailed
	}
	return nil
}

// readInput reads the document from a file argument, or stdin for "-" or
// no argument.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}
