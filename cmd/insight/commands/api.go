package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/umebot/insight/internal/api"
	"github.com/umebot/insight/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                  - Health check
  GET  /metrics                 - Prometheus metrics
  POST /api/analysis/causal     - Complete analysis for a date range
  GET  /api/analysis/forecast   - Revenue forecast (?days=&end=)
  GET  /api/analysis/metrics    - Week-over-week key metrics (?end=)
  GET  /api/analysis/runs/{id}  - Stored analysis run

Example:
  go run ./cmd/insight api
  go run ./cmd/insight api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Insight API Server ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port":  a.cfg.Port,
		"env":   a.cfg.Env,
		"redis": a.redis.Enabled(),
	}).Info("Initializing API server")

	analysisHandler := handlers.NewAnalysisHandler(a.service, a.cfg.Analysis.ForecastHorizon, a.log)
	router := api.NewRouter(analysisHandler, a.db, a.metricsHandler(), a.log)
	server := api.New(a.cfg, a.log, router)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
