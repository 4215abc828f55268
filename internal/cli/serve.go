package cli

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ppiankov/truthscan/internal/api"
	"github.com/ppiankov/truthscan/internal/metrics"
	"github.com/ppiankov/truthscan/internal/pipeline"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Serve exposes the analysis entry points as a JSON API:

  POST /api/analyze/text    form or JSON {"text": "..."}
  POST /api/analyze/url     form or JSON {"url": "..."}
  POST /api/analyze/image   multipart "file" plus optional "caption"
  GET  /api/health
  GET  /metrics             Prometheus metrics (server.metrics)

Add ?raw=true to an analyze request to include raw provider outputs.

Example:
  truthscan serve --addr :8000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.New()
	a, err := pipeline.NewAnalyzer(cfg, pipeline.Options{Logger: logger, Metrics: m})
	if err != nil {
		return fmt.Errorf("init analyzer: %w", err)
	}

	srv := api.NewServer(cfg.Server, a, m, cfg.Forensics.MaxImageBytes, Version, logger)
	return srv.Run(cmd.Context())
}
