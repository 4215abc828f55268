package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/truthscan/internal/model"
	"github.com/ppiankov/truthscan/internal/pipeline"
)

var (
	outJSON     string
	timeout     time.Duration
	userAgent   string
	sentiment   string
	llmProvider string
	llmModel    string
	noFactCheck bool
	noCache     bool
	includeRaw  bool
	noColor     bool
	httpProxy   string
	httpsProxy  string
	caption     string
)

// analyzeCmd groups the three entry points
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a text, a web page or an image",
	Long: `Analyze gathers every applicable signal for the input and prints a verdict.

Example:
  truthscan analyze text "BREAKING: scientists confirm the Moon is made of cheese!!!"
  truthscan analyze url https://example.com/article --json report.json
  truthscan analyze image photo.jpg --caption "Flooded streets in Paris"
  truthscan analyze url https://example.com/article --sentiment llm --llm-provider openai`,
}

var analyzeTextCmd = &cobra.Command{
	Use:   "text <text>",
	Short: "Analyze a piece of text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if text == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(data)
		}
		return runAnalyze(cmd, func(ctx context.Context, a *pipeline.Analyzer) (*model.Report, error) {
			return a.AnalyzeText(ctx, text)
		})
	},
}

var analyzeURLCmd = &cobra.Command{
	Use:   "url <url>",
	Short: "Fetch and analyze a web page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd, func(ctx context.Context, a *pipeline.Analyzer) (*model.Report, error) {
			return a.AnalyzeURL(ctx, args[0])
		})
	},
}

var analyzeImageCmd = &cobra.Command{
	Use:   "image <file>",
	Short: "Analyze an image file for manipulation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		return runAnalyze(cmd, func(ctx context.Context, a *pipeline.Analyzer) (*model.Report, error) {
			report, err := a.AnalyzeImage(ctx, data, caption)
			if err == nil && caption == "" {
				report.Subject = args[0]
			}
			return report, err
		})
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.AddCommand(analyzeTextCmd, analyzeURLCmd, analyzeImageCmd)

	// Output flags
	analyzeCmd.PersistentFlags().StringVar(&outJSON, "json", "", "write the JSON report to this path (- for stdout)")
	analyzeCmd.PersistentFlags().BoolVar(&includeRaw, "raw", false, "include raw provider outputs in the JSON report")
	analyzeCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Provider flags
	analyzeCmd.PersistentFlags().DurationVar(&timeout, "timeout", 45*time.Second, "overall analysis timeout")
	analyzeCmd.PersistentFlags().StringVar(&sentiment, "sentiment", "lexicon", "sentiment classifier (lexicon, llm, off)")
	analyzeCmd.PersistentFlags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider for --sentiment llm (openai, anthropic, ollama)")
	analyzeCmd.PersistentFlags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	analyzeCmd.PersistentFlags().BoolVar(&noFactCheck, "no-fact-check", false, "skip web fact-checking")
	analyzeCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "disable the search/DNS cache")

	// HTTP flags
	analyzeCmd.PersistentFlags().StringVar(&userAgent, "ua", "", "HTTP User-Agent")
	analyzeCmd.PersistentFlags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	analyzeCmd.PersistentFlags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	analyzeImageCmd.Flags().StringVar(&caption, "caption", "", "caption or post text accompanying the image")
}

// applyAnalyzeFlags overlays explicitly set flags on the loaded configuration
func applyAnalyzeFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("sentiment") {
		cfg.Providers.Sentiment = sentiment
	}
	if flags.Changed("llm-provider") || (cfg.Providers.Sentiment == "llm" && cfg.LLM.Provider == "") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if noFactCheck {
		cfg.Providers.FactCheck = false
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if flags.Changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if httpProxy != "" {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if includeRaw {
		cfg.Output.IncludeRaw = true
	}
	if noColor {
		cfg.Output.Color = false
	}
	applyLLMEnv(&cfg.LLM)
}

type analyzeFunc func(ctx context.Context, a *pipeline.Analyzer) (*model.Report, error)

func runAnalyze(cmd *cobra.Command, analyze analyzeFunc) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyAnalyzeFlags(cmd, &cfg)
	if cmd.Flags().Changed("timeout") {
		cfg.Providers.RequestTimeout = timeout
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	a, err := pipeline.NewAnalyzer(cfg, pipeline.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("init analyzer: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Sentiment: %s  Fact-check: %v  Cache: %v\n",
			cfg.Providers.Sentiment, cfg.Providers.FactCheck, cfg.Cache.Enabled)
		fmt.Fprintf(os.Stderr, "⚙️  Gathering evidence...\n")
	}

	report, err := analyze(cmd.Context(), a)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %d signals available in %dms\n", report.Result.EvidenceCount, report.DurationMS)
	}

	return renderReport(cmd, cfg, report)
}

// renderReport writes the JSON report when requested and prints the summary.
// With --json - the summary goes to stderr so stdout stays machine-readable.
func renderReport(cmd *cobra.Command, cfg model.Config, report *model.Report) error {
	renderer := pipeline.NewRenderer(cfg.Output.IncludeRaw, cfg.Output.Color)
	summaryOut := cmd.OutOrStdout()

	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if outJSON == "-" {
			summaryOut = cmd.ErrOrStderr()
		} else if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}

	renderer.RenderSummary(summaryOut, report)
	return nil
}
