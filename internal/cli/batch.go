package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/truthscan/internal/model"
	"github.com/ppiankov/truthscan/internal/pipeline"
	"github.com/ppiankov/truthscan/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many texts and URLs from a file in parallel",
	Long: `Batch analyzes every input of a file concurrently:
- One input per line; lines starting with http:// or https:// are URLs,
  anything else is analyzed as text
- Blank lines and # comments are skipped, duplicates analyzed once
- Outbound requests are rate limited per host
- One JSON report per input is written to the output directory

Example:
  truthscan batch inputs.txt
  truthscan batch inputs.txt --concurrency 8 --output-dir ./reports
  truthscan batch inputs.txt --timeout 20m --no-fact-check`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./truthscan-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noFactCheck, "no-fact-check", false, "skip web fact-checking")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the search/DNS cache")
	batchCmd.Flags().BoolVar(&includeRaw, "raw", false, "include raw provider outputs in the JSON reports")
	batchCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	batchCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyAnalyzeFlags(cmd, &cfg)
	if cmd.Flags().Changed("concurrency") || cfg.Concurrency.Workers <= 0 {
		cfg.Concurrency.Workers = concurrency
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "%s %s: %d workers, reports in %s, timeout %v\n\n",
		color.New(color.Bold).Sprint("truthscan batch"), file, cfg.Concurrency.Workers, outputDir, batchTimeout)

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	a, err := pipeline.NewAnalyzer(cfg, pipeline.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("init analyzer: %w", err)
	}

	processor := worker.NewBatchProcessor(a, cfg.Concurrency.Workers, cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeRaw, false)
	summary := batchSummary{verdicts: make(map[model.Verdict]int)}

	for _, result := range results {
		label := describeInput(result.Input)
		if result.Error == nil {
			name := fmt.Sprintf("%03d-%s.json", result.Index+1, sanitizeFilename(label))
			if err := renderer.RenderJSON(result.Report, filepath.Join(outputDir, name), nil); err != nil {
				result.Error = fmt.Errorf("write report: %w", err)
			}
		}
		if result.Error != nil {
			summary.failed++
			fmt.Fprintf(out, "%s %s: %v\n", color.RedString("✗"), label, result.Error)
			continue
		}

		verdict := result.Report.Result.Verdict
		summary.verdicts[verdict]++
		fmt.Fprintf(out, "%s %s (%s, suspicion %.2f)\n", color.GreenString("✓"), label, paintVerdict(verdict), result.Report.Result.SuspicionScore)
	}

	summary.total = len(results)
	summary.write(out, outputDir)
	return nil
}

type batchSummary struct {
	total    int
	failed   int
	verdicts map[model.Verdict]int
}

func (s batchSummary) write(w io.Writer, dir string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "\n%d inputs\t\n", s.total)
	for _, v := range model.AllVerdicts() {
		if n := s.verdicts[v]; n > 0 {
			fmt.Fprintf(tw, "  %s\t%d\n", v, n)
		}
	}
	if s.failed > 0 {
		fmt.Fprintf(tw, "  failed\t%d\n", s.failed)
	}
	fmt.Fprintf(tw, "reports\t%s\n", dir)
	_ = tw.Flush()
}

func describeInput(in model.AnalysisInput) string {
	if in.Kind == model.ModeURL {
		return in.URL
	}
	return model.SubjectFromText(in.Text)
}

func paintVerdict(v model.Verdict) string {
	switch v {
	case model.VerdictFake:
		return color.RedString(string(v))
	case model.VerdictNeedsReview:
		return color.YellowString(string(v))
	case model.VerdictProbablyReal:
		return color.GreenString(string(v))
	default:
		return string(v)
	}
}

var filenameReplacer = strings.NewReplacer(
	"https://", "",
	"http://", "",
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
	".", "-",
)

// sanitizeFilename turns a subject into a short file-name slug
func sanitizeFilename(s string) string {
	s = strings.Trim(filenameReplacer.Replace(strings.ToLower(s)), "_-")

	// Limit length
	runes := []rune(s)
	if len(runes) > 60 {
		s = strings.TrimRight(string(runes[:60]), "_-")
	}
	if s == "" {
		s = "input"
	}
	return s
}
