package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/ppiankov/truthscan/internal/model"
)

// Renderer writes reports as JSON and as a terminal summary
type Renderer struct {
	includeRaw bool
	noColor    bool
}

// NewRenderer creates a renderer; includeRaw keeps provider outputs in the JSON
func NewRenderer(includeRaw, useColor bool) *Renderer {
	return &Renderer{includeRaw: includeRaw, noColor: !useColor}
}

// RenderJSON writes the report to path, or to w when path is "-"
func (r *Renderer) RenderJSON(report *model.Report, path string, w io.Writer) error {
	data, err := r.Encode(report)
	if err != nil {
		return err
	}

	if path == "-" {
		_, err = w.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Encode encodes the report, dropping raw provider outputs unless requested
func (r *Renderer) Encode(report *model.Report) ([]byte, error) {
	out := *report
	if !r.includeRaw {
		out.Raw = nil
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}

// RenderSummary prints a short human-readable verdict
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	res := report.Result

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", r.paint(color.New(color.Bold), "Subject:"), report.Subject)
	fmt.Fprintf(w, "%s %s\n", r.paint(color.New(color.Bold), "Verdict:"), r.paint(verdictColor(res.Verdict), strings.ToUpper(string(res.Verdict))))
	fmt.Fprintf(w, "Suspicion: %.2f  Reliability: %.2f  Evidence: %d\n", res.SuspicionScore, res.ReliabilityScore, res.EvidenceCount)

	if len(res.Reasons) > 0 {
		fmt.Fprintln(w, "Reasons:")
		for _, reason := range res.Reasons {
			fmt.Fprintf(w, "  - %s\n", reason)
		}
	}

	fmt.Fprintln(w, "Evidence:")
	for _, rec := range report.Evidence {
		if !rec.Available {
			fmt.Fprintf(w, "  %-16s %s\n", rec.Kind, r.paint(color.New(color.FgHiBlack), "unavailable: "+rec.Reason))
			continue
		}
		fmt.Fprintf(w, "  %-16s %-13s strength %.2f\n", rec.Kind, rec.Polarity, rec.Strength)
	}

	if report.Content != nil && report.Content.Title != "" {
		fmt.Fprintf(w, "Page: %s\n", report.Content.Title)
	}
	fmt.Fprintf(w, "\n%s\n", r.paint(color.New(color.FgCyan), res.Recommendation))
}

func (r *Renderer) paint(c *color.Color, s string) string {
	if r.noColor {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

func verdictColor(v model.Verdict) *color.Color {
	switch v {
	case model.VerdictFake:
		return color.New(color.FgRed, color.Bold)
	case model.VerdictNeedsReview:
		return color.New(color.FgYellow, color.Bold)
	case model.VerdictProbablyReal:
		return color.New(color.FgGreen, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}
