package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/truthscan/internal/model"
)

// Analyzer runs one analysis; implemented by pipeline.Analyzer
type Analyzer interface {
	Analyze(ctx context.Context, input model.AnalysisInput) (*model.Report, error)
}

// AnalysisJob analyzes one batch input
type AnalysisJob struct {
	Index    int
	Input    model.AnalysisInput
	Analyzer Analyzer
	Limiter  *Limiter
}

// Execute executes the analysis job
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	result := &AnalysisResult{Index: j.Index, Input: j.Input}

	if j.Input.Kind == model.ModeURL {
		if err := j.Limiter.Wait(ctx, j.Input.URL); err != nil {
			result.Error = fmt.Errorf("rate limit: %w", err)
			return result
		}
	}

	report, err := j.Analyzer.Analyze(ctx, j.Input)
	if err != nil {
		result.Error = err
		return result
	}
	result.Report = report
	return result
}

// AnalysisResult represents the result of an analysis job
type AnalysisResult struct {
	Index  int
	Input  model.AnalysisInput
	Report *model.Report
	Error  error
}

// GetError returns the error from the analysis result
func (r *AnalysisResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple inputs on a bounded worker pool
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. URL inputs are rate limited
// per host; requestsPerSecond <= 0 disables the limit.
func NewBatchProcessor(analyzer Analyzer, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		limiter:     NewLimiter(requestsPerSecond, burst),
	}
}

// Process analyzes the inputs concurrently; results keep input order
func (b *BatchProcessor) Process(ctx context.Context, inputs []model.AnalysisInput) []*AnalysisResult {
	if len(inputs) == 0 {
		return []*AnalysisResult{}
	}

	pool := NewPoolContext(ctx, b.concurrency)
	pool.Start()

	// Submit from a separate goroutine so a full queue never blocks result draining
	go func() {
		defer pool.Close()
		for i, input := range inputs {
			if !pool.Submit(&AnalysisJob{Index: i, Input: input, Analyzer: b.analyzer, Limiter: b.limiter}) {
				return
			}
		}
	}()

	results := make([]*AnalysisResult, 0, len(inputs))
	for result := range pool.Results() {
		if r, ok := result.(*AnalysisResult); ok {
			results = append(results, r)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results
}

// ProcessFile reads inputs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalysisResult, error) {
	inputs, err := ReadInputsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}

	return b.Process(ctx, inputs), nil
}

// ParseInputLine turns a batch line into an input: http(s) lines are URLs, others text
func ParseInputLine(line string) model.AnalysisInput {
	lower := strings.ToLower(line)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return model.URLInput(line)
	}
	return model.TextInput(line)
}

// ReadInputsFromFile reads inputs from a file (one per line)
func ReadInputsFromFile(filePath string) ([]model.AnalysisInput, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var inputs []model.AnalysisInput
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			inputs = append(inputs, ParseInputLine(line))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return inputs, nil
}
