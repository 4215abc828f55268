package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/truthscan/internal/model"
)

// mockAnalyzer implements Analyzer
type mockAnalyzer struct {
	shouldError bool
	calls       atomic.Int32
}

func (m *mockAnalyzer) Analyze(ctx context.Context, input model.AnalysisInput) (*model.Report, error) {
	m.calls.Add(1)
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.shouldError {
		return nil, errors.New("analysis error")
	}
	subject := input.URL
	if input.Kind == model.ModeText {
		subject = model.SubjectFromText(input.Text)
	}
	return &model.Report{Mode: input.Kind, Subject: subject}, nil
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inputs.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_Process(t *testing.T) {
	analyzer := &mockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2, 0, 0)

	inputs := []model.AnalysisInput{
		model.URLInput("http://example.com"),
		model.TextInput("The moon landing was staged in a studio."),
		model.URLInput("http://bing.com"),
	}

	results := processor.Process(context.Background(), inputs)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.Index != i {
			t.Errorf("expected result %d to keep input order, got index %d", i, res.Index)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for input %d: %v", i, res.Error)
			continue
		}
		if res.Report == nil {
			t.Errorf("expected report for input %d", i)
			continue
		}
		if res.Report.Mode != inputs[i].Kind {
			t.Errorf("input %d: expected mode %s, got %s", i, inputs[i].Kind, res.Report.Mode)
		}
	}
}

func TestBatchProcessor_Process_Error(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{shouldError: true}, 2, 0, 0)

	results := processor.Process(context.Background(), []model.AnalysisInput{model.URLInput("http://example.com")})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Report != nil {
		t.Error("expected nil report on error")
	}
}

func TestBatchProcessor_Process_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 2, 0, 0)

	results := processor.Process(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_Process_ManyInputs(t *testing.T) {
	analyzer := &mockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 3, 0, 0)

	var inputs []model.AnalysisInput
	for i := 0; i < 20; i++ {
		inputs = append(inputs, model.TextInput("Some claim that needs checking."))
	}

	results := processor.Process(context.Background(), inputs)
	if len(results) != 20 {
		t.Fatalf("expected 20 results, got %d", len(results))
	}
	if analyzer.calls.Load() != 20 {
		t.Errorf("expected 20 analyzer calls, got %d", analyzer.calls.Load())
	}
}

func TestBatchProcessor_RateLimitedCancel(t *testing.T) {
	// One token per 100s: the second URL on the same host waits past the deadline
	processor := NewBatchProcessor(&mockAnalyzer{}, 1, 0.01, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	results := processor.Process(ctx, []model.AnalysisInput{
		model.URLInput("http://example.com/a"),
		model.URLInput("http://example.com/b"),
	})

	succeeded := 0
	for _, res := range results {
		if res.Error == nil {
			succeeded++
		}
	}
	if succeeded > 1 {
		t.Errorf("expected at most 1 success within the rate limit, got %d", succeeded)
	}
}

func TestParseInputLine(t *testing.T) {
	tests := []struct {
		line string
		want model.Mode
	}{
		{"http://example.com", model.ModeURL},
		{"HTTPS://example.com/a", model.ModeURL},
		{"Breaking: the president is dead", model.ModeText},
		{"example.com", model.ModeText},
	}
	for _, tt := range tests {
		if got := ParseInputLine(tt.line).Kind; got != tt.want {
			t.Errorf("ParseInputLine(%q) = %s, want %s", tt.line, got, tt.want)
		}
	}
}

func TestReadInputsFromFile(t *testing.T) {
	path := writeTemp(t, `http://example.com
# comment
Scientists confirm the vaccine study was published.
   
http://bing.com   
http://example.com`)

	inputs, err := ReadInputsFromFile(path)
	if err != nil {
		t.Fatalf("ReadInputsFromFile failed: %v", err)
	}

	if len(inputs) != 3 {
		t.Fatalf("expected 3 inputs after skipping comments and duplicates, got %d", len(inputs))
	}
	if inputs[0].URL != "http://example.com" || inputs[2].URL != "http://bing.com" {
		t.Errorf("unexpected URLs: %+v", inputs)
	}
	if inputs[1].Kind != model.ModeText {
		t.Errorf("expected text input, got %s", inputs[1].Kind)
	}
}

func TestReadInputsFromFile_NonExistent(t *testing.T) {
	if _, err := ReadInputsFromFile("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestAnalysisResult_GetError(t *testing.T) {
	r1 := &AnalysisResult{}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("analysis failed")
	r2 := &AnalysisResult{Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTemp(t, "http://example.com\nhttps://google.com\n# comment\n\nhttp://bing.com\n")

	results, err := NewBatchProcessor(&mockAnalyzer{}, 2, 0, 0).ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	_, err := NewBatchProcessor(&mockAnalyzer{}, 2, 0, 0).ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile_Empty(t *testing.T) {
	results, err := NewBatchProcessor(&mockAnalyzer{}, 2, 0, 0).ProcessFile(context.Background(), writeTemp(t, ""))
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results for empty file, got %d", len(results))
	}
}
