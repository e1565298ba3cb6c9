package harness_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/weiihann/strbench/harness"
	"github.com/weiihann/strbench/harness/harnesstest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRunner(t *testing.T, opts harnesstest.Options) *harness.Runner {
	t.Helper()

	r := harness.NewRunner(harnesstest.Compiler(t, opts), 5, 0, discardLogger())
	r.TempDir = t.TempDir()

	return r
}

func TestRunnerRun(t *testing.T) {
	r := newRunner(t, harnesstest.Options{})
	p := harness.Parametrization{Operator: "sz_find", HaystackSize: 65536, NeedleSize: 6}

	result, err := r.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.AvgTimeNs != 65542 {
		t.Errorf("avg_time_ns = %d, want 65542", result.AvgTimeNs)
	}
	if result.ConfidenceRelative != 0.05 {
		t.Errorf("confidence_relative = %v, want 0.05", result.ConfidenceRelative)
	}

	entries, err := os.ReadDir(r.TempDir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("task dirs left behind: %d entries", len(entries))
	}
}

func TestRunnerRunTrailingBlankLines(t *testing.T) {
	r := newRunner(t, harnesstest.Options{Artifact: harnesstest.ArtifactBlankTail})
	p := harness.Parametrization{Operator: "memmem", HaystackSize: 10, NeedleSize: 2}

	result, err := r.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.AvgTimeNs != 12 {
		t.Errorf("avg_time_ns = %d, want 12", result.AvgTimeNs)
	}
}

func TestRunnerRunFailures(t *testing.T) {
	tests := []struct {
		name string
		opts harnesstest.Options
		want error
	}{
		{"build", harnesstest.Options{FailBuild: true}, harness.ErrBuild},
		{"execution", harnesstest.Options{Artifact: harnesstest.ArtifactFail}, harness.ErrExecution},
		{"empty output", harnesstest.Options{Artifact: harnesstest.ArtifactEmpty}, harness.ErrOutputFormat},
		{"missing output", harnesstest.Options{Artifact: harnesstest.ArtifactNoOutput}, harness.ErrOutputFormat},
		{"malformed row", harnesstest.Options{Artifact: harnesstest.ArtifactMalformed}, harness.ErrOutputFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRunner(t, tt.opts)
			p := harness.Parametrization{Operator: "memmem", HaystackSize: 0, NeedleSize: 1}

			result, err := r.Run(context.Background(), p)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Run error = %v, want %v", err, tt.want)
			}
			if result != nil {
				t.Errorf("result = %+v, want nil", result)
			}

			entries, err := os.ReadDir(r.TempDir)
			if err != nil {
				t.Fatalf("read temp dir: %v", err)
			}
			if len(entries) != 0 {
				t.Errorf("task dirs left behind after failure: %d entries", len(entries))
			}
		})
	}
}

func TestRunnerRunInvalidParametrization(t *testing.T) {
	r := newRunner(t, harnesstest.Options{})

	_, err := r.Run(context.Background(), harness.Parametrization{Operator: "memmem"})
	if err == nil {
		t.Fatal("expected error for zero needle size")
	}
}

func TestRunnerExecCleansUpOnSuccess(t *testing.T) {
	r := newRunner(t, harnesstest.Options{})

	binPath := filepath.Join(t.TempDir(), "bench")
	outPath := filepath.Join(t.TempDir(), "results.csv")
	p := harness.Parametrization{Operator: "memmem", HaystackSize: 3, NeedleSize: 4}

	if err := r.Compiler.Build(context.Background(), discardLogger(), p, binPath); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	result, err := r.Exec(context.Background(), binPath, outPath)
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if result.AvgTimeNs != 7 {
		t.Errorf("avg_time_ns = %d, want 7", result.AvgTimeNs)
	}

	for _, path := range []string{binPath, outPath} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s still exists after Exec (stat err = %v)", path, err)
		}
	}
}

func TestRunnerExecKeepsFilesOnFailure(t *testing.T) {
	r := newRunner(t, harnesstest.Options{Artifact: harnesstest.ArtifactMalformed})

	binPath := filepath.Join(t.TempDir(), "bench")
	outPath := filepath.Join(t.TempDir(), "results.csv")
	p := harness.Parametrization{Operator: "memmem", HaystackSize: 3, NeedleSize: 4}

	if err := r.Compiler.Build(context.Background(), discardLogger(), p, binPath); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := r.Exec(context.Background(), binPath, outPath); err == nil {
		t.Fatal("expected error for malformed output")
	}

	for _, path := range []string{binPath, outPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s removed by failed Exec: %v", path, err)
		}
	}
}

func TestRunnerIsolatesConcurrentTasks(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "paths.log")
	r := newRunner(t, harnesstest.Options{PathLog: logPath})

	const tasks = 8

	var wg sync.WaitGroup
	errs := make([]error, tasks)
	results := make([]*harness.Result, tasks)

	for i := 0; i < tasks; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			p := harness.Parametrization{
				Operator: "sz_find", HaystackSize: i * 100, NeedleSize: i + 1,
			}
			results[i], errs[i] = r.Run(context.Background(), p)
		}(i)
	}

	wg.Wait()

	for i := 0; i < tasks; i++ {
		if errs[i] != nil {
			t.Fatalf("task %d failed: %v", i, errs[i])
		}

		want := int64(i*100 + i + 1)
		if results[i].AvgTimeNs != want {
			t.Errorf("task %d avg_time_ns = %d, want %d", i, results[i].AvgTimeNs, want)
		}
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read path log: %v", err)
	}

	lines := strings.Fields(strings.TrimSpace(string(data)))
	if len(lines) != 2*tasks {
		t.Fatalf("path log has %d entries, want %d", len(lines), 2*tasks)
	}

	seen := make(map[string]bool, len(lines))
	for _, path := range lines {
		if seen[path] {
			t.Errorf("path %s used by more than one task", path)
		}
		seen[path] = true
	}
}

func ExampleParseRow() {
	result, err := harness.ParseRow("x,1234,y,0.05")
	if err != nil {
		panic(err)
	}

	fmt.Println(result.AvgTimeNs, result.ConfidenceRelative)
	// Output: 1234 0.05
}
