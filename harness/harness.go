package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

const (
	binaryName = "bench"
	outputName = "results.csv"
)

// Runner compiles and executes one benchmark per Parametrization.
type Runner struct {
	Compiler         Compiler
	ConfidenceTarget int
	Timeout          time.Duration
	// TempDir is the parent for per-task directories; empty means
	// os.TempDir.
	TempDir string
	Logger  *slog.Logger
}

// NewRunner creates a Runner with the given compiler and confidence
// target.
func NewRunner(
	compiler Compiler,
	confidence int,
	timeout time.Duration,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		Compiler:         compiler,
		ConfidenceTarget: confidence,
		Timeout:          timeout,
		Logger:           logger,
	}
}

// Run compiles p into a private directory, executes it and returns
// the parsed result. Both per-task directories are removed before Run
// returns, on success and on failure.
func (r *Runner) Run(ctx context.Context, p Parametrization) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parametrization %s: %w", p, err)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	binDir, err := os.MkdirTemp(r.TempDir, "strbench-bin-*")
	if err != nil {
		return nil, fmt.Errorf("create binary dir: %w", err)
	}
	defer r.removeDir(binDir)

	outDir, err := os.MkdirTemp(r.TempDir, "strbench-out-*")
	if err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	defer r.removeDir(outDir)

	binPath := filepath.Join(binDir, binaryName)
	outPath := filepath.Join(outDir, outputName)

	if err := r.Compiler.Build(ctx, r.Logger, p, binPath); err != nil {
		return nil, err
	}

	return r.Exec(ctx, binPath, outPath)
}

// Exec runs the compiled benchmark at binPath, then parses the last
// row written to outPath. After a successful parse both files are
// deleted; on failure they are left to the caller.
func (r *Runner) Exec(
	ctx context.Context,
	binPath, outPath string,
) (*Result, error) {
	cmd := exec.CommandContext(ctx, binPath,
		"--confidence="+strconv.Itoa(r.ConfidenceTarget),
		"--output="+outPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: benchmark %s: %v\nstderr: %s",
			ErrExecution, binPath, err, stderr.String())
	}

	r.Logger.DebugContext(ctx, "benchmark finished",
		slog.String("binary", binPath),
		slog.Duration("wall_time", time.Since(start)),
	)

	result, err := readResult(outPath)
	if err != nil {
		return nil, err
	}

	if err := errors.Join(os.Remove(outPath), os.Remove(binPath)); err != nil {
		return nil, fmt.Errorf("clean up benchmark files: %w", err)
	}

	return result, nil
}

func readResult(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open output %s: %v",
			ErrOutputFormat, path, err)
	}
	defer f.Close()

	result, err := ParseLastRow(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return result, nil
}

func (r *Runner) removeDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		r.Logger.Warn("failed to remove task dir",
			slog.String("dir", dir),
			slog.String("error", err.Error()),
		)
	}
}
