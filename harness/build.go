package harness

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// Compiler builds benchmark binaries from a single source file.
type Compiler struct {
	Path   string
	Source string
	Flags  []string
}

// DefaultFlags returns the optimization and include flags applied to
// every build. They never vary per grid point.
func DefaultFlags() []string {
	return []string{
		"-Ithird-party/ubench/include",
		"-lm",
		"-Ofast",
		"-UNDEBUG",
		"-flto",
		"-fomit-frame-pointer",
		"-march=native",
		"-Istringzilla",
		"-Ibuild/_deps/stringzilla-src/include",
	}
}

// Args returns the compiler argument list for p writing to binPath.
func (c Compiler) Args(p Parametrization, binPath string) []string {
	args := make([]string, 0, len(c.Flags)+6)
	args = append(args, "-o", binPath, c.Source)
	args = append(args, c.Flags...)

	for _, d := range p.Defines() {
		args = append(args, "-D"+d)
	}

	return args
}

// Build compiles the benchmark for p into binPath. The directory of
// binPath must already exist.
func (c Compiler) Build(
	ctx context.Context,
	logger *slog.Logger,
	p Parametrization,
	binPath string,
) error {
	logger.DebugContext(ctx, "building benchmark",
		slog.String("operator", p.Operator),
		slog.Int("haystack_size", p.HaystackSize),
		slog.Int("needle_size", p.NeedleSize),
		slog.String("binary", binPath),
	)

	cmd := exec.CommandContext(ctx, c.Path, c.Args(p, binPath)...)

	var diag bytes.Buffer
	cmd.Stdout = &diag
	cmd.Stderr = &diag

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: compile %s: %v\ndiagnostics: %s",
			ErrBuild, p, err, diag.String())
	}

	if _, err := os.Stat(binPath); err != nil {
		return fmt.Errorf("%w: compile %s: binary not found at %s",
			ErrBuild, p, binPath)
	}

	return nil
}
