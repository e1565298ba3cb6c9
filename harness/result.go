// Package harness compiles and runs one native substring-search
// benchmark binary per grid point.
package harness

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Failure classes of a single benchmark task. Callers match them with
// errors.Is; the wrapped error carries the detail.
var (
	ErrBuild        = errors.New("build failure")
	ErrExecution    = errors.New("execution failure")
	ErrOutputFormat = errors.New("output format failure")
)

// Parametrization is the build-time configuration of one grid point.
type Parametrization struct {
	Operator     string `json:"operator"`
	HaystackSize int    `json:"haystack_size"`
	NeedleSize   int    `json:"needle_size"`
}

// Validate reports whether p can be compiled into a benchmark.
func (p Parametrization) Validate() error {
	if p.Operator == "" {
		return fmt.Errorf("operator must not be empty")
	}

	if p.HaystackSize < 0 {
		return fmt.Errorf("haystack size %d is negative", p.HaystackSize)
	}

	if p.NeedleSize < 1 {
		return fmt.Errorf("needle size %d must be at least 1", p.NeedleSize)
	}

	return nil
}

// Defines returns the preprocessor constants injected into the build.
func (p Parametrization) Defines() []string {
	return []string{
		"BENCH_NAME=" + p.Operator,
		"BENCH_HAY_SZ=" + strconv.Itoa(p.HaystackSize),
		"BENCH_NEEDLE_SZ=" + strconv.Itoa(p.NeedleSize),
	}
}

func (p Parametrization) String() string {
	return fmt.Sprintf("%s/%d/%d", p.Operator, p.HaystackSize, p.NeedleSize)
}

// Result holds the statistic reported by one benchmark binary.
type Result struct {
	AvgTimeNs          int64   `json:"avg_time_ns"`
	ConfidenceRelative float64 `json:"confidence_relative"`
}

const (
	avgTimeField    = 1
	confidenceField = 3
	minFields       = confidenceField + 1
)

// ParseRow decodes one comma-separated output row. Field 1 is the
// average time in nanoseconds and field 3 the relative confidence;
// the remaining fields are ignored.
func ParseRow(row string) (*Result, error) {
	fields := strings.Split(strings.TrimSpace(row), ",")
	if len(fields) < minFields {
		return nil, fmt.Errorf("%w: row %q has %d fields, want at least %d",
			ErrOutputFormat, row, len(fields), minFields)
	}

	avg, err := strconv.ParseInt(strings.TrimSpace(fields[avgTimeField]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: avg time in row %q: %v",
			ErrOutputFormat, row, err)
	}

	if avg < 0 {
		return nil, fmt.Errorf("%w: negative avg time %d", ErrOutputFormat, avg)
	}

	conf, err := strconv.ParseFloat(strings.TrimSpace(fields[confidenceField]), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: confidence in row %q: %v",
			ErrOutputFormat, row, err)
	}

	return &Result{AvgTimeNs: avg, ConfidenceRelative: conf}, nil
}

// ParseLastRow parses the last non-blank line of r. Earlier rows are
// partial measurements and are ignored.
func ParseLastRow(r io.Reader) (*Result, error) {
	var last string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := scanner.Text(); strings.TrimSpace(line) != "" {
			last = line
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read output: %v", ErrOutputFormat, err)
	}

	if last == "" {
		return nil, fmt.Errorf("%w: empty output", ErrOutputFormat)
	}

	return ParseRow(last)
}
