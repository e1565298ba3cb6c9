// Package report formats sampled benchmark series into comparison
// tables and a 3-D scatter chart.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/weiihann/strbench/sampler"
)

// Series is the sampled grid of one operator variant.
type Series struct {
	Label   string           `json:"label"`
	Samples []sampler.Sample `json:"samples"`
}

// Columns splits samples into the parallel haystack, needle and time
// sequences the chart plots.
func Columns(samples []sampler.Sample) (xs, ys []int, zs []int64) {
	xs = make([]int, len(samples))
	ys = make([]int, len(samples))
	zs = make([]int64, len(samples))

	for i, s := range samples {
		xs[i] = s.HaystackSize
		ys[i] = s.NeedleSize
		zs[i] = s.AvgTimeNs
	}

	return xs, ys, zs
}

// Generate writes a markdown comparison of the given series.
func Generate(w io.Writer, series []Series) error {
	if len(series) == 0 {
		return fmt.Errorf("no results to report")
	}

	totals := make([]int64, len(series))
	for i, s := range series {
		totals[i] = totalTime(s.Samples)
	}

	fastest := findFastest(totals)

	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)

	// Summary.
	fmt.Fprintln(w, "| Variant | Points | Total Time | Slowdown |")
	fmt.Fprintln(w, "|---------|--------|------------|----------|")

	for i, s := range series {
		slowdown := 1.0
		if fastest > 0 && totals[i] > 0 {
			slowdown = float64(totals[i]) / float64(fastest)
		}

		fmt.Fprintf(w, "| %s | %d | %s | %.2fx |\n",
			s.Label, len(s.Samples), formatNs(totals[i]), slowdown)
	}

	// Per-variant detail.
	for _, s := range series {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "### %s\n", s.Label)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Haystack | Needle | Avg Time | Confidence |")
		fmt.Fprintln(w, "|----------|--------|----------|------------|")

		for _, p := range s.Samples {
			fmt.Fprintf(w, "| %s | %d | %s | ±%.1f%% |\n",
				formatBytes(uint64(p.HaystackSize)),
				p.NeedleSize,
				formatNs(p.AvgTimeNs),
				p.ConfidenceRelative*100,
			)
		}
	}

	return nil
}

// GenerateJSON writes series as JSON to w.
func GenerateJSON(w io.Writer, series []Series) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(series)
}

func totalTime(samples []sampler.Sample) int64 {
	var total int64
	for _, s := range samples {
		total += s.AvgTimeNs
	}

	return total
}

func findFastest(totals []int64) int64 {
	fastest := int64(math.MaxInt64)
	for _, t := range totals {
		if t > 0 && t < fastest {
			fastest = t
		}
	}

	if fastest == math.MaxInt64 {
		return 0
	}

	return fastest
}

func formatNs(ns int64) string {
	switch {
	case ns < 1_000:
		return fmt.Sprintf("%dns", ns)
	case ns < 1_000_000:
		return fmt.Sprintf("%.2fµs", float64(ns)/1e3)
	case ns < 1_000_000_000:
		return fmt.Sprintf("%.2fms", float64(ns)/1e6)
	default:
		return fmt.Sprintf("%.2fs", float64(ns)/1e9)
	}
}

func formatBytes(b uint64) string {
	if b == 0 {
		return "0 B"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(b)
	unit := 0

	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}

	formatted := fmt.Sprintf("%.1f", size)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimRight(formatted, ".")

	return formatted + " " + units[unit]
}
