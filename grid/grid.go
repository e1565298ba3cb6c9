// Package grid enumerates the (haystack size, needle size) points a
// benchmark sweep visits.
package grid

import "fmt"

// Axis is an evenly spaced sampling of the closed range [Min, Max].
type Axis struct {
	Min   int `mapstructure:"min" json:"min"`
	Max   int `mapstructure:"max" json:"max"`
	Count int `mapstructure:"count" json:"count"`
}

// Values returns Count evenly spaced values from Min to Max inclusive.
// Fractional positions are truncated toward Min.
func (a Axis) Values() []int {
	switch {
	case a.Count <= 0:
		return nil
	case a.Count == 1:
		return []int{a.Min}
	}

	span := a.Max - a.Min
	steps := a.Count - 1

	values := make([]int, a.Count)
	for i := range values {
		values[i] = a.Min + span*i/steps
	}

	return values
}

func (a Axis) validate(name string, lowest int) error {
	if a.Count < 0 {
		return fmt.Errorf("%s axis: negative count %d", name, a.Count)
	}

	if a.Max < a.Min {
		return fmt.Errorf("%s axis: max %d below min %d", name, a.Max, a.Min)
	}

	if a.Min < lowest {
		return fmt.Errorf("%s axis: min %d below %d", name, a.Min, lowest)
	}

	return nil
}

// Point is one grid coordinate.
type Point struct {
	HaystackSize int
	NeedleSize   int
}

// Grid is the Cartesian product of a haystack axis and a needle axis.
type Grid struct {
	Haystack Axis `mapstructure:"haystack" json:"haystack"`
	Needle   Axis `mapstructure:"needle" json:"needle"`
}

// Validate checks that both axes describe usable sizes.
func (g Grid) Validate() error {
	if err := g.Haystack.validate("haystack", 0); err != nil {
		return err
	}

	return g.Needle.validate("needle", 1)
}

// Len returns the number of points the grid enumerates.
func (g Grid) Len() int {
	return max(g.Haystack.Count, 0) * max(g.Needle.Count, 0)
}

// Points returns every grid point, haystack-major.
func (g Grid) Points() []Point {
	hay := g.Haystack.Values()
	needle := g.Needle.Values()

	points := make([]Point, 0, len(hay)*len(needle))
	for _, h := range hay {
		for _, n := range needle {
			points = append(points, Point{HaystackSize: h, NeedleSize: n})
		}
	}

	return points
}
