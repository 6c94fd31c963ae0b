package profile

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// NumericSummary describes a column whose non-empty values are all numbers.
// The standard deviation is the population deviation.
type NumericSummary struct {
	Count  int     `json:"count" yaml:"count"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
}

// ParseNumber reads a cell as a number. Percent signs, comma thousands
// separators and surrounding or non-breaking spaces are ignored.
func ParseNumber(s string) (float64, bool) {
	raw := strings.ReplaceAll(s, "\u00A0", " ")
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "%", ""))
	raw = strings.ReplaceAll(raw, ",", "")

	if raw == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}

// summarize returns nil unless at least one value is non-empty and every
// non-empty value parses as a number.
func summarize(counts map[string]int) *NumericSummary {
	values := make([]float64, 0, len(counts))

	for raw, n := range counts {
		if strings.TrimSpace(raw) == "" {
			continue
		}

		v, ok := ParseNumber(raw)
		if !ok {
			return nil
		}

		for range n {
			values = append(values, v)
		}
	}

	if len(values) == 0 {
		return nil
	}

	slices.Sort(values)

	mean, stddev := meanStdDev(values)

	return &NumericSummary{
		Count:  len(values),
		Min:    values[0],
		Max:    values[len(values)-1],
		Mean:   mean,
		Median: median(values),
		StdDev: stddev,
	}
}

func meanStdDev(values []float64) (mean, stddev float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}

	mean = sum / float64(len(values))

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}

	return mean, math.Sqrt(sumSq / float64(len(values)))
}

// median expects sorted input.
func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}

	return (sorted[mid-1] + sorted[mid]) / 2
}
