package dashboard

import (
	"math"
	"sort"

	"insuranceInsights/domain"

	"gonum.org/v1/gonum/stat"
)

const whiskerIQR = 1.5

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// boxSummary sorts values in place.
func boxSummary(values []float64) domain.BoxSummary {
	if len(values) == 0 {
		return domain.BoxSummary{}
	}
	sort.Float64s(values)

	box := domain.BoxSummary{
		Count:  len(values),
		Min:    values[0],
		Q1:     quantile(values, 0.25),
		Median: quantile(values, 0.5),
		Q3:     quantile(values, 0.75),
		Max:    values[len(values)-1],
	}

	iqr := box.Q3 - box.Q1
	lowFence := box.Q1 - whiskerIQR*iqr
	highFence := box.Q3 + whiskerIQR*iqr

	box.WhiskerLow, box.WhiskerHigh = box.Max, box.Min
	for _, v := range values {
		if v < lowFence || v > highFence {
			box.Outliers++
			continue
		}
		if v < box.WhiskerLow {
			box.WhiskerLow = v
		}
		if v > box.WhiskerHigh {
			box.WhiskerHigh = v
		}
	}

	return box
}

func mean(values []float64) domain.NullFloat {
	if len(values) == 0 {
		return domain.NullFloat{}
	}
	return domain.Float(stat.Mean(values, nil))
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(count) / float64(total) * 100)
}

func round2(x float64) float64 {
	return math.RoundToEven(x*100) / 100
}
