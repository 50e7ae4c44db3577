package aggregate

import (
	"math"
	"sort"
)

// Derived holds the reportable metrics computed from one accumulator. All
// values are rounded to two decimals at this point and nowhere earlier;
// a zero or empty denominator always yields 0, never an error.
type Derived struct {
	AvgHandleTime             float64
	AvgMsgsPerConversation    float64
	AvgMsgsPerCustomer        float64
	FCRRatePct                float64
	AvgResponseTime           float64
	AvgFirstResponseTime      float64
	MedianFirstResponseTime   float64
	AvgFirstResolutionTime    float64
	MedianFirstResolutionTime float64
	ShortcutPct               float64
}

// Derive computes the derived metrics for an accumulator.
func (acc *Accumulator) Derive() Derived {
	return Derived{
		AvgHandleTime:             ratio(sum(acc.HandleTimes), float64(acc.ConversationsDone)),
		AvgMsgsPerConversation:    ratio(float64(acc.MessagesSent), float64(len(acc.ConversationsMessaged))),
		AvgMsgsPerCustomer:        ratio(float64(acc.MessagesSent), float64(len(acc.CustomersMessaged))),
		FCRRatePct:                ratio(float64(acc.FCRHits)*100, float64(acc.FCREligible)),
		AvgResponseTime:           mean(acc.ResponseTimes),
		AvgFirstResponseTime:      mean(acc.FirstResponseTimes),
		MedianFirstResponseTime:   median(acc.FirstResponseTimes),
		AvgFirstResolutionTime:    mean(acc.FirstResolutionTimes),
		MedianFirstResolutionTime: median(acc.FirstResolutionTimes),
		ShortcutPct:               ratio(float64(acc.ShortcutMessages)*100, float64(acc.MessagesSent)),
	}
}

// ratio divides with the zero-denominator policy applied.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return round2(num / den)
}

func sum(samples []float64) float64 {
	var total float64
	for _, s := range samples {
		total += s
	}
	return total
}

func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return round2(sum(samples) / float64(len(samples)))
}

// median returns the middle sample, averaging the two central values for
// even-sized inputs. The input slice is not modified.
func median(samples []float64) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)

	mid := n / 2
	if n%2 == 1 {
		return round2(sorted[mid])
	}
	return round2((sorted[mid-1] + sorted[mid]) / 2)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
