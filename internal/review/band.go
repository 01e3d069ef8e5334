package review

import "sort"

// Band classifies a score for display coloring.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandFair      Band = "fair"
	BandPoor      Band = "poor"
)

// ColorBand maps a score in [0,100] to its band. The thresholds are the single
// shared classification rule for every surface that colors a score; keeping
// one copy avoids divergent cutoffs between the file list and the summary.
func ColorBand(score float64) Band {
	switch {
	case score >= 85:
		return BandExcellent
	case score >= 70:
		return BandGood
	case score >= 50:
		return BandFair
	default:
		return BandPoor
	}
}

// DistributionEntry is one (label, count) pair of the issue distribution.
type DistributionEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DistributionPairs converts the issue-type distribution into a
// deterministically ordered slice for charting: descending count, ties broken
// by label. A nil return signals "no issues" explicitly, as distinct from a
// chart with zero-height slices.
func DistributionPairs(dist map[string]int) []DistributionEntry {
	if len(dist) == 0 {
		return nil
	}
	out := make([]DistributionEntry, 0, len(dist))
	for label, count := range dist {
		out = append(out, DistributionEntry{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
