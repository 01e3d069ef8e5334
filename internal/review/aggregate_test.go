package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crview/crview/internal/models"
)

func issue(sev models.Severity, msg string) models.Issue {
	return models.Issue{Severity: sev, Type: "Code Smell", Message: msg}
}

func TestFlatten_PreservesOrderAndLength(t *testing.T) {
	files := []models.ReviewedFile{
		{
			Filename: "a.py",
			FilePath: "src/a.py",
			Issues: []models.Issue{
				issue(models.SeverityMinor, "a1"),
				issue(models.SeverityCritical, "a2"),
			},
		},
		{Filename: "b.py", FilePath: "src/b.py"},
		{
			Filename: "c.py",
			FilePath: "src/c.py",
			Issues:   []models.Issue{issue(models.SeverityMajor, "c1")},
		},
	}

	flat := Flatten(files)
	require.Len(t, flat, 3, "length equals sum of per-file issue counts")

	assert.Equal(t, "a1", flat[0].Message)
	assert.Equal(t, "a2", flat[1].Message)
	assert.Equal(t, "c1", flat[2].Message)

	assert.Equal(t, "a.py", flat[0].Filename)
	assert.Equal(t, "src/a.py", flat[0].FilePath)
	assert.Equal(t, "c.py", flat[2].Filename)
}

func TestFlatten_Empty(t *testing.T) {
	assert.Empty(t, Flatten(nil))
	assert.Empty(t, Flatten([]models.ReviewedFile{{Filename: "a.py"}}))
}

func TestSortBySeverity_CriticalFirst(t *testing.T) {
	// Scenario: inserted [Minor, Critical], expect [Critical, Minor].
	issues := []models.AggregatedIssue{
		{Issue: issue(models.SeverityMinor, "m")},
		{Issue: issue(models.SeverityCritical, "c")},
	}

	sorted := SortBySeverity(issues)
	require.Len(t, sorted, 2)
	assert.Equal(t, models.SeverityCritical, sorted[0].Severity)
	assert.Equal(t, models.SeverityMinor, sorted[1].Severity)

	// Input untouched.
	assert.Equal(t, models.SeverityMinor, issues[0].Severity)
}

func TestSortBySeverity_Stable(t *testing.T) {
	issues := []models.AggregatedIssue{
		{Issue: issue(models.SeverityMajor, "first major")},
		{Issue: issue(models.SeverityMinor, "first minor")},
		{Issue: issue(models.SeverityMajor, "second major")},
		{Issue: issue(models.SeverityCritical, "critical")},
		{Issue: issue(models.SeverityMinor, "second minor")},
	}

	sorted := SortBySeverity(issues)
	want := []string{"critical", "first major", "second major", "first minor", "second minor"}
	for i, msg := range want {
		assert.Equal(t, msg, sorted[i].Message, "position %d", i)
	}
}

func TestFilter(t *testing.T) {
	issues := []models.AggregatedIssue{
		{Issue: issue(models.SeverityCritical, "c")},
		{Issue: issue(models.SeverityMajor, "m1")},
		{Issue: issue(models.SeverityMajor, "m2")},
	}

	assert.Equal(t, issues, Filter(issues, FilterAll), "all is the identity")
	assert.Equal(t, issues, Filter(issues, ""), "empty predicate is the identity")
	assert.Len(t, Filter(issues, string(models.SeverityMajor)), 2)
	assert.Len(t, Filter(issues, string(models.SeverityMinor)), 0)
	assert.Len(t, Filter(issues, "major"), 2, "predicate is case-insensitive")
}

func TestCountBySeverity_InvariantUnderFilter(t *testing.T) {
	issues := []models.AggregatedIssue{
		{Issue: issue(models.SeverityCritical, "c")},
		{Issue: issue(models.SeverityMajor, "m")},
		{Issue: issue(models.SeverityMinor, "n1")},
		{Issue: issue(models.SeverityMinor, "n2")},
	}

	counts := CountBySeverity(issues)
	assert.Equal(t, 1, counts[models.SeverityCritical])
	assert.Equal(t, 1, counts[models.SeverityMajor])
	assert.Equal(t, 2, counts[models.SeverityMinor])

	// Filtering never changes the totals shown on the filter buttons: counts
	// are computed over the full sequence, not the filtered view.
	_ = Filter(issues, string(models.SeverityCritical))
	assert.Equal(t, counts, CountBySeverity(issues))
}

func TestColorBand_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Band
	}{
		{0, BandPoor},
		{49.9, BandPoor},
		{50, BandFair},
		{69.9, BandFair},
		{70, BandGood},
		{72, BandGood},
		{84.9, BandGood},
		{85, BandExcellent},
		{100, BandExcellent},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ColorBand(tt.score), "score %v", tt.score)
	}
}

func TestColorBand_TotalOverIntegerRange(t *testing.T) {
	// Exactly one band per integer score in [0,100]: no gaps, no overlaps.
	for score := 0; score <= 100; score++ {
		band := ColorBand(float64(score))
		switch {
		case score >= 85:
			assert.Equal(t, BandExcellent, band, "score %d", score)
		case score >= 70:
			assert.Equal(t, BandGood, band, "score %d", score)
		case score >= 50:
			assert.Equal(t, BandFair, band, "score %d", score)
		default:
			assert.Equal(t, BandPoor, band, "score %d", score)
		}
	}
}

func TestDistributionPairs(t *testing.T) {
	pairs := DistributionPairs(map[string]int{
		"Security": 1,
		"Style":    2,
		"Bug Risk": 2,
	})
	require.Len(t, pairs, 3)
	assert.Equal(t, DistributionEntry{Label: "Bug Risk", Count: 2}, pairs[0])
	assert.Equal(t, DistributionEntry{Label: "Style", Count: 2}, pairs[1])
	assert.Equal(t, DistributionEntry{Label: "Security", Count: 1}, pairs[2])
}

func TestDistributionPairs_EmptySignalsNoIssues(t *testing.T) {
	assert.Nil(t, DistributionPairs(nil))
	assert.Nil(t, DistributionPairs(map[string]int{}))
}
