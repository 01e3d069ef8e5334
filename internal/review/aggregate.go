// Package review derives presentation data from a review result document.
// Everything here is pure: inputs are never mutated and no state is held, so
// callers need no synchronization.
package review

import (
	"sort"
	"strings"

	"github.com/crview/crview/internal/models"
)

// FilterAll is the filter predicate that matches every issue.
const FilterAll = "all"

// Flatten joins every issue in every file with its filename and path. File
// order and per-file issue order are preserved, so the output length is the
// sum of the per-file issue counts.
func Flatten(files []models.ReviewedFile) []models.AggregatedIssue {
	var out []models.AggregatedIssue
	for _, f := range files {
		for _, issue := range f.Issues {
			out = append(out, models.AggregatedIssue{
				Issue:    issue,
				Filename: f.Filename,
				FilePath: f.FilePath,
			})
		}
	}
	return out
}

// SortBySeverity returns a new slice ordered Critical, Major, Minor. The sort
// is stable: issues of equal severity keep their relative order from Flatten.
func SortBySeverity(issues []models.AggregatedIssue) []models.AggregatedIssue {
	sorted := make([]models.AggregatedIssue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() < sorted[j].Severity.Rank()
	})
	return sorted
}

// Filter returns the subsequence matching the predicate. The predicate is
// FilterAll or one of the three severity values, compared case-insensitively;
// FilterAll is the identity.
func Filter(issues []models.AggregatedIssue, pred string) []models.AggregatedIssue {
	if strings.EqualFold(pred, FilterAll) || pred == "" {
		return issues
	}
	var out []models.AggregatedIssue
	for _, issue := range issues {
		if strings.EqualFold(string(issue.Severity), pred) {
			out = append(out, issue)
		}
	}
	return out
}

// CountBySeverity tallies the full issue sequence. Counts label the filter
// controls, so they are always computed over the unfiltered sequence and are
// invariant under Filter.
func CountBySeverity(issues []models.AggregatedIssue) map[models.Severity]int {
	counts := make(map[models.Severity]int, 3)
	for _, issue := range issues {
		counts[issue.Severity]++
	}
	return counts
}
