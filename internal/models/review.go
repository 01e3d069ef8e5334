package models

import "encoding/json"

// IssueType categories the analysis service emits. The set is open (the
// distribution map may carry keys outside this list), so these are untyped
// reference constants rather than a closed enum.
const (
	IssueTypeBugRisk      = "Bug Risk"
	IssueTypeCodeSmell    = "Code Smell"
	IssueTypeStyle        = "Style"
	IssueTypeSecurity     = "Security"
	IssueTypePerformance  = "Performance"
	IssueTypeBestPractice = "Best Practice"
)

// LineRange is the [start, end] span an issue refers to. The service encodes
// it as a two-element JSON array.
type LineRange struct {
	Start int
	End   int
}

// MarshalJSON encodes the range in the service's array form.
func (r LineRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Start, r.End})
}

// UnmarshalJSON accepts the service's array form, tolerating missing or extra
// elements.
func (r *LineRange) UnmarshalJSON(b []byte) error {
	var raw []int
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) > 0 {
		r.Start = raw[0]
	}
	if len(raw) > 1 {
		r.End = raw[1]
	}
	return nil
}

// Issue is a single finding reported for a reviewed file.
type Issue struct {
	LineRange      LineRange `json:"line_range"`
	Type           string    `json:"type"`
	Severity       Severity  `json:"severity"`
	Message        string    `json:"message"`
	Recommendation string    `json:"recommendation"`
	CodeExample    string    `json:"code_example,omitempty"`
}

// FileScore holds per-aspect quality scores in [0,100].
type FileScore struct {
	Maintainability float64 `json:"maintainability"`
	Readability     float64 `json:"readability"`
	Robustness      float64 `json:"robustness"`
	Security        float64 `json:"security"`
	Performance     float64 `json:"performance"`
	BestPractices   float64 `json:"best_practices"`
	Overall         float64 `json:"overall"`
}

// ReviewedFile is one file's slice of the review result.
type ReviewedFile struct {
	Filename  string    `json:"filename"`
	FilePath  string    `json:"file_path"`
	FileType  string    `json:"file_type,omitempty"`
	FileScore FileScore `json:"file_score"`
	Issues    []Issue   `json:"issues"`
}

// ReviewSummary aggregates the whole result document.
type ReviewSummary struct {
	TotalFiles                 int            `json:"total_files"`
	AverageScore               float64        `json:"average_score"`
	AverageMaintainability     float64        `json:"average_maintainability,omitempty"`
	AverageSecurity            float64        `json:"average_security,omitempty"`
	TotalIssuesFound           int            `json:"total_issues_found"`
	TotalImprovementsSuggested int            `json:"total_improvements_suggested"`
	CriticalIssues             int            `json:"critical_issues,omitempty"`
	Recommendation             string         `json:"recommendation,omitempty"`
	IssueDistribution          map[string]int `json:"issue_distribution,omitempty"`
}

// ReviewMetadata describes how the service produced the result.
type ReviewMetadata struct {
	ReviewedBy         string `json:"reviewed_by,omitempty"`
	Status             string `json:"status,omitempty"`
	Message            string `json:"message,omitempty"`
	TotalFilesScanned  int    `json:"total_files_scanned,omitempty"`
	TotalFilesReviewed int    `json:"total_files_reviewed,omitempty"`
}

// ReviewResult is the document the analysis service returns for an upload.
// It is immutable once decoded: every component downstream reads it, none
// writes it.
type ReviewResult struct {
	Metadata ReviewMetadata `json:"metadata"`
	Files    []ReviewedFile `json:"files"`
	Summary  ReviewSummary  `json:"summary"`
}

// AggregatedIssue is an Issue joined with the file it came from. Derived per
// render by the aggregator, never stored.
type AggregatedIssue struct {
	Issue
	Filename string `json:"filename"`
	FilePath string `json:"file_path"`
}
