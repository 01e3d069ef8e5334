package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	for _, valid := range []string{"Critical", "Major", "Minor"} {
		s, err := ParseSeverity(valid)
		require.NoError(t, err)
		assert.Equal(t, Severity(valid), s)
	}

	for _, invalid := range []string{"", "critical", "Blocker", "High"} {
		_, err := ParseSeverity(invalid)
		assert.Error(t, err, "severity %q should be rejected", invalid)
	}
}

func TestSeverityRank_TotalOrder(t *testing.T) {
	assert.Less(t, SeverityCritical.Rank(), SeverityMajor.Rank())
	assert.Less(t, SeverityMajor.Rank(), SeverityMinor.Rank())
}

func TestReviewResult_DecodeRejectsUnknownSeverity(t *testing.T) {
	doc := `{
		"files": [{
			"filename": "a.py",
			"file_path": "a.py",
			"file_score": {"overall": 70},
			"issues": [{"line_range": [1, 3], "type": "Style", "severity": "Blocker", "message": "x", "recommendation": "y"}]
		}],
		"summary": {"total_files": 1, "average_score": 70}
	}`

	var result ReviewResult
	err := json.Unmarshal([]byte(doc), &result)
	require.Error(t, err, "unknown severity must fail at the ingestion boundary")
	assert.Contains(t, err.Error(), "Blocker")
}

func TestReviewResult_Decode(t *testing.T) {
	doc := `{
		"metadata": {"reviewed_by": "AI Code Review Engine", "status": "success", "total_files_reviewed": 1},
		"files": [{
			"filename": "a.py",
			"file_path": "src/a.py",
			"file_score": {"overall": 72, "security": 60, "best_practices": 80},
			"issues": [{"line_range": [4, 9], "type": "Security", "severity": "Critical", "message": "x", "recommendation": "y", "code_example": "z"}]
		}],
		"summary": {
			"total_files": 1,
			"average_score": 72,
			"total_issues_found": 3,
			"total_improvements_suggested": 5,
			"issue_distribution": {"Security": 1, "Style": 2}
		}
	}`

	var result ReviewResult
	require.NoError(t, json.Unmarshal([]byte(doc), &result))

	assert.Equal(t, 1, result.Metadata.TotalFilesReviewed)
	require.Len(t, result.Files, 1)
	f := result.Files[0]
	assert.Equal(t, "src/a.py", f.FilePath)
	assert.Equal(t, 72.0, f.FileScore.Overall)
	require.Len(t, f.Issues, 1)
	assert.Equal(t, LineRange{Start: 4, End: 9}, f.Issues[0].LineRange)
	assert.Equal(t, SeverityCritical, f.Issues[0].Severity)
	assert.Equal(t, 72.0, result.Summary.AverageScore)
	assert.Equal(t, map[string]int{"Security": 1, "Style": 2}, result.Summary.IssueDistribution)
}

func TestLineRange_RoundTrip(t *testing.T) {
	b, err := json.Marshal(LineRange{Start: 2, End: 7})
	require.NoError(t, err)
	assert.JSONEq(t, `[2, 7]`, string(b))

	var r LineRange
	require.NoError(t, json.Unmarshal([]byte(`[5]`), &r))
	assert.Equal(t, LineRange{Start: 5}, r)
}

func TestSession_Authenticated(t *testing.T) {
	assert.False(t, Session{}.Authenticated())
	assert.True(t, Session{UserID: "u1", Username: "alice"}.Authenticated())
}
