package models

import (
	"encoding/json"
	"fmt"
)

// Severity is the priority of a review issue. The set is closed: the three
// values below are the only ones the analysis service contract defines, and
// anything else is rejected when a result document is decoded.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityMajor    Severity = "Major"
	SeverityMinor    Severity = "Minor"
)

// ParseSeverity validates a raw severity string from the service.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Rank returns the sort rank of a severity: Critical=0, Major=1, Minor=2.
// Lower ranks sort first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityMajor:
		return 1
	default:
		return 2
	}
}

// UnmarshalJSON rejects severities outside the closed set, so a malformed
// result document fails at decode time instead of mis-sorting later.
func (s *Severity) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
