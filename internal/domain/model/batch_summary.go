package model

import (
	"sort"
	"sync"

	"github.com/bibbank/creditrisk/internal/domain/valueobject"
)

// BandCounts tallies rows per risk band.
type BandCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Add counts one row in band.
func (c *BandCounts) Add(band valueobject.RiskBand) {
	switch {
	case band.Equal(valueobject.RiskBandLow):
		c.Low++
	case band.Equal(valueobject.RiskBandMedium):
		c.Medium++
	case band.Equal(valueobject.RiskBandHigh):
		c.High++
	}
}

// For returns the count for band.
func (c BandCounts) For(band valueobject.RiskBand) int {
	switch {
	case band.Equal(valueobject.RiskBandLow):
		return c.Low
	case band.Equal(valueobject.RiskBandMedium):
		return c.Medium
	case band.Equal(valueobject.RiskBandHigh):
		return c.High
	}
	return 0
}

// Total returns the number of counted rows.
func (c BandCounts) Total() int { return c.Low + c.Medium + c.High }

// RowIssue ties a reason to a zero-based data row index.
type RowIssue struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func sortIssues(issues []RowIssue) {
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Row < issues[j].Row })
}

// FailureLog is an append-only, goroutine-safe collection of row issues.
// Workers append in any order; Snapshot returns them ordered by row.
type FailureLog struct {
	mu     sync.Mutex
	issues []RowIssue
}

// Record appends an issue.
func (l *FailureLog) Record(row int, reason string) {
	l.mu.Lock()
	l.issues = append(l.issues, RowIssue{Row: row, Reason: reason})
	l.mu.Unlock()
}

// Len returns the number of recorded issues.
func (l *FailureLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.issues)
}

// Snapshot returns a sorted copy of the recorded issues.
func (l *FailureLog) Snapshot() []RowIssue {
	l.mu.Lock()
	out := make([]RowIssue, len(l.issues))
	copy(out, l.issues)
	l.mu.Unlock()
	sortIssues(out)
	return out
}

// BatchUploadSummary is the aggregate outcome of one bulk upload.
type BatchUploadSummary struct {
	UploadID      string     `json:"upload_id"`
	TotalRows     int        `json:"total_rows"`
	BandCounts    BandCounts `json:"band_counts"`
	PersistedRows int        `json:"persisted_rows"`
	// Failures are rows that could not be persisted.
	Failures []RowIssue `json:"failures"`
	// Degraded are rows that were scored with defaulted or sentinel values.
	Degraded []RowIssue `json:"degraded"`
	// Notes are upload-level data-quality remarks, such as absent columns.
	Notes []string `json:"notes"`
}

// FailedRows returns the number of rows that could not be persisted.
func (s BatchUploadSummary) FailedRows() int { return len(s.Failures) }
