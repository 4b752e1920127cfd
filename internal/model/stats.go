package model

import "time"

// ProcessingStats is a snapshot of one batch run's progress. The
// orchestrator owns the live accumulator and hands out copies.
type ProcessingStats struct {
	Total      int       `json:"total"`
	Processed  int       `json:"processed"`
	Successful int       `json:"successful"`
	Partial    int       `json:"partial"`
	Failed     int       `json:"failed"`
	StartTime  time.Time `json:"start_time"`

	// EstimatedEndTime is recomputed after each record from the
	// observed throughput. Zero until a rate can be measured.
	EstimatedEndTime time.Time `json:"estimated_end_time,omitzero"`
}

// Remaining returns the number of records not yet processed.
func (s ProcessingStats) Remaining() int {
	return s.Total - s.Processed
}
