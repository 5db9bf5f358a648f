package storage

import (
	"time"
)

// QualityIssueRecord is a persisted data-quality warning.
type QualityIssueRecord struct {
	ID        int64
	Analysis  string
	Period    string
	Kind      string
	Total     int64
	Events    int64
	Detail    string
	CreatedAt time.Time
}
