package metrics

import (
	"errors"
	"fmt"
)

// ErrData is the root of every input-data failure raised by the calculator.
var ErrData = errors.New("metrics: invalid input data")

// DataError reports malformed, missing, or negative input. It aborts the batch.
type DataError struct {
	Column string
	Row    int
	Reason string
}

func (e *DataError) Error() string {
	switch {
	case e.Column != "" && e.Row >= 0:
		return fmt.Sprintf("metrics: column %q row %d: %s", e.Column, e.Row, e.Reason)
	case e.Column != "":
		return fmt.Sprintf("metrics: column %q: %s", e.Column, e.Reason)
	case e.Row >= 0:
		return fmt.Sprintf("metrics: row %d: %s", e.Row, e.Reason)
	default:
		return "metrics: " + e.Reason
	}
}

// Unwrap lets callers match any DataError with errors.Is(err, ErrData).
func (e *DataError) Unwrap() error { return ErrData }

func negativeInput(name string, v int64) error {
	return &DataError{Row: -1, Reason: fmt.Sprintf("%s must not be negative, got %d", name, v)}
}
