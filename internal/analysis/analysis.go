package analysis

import (
	"fmt"
	"strconv"

	"booking-metrics/internal/metrics"
)

// Options select the compared years and ranking depth.
type Options struct {
	BaselineYear int
	CurrentYear  int
	TopN         int
}

// Validate checks the comparison window.
func (o Options) Validate() error {
	if o.BaselineYear <= 0 || o.CurrentYear <= 0 {
		return fmt.Errorf("baseline and current year must be set")
	}
	if o.BaselineYear == o.CurrentYear {
		return fmt.Errorf("baseline and current year must differ")
	}
	if o.TopN <= 0 {
		return fmt.Errorf("top must be greater than zero")
	}
	return nil
}

func (o Options) baselineKey() string { return strconv.Itoa(o.BaselineYear) }
func (o Options) currentKey() string  { return strconv.Itoa(o.CurrentYear) }

// QualityIssue records a degenerate rate worth a data-quality warning.
type QualityIssue struct {
	Analysis string
	Period   string
	Kind     string
	Total    int64
	Events   int64
	Detail   string
}

func issueFromRate(analysis string, res metrics.RateResult) (QualityIssue, bool) {
	switch res.Rate.Kind() {
	case metrics.RateNoBase:
		return QualityIssue{
			Analysis: analysis,
			Period:   res.Period,
			Kind:     res.Rate.Kind().String(),
			Total:    res.Total,
			Events:   res.Events,
			Detail:   fmt.Sprintf("%d events recorded with no base population", res.Events),
		}, true
	case metrics.RateAnomaly:
		return QualityIssue{
			Analysis: analysis,
			Period:   res.Period,
			Kind:     res.Rate.Kind().String(),
			Total:    res.Total,
			Events:   res.Events,
			Detail:   fmt.Sprintf("%d events exceed base of %d", res.Events, res.Total),
		}, true
	default:
		return QualityIssue{}, false
	}
}

// yearOf reads a year cell as its canonical decimal string.
func yearOf(t *metrics.Table, row int, col string) (string, error) {
	y, err := t.Int(row, col)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(y, 10), nil
}
