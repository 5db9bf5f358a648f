package metrics

import "github.com/shopspring/decimal"

// ChangeKind classifies a percentage change.
type ChangeKind int

const (
	ChangeNumeric ChangeKind = iota
	// ChangeZeroBaseline marks a change against a zero baseline.
	ChangeZeroBaseline
	// ChangeNoData marks a comparison where one side had no defined value.
	ChangeNoData
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeZeroBaseline:
		return "zero_baseline"
	case ChangeNoData:
		return "no_data"
	default:
		return "numeric"
	}
}

var hundred = decimal.NewFromInt(100)

// Change is a tagged percentage change.
type Change struct {
	kind  ChangeKind
	value decimal.Decimal
}

// Kind reports how the change was classified.
func (c Change) Kind() ChangeKind { return c.kind }

// Value returns the signed, unrounded percentage. ok is false for sentinels.
func (c Change) Value() (decimal.Decimal, bool) {
	if c.kind != ChangeNumeric {
		return decimal.Zero, false
	}
	return c.value, true
}

// Display renders the change as "+12.34%" or a sentinel string.
func (c Change) Display() string {
	switch c.kind {
	case ChangeZeroBaseline:
		return DisplayZeroBaseline
	case ChangeNoData:
		return DisplayNoData
	}
	s := c.value.StringFixedBank(2) + "%"
	if c.value.IsPositive() {
		return "+" + s
	}
	return s
}

func (c Change) String() string { return c.Display() }

// PercentageChange returns (current-baseline)/baseline*100.
func PercentageChange(baseline, current decimal.Decimal) Change {
	if baseline.IsZero() {
		return Change{kind: ChangeZeroBaseline}
	}
	return Change{kind: ChangeNumeric, value: current.Sub(baseline).Div(baseline).Mul(hundred)}
}

// EPSChange compares two optional EPS values.
func EPSChange(baseline, current EPS) Change {
	b, okB := baseline.Value()
	c, okC := current.Value()
	if !okB || !okC {
		return Change{kind: ChangeNoData}
	}
	return PercentageChange(b, c)
}
