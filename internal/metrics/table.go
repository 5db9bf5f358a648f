package metrics

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Row maps column names to raw values as produced by the data source.
type Row map[string]any

// Table is a materialised query result.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds a row whose values follow the column order.
func (t *Table) Append(values ...any) {
	row := make(Row, len(t.Columns))
	for i, col := range t.Columns {
		if i < len(values) {
			row[col] = values[i]
		}
	}
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Require fails when any of cols is not part of the table header.
func (t *Table) Require(cols ...string) error {
	if t == nil {
		return &DataError{Row: -1, Reason: "no table"}
	}
	known := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		known[c] = struct{}{}
	}
	for _, c := range cols {
		if _, ok := known[c]; !ok {
			return &DataError{Column: c, Row: -1, Reason: "required column missing"}
		}
	}
	return nil
}

// IsNull reports whether the cell is absent or nil.
func (t *Table) IsNull(row int, col string) bool {
	v, ok := t.Rows[row][col]
	return !ok || v == nil
}

// Int reads an integral cell. Floats are accepted only without a fraction.
func (t *Table) Int(row int, col string) (int64, error) {
	raw, err := t.cell(row, col)
	if err != nil {
		return 0, err
	}

	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, t.invalid(row, col, raw)
		}
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, t.invalid(row, col, raw)
		}
		return int64(v), nil
	case float32:
		return floatToInt(float64(v), func() error { return t.invalid(row, col, raw) })
	case float64:
		return floatToInt(v, func() error { return t.invalid(row, col, raw) })
	case decimal.Decimal:
		if !v.Equal(v.Truncate(0)) {
			return 0, t.invalid(row, col, raw)
		}
		return v.IntPart(), nil
	case string:
		n, perr := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if perr != nil {
			return 0, t.invalid(row, col, raw)
		}
		return n, nil
	case []byte:
		n, perr := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if perr != nil {
			return 0, t.invalid(row, col, raw)
		}
		return n, nil
	default:
		return 0, t.invalid(row, col, raw)
	}
}

// Decimal reads a numeric cell as an exact decimal.
func (t *Table) Decimal(row int, col string) (decimal.Decimal, error) {
	raw, err := t.cell(row, col)
	if err != nil {
		return decimal.Zero, err
	}

	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case float32:
		return floatToDecimal(float64(v), func() error { return t.invalid(row, col, raw) })
	case float64:
		return floatToDecimal(v, func() error { return t.invalid(row, col, raw) })
	case string:
		d, perr := decimal.NewFromString(strings.TrimSpace(v))
		if perr != nil {
			return decimal.Zero, t.invalid(row, col, raw)
		}
		return d, nil
	case []byte:
		d, perr := decimal.NewFromString(strings.TrimSpace(string(v)))
		if perr != nil {
			return decimal.Zero, t.invalid(row, col, raw)
		}
		return d, nil
	default:
		n, ierr := t.Int(row, col)
		if ierr != nil {
			return decimal.Zero, ierr
		}
		return decimal.NewFromInt(n), nil
	}
}

// String reads a label cell. Numbers are formatted in their natural form.
func (t *Table) String(row int, col string) (string, error) {
	raw, err := t.cell(row, col)
	if err != nil {
		return "", err
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func (t *Table) cell(row int, col string) (any, error) {
	if row < 0 || row >= len(t.Rows) {
		return nil, &DataError{Column: col, Row: row, Reason: "row out of range"}
	}
	v, ok := t.Rows[row][col]
	if !ok {
		return nil, &DataError{Column: col, Row: row, Reason: "value missing"}
	}
	if v == nil {
		return nil, &DataError{Column: col, Row: row, Reason: "value is null"}
	}
	return v, nil
}

func (t *Table) invalid(row int, col string, v any) error {
	return &DataError{Column: col, Row: row, Reason: fmt.Sprintf("non-numeric value %v (%T)", v, v)}
}

func floatToInt(f float64, fail func() error) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fail()
	}
	// 2^63 is exactly representable; anything at or beyond it overflows int64.
	if f >= 9.223372036854775807e18 || f < -9.223372036854775808e18 {
		return 0, fail()
	}
	return int64(f), nil
}

func floatToDecimal(f float64, fail func() error) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fail()
	}
	return decimal.NewFromFloat(f), nil
}

// PeriodAggregatesFromTable extracts count pairs, failing on the first bad cell.
func PeriodAggregatesFromTable(t *Table, periodCol, totalCol, eventsCol string) ([]PeriodAggregate, error) {
	if err := t.Require(periodCol, totalCol, eventsCol); err != nil {
		return nil, err
	}

	out := make([]PeriodAggregate, 0, t.Len())
	for i := range t.Rows {
		period, err := t.String(i, periodCol)
		if err != nil {
			return nil, err
		}
		total, err := t.Int(i, totalCol)
		if err != nil {
			return nil, err
		}
		events, err := t.Int(i, eventsCol)
		if err != nil {
			return nil, err
		}
		if total < 0 {
			return nil, &DataError{Column: totalCol, Row: i, Reason: "negative count"}
		}
		if events < 0 {
			return nil, &DataError{Column: eventsCol, Row: i, Reason: "negative count"}
		}
		out = append(out, PeriodAggregate{Period: period, Total: total, Events: events})
	}
	return out, nil
}

// SeatCount reads an optional seat count. A null cell is an absent count and
// reads as 0, which makes any EPS over it undefined. Negative counts fail.
func (t *Table) SeatCount(row int, col string) (int64, error) {
	if t.IsNull(row, col) {
		return 0, nil
	}
	seats, err := t.Int(row, col)
	if err != nil {
		return 0, err
	}
	if seats < 0 {
		return 0, &DataError{Column: col, Row: row, Reason: "negative seat count"}
	}
	return seats, nil
}

// epsRecordAt extracts the EPS record of one row.
func epsRecordAt(t *Table, row int, keyCol, amountCol, seatsCol string) (EPSRecord, error) {
	key, err := t.String(row, keyCol)
	if err != nil {
		return EPSRecord{}, err
	}
	amount, err := t.Decimal(row, amountCol)
	if err != nil {
		return EPSRecord{}, err
	}
	seats, err := t.SeatCount(row, seatsCol)
	if err != nil {
		return EPSRecord{}, err
	}
	return NewEPSRecord(key, amount, seats)
}

// EPSRecordsFromTable extracts EPS records. A null seat count is treated as
// absent and yields an undefined EPS.
func EPSRecordsFromTable(t *Table, keyCol, amountCol, seatsCol string) ([]EPSRecord, error) {
	if err := t.Require(keyCol, amountCol, seatsCol); err != nil {
		return nil, err
	}

	out := make([]EPSRecord, 0, t.Len())
	for i := range t.Rows {
		rec, err := epsRecordAt(t, i, keyCol, amountCol, seatsCol)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
