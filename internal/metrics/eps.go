package metrics

import (
	"sort"

	"github.com/shopspring/decimal"
)

// EPS is an optional earnings-per-seat value. The zero value is undefined.
type EPS struct {
	value   decimal.Decimal
	defined bool
}

// DefinedEPS wraps a known value.
func DefinedEPS(v decimal.Decimal) EPS { return EPS{value: v, defined: true} }

// Value returns the unrounded EPS; ok is false when no seats backed it.
func (e EPS) Value() (decimal.Decimal, bool) { return e.value, e.defined }

// Defined reports whether the EPS can enter aggregates.
func (e EPS) Defined() bool { return e.defined }

// Display renders the EPS with two decimals, or the no-seats sentinel.
func (e EPS) Display() string {
	if !e.defined {
		return DisplayNoSeats
	}
	return e.value.StringFixedBank(2)
}

func (e EPS) String() string { return e.Display() }

// ComputeEPS divides net by seats. Zero seats yields an undefined EPS.
func ComputeEPS(net decimal.Decimal, seats int64) (EPS, error) {
	if seats < 0 {
		return EPS{}, negativeInput("seats", seats)
	}
	if seats == 0 {
		return EPS{}, nil
	}
	return DefinedEPS(net.Div(decimal.NewFromInt(seats))), nil
}

// EPSRecord is one grouped row carrying its earnings per seat.
type EPSRecord struct {
	Key       string
	NetAmount decimal.Decimal
	Seats     int64
	EPS       EPS
}

// NewEPSRecord computes the EPS for key.
func NewEPSRecord(key string, net decimal.Decimal, seats int64) (EPSRecord, error) {
	eps, err := ComputeEPS(net, seats)
	if err != nil {
		return EPSRecord{}, err
	}
	return EPSRecord{Key: key, NetAmount: net, Seats: seats, EPS: eps}, nil
}

// MeanEPS averages the defined EPS values. Undefined records are skipped and
// the result is undefined when none remain.
func MeanEPS(records []EPSRecord) EPS {
	sum := decimal.Zero
	n := int64(0)
	for _, rec := range records {
		v, ok := rec.EPS.Value()
		if !ok {
			continue
		}
		sum = sum.Add(v)
		n++
	}
	if n == 0 {
		return EPS{}
	}
	return DefinedEPS(sum.Div(decimal.NewFromInt(n)))
}

// TopEPS returns up to n records with the highest defined EPS, descending.
// Ties are ordered by key so the ranking is stable across runs.
func TopEPS(records []EPSRecord, n int) []EPSRecord {
	ranked := make([]EPSRecord, 0, len(records))
	for _, rec := range records {
		if rec.EPS.Defined() {
			ranked = append(ranked, rec)
		}
	}
	sortByEPS(ranked)
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// GroupMeanEPS averages defined EPS per key. Keys whose records are all
// undefined are omitted. Output is ordered by mean EPS descending.
func GroupMeanEPS(records []EPSRecord) []EPSRecord {
	type bucket struct {
		net   decimal.Decimal
		seats int64
		group []EPSRecord
	}
	order := make([]string, 0)
	buckets := make(map[string]*bucket)
	for _, rec := range records {
		b, ok := buckets[rec.Key]
		if !ok {
			b = &bucket{net: decimal.Zero}
			buckets[rec.Key] = b
			order = append(order, rec.Key)
		}
		b.net = b.net.Add(rec.NetAmount)
		b.seats += rec.Seats
		b.group = append(b.group, rec)
	}

	out := make([]EPSRecord, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		mean := MeanEPS(b.group)
		if !mean.Defined() {
			continue
		}
		out = append(out, EPSRecord{Key: key, NetAmount: b.net, Seats: b.seats, EPS: mean})
	}
	sortByEPS(out)
	return out
}

func sortByEPS(records []EPSRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		vi, _ := records[i].EPS.Value()
		vj, _ := records[j].EPS.Value()
		if c := vi.Cmp(vj); c != 0 {
			return c > 0
		}
		return records[i].Key < records[j].Key
	})
}
