package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"booking-metrics/internal/metrics"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	refundsByYearSQL = `WITH orders AS (
        SELECT EXTRACT(YEAR FROM paidon)::int AS year, COUNT(*) AS total_orders
        FROM analytic_test_booking
        WHERE paidon IS NOT NULL
        GROUP BY 1
    ), refunds AS (
        SELECT EXTRACT(YEAR FROM refund_date)::int AS year, COUNT(*) AS refund_count
        FROM analytic_test_booking
        WHERE refund_date IS NOT NULL
        GROUP BY 1
    )
    SELECT
        COALESCE(o.year, r.year)       AS year,
        COALESCE(o.total_orders, 0)    AS total_orders,
        COALESCE(r.refund_count, 0)    AS refund_count
    FROM orders o
    FULL OUTER JOIN refunds r ON o.year = r.year
    ORDER BY year;`

	bookingsForYearsSQL = `SELECT
        bid::text                          AS bid,
        EXTRACT(YEAR FROM paidon)::int     AS year,
        seats::bigint                      AS seats,
        total_usd::text                    AS total_usd
    FROM analytic_test_booking
    WHERE EXTRACT(YEAR FROM paidon)::int = ANY($1)
    ORDER BY paidon;`

	vehicleClassesForYearsSQL = `SELECT
        EXTRACT(YEAR FROM godate)::int     AS year,
        vehclass_id,
        class_name,
        SUM(total_usd)::text               AS total_revenue,
        COUNT(*)                           AS total_seats
    FROM analytic_test_booking
    WHERE EXTRACT(YEAR FROM godate)::int = ANY($1)
    GROUP BY 1, vehclass_id, class_name
    ORDER BY year, SUM(total_usd) DESC;`

	operatorBookingsForYearsSQL = `SELECT
        operator_id::text                  AS operator_id,
        EXTRACT(YEAR FROM godate)::int     AS year,
        netprice_usd::text                 AS netprice_usd,
        seats::bigint                      AS seats,
        refund_usd::text                   AS refund_usd,
        total_usd::text                    AS total_usd,
        trip_duration_minutes::text        AS trip_duration_minutes
    FROM analytic_test_booking
    WHERE EXTRACT(YEAR FROM godate)::int = ANY($1);`

	routesForYearsSQL = `SELECT
        EXTRACT(YEAR FROM godate)::int     AS year,
        from_station_name,
        to_station_name,
        country,
        SUM(seats)::bigint                 AS total_seats,
        COALESCE(SUM(netprice_usd), 0)::text AS total_netprice,
        COALESCE(SUM(total_usd), 0)::text  AS total_revenue
    FROM analytic_test_booking
    WHERE EXTRACT(YEAR FROM godate)::int = ANY($1)
    GROUP BY 1, from_station_name, to_station_name, country
    ORDER BY year, from_station_name, to_station_name;`

	insertQualityIssueSQL = `INSERT INTO quality_issues (
        analysis,
        period,
        kind,
        total_count,
        event_count,
        detail
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    ON CONFLICT (analysis, period, kind) DO UPDATE
    SET total_count = EXCLUDED.total_count,
        event_count = EXCLUDED.event_count,
        detail      = EXCLUDED.detail,
        created_at  = now()
    RETURNING id, analysis, period, kind, total_count, event_count, detail, created_at;`

	listRecentQualityIssuesSQL = `SELECT
        id,
        analysis,
        period,
        kind,
        total_count,
        event_count,
        detail,
        created_at
    FROM quality_issues
    ORDER BY created_at DESC, id DESC
    LIMIT $1;`

	deleteQualityIssuesBeforeSQL = `DELETE FROM quality_issues WHERE created_at < $1;`
)

// BookingSource produces the tables consumed by the analyses.
type BookingSource interface {
	RefundsByYear(ctx context.Context) (*metrics.Table, error)
	BookingsForYears(ctx context.Context, years ...int) (*metrics.Table, error)
	VehicleClassesForYears(ctx context.Context, years ...int) (*metrics.Table, error)
	OperatorBookingsForYears(ctx context.Context, years ...int) (*metrics.Table, error)
	RoutesForYears(ctx context.Context, years ...int) (*metrics.Table, error)
}

// QualityIssueStore defines operations for data-quality auditing.
type QualityIssueStore interface {
	InsertQualityIssue(ctx context.Context, issue QualityIssueRecord) (QualityIssueRecord, error)
	ListRecentQualityIssues(ctx context.Context, limit int) ([]QualityIssueRecord, error)
	DeleteQualityIssuesBefore(ctx context.Context, olderThan time.Time) error
}

// Store reads booking aggregates and records quality issues.
type Store struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool, queryTimeout time.Duration) *Store {
	return &Store{pool: pool, queryTimeout: queryTimeout}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// RefundsByYear counts orders by payment year and refunds by refund year.
func (s *Store) RefundsByYear(ctx context.Context) (*metrics.Table, error) {
	return s.queryTable(ctx, "refunds by year", refundsByYearSQL)
}

// BookingsForYears lists individual bookings paid in the given years.
func (s *Store) BookingsForYears(ctx context.Context, years ...int) (*metrics.Table, error) {
	return s.queryTable(ctx, "bookings for years", bookingsForYearsSQL, yearsArg(years))
}

// VehicleClassesForYears sums revenue and seats per vehicle class and year.
func (s *Store) VehicleClassesForYears(ctx context.Context, years ...int) (*metrics.Table, error) {
	return s.queryTable(ctx, "vehicle classes for years", vehicleClassesForYearsSQL, yearsArg(years))
}

// OperatorBookingsForYears lists bookings with their operator.
func (s *Store) OperatorBookingsForYears(ctx context.Context, years ...int) (*metrics.Table, error) {
	return s.queryTable(ctx, "operator bookings for years", operatorBookingsForYearsSQL, yearsArg(years))
}

// RoutesForYears sums seats, net price and revenue per route and year.
func (s *Store) RoutesForYears(ctx context.Context, years ...int) (*metrics.Table, error) {
	return s.queryTable(ctx, "routes for years", routesForYearsSQL, yearsArg(years))
}

func (s *Store) queryTable(ctx context.Context, name, query string, args ...any) (*metrics.Table, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	rows, queryErr := pool.Query(ctx, query, args...)
	if queryErr != nil {
		return nil, fmt.Errorf("%s: %w", name, queryErr)
	}
	defer rows.Close()

	table, err := collectTable(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return table, nil
}

func collectTable(rows pgx.Rows) (*metrics.Table, error) {
	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	table := metrics.NewTable(columns...)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			if values[i], err = normalizeValue(v); err != nil {
				return nil, fmt.Errorf("column %s: %w", columns[i], err)
			}
		}
		table.Append(values...)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// normalizeValue maps pgx-specific types onto the plain values metrics.Table
// understands.
func normalizeValue(v any) (any, error) {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil, nil
		}
		raw, err := x.Value()
		if err != nil {
			return nil, err
		}
		str, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected numeric encoding %T", raw)
		}
		d, err := decimal.NewFromString(str)
		if err != nil {
			return nil, fmt.Errorf("parse numeric: %w", err)
		}
		return d, nil
	case [16]uint8:
		return fmt.Sprintf("%x", x), nil
	default:
		return v, nil
	}
}

func yearsArg(years []int) []int32 {
	out := make([]int32, len(years))
	for i, y := range years {
		out[i] = int32(y)
	}
	return out
}

// InsertQualityIssue persists or refreshes a quality issue.
func (s *Store) InsertQualityIssue(ctx context.Context, issue QualityIssueRecord) (QualityIssueRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return QualityIssueRecord{}, err
	}

	row := pool.QueryRow(ctx, insertQualityIssueSQL,
		issue.Analysis,
		issue.Period,
		issue.Kind,
		issue.Total,
		issue.Events,
		issue.Detail,
	)

	rec, scanErr := scanQualityIssue(row)
	if scanErr != nil {
		return QualityIssueRecord{}, fmt.Errorf("insert quality issue: %w", scanErr)
	}
	return rec, nil
}

// ListRecentQualityIssues lists the most recent quality issues.
func (s *Store) ListRecentQualityIssues(ctx context.Context, limit int) ([]QualityIssueRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentQualityIssuesSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent quality issues: %w", queryErr)
	}
	defer rows.Close()

	issues := make([]QualityIssueRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanQualityIssue(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		issues = append(issues, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return issues, nil
}

// DeleteQualityIssuesBefore prunes old quality issues.
func (s *Store) DeleteQualityIssuesBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteQualityIssuesBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete quality issues before: %w", execErr)
	}
	return nil
}

func scanQualityIssue(row pgx.Row) (QualityIssueRecord, error) {
	var rec QualityIssueRecord
	if err := row.Scan(
		&rec.ID,
		&rec.Analysis,
		&rec.Period,
		&rec.Kind,
		&rec.Total,
		&rec.Events,
		&rec.Detail,
		&rec.CreatedAt,
	); err != nil {
		return QualityIssueRecord{}, err
	}
	return rec, nil
}

var (
	_ BookingSource     = (*Store)(nil)
	_ QualityIssueStore = (*Store)(nil)
)
