package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-metrics/internal/config"
	"booking-metrics/internal/metrics"
)

func TestNormalizeValue(t *testing.T) {
	var n pgtype.Numeric
	require.NoError(t, n.Scan("1228.48"))

	got, err := normalizeValue(n)
	require.NoError(t, err)
	d, ok := got.(decimal.Decimal)
	require.True(t, ok, "expected decimal, got %T", got)
	assert.True(t, d.Equal(decimal.RequireFromString("1228.48")))

	null, err := normalizeValue(pgtype.Numeric{})
	require.NoError(t, err)
	assert.Nil(t, null)

	passthrough, err := normalizeValue(int64(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), passthrough)
}

func TestStoreNotConfigured(t *testing.T) {
	var s *Store
	_, err := s.RefundsByYear(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewStore(nil, 0).ListRecentQualityIssues(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestYearsArg(t *testing.T) {
	assert.Equal(t, []int32{2019, 2023}, yearsArg([]int{2019, 2023}))
}

// setupTestStore connects to BOOKINGMETRICS_TEST_DSN and applies migrations.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("BOOKINGMETRICS_TEST_DSN")
	if dsn == "" || testing.Short() {
		t.Skip("BOOKINGMETRICS_TEST_DSN not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, config.DatabaseConfig{DSN: dsn, MaxOpenConns: 2})
	require.NoError(t, err, "failed to create pool")

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "0001_init.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err, "failed to apply migrations")

	_, err = pool.Exec(ctx, `TRUNCATE analytic_test_booking, quality_issues RESTART IDENTITY`)
	require.NoError(t, err)

	store := NewStore(pool, 30*time.Second)
	t.Cleanup(store.Close)
	return store
}

func TestStoreIntegration_RefundsAndBookings(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.pool.Exec(ctx, `INSERT INTO analytic_test_booking
        (bid, operator_id, vehclass_id, class_name, from_station_name, to_station_name, country,
         paidon, godate, refund_date, seats, netprice_usd, total_usd, refund_usd, trip_duration_minutes)
    VALUES
        (1, 10, 'bus',  'Express', 'A', 'B', 'Thailand', '2019-03-01', '2019-03-05', NULL,         2, 80.00, 100.00, 0,     60),
        (2, 10, 'bus',  'Express', 'A', 'B', 'Thailand', '2019-04-01', '2019-04-05', '2019-04-02', 1, 15.00,  20.00, 20.00, 60),
        (3, 11, 'avia', 'Economy', 'C', 'D', 'Japan',    '2023-05-01', '2023-05-09', NULL,         4, 150.00, 180.00, 0,    120),
        (4, 11, 'avia', 'Economy', 'C', 'D', 'Japan',    NULL,         '2021-05-09', '2021-06-01', 1, 10.00,  10.00, 10.00, 120)`)
	require.NoError(t, err)

	refunds, err := store.RefundsByYear(ctx)
	require.NoError(t, err)
	aggs, err := metrics.PeriodAggregatesFromTable(refunds, "year", "total_orders", "refund_count")
	require.NoError(t, err)
	require.Len(t, aggs, 3)
	assert.Equal(t, metrics.PeriodAggregate{Period: "2019", Total: 2, Events: 1}, aggs[0])
	assert.Equal(t, metrics.PeriodAggregate{Period: "2021", Total: 0, Events: 1}, aggs[1])
	assert.Equal(t, metrics.PeriodAggregate{Period: "2023", Total: 1, Events: 0}, aggs[2])

	bookings, err := store.BookingsForYears(ctx, 2019, 2023)
	require.NoError(t, err)
	assert.Equal(t, 3, bookings.Len())
	amount, err := bookings.Decimal(0, "total_usd")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(100)))

	routes, err := store.RoutesForYears(ctx, 2019, 2023)
	require.NoError(t, err)
	assert.Equal(t, 2, routes.Len())
}

func TestStoreIntegration_QualityIssues(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rec, err := store.InsertQualityIssue(ctx, QualityIssueRecord{
		Analysis: "refunds", Period: "2021", Kind: "no_base", Total: 0, Events: 1, Detail: "1 events recorded with no base population",
	})
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)

	_, err = store.InsertQualityIssue(ctx, QualityIssueRecord{
		Analysis: "refunds", Period: "2021", Kind: "no_base", Total: 0, Events: 4, Detail: "updated",
	})
	require.NoError(t, err)

	issues, err := store.ListRecentQualityIssues(ctx, 10)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, int64(4), issues[0].Events)

	require.NoError(t, store.DeleteQualityIssuesBefore(ctx, time.Now().Add(time.Hour)))
	issues, err = store.ListRecentQualityIssues(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, issues)
}
