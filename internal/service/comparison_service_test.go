package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/rlcompare/internal/domain"
	"github.com/andresuchdata/rlcompare/internal/pipeline"
	"github.com/andresuchdata/rlcompare/internal/pipeline/replenishment"
)

type stubLoader struct {
	calls int
	rows  []domain.UnifiedRow
	err   error
}

func (l *stubLoader) Load(ctx context.Context) (*pipeline.Dataset, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.calls++
	return &pipeline.Dataset{
		SessionID: fmt.Sprintf("session-%d", l.calls),
		Rows:      l.rows,
		Outcomes: []domain.LoadOutcome{
			{Source: "logic a.csv", Kind: domain.SourceLogic, Logic: "Logic A", Status: domain.LoadStatusLoaded, Rows: 2},
			{Source: "logic b.csv", Kind: domain.SourceLogic, Logic: "Logic B", Status: domain.LoadStatusSkipped, Reason: "missing"},
		},
	}, nil
}

// memoryCache records what the service stores and invalidates.
type memoryCache struct {
	comparisons map[string]domain.Comparison
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{comparisons: map[string]domain.Comparison{}}
}

func (m *memoryCache) key(session string, view domain.ViewMode) string {
	return session + ":" + string(view)
}

func (m *memoryCache) GetComparison(ctx context.Context, sessionID string, view domain.ViewMode, filter domain.Filter) (domain.Comparison, bool, error) {
	c, ok := m.comparisons[m.key(sessionID, view)]
	return c, ok, nil
}

func (m *memoryCache) SetComparison(ctx context.Context, sessionID string, view domain.ViewMode, filter domain.Filter, comparison domain.Comparison) error {
	m.comparisons[m.key(sessionID, view)] = comparison
	return nil
}

func (m *memoryCache) GetSeries(ctx context.Context, sessionID string, redistribute bool, filter domain.Filter) (domain.Series, bool, error) {
	return domain.Series{}, false, errors.New("unavailable")
}

func (m *memoryCache) SetSeries(ctx context.Context, sessionID string, redistribute bool, filter domain.Filter, series domain.Series) error {
	return errors.New("unavailable")
}

func (m *memoryCache) InvalidateSession(ctx context.Context, sessionID string) error {
	m.invalidated = append(m.invalidated, sessionID)
	return nil
}

func ptr[T any](v T) *T { return &v }

func row(logic domain.LogicID, product string, qty, landed float64, ship string) domain.UnifiedRow {
	date, _ := time.Parse("2006-01-02", ship)
	r := domain.UnifiedRow{
		LogicRecord: domain.LogicRecord{
			ProductID:   product,
			ProductName: "Product " + product,
			LocationID:  "L1",
			VendorID:    "V1",
			VendorName:  "Acme",
			ParetoClass: "A",
			NewRLQty:    ptr(qty),
			NewRLValue:  ptr(qty * 1000),
			LandedDOI:   ptr(landed),
			ShipDate:    &date,
			Logic:       logic,
		},
		InboundLeadTimeDays:    7,
		LandedDOIValue:         landed,
		LandedDOIMinusLeadTime: landed - 7,
		AdjustedRLQty:          qty,
		HasFrequency:           true,
		ShipmentFrequency:      2,
		AllowedWeekdays:        []time.Weekday{time.Monday, time.Thursday},
	}
	r.SafetyVerdict = domain.DefaultSafetyPolicy().Classify(landed, 7)
	return r
}

func fixtureRows() []domain.UnifiedRow {
	return []domain.UnifiedRow{
		row("Logic A", "P1", 10, 6, "2024-03-04"),
		row("Logic B", "P1", 20, 3, "2024-03-04"),
	}
}

func newTestService(loader *stubLoader, c *memoryCache) *ComparisonService {
	return NewComparisonService(loader, replenishment.NewEngine(nil, domain.SafetyPolicy{}), c)
}

func TestCompareLoadsOnceAndCaches(t *testing.T) {
	loader := &stubLoader{rows: fixtureRows()}
	c := newMemoryCache()
	svc := newTestService(loader, c)
	ctx := context.Background()

	cmp, err := svc.Compare(ctx, domain.ViewByProduct, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, cmp.Rows, 2)
	assert.Equal(t, domain.LogicID("Logic A"), cmp.Rows[0].Logic)
	assert.Equal(t, domain.VerdictUnsafe, cmp.Rows[1].Verdict)

	_, err = svc.Compare(ctx, domain.ViewByProduct, domain.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls)
	assert.Contains(t, c.comparisons, "session-1:product")
}

func TestCompareEmptySelection(t *testing.T) {
	svc := newTestService(&stubLoader{rows: fixtureRows()}, newMemoryCache())

	_, err := svc.Compare(context.Background(), domain.ViewByVendor, domain.Filter{ProductID: "missing"})
	assert.ErrorIs(t, err, domain.ErrEmptySelection)

	_, err = svc.Series(context.Background(), false, domain.Filter{Locations: []string{"L9"}})
	assert.ErrorIs(t, err, domain.ErrEmptySelection)
}

func TestReloadStartsNewSessionAndInvalidates(t *testing.T) {
	loader := &stubLoader{rows: fixtureRows()}
	c := newMemoryCache()
	svc := newTestService(loader, c)
	ctx := context.Background()

	first, err := svc.Dataset(ctx)
	require.NoError(t, err)

	second, err := svc.Reload(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, []string{first.SessionID}, c.invalidated)

	current, err := svc.Dataset(ctx)
	require.NoError(t, err)
	assert.Same(t, second, current)
}

func TestLoadFailureIsReturned(t *testing.T) {
	svc := newTestService(&stubLoader{err: context.Canceled}, newMemoryCache())
	_, err := svc.Outcomes(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExportUnsafe(t *testing.T) {
	svc := newTestService(&stubLoader{rows: fixtureRows()}, newMemoryCache())

	var buf bytes.Buffer
	n, err := svc.ExportUnsafe(context.Background(), domain.Filter{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, replenishment.UnsafeExportHeader, records[0])
	assert.Equal(t, "P1", records[1][0])
	assert.Equal(t, "Logic B", records[1][7])
	assert.Equal(t, "20", records[1][9])
	assert.Equal(t, "adjusted_rl_qty", records[0][10])
	assert.Equal(t, "10", records[1][10], "split across Monday and Thursday")
	assert.Equal(t, "-4", records[1][15])
	assert.Equal(t, "Unsafe", records[1][16])
}

func TestSeriesWithAndWithoutRedistribution(t *testing.T) {
	svc := newTestService(&stubLoader{rows: fixtureRows()}, newMemoryCache())
	ctx := context.Background()

	plain, err := svc.Series(ctx, false, domain.Filter{})
	require.NoError(t, err)
	assert.Equal(t, map[domain.LogicID]float64{"Logic A": 10, "Logic B": 20}, plain.Totals())

	spread, err := svc.Series(ctx, true, domain.Filter{})
	require.NoError(t, err)
	assert.Equal(t, map[domain.LogicID]float64{"Logic A": 10, "Logic B": 20}, spread.Totals())
	assert.Len(t, spread.Points, 4, "Monday and Thursday for each logic")

	plan, err := svc.Redistribution(ctx, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, plan.Checks, 2)
	assert.Empty(t, plan.Discrepancies())

	require.Len(t, plan.Rows, 2)
	assert.Equal(t, domain.AdjustedQty{
		ProductID: "P1", LocationID: "L1", VendorID: "V1", VendorName: "Acme",
		Logic: "Logic B", NewRLQty: 20, AdjustedRLQty: 10, Redistributed: true,
	}, plan.Rows[1])
}

func TestOutcomesAndFilterOptions(t *testing.T) {
	svc := newTestService(&stubLoader{rows: fixtureRows()}, newMemoryCache())
	ctx := context.Background()

	outcomes, err := svc.Outcomes(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, domain.LoadStatusSkipped, outcomes[1].Status)

	opts, err := svc.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, opts.ParetoClasses)
	assert.Equal(t, []domain.LogicID{"Logic A", "Logic B"}, opts.Logics)
}
