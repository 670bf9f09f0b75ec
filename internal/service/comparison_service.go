package service

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/rlcompare/internal/cache"
	"github.com/andresuchdata/rlcompare/internal/domain"
	"github.com/andresuchdata/rlcompare/internal/pipeline"
	"github.com/andresuchdata/rlcompare/internal/pipeline/replenishment"
	"github.com/andresuchdata/rlcompare/internal/source"
)

// Loader produces a fresh Dataset. *pipeline.Orchestrator satisfies it.
type Loader interface {
	Load(ctx context.Context) (*pipeline.Dataset, error)
}

// ComparisonService serves every view from the current session's Dataset.
// A Dataset is never mutated; Reload swaps in a new one under a new session id.
type ComparisonService struct {
	loader Loader
	engine *replenishment.Engine
	cache  cache.ComparisonCache

	mu      sync.RWMutex
	current *pipeline.Dataset
	loadMu  sync.Mutex
}

func NewComparisonService(loader Loader, engine *replenishment.Engine, cacheImpl cache.ComparisonCache) *ComparisonService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopComparisonCache()
	}
	if engine == nil {
		engine = replenishment.NewEngine(nil, domain.SafetyPolicy{})
	}
	return &ComparisonService{loader: loader, engine: engine, cache: cacheImpl}
}

// Dataset returns the current session, loading it on first use.
func (s *ComparisonService) Dataset(ctx context.Context) (*pipeline.Dataset, error) {
	s.mu.RLock()
	ds := s.current
	s.mu.RUnlock()
	if ds != nil {
		return ds, nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.RLock()
	ds = s.current
	s.mu.RUnlock()
	if ds != nil {
		return ds, nil
	}
	return s.load(ctx)
}

// Reload re-runs the loader and replaces the current session. Cached views of
// the previous session are dropped.
func (s *ComparisonService) Reload(ctx context.Context) (*pipeline.Dataset, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.load(ctx)
}

func (s *ComparisonService) load(ctx context.Context) (*pipeline.Dataset, error) {
	ds, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	s.mu.Lock()
	previous := s.current
	s.current = ds
	s.mu.Unlock()

	if previous != nil {
		if err := s.cache.InvalidateSession(ctx, previous.SessionID); err != nil {
			log.Warn().Err(err).Str("session", previous.SessionID).Msg("comparison: cache invalidate failed")
		}
	}
	return ds, nil
}

// Compare builds the comparison table for view. ErrEmptySelection is returned
// when the filter matches no rows.
func (s *ComparisonService) Compare(ctx context.Context, view domain.ViewMode, filter domain.Filter) (domain.Comparison, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return domain.Comparison{}, err
	}

	if cmp, ok, err := s.cache.GetComparison(ctx, ds.SessionID, view, filter); err == nil && ok {
		return cmp, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("comparison: cache get failed")
	}

	cmp := s.engine.Compare(ds.Rows, view, filter)
	if cmp.Empty() {
		return cmp, domain.ErrEmptySelection
	}

	if err := s.cache.SetComparison(ctx, ds.SessionID, view, filter, cmp); err != nil {
		log.Warn().Err(err).Msg("comparison: cache set failed")
	}
	return cmp, nil
}

// UnsafeRows returns the filtered rows classified Unsafe, carrying the
// adjusted_rl_qty of redistributing the filtered selection.
func (s *ComparisonService) UnsafeRows(ctx context.Context, filter domain.Filter) ([]domain.UnifiedRow, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	rows := s.engine.Filter(ds.Rows, filter)
	if len(rows) == 0 {
		return nil, domain.ErrEmptySelection
	}
	_, adjusted := replenishment.Redistribute(rows, s.engine.Order())
	return s.engine.UnsafeRows(adjusted, domain.Filter{}), nil
}

// ExportUnsafe writes the unsafe rows as CSV and returns how many were written.
// A selection without unsafe rows still yields the header line.
func (s *ComparisonService) ExportUnsafe(ctx context.Context, filter domain.Filter, w io.Writer) (int, error) {
	rows, err := s.UnsafeRows(ctx, filter)
	if err != nil {
		return 0, err
	}
	if err := source.WriteCSV(w, replenishment.UnsafeExportHeader, replenishment.ExportRecords(rows)); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Series returns the quantity trend, optionally after shipment redistribution.
func (s *ComparisonService) Series(ctx context.Context, redistribute bool, filter domain.Filter) (domain.Series, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return domain.Series{}, err
	}

	if series, ok, err := s.cache.GetSeries(ctx, ds.SessionID, redistribute, filter); err == nil && ok {
		return series, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("series: cache get failed")
	}

	rows := s.engine.Filter(ds.Rows, filter)
	if len(rows) == 0 {
		return domain.Series{}, domain.ErrEmptySelection
	}

	var entries []replenishment.SeriesEntry
	if redistribute {
		plan, _ := replenishment.Redistribute(rows, s.engine.Order())
		entries = replenishment.EntriesFromAllocations(plan.Allocations)
	} else {
		entries = replenishment.EntriesFromRows(rows)
	}
	series := replenishment.BuildSeries(entries, s.engine.Order())

	if err := s.cache.SetSeries(ctx, ds.SessionID, redistribute, filter, series); err != nil {
		log.Warn().Err(err).Msg("series: cache set failed")
	}
	return series, nil
}

// Redistribution returns the allocations and conservation checks for the
// filtered rows.
func (s *ComparisonService) Redistribution(ctx context.Context, filter domain.Filter) (domain.Redistribution, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return domain.Redistribution{}, err
	}
	rows := s.engine.Filter(ds.Rows, filter)
	if len(rows) == 0 {
		return domain.Redistribution{}, domain.ErrEmptySelection
	}
	plan, _ := replenishment.Redistribute(rows, s.engine.Order())
	return plan, nil
}

// Outcomes returns the load outcome of every configured source.
func (s *ComparisonService) Outcomes(ctx context.Context) ([]domain.LoadOutcome, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return ds.Outcomes, nil
}

// FilterOptions returns the distinct values available for the filters.
func (s *ComparisonService) FilterOptions(ctx context.Context) (domain.FilterOptions, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return domain.FilterOptions{}, err
	}
	return s.engine.Options(ds.Rows), nil
}
