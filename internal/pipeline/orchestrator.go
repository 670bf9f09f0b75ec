package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/rlcompare/internal/domain"
	"github.com/andresuchdata/rlcompare/internal/pipeline/replenishment"
	"github.com/andresuchdata/rlcompare/internal/source"
)

// Orchestrator loads all configured sources into a Dataset.
type Orchestrator struct {
	cfg    LoaderConfig
	worker *Worker
	refs   source.ReferenceSource
	now    func() time.Time
}

// NewOrchestrator creates a new Orchestrator. refs may be nil when no
// reference tables are configured.
func NewOrchestrator(cfg LoaderConfig, reader source.TableReader, refs source.ReferenceSource) *Orchestrator {
	if len(cfg.Order) == 0 {
		cfg.Order = domain.DefaultLogicOrder
	}
	return &Orchestrator{
		cfg:    cfg,
		worker: NewWorker(reader),
		refs:   refs,
		now:    time.Now,
	}
}

// Load reads every logic source and both reference tables, then merges and
// enriches them. A source that fails is skipped and reported in the outcomes;
// only context cancellation fails the load. Outcomes follow configuration
// order: logic sources first, then lead time, then vendor frequency.
func (o *Orchestrator) Load(ctx context.Context) (*Dataset, error) {
	startTime := time.Now()

	// 1) Read logic sources and references concurrently
	results := make([]sourceResult, len(o.cfg.Sources))
	var (
		leadTimes   []domain.LeadTime
		vendors     []domain.VendorFrequency
		refOutcomes [2]*domain.LoadOutcome
		refWarnings [2][]domain.CoercionWarning
	)

	workers := o.cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, src := range o.cfg.Sources {
		g.Go(func() error {
			res, err := o.worker.ProcessLogic(gctx, src)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", src.Path, err)
			}
			results[i] = res
			return nil
		})
	}

	if o.refs != nil {
		g.Go(func() error {
			rows, warnings, err := o.refs.LeadTimes(gctx)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			leadTimes, refWarnings[0] = rows, warnings
			refOutcomes[0] = referenceOutcome(o.refs.Location(domain.SourceLeadTime), domain.SourceLeadTime, len(rows), len(warnings), err)
			return nil
		})
		g.Go(func() error {
			rows, warnings, err := o.refs.VendorFrequencies(gctx)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			vendors, refWarnings[1] = rows, warnings
			refOutcomes[1] = referenceOutcome(o.refs.Location(domain.SourceVendorFrequency), domain.SourceVendorFrequency, len(rows), len(warnings), err)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 2) Collect outcomes and normalized tables in configuration order
	ds := &Dataset{SessionID: uuid.NewString(), LoadedAt: o.now()}
	tables := make([]replenishment.NormalizedTable, 0, len(results))
	for _, res := range results {
		ds.Outcomes = append(ds.Outcomes, res.outcome)
		if res.outcome.Status == domain.LoadStatusLoaded {
			tables = append(tables, res.table)
		}
	}
	for i, out := range refOutcomes {
		if out == nil {
			continue
		}
		ds.Outcomes = append(ds.Outcomes, *out)
		ds.Warnings = append(ds.Warnings, refWarnings[i]...)
	}

	// 3) Merge and enrich
	merged := replenishment.Merge(tables, o.cfg.Order)
	enriched := replenishment.Enrich(merged.Rows, replenishment.NewReferences(leadTimes, vendors), o.cfg.Enrich)

	ds.Rows = enriched.Rows
	ds.Logics = merged.Logics
	ds.Warnings = append(merged.Warnings, ds.Warnings...)

	log.Info().
		Str("session", ds.SessionID).
		Int("sources", len(o.cfg.Sources)).
		Int("loaded", ds.Loaded(domain.SourceLogic)).
		Int("rows", len(ds.Rows)).
		Int("warnings", len(ds.Warnings)).
		Int("default_lead_times", enriched.DefaultedLeadTimes).
		Int("ad_hoc_rows", enriched.AdHocRows).
		Dur("took", time.Since(startTime)).
		Msg("dataset loaded")

	return ds, nil
}

func referenceOutcome(location string, kind domain.SourceKind, rows, warnings int, err error) *domain.LoadOutcome {
	out := &domain.LoadOutcome{Source: location, Kind: kind, Status: domain.LoadStatusLoaded, Rows: rows, Warnings: warnings}
	if err != nil {
		out.Status = domain.LoadStatusSkipped
		out.Reason = err.Error()
		out.Rows = 0
		log.Warn().Err(err).Str("kind", string(kind)).Msg("reference source skipped, defaults apply")
	}
	return out
}
