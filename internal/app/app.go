// Package app wires configuration into a ready ComparisonService.
package app

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/rlcompare/internal/cache"
	"github.com/andresuchdata/rlcompare/internal/config"
	"github.com/andresuchdata/rlcompare/internal/domain"
	"github.com/andresuchdata/rlcompare/internal/pipeline"
	"github.com/andresuchdata/rlcompare/internal/pipeline/replenishment"
	"github.com/andresuchdata/rlcompare/internal/repository/postgres"
	"github.com/andresuchdata/rlcompare/internal/service"
	"github.com/andresuchdata/rlcompare/internal/source"
)

const (
	ReferenceFile     = "file"
	ReferencePostgres = "postgres"
)

// SafetyPolicy builds the verdict policy from the app settings.
func SafetyPolicy(cfg config.AppConfig) (domain.SafetyPolicy, error) {
	policy := domain.DefaultSafetyPolicy()
	switch domain.SafetyPolicyKind(cfg.SafetyPolicy) {
	case "", domain.PolicyFixedFloor:
	case domain.PolicyLeadTime:
		policy.Kind = domain.PolicyLeadTime
	default:
		return policy, fmt.Errorf("unknown safety policy %q", cfg.SafetyPolicy)
	}
	if cfg.SafetyThreshold > 0 {
		policy.Threshold = cfg.SafetyThreshold
	}
	return policy, nil
}

// LoaderConfig translates the app settings into a pipeline.LoaderConfig.
func LoaderConfig(cfg config.AppConfig) (pipeline.LoaderConfig, error) {
	policy, err := SafetyPolicy(cfg)
	if err != nil {
		return pipeline.LoaderConfig{}, err
	}

	sources := make([]pipeline.LogicSource, 0, len(cfg.LogicSources))
	for _, s := range cfg.LogicSources {
		mapping, err := columnMapping(s)
		if err != nil {
			return pipeline.LoaderConfig{}, err
		}
		sources = append(sources, pipeline.LogicSource{
			Logic:   domain.LogicID(s.Logic),
			Path:    s.Path,
			Mapping: mapping,
		})
	}

	lc := pipeline.DefaultLoaderConfig(sources)
	if len(cfg.LogicOrder) > 0 {
		order := make(domain.LogicOrder, 0, len(cfg.LogicOrder))
		for _, l := range cfg.LogicOrder {
			order = append(order, domain.LogicID(l))
		}
		lc.Order = order
	}
	lc.Enrich.Policy = policy
	if cfg.DefaultLeadTimeDays != nil {
		if *cfg.DefaultLeadTimeDays < 0 {
			return pipeline.LoaderConfig{}, fmt.Errorf("default lead time must not be negative, got %d", *cfg.DefaultLeadTimeDays)
		}
		lead := *cfg.DefaultLeadTimeDays
		lc.Enrich.DefaultLeadTimeDays = &lead
	}
	if cfg.LoadWorkers > 0 {
		lc.WorkerCount = cfg.LoadWorkers
	}
	return lc, nil
}

// columnMapping builds the declared mapping of one source, rejecting
// overrides for metrics the normalizer does not know.
func columnMapping(s config.LogicSourceConfig) (replenishment.ColumnMapping, error) {
	mapping := replenishment.ColumnMapping{Label: s.Logic}
	if len(s.Columns) == 0 {
		return mapping, nil
	}

	known := make(map[replenishment.MetricName]struct{})
	for _, m := range replenishment.RequiredMetrics {
		known[m] = struct{}{}
	}
	for _, m := range replenishment.OptionalMetrics {
		known[m] = struct{}{}
	}

	mapping.Metrics = make(map[replenishment.MetricName]string, len(s.Columns))
	for metric, column := range s.Columns {
		name := replenishment.MetricName(metric)
		if _, ok := known[name]; !ok {
			return mapping, fmt.Errorf("logic %s: unknown metric %q in column mapping", s.Logic, metric)
		}
		mapping.Metrics[name] = column
	}
	return mapping, nil
}

// References returns the configured reference source and a close func.
func References(cfg *config.Config, reader source.TableReader) (source.ReferenceSource, func(), error) {
	switch cfg.App.ReferenceSource {
	case "", ReferenceFile:
		return source.NewFileReferences(reader, cfg.App.LeadTimePath, cfg.App.VendorFrequencyPath), func() {}, nil
	case ReferencePostgres:
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewReferenceRepository(db), func() { db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown reference source %q", cfg.App.ReferenceSource)
}

// NewComparisonService builds the loader, engine and cache from cfg. The
// returned func releases the database pool when one was opened.
func NewComparisonService(cfg *config.Config) (*service.ComparisonService, func(), error) {
	lc, err := LoaderConfig(cfg.App)
	if err != nil {
		return nil, nil, err
	}

	reader := source.NewFileReader()
	refs, closeRefs, err := References(cfg, reader)
	if err != nil {
		return nil, nil, err
	}

	comparisonCache, err := cache.NewComparisonCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("comparison cache disabled")
		comparisonCache = cache.NewNoopComparisonCache()
	}

	engine := replenishment.NewEngine(lc.Order, lc.Enrich.Policy)
	orchestrator := pipeline.NewOrchestrator(lc, reader, refs)

	return service.NewComparisonService(orchestrator, engine, comparisonCache), closeRefs, nil
}
