package pipeline

import (
	"time"

	"github.com/andresuchdata/rlcompare/internal/domain"
	"github.com/andresuchdata/rlcompare/internal/pipeline/replenishment"
)

// LogicSource declares one per-logic extract and how its columns are named.
type LogicSource struct {
	Logic   domain.LogicID
	Path    string
	Mapping replenishment.ColumnMapping
}

// LoaderConfig holds configuration for a session load.
type LoaderConfig struct {
	Sources     []LogicSource
	Order       domain.LogicOrder
	Enrich      replenishment.EnrichOptions
	WorkerCount int // Number of sources read concurrently
}

// DefaultLoaderConfig returns sensible defaults for the given sources.
func DefaultLoaderConfig(sources []LogicSource) LoaderConfig {
	return LoaderConfig{
		Sources:     sources,
		Order:       domain.DefaultLogicOrder,
		Enrich:      replenishment.DefaultEnrichOptions(),
		WorkerCount: 4,
	}
}

// Dataset is the immutable, session-scoped result of a load. Views are
// recomputed from Rows on every request.
type Dataset struct {
	SessionID string
	Rows      []domain.UnifiedRow
	Logics    []domain.LogicID
	Outcomes  []domain.LoadOutcome
	Warnings  []domain.CoercionWarning
	LoadedAt  time.Time
}

// Loaded reports how many sources of the given kind loaded successfully.
func (d *Dataset) Loaded(kind domain.SourceKind) int {
	n := 0
	for _, o := range d.Outcomes {
		if o.Kind == kind && o.Status == domain.LoadStatusLoaded {
			n++
		}
	}
	return n
}

// Skipped returns the outcomes of sources that were skipped.
func (d *Dataset) Skipped() []domain.LoadOutcome {
	var out []domain.LoadOutcome
	for _, o := range d.Outcomes {
		if o.Status == domain.LoadStatusSkipped {
			out = append(out, o)
		}
	}
	return out
}

// sourceResult is the per-source output written into an index-addressed slot.
type sourceResult struct {
	table   replenishment.NormalizedTable
	outcome domain.LoadOutcome
}
