package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/rlcompare/internal/domain"
	"github.com/andresuchdata/rlcompare/internal/pipeline/replenishment"
	"github.com/andresuchdata/rlcompare/internal/source"
)

// Worker reads and normalizes single sources.
type Worker struct {
	reader source.TableReader
}

// NewWorker creates a new source worker
func NewWorker(reader source.TableReader) *Worker {
	return &Worker{reader: reader}
}

// ProcessLogic reads one logic extract and normalizes it. Failures never
// escape as errors: they become a skipped outcome with the reason. Only
// context cancellation is returned.
func (w *Worker) ProcessLogic(ctx context.Context, src LogicSource) (sourceResult, error) {
	startTime := time.Now()
	res := sourceResult{outcome: domain.LoadOutcome{
		Source: src.Path,
		Kind:   domain.SourceLogic,
		Logic:  src.Logic,
	}}

	raw, err := w.reader.Read(ctx, src.Path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		return skip(res, err), nil
	}

	table, err := replenishment.Normalize(raw, src.Logic, src.Mapping)
	if err != nil {
		return skip(res, err), nil
	}

	res.table = table
	res.outcome.Logic = table.Logic
	res.outcome.Status = domain.LoadStatusLoaded
	res.outcome.Rows = len(table.Records)
	res.outcome.Warnings = len(table.Warnings)

	log.Info().
		Str("source", src.Path).
		Str("logic", string(table.Logic)).
		Int("rows", len(table.Records)).
		Int("warnings", len(table.Warnings)).
		Dur("took", time.Since(startTime)).
		Msg("logic source loaded")
	return res, nil
}

func skip(res sourceResult, err error) sourceResult {
	res.outcome.Status = domain.LoadStatusSkipped
	res.outcome.Reason = err.Error()

	event := log.Warn().Err(err).Str("source", res.outcome.Source).Str("kind", string(res.outcome.Kind))
	var schemaErr *domain.SchemaError
	if errors.As(err, &schemaErr) {
		event = event.Str("missing_column", schemaErr.Column)
	}
	event.Msg("source skipped")
	return res
}
