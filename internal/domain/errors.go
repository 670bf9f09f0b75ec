package domain

import (
	"errors"
	"fmt"
)

// ErrEmptySelection is returned when a filter/view combination matches no rows.
var ErrEmptySelection = errors.New("no data for the current selection")

// ErrSourceUnavailable is the sentinel matched by SourceUnavailableError.
var ErrSourceUnavailable = errors.New("source unavailable")

// SourceUnavailableError reports a per-logic or reference source that could not be read.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

func (e *SourceUnavailableError) Is(target error) bool { return target == ErrSourceUnavailable }

// SchemaError reports a required column missing from a source.
type SchemaError struct {
	Source string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source %s: missing required column %q", e.Source, e.Column)
}

// CoercionWarning is a non-fatal parse failure; the offending value was
// replaced by null (or zero where documented) and never propagated.
type CoercionWarning struct {
	Source string `json:"source"`
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (w CoercionWarning) String() string {
	return fmt.Sprintf("%s row %d column %q: %s (%q)", w.Source, w.Row, w.Column, w.Reason, w.Value)
}
