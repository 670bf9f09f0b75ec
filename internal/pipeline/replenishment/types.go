package replenishment

import (
	"time"

	"github.com/andresuchdata/rlcompare/internal/domain"
)

// MetricName is the bare (prefix-stripped) name of a per-logic metric column.
type MetricName string

const (
	MetricCoverage       MetricName = "coverage"
	MetricNewDOIPolicyWH MetricName = "New DOI Policy WH"
	MetricNewRLQty       MetricName = "New RL Qty"
	MetricNewRLValue     MetricName = "New RL Value"
	MetricLandedDOI      MetricName = "Landed DOI"
	MetricOrderDate      MetricName = "Order Date"
)

// RequiredMetrics must be present in every logic extract.
var RequiredMetrics = []MetricName{
	MetricCoverage,
	MetricNewDOIPolicyWH,
	MetricNewRLQty,
	MetricNewRLValue,
	MetricLandedDOI,
}

// OptionalMetrics are carried through when present.
var OptionalMetrics = []MetricName{MetricOrderDate}

// Common column names shared by all logic extracts.
const (
	ColProductID              = "product_id"
	ColProductName            = "product_name"
	ColLocationID             = "location_id"
	ColBusinessTagging        = "business_tagging"
	ColProductTypeName        = "product_type_name"
	ColVendorID               = "vendor_id"
	ColVendorName             = "primary_vendor_name"
	ColMaxDOIFinal            = "max_doi_final"
	ColShipDate               = "Ship Date"
	ColPareto                 = "Pareto"
	ColActiveHub              = "active_hub"
	ColInboundToOOSProjection = "INBOUND TO OOS PROJECTION"
	ColLogic                  = "Logic"
)

// RequiredCommonColumns must be present in every logic extract.
var RequiredCommonColumns = []string{
	ColProductID,
	ColProductName,
	ColLocationID,
	ColBusinessTagging,
	ColProductTypeName,
	ColVendorID,
	ColVendorName,
	ColMaxDOIFinal,
	ColShipDate,
	ColPareto,
	ColActiveHub,
}

// logicPrefixDelimiter separates the logic label from the metric name,
// as in "Logic A) New RL Qty".
const logicPrefixDelimiter = ") "

// ColumnMapping declares where the metric columns of one logic extract live.
// Label is the logic label used as column prefix; Metrics optionally
// overrides the full column name of individual metrics.
type ColumnMapping struct {
	Label   string
	Metrics map[MetricName]string
}

// candidates returns the exact column names accepted for a metric, in
// preference order: an explicit override, the prefixed name, the bare name.
func (m ColumnMapping) candidates(metric MetricName) []string {
	if override, ok := m.Metrics[metric]; ok && override != "" {
		return []string{override}
	}
	var out []string
	if m.Label != "" {
		out = append(out, m.Label+logicPrefixDelimiter+string(metric))
	}
	return append(out, string(metric))
}

// NormalizedTable is one logic extract reduced to the common schema.
type NormalizedTable struct {
	Source   string
	Logic    domain.LogicID
	Records  []domain.LogicRecord
	Lines    []int // source line of each record
	Warnings []domain.CoercionWarning
}

// line returns the source line of record i.
func (t NormalizedTable) line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 2
}

// MergedTable is the concatenation of all normalized tables in canonical order.
type MergedTable struct {
	Rows     []domain.LogicRecord
	Logics   []domain.LogicID
	Warnings []domain.CoercionWarning
}

// References holds the reference tables indexed for the left joins.
type References struct {
	LeadTimes map[string]int
	Vendors   map[string]domain.VendorFrequency
}

// EnrichOptions controls defaults applied by the reference enricher.
// A nil DefaultLeadTimeDays means domain.DefaultLeadTimeDays; zero is a
// valid configured default.
type EnrichOptions struct {
	DefaultLeadTimeDays *int
	Policy              domain.SafetyPolicy
}

// DefaultEnrichOptions returns the 7-day lead time and fixed 5-day floor.
func DefaultEnrichOptions() EnrichOptions {
	lead := domain.DefaultLeadTimeDays
	return EnrichOptions{
		DefaultLeadTimeDays: &lead,
		Policy:              domain.DefaultSafetyPolicy(),
	}
}

// Enriched is the output of the reference enricher.
type Enriched struct {
	Rows               []domain.UnifiedRow
	DefaultedLeadTimes int // rows that fell back to the default lead time
	AdHocRows          int // rows whose vendor has no frequency entry
}

// SeriesEntry is one dated quantity fed to the time-series aggregator.
type SeriesEntry struct {
	ShipDate *time.Time
	Logic    domain.LogicID
	Qty      float64
}
