package domain

import (
	"strings"
	"time"
)

// ViewMode selects how the comparison table is grouped.
type ViewMode string

const (
	ViewByProduct ViewMode = "product"
	ViewByVendor  ViewMode = "vendor"
)

// ParseViewMode accepts "product"/"product_id" and "vendor" (case-insensitive).
func ParseViewMode(label string) (ViewMode, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "product", "product_id", "product id", "":
		return ViewByProduct, true
	case "vendor", "vendor_id":
		return ViewByVendor, true
	}
	return "", false
}

// Filter narrows the unified table. Empty slices mean "no filter" for that dimension.
type Filter struct {
	ParetoClasses []string `json:"pareto_classes"`
	Locations     []string `json:"locations"`
	BusinessTags  []string `json:"business_tags"`
	ProductID     string   `json:"product_id"`
	VendorID      string   `json:"vendor_id"`
}

// Match reports whether the row passes every active predicate.
func (f Filter) Match(r UnifiedRow) bool {
	if !memberOf(f.ParetoClasses, r.ParetoClass) {
		return false
	}
	if !memberOf(f.Locations, r.LocationID) {
		return false
	}
	if !memberOf(f.BusinessTags, r.BusinessTagging) {
		return false
	}
	if f.ProductID != "" && f.ProductID != r.ProductID {
		return false
	}
	if f.VendorID != "" && f.VendorID != r.VendorID {
		return false
	}
	return true
}

func memberOf(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// ComparisonRow is one line of the per-product or per-vendor comparison table.
type ComparisonRow struct {
	Logic       LogicID `json:"logic"`
	ProductID   string  `json:"product_id,omitempty"`
	ProductName string  `json:"product_name,omitempty"`
	LocationID  string  `json:"location_id,omitempty"`
	VendorID    string  `json:"vendor_id"`
	VendorName  string  `json:"primary_vendor_name"`

	Coverage               *time.Time `json:"coverage"`
	NewRLQty               float64    `json:"new_rl_qty"`
	NewRLValue             *float64   `json:"new_rl_value"`
	NewDOIPolicyWH         *float64   `json:"new_doi_policy_wh"`
	MaxDOIFinal            *float64   `json:"max_doi_final"`
	LandedDOI              float64    `json:"landed_doi"`
	LandedDOIMinusLeadTime float64    `json:"landed_doi_minus_lead_time"`
	InboundLeadTimeDays    int        `json:"inbound_lead_time_days"`
	Verdict                Verdict    `json:"verdict"`
	SourceRows             int        `json:"source_rows"`
}

// Comparison is the output of the aggregation engine for one view.
type Comparison struct {
	View ViewMode        `json:"view"`
	Rows []ComparisonRow `json:"rows"`
}

// Empty reports whether the selection produced no rows.
func (c Comparison) Empty() bool { return len(c.Rows) == 0 }

// Allocation is one dated quantity emitted by the shipment redistributor.
type Allocation struct {
	VendorID      string     `json:"vendor_id"`
	VendorName    string     `json:"primary_vendor_name"`
	Logic         LogicID    `json:"logic"`
	ShipDate      *time.Time `json:"ship_date"`
	Qty           float64    `json:"qty"`
	Redistributed bool       `json:"redistributed"`
}

// ConservationCheck compares a group's total quantity with what was allocated.
type ConservationCheck struct {
	VendorID      string    `json:"vendor_id"`
	VendorName    string    `json:"primary_vendor_name"`
	Logic         LogicID   `json:"logic"`
	FirstShipDate time.Time `json:"first_ship_date"`
	Weekdays      []string  `json:"weekdays"`
	SplitQty      float64   `json:"split_qty"`
	Days          int       `json:"days"`
	TotalQty      float64   `json:"total_qty"`
	AllocatedQty  float64   `json:"allocated_qty"`
	Discrepancy   float64   `json:"discrepancy"`
}

// Balanced reports whether allocation conserved the total exactly.
func (c ConservationCheck) Balanced() bool { return c.Discrepancy == 0 }

// AdjustedQty is the effective quantity of one row after redistribution.
type AdjustedQty struct {
	ProductID     string  `json:"product_id"`
	LocationID    string  `json:"location_id"`
	VendorID      string  `json:"vendor_id"`
	VendorName    string  `json:"primary_vendor_name"`
	Logic         LogicID `json:"logic"`
	NewRLQty      float64 `json:"new_rl_qty"`
	AdjustedRLQty float64 `json:"adjusted_rl_qty"`
	Redistributed bool    `json:"redistributed"`
}

// Redistribution is the result of splitting vendor quantities across shipment days.
type Redistribution struct {
	Allocations []Allocation        `json:"allocations"`
	Checks      []ConservationCheck `json:"checks"`
	Rows        []AdjustedQty       `json:"rows"`
}

// Discrepancies returns the checks whose allocated total differs from the original.
func (r Redistribution) Discrepancies() []ConservationCheck {
	var out []ConservationCheck
	for _, c := range r.Checks {
		if !c.Balanced() {
			out = append(out, c)
		}
	}
	return out
}

// SeriesPoint is one (date, logic) quantity of the trend series.
type SeriesPoint struct {
	ShipDate time.Time `json:"ship_date"`
	Logic    LogicID   `json:"logic"`
	Quantity float64   `json:"quantity"`
}

// Series is the date-indexed quantity series. Dates without shipments are absent.
type Series struct {
	Points     []SeriesPoint       `json:"points"`
	UndatedQty map[LogicID]float64 `json:"undated_qty,omitempty"`
}

// Totals sums quantities per logic; missing dates count as zero.
func (s Series) Totals() map[LogicID]float64 {
	totals := make(map[LogicID]float64)
	for _, p := range s.Points {
		totals[p.Logic] += p.Quantity
	}
	return totals
}

// LoadStatus is the outcome of loading one source.
type LoadStatus string

const (
	LoadStatusLoaded  LoadStatus = "loaded"
	LoadStatusSkipped LoadStatus = "skipped"
)

// SourceKind tells what a loaded source feeds.
type SourceKind string

const (
	SourceLogic           SourceKind = "logic"
	SourceLeadTime        SourceKind = "lead_time"
	SourceVendorFrequency SourceKind = "vendor_frequency"
)

// LoadOutcome is the typed result of loading one source: loaded with a row
// count, or skipped with a reason.
type LoadOutcome struct {
	Source   string     `json:"source"`
	Kind     SourceKind `json:"kind"`
	Logic    LogicID    `json:"logic,omitempty"`
	Status   LoadStatus `json:"status"`
	Reason   string     `json:"reason,omitempty"`
	Rows     int        `json:"rows"`
	Warnings int        `json:"warnings"`
}

// FilterOptions lists the distinct values offered by the filter widgets.
type FilterOptions struct {
	ParetoClasses []string  `json:"pareto_classes"`
	Locations     []string  `json:"locations"`
	BusinessTags  []string  `json:"business_tags"`
	Logics        []LogicID `json:"logics"`
}
