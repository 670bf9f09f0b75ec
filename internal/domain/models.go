// internal/domain/models.go
package domain

import "time"

// LogicID identifies the replenishment formula that produced a row, e.g. "Logic A".
type LogicID string

// LogicRecord is one normalized row of a per-logic extract
type LogicRecord struct {
	ProductID       string   `json:"product_id"`
	ProductName     string   `json:"product_name"`
	LocationID      string   `json:"location_id"`
	BusinessTagging string   `json:"business_tagging"`
	ProductTypeName string   `json:"product_type_name"`
	VendorID        string   `json:"vendor_id"`
	VendorName      string   `json:"primary_vendor_name"`
	ParetoClass     string   `json:"pareto_class"`
	ActiveHub       bool     `json:"active_hub"`
	MaxDOIFinal     *float64 `json:"max_doi_final"`

	ShipDate               *time.Time `json:"ship_date"`
	InboundToOOSProjection string     `json:"inbound_to_oos_projection,omitempty"`

	// Per-logic metrics (prefix already stripped)
	Coverage       *time.Time `json:"coverage"`
	OrderDate      *time.Time `json:"order_date,omitempty"`
	NewDOIPolicyWH *float64   `json:"new_doi_policy_wh"`
	NewRLQty       *float64   `json:"new_rl_qty"`
	NewRLValueText string     `json:"-"` // raw cell, parsed by the merger
	NewRLValue     *float64   `json:"new_rl_value"`
	LandedDOI      *float64   `json:"landed_doi"`

	Logic LogicID `json:"logic_id"`
}

// Key returns the (product, location, logic) identity of the record.
func (r LogicRecord) Key() RecordKey {
	return RecordKey{ProductID: r.ProductID, LocationID: r.LocationID, Logic: r.Logic}
}

// RecordKey is unique within a single logic-tagged subset.
type RecordKey struct {
	ProductID  string
	LocationID string
	Logic      LogicID
}

// LeadTime is one row of the inbound lead-time reference table.
type LeadTime struct {
	ProductID           string `json:"product_id" db:"product_id"`
	InboundLeadTimeDays int    `json:"inbound_lead_time_days" db:"inbound_lead_time_days"`
}

// VendorFrequency is one row of the vendor shipment-frequency reference table.
type VendorFrequency struct {
	VendorName        string         `json:"primary_vendor_name"`
	ShipmentFrequency int            `json:"shipment_frequency"`
	AllowedWeekdays   []time.Weekday `json:"allowed_weekdays"`
}

// UnifiedRow is a merged LogicRecord enriched with reference data and derived fields.
type UnifiedRow struct {
	LogicRecord

	InboundLeadTimeDays    int     `json:"inbound_lead_time_days"`
	LeadTimeDefaulted      bool    `json:"lead_time_defaulted"`
	LandedDOIValue         float64 `json:"landed_doi_value"` // landed_doi with null defaulted to 0
	LandedDOIMinusLeadTime float64 `json:"landed_doi_minus_lead_time"`
	SafetyVerdict          Verdict `json:"safety_verdict"`
	AdjustedRLQty          float64 `json:"adjusted_rl_qty"`

	HasFrequency      bool           `json:"has_frequency"`
	ShipmentFrequency int            `json:"shipment_frequency"`
	AllowedWeekdays   []time.Weekday `json:"allowed_weekdays,omitempty"`
}

// Qty returns new_rl_qty with null treated as zero.
func (r UnifiedRow) Qty() float64 {
	if r.NewRLQty == nil {
		return 0
	}
	return *r.NewRLQty
}

// Verdict is the safety classification of a row.
type Verdict string

const (
	VerdictSafe   Verdict = "Safe"
	VerdictUnsafe Verdict = "Unsafe"
)

// DefaultSafetyThreshold is the fixed landed-DOI floor in days.
const DefaultSafetyThreshold = 5.0

// DefaultLeadTimeDays is applied to products missing from the lead-time table.
const DefaultLeadTimeDays = 7

// SafetyPolicyKind selects how a landed DOI is judged.
type SafetyPolicyKind string

const (
	// PolicyFixedFloor marks rows Unsafe when landed DOI < Threshold.
	PolicyFixedFloor SafetyPolicyKind = "fixed_floor"
	// PolicyLeadTime marks rows Unsafe when landed DOI < inbound lead time.
	PolicyLeadTime SafetyPolicyKind = "lead_time"
)

// SafetyPolicy classifies landed DOI values.
type SafetyPolicy struct {
	Kind      SafetyPolicyKind
	Threshold float64
}

// DefaultSafetyPolicy returns the fixed 5-day floor.
func DefaultSafetyPolicy() SafetyPolicy {
	return SafetyPolicy{Kind: PolicyFixedFloor, Threshold: DefaultSafetyThreshold}
}

// Classify returns the verdict for a landed DOI and its lead time.
func (p SafetyPolicy) Classify(landedDOI, leadTimeDays float64) Verdict {
	floor := p.Threshold
	if floor <= 0 {
		floor = DefaultSafetyThreshold
	}
	if p.Kind == PolicyLeadTime {
		floor = leadTimeDays
	}
	if landedDOI < floor {
		return VerdictUnsafe
	}
	return VerdictSafe
}
