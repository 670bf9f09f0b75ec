package replenishment

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/rlcompare/internal/domain"
)

// vendorKey normalizes vendor names for the frequency join.
func vendorKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// NewReferences indexes the reference tables. Later entries for the same key
// replace earlier ones; negative lead times and blank keys are dropped.
func NewReferences(leadTimes []domain.LeadTime, vendors []domain.VendorFrequency) References {
	refs := References{
		LeadTimes: make(map[string]int, len(leadTimes)),
		Vendors:   make(map[string]domain.VendorFrequency, len(vendors)),
	}
	for _, lt := range leadTimes {
		id := strings.TrimSpace(lt.ProductID)
		if id == "" || lt.InboundLeadTimeDays < 0 {
			log.Warn().
				Str("product_id", lt.ProductID).
				Int("lead_time", lt.InboundLeadTimeDays).
				Msg("ignoring invalid lead time reference row")
			continue
		}
		refs.LeadTimes[id] = lt.InboundLeadTimeDays
	}
	for _, v := range vendors {
		key := vendorKey(v.VendorName)
		if key == "" {
			continue
		}
		refs.Vendors[key] = v
	}
	return refs
}

// Enrich left-joins merged records to the reference tables and computes the
// derived fields. Unmatched products get the default lead time; a null
// landed DOI counts as 0 before the lead time is subtracted.
func Enrich(records []domain.LogicRecord, refs References, opts EnrichOptions) Enriched {
	defaultLead := domain.DefaultLeadTimeDays
	if opts.DefaultLeadTimeDays != nil && *opts.DefaultLeadTimeDays >= 0 {
		defaultLead = *opts.DefaultLeadTimeDays
	}
	if opts.Policy.Kind == "" {
		opts.Policy = domain.DefaultSafetyPolicy()
	}

	out := Enriched{Rows: make([]domain.UnifiedRow, 0, len(records))}
	for _, rec := range records {
		row := domain.UnifiedRow{LogicRecord: rec}

		lead, ok := refs.LeadTimes[rec.ProductID]
		if !ok {
			lead = defaultLead
			row.LeadTimeDefaulted = true
			out.DefaultedLeadTimes++
		}
		row.InboundLeadTimeDays = lead

		if rec.LandedDOI != nil {
			row.LandedDOIValue = *rec.LandedDOI
		}
		row.LandedDOIMinusLeadTime = row.LandedDOIValue - float64(lead)
		row.SafetyVerdict = opts.Policy.Classify(row.LandedDOIValue, float64(lead))
		row.AdjustedRLQty = row.Qty()

		if freq, ok := refs.Vendors[vendorKey(rec.VendorName)]; ok {
			row.HasFrequency = true
			row.ShipmentFrequency = freq.ShipmentFrequency
			if row.ShipmentFrequency < 1 {
				row.ShipmentFrequency = 1
			}
			if len(freq.AllowedWeekdays) > 0 {
				row.AllowedWeekdays = append([]time.Weekday(nil), freq.AllowedWeekdays...)
			}
		} else {
			out.AdHocRows++
		}

		out.Rows = append(out.Rows, row)
	}
	return out
}
