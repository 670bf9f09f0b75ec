package replenishment

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/rlcompare/internal/domain"
)

// Engine builds comparison tables over enriched rows.
type Engine struct {
	order  domain.LogicOrder
	policy domain.SafetyPolicy
}

// NewEngine creates an Engine. Empty arguments fall back to the declared
// logic order and the fixed 5-day floor.
func NewEngine(order domain.LogicOrder, policy domain.SafetyPolicy) *Engine {
	if len(order) == 0 {
		order = domain.DefaultLogicOrder
	}
	if policy.Kind == "" {
		policy = domain.DefaultSafetyPolicy()
	}
	return &Engine{order: order, policy: policy}
}

// Policy returns the safety policy used for verdicts.
func (e *Engine) Policy() domain.SafetyPolicy { return e.policy }

// Order returns the declared logic order.
func (e *Engine) Order() domain.LogicOrder { return e.order }

// Filter returns the rows matching f, preserving input order.
func (e *Engine) Filter(rows []domain.UnifiedRow, f domain.Filter) []domain.UnifiedRow {
	out := make([]domain.UnifiedRow, 0, len(rows))
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Compare filters rows and builds the table for the requested view.
// An empty selection yields an empty comparison, not an error.
func (e *Engine) Compare(rows []domain.UnifiedRow, view domain.ViewMode, f domain.Filter) domain.Comparison {
	filtered := e.Filter(rows, f)
	if view == domain.ViewByVendor {
		return domain.Comparison{View: view, Rows: e.ByVendor(filtered)}
	}
	return domain.Comparison{View: domain.ViewByProduct, Rows: e.ByProduct(filtered)}
}

// ByProduct returns one comparison row per input row, ordered by product,
// location and declared logic order.
func (e *Engine) ByProduct(rows []domain.UnifiedRow) []domain.ComparisonRow {
	out := make([]domain.ComparisonRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.ComparisonRow{
			Logic:                  r.Logic,
			ProductID:              r.ProductID,
			ProductName:            r.ProductName,
			LocationID:             r.LocationID,
			VendorID:               r.VendorID,
			VendorName:             r.VendorName,
			Coverage:               r.Coverage,
			NewRLQty:               r.Qty(),
			NewRLValue:             r.NewRLValue,
			NewDOIPolicyWH:         r.NewDOIPolicyWH,
			MaxDOIFinal:            r.MaxDOIFinal,
			LandedDOI:              r.LandedDOIValue,
			LandedDOIMinusLeadTime: r.LandedDOIMinusLeadTime,
			InboundLeadTimeDays:    r.InboundLeadTimeDays,
			Verdict:                e.policy.Classify(r.LandedDOIValue, float64(r.InboundLeadTimeDays)),
			SourceRows:             1,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		if a.LocationID != b.LocationID {
			return a.LocationID < b.LocationID
		}
		return e.order.Less(a.Logic, b.Logic)
	})
	return out
}

type vendorGroupKey struct {
	VendorID   string
	VendorName string
	Logic      domain.LogicID
}

// vendorAcc accumulates one (vendor, logic) group.
type vendorAcc struct {
	qty       decimal.Decimal
	value     decimal.Decimal
	hasValue  bool
	coverage  *time.Time
	doiSum    decimal.Decimal
	doiCount  int64
	maxDOISum decimal.Decimal
	maxDOIN   int64
	landedSum decimal.Decimal
	minusSum  decimal.Decimal
	minLead   int
	rows      int64
}

func (a *vendorAcc) add(r domain.UnifiedRow) {
	if a.rows == 0 || r.InboundLeadTimeDays < a.minLead {
		a.minLead = r.InboundLeadTimeDays
	}
	a.rows++

	a.qty = a.qty.Add(decimal.NewFromFloat(r.Qty()))
	if r.NewRLValue != nil {
		a.value = a.value.Add(decimal.NewFromFloat(*r.NewRLValue))
		a.hasValue = true
	}
	if r.Coverage != nil && (a.coverage == nil || r.Coverage.After(*a.coverage)) {
		c := *r.Coverage
		a.coverage = &c
	}
	if r.NewDOIPolicyWH != nil {
		a.doiSum = a.doiSum.Add(decimal.NewFromFloat(*r.NewDOIPolicyWH))
		a.doiCount++
	}
	if r.MaxDOIFinal != nil {
		a.maxDOISum = a.maxDOISum.Add(decimal.NewFromFloat(*r.MaxDOIFinal))
		a.maxDOIN++
	}
	a.landedSum = a.landedSum.Add(decimal.NewFromFloat(r.LandedDOIValue))
	a.minusSum = a.minusSum.Add(decimal.NewFromFloat(r.LandedDOIMinusLeadTime))
}

func mean(sum decimal.Decimal, n int64) float64 {
	if n == 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(n)).InexactFloat64()
}

// ByVendor groups rows by (vendor_id, primary_vendor_name, logic) and
// aggregates: qty and value summed, coverage max, DOI policy, max DOI, landed
// DOI and landed-minus-lead averaged, lead time min. The verdict is computed from the
// aggregated landed DOI. Rows are ordered by vendor then declared logic order.
func (e *Engine) ByVendor(rows []domain.UnifiedRow) []domain.ComparisonRow {
	groups := make(map[vendorGroupKey]*vendorAcc)
	var keys []vendorGroupKey
	for _, r := range rows {
		k := vendorGroupKey{VendorID: r.VendorID, VendorName: r.VendorName, Logic: r.Logic}
		acc, ok := groups[k]
		if !ok {
			acc = &vendorAcc{}
			groups[k] = acc
			keys = append(keys, k)
		}
		acc.add(r)
	}

	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.VendorID != b.VendorID {
			return a.VendorID < b.VendorID
		}
		if a.VendorName != b.VendorName {
			return a.VendorName < b.VendorName
		}
		return e.order.Less(a.Logic, b.Logic)
	})

	out := make([]domain.ComparisonRow, 0, len(keys))
	for _, k := range keys {
		acc := groups[k]
		row := domain.ComparisonRow{
			Logic:                  k.Logic,
			VendorID:               k.VendorID,
			VendorName:             k.VendorName,
			Coverage:               acc.coverage,
			NewRLQty:               acc.qty.InexactFloat64(),
			LandedDOI:              mean(acc.landedSum, acc.rows),
			LandedDOIMinusLeadTime: mean(acc.minusSum, acc.rows),
			InboundLeadTimeDays:    acc.minLead,
			SourceRows:             int(acc.rows),
		}
		if acc.hasValue {
			v := acc.value.InexactFloat64()
			row.NewRLValue = &v
		}
		if acc.doiCount > 0 {
			d := mean(acc.doiSum, acc.doiCount)
			row.NewDOIPolicyWH = &d
		}
		if acc.maxDOIN > 0 {
			m := mean(acc.maxDOISum, acc.maxDOIN)
			row.MaxDOIFinal = &m
		}
		row.Verdict = e.policy.Classify(row.LandedDOI, float64(row.InboundLeadTimeDays))
		out = append(out, row)
	}
	return out
}

// UnsafeRows returns the filtered rows classified Unsafe, in input order.
func (e *Engine) UnsafeRows(rows []domain.UnifiedRow, f domain.Filter) []domain.UnifiedRow {
	var out []domain.UnifiedRow
	for _, r := range rows {
		if !f.Match(r) {
			continue
		}
		if e.policy.Classify(r.LandedDOIValue, float64(r.InboundLeadTimeDays)) == domain.VerdictUnsafe {
			out = append(out, r)
		}
	}
	return out
}

// Options collects the distinct filter values present in rows.
func (e *Engine) Options(rows []domain.UnifiedRow) domain.FilterOptions {
	pareto := map[string]struct{}{}
	locations := map[string]struct{}{}
	tags := map[string]struct{}{}
	var logics []domain.LogicID
	for _, r := range rows {
		if r.ParetoClass != "" {
			pareto[r.ParetoClass] = struct{}{}
		}
		if r.LocationID != "" {
			locations[r.LocationID] = struct{}{}
		}
		if r.BusinessTagging != "" {
			tags[r.BusinessTagging] = struct{}{}
		}
		logics = append(logics, r.Logic)
	}
	return domain.FilterOptions{
		ParetoClasses: sortedKeys(pareto),
		Locations:     sortedKeys(locations),
		BusinessTags:  sortedKeys(tags),
		Logics:        e.order.Sort(logics),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
