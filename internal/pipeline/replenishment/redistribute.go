package replenishment

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/rlcompare/internal/domain"
)

type shipGroupKey struct {
	VendorID   string
	VendorName string
	Logic      domain.LogicID
}

type shipGroup struct {
	key      shipGroupKey
	indexes  []int // positions in the input slice
	total    float64
	first    *time.Time
	weekdays []time.Weekday
	freq     bool
}

// Redistribute splits each (vendor, logic) total across the vendor's allowed
// weekdays in the week of its earliest ship date. The split is
// round(total / len(weekdays)) with ties to even, so totals not divisible by
// the weekday count lose the remainder; every redistributed group carries a
// ConservationCheck recording that loss.
//
// Vendors without a frequency entry, with no allowed weekdays, or without any
// ship date keep their original quantities, one allocation per ship date.
//
// The returned rows are a copy of rows with AdjustedRLQty set to the
// per-day share for redistributed vendors. The plan's Rows mirror them in
// input order.
func Redistribute(rows []domain.UnifiedRow, order domain.LogicOrder) (domain.Redistribution, []domain.UnifiedRow) {
	if len(order) == 0 {
		order = domain.DefaultLogicOrder
	}

	// 1) Group rows by vendor and logic
	groups := make(map[shipGroupKey]*shipGroup)
	var keys []shipGroupKey
	for i, r := range rows {
		k := shipGroupKey{VendorID: r.VendorID, VendorName: r.VendorName, Logic: r.Logic}
		g, ok := groups[k]
		if !ok {
			g = &shipGroup{key: k}
			groups[k] = g
			keys = append(keys, k)
		}
		g.indexes = append(g.indexes, i)
		g.total += r.Qty()
		if r.ShipDate != nil {
			d := truncateDay(*r.ShipDate)
			if g.first == nil || d.Before(*g.first) {
				g.first = &d
			}
		}
		if r.HasFrequency {
			g.freq = true
			if len(g.weekdays) == 0 && len(r.AllowedWeekdays) > 0 {
				g.weekdays = r.AllowedWeekdays
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.VendorID != b.VendorID {
			return a.VendorID < b.VendorID
		}
		if a.VendorName != b.VendorName {
			return a.VendorName < b.VendorName
		}
		return order.Less(a.Logic, b.Logic)
	})

	adjusted := make([]domain.UnifiedRow, len(rows))
	copy(adjusted, rows)
	redistributed := make([]bool, len(rows))

	var out domain.Redistribution
	for _, k := range keys {
		g := groups[k]
		if !g.freq || len(g.weekdays) == 0 || g.first == nil {
			out.Allocations = append(out.Allocations, passThrough(g, rows)...)
			continue
		}

		// 2) Walk the week from the first ship date
		split := math.RoundToEven(g.total / float64(len(g.weekdays)))
		allowed := make(map[time.Weekday]bool, len(g.weekdays))
		for _, d := range g.weekdays {
			allowed[d] = true
		}

		check := domain.ConservationCheck{
			VendorID:      k.VendorID,
			VendorName:    k.VendorName,
			Logic:         k.Logic,
			FirstShipDate: *g.first,
			Weekdays:      domain.WeekdayLabels(g.weekdays),
			SplitQty:      split,
			TotalQty:      g.total,
		}
		end := domain.EndOfWeek(*g.first)
		for day := *g.first; !day.After(end); day = day.AddDate(0, 0, 1) {
			if !allowed[day.Weekday()] {
				continue
			}
			d := day
			out.Allocations = append(out.Allocations, domain.Allocation{
				VendorID:      k.VendorID,
				VendorName:    k.VendorName,
				Logic:         k.Logic,
				ShipDate:      &d,
				Qty:           split,
				Redistributed: true,
			})
			check.Days++
			check.AllocatedQty += split
		}
		check.Discrepancy = check.TotalQty - check.AllocatedQty
		out.Checks = append(out.Checks, check)

		for _, i := range g.indexes {
			adjusted[i].AdjustedRLQty = split
			redistributed[i] = true
		}

		// 3) Surface rounding or partial-week loss
		if !check.Balanced() {
			log.Warn().
				Str("vendor", k.VendorName).
				Str("logic", string(k.Logic)).
				Float64("total", check.TotalQty).
				Float64("allocated", check.AllocatedQty).
				Float64("discrepancy", check.Discrepancy).
				Msg("redistribution did not conserve quantity")
		}
	}

	out.Rows = make([]domain.AdjustedQty, 0, len(adjusted))
	for i, r := range adjusted {
		out.Rows = append(out.Rows, domain.AdjustedQty{
			ProductID:     r.ProductID,
			LocationID:    r.LocationID,
			VendorID:      r.VendorID,
			VendorName:    r.VendorName,
			Logic:         r.Logic,
			NewRLQty:      r.Qty(),
			AdjustedRLQty: r.AdjustedRLQty,
			Redistributed: redistributed[i],
		})
	}
	return out, adjusted
}

// passThrough keeps a group's quantities on their original dates, summing
// rows that share a date. Undated rows are kept with a nil date.
func passThrough(g *shipGroup, rows []domain.UnifiedRow) []domain.Allocation {
	type dated struct {
		date *time.Time
		qty  float64
	}
	byDate := make(map[int64]*dated)
	var order []int64
	const undated = math.MinInt64
	for _, i := range g.indexes {
		r := rows[i]
		key := int64(undated)
		var date *time.Time
		if r.ShipDate != nil {
			d := truncateDay(*r.ShipDate)
			date = &d
			key = d.Unix()
		}
		entry, ok := byDate[key]
		if !ok {
			entry = &dated{date: date}
			byDate[key] = entry
			order = append(order, key)
		}
		entry.qty += r.Qty()
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	out := make([]domain.Allocation, 0, len(order))
	for _, key := range order {
		entry := byDate[key]
		out = append(out, domain.Allocation{
			VendorID:   g.key.VendorID,
			VendorName: g.key.VendorName,
			Logic:      g.key.Logic,
			ShipDate:   entry.date,
			Qty:        entry.qty,
		})
	}
	return out
}
