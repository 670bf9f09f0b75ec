package replenishment

import (
	"sort"
	"time"

	"github.com/andresuchdata/rlcompare/internal/domain"
)

// EntriesFromRows uses each row's ship date and new_rl_qty.
func EntriesFromRows(rows []domain.UnifiedRow) []SeriesEntry {
	out := make([]SeriesEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, SeriesEntry{ShipDate: r.ShipDate, Logic: r.Logic, Qty: r.Qty()})
	}
	return out
}

// EntriesFromAllocations uses redistributed allocations as series input.
func EntriesFromAllocations(allocs []domain.Allocation) []SeriesEntry {
	out := make([]SeriesEntry, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, SeriesEntry{ShipDate: a.ShipDate, Logic: a.Logic, Qty: a.Qty})
	}
	return out
}

type seriesKey struct {
	day   int64
	logic domain.LogicID
}

// BuildSeries sums quantities per (ship date, logic), ordered by date then
// declared logic order. Dates without shipments are not filled in; undated
// quantities are reported per logic in UndatedQty.
func BuildSeries(entries []SeriesEntry, order domain.LogicOrder) domain.Series {
	if len(order) == 0 {
		order = domain.DefaultLogicOrder
	}

	sums := make(map[seriesKey]float64)
	var keys []seriesKey
	series := domain.Series{}
	for _, e := range entries {
		if e.ShipDate == nil {
			if series.UndatedQty == nil {
				series.UndatedQty = make(map[domain.LogicID]float64)
			}
			series.UndatedQty[e.Logic] += e.Qty
			continue
		}
		k := seriesKey{day: truncateDay(*e.ShipDate).Unix(), logic: e.Logic}
		if _, ok := sums[k]; !ok {
			keys = append(keys, k)
		}
		sums[k] += e.Qty
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].day != keys[j].day {
			return keys[i].day < keys[j].day
		}
		return order.Less(keys[i].logic, keys[j].logic)
	})

	series.Points = make([]domain.SeriesPoint, 0, len(keys))
	for _, k := range keys {
		series.Points = append(series.Points, domain.SeriesPoint{
			ShipDate: time.Unix(k.day, 0).UTC(),
			Logic:    k.logic,
			Quantity: sums[k],
		})
	}
	return series
}
