package replenishment

import (
	"fmt"
	"sort"

	"github.com/andresuchdata/rlcompare/internal/domain"
)

// Merge concatenates normalized tables into one table and parses the
// comma-grouped new_rl_value text. Rows are sorted by product id, then by the
// declared logic order, then by location and vendor. Input tables are not
// modified.
func Merge(tables []NormalizedTable, order domain.LogicOrder) MergedTable {
	if len(order) == 0 {
		order = domain.DefaultLogicOrder
	}

	total := 0
	for _, t := range tables {
		total += len(t.Records)
	}

	out := MergedTable{Rows: make([]domain.LogicRecord, 0, total)}
	logics := make([]domain.LogicID, 0, len(tables))
	for _, t := range tables {
		out.Warnings = append(out.Warnings, t.Warnings...)
		if len(t.Records) > 0 || t.Logic != "" {
			logics = append(logics, t.Logic)
		}
		for i, rec := range t.Records {
			value, ok := parseNumber(rec.NewRLValueText)
			if !ok {
				out.Warnings = append(out.Warnings, domain.CoercionWarning{
					Source: t.Source,
					Row:    t.line(i),
					Column: string(MetricNewRLValue),
					Value:  rec.NewRLValueText,
					Reason: fmt.Sprintf("not a number for %s, set to null", rec.ProductID),
				})
			}
			rec.NewRLValue = value
			out.Rows = append(out.Rows, rec)
		}
	}
	out.Logics = order.Sort(logics)

	sort.SliceStable(out.Rows, func(i, j int) bool {
		a, b := out.Rows[i], out.Rows[j]
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		if a.Logic != b.Logic {
			return order.Less(a.Logic, b.Logic)
		}
		if a.LocationID != b.LocationID {
			return a.LocationID < b.LocationID
		}
		return a.VendorID < b.VendorID
	})
	return out
}
