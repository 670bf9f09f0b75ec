package replenishment

import (
	"strconv"

	"github.com/andresuchdata/rlcompare/internal/domain"
)

// UnsafeExportHeader lists the identification columns followed by the metric
// columns of the unsafe-rows export.
var UnsafeExportHeader = []string{
	ColProductID,
	ColProductName,
	ColLocationID,
	ColVendorID,
	ColVendorName,
	ColPareto,
	ColBusinessTagging,
	ColLogic,
	string(MetricCoverage),
	string(MetricNewRLQty),
	"adjusted_rl_qty",
	string(MetricNewRLValue),
	string(MetricNewDOIPolicyWH),
	string(MetricLandedDOI),
	"inbound_lead_time_days",
	"landed_doi_minus_lead_time",
	"Safety Verdict",
}

// ExportRecords renders rows in UnsafeExportHeader order. Null metrics are
// written as empty cells.
func ExportRecords(rows []domain.UnifiedRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		landed := r.LandedDOIValue
		out = append(out, []string{
			r.ProductID,
			r.ProductName,
			r.LocationID,
			r.VendorID,
			r.VendorName,
			r.ParetoClass,
			r.BusinessTagging,
			string(r.Logic),
			formatDate(r.Coverage),
			formatNumber(r.NewRLQty),
			strconv.FormatFloat(r.AdjustedRLQty, 'f', -1, 64),
			formatNumber(r.NewRLValue),
			formatNumber(r.NewDOIPolicyWH),
			formatNumber(&landed),
			strconv.Itoa(r.InboundLeadTimeDays),
			strconv.FormatFloat(r.LandedDOIMinusLeadTime, 'f', -1, 64),
			string(r.SafetyVerdict),
		})
	}
	return out
}
