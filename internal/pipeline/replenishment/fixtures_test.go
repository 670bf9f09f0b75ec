package replenishment

import (
	"time"

	"github.com/andresuchdata/rlcompare/internal/domain"
)

// logicHeader returns a raw header for a logic extract with prefixed metric columns.
func logicHeader(label string) []string {
	return []string{
		ColProductID, ColProductName, ColLocationID, ColBusinessTagging,
		ColProductTypeName, ColVendorID, ColVendorName, ColMaxDOIFinal,
		ColShipDate, ColPareto, ColActiveHub, ColInboundToOOSProjection,
		label + ") coverage",
		label + ") New DOI Policy WH",
		label + ") New RL Qty",
		label + ") New RL Value",
		label + ") Landed DOI",
		"Unrelated Column",
	}
}

type rawRow struct {
	product, location, vendorID, vendor string
	shipDate, coverage                  string
	qty, value, landed                  string
}

func (r rawRow) cells() []string {
	return []string{
		r.product, "Product " + r.product, r.location, "Retail",
		"FMCG", r.vendorID, r.vendor, "30",
		r.shipDate, "A", "1", "",
		r.coverage, "21", r.qty, r.value, r.landed,
		"ignored",
	}
}

func rawTable(label string, rows ...rawRow) domain.RawTable {
	t := domain.RawTable{Source: label + ".csv", Header: logicHeader(label)}
	for _, r := range rows {
		t.Rows = append(t.Rows, r.cells())
	}
	return t
}

func f64(v float64) *float64 { return &v }

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

// unified builds an enriched row directly for engine and redistributor tests.
func unified(logic domain.LogicID, product, vendor string, qty float64, landed *float64, lead int) domain.UnifiedRow {
	r := domain.UnifiedRow{
		LogicRecord: domain.LogicRecord{
			ProductID:  product,
			LocationID: "L1",
			VendorID:   "V-" + vendor,
			VendorName: vendor,
			NewRLQty:   &qty,
			LandedDOI:  landed,
			Logic:      logic,
		},
		InboundLeadTimeDays: lead,
		AdjustedRLQty:       qty,
	}
	if landed != nil {
		r.LandedDOIValue = *landed
	}
	r.LandedDOIMinusLeadTime = r.LandedDOIValue - float64(lead)
	r.SafetyVerdict = domain.DefaultSafetyPolicy().Classify(r.LandedDOIValue, float64(lead))
	return r
}
