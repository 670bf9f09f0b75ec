package replenishment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/rlcompare/internal/domain"
)

func TestEngine_ByVendorAggregates(t *testing.T) {
	rows := []domain.UnifiedRow{
		unified("Logic B", "1", "Acme", 10, f64(4), 3),
		unified("Logic A", "1", "Acme", 20, f64(8), 7),
		unified("Logic A", "2", "Acme", 30, f64(2), 5),
		unified("Logic A", "3", "Beta", 5, nil, 7),
	}
	rows[1].NewRLValue = f64(1000.10)
	rows[2].NewRLValue = f64(2000.20)
	rows[1].NewDOIPolicyWH = f64(20)
	rows[1].Coverage = day("2024-03-01")
	rows[2].Coverage = day("2024-03-09")

	got := NewEngine(nil, domain.SafetyPolicy{}).ByVendor(rows)
	require.Len(t, got, 3)

	acmeA := got[0]
	assert.Equal(t, "V-Acme", acmeA.VendorID)
	assert.Equal(t, domain.LogicID("Logic A"), acmeA.Logic)
	assert.Equal(t, 50.0, acmeA.NewRLQty)
	require.NotNil(t, acmeA.NewRLValue)
	assert.Equal(t, 3000.3, *acmeA.NewRLValue)
	require.NotNil(t, acmeA.NewDOIPolicyWH)
	assert.Equal(t, 20.0, *acmeA.NewDOIPolicyWH, "mean ignores null policy values")
	assert.Equal(t, 5.0, acmeA.LandedDOI)
	assert.Equal(t, 5, acmeA.InboundLeadTimeDays)
	assert.Equal(t, "2024-03-09", acmeA.Coverage.Format("2006-01-02"))
	assert.Equal(t, domain.VerdictSafe, acmeA.Verdict)
	assert.Equal(t, 2, acmeA.SourceRows)

	assert.Equal(t, domain.LogicID("Logic B"), got[1].Logic)
	assert.Equal(t, domain.VerdictUnsafe, got[1].Verdict)

	beta := got[2]
	assert.Equal(t, "V-Beta", beta.VendorID)
	assert.Nil(t, beta.NewRLValue)
	assert.Nil(t, beta.NewDOIPolicyWH)
	assert.Equal(t, domain.VerdictUnsafe, beta.Verdict)
}

func TestEngine_ByVendorDeterministic(t *testing.T) {
	rows := []domain.UnifiedRow{
		unified("Logic C", "1", "Acme", 1.1, f64(4), 3),
		unified("Logic A", "2", "Beta", 2.2, f64(8), 7),
		unified("Logic B", "3", "Acme", 3.3, f64(2), 5),
		unified("Logic A", "4", "Acme", 4.4, f64(9), 2),
	}
	reversed := make([]domain.UnifiedRow, len(rows))
	for i := range rows {
		reversed[len(rows)-1-i] = rows[i]
	}

	engine := NewEngine(domain.DefaultLogicOrder, domain.DefaultSafetyPolicy())
	first, err := json.Marshal(engine.ByVendor(rows))
	require.NoError(t, err)
	second, err := json.Marshal(engine.ByVendor(rows))
	require.NoError(t, err)
	third, err := json.Marshal(engine.ByVendor(reversed))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, string(first), string(third))
}

func TestEngine_CompareEmptySelection(t *testing.T) {
	engine := NewEngine(nil, domain.SafetyPolicy{})
	rows := []domain.UnifiedRow{unified("Logic A", "1", "Acme", 1, f64(1), 7)}

	for _, view := range []domain.ViewMode{domain.ViewByProduct, domain.ViewByVendor} {
		got := engine.Compare(rows, view, domain.Filter{ProductID: "missing"})
		assert.True(t, got.Empty())
		assert.Equal(t, view, got.View)

		got = engine.Compare(nil, view, domain.Filter{})
		assert.True(t, got.Empty())
	}
}

func TestEngine_FiltersAndOptions(t *testing.T) {
	rows := []domain.UnifiedRow{
		unified("Logic B", "1", "Acme", 1, f64(1), 7),
		unified("Logic A", "2", "Acme", 1, f64(9), 7),
		unified("Logic A", "3", "Acme", 1, f64(1), 7),
	}
	rows[0].ParetoClass, rows[0].BusinessTagging = "A", "Retail"
	rows[1].ParetoClass, rows[1].BusinessTagging = "B", "Retail"
	rows[2].ParetoClass, rows[2].BusinessTagging, rows[2].LocationID = "New SKU A", "Online", "L2"

	engine := NewEngine(nil, domain.SafetyPolicy{})

	got := engine.Compare(rows, domain.ViewByProduct, domain.Filter{ParetoClasses: []string{"A", "B"}, BusinessTags: []string{"Retail"}})
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "1", got.Rows[0].ProductID)

	unsafe := engine.UnsafeRows(rows, domain.Filter{Locations: []string{"L1"}})
	require.Len(t, unsafe, 1)
	assert.Equal(t, "1", unsafe[0].ProductID)

	opts := engine.Options(rows)
	assert.Equal(t, []string{"A", "B", "New SKU A"}, opts.ParetoClasses)
	assert.Equal(t, []string{"L1", "L2"}, opts.Locations)
	assert.Equal(t, []string{"Online", "Retail"}, opts.BusinessTags)
	assert.Equal(t, []domain.LogicID{"Logic A", "Logic B"}, opts.Logics)
}

// Two logic files for the same product end up as an [A, B] table with
// verdicts [Unsafe, Safe].
func TestPipeline_EndToEndTwoLogics(t *testing.T) {
	b := normalized(t, "Logic B", rawRow{product: "001", location: "L1", vendorID: "V1", vendor: "Vendor One", qty: "80", landed: "6"})
	a := normalized(t, "Logic A", rawRow{product: "001", location: "L1", vendorID: "V1", vendor: "Vendor One", qty: "50", landed: "3"})
	other := normalized(t, "Logic A", rawRow{product: "002", location: "L1", vendorID: "V1", vendor: "Vendor One", qty: "5", landed: "9"})

	merged := Merge([]NormalizedTable{b, a, other}, domain.DefaultLogicOrder)
	enriched := Enrich(merged.Rows, References{}, DefaultEnrichOptions())

	engine := NewEngine(domain.DefaultLogicOrder, domain.DefaultSafetyPolicy())
	got := engine.Compare(enriched.Rows, domain.ViewByProduct, domain.Filter{ProductID: "001"})

	require.Len(t, got.Rows, 2)
	assert.Equal(t, domain.LogicID("Logic A"), got.Rows[0].Logic)
	assert.Equal(t, domain.LogicID("Logic B"), got.Rows[1].Logic)
	assert.Equal(t, 50.0, got.Rows[0].NewRLQty)
	assert.Equal(t, 80.0, got.Rows[1].NewRLQty)
	assert.Equal(t, domain.VerdictUnsafe, got.Rows[0].Verdict)
	assert.Equal(t, domain.VerdictSafe, got.Rows[1].Verdict)
	assert.Equal(t, -4.0, got.Rows[0].LandedDOIMinusLeadTime)
}
