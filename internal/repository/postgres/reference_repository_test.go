package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/rlcompare/internal/domain"
)

func TestToLeadTimes(t *testing.T) {
	rows := []leadTimeRow{
		{ProductID: " P1 ", Days: sql.NullFloat64{Float64: 3, Valid: true}},
		{ProductID: "P2"},
		{ProductID: "P3", Days: sql.NullFloat64{Float64: -1, Valid: true}},
		{ProductID: "P4", Days: sql.NullFloat64{Float64: 2.5, Valid: true}},
	}

	out, warnings := toLeadTimes("postgres:lead_times", rows)
	assert.Equal(t, []domain.LeadTime{{ProductID: "P1", InboundLeadTimeDays: 3}}, out)
	require.Len(t, warnings, 3)
	assert.Equal(t, "NULL", warnings[0].Value)
	assert.Equal(t, "-1", warnings[1].Value)
	assert.Equal(t, "2.5", warnings[2].Value)
	assert.Equal(t, 4, warnings[2].Row)
}

func TestToVendorFrequencies(t *testing.T) {
	rows := []vendorFrequencyRow{
		{VendorName: "ACME", Frequency: sql.NullInt64{Int64: 2, Valid: true}, Weekdays: pq.StringArray{"Thu", "Mon"}},
		{VendorName: "Budi", Weekdays: pq.StringArray{"Senin", "Funday"}},
		{VendorName: "Zero", Frequency: sql.NullInt64{Int64: 0, Valid: true}},
	}

	out, warnings := toVendorFrequencies("postgres:vendor_frequencies", rows)
	require.Len(t, out, 3)
	assert.Equal(t, 2, out[0].ShipmentFrequency)
	assert.Equal(t, []time.Weekday{time.Monday, time.Thursday}, out[0].AllowedWeekdays)
	assert.Equal(t, 1, out[1].ShipmentFrequency)
	assert.Equal(t, []time.Weekday{time.Monday}, out[1].AllowedWeekdays)
	assert.Equal(t, 1, out[2].ShipmentFrequency)
	assert.Empty(t, out[2].AllowedWeekdays)

	require.Len(t, warnings, 2)
	assert.Equal(t, "allowed_weekdays", warnings[0].Column)
	assert.Equal(t, "shipment_frequency", warnings[1].Column)
}

func TestReferenceLocation(t *testing.T) {
	r := NewReferenceRepository(nil)
	assert.Equal(t, "postgres:lead_times", r.Location(domain.SourceLeadTime))
	assert.Equal(t, "postgres:vendor_frequencies", r.Location(domain.SourceVendorFrequency))
}
