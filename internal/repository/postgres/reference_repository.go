package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/andresuchdata/rlcompare/internal/domain"
	"github.com/andresuchdata/rlcompare/internal/source"
)

const (
	leadTimeTable        = "lead_times"
	vendorFrequencyTable = "vendor_frequencies"
)

type leadTimeRow struct {
	ProductID string          `db:"product_id"`
	Days      sql.NullFloat64 `db:"inbound_lead_time_days"`
}

type vendorFrequencyRow struct {
	VendorName string         `db:"primary_vendor_name"`
	Frequency  sql.NullInt64  `db:"shipment_frequency"`
	Weekdays   pq.StringArray `db:"allowed_weekdays"`
}

// ReferenceRepository reads the lead-time and vendor-frequency tables from
// the planning database. It never writes.
type ReferenceRepository struct {
	db      *DB
	vendors []string
}

// NewReferenceRepository creates a ReferenceRepository. When vendors is not
// empty only those vendor names are read from the frequency table.
func NewReferenceRepository(db *DB, vendors ...string) *ReferenceRepository {
	return &ReferenceRepository{db: db, vendors: vendors}
}

var _ source.ReferenceSource = (*ReferenceRepository)(nil)

func (r *ReferenceRepository) Location(kind domain.SourceKind) string {
	if kind == domain.SourceVendorFrequency {
		return "postgres:" + vendorFrequencyTable
	}
	return "postgres:" + leadTimeTable
}

func (r *ReferenceRepository) LeadTimes(ctx context.Context) ([]domain.LeadTime, []domain.CoercionWarning, error) {
	query := `
		SELECT product_id, inbound_lead_time_days
		FROM lead_times
		WHERE TRIM(product_id) <> ''
		ORDER BY product_id
	`

	var rows []leadTimeRow
	err := r.db.WithReadTx(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &rows, query)
	})
	if err != nil {
		return nil, nil, &domain.SourceUnavailableError{
			Source: r.Location(domain.SourceLeadTime),
			Err:    fmt.Errorf("error getting lead times: %w", err),
		}
	}

	out, warnings := toLeadTimes(r.Location(domain.SourceLeadTime), rows)
	return out, warnings, nil
}

func (r *ReferenceRepository) VendorFrequencies(ctx context.Context) ([]domain.VendorFrequency, []domain.CoercionWarning, error) {
	query := `
		SELECT primary_vendor_name, shipment_frequency, allowed_weekdays
		FROM vendor_frequencies
		WHERE TRIM(primary_vendor_name) <> ''
	`
	var args []interface{}
	if len(r.vendors) > 0 {
		query += " AND primary_vendor_name = ANY($1)"
		args = append(args, pq.Array(r.vendors))
	}
	query += " ORDER BY primary_vendor_name"

	var rows []vendorFrequencyRow
	err := r.db.WithReadTx(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, nil, &domain.SourceUnavailableError{
			Source: r.Location(domain.SourceVendorFrequency),
			Err:    fmt.Errorf("error getting vendor frequencies: %w", err),
		}
	}

	out, warnings := toVendorFrequencies(r.Location(domain.SourceVendorFrequency), rows)
	return out, warnings, nil
}

// toLeadTimes drops NULL, negative or fractional lead times with a warning.
func toLeadTimes(source string, rows []leadTimeRow) ([]domain.LeadTime, []domain.CoercionWarning) {
	out := make([]domain.LeadTime, 0, len(rows))
	var warnings []domain.CoercionWarning
	for i, row := range rows {
		id := strings.TrimSpace(row.ProductID)
		if !row.Days.Valid || row.Days.Float64 < 0 || row.Days.Float64 != math.Trunc(row.Days.Float64) {
			value := "NULL"
			if row.Days.Valid {
				value = strconv.FormatFloat(row.Days.Float64, 'f', -1, 64)
			}
			warnings = append(warnings, domain.CoercionWarning{
				Source: source, Row: i + 1, Column: "inbound_lead_time_days", Value: value,
				Reason: "not a non-negative whole number",
			})
			continue
		}
		out = append(out, domain.LeadTime{ProductID: id, InboundLeadTimeDays: int(row.Days.Float64)})
	}
	return out, warnings
}

func toVendorFrequencies(source string, rows []vendorFrequencyRow) ([]domain.VendorFrequency, []domain.CoercionWarning) {
	out := make([]domain.VendorFrequency, 0, len(rows))
	var warnings []domain.CoercionWarning
	for i, row := range rows {
		vf := domain.VendorFrequency{VendorName: strings.TrimSpace(row.VendorName), ShipmentFrequency: 1}
		if row.Frequency.Valid && row.Frequency.Int64 >= 1 {
			vf.ShipmentFrequency = int(row.Frequency.Int64)
		} else if row.Frequency.Valid {
			warnings = append(warnings, domain.CoercionWarning{
				Source: source, Row: i + 1, Column: "shipment_frequency",
				Value:  strconv.FormatInt(row.Frequency.Int64, 10),
				Reason: "invalid shipment frequency, defaulted to 1",
			})
		}

		raw := strings.Join(row.Weekdays, ",")
		days, err := domain.ParseWeekdays(raw)
		if err != nil {
			warnings = append(warnings, domain.CoercionWarning{
				Source: source, Row: i + 1, Column: "allowed_weekdays", Value: raw, Reason: err.Error(),
			})
		}
		vf.AllowedWeekdays = days
		out = append(out, vf)
	}
	return out, warnings
}
