package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/andresuchdata/rlcompare/internal/domain"
)

// ReferenceSource supplies the lead-time and vendor-frequency tables.
type ReferenceSource interface {
	// Location names where the table of the given kind is read from.
	Location(kind domain.SourceKind) string
	LeadTimes(ctx context.Context) ([]domain.LeadTime, []domain.CoercionWarning, error)
	VendorFrequencies(ctx context.Context) ([]domain.VendorFrequency, []domain.CoercionWarning, error)
}

// Header aliases accepted in reference files, compared after NormalizeColumnName.
var (
	leadTimeProductColumns = []string{"product_id", "sku", "product"}
	leadTimeDaysColumns    = []string{"inbound_lead_time_days", "Jarak Inbound", "lead_time", "lead_time_days"}
	vendorNameColumns      = []string{"primary_vendor_name", "vendor_name", "vendor"}
	vendorFrequencyColumns = []string{"shipment_frequency", "frequency", "freq"}
	vendorWeekdaysColumns  = []string{"allowed_weekdays", "weekdays", "shipment_days", "hari_kirim"}
)

// FileReferences reads the reference tables from local files. An empty path
// yields an empty table.
type FileReferences struct {
	reader       TableReader
	leadTimePath string
	vendorPath   string
}

// NewFileReferences creates a file-backed ReferenceSource.
func NewFileReferences(reader TableReader, leadTimePath, vendorPath string) *FileReferences {
	return &FileReferences{reader: reader, leadTimePath: leadTimePath, vendorPath: vendorPath}
}

// Location returns the configured path for kind.
func (f *FileReferences) Location(kind domain.SourceKind) string {
	if kind == domain.SourceVendorFrequency {
		return f.vendorPath
	}
	return f.leadTimePath
}

// LeadTimes reads and parses the lead-time file.
func (f *FileReferences) LeadTimes(ctx context.Context) ([]domain.LeadTime, []domain.CoercionWarning, error) {
	if f.leadTimePath == "" {
		return nil, nil, nil
	}
	table, err := f.reader.Read(ctx, f.leadTimePath)
	if err != nil {
		return nil, nil, err
	}
	return ParseLeadTimes(table)
}

// VendorFrequencies reads and parses the vendor-frequency file.
func (f *FileReferences) VendorFrequencies(ctx context.Context) ([]domain.VendorFrequency, []domain.CoercionWarning, error) {
	if f.vendorPath == "" {
		return nil, nil, nil
	}
	table, err := f.reader.Read(ctx, f.vendorPath)
	if err != nil {
		return nil, nil, err
	}
	return ParseVendorFrequencies(table)
}

// ParseLeadTimes converts a raw lead-time table. Rows with an unparsable lead
// time are dropped with a warning so the default applies to them.
func ParseLeadTimes(table domain.RawTable) ([]domain.LeadTime, []domain.CoercionWarning, error) {
	idIdx := columnIndex(table.Header, leadTimeProductColumns...)
	if idIdx < 0 {
		return nil, nil, &domain.SchemaError{Source: table.Source, Column: leadTimeProductColumns[0]}
	}
	daysIdx := columnIndex(table.Header, leadTimeDaysColumns...)
	if daysIdx < 0 {
		return nil, nil, &domain.SchemaError{Source: table.Source, Column: leadTimeDaysColumns[0]}
	}

	var (
		out      []domain.LeadTime
		warnings []domain.CoercionWarning
	)
	for i, row := range table.Rows {
		id := table.Cell(row, idIdx)
		if id == "" {
			continue
		}
		raw := table.Cell(row, daysIdx)
		days, err := parseWholeDays(raw)
		if err != nil {
			warnings = append(warnings, domain.CoercionWarning{
				Source: table.Source, Row: i + 2, Column: table.Header[daysIdx], Value: raw, Reason: err.Error(),
			})
			continue
		}
		out = append(out, domain.LeadTime{ProductID: id, InboundLeadTimeDays: days})
	}
	return out, warnings, nil
}

// ParseVendorFrequencies converts a raw vendor-frequency table. A missing or
// invalid frequency defaults to 1; unknown weekday tokens are dropped with a
// warning.
func ParseVendorFrequencies(table domain.RawTable) ([]domain.VendorFrequency, []domain.CoercionWarning, error) {
	nameIdx := columnIndex(table.Header, vendorNameColumns...)
	if nameIdx < 0 {
		return nil, nil, &domain.SchemaError{Source: table.Source, Column: vendorNameColumns[0]}
	}
	freqIdx := columnIndex(table.Header, vendorFrequencyColumns...)
	daysIdx := columnIndex(table.Header, vendorWeekdaysColumns...)
	if daysIdx < 0 {
		return nil, nil, &domain.SchemaError{Source: table.Source, Column: vendorWeekdaysColumns[0]}
	}

	var (
		out      []domain.VendorFrequency
		warnings []domain.CoercionWarning
	)
	for i, row := range table.Rows {
		name := table.Cell(row, nameIdx)
		if name == "" {
			continue
		}
		vf := domain.VendorFrequency{VendorName: name, ShipmentFrequency: 1}

		if freqIdx >= 0 {
			raw := table.Cell(row, freqIdx)
			if raw != "" {
				n, err := parseWholeDays(raw)
				if err != nil || n < 1 {
					warnings = append(warnings, domain.CoercionWarning{
						Source: table.Source, Row: i + 2, Column: table.Header[freqIdx], Value: raw,
						Reason: "invalid shipment frequency, defaulted to 1",
					})
				} else {
					vf.ShipmentFrequency = n
				}
			}
		}

		rawDays := table.Cell(row, daysIdx)
		days, err := domain.ParseWeekdays(rawDays)
		if err != nil {
			warnings = append(warnings, domain.CoercionWarning{
				Source: table.Source, Row: i + 2, Column: table.Header[daysIdx], Value: rawDays, Reason: err.Error(),
			})
		}
		vf.AllowedWeekdays = days
		out = append(out, vf)
	}
	return out, warnings, nil
}

// parseWholeDays parses a non-negative whole number, accepting "7.0".
func parseWholeDays(raw string) (int, error) {
	v := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if f < 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("not a non-negative whole number")
	}
	return int(f), nil
}
