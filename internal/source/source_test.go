package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/rlcompare/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileReader_CSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "logic a.csv",
		"\ufeffproduct_id,Logic A) New RL Value\n"+
			"001,\"1,250\"\n"+
			",\n"+
			"002\n")

	table, err := NewFileReader().Read(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "logic a.csv", table.Source)
	assert.Equal(t, []string{"product_id", "Logic A) New RL Value"}, table.Header)
	require.Len(t, table.Rows, 2, "blank rows are skipped")
	assert.Equal(t, "001", table.Cell(table.Rows[0], 0), "leading zeros survive")
	assert.Equal(t, "1,250", table.Cell(table.Rows[0], 1))
	assert.Equal(t, "", table.Cell(table.Rows[1], 1), "short rows read as empty")
}

func TestFileReader_XLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logic b.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"product_id", "location_id", "Ship Date", "qty"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"007", "L1", time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), 1250000}))
	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "D2", "D2", thousands))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := NewFileReader().Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"product_id", "location_id", "Ship Date", "qty"}, table.Header)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "007", table.Cell(table.Rows[0], 0))
	assert.Equal(t, "45358", table.Cell(table.Rows[0], 2), "typed dates are read as serials")
	assert.Equal(t, "1250000", table.Cell(table.Rows[0], 3), "number formats are not applied")
}

func TestFileReader_Unavailable(t *testing.T) {
	dir := t.TempDir()
	reader := NewFileReader()

	cases := map[string]string{
		"missing":     filepath.Join(dir, "nope.csv"),
		"directory":   dir,
		"unsupported": writeFile(t, dir, "notes.pdf", "x"),
		"empty":       writeFile(t, dir, "empty.csv", ""),
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := reader.Read(context.Background(), path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))
		})
	}
}

func TestParseLeadTimes(t *testing.T) {
	table := domain.RawTable{
		Source: "lead.csv",
		Header: []string{"SKU", "Jarak Inbound"},
		Rows: [][]string{
			{"001", "3"},
			{"002", "7.0"},
			{"003", "soon"},
			{"", "4"},
		},
	}

	got, warnings, err := ParseLeadTimes(table)
	require.NoError(t, err)
	assert.Equal(t, []domain.LeadTime{
		{ProductID: "001", InboundLeadTimeDays: 3},
		{ProductID: "002", InboundLeadTimeDays: 7},
	}, got)
	require.Len(t, warnings, 1)
	assert.Equal(t, 4, warnings[0].Row)

	_, _, err = ParseLeadTimes(domain.RawTable{Source: "bad.csv", Header: []string{"product_id"}})
	var schemaErr *domain.SchemaError
	require.True(t, errors.As(err, &schemaErr))
}

func TestParseVendorFrequencies(t *testing.T) {
	table := domain.RawTable{
		Source: "vendor.csv",
		Header: []string{"primary_vendor_name", "Shipment Frequency", "Allowed Weekdays"},
		Rows: [][]string{
			{"Acme", "2", "Mon, Thu"},
			{"Beta", "", "Senin;Rabu;Jumat"},
			{"Gamma", "zero", "Mon, Someday"},
		},
	}

	got, warnings, err := ParseVendorFrequencies(table)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, 2, got[0].ShipmentFrequency)
	assert.Equal(t, []time.Weekday{time.Monday, time.Thursday}, got[0].AllowedWeekdays)
	assert.Equal(t, 1, got[1].ShipmentFrequency)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, got[1].AllowedWeekdays)
	assert.Equal(t, 1, got[2].ShipmentFrequency)
	assert.Equal(t, []time.Weekday{time.Monday}, got[2].AllowedWeekdays)
	assert.Len(t, warnings, 2)
}

func TestFileReferences(t *testing.T) {
	dir := t.TempDir()
	lead := writeFile(t, dir, "lead.csv", "product_id,inbound_lead_time_days\n001,4\n")
	refs := NewFileReferences(NewFileReader(), lead, "")

	leadTimes, _, err := refs.LeadTimes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.LeadTime{{ProductID: "001", InboundLeadTimeDays: 4}}, leadTimes)

	vendors, _, err := refs.VendorFrequencies(context.Background())
	require.NoError(t, err)
	assert.Empty(t, vendors)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []string{"a", "b"}, [][]string{{"1", "x,y"}}))
	assert.Equal(t, "a,b\n1,\"x,y\"\n", buf.String())
}

func TestNormalizeColumnName(t *testing.T) {
	assert.Equal(t, "jarakinbound", NormalizeColumnName(" Jarak Inbound "))
	assert.Equal(t, "jarakinbound", NormalizeColumnName("jarak_inbound"))
	assert.Equal(t, "primaryvendorname", NormalizeColumnName("Primary-Vendor.Name"))
}
