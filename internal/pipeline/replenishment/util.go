package replenishment

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order when parsing date cells.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"2006/01/02",
}

const exportDateLayout = "2006-01-02"

// maxExcelSerial is the serial of 9999-12-31 in the 1900 date system.
const maxExcelSerial = 2958465

// parseNumber parses a numeric cell, stripping thousands separators.
// Empty and NaN cells are null without error; anything else that does not
// parse is null with ok=false so the caller can record a warning.
func parseNumber(raw string) (value *float64, ok bool) {
	v := strings.TrimSpace(raw)
	if v == "" || strings.EqualFold(v, "nan") || strings.EqualFold(v, "null") {
		return nil, true
	}
	v = strings.ReplaceAll(v, ",", "")
	v = strings.ReplaceAll(v, " ", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return &f, true
}

// parseDate parses a date cell. Empty cells are null without error. A bare
// number is read as an Excel serial date, which is how XLSX sources carry
// typed date cells.
func parseDate(raw string) (value *time.Time, ok bool) {
	v := strings.TrimSpace(raw)
	if v == "" || strings.EqualFold(v, "nat") || strings.EqualFold(v, "nan") {
		return nil, true
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		if serial < 1 || serial > maxExcelSerial {
			return nil, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil, false
		}
		t = t.UTC()
		return &t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// parseBool parses boolean-like flags such as 1/0, true/false, yes/no.
func parseBool(raw string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "1.0", "true", "t", "yes", "y", "active":
		return true, true
	case "", "0", "0.0", "false", "f", "no", "n", "inactive":
		return false, true
	}
	return false, false
}

func formatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(exportDateLayout)
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// truncateDay drops the clock part of t, keeping its calendar date.
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatIDNumber formats a float using Indonesian locale conventions:
// thousands separator as dot and decimal separator as comma.
// When the fractional part is zero after rounding, the decimal part is omitted.
// Example: 1234.5 (2 decimals) => "1.234,50"; 1000.0 => "1.000".
func FormatIDNumber(v float64, decimals int) string {
	neg := v < 0
	if neg {
		v = -v
	}

	if decimals < 0 {
		decimals = 0
	}

	factor := math.Pow(10, float64(decimals))
	scaled := math.Round(v * factor)
	intPart := int64(scaled) / int64(factor)
	fracPart := int64(scaled) % int64(factor)

	s := strconv.FormatInt(intPart, 10)
	if len(s) > 3 {
		var buf []byte
		count := 0
		for i := len(s) - 1; i >= 0; i-- {
			buf = append(buf, s[i])
			count++
			if count == 3 && i != 0 {
				buf = append(buf, '.')
				count = 0
			}
		}
		for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
			buf[i], buf[j] = buf[j], buf[i]
		}
		s = string(buf)
	}

	prefix := ""
	if neg && scaled != 0 {
		prefix = "-"
	}

	if decimals == 0 || fracPart == 0 {
		return prefix + s
	}

	fracStr := strconv.FormatInt(fracPart, 10)
	for len(fracStr) < decimals {
		fracStr = "0" + fracStr
	}

	return fmt.Sprintf("%s%s,%s", prefix, s, fracStr)
}
