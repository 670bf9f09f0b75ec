package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/andresuchdata/rlcompare/internal/domain"
	"github.com/andresuchdata/rlcompare/internal/pipeline/replenishment"
	"github.com/andresuchdata/rlcompare/internal/source"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func dateCell(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func numberCell(v *float64, decimals int) string {
	if v == nil {
		return "-"
	}
	return replenishment.FormatIDNumber(*v, decimals)
}

var comparisonColumns = []string{
	"vendor_id", "primary_vendor_name", "product_id", "location_id", "Logic",
	"coverage", "New RL Qty", "New RL Value", "New DOI Policy WH", "Landed DOI", "Verdict",
}

func comparisonRecords(cmp domain.Comparison) [][]string {
	out := make([][]string, 0, len(cmp.Rows))
	for _, r := range cmp.Rows {
		qty := r.NewRLQty
		landed := r.LandedDOI
		out = append(out, []string{
			r.VendorID, r.VendorName, r.ProductID, r.LocationID, string(r.Logic),
			dateCell(r.Coverage),
			numberCell(&qty, 0),
			numberCell(r.NewRLValue, 0),
			numberCell(r.NewDOIPolicyWH, 1),
			numberCell(&landed, 1),
			string(r.Verdict),
		})
	}
	return out
}

func renderComparison(w io.Writer, format string, cmp domain.Comparison) error {
	switch format {
	case "json":
		return writeJSON(w, cmp)
	case "csv":
		return source.WriteCSV(w, comparisonColumns, comparisonRecords(cmp))
	case "table", "":
		return writeTable(w, comparisonColumns, comparisonRecords(cmp))
	}
	return fmt.Errorf("unknown format %q", format)
}

func renderSeries(w io.Writer, format string, series domain.Series) error {
	header := []string{"Ship Date", "Logic", "Quantity"}
	records := make([][]string, 0, len(series.Points))
	for _, p := range series.Points {
		records = append(records, []string{
			p.ShipDate.Format("2006-01-02"),
			string(p.Logic),
			strconv.FormatFloat(p.Quantity, 'f', -1, 64),
		})
	}

	switch format {
	case "json":
		return writeJSON(w, series)
	case "csv":
		return source.WriteCSV(w, header, records)
	case "table", "":
		if err := writeTable(w, header, records); err != nil {
			return err
		}
		logics := make([]domain.LogicID, 0, len(series.UndatedQty))
		for logic := range series.UndatedQty {
			logics = append(logics, logic)
		}
		for _, logic := range domain.DefaultLogicOrder.Sort(logics) {
			fmt.Fprintf(w, "undated %s: %s\n", logic, strconv.FormatFloat(series.UndatedQty[logic], 'f', -1, 64))
		}
		return nil
	}
	return fmt.Errorf("unknown format %q", format)
}

func renderOutcomes(w io.Writer, format string, outcomes []domain.LoadOutcome) error {
	header := []string{"Kind", "Logic", "Source", "Status", "Rows", "Warnings", "Reason"}
	records := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		records = append(records, []string{
			string(o.Kind), string(o.Logic), o.Source, string(o.Status),
			strconv.Itoa(o.Rows), strconv.Itoa(o.Warnings), o.Reason,
		})
	}

	switch format {
	case "json":
		return writeJSON(w, outcomes)
	case "csv":
		return source.WriteCSV(w, header, records)
	case "table", "":
		return writeTable(w, header, records)
	}
	return fmt.Errorf("unknown format %q", format)
}

func writeTable(w io.Writer, header []string, records [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeRow := func(cells []string) {
		for i, c := range cells {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, c)
		}
		fmt.Fprintln(tw)
	}
	writeRow(header)
	for _, r := range records {
		writeRow(r)
	}
	return tw.Flush()
}
