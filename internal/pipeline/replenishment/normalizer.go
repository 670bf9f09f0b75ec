package replenishment

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/rlcompare/internal/domain"
)

// metricColumns resolves every metric of a mapping against a header. Required
// metrics that cannot be found are reported through the returned error.
func metricColumns(raw domain.RawTable, mapping ColumnMapping) (map[MetricName]int, error) {
	cols := make(map[MetricName]int, len(RequiredMetrics)+len(OptionalMetrics))
	resolve := func(metric MetricName) (int, string) {
		candidates := mapping.candidates(metric)
		for _, name := range candidates {
			if idx := raw.ColumnIndex(name); idx >= 0 {
				return idx, name
			}
		}
		return -1, candidates[0]
	}

	for _, metric := range RequiredMetrics {
		idx, name := resolve(metric)
		if idx < 0 {
			return nil, &domain.SchemaError{Source: raw.Source, Column: name}
		}
		cols[metric] = idx
	}
	for _, metric := range OptionalMetrics {
		if idx, _ := resolve(metric); idx >= 0 {
			cols[metric] = idx
		}
	}
	return cols, nil
}

// DetectLogicLabel returns the logic label carried by prefixed metric columns
// ("Logic A) New RL Qty" => "Logic A"), or "" when the header is unprefixed.
func DetectLogicLabel(header []string) string {
	suffix := logicPrefixDelimiter + string(MetricNewRLQty)
	for _, h := range header {
		h = strings.TrimSpace(h)
		if strings.HasSuffix(h, suffix) {
			if i := strings.Index(h, logicPrefixDelimiter); i > 0 {
				return h[:i]
			}
		}
	}
	return ""
}

// Normalize reduces one raw per-logic table to the common schema and tags
// every record with its logic. An empty logic is taken from the "Logic"
// column, then from the metric column prefix.
func Normalize(raw domain.RawTable, logic domain.LogicID, mapping ColumnMapping) (NormalizedTable, error) {
	out := NormalizedTable{Source: raw.Source}

	// 1) Required common columns
	common := make(map[string]int, len(RequiredCommonColumns))
	for _, name := range RequiredCommonColumns {
		idx := raw.ColumnIndex(name)
		if idx < 0 {
			return out, &domain.SchemaError{Source: raw.Source, Column: name}
		}
		common[name] = idx
	}
	oosIdx := raw.ColumnIndex(ColInboundToOOSProjection)
	logicIdx := raw.ColumnIndex(ColLogic)

	// 2) Resolve logic label and metric columns
	if logic == "" && logicIdx >= 0 && len(raw.Rows) > 0 {
		logic = domain.LogicID(raw.Cell(raw.Rows[0], logicIdx))
	}
	if logic == "" {
		logic = domain.LogicID(DetectLogicLabel(raw.Header))
	}
	if logic == "" {
		return out, fmt.Errorf("source %s: cannot determine logic label", raw.Source)
	}
	if mapping.Label == "" {
		mapping.Label = string(logic)
	}
	metrics, err := metricColumns(raw, mapping)
	if err != nil {
		return out, err
	}
	out.Logic = logic

	// 3) Convert rows
	seen := make(map[domain.RecordKey]int, len(raw.Rows))
	out.Records = make([]domain.LogicRecord, 0, len(raw.Rows))
	out.Lines = make([]int, 0, len(raw.Rows))
	for i, row := range raw.Rows {
		line := i + 2 // header is line 1
		warn := func(column, value, reason string) {
			out.Warnings = append(out.Warnings, domain.CoercionWarning{
				Source: raw.Source, Row: line, Column: column, Value: value, Reason: reason,
			})
		}
		num := func(column string, idx int) *float64 {
			v := raw.Cell(row, idx)
			f, ok := parseNumber(v)
			if !ok {
				warn(column, v, "not a number")
			}
			return f
		}
		date := func(column string, idx int) *time.Time {
			v := raw.Cell(row, idx)
			t, ok := parseDate(v)
			if !ok {
				warn(column, v, "not a date")
			}
			return t
		}

		rec := domain.LogicRecord{
			ProductID:       raw.Cell(row, common[ColProductID]),
			ProductName:     raw.Cell(row, common[ColProductName]),
			LocationID:      raw.Cell(row, common[ColLocationID]),
			BusinessTagging: raw.Cell(row, common[ColBusinessTagging]),
			ProductTypeName: raw.Cell(row, common[ColProductTypeName]),
			VendorID:        raw.Cell(row, common[ColVendorID]),
			VendorName:      raw.Cell(row, common[ColVendorName]),
			ParetoClass:     raw.Cell(row, common[ColPareto]),
			Logic:           logic,
		}
		if rec.ProductID == "" {
			warn(ColProductID, "", "empty product id, row skipped")
			continue
		}

		hub := raw.Cell(row, common[ColActiveHub])
		active, ok := parseBool(hub)
		if !ok {
			warn(ColActiveHub, hub, "not a boolean")
		}
		rec.ActiveHub = active
		rec.MaxDOIFinal = num(ColMaxDOIFinal, common[ColMaxDOIFinal])
		rec.ShipDate = date(ColShipDate, common[ColShipDate])
		if oosIdx >= 0 {
			rec.InboundToOOSProjection = raw.Cell(row, oosIdx)
		}

		rec.Coverage = date(string(MetricCoverage), metrics[MetricCoverage])
		rec.NewDOIPolicyWH = num(string(MetricNewDOIPolicyWH), metrics[MetricNewDOIPolicyWH])
		rec.NewRLQty = num(string(MetricNewRLQty), metrics[MetricNewRLQty])
		rec.NewRLValueText = raw.Cell(row, metrics[MetricNewRLValue])
		rec.LandedDOI = num(string(MetricLandedDOI), metrics[MetricLandedDOI])
		if idx, ok := metrics[MetricOrderDate]; ok {
			rec.OrderDate = date(string(MetricOrderDate), idx)
		}

		if first, dup := seen[rec.Key()]; dup {
			warn(ColProductID, rec.ProductID,
				fmt.Sprintf("duplicate product/location for %s, keeping line %d", logic, first))
			continue
		}
		seen[rec.Key()] = line
		out.Records = append(out.Records, rec)
		out.Lines = append(out.Lines, line)
	}

	if len(out.Warnings) > 0 {
		log.Warn().
			Str("source", raw.Source).
			Str("logic", string(logic)).
			Int("warnings", len(out.Warnings)).
			Msg("coercion warnings while normalizing")
	}
	return out, nil
}

// canonicalHeader is the column layout written by ToRaw.
var canonicalHeader = []string{
	ColProductID,
	ColProductName,
	ColLocationID,
	ColBusinessTagging,
	ColProductTypeName,
	ColVendorID,
	ColVendorName,
	ColMaxDOIFinal,
	ColShipDate,
	ColPareto,
	ColActiveHub,
	ColInboundToOOSProjection,
	string(MetricCoverage),
	string(MetricNewDOIPolicyWH),
	string(MetricNewRLQty),
	string(MetricNewRLValue),
	string(MetricLandedDOI),
	string(MetricOrderDate),
	ColLogic,
}

// ToRaw renders the normalized table back into the raw layout with bare
// metric names and a Logic column. Normalizing the result yields t again.
func (t NormalizedTable) ToRaw() domain.RawTable {
	rows := make([][]string, 0, len(t.Records))
	for _, r := range t.Records {
		rows = append(rows, []string{
			r.ProductID,
			r.ProductName,
			r.LocationID,
			r.BusinessTagging,
			r.ProductTypeName,
			r.VendorID,
			r.VendorName,
			formatNumber(r.MaxDOIFinal),
			formatDate(r.ShipDate),
			r.ParetoClass,
			formatBool(r.ActiveHub),
			r.InboundToOOSProjection,
			formatDate(r.Coverage),
			formatNumber(r.NewDOIPolicyWH),
			formatNumber(r.NewRLQty),
			r.NewRLValueText,
			formatNumber(r.LandedDOI),
			formatDate(r.OrderDate),
			string(r.Logic),
		})
	}
	header := make([]string, len(canonicalHeader))
	copy(header, canonicalHeader)
	return domain.RawTable{Source: t.Source, Header: header, Rows: rows}
}
