package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"billetdash/models"
)

// The materializer is the read side of the whole system: a table
// snapshot comes in from the sheet gateway, rows get normalized through
// the column map, the marker columns decide pending versus history, and
// the numeric columns roll up into the dashboard metrics. It is a pure
// transform; data-quality problems degrade to zero values and
// diagnostics, never to a panic or an error return.

// cellString renders a raw cell for comparison and display. Numbers
// keep their full precision, nulls collapse to "".
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// markerSet reports whether a workflow marker cell is occupied. The
// sheets use "N/A" interchangeably with blank.
func markerSet(v any) bool {
	s := strings.TrimSpace(cellString(v))
	return s != "" && s != "N/A"
}

// parseNumber applies the number kind: float-parse-or-zero. A non-empty
// cell that fails to parse is worth a diagnostic; a blank one is not.
func parseNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, true
	case float64:
		return val, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, true
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// rowFields is one extracted row keyed by column-map field name.
// Number kinds hold float64, everything else holds string.
type rowFields map[string]any

func (f rowFields) str(name string) string {
	v, ok := f[name]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (f rowFields) num(name string) float64 {
	v, ok := f[name]
	if !ok {
		return 0
	}
	n, _ := v.(float64)
	return n
}

// extractRow normalizes one raw row against a column map. Rows shorter
// than the map degrade to zero values per field; sheetRow is the
// absolute 1-based row number used in diagnostics.
func extractRow(row models.RawRow, cols []models.ColumnSpec, sheetRow int) (rowFields, []models.ErrorEntry) {
	out := make(rowFields, len(cols))
	var diags []models.ErrorEntry
	short := false

	for _, col := range cols {
		var raw any
		if col.Index < len(row) {
			raw = row[col.Index]
		} else {
			short = true
		}

		switch col.Kind {
		case models.KindNumber:
			n, ok := parseNumber(raw)
			if !ok {
				diags = append(diags, models.ErrorEntry{
					Code:    models.ErrUnparseableScalar,
					Row:     sheetRow,
					Field:   col.Field,
					Message: fmt.Sprintf("value %q is not numeric, substituted 0", cellString(raw)),
				})
			}
			out[col.Field] = n
		case models.KindDate:
			out[col.Field] = NormalizeDate(raw)
		case models.KindTime:
			out[col.Field] = NormalizeTime(raw)
		default:
			out[col.Field] = NormalizeText(cellString(raw))
		}
	}

	if short {
		diags = append(diags, models.ErrorEntry{
			Code:    models.ErrMalformedRow,
			Row:     sheetRow,
			Message: fmt.Sprintf("row has %d cells, column map needs more; missing fields defaulted", len(row)),
		})
	}
	return out, diags
}

// Classify applies the marker-presence rules: planned set and processed
// empty means pending, both set means history. Rows the upstream stage
// never touched stay unclassified and appear in neither view.
func Classify(planned, processed any) models.RecordStatus {
	if !markerSet(planned) {
		return models.StatusUnclassified
	}
	if markerSet(processed) {
		return models.StatusHistory
	}
	return models.StatusPending
}

// SortLabTestsByTimestampDesc orders lab tests newest first. The sheet
// has no ordering key, so the parsed timestamp is the best available
// tie-break for duplicate heat numbers.
func SortLabTestsByTimestampDesc(labs []models.LabTestRecord) {
	sort.SliceStable(labs, func(i, j int) bool {
		ti, oki := ParseDateValue(labs[i].Timestamp)
		tj, okj := ParseDateValue(labs[j].Timestamp)
		if oki && okj {
			return ti.After(tj)
		}
		return oki && !okj
	})
}

// matchLabTest finds the newest lab test for a heat number. When
// several tests for the same heat disagree on the retest decision the
// newest still wins, but the conflict is reported.
func matchLabTest(heatNumber string, labs []models.LabTestRecord) (*models.LabTestRecord, *models.ErrorEntry) {
	var found *models.LabTestRecord
	conflict := false
	for i := range labs {
		if labs[i].HeatNumber != heatNumber {
			continue
		}
		if found == nil {
			found = &labs[i]
			continue
		}
		if !strings.EqualFold(labs[i].NeedTestingAgain, found.NeedTestingAgain) {
			conflict = true
		}
	}
	if found == nil {
		return nil, nil
	}
	if conflict {
		return found, &models.ErrorEntry{
			Code:    models.ErrAmbiguousMatch,
			Field:   "need_testing_again",
			Message: fmt.Sprintf("heat %s has lab tests with conflicting retest decisions; newest wins", heatNumber),
		}
	}
	return found, nil
}

// asRows checks the structural contract: the input must be an array of
// arrays. Anything else is the one hard failure the materializer
// reports.
func asRows(input any) ([]models.RawRow, bool) {
	switch v := input.(type) {
	case nil:
		return nil, true
	case []models.RawRow:
		return v, true
	case [][]any:
		rows := make([]models.RawRow, len(v))
		for i := range v {
			rows[i] = models.RawRow(v[i])
		}
		return rows, true
	case []any:
		rows := make([]models.RawRow, 0, len(v))
		for _, el := range v {
			inner, ok := el.([]any)
			if !ok {
				return nil, false
			}
			rows = append(rows, models.RawRow(inner))
		}
		return rows, true
	default:
		return nil, false
	}
}

func notTabular() models.MaterializedView {
	return models.MaterializedView{
		PendingRecords: []models.ProductionRecord{},
		HistoryRecords: []models.ProductionRecord{},
		Errors: []models.ErrorEntry{{
			Code:    models.ErrInputNotTabular,
			Message: "input is not an array of rows; all views empty",
		}},
	}
}

// MaterializeProduction turns a PRODUCTION snapshot into the pending
// and history record sets plus aggregate metrics. labs, when supplied,
// drive the suppression rule: a heat whose newest lab test says no
// retest is needed drops out of the pending view. Metrics always cover
// the full extracted set regardless of partition.
func MaterializeProduction(input any, cfg models.TableConfig, labs []models.LabTestRecord) models.MaterializedView {
	rows, ok := asRows(input)
	if !ok {
		return notTabular()
	}

	SortLabTestsByTimestampDesc(labs)

	view := models.MaterializedView{
		PendingRecords: []models.ProductionRecord{},
		HistoryRecords: []models.ProductionRecord{},
	}

	if cfg.SkipRows > 0 && cfg.SkipRows < len(rows) {
		rows = rows[cfg.SkipRows:]
	} else if cfg.SkipRows >= len(rows) {
		rows = nil
	}

	var metrics models.AggregateMetrics
	for i, row := range rows {
		sheetRow := i + cfg.SkipRows + 1
		fields, diags := extractRow(row, cfg.Columns, sheetRow)
		view.Errors = append(view.Errors, diags...)

		rec := productionFromFields(fields, sheetRow)
		if cfg.MarkerPlanned >= 0 && cfg.MarkerPlanned < len(row) {
			rec.MarkerPlanned = strings.TrimSpace(cellString(row[cfg.MarkerPlanned]))
		}
		if cfg.MarkerProcessed >= 0 && cfg.MarkerProcessed < len(row) {
			rec.MarkerProcessed = strings.TrimSpace(cellString(row[cfg.MarkerProcessed]))
		}

		metrics.TotalProduction += rec.ProductionMT
		metrics.TotalScrapGrade += rec.ScrapGrade
		metrics.TotalScrapCommon += rec.ScrapCommon
		metrics.RecordCount++

		rec.Status = Classify(rec.MarkerPlanned, rec.MarkerProcessed)
		if rec.Status == models.StatusPending {
			match, diag := matchLabTest(rec.HeatNumber, labs)
			if diag != nil {
				diag.Row = sheetRow
				view.Errors = append(view.Errors, *diag)
			}
			if match != nil && strings.EqualFold(match.NeedTestingAgain, "No") {
				rec.Status = models.StatusSuppressed
			}
		}

		switch rec.Status {
		case models.StatusPending:
			view.PendingRecords = append(view.PendingRecords, rec)
		case models.StatusHistory:
			view.HistoryRecords = append(view.HistoryRecords, rec)
		case models.StatusSuppressed:
			if cfg.SuppressedToHistory {
				view.HistoryRecords = append(view.HistoryRecords, rec)
			}
		}
	}

	metrics.TotalScrap = metrics.TotalScrapGrade + metrics.TotalScrapCommon
	if metrics.RecordCount > 0 {
		metrics.AverageProduction = metrics.TotalProduction / float64(metrics.RecordCount)
	}
	metrics.ConversionRate = conversionRate(metrics.TotalProduction, metrics.TotalScrap)
	metrics.PendingProduction = len(view.PendingRecords)
	view.Metrics = metrics
	return view
}

func productionFromFields(f rowFields, sheetRow int) models.ProductionRecord {
	return models.ProductionRecord{
		RowNumber:        sheetRow,
		BilletID:         fmt.Sprintf("BILLET-%d", sheetRow),
		Timestamp:        f.str("timestamp"),
		HeatNumber:       f.str("heat_number"),
		JobCard:          f.str("job_card"),
		Drclo:            f.num("drclo"),
		Pellet:           f.num("pellet"),
		Lumps:            f.num("lumps"),
		ScrapCommon:      f.num("scrap_common"),
		ScrapGrade:       f.num("scrap_grade"),
		PigIron:          f.num("pig_iron"),
		SilicoMn:         f.num("silico_mn"),
		FenoChrone:       f.num("feno_chrone"),
		Aluminium:        f.num("aluminium"),
		AnthraciteCoal:   f.num("anthracite_coal"),
		MetCoke:          f.num("met_coke"),
		ProductionMT:     f.num("production_mt"),
		Carbon:           f.str("carbon"),
		Sulfur:           f.str("sulfur"),
		Magnesium:        f.str("magnesium"),
		Phosphorus:       f.str("phosphorus"),
		LabStatus:        f.str("lab_status"),
		NeedTestingAgain: f.str("need_testing_again"),
		LabRemarks:       f.str("lab_remarks"),
	}
}

// conversionRate is production over total charge, guarded against an
// empty denominator.
func conversionRate(production, scrap float64) float64 {
	if production+scrap == 0 {
		return 0
	}
	return production / (production + scrap) * 100
}

// MaterializeReceiving maps a RECEIVING snapshot to records plus the
// receiving-quantity total.
func MaterializeReceiving(input any, cfg models.TableConfig) ([]models.ReceivingRecord, float64, []models.ErrorEntry) {
	rows, ok := asRows(input)
	if !ok {
		return []models.ReceivingRecord{}, 0, []models.ErrorEntry{{
			Code:    models.ErrInputNotTabular,
			Message: "input is not an array of rows; all views empty",
		}}
	}

	if cfg.SkipRows > 0 && cfg.SkipRows < len(rows) {
		rows = rows[cfg.SkipRows:]
	} else if cfg.SkipRows >= len(rows) {
		rows = nil
	}

	records := make([]models.ReceivingRecord, 0, len(rows))
	var total float64
	var errors []models.ErrorEntry
	for i, row := range rows {
		sheetRow := i + cfg.SkipRows + 1
		f, diags := extractRow(row, cfg.Columns, sheetRow)
		errors = append(errors, diags...)
		rec := models.ReceivingRecord{
			Timestamp:      f.str("timestamp"),
			HeatNumber:     f.str("heat_number"),
			JobCard:        f.str("job_card"),
			Time:           f.str("time"),
			ReceivingQtyMT: f.num("receiving_qty_mt"),
			Ledel:          f.str("ledel"),
			CCMTotalPieces: f.str("ccm_total_pieces"),
			BPMillTO:       f.str("bp_mill_to"),
			BPCCMTO:        f.str("bp_ccm_to"),
			MillTOPcs:      f.str("mill_to_pcs"),
			Remark:         f.str("remark"),
		}
		total += rec.ReceivingQtyMT
		records = append(records, rec)
	}
	return records, total, errors
}

// ExtractLabTests maps a LAB TESTING snapshot to records.
func ExtractLabTests(input any, cfg models.TableConfig) ([]models.LabTestRecord, []models.ErrorEntry) {
	rows, ok := asRows(input)
	if !ok {
		return []models.LabTestRecord{}, []models.ErrorEntry{{
			Code:    models.ErrInputNotTabular,
			Message: "input is not an array of rows; all views empty",
		}}
	}

	if cfg.SkipRows > 0 && cfg.SkipRows < len(rows) {
		rows = rows[cfg.SkipRows:]
	} else if cfg.SkipRows >= len(rows) {
		rows = nil
	}

	records := make([]models.LabTestRecord, 0, len(rows))
	var errors []models.ErrorEntry
	for i, row := range rows {
		sheetRow := i + cfg.SkipRows + 1
		f, diags := extractRow(row, cfg.Columns, sheetRow)
		errors = append(errors, diags...)
		status := f.str("status")
		if strings.TrimSpace(status) == "" {
			status = "Pass"
		}
		retest := f.str("need_testing_again")
		if strings.TrimSpace(retest) == "" {
			retest = "No"
		}
		records = append(records, models.LabTestRecord{
			Timestamp:        f.str("timestamp"),
			HeatNumber:       f.str("heat_number"),
			JobCard:          f.str("job_card"),
			Carbon:           f.str("carbon"),
			Sulfur:           f.str("sulfur"),
			Magnesium:        f.str("magnesium"),
			Phosphorus:       f.str("phosphorus"),
			Status:           status,
			NeedTestingAgain: retest,
			Remarks:          f.str("remarks"),
		})
	}
	return records, errors
}

// ExtractUsers maps a Login snapshot to user accounts. Rows without a
// username are skipped.
func ExtractUsers(input any, cfg models.TableConfig) ([]models.User, []models.ErrorEntry) {
	rows, ok := asRows(input)
	if !ok {
		return []models.User{}, []models.ErrorEntry{{
			Code:    models.ErrInputNotTabular,
			Message: "input is not an array of rows; all views empty",
		}}
	}

	if cfg.SkipRows > 0 && cfg.SkipRows < len(rows) {
		rows = rows[cfg.SkipRows:]
	} else if cfg.SkipRows >= len(rows) {
		rows = nil
	}

	users := make([]models.User, 0, len(rows))
	var errors []models.ErrorEntry
	for i, row := range rows {
		sheetRow := i + cfg.SkipRows + 1
		f, diags := extractRow(row, cfg.Columns, sheetRow)
		errors = append(errors, diags...)
		username := strings.TrimSpace(f.str("username"))
		if username == "" {
			continue
		}
		role := strings.TrimSpace(f.str("role"))
		users = append(users, models.User{
			Username:   username,
			Password:   f.str("password"),
			Role:       role,
			Permission: models.PermissionsForRole(role),
		})
	}
	return users, errors
}

// GroupDailyProduction folds production records into per-day totals for
// the conversion chart, keeping first-appearance order and trimming to
// the newest limit entries.
func GroupDailyProduction(records []models.ProductionRecord, limit int) []models.DailyProduction {
	var order []string
	byDate := make(map[string]*models.DailyProduction)

	for _, rec := range records {
		date := rec.Timestamp
		if date == "" {
			continue
		}
		day, exists := byDate[date]
		if !exists {
			day = &models.DailyProduction{Date: date, Label: DateLabel(date)}
			byDate[date] = day
			order = append(order, date)
		}
		day.Production += rec.ProductionMT
		day.Scrap += rec.ScrapGrade + rec.ScrapCommon
	}

	series := make([]models.DailyProduction, 0, len(order))
	for _, date := range order {
		day := byDate[date]
		day.ConversionRate = conversionRate(day.Production, day.Scrap)
		series = append(series, *day)
	}
	if limit > 0 && len(series) > limit {
		series = series[len(series)-limit:]
	}
	return series
}
