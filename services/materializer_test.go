package services

import (
	"testing"

	"billetdash/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig is a compact production-style table: 1 banner row, four
// data columns and a marker pair at positions 4 and 5.
func testConfig() models.TableConfig {
	return models.TableConfig{
		Sheet:    "PRODUCTION",
		SkipRows: 1,
		Columns: []models.ColumnSpec{
			{Index: 0, Field: "timestamp", Kind: models.KindDate},
			{Index: 1, Field: "heat_number", Kind: models.KindText},
			{Index: 2, Field: "production_mt", Kind: models.KindNumber},
			{Index: 3, Field: "scrap_grade", Kind: models.KindNumber},
		},
		MarkerPlanned:   4,
		MarkerProcessed: 5,
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, models.StatusPending, Classify("07/05/2025", ""))
	assert.Equal(t, models.StatusHistory, Classify("07/05/2025", "done"))
	assert.Equal(t, models.StatusUnclassified, Classify("", ""))
	assert.Equal(t, models.StatusUnclassified, Classify("", "done"))
}

func TestClassifyTreatsNAAsEmpty(t *testing.T) {
	assert.Equal(t, models.StatusPending, Classify("07/05/2025", "N/A"))
	assert.Equal(t, models.StatusUnclassified, Classify("N/A", "done"))
}

func TestMaterializeProductionPartition(t *testing.T) {
	rows := []models.RawRow{
		{"header"},
		{"01/05/2025", "H100", 80.0, 20.0, "planned", ""},
		{"02/05/2025", "H101", 60.0, 10.0, "planned", "done"},
		{"03/05/2025", "H102", 50.0, 5.0, "", ""},
	}

	view := MaterializeProduction(rows, testConfig(), nil)

	require.Len(t, view.PendingRecords, 1)
	require.Len(t, view.HistoryRecords, 1)
	assert.Equal(t, "H100", view.PendingRecords[0].HeatNumber)
	assert.Equal(t, "H101", view.HistoryRecords[0].HeatNumber)

	// Metrics cover all rows, including the unclassified one.
	assert.Equal(t, 3, view.Metrics.RecordCount)
	assert.InDelta(t, 190.0, view.Metrics.TotalProduction, 1e-9)
	assert.InDelta(t, 35.0, view.Metrics.TotalScrapGrade, 1e-9)
}

func TestMaterializeProductionIsIdempotent(t *testing.T) {
	rows := []models.RawRow{
		{"header"},
		{"01/05/2025", "H100", 80.0, 20.0, "planned", ""},
		{"02/05/2025", "H101", 60.0, 10.0, "planned", "done"},
	}

	first := MaterializeProduction(rows, testConfig(), nil)
	second := MaterializeProduction(rows, testConfig(), nil)
	assert.Equal(t, first, second)
}

func TestMaterializeProductionRowNumbersAreAbsolute(t *testing.T) {
	rows := []models.RawRow{
		{"header"},
		{"01/05/2025", "H100", 80.0, 20.0, "planned", ""},
	}

	view := MaterializeProduction(rows, testConfig(), nil)
	require.Len(t, view.PendingRecords, 1)
	assert.Equal(t, 2, view.PendingRecords[0].RowNumber)
	assert.Equal(t, "BILLET-2", view.PendingRecords[0].BilletID)
}

func TestMaterializeProductionSuppression(t *testing.T) {
	rows := []models.RawRow{
		{"header"},
		{"01/05/2025", "H100", 80.0, 20.0, "planned", ""},
		{"02/05/2025", "H101", 60.0, 10.0, "planned", ""},
	}
	labs := []models.LabTestRecord{
		{Timestamp: "01/05/2025", HeatNumber: "H100", NeedTestingAgain: "No"},
	}

	view := MaterializeProduction(rows, testConfig(), labs)

	require.Len(t, view.PendingRecords, 1)
	assert.Equal(t, "H101", view.PendingRecords[0].HeatNumber)
	// Suppressed records drop out of history too by default.
	assert.Empty(t, view.HistoryRecords)
	// Suppression does not shrink the metrics base.
	assert.Equal(t, 2, view.Metrics.RecordCount)
}

func TestMaterializeProductionSuppressedToHistory(t *testing.T) {
	cfg := testConfig()
	cfg.SuppressedToHistory = true

	rows := []models.RawRow{
		{"header"},
		{"01/05/2025", "H100", 80.0, 20.0, "planned", ""},
	}
	labs := []models.LabTestRecord{
		{Timestamp: "01/05/2025", HeatNumber: "H100", NeedTestingAgain: "No"},
	}

	view := MaterializeProduction(rows, cfg, labs)
	assert.Empty(t, view.PendingRecords)
	require.Len(t, view.HistoryRecords, 1)
	assert.Equal(t, models.StatusSuppressed, view.HistoryRecords[0].Status)
}

func TestMaterializeProductionNewestLabTestWins(t *testing.T) {
	rows := []models.RawRow{
		{"header"},
		{"01/05/2025", "H100", 80.0, 20.0, "planned", ""},
	}
	labs := []models.LabTestRecord{
		{Timestamp: "01/05/2025", HeatNumber: "H100", NeedTestingAgain: "No"},
		{Timestamp: "03/05/2025", HeatNumber: "H100", NeedTestingAgain: "Yes"},
	}

	view := MaterializeProduction(rows, testConfig(), labs)

	// Newest test says retest, so the row stays pending; the conflict is
	// still reported.
	require.Len(t, view.PendingRecords, 1)
	found := false
	for _, e := range view.Errors {
		if e.Code == models.ErrAmbiguousMatch {
			found = true
		}
	}
	assert.True(t, found, "expected an AmbiguousMatch diagnostic")
}

func TestMaterializeProductionUnparseableQuantity(t *testing.T) {
	rows := []models.RawRow{
		{"header"},
		{"01/05/2025", "H100", "N/A", 20.0, "planned", ""},
	}

	view := MaterializeProduction(rows, testConfig(), nil)

	require.Len(t, view.PendingRecords, 1)
	assert.Zero(t, view.PendingRecords[0].ProductionMT)

	require.NotEmpty(t, view.Errors)
	assert.Equal(t, models.ErrUnparseableScalar, view.Errors[0].Code)
	assert.Equal(t, "production_mt", view.Errors[0].Field)
}

func TestMaterializeProductionShortRow(t *testing.T) {
	rows := []models.RawRow{
		{"header"},
		{"01/05/2025", "H100"},
	}

	view := MaterializeProduction(rows, testConfig(), nil)

	assert.Equal(t, 1, view.Metrics.RecordCount)
	require.NotEmpty(t, view.Errors)
	assert.Equal(t, models.ErrMalformedRow, view.Errors[0].Code)
}

func TestMaterializeProductionNotTabular(t *testing.T) {
	view := MaterializeProduction("not a table", testConfig(), nil)

	assert.Empty(t, view.PendingRecords)
	assert.Empty(t, view.HistoryRecords)
	require.Len(t, view.Errors, 1)
	assert.Equal(t, models.ErrInputNotTabular, view.Errors[0].Code)
}

func TestMaterializeProductionEmptyInput(t *testing.T) {
	view := MaterializeProduction(nil, testConfig(), nil)
	assert.Empty(t, view.PendingRecords)
	assert.Empty(t, view.HistoryRecords)
	assert.Zero(t, view.Metrics.RecordCount)
	assert.Zero(t, view.Metrics.AverageProduction)
	assert.Zero(t, view.Metrics.ConversionRate)
}

func TestConversionRate(t *testing.T) {
	assert.InDelta(t, 80.0, conversionRate(80, 20), 1e-9)
	assert.Zero(t, conversionRate(0, 0))
}

func TestMaterializeReceiving(t *testing.T) {
	cfg := models.TableConfig{
		Sheet:    "RECEIVING",
		SkipRows: 1,
		Columns: []models.ColumnSpec{
			{Index: 0, Field: "timestamp", Kind: models.KindDate},
			{Index: 1, Field: "heat_number", Kind: models.KindText},
			{Index: 2, Field: "receiving_qty_mt", Kind: models.KindNumber},
		},
		MarkerPlanned:   -1,
		MarkerProcessed: -1,
	}

	rows := []models.RawRow{
		{"header"},
		{"01/05/2025", "H100", 78.5},
		{"02/05/2025", "H101", 60.0},
	}

	records, total, errs := MaterializeReceiving(rows, cfg)
	require.Len(t, records, 2)
	assert.InDelta(t, 138.5, total, 1e-9)
	assert.Empty(t, errs)
}

func TestExtractLabTestsDefaults(t *testing.T) {
	cfg := models.TableConfig{
		Sheet:    "LAB TESTING",
		SkipRows: 1,
		Columns: []models.ColumnSpec{
			{Index: 0, Field: "timestamp", Kind: models.KindDate},
			{Index: 1, Field: "heat_number", Kind: models.KindText},
			{Index: 2, Field: "status", Kind: models.KindText},
			{Index: 3, Field: "need_testing_again", Kind: models.KindText},
		},
		MarkerPlanned:   -1,
		MarkerProcessed: -1,
	}

	rows := []models.RawRow{
		{"header"},
		{"01/05/2025", "H100", "", ""},
	}

	records, _ := ExtractLabTests(rows, cfg)
	require.Len(t, records, 1)
	assert.Equal(t, "Pass", records[0].Status)
	assert.Equal(t, "No", records[0].NeedTestingAgain)
}

func TestExtractUsers(t *testing.T) {
	cfg := models.TableConfig{
		Sheet:    "Login",
		SkipRows: 1,
		Columns: []models.ColumnSpec{
			{Index: 0, Field: "username", Kind: models.KindText},
			{Index: 1, Field: "password", Kind: models.KindText},
			{Index: 2, Field: "role", Kind: models.KindText},
		},
		MarkerPlanned:   -1,
		MarkerProcessed: -1,
	}

	rows := []models.RawRow{
		{"username", "password", "role"},
		{"ramesh", "secret", "supervisor"},
		{"", "orphan", "viewer"},
	}

	users, _ := ExtractUsers(rows, cfg)
	require.Len(t, users, 1)
	assert.Equal(t, "ramesh", users[0].Username)
	assert.True(t, users[0].Permission.LabTesting)
}

func TestGroupDailyProduction(t *testing.T) {
	records := []models.ProductionRecord{
		{Timestamp: "01/05/2025", ProductionMT: 80, ScrapGrade: 15, ScrapCommon: 5},
		{Timestamp: "01/05/2025", ProductionMT: 40, ScrapGrade: 10},
		{Timestamp: "02/05/2025", ProductionMT: 60, ScrapGrade: 0},
	}

	series := GroupDailyProduction(records, 30)
	require.Len(t, series, 2)
	assert.Equal(t, "01/05/2025", series[0].Date)
	assert.InDelta(t, 120.0, series[0].Production, 1e-9)
	assert.InDelta(t, 30.0, series[0].Scrap, 1e-9)
	assert.InDelta(t, 80.0, series[0].ConversionRate, 1e-9)
	assert.InDelta(t, 100.0, series[1].ConversionRate, 1e-9)
}

func TestGroupDailyProductionLimit(t *testing.T) {
	records := []models.ProductionRecord{
		{Timestamp: "01/05/2025", ProductionMT: 10},
		{Timestamp: "02/05/2025", ProductionMT: 20},
		{Timestamp: "03/05/2025", ProductionMT: 30},
	}

	series := GroupDailyProduction(records, 2)
	require.Len(t, series, 2)
	assert.Equal(t, "02/05/2025", series[0].Date)
	assert.Equal(t, "03/05/2025", series[1].Date)
}
