package models

import (
	"encoding/json"
	"fmt"
	"os"
)

// RawRow is one row of a table snapshot as delivered by the sheet
// gateway. Cells are string, float64 or "" (gviz nulls collapse to "").
type RawRow []any

// ColumnKind selects the normalization applied to a cell.
type ColumnKind string

const (
	KindText   ColumnKind = "text"
	KindNumber ColumnKind = "number"
	KindDate   ColumnKind = "date"
	KindTime   ColumnKind = "time"
)

// ColumnSpec binds a positional column index to a named record field.
type ColumnSpec struct {
	Index int        `json:"index"`
	Field string     `json:"field"`
	Kind  ColumnKind `json:"kind"`
}

// TableConfig describes one sheet: how many banner rows to skip, the
// column map, and where the workflow marker columns sit. The source
// sheets disagree on marker positions between pages, so all of this is
// data, not constants.
type TableConfig struct {
	Sheet           string       `json:"sheet"`
	SkipRows        int          `json:"skip_rows"`
	Columns         []ColumnSpec `json:"columns"`
	MarkerPlanned   int          `json:"marker_planned"`
	MarkerProcessed int          `json:"marker_processed"`
	// SuppressedToHistory decides whether a production record cleared by
	// a final lab test still shows up in the history view.
	SuppressedToHistory bool `json:"suppressed_to_history"`
}

// SheetConfig is the full per-deployment table configuration.
type SheetConfig struct {
	Production TableConfig `json:"production"`
	// ReceivingMarkers is the production-sheet marker pair the receiving
	// page watches (columns O/P), distinct from the lab pair (Z/AA).
	ReceivingMarkers TableConfig `json:"receiving_markers"`
	Receiving        TableConfig `json:"receiving"`
	LabTesting       TableConfig `json:"lab_testing"`
	Login            TableConfig `json:"login"`
}

// DefaultSheetConfig returns the canonical column maps for the billet
// workbook. Column letters are noted for cross-checking against the
// sheet itself.
func DefaultSheetConfig() SheetConfig {
	productionColumns := []ColumnSpec{
		{Index: 0, Field: "timestamp", Kind: KindDate},        // A
		{Index: 1, Field: "heat_number", Kind: KindText},      // B
		{Index: 2, Field: "drclo", Kind: KindNumber},          // C
		{Index: 3, Field: "pellet", Kind: KindNumber},         // D
		{Index: 4, Field: "lumps", Kind: KindNumber},          // E
		{Index: 5, Field: "scrap_common", Kind: KindNumber},   // F
		{Index: 6, Field: "scrap_grade", Kind: KindNumber},    // G
		{Index: 7, Field: "pig_iron", Kind: KindNumber},       // H
		{Index: 8, Field: "silico_mn", Kind: KindNumber},      // I
		{Index: 9, Field: "feno_chrone", Kind: KindNumber},    // J
		{Index: 10, Field: "aluminium", Kind: KindNumber},     // K
		{Index: 11, Field: "anthracite_coal", Kind: KindNumber}, // L
		{Index: 12, Field: "met_coke", Kind: KindNumber},      // M
		{Index: 13, Field: "production_mt", Kind: KindNumber}, // N
		{Index: 28, Field: "carbon", Kind: KindText},          // AC
		{Index: 29, Field: "sulfur", Kind: KindText},          // AD
		{Index: 30, Field: "magnesium", Kind: KindText},       // AE
		{Index: 31, Field: "phosphorus", Kind: KindText},      // AF
		{Index: 32, Field: "lab_status", Kind: KindText},      // AG
		{Index: 33, Field: "need_testing_again", Kind: KindText}, // AH
		{Index: 34, Field: "lab_remarks", Kind: KindText},     // AI
		{Index: 35, Field: "job_card", Kind: KindText},        // AJ
	}

	return SheetConfig{
		Production: TableConfig{
			Sheet:           "PRODUCTION",
			SkipRows:        6,
			Columns:         productionColumns,
			MarkerPlanned:   25, // Z
			MarkerProcessed: 26, // AA
		},
		ReceivingMarkers: TableConfig{
			Sheet:           "PRODUCTION",
			SkipRows:        6,
			Columns:         productionColumns,
			MarkerPlanned:   14, // O
			MarkerProcessed: 15, // P
		},
		Receiving: TableConfig{
			Sheet:    "RECEIVING",
			SkipRows: 1,
			Columns: []ColumnSpec{
				{Index: 0, Field: "timestamp", Kind: KindDate},          // A
				{Index: 1, Field: "heat_number", Kind: KindText},        // B
				{Index: 2, Field: "time", Kind: KindTime},               // C
				{Index: 3, Field: "receiving_qty_mt", Kind: KindNumber}, // D
				{Index: 4, Field: "ledel", Kind: KindText},              // E
				{Index: 5, Field: "ccm_total_pieces", Kind: KindText},   // F
				{Index: 6, Field: "bp_mill_to", Kind: KindText},         // G
				{Index: 7, Field: "bp_ccm_to", Kind: KindText},          // H
				{Index: 8, Field: "mill_to_pcs", Kind: KindText},        // I
				{Index: 9, Field: "remark", Kind: KindText},             // J
				{Index: 10, Field: "job_card", Kind: KindText},          // K
			},
			MarkerPlanned:   -1,
			MarkerProcessed: -1,
		},
		LabTesting: TableConfig{
			Sheet:    "LAB TESTING",
			SkipRows: 1,
			Columns: []ColumnSpec{
				{Index: 0, Field: "timestamp", Kind: KindDate},           // A
				{Index: 1, Field: "heat_number", Kind: KindText},         // B
				{Index: 2, Field: "carbon", Kind: KindText},              // C
				{Index: 3, Field: "sulfur", Kind: KindText},              // D
				{Index: 4, Field: "magnesium", Kind: KindText},           // E
				{Index: 5, Field: "phosphorus", Kind: KindText},          // F
				{Index: 6, Field: "status", Kind: KindText},              // G
				{Index: 7, Field: "need_testing_again", Kind: KindText},  // H
				{Index: 8, Field: "remarks", Kind: KindText},             // I
				{Index: 9, Field: "job_card", Kind: KindText},            // J
			},
			MarkerPlanned:   -1,
			MarkerProcessed: -1,
		},
		Login: TableConfig{
			Sheet:    "Login",
			SkipRows: 1,
			Columns: []ColumnSpec{
				{Index: 0, Field: "username", Kind: KindText}, // A
				{Index: 1, Field: "password", Kind: KindText}, // B
				{Index: 2, Field: "role", Kind: KindText},     // C
			},
			MarkerPlanned:   -1,
			MarkerProcessed: -1,
		},
	}
}

// LoadSheetConfig reads a JSON override from path, falling back to the
// defaults when path is empty. Partial overrides are not merged; the
// file replaces the whole configuration.
func LoadSheetConfig(path string) (SheetConfig, error) {
	cfg := DefaultSheetConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read sheet config %s: %v", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse sheet config %s: %v", path, err)
	}
	return cfg, nil
}
