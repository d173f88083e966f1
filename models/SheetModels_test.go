package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSheetConfigMarkers(t *testing.T) {
	cfg := DefaultSheetConfig()

	// Both production views read the same sheet but watch different
	// marker pairs.
	assert.Equal(t, cfg.Production.Sheet, cfg.ReceivingMarkers.Sheet)
	assert.Equal(t, 25, cfg.Production.MarkerPlanned)
	assert.Equal(t, 26, cfg.Production.MarkerProcessed)
	assert.Equal(t, 14, cfg.ReceivingMarkers.MarkerPlanned)
	assert.Equal(t, 15, cfg.ReceivingMarkers.MarkerProcessed)

	assert.Equal(t, 6, cfg.Production.SkipRows)
	assert.Equal(t, 1, cfg.Receiving.SkipRows)
	assert.False(t, cfg.Production.SuppressedToHistory)
}

func TestLoadSheetConfigDefaults(t *testing.T) {
	cfg, err := LoadSheetConfig("")
	require.NoError(t, err)
	assert.Equal(t, "PRODUCTION", cfg.Production.Sheet)
}

func TestLoadSheetConfigOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheets.json")
	override := `{"production":{"sheet":"PROD_V2","skip_rows":2,"columns":[{"index":0,"field":"timestamp","kind":"date"}],"marker_planned":3,"marker_processed":4,"suppressed_to_history":true}}`
	require.NoError(t, os.WriteFile(path, []byte(override), 0o644))

	cfg, err := LoadSheetConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "PROD_V2", cfg.Production.Sheet)
	assert.Equal(t, 2, cfg.Production.SkipRows)
	assert.True(t, cfg.Production.SuppressedToHistory)
}

func TestLoadSheetConfigMissingFile(t *testing.T) {
	_, err := LoadSheetConfig("/nonexistent/sheets.json")
	assert.Error(t, err)
}

func TestPermissionsForRole(t *testing.T) {
	admin := PermissionsForRole("Admin")
	assert.True(t, admin.LabTesting)
	assert.True(t, admin.Export)

	viewer := PermissionsForRole("operator")
	assert.True(t, viewer.Dashboard)
	assert.False(t, viewer.LabTesting)
}
