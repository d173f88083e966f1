package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDateMarker(t *testing.T) {
	// Marker months are zero-based, so month 4 is May.
	assert.Equal(t, "07/05/2025", NormalizeDate("Date(2025,4,7)"))
	assert.Equal(t, "01/01/2025", NormalizeDate("Date(2025,0,1)"))
	assert.Equal(t, "07/05/2025", NormalizeDate("Date(2025,4,7,15,24,0)"))
}

func TestNormalizeDatePassthrough(t *testing.T) {
	assert.Equal(t, "07/05/2025", NormalizeDate("07/05/2025"))
	assert.Equal(t, "", NormalizeDate(nil))
	assert.Equal(t, "not a date", NormalizeDate("not a date"))
	assert.Equal(t, "Date(oops)", NormalizeDate("Date(oops)"))
}

func TestNormalizeDateISO(t *testing.T) {
	assert.Equal(t, "07/05/2025", NormalizeDate("2025-05-07"))
	assert.Equal(t, "07/05/2025", NormalizeDate("2025-05-07T10:30:00Z"))
}

func TestNormalizeDateSerial(t *testing.T) {
	// Serial 45784 is 7 May 2025 in the 1899-12-30 epoch.
	assert.Equal(t, "07/05/2025", NormalizeDate(float64(45784)))
}

func TestNormalizeTime(t *testing.T) {
	assert.Equal(t, "3:24 PM", NormalizeTime("15:24"))
	assert.Equal(t, "12:05 AM", NormalizeTime("0:05"))
	assert.Equal(t, "12:00 PM", NormalizeTime("12:00"))
	assert.Equal(t, "3:24 PM", NormalizeTime("Date(1899,11,30,15,24,0)"))
	assert.Equal(t, "", NormalizeTime(nil))
	assert.Equal(t, "noon-ish", NormalizeTime("noon-ish"))
}

func TestParseDateValue(t *testing.T) {
	got, ok := ParseDateValue("Date(2025,4,7)")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.May, 7, 0, 0, 0, 0, time.UTC), got)

	got, ok = ParseDateValue("07/05/2025")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.May, 7, 0, 0, 0, 0, time.UTC), got)

	_, ok = ParseDateValue("32/13/2025")
	assert.False(t, ok)

	_, ok = ParseDateValue(true)
	assert.False(t, ok)
}

func TestDateLabel(t *testing.T) {
	assert.Equal(t, "07 May", DateLabel("07/05/2025"))
	assert.Equal(t, "garbage", DateLabel("garbage"))
}
