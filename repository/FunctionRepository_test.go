package repository

import (
	"strings"
	"testing"

	"billetdash/models"

	"github.com/stretchr/testify/assert"
)

func TestNextJobCard(t *testing.T) {
	rows := []models.RawRow{
		{"header", "Job Card"},
		{"x", "JC-003"},
		{"x", "JC-009"},
		{"x", "JC-007"},
	}
	assert.Equal(t, "JC-010", NextJobCard(rows, 1))
}

func TestNextJobCardEmpty(t *testing.T) {
	assert.Equal(t, "JC-001", NextJobCard(nil, 1))
	assert.Equal(t, "JC-001", NextJobCard([]models.RawRow{{"x"}}, 1))
}

func TestNextJobCardSkipsMalformed(t *testing.T) {
	rows := []models.RawRow{
		{"x", "JC-ABC"},
		{"x", "JOB-5"},
		{"x", 42.0},
		{"x", " JC-012 "},
	}
	assert.Equal(t, "JC-013", NextJobCard(rows, 1))
}

func TestNextJobCardWidePadding(t *testing.T) {
	rows := []models.RawRow{{"x", "JC-999"}}
	assert.Equal(t, "JC-1000", NextJobCard(rows, 1))
}

func TestParseJobCardNumber(t *testing.T) {
	n, ok := ParseJobCardNumber("JC-042")
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = ParseJobCardNumber("invoice-42")
	assert.False(t, ok)
}

func TestGenerateSessionIDUnique(t *testing.T) {
	a := GenerateSessionID()
	b := GenerateSessionID()
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}

func TestGenerateBilletID(t *testing.T) {
	assert.True(t, strings.HasPrefix(GenerateBilletID(), "BILLET-"))
}
