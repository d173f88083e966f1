package repository

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"billetdash/models"

	"github.com/google/uuid"
)

var jobCardPattern = regexp.MustCompile(`^JC-(\d+)$`)

// NextJobCard scans the production rows for the highest JC-NNN value in
// the job card column and returns the next one in sequence. An empty or
// unreadable column yields JC-001.
func NextJobCard(rows []models.RawRow, jobCardIndex int) string {
	highest := 0
	for _, row := range rows {
		if jobCardIndex >= len(row) {
			continue
		}
		cell, ok := row[jobCardIndex].(string)
		if !ok {
			continue
		}
		match := jobCardPattern.FindStringSubmatch(strings.TrimSpace(cell))
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("JC-%03d", highest+1)
}

// ParseJobCardNumber extracts the numeric part of a JC-NNN job card.
func ParseJobCardNumber(jobCard string) (int, bool) {
	match := jobCardPattern.FindStringSubmatch(strings.TrimSpace(jobCard))
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// GenerateBilletID returns a unique identifier for a billet record that
// has not yet been assigned a stable row position.
func GenerateBilletID() string {
	return "BILLET-" + uuid.NewString()
}

// GenerateSessionID returns a unique identifier for a login session.
func GenerateSessionID() string {
	return uuid.NewString()
}
