package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The gviz feed hands back dates in three shapes depending on cell
// formatting: a "Date(2025,4,7)" marker string with a zero-based month,
// a dd/mm/yyyy display string, or an ISO-8601 string. Unformatted cells
// can also surface as a raw spreadsheet serial number. Everything
// normalizes to dd/mm/yyyy for display; values that fit none of the
// encodings are returned unchanged.

// NormalizeDate converts any supported date encoding to dd/mm/yyyy.
func NormalizeDate(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		return formatDDMMYYYY(val)
	case float64:
		return formatDDMMYYYY(serialToTime(val))
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return val
		}
		if strings.HasPrefix(s, "Date(") {
			if t, ok := parseDateMarker(s); ok {
				return formatDDMMYYYY(t)
			}
			return val
		}
		if strings.Contains(s, "/") {
			if t, ok := parseDDMMYYYY(s); ok {
				return formatDDMMYYYY(t)
			}
			return val
		}
		if t, ok := parseISO(s); ok {
			return formatDDMMYYYY(t)
		}
		return val
	default:
		return fmt.Sprintf("%v", v)
	}
}

// NormalizeTime converts a time cell to a 12-hour h:mm AM/PM string.
// Time-only cells come through as "Date(1899,11,30,15,24,0)" markers;
// plain "15:24" strings are converted too. Anything else passes through.
func NormalizeTime(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(val)
		if strings.HasPrefix(s, "Date(") {
			parts := markerParts(s)
			if len(parts) >= 4 {
				hour := parts[3]
				minute := 0
				if len(parts) >= 5 {
					minute = parts[4]
				}
				return formatAMPM(hour, minute)
			}
			return val
		}
		if strings.Contains(s, ":") {
			bits := strings.SplitN(s, ":", 3)
			hour, err1 := strconv.Atoi(strings.TrimSpace(bits[0]))
			minute, err2 := strconv.Atoi(strings.TrimSpace(bits[1]))
			if err1 == nil && err2 == nil {
				return formatAMPM(hour, minute)
			}
			return val
		}
		return val
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ParseDateValue resolves any supported encoding to a concrete time,
// reporting whether it succeeded. Used for ordering and grouping, where
// "return unchanged" is not an option.
func ParseDateValue(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case float64:
		return serialToTime(val), true
	case string:
		s := strings.TrimSpace(val)
		if strings.HasPrefix(s, "Date(") {
			return parseDateMarker(s)
		}
		if strings.Contains(s, "/") {
			return parseDDMMYYYY(s)
		}
		return parseISO(s)
	default:
		return time.Time{}, false
	}
}

func formatDDMMYYYY(t time.Time) string {
	return t.Format("02/01/2006")
}

func formatAMPM(hour, minute int) string {
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour12, minute, period)
}

// markerParts pulls the comma-separated integers out of a
// "Date(y,m,d[,h,mi,s])" marker. Returns nil on any non-integer part.
func markerParts(s string) []int {
	s = strings.TrimPrefix(s, "Date(")
	s = strings.TrimSuffix(s, ")")
	fields := strings.Split(s, ",")
	parts := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil
		}
		parts = append(parts, n)
	}
	return parts
}

func parseDateMarker(s string) (time.Time, bool) {
	parts := markerParts(s)
	if len(parts) < 3 || len(parts) > 6 {
		return time.Time{}, false
	}
	hour, minute, sec := 0, 0, 0
	if len(parts) > 3 {
		hour = parts[3]
	}
	if len(parts) > 4 {
		minute = parts[4]
	}
	if len(parts) > 5 {
		sec = parts[5]
	}
	// The marker month is zero-based: Date(2025,4,7) is 7 May 2025.
	return time.Date(parts[0], time.Month(parts[1]+1), parts[2], hour, minute, sec, 0, time.UTC), true
}

func parseDDMMYYYY(s string) (time.Time, bool) {
	bits := strings.Split(strings.TrimSpace(s), "/")
	if len(bits) != 3 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(strings.TrimSpace(bits[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(bits[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(bits[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func parseISO(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// serialToTime converts a spreadsheet serial date (days since
// 1899-12-30) to a concrete time.
func serialToTime(serial float64) time.Time {
	unixSeconds := (serial - 25569) * 86400
	return time.Unix(int64(unixSeconds), 0).UTC()
}

// DateLabel renders a dd/mm/yyyy string as the short "07 May" chart
// label. Invalid input keeps its original form.
func DateLabel(date string) string {
	t, ok := parseDDMMYYYY(date)
	if !ok {
		return date
	}
	return t.Format("02 Jan")
}
