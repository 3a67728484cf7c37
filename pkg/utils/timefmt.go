package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// To24Hour converts one or more comma separated 12-hour times
// ("1:30 PM, 3 p.m.") to "13:30, 15:00". Entries that cannot be parsed
// are returned unchanged.
func To24Hour(times string) string {
	if !strings.Contains(times, ",") {
		return convertSingle(times)
	}

	parts := strings.Split(times, ",")
	for i, p := range parts {
		parts[i] = convertSingle(strings.TrimSpace(p))
	}
	return strings.Join(parts, ", ")
}

func convertSingle(value string) string {
	clean := strings.ToUpper(strings.TrimSpace(value))
	clean = strings.NewReplacer("A.M.", "AM", "P.M.", "PM").Replace(clean)

	isPM := strings.Contains(clean, "PM")
	isAM := strings.Contains(clean, "AM")
	clean = strings.TrimSpace(strings.NewReplacer("AM", "", "PM", "").Replace(clean))

	hourPart, minutePart, hasMinutes := strings.Cut(clean, ":")
	hours, err := strconv.Atoi(strings.TrimSpace(hourPart))
	if err != nil {
		return value
	}
	minutes := 0
	if hasMinutes {
		if minutes, err = strconv.Atoi(strings.TrimSpace(minutePart)); err != nil {
			return value
		}
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return value
	}

	switch {
	case isPM && hours != 12:
		hours += 12
	case isAM && hours == 12:
		hours = 0
	}
	if hours > 23 {
		return value
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}
