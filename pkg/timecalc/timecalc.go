// Package timecalc converts between wall-clock strings and minute offsets.
// All arithmetic is naive local time: no timezone or DST handling.
package timecalc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinutesPerDay bounds every wrapped minute offset.
const MinutesPerDay = 24 * 60

var shortTime = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// Normalize returns the canonical HH:MM:SS form of an HH:MM input.
// Inputs that already carry seconds, or that do not look like a time at all,
// are returned unchanged; validation belongs to the remote service.
func Normalize(input string) string {
	trimmed := strings.TrimSpace(input)
	match := shortTime.FindStringSubmatch(trimmed)
	if match == nil {
		return input
	}
	hour := match[1]
	if len(hour) == 1 {
		hour = "0" + hour
	}
	return hour + ":" + match[2] + ":00"
}

// ToMinutes converts HH:MM[:SS] to minutes since midnight. Seconds are
// ignored and malformed components count as zero.
func ToMinutes(t string) int {
	parts := strings.Split(strings.TrimSpace(t), ":")
	hours := atoiOrZero(parts[0])
	minutes := 0
	if len(parts) > 1 {
		minutes = atoiOrZero(parts[1])
	}
	return hours*60 + minutes
}

// AddMinutesWrapped adds duration to start and wraps the result into [0, 1440).
func AddMinutesWrapped(start, duration int) int {
	return wrap(start + duration)
}

// FormatMinutes renders a minute offset as zero-padded HH:MM.
func FormatMinutes(minutes int) string {
	m := wrap(minutes)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// EndTime computes the HH:MM end of an event. It reports false when either
// the start or the duration is missing, in which case no end is displayed.
func EndTime(start string, durationMinutes *int) (string, bool) {
	if strings.TrimSpace(start) == "" || durationMinutes == nil {
		return "", false
	}
	return FormatMinutes(AddMinutesWrapped(ToMinutes(start), *durationMinutes)), true
}

// StartLabel trims a canonical start time to HH:MM for display.
func StartLabel(start string) string {
	if strings.TrimSpace(start) == "" {
		return ""
	}
	return FormatMinutes(ToMinutes(start))
}

func wrap(minutes int) int {
	return ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
}

func atoiOrZero(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}
