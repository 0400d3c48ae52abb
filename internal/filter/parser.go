package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const monthPattern = `(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|sept|september|oct|october|nov|november|dec|december)`

var (
	sameMonthRange  = regexp.MustCompile(`(?i)^` + monthPattern + `\s+(\d{1,2})\s*-\s*(\d{1,2})$`)
	crossMonthRange = regexp.MustCompile(`(?i)^` + monthPattern + `\s+(\d{1,2})\s*-\s*` + monthPattern + `\s+(\d{1,2})$`)
	wholeMonth      = regexp.MustCompile(`(?i)^` + monthPattern + `$`)
)

// ParseDateRange parses a date range relative to now.
//
// Supported formats:
//   - "Mar 1-15" or "March 1-15"
//   - "March 1 - April 15" (a range ending in an earlier month ends next year)
//   - "March" (the whole month)
//
// A month earlier than now's month is taken to be next year. The range runs
// from 00:00:00 on the first day to 23:59:59 on the last, in now's location.
func ParseDateRange(input string, now time.Time) (time.Time, time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("date range cannot be empty")
	}
	loc := now.Location()

	if m := sameMonthRange.FindStringSubmatch(input); m != nil {
		month := parseMonth(m[1])
		year := yearFor(month, now)
		from, err := dayOf(year, month, m[2], loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to, err := dayOf(year, month, m[3], loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return orderedRange(from, endOfDay(to))
	}

	if m := crossMonthRange.FindStringSubmatch(input); m != nil {
		month1, month2 := parseMonth(m[1]), parseMonth(m[3])
		year1 := yearFor(month1, now)
		year2 := year1
		if month2 < month1 {
			year2++
		}
		from, err := dayOf(year1, month1, m[2], loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to, err := dayOf(year2, month2, m[4], loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return orderedRange(from, endOfDay(to))
	}

	if m := wholeMonth.FindStringSubmatch(input); m != nil {
		month := parseMonth(m[1])
		year := yearFor(month, now)
		from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
		// Day 0 of the next month is the last day of this one
		to := time.Date(year, month+1, 0, 23, 59, 59, 0, loc)
		return from, to, nil
	}

	return time.Time{}, time.Time{}, fmt.Errorf("invalid date range %q: use 'Mar 1-15', 'March 1 - April 15', or 'March'", input)
}

func dayOf(year int, month time.Month, raw string, loc *time.Location) (time.Time, error) {
	day, err := strconv.Atoi(raw)
	if err != nil || day < 1 || day > daysIn(year, month) {
		return time.Time{}, fmt.Errorf("invalid day %s for %s", raw, month)
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc), nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

func orderedRange(from, to time.Time) (time.Time, time.Time, error) {
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date must be before end date")
	}
	return from, to, nil
}

// parseMonth converts a month name to time.Month
func parseMonth(name string) time.Month {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) > 3 {
		name = name[:3]
	}

	months := map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March,
		"apr": time.April, "may": time.May, "jun": time.June,
		"jul": time.July, "aug": time.August, "sep": time.September,
		"oct": time.October, "nov": time.November, "dec": time.December,
	}
	return months[name]
}

// yearFor returns now's year, or the next one if month has already passed
func yearFor(month time.Month, now time.Time) int {
	if month < now.Month() {
		return now.Year() + 1
	}
	return now.Year()
}
