// Package dateparse implements the two date literal grammars the term
// analyzer accepts for Date fields: an ISO-8601-lenient prefix form and a
// relative "N units ago" expression, both of which normalize to a half-open
// instant range rather than a single timestamp. Calendar-aware
// beginning/end-of-unit arithmetic is delegated to github.com/jinzhu/now,
// the library the pack's OData example pulls in (transitively, via gorm)
// for exactly this family of operation.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// Range is a half-open [Start, End) instant range, the normalized form
// every accepted date literal reduces to.
type Range struct {
	Start time.Time
	End   time.Time
}

var isoPattern = regexp.MustCompile(
	`^(\d{4})(?:-(\d{2})(?:-(\d{2})([ T](\d{2})(?::(\d{2})(?::(\d{2}))?)?)?)?)?(Z|[+-]\d{2}:\d{2})?$`)

var relativePattern = regexp.MustCompile(
	`^(\d+) (second|minute|hour|day|week|fortnight|month|year)s? ago$`)

// Parse accepts either grammar and returns the normalized range. origin is
// the instant "ago" expressions are relative to (normally time.Now(), but
// callers pass it explicitly so the compiler stays side-effect free and
// testable).
func Parse(text string, origin time.Time) (Range, error) {
	if r, ok, err := parseISO(text); ok || err != nil {
		return r, err
	}
	if r, ok, err := parseRelative(text, origin); ok || err != nil {
		return r, err
	}
	return Range{}, fmt.Errorf("dateparse: %q is not a recognized date literal", text)
}

// parseISO implements §4.2.1(a): a prefix of YYYY[-MM[-DD[ T]HH[:MM[:SS]]]]
// followed by an optional Z or ±HH:MM zone.
func parseISO(text string) (Range, bool, error) {
	m := isoPattern.FindStringSubmatch(text)
	if m == nil {
		return Range{}, false, nil
	}

	loc, err := zoneOf(m[8])
	if err != nil {
		return Range{}, true, err
	}

	year, _ := strconv.Atoi(m[1])
	month := 1
	if m[2] != "" {
		month, _ = strconv.Atoi(m[2])
	}
	day := 1
	if m[3] != "" {
		day, _ = strconv.Atoi(m[3])
	}
	hasTime := m[4] != ""
	hour, minute, second := 0, 0, 0
	if m[5] != "" {
		hour, _ = strconv.Atoi(m[5])
	}
	if m[6] != "" {
		minute, _ = strconv.Atoi(m[6])
	}
	if m[7] != "" {
		second, _ = strconv.Atoi(m[7])
	}

	start := time.Date(year, time.Month(month), day, hour, minute, second, 0, loc)

	var end time.Time
	n := now.With(start)
	switch {
	case m[2] == "":
		// Year-only literal: range spans the whole year.
		end = n.EndOfYear().Add(time.Nanosecond)
	case m[3] == "":
		end = n.EndOfMonth().Add(time.Nanosecond)
	case !hasTime:
		end = n.EndOfDay().Add(time.Nanosecond)
	case m[6] == "":
		end = n.EndOfHour().Add(time.Nanosecond)
	case m[7] == "":
		end = n.EndOfMinute().Add(time.Nanosecond)
	default:
		end = start.Add(time.Second)
	}

	return Range{Start: start, End: end}, true, nil
}

func zoneOf(suffix string) (*time.Location, error) {
	switch {
	case suffix == "":
		return time.UTC, nil
	case suffix == "Z":
		return time.UTC, nil
	default:
		sign := 1
		if suffix[0] == '-' {
			sign = -1
		}
		parts := strings.Split(suffix[1:], ":")
		hh, _ := strconv.Atoi(parts[0])
		mm, _ := strconv.Atoi(parts[1])
		offset := sign * (hh*3600 + mm*60)
		return time.FixedZone(suffix, offset), nil
	}
}

// unit lists the relative-expression units in the order §4.2.1(b)
// recognizes them.
type unit string

const (
	unitSecond    unit = "second"
	unitMinute    unit = "minute"
	unitHour      unit = "hour"
	unitDay       unit = "day"
	unitWeek      unit = "week"
	unitFortnight unit = "fortnight"
	unitMonth     unit = "month"
	unitYear      unit = "year"
)

// parseRelative implements §4.2.1(b): "<N> <unit>(s) ago". higher = origin
// - N·unit; lower = higher - 1·unit; the pair plays the (range_end,
// range_start) roles of the ISO form.
func parseRelative(text string, origin time.Time) (Range, bool, error) {
	m := relativePattern.FindStringSubmatch(text)
	if m == nil {
		return Range{}, false, nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Range{}, true, fmt.Errorf("dateparse: %q: invalid count: %w", text, err)
	}

	higher := subtractUnits(origin, unit(m[2]), n)
	lower := subtractUnits(higher, unit(m[2]), 1)

	return Range{Start: lower, End: higher}, true, nil
}

// subtractUnits subtracts n instances of u from t. Second through fortnight
// go through time.Time.AddDate/Add directly; month and year go through
// addMonthsClamped instead, since AddDate rolls a day-of-month overflow into
// the following month rather than clamping it to the target month's length.
func subtractUnits(t time.Time, u unit, n int) time.Time {
	switch u {
	case unitSecond:
		return t.Add(-time.Duration(n) * time.Second)
	case unitMinute:
		return t.Add(-time.Duration(n) * time.Minute)
	case unitHour:
		return t.Add(-time.Duration(n) * time.Hour)
	case unitDay:
		return t.AddDate(0, 0, -n)
	case unitWeek:
		return t.AddDate(0, 0, -7*n)
	case unitFortnight:
		return t.AddDate(0, 0, -14*n)
	case unitMonth:
		return addMonthsClamped(t, -n)
	case unitYear:
		return addMonthsClamped(t, -12*n)
	default:
		return t
	}
}

// addMonthsClamped shifts t by n months, clamping the day-of-month to
// the target month's length rather than rolling over into the following
// month the way time.Time.AddDate does (e.g. one month before March 31
// lands on February 28, not March 3).
func addMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	totalMonths := int(month) - 1 + n
	targetYear := year + totalMonths/12
	targetMonth := totalMonths % 12
	if targetMonth < 0 {
		targetMonth += 12
		targetYear--
	}
	targetMonth++ // back to 1-12

	if day > daysInMonth(targetYear, time.Month(targetMonth)) {
		day = daysInMonth(targetYear, time.Month(targetMonth))
	}
	return time.Date(targetYear, time.Month(targetMonth), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
