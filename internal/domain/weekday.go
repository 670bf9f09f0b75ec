package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

var weekdayCodes = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday, "senin": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday, "selasa": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday, "rabu": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday, "kamis": time.Thursday,
	"fri": time.Friday, "friday": time.Friday, "jumat": time.Friday, "jum'at": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday, "sabtu": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday, "minggu": time.Sunday, "ahad": time.Sunday,
}

// ParseWeekday returns the weekday for an abbreviation or full name (case-insensitive).
func ParseWeekday(label string) (time.Weekday, bool) {
	day, ok := weekdayCodes[strings.ToLower(strings.TrimSpace(label))]
	return day, ok
}

// ParseWeekdays parses a delimited weekday list such as "Mon, Thu" or "Senin;Kamis".
// The result is de-duplicated and ordered Monday first. Unknown tokens are
// returned as an error together with the days that did parse.
func ParseWeekdays(raw string) ([]time.Weekday, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', ';', '|', '/', ' ', '\t':
			return true
		}
		return false
	})

	seen := make(map[time.Weekday]struct{}, len(fields))
	var (
		days    []time.Weekday
		unknown []string
	)
	for _, f := range fields {
		day, ok := ParseWeekday(f)
		if !ok {
			unknown = append(unknown, f)
			continue
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool { return isoWeekday(days[i]) < isoWeekday(days[j]) })

	if len(unknown) > 0 {
		return days, fmt.Errorf("unknown weekday tokens %q in %q", unknown, raw)
	}
	return days, nil
}

// isoWeekday maps Monday=1 .. Sunday=7.
func isoWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

// EndOfWeek returns the Sunday closing the Monday to Sunday week containing t.
func EndOfWeek(t time.Time) time.Time {
	return t.AddDate(0, 0, 7-isoWeekday(t.Weekday()))
}

// WeekdayLabels formats weekdays as three-letter abbreviations.
func WeekdayLabels(days []time.Weekday) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()[:3]
	}
	return out
}
