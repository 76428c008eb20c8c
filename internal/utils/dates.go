package utils

import "time"

// DateLayout is the calendar-day bucket format used for every stored date.
const DateLayout = "2006-01-02"

// FormatDate returns the local calendar day of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a yyyy-MM-dd bucket at local midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// WeekDates returns the Monday..Sunday buckets of the week containing t.
func WeekDates(t time.Time) []string {
	offset := int(t.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset = 6 // Sunday
	}
	monday := t.AddDate(0, 0, -offset)

	dates := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		dates = append(dates, FormatDate(monday.AddDate(0, 0, i)))
	}
	return dates
}
