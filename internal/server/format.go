package server

import "time"

// FormatCustomDate renders t in loc as e.g. "28th Feb, 2023".
func FormatCustomDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("02") + daySuffix(t.Day()) + t.Format(" Jan, 2006")
}

func daySuffix(day int) string {
	switch {
	case day >= 11 && day <= 13:
		return "th"
	case day%10 == 1:
		return "st"
	case day%10 == 2:
		return "nd"
	case day%10 == 3:
		return "rd"
	default:
		return "th"
	}
}
