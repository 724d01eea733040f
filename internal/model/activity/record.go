package activity

import "time"

// DateLayout is the calendar key format for daily records.
const DateLayout = "2006-01-02"

// DailyRecord counts the seconds a user spent in the app on one calendar day.
type DailyRecord struct {
	Date      string `json:"date"`
	TimeSpent int64  `json:"timeSpent"`
}

// StreakSummary is derived from daily records and never stored.
type StreakSummary struct {
	CurrentStreak int `json:"currentStreak"`
	LongestStreak int `json:"longestStreak"`
}

// FormatDate renders t as a calendar key in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a calendar key into midnight UTC of that day.
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}
