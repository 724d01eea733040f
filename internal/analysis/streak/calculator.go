// Package streak derives activity streaks from daily time-spent records.
package streak

import (
	"sort"
	"time"

	"github.com/goodpsyche/hopebot/backend/internal/model/activity"
)

// Calculate returns the current and longest runs of consecutive active days.
// A day is active when its record has positive time spent. The current streak
// counts back from today and is zero when today itself is inactive.
func Calculate(records []activity.DailyRecord, today time.Time) activity.StreakSummary {
	active := make(map[time.Time]struct{}, len(records))
	for _, record := range records {
		if record.TimeSpent <= 0 {
			continue
		}
		day, err := activity.ParseDate(record.Date)
		if err != nil {
			continue
		}
		active[day] = struct{}{}
	}

	if len(active) == 0 {
		return activity.StreakSummary{}
	}

	return activity.StreakSummary{
		CurrentStreak: current(active, today),
		LongestStreak: longest(active),
	}
}

func current(active map[time.Time]struct{}, today time.Time) int {
	day, err := activity.ParseDate(activity.FormatDate(today))
	if err != nil {
		return 0
	}

	count := 0
	for {
		if _, ok := active[day]; !ok {
			return count
		}
		count++
		day = day.AddDate(0, 0, -1)
	}
}

func longest(active map[time.Time]struct{}) int {
	days := make([]time.Time, 0, len(active))
	for day := range active {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}
