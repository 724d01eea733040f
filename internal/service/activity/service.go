package activity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goodpsyche/hopebot/backend/internal/analysis/streak"
	"github.com/goodpsyche/hopebot/backend/internal/model/activity"
	"github.com/goodpsyche/hopebot/backend/internal/store"
)

// DefaultWindowDays is the length of the calendar returned by DailyRecords.
const DefaultWindowDays = 365

var (
	ErrUserRequired    = errors.New("user id is required")
	ErrInvalidDate     = errors.New("date must use the YYYY-MM-DD format")
	ErrInvalidDuration = errors.New("time spent must be a positive number of seconds")
)

// Config tunes the activity calendar.
type Config struct {
	WindowDays int
	Location   *time.Location
}

// Service tracks time spent per calendar day and derives streaks from it.
type Service struct {
	store      store.Store
	windowDays int
	location   *time.Location
	now        func() time.Time
}

// NewService builds a Service; zero config values fall back to a 365-day UTC calendar.
func NewService(s store.Store, cfg Config) *Service {
	window := cfg.WindowDays
	if window <= 0 {
		window = DefaultWindowDays
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:      s,
		windowDays: window,
		location:   loc,
		now:        time.Now,
	}
}

// Today returns the current calendar key in the service location.
func (s *Service) Today() string {
	return activity.FormatDate(s.now().In(s.location))
}

// Record adds seconds to the user's record for date; an empty date means today.
func (s *Service) Record(ctx context.Context, userID, date string, seconds int64) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrUserRequired
	}
	if seconds <= 0 {
		return "", ErrInvalidDuration
	}

	date = strings.TrimSpace(date)
	if date == "" {
		date = s.Today()
	}
	if _, err := activity.ParseDate(date); err != nil {
		return "", ErrInvalidDate
	}

	if err := s.store.IncrementTimeSpent(ctx, userID, date, seconds); err != nil {
		return "", err
	}
	return date, nil
}

// DailyRecords returns one record per day of the trailing window, oldest first,
// ending today; days without stored activity carry zero.
func (s *Service) DailyRecords(ctx context.Context, userID string) ([]activity.DailyRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserRequired
	}

	stored, err := s.store.DailyRecords(ctx, userID)
	if err != nil {
		return nil, err
	}

	spent := make(map[string]int64, len(stored))
	for _, record := range stored {
		spent[record.Date] += record.TimeSpent
	}

	today, err := activity.ParseDate(s.Today())
	if err != nil {
		return nil, err
	}

	records := make([]activity.DailyRecord, 0, s.windowDays)
	start := today.AddDate(0, 0, -(s.windowDays - 1))
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		key := activity.FormatDate(day)
		records = append(records, activity.DailyRecord{Date: key, TimeSpent: spent[key]})
	}
	return records, nil
}

// TotalTimeSpent sums every stored record for the user.
func (s *Service) TotalTimeSpent(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, ErrUserRequired
	}

	stored, err := s.store.DailyRecords(ctx, userID)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, record := range stored {
		total += record.TimeSpent
	}
	return total, nil
}

// Streaks computes the user's current and longest streaks as of today.
func (s *Service) Streaks(ctx context.Context, userID string) (activity.StreakSummary, error) {
	if strings.TrimSpace(userID) == "" {
		return activity.StreakSummary{}, ErrUserRequired
	}

	stored, err := s.store.DailyRecords(ctx, userID)
	if err != nil {
		return activity.StreakSummary{}, err
	}
	return streak.Calculate(stored, s.now().In(s.location)), nil
}
