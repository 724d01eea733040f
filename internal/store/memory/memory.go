// Package memory keeps conversations and activity in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/goodpsyche/hopebot/backend/internal/model/activity"
	"github.com/goodpsyche/hopebot/backend/internal/model/chat"
)

// Store is an in-memory store.Store suitable for development and tests.
type Store struct {
	mu       sync.RWMutex
	messages map[string][]chat.Message
	activity map[string]map[string]int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		messages: make(map[string][]chat.Message),
		activity: make(map[string]map[string]int64),
	}
}

// AppendMessages appends msgs to the user's conversation.
func (s *Store) AppendMessages(_ context.Context, userID string, msgs ...chat.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[userID]; !ok {
		s.messages[userID] = make([]chat.Message, 0, 16)
	}
	s.messages[userID] = append(s.messages[userID], msgs...)
	return nil
}

// History returns a copy of the user's conversation.
func (s *Store) History(_ context.Context, userID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.messages[userID]
	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// IncrementTimeSpent adds delta seconds to the user's record for date.
func (s *Store) IncrementTimeSpent(_ context.Context, userID, date string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, ok := s.activity[userID]
	if !ok {
		days = make(map[string]int64)
		s.activity[userID] = days
	}
	days[date] += delta
	return nil
}

// DailyRecords returns the user's stored records.
func (s *Store) DailyRecords(_ context.Context, userID string) ([]activity.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	days := s.activity[userID]
	records := make([]activity.DailyRecord, 0, len(days))
	for date, spent := range days {
		records = append(records, activity.DailyRecord{Date: date, TimeSpent: spent})
	}
	return records, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }
