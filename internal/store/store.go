// Package store defines the persistence contract for conversations and activity.
package store

import (
	"context"

	"github.com/goodpsyche/hopebot/backend/internal/model/activity"
	"github.com/goodpsyche/hopebot/backend/internal/model/chat"
)

// Store persists one conversation and one activity calendar per user.
// Implementations must be safe for concurrent use.
type Store interface {
	// AppendMessages appends msgs, in order, to the user's conversation.
	AppendMessages(ctx context.Context, userID string, msgs ...chat.Message) error
	// History returns the user's conversation in insertion order; empty when none exists.
	History(ctx context.Context, userID string) ([]chat.Message, error)
	// IncrementTimeSpent adds delta seconds to the record for date, creating it if needed.
	IncrementTimeSpent(ctx context.Context, userID, date string, delta int64) error
	// DailyRecords returns every stored record for the user, in no particular order.
	DailyRecords(ctx context.Context, userID string) ([]activity.DailyRecord, error)
	Ping(ctx context.Context) error
	Close() error
}
