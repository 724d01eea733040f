// Package redis keeps each conversation in a list and each activity calendar in a hash.
package redis

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/goodpsyche/hopebot/backend/internal/model/activity"
	"github.com/goodpsyche/hopebot/backend/internal/model/chat"
)

const keyPrefix = "hopebot"

func chatKey(userID string) string     { return keyPrefix + ":chat:" + userID }
func activityKey(userID string) string { return keyPrefix + ":activity:" + userID }

// Store implements store.Store on Redis.
type Store struct {
	client *goredis.Client
}

// Open parses url, connects and pings the server.
func Open(ctx context.Context, url string) (*Store, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "redis: parse url")
	}

	client := goredis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis: ping")
	}
	return &Store{client: client}, nil
}

// AppendMessages pushes JSON-encoded msgs onto the user's list.
func (s *Store) AppendMessages(ctx context.Context, userID string, msgs ...chat.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		raw, err := json.Marshal(msg)
		if err != nil {
			return errors.Wrap(err, "redis: encode message")
		}
		values = append(values, raw)
	}

	return errors.Wrap(s.client.RPush(ctx, chatKey(userID), values...).Err(), "redis: append messages")
}

// History decodes the user's list in order.
func (s *Store) History(ctx context.Context, userID string) ([]chat.Message, error) {
	raw, err := s.client.LRange(ctx, chatKey(userID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis: load history")
	}

	messages := make([]chat.Message, 0, len(raw))
	for _, item := range raw {
		var msg chat.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, errors.Wrap(err, "redis: decode message")
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// IncrementTimeSpent increments the date field of the user's activity hash.
func (s *Store) IncrementTimeSpent(ctx context.Context, userID, date string, delta int64) error {
	return errors.Wrap(s.client.HIncrBy(ctx, activityKey(userID), date, delta).Err(), "redis: increment time spent")
}

// DailyRecords returns every field of the user's activity hash, oldest date first.
func (s *Store) DailyRecords(ctx context.Context, userID string) ([]activity.DailyRecord, error) {
	fields, err := s.client.HGetAll(ctx, activityKey(userID)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis: load activity")
	}

	records := make([]activity.DailyRecord, 0, len(fields))
	for date, value := range fields {
		spent, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "redis: decode activity for %s", date)
		}
		records = append(records, activity.DailyRecord{Date: date, TimeSpent: spent})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	return records, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
