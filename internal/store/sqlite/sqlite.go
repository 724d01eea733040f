// Package sqlite stores conversations and activity in a local SQLite database via gorm.
package sqlite

import (
	"context"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/goodpsyche/hopebot/backend/internal/model/activity"
	"github.com/goodpsyche/hopebot/backend/internal/model/chat"
)

// chatMessage is one row per message; Seq preserves insertion order.
type chatMessage struct {
	Seq       uint   `gorm:"primaryKey;autoIncrement"`
	MessageID string `gorm:"size:36;not null"`
	UserID    string `gorm:"index;size:320;not null"`
	Role      string `gorm:"size:10;not null"`
	Content   string `gorm:"type:text"`
	CreatedAt time.Time
}

func (*chatMessage) TableName() string {
	return "chat_messages"
}

// activityRecord has one row per (user, date).
type activityRecord struct {
	UserID    string `gorm:"primaryKey;size:320"`
	Date      string `gorm:"primaryKey;size:10"`
	TimeSpent int64  `gorm:"not null;default:0"`
}

func (*activityRecord) TableName() string {
	return "activity_records"
}

// Store implements store.Store on top of gorm.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: open %s", path)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: underlying handle")
	}
	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&chatMessage{}, &activityRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "sqlite: migrate")
	}

	return &Store{db: db}, nil
}

// AppendMessages inserts msgs in a single transaction.
func (s *Store) AppendMessages(ctx context.Context, userID string, msgs ...chat.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	rows := make([]chatMessage, 0, len(msgs))
	for _, msg := range msgs {
		rows = append(rows, chatMessage{
			MessageID: msg.ID,
			UserID:    userID,
			Role:      string(msg.Role),
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	return errors.Wrap(err, "sqlite: append messages")
}

// History returns the user's messages ordered by insertion.
func (s *Store) History(ctx context.Context, userID string) ([]chat.Message, error) {
	var rows []chatMessage
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("seq ASC").
		Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "sqlite: load history")
	}

	messages := make([]chat.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, chat.Message{
			ID:        row.MessageID,
			Role:      chat.Role(row.Role),
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
		})
	}
	return messages, nil
}

// IncrementTimeSpent upserts the (user, date) row adding delta.
func (s *Store) IncrementTimeSpent(ctx context.Context, userID, date string, delta int64) error {
	record := activityRecord{UserID: userID, Date: date, TimeSpent: delta}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"time_spent": gorm.Expr("time_spent + ?", delta),
		}),
	}).Create(&record).Error
	return errors.Wrap(err, "sqlite: increment time spent")
}

// DailyRecords returns every stored record for the user.
func (s *Store) DailyRecords(ctx context.Context, userID string) ([]activity.DailyRecord, error) {
	var rows []activityRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "sqlite: load activity")
	}

	records := make([]activity.DailyRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, activity.DailyRecord{Date: row.Date, TimeSpent: row.TimeSpent})
	}
	return records, nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "sqlite: underlying handle")
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
