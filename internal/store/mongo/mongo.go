// Package mongo stores one chat document per user and one activity document per user-day in MongoDB.
package mongo

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/goodpsyche/hopebot/backend/internal/model/activity"
	"github.com/goodpsyche/hopebot/backend/internal/model/chat"
)

const (
	chatsCollection    = "chats"
	activityCollection = "activity_records"
)

type chatDocument struct {
	UserID    string         `bson:"_id"`
	History   []chat.Message `bson:"history"`
	CreatedAt time.Time      `bson:"createdAt"`
}

type activityDocument struct {
	UserID    string `bson:"userId"`
	Date      string `bson:"date"`
	TimeSpent int64  `bson:"timeSpent"`
}

// Store implements store.Store on MongoDB.
type Store struct {
	client   *mongo.Client
	chats    *mongo.Collection
	activity *mongo.Collection
}

// Open connects to uri, verifies the connection and ensures indexes on database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "mongo: connect")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, pkgerrors.Wrap(err, "mongo: ping")
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		chats:    db.Collection(chatsCollection),
		activity: db.Collection(activityCollection),
	}

	_, err = s.activity.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, pkgerrors.Wrap(err, "mongo: create activity index")
	}

	return s, nil
}

// AppendMessages pushes msgs onto the user's history array, creating the document on first use.
func (s *Store) AppendMessages(ctx context.Context, userID string, msgs ...chat.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	update := bson.M{
		"$push":        bson.M{"history": bson.M{"$each": msgs}},
		"$setOnInsert": bson.M{"createdAt": time.Now().UTC()},
	}
	_, err := s.chats.UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	return pkgerrors.Wrap(err, "mongo: append messages")
}

// History returns the user's history array.
func (s *Store) History(ctx context.Context, userID string) ([]chat.Message, error) {
	var doc chatDocument
	err := s.chats.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []chat.Message{}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "mongo: load history")
	}
	if doc.History == nil {
		return []chat.Message{}, nil
	}
	return doc.History, nil
}

// IncrementTimeSpent atomically increments the (user, date) document.
func (s *Store) IncrementTimeSpent(ctx context.Context, userID, date string, delta int64) error {
	filter := bson.M{"userId": userID, "date": date}
	update := bson.M{"$inc": bson.M{"timeSpent": delta}}
	_, err := s.activity.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return pkgerrors.Wrap(err, "mongo: increment time spent")
}

// DailyRecords returns every stored record for the user.
func (s *Store) DailyRecords(ctx context.Context, userID string) ([]activity.DailyRecord, error) {
	cursor, err := s.activity.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "mongo: query activity")
	}

	var docs []activityDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, pkgerrors.Wrap(err, "mongo: decode activity")
	}

	records := make([]activity.DailyRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, activity.DailyRecord{Date: doc.Date, TimeSpent: doc.TimeSpent})
	}
	return records, nil
}

// Ping checks connectivity with the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
