package chat

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is a single immutable turn in a user's conversation.
type Message struct {
	ID        string    `json:"id" bson:"id"`
	Role      Role      `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"createdAt,omitempty" bson:"createdAt"`
}
