package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRecord tracks one bot user for statistics and broadcasts. Upserted on
// every interaction, keyed by the Telegram user id.
type UserRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TelegramID int64              `bson:"user_id" json:"userId"`
	Username   string             `bson:"username,omitempty" json:"username,omitempty"`
	FirstSeen  time.Time          `bson:"joined_date" json:"joinedDate"`
	LastActive time.Time          `bson:"last_active" json:"lastActive"`
}
