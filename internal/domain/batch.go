package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BatchEntry is one file inside a batch. Each entry carries its own message
// reference into the storage channel; entries have no tokens of their own.
type BatchEntry struct {
	MessageID int       `bson:"message_id" json:"messageId"`
	FileName  string    `bson:"file_name" json:"fileName"`
	FileSize  int64     `bson:"file_size" json:"fileSize"`
	Kind      MediaKind `bson:"file_type" json:"fileType"`
	AddedAt   time.Time `bson:"added_at" json:"addedAt"`
}

// BatchRecord is an ordered collection of files uploaded together by an
// admin. Slice order is delivery order. Deactivation is a soft delete: the
// batch stops resolving, but the storage-channel messages stay untouched.
type BatchRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Token     string             `bson:"token" json:"token"`
	AdminID   int64              `bson:"admin_id" json:"adminId"`
	Files     []BatchEntry       `bson:"files" json:"files"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	Active    bool               `bson:"is_active" json:"isActive"`

	ActiveCopies []DeliveredCopy `bson:"active_messages,omitempty" json:"-"`
}
