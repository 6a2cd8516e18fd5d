package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MediaKind is the fixed enumeration of content types the bot accepts.
type MediaKind string

const (
	MediaDocument  MediaKind = "document"
	MediaVideo     MediaKind = "video"
	MediaAudio     MediaKind = "audio"
	MediaPhoto     MediaKind = "photo"
	MediaVoice     MediaKind = "voice"
	MediaVideoNote MediaKind = "video_note"
	MediaAnimation MediaKind = "animation"
)

// FileRecord is the metadata for one shareable file. The content itself lives
// as a message in the storage channel; MessageID points at it. Token is the
// opaque identifier carried in deep links and is immutable once assigned.
type FileRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Token         string             `bson:"token" json:"token"`
	MessageID     int                `bson:"message_id" json:"messageId"` // message in the storage channel
	FileName      string             `bson:"file_name" json:"fileName"`
	FileSize      int64              `bson:"file_size" json:"fileSize"`
	Kind          MediaKind          `bson:"file_type" json:"fileType"`
	UploaderID    int64              `bson:"uploader_id" json:"uploaderId"`
	Downloads     int64              `bson:"downloads" json:"downloads"`
	AutoDelete    bool               `bson:"auto_delete" json:"autoDelete"`
	AutoDeleteMin int                `bson:"auto_delete_time,omitempty" json:"autoDeleteTime,omitempty"` // minutes, set iff AutoDelete
	LastDownload  *time.Time         `bson:"last_download,omitempty" json:"lastDownload,omitempty"`
	UploadedAt    time.Time          `bson:"uploaded_at" json:"uploadedAt"`

	// ActiveCopies tracks copies of this file currently live in user chats,
	// so the auto-delete worker knows what to remove. Mutated only via
	// $push/$pull, never rewritten wholesale.
	ActiveCopies []DeliveredCopy `bson:"active_messages,omitempty" json:"-"`
}

// DeliveredCopy is one instance of a file's content sent to one chat. It
// exists only while the copy is live; the auto-delete worker (or an external
// deletion) removes it.
type DeliveredCopy struct {
	ChatID    int64     `bson:"chat_id" json:"chatId"`
	MessageID int       `bson:"message_id" json:"messageId"`
	SentAt    time.Time `bson:"sent_at" json:"sentAt"`
}

// Stats is the aggregate view served by /stats and the ops API.
type Stats struct {
	TotalFiles       int64 `json:"totalFiles"`
	TotalUsers       int64 `json:"totalUsers"`
	TotalBatches     int64 `json:"totalBatches"`
	TotalBytes       int64 `json:"totalBytes"`
	TotalDownloads   int64 `json:"totalDownloads"`
	AutoDeleteActive int64 `json:"autoDeleteActive"`
}
