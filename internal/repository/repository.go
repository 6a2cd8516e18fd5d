package repository

import (
	"context"
	"sharebyte/internal/domain"
)

// Error constants for the repository layer.
var (
	ErrNotFound       = RepositoryError("not found")
	ErrDuplicateToken = RepositoryError("duplicate token")
	ErrUpdateFailed   = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// FileRepository defines the interface for interacting with file records.
// Counter and delivery mutations must be atomic per token: two concurrent
// IncrementDownloads calls for the same token both count.
type FileRepository interface {
	Create(ctx context.Context, file *domain.FileRecord) error
	GetByToken(ctx context.Context, token string) (*domain.FileRecord, error)
	IncrementDownloads(ctx context.Context, token string) error
	SetAutoDelete(ctx context.Context, token string, minutes int) error
	AddDeliveredCopy(ctx context.Context, token string, copy domain.DeliveredCopy) error
	RemoveDeliveredCopy(ctx context.Context, token string, chatID int64, messageID int) error
	Totals(ctx context.Context) (files, bytes, downloads, autoDelete int64, err error)
}

// BatchRepository defines the interface for interacting with batch records.
// GetByToken only returns active batches; a deactivated batch is NotFound to
// callers while its document remains in the collection.
type BatchRepository interface {
	Create(ctx context.Context, batch *domain.BatchRecord) error
	GetByToken(ctx context.Context, token string) (*domain.BatchRecord, error)
	ListByAdmin(ctx context.Context, adminID int64) ([]domain.BatchRecord, error)
	Deactivate(ctx context.Context, token string) error
	AddDeliveredCopy(ctx context.Context, token string, copy domain.DeliveredCopy) error
	RemoveDeliveredCopy(ctx context.Context, token string, chatID int64, messageID int) error
	Count(ctx context.Context) (int64, error)
}

// UserRepository defines the interface for interacting with user records.
type UserRepository interface {
	Upsert(ctx context.Context, user *domain.UserRecord) error
	All(ctx context.Context) ([]domain.UserRecord, error)
	Count(ctx context.Context) (int64, error)
}
