package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"sharebyte/internal/domain"
	"sharebyte/internal/repository"

	"github.com/google/uuid"
)

// --- Error Definitions ---
var (
	ErrNotFound           = errors.New("token not found")
	ErrForbidden          = errors.New("operation not permitted")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrEmptyBatch         = errors.New("batch has no files")
)

// FileDescriptor is the input to file registration: where the content lives
// in the storage channel and what it looks like.
type FileDescriptor struct {
	MessageID     int
	FileName      string
	FileSize      int64
	Kind          domain.MediaKind
	UploaderID    int64
	AutoDelete    bool
	AutoDeleteMin int
}

// Registry owns the token-to-record mapping and every mutation of file,
// batch and delivery records. All other components go through it, keeping a
// single writer per logical record.
type Registry interface {
	RegisterFile(ctx context.Context, d FileDescriptor) (string, error)
	RegisterBatch(ctx context.Context, adminID int64, descriptors []FileDescriptor) (string, error)
	ResolveFile(ctx context.Context, token string) (*domain.FileRecord, error)
	ResolveBatch(ctx context.Context, token string) (*domain.BatchRecord, error)
	RecordDownload(ctx context.Context, token string) error
	RecordDelivery(ctx context.Context, token string, chatID int64, messageID int) error
	ForgetDelivery(ctx context.Context, token string, chatID int64, messageID int) error
	DeactivateBatch(ctx context.Context, token string, requesterID int64) error
	SetAutoDelete(ctx context.Context, token string, minutes int) error
	ListAdminBatches(ctx context.Context, adminID int64) ([]domain.BatchRecord, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}

// registry implements Registry.
type registry struct {
	files   repository.FileRepository
	batches repository.BatchRepository
	users   repository.UserRepository
	admins  Admins
}

// NewRegistry creates the token registry.
func NewRegistry(
	files repository.FileRepository,
	batches repository.BatchRepository,
	users repository.UserRepository,
	admins Admins,
) Registry {
	return &registry{
		files:   files,
		batches: batches,
		users:   users,
		admins:  admins,
	}
}

// newToken returns a fresh 128-bit random token, hex encoded. No sequential
// component, so tokens cannot be enumerated.
func newToken() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// RegisterFile persists a new file record and returns its token. The token
// is only handed out after the record is durably stored.
func (r *registry) RegisterFile(ctx context.Context, d FileDescriptor) (string, error) {
	if d.AutoDelete && d.AutoDeleteMin <= 0 {
		return "", fmt.Errorf("auto-delete enabled without a delay")
	}

	record := &domain.FileRecord{
		Token:      newToken(),
		MessageID:  d.MessageID,
		FileName:   d.FileName,
		FileSize:   d.FileSize,
		Kind:       d.Kind,
		UploaderID: d.UploaderID,
		AutoDelete: d.AutoDelete,
	}
	if d.AutoDelete {
		record.AutoDeleteMin = d.AutoDeleteMin
	}

	if err := r.files.Create(ctx, record); err != nil {
		return "", storageErr("register file", err)
	}
	return record.Token, nil
}

// RegisterBatch persists an ordered batch and returns its token. The
// descriptor order is preserved exactly; a single insert keeps registration
// all-or-nothing.
func (r *registry) RegisterBatch(ctx context.Context, adminID int64, descriptors []FileDescriptor) (string, error) {
	if len(descriptors) == 0 {
		return "", ErrEmptyBatch
	}

	entries := make([]domain.BatchEntry, 0, len(descriptors))
	for _, d := range descriptors {
		entries = append(entries, domain.BatchEntry{
			MessageID: d.MessageID,
			FileName:  d.FileName,
			FileSize:  d.FileSize,
			Kind:      d.Kind,
		})
	}

	record := &domain.BatchRecord{
		Token:   newToken(),
		AdminID: adminID,
		Files:   entries,
	}

	if err := r.batches.Create(ctx, record); err != nil {
		return "", storageErr("register batch", err)
	}
	return record.Token, nil
}

// ResolveFile is a pure lookup with no side effects.
func (r *registry) ResolveFile(ctx context.Context, token string) (*domain.FileRecord, error) {
	record, err := r.files.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("resolve file", err)
	}
	return record, nil
}

// ResolveBatch looks up an active batch; inactive batches are NotFound.
func (r *registry) ResolveBatch(ctx context.Context, token string) (*domain.BatchRecord, error) {
	record, err := r.batches.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("resolve batch", err)
	}
	return record, nil
}

// RecordDownload bumps the download counter. Safe under concurrent calls for
// the same token; the repository performs a single atomic increment.
func (r *registry) RecordDownload(ctx context.Context, token string) error {
	if err := r.files.IncrementDownloads(ctx, token); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return storageErr("record download", err)
	}
	return nil
}

// RecordDelivery tracks a delivered copy under its token. File tokens are
// tried first, then batch tokens, so the scheduler stays agnostic of which
// kind it is cleaning up after.
func (r *registry) RecordDelivery(ctx context.Context, token string, chatID int64, messageID int) error {
	entry := domain.DeliveredCopy{ChatID: chatID, MessageID: messageID, SentAt: time.Now().UTC()}

	err := r.files.AddDeliveredCopy(ctx, token, entry)
	if errors.Is(err, repository.ErrNotFound) {
		err = r.batches.AddDeliveredCopy(ctx, token, entry)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return storageErr("record delivery", err)
	}
	return nil
}

// ForgetDelivery removes a delivered-copy entry. Forgetting an entry that no
// longer exists is not an error; the tracking record must not outlive its
// usefulness.
func (r *registry) ForgetDelivery(ctx context.Context, token string, chatID int64, messageID int) error {
	if err := r.files.RemoveDeliveredCopy(ctx, token, chatID, messageID); err != nil {
		return storageErr("forget delivery", err)
	}
	if err := r.batches.RemoveDeliveredCopy(ctx, token, chatID, messageID); err != nil {
		return storageErr("forget delivery", err)
	}
	return nil
}

// DeactivateBatch soft-deletes a batch. Only the creating admin or the owner
// may do so; underlying file messages are untouched.
func (r *registry) DeactivateBatch(ctx context.Context, token string, requesterID int64) error {
	record, err := r.batches.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return storageErr("deactivate batch", err)
	}

	if record.AdminID != requesterID && !r.admins.IsOwner(requesterID) {
		return ErrForbidden
	}

	if err := r.batches.Deactivate(ctx, token); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return storageErr("deactivate batch", err)
	}
	return nil
}

// SetAutoDelete enables auto-deletion with the given delay for future
// deliveries of the token.
func (r *registry) SetAutoDelete(ctx context.Context, token string, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("auto-delete delay must be positive")
	}
	if err := r.files.SetAutoDelete(ctx, token, minutes); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return storageErr("set auto-delete", err)
	}
	return nil
}

// ListAdminBatches returns the active batches created by an admin.
func (r *registry) ListAdminBatches(ctx context.Context, adminID int64) ([]domain.BatchRecord, error) {
	batches, err := r.batches.ListByAdmin(ctx, adminID)
	if err != nil {
		return nil, storageErr("list batches", err)
	}
	return batches, nil
}

// Stats aggregates the numbers behind /stats and the ops API.
func (r *registry) Stats(ctx context.Context) (*domain.Stats, error) {
	files, bytes, downloads, autoDelete, err := r.files.Totals(ctx)
	if err != nil {
		return nil, storageErr("stats", err)
	}
	users, err := r.users.Count(ctx)
	if err != nil {
		return nil, storageErr("stats", err)
	}
	batches, err := r.batches.Count(ctx)
	if err != nil {
		return nil, storageErr("stats", err)
	}

	return &domain.Stats{
		TotalFiles:       files,
		TotalUsers:       users,
		TotalBatches:     batches,
		TotalBytes:       bytes,
		TotalDownloads:   downloads,
		AutoDeleteActive: autoDelete,
	}, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}
