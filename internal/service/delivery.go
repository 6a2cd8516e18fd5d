package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"sharebyte/internal/domain"
)

var ErrDeliveryFailed = errors.New("delivery failed")

// DeleteScheduler arms a deferred deletion of delivered messages. Arming
// must be quick; it must never block the response to the user.
type DeleteScheduler interface {
	Arm(ctx context.Context, token string, chatID int64, messageIDs []int, delay time.Duration) error
}

// Copier is the slice of the transport the orchestrator needs.
type Copier interface {
	CopyMessage(ctx context.Context, fromChat int64, messageID int, toChat int64) (int, error)
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
}

// FileDeliveryResult reports one successful single-file delivery.
type FileDeliveryResult struct {
	Record    *domain.FileRecord
	MessageID int // id of the copy in the destination chat
	NoticeID  int // id of the auto-delete notice, 0 when none was sent
}

// BatchItemResult is the per-item outcome of a batch delivery.
type BatchItemResult struct {
	FileName  string
	MessageID int
	Err       error
}

// BatchDeliveryResult reports a batch delivery: how many of the ordered
// items made it, with per-item detail.
type BatchDeliveryResult struct {
	Batch     *domain.BatchRecord
	Delivered int
	Items     []BatchItemResult
}

// Delivery copies referenced messages out of the storage channel into a
// destination chat, records deliveries, and arms auto-deletion.
type Delivery interface {
	DeliverFile(ctx context.Context, token string, destChat int64) (*FileDeliveryResult, error)
	DeliverBatch(ctx context.Context, token string, destChat int64) (*BatchDeliveryResult, error)
}

// deliveryService implements Delivery.
type deliveryService struct {
	registry       Registry
	messenger      Copier
	scheduler      DeleteScheduler
	storageChannel int64
	pacing         time.Duration // wait between batch items, rate-limit hygiene
}

// NewDelivery creates the delivery orchestrator.
func NewDelivery(
	registry Registry,
	messenger Copier,
	scheduler DeleteScheduler,
	storageChannel int64,
	pacing time.Duration,
) Delivery {
	return &deliveryService{
		registry:       registry,
		messenger:      messenger,
		scheduler:      scheduler,
		storageChannel: storageChannel,
		pacing:         pacing,
	}
}

const autoDeleteNotice = "⏳ This file will be automatically deleted in %d minutes.\n💡 Save it to your saved messages before then!"

// DeliverFile copies a single file to the destination chat, records the
// download and the delivered copy, and arms auto-deletion when the record
// asks for it.
func (s *deliveryService) DeliverFile(ctx context.Context, token string, destChat int64) (*FileDeliveryResult, error) {
	record, err := s.registry.ResolveFile(ctx, token)
	if err != nil {
		return nil, err
	}

	msgID, err := s.messenger.CopyMessage(ctx, s.storageChannel, record.MessageID, destChat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	// The copy is already in the user's chat; counter or tracking failures
	// must not turn the delivery into an error.
	if err := s.registry.RecordDownload(ctx, token); err != nil {
		log.Printf("ERROR: record download for %s: %v", token, err)
	}
	if err := s.registry.RecordDelivery(ctx, token, destChat, msgID); err != nil {
		log.Printf("ERROR: record delivery for %s: %v", token, err)
	}

	result := &FileDeliveryResult{Record: record, MessageID: msgID}

	if record.AutoDelete && record.AutoDeleteMin > 0 {
		noticeID, err := s.messenger.SendMessage(ctx, destChat, fmt.Sprintf(autoDeleteNotice, record.AutoDeleteMin))
		if err != nil {
			log.Printf("WARN: auto-delete notice for %s: %v", token, err)
		} else {
			result.NoticeID = noticeID
		}

		ids := []int{msgID}
		if result.NoticeID != 0 {
			ids = append(ids, result.NoticeID)
		}
		delay := time.Duration(record.AutoDeleteMin) * time.Minute
		if err := s.scheduler.Arm(ctx, token, destChat, ids, delay); err != nil {
			log.Printf("ERROR: arm auto-delete for %s: %v", token, err)
		}
	}

	return result, nil
}

// DeliverBatch copies every file of a batch in order. Items are paced to
// respect transport rate limits; a failed item is reported and skipped, the
// remaining items still go out.
func (s *deliveryService) DeliverBatch(ctx context.Context, token string, destChat int64) (*BatchDeliveryResult, error) {
	batch, err := s.registry.ResolveBatch(ctx, token)
	if err != nil {
		return nil, err
	}

	result := &BatchDeliveryResult{
		Batch: batch,
		Items: make([]BatchItemResult, 0, len(batch.Files)),
	}

	for i, entry := range batch.Files {
		if i > 0 && s.pacing > 0 {
			select {
			case <-time.After(s.pacing):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}

		msgID, err := s.messenger.CopyMessage(ctx, s.storageChannel, entry.MessageID, destChat)
		if err != nil {
			log.Printf("WARN: batch %s item %d (%s) failed: %v", token, i+1, entry.FileName, err)
			result.Items = append(result.Items, BatchItemResult{FileName: entry.FileName, Err: err})
			continue
		}

		result.Delivered++
		result.Items = append(result.Items, BatchItemResult{FileName: entry.FileName, MessageID: msgID})

		if err := s.registry.RecordDelivery(ctx, token, destChat, msgID); err != nil {
			log.Printf("ERROR: record batch delivery for %s: %v", token, err)
		}
	}

	return result, nil
}
