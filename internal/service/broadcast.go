package service

import (
	"context"
	"log"
	"time"

	"sharebyte/internal/repository"
)

// BroadcastResult tallies one broadcast run.
type BroadcastResult struct {
	Total  int
	Sent   int
	Failed int
}

// Broadcast copies an admin's message to every known user.
type Broadcast interface {
	Send(ctx context.Context, fromChat int64, messageID int) (*BroadcastResult, error)
}

// broadcastService implements Broadcast.
type broadcastService struct {
	users     repository.UserRepository
	messenger Copier
	pacing    time.Duration
}

// NewBroadcast creates the broadcast service. pacing spaces out sends so a
// large audience does not trip rate limits on every message.
func NewBroadcast(users repository.UserRepository, messenger Copier, pacing time.Duration) Broadcast {
	return &broadcastService{users: users, messenger: messenger, pacing: pacing}
}

// Send copies the given message to every user record. Individual failures
// (user blocked the bot, deleted account) are counted, not fatal.
func (s *broadcastService) Send(ctx context.Context, fromChat int64, messageID int) (*BroadcastResult, error) {
	users, err := s.users.All(ctx)
	if err != nil {
		return nil, storageErr("broadcast", err)
	}

	result := &BroadcastResult{Total: len(users)}
	for i, user := range users {
		if i > 0 && s.pacing > 0 {
			select {
			case <-time.After(s.pacing):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}

		if _, err := s.messenger.CopyMessage(ctx, fromChat, messageID, user.TelegramID); err != nil {
			log.Printf("WARN: broadcast to %d failed: %v", user.TelegramID, err)
			result.Failed++
			continue
		}
		result.Sent++
	}

	return result, nil
}
