package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TypeAutoDelete is scheduled each time a delivery arms auto-deletion.
	TypeAutoDelete = "delivery:auto_delete"
)

// AutoDeletePayload tells the worker which delivered messages to remove.
// Tasks live in Redis, so armed deletions survive a process restart and fire
// with their remaining delay.
type AutoDeletePayload struct {
	Token      string `json:"token"`
	ChatID     int64  `json:"chat_id"`
	MessageIDs []int  `json:"message_ids"`
}

// EnqueueAutoDelete schedules a deferred deletion.
func EnqueueAutoDelete(ctx context.Context, client *asynq.Client, payload AutoDeletePayload, delay time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeAutoDelete, data)
	if _, err := client.EnqueueContext(ctx, task, asynq.ProcessIn(delay), asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("enqueue auto-delete task: %w", err)
	}
	return nil
}

// Scheduler adapts the asynq client to the orchestrator's DeleteScheduler.
type Scheduler struct {
	client *asynq.Client
}

// NewScheduler wraps an asynq client.
func NewScheduler(client *asynq.Client) *Scheduler {
	return &Scheduler{client: client}
}

// Arm schedules deletion of the given messages after delay.
func (s *Scheduler) Arm(ctx context.Context, token string, chatID int64, messageIDs []int, delay time.Duration) error {
	return EnqueueAutoDelete(ctx, s.client, AutoDeletePayload{
		Token:      token,
		ChatID:     chatID,
		MessageIDs: messageIDs,
	}, delay)
}
