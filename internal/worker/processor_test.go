package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharebyte/internal/queue"
	"sharebyte/internal/service"
	"sharebyte/internal/transport"
)

// fakeRegistry embeds the interface so only the methods the processor calls
// need implementing; anything else panics and fails the test.
type fakeRegistry struct {
	service.Registry

	mu        sync.Mutex
	forgotten []string // "token/chatID/messageID"
	forgetErr error
}

func (r *fakeRegistry) ForgetDelivery(ctx context.Context, token string, chatID int64, messageID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.forgetErr != nil {
		return r.forgetErr
	}
	r.forgotten = append(r.forgotten, forgetKey(token, chatID, messageID))
	return nil
}

func forgetKey(token string, chatID int64, messageID int) string {
	return fmt.Sprintf("%s/%d/%d", token, chatID, messageID)
}

type fakeDeleter struct {
	mu        sync.Mutex
	deleted   []int
	deleteErr error
}

func (d *fakeDeleter) CopyMessage(ctx context.Context, fromChat int64, messageID int, toChat int64) (int, error) {
	return 0, errors.New("not used")
}

func (d *fakeDeleter) ForwardMessage(ctx context.Context, fromChat int64, messageID int, toChat int64) (int, error) {
	return 0, errors.New("not used")
}

func (d *fakeDeleter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.deleteErr != nil {
		return d.deleteErr
	}
	d.deleted = append(d.deleted, messageID)
	return nil
}

func (d *fakeDeleter) GetChatMember(ctx context.Context, chatID, userID int64) (transport.ChatMemberStatus, error) {
	return "", errors.New("not used")
}

func (d *fakeDeleter) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	return 0, errors.New("not used")
}

func autoDeleteTask(t *testing.T, payload queue.AutoDeletePayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(queue.TypeAutoDelete, data)
}

func TestAutoDeleteFires(t *testing.T) {
	registry := &fakeRegistry{}
	deleter := &fakeDeleter{}
	p := NewProcessor(registry, deleter)

	task := autoDeleteTask(t, queue.AutoDeletePayload{
		Token:      "abc123",
		ChatID:     555,
		MessageIDs: []int{7, 8},
	})

	require.NoError(t, p.handleAutoDelete(context.Background(), task))

	assert.Equal(t, []int{7, 8}, deleter.deleted)
	assert.Equal(t, []string{
		forgetKey("abc123", 555, 7),
		forgetKey("abc123", 555, 8),
	}, registry.forgotten)
}

func TestAutoDeleteSurvivesDeleteFailure(t *testing.T) {
	registry := &fakeRegistry{}
	deleter := &fakeDeleter{deleteErr: errors.New("message to delete not found")}
	p := NewProcessor(registry, deleter)

	task := autoDeleteTask(t, queue.AutoDeletePayload{Token: "abc123", ChatID: 555, MessageIDs: []int{7}})

	require.NoError(t, p.handleAutoDelete(context.Background(), task),
		"an already-gone message must not keep the job retrying")
	assert.Len(t, registry.forgotten, 1, "tracking record is dropped even when deletion fails")
}

func TestAutoDeleteRetriesOnForgetFailure(t *testing.T) {
	registry := &fakeRegistry{forgetErr: errors.New("storage down")}
	deleter := &fakeDeleter{}
	p := NewProcessor(registry, deleter)

	task := autoDeleteTask(t, queue.AutoDeletePayload{Token: "abc123", ChatID: 555, MessageIDs: []int{7}})

	assert.Error(t, p.handleAutoDelete(context.Background(), task),
		"a storage failure must surface so the queue retries")
}

func TestAutoDeleteRejectsBadPayload(t *testing.T) {
	p := NewProcessor(&fakeRegistry{}, &fakeDeleter{})
	task := asynq.NewTask(queue.TypeAutoDelete, []byte("not json"))

	assert.Error(t, p.handleAutoDelete(context.Background(), task))
}
