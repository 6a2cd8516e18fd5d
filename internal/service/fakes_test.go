package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sharebyte/internal/domain"
	"sharebyte/internal/repository"
	"sharebyte/internal/transport"
)

// In-memory fakes implementing the repository and transport interfaces, with
// the same atomicity guarantees the Mongo implementations give.

type memFileRepo struct {
	mu    sync.Mutex
	files map[string]*domain.FileRecord
	err   error // when set, every call fails with it
}

func newMemFileRepo() *memFileRepo {
	return &memFileRepo{files: make(map[string]*domain.FileRecord)}
}

func (r *memFileRepo) Create(ctx context.Context, file *domain.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.files[file.Token]; ok {
		return repository.ErrDuplicateToken
	}
	file.Downloads = 0
	file.UploadedAt = time.Now().UTC()
	clone := *file
	r.files[file.Token] = &clone
	return nil
}

func (r *memFileRepo) GetByToken(ctx context.Context, token string) (*domain.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	file, ok := r.files[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *file
	clone.ActiveCopies = append([]domain.DeliveredCopy(nil), file.ActiveCopies...)
	return &clone, nil
}

func (r *memFileRepo) IncrementDownloads(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[token]
	if !ok {
		return repository.ErrNotFound
	}
	file.Downloads++
	now := time.Now().UTC()
	file.LastDownload = &now
	return nil
}

func (r *memFileRepo) SetAutoDelete(ctx context.Context, token string, minutes int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[token]
	if !ok {
		return repository.ErrNotFound
	}
	file.AutoDelete = true
	file.AutoDeleteMin = minutes
	return nil
}

func (r *memFileRepo) AddDeliveredCopy(ctx context.Context, token string, copy domain.DeliveredCopy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[token]
	if !ok {
		return repository.ErrNotFound
	}
	file.ActiveCopies = append(file.ActiveCopies, copy)
	return nil
}

func (r *memFileRepo) RemoveDeliveredCopy(ctx context.Context, token string, chatID int64, messageID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[token]
	if !ok {
		return nil
	}
	kept := file.ActiveCopies[:0]
	for _, c := range file.ActiveCopies {
		if c.ChatID != chatID || c.MessageID != messageID {
			kept = append(kept, c)
		}
	}
	file.ActiveCopies = kept
	return nil
}

func (r *memFileRepo) Totals(ctx context.Context) (files, bytes, downloads, autoDelete int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		files++
		bytes += f.FileSize
		downloads += f.Downloads
		if f.AutoDelete {
			autoDelete++
		}
	}
	return files, bytes, downloads, autoDelete, nil
}

type memBatchRepo struct {
	mu      sync.Mutex
	batches map[string]*domain.BatchRecord
}

func newMemBatchRepo() *memBatchRepo {
	return &memBatchRepo{batches: make(map[string]*domain.BatchRecord)}
}

func (r *memBatchRepo) Create(ctx context.Context, batch *domain.BatchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[batch.Token]; ok {
		return repository.ErrDuplicateToken
	}
	batch.Active = true
	batch.CreatedAt = time.Now().UTC()
	clone := *batch
	clone.Files = append([]domain.BatchEntry(nil), batch.Files...)
	r.batches[batch.Token] = &clone
	return nil
}

func (r *memBatchRepo) GetByToken(ctx context.Context, token string) (*domain.BatchRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[token]
	if !ok || !batch.Active {
		return nil, repository.ErrNotFound
	}
	clone := *batch
	clone.Files = append([]domain.BatchEntry(nil), batch.Files...)
	return &clone, nil
}

func (r *memBatchRepo) ListByAdmin(ctx context.Context, adminID int64) ([]domain.BatchRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.BatchRecord
	for _, b := range r.batches {
		if b.Active && b.AdminID == adminID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBatchRepo) Deactivate(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[token]
	if !ok || !batch.Active {
		return repository.ErrNotFound
	}
	batch.Active = false
	return nil
}

func (r *memBatchRepo) AddDeliveredCopy(ctx context.Context, token string, copy domain.DeliveredCopy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[token]
	if !ok {
		return repository.ErrNotFound
	}
	batch.ActiveCopies = append(batch.ActiveCopies, copy)
	return nil
}

func (r *memBatchRepo) RemoveDeliveredCopy(ctx context.Context, token string, chatID int64, messageID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[token]
	if !ok {
		return nil
	}
	kept := batch.ActiveCopies[:0]
	for _, c := range batch.ActiveCopies {
		if c.ChatID != chatID || c.MessageID != messageID {
			kept = append(kept, c)
		}
	}
	batch.ActiveCopies = kept
	return nil
}

func (r *memBatchRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.batches {
		if b.Active {
			n++
		}
	}
	return n, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[int64]*domain.UserRecord
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]*domain.UserRecord)}
}

func (r *memUserRepo) Upsert(ctx context.Context, user *domain.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.users[user.TelegramID]; ok {
		existing.Username = user.Username
		existing.LastActive = now
		return nil
	}
	clone := *user
	clone.FirstSeen = now
	clone.LastActive = now
	r.users[user.TelegramID] = &clone
	return nil
}

func (r *memUserRepo) All(ctx context.Context) ([]domain.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.UserRecord, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *memUserRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

// fakeMessenger records transport calls and hands out incrementing message
// ids. Failures are scripted per source message id or per chat.
type fakeMessenger struct {
	mu     sync.Mutex
	nextID int

	copies       []fakeCopy
	sent         []fakeSend
	deleted      []fakeDelete
	failCopy     map[int]error                        // keyed by source message id
	failCopyChat map[int64]error                      // keyed by destination chat id
	statuses     map[int64]transport.ChatMemberStatus // keyed by channel id
	memberErr    map[int64]error
}

type fakeCopy struct {
	FromChat  int64
	MessageID int
	ToChat    int64
	NewID     int
}

type fakeSend struct {
	ChatID int64
	Text   string
	NewID  int
}

type fakeDelete struct {
	ChatID    int64
	MessageID int
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		failCopy:     make(map[int]error),
		failCopyChat: make(map[int64]error),
		statuses:     make(map[int64]transport.ChatMemberStatus),
		memberErr:    make(map[int64]error),
	}
}

func (m *fakeMessenger) CopyMessage(ctx context.Context, fromChat int64, messageID int, toChat int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failCopy[messageID]; ok {
		return 0, err
	}
	if err, ok := m.failCopyChat[toChat]; ok {
		return 0, err
	}
	m.nextID++
	m.copies = append(m.copies, fakeCopy{FromChat: fromChat, MessageID: messageID, ToChat: toChat, NewID: m.nextID})
	return m.nextID, nil
}

func (m *fakeMessenger) ForwardMessage(ctx context.Context, fromChat int64, messageID int, toChat int64) (int, error) {
	return m.CopyMessage(ctx, fromChat, messageID, toChat)
}

func (m *fakeMessenger) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, fakeDelete{ChatID: chatID, MessageID: messageID})
	return nil
}

func (m *fakeMessenger) GetChatMember(ctx context.Context, chatID, userID int64) (transport.ChatMemberStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.memberErr[chatID]; ok {
		return "", err
	}
	if status, ok := m.statuses[chatID]; ok {
		return status, nil
	}
	return transport.StatusLeft, nil
}

func (m *fakeMessenger) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.sent = append(m.sent, fakeSend{ChatID: chatID, Text: text, NewID: m.nextID})
	return m.nextID, nil
}

// fakeScheduler records armed deletions.
type fakeScheduler struct {
	mu    sync.Mutex
	armed []armedDeletion
}

type armedDeletion struct {
	Token      string
	ChatID     int64
	MessageIDs []int
	Delay      time.Duration
}

func (s *fakeScheduler) Arm(ctx context.Context, token string, chatID int64, messageIDs []int, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = append(s.armed, armedDeletion{Token: token, ChatID: chatID, MessageIDs: messageIDs, Delay: delay})
	return nil
}

var errTransport = fmt.Errorf("transport says no")
