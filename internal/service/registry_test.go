package service

import (
	"context"
	"sync"
	"testing"

	"sharebyte/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() (Registry, *memFileRepo, *memBatchRepo, *memUserRepo) {
	files := newMemFileRepo()
	batches := newMemBatchRepo()
	users := newMemUserRepo()
	admins := NewAdmins([]int64{100}, 999)
	return NewRegistry(files, batches, users, admins), files, batches, users
}

func TestRegisterFileRoundTrip(t *testing.T) {
	reg, _, _, _ := newTestRegistry()
	ctx := context.Background()

	token, err := reg.RegisterFile(ctx, FileDescriptor{
		MessageID:  42,
		FileName:   "report.pdf",
		FileSize:   2048,
		Kind:       domain.MediaDocument,
		UploaderID: 100,
	})
	require.NoError(t, err)
	assert.Len(t, token, 32, "token should be 128 bits, hex encoded")

	record, err := reg.ResolveFile(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 42, record.MessageID)
	assert.Equal(t, "report.pdf", record.FileName)
	assert.Equal(t, int64(2048), record.FileSize)
	assert.Equal(t, domain.MediaDocument, record.Kind)
	assert.Equal(t, int64(0), record.Downloads, "fresh record starts at zero downloads")
	assert.Nil(t, record.LastDownload)
	assert.False(t, record.AutoDelete)
}

func TestRegisterFileTokensAreUnique(t *testing.T) {
	reg, _, _, _ := newTestRegistry()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := reg.RegisterFile(ctx, FileDescriptor{MessageID: i, FileName: "f", Kind: domain.MediaDocument})
		require.NoError(t, err)
		assert.False(t, seen[token], "token %q handed out twice", token)
		seen[token] = true
	}
}

func TestRegisterFileRejectsAutoDeleteWithoutDelay(t *testing.T) {
	reg, _, _, _ := newTestRegistry()

	_, err := reg.RegisterFile(context.Background(), FileDescriptor{
		MessageID:  1,
		FileName:   "f",
		Kind:       domain.MediaDocument,
		AutoDelete: true,
	})
	assert.Error(t, err)
}

func TestResolveFileNotFound(t *testing.T) {
	reg, _, _, _ := newTestRegistry()

	_, err := reg.ResolveFile(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeef")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordDownloadConcurrent(t *testing.T) {
	reg, _, _, _ := newTestRegistry()
	ctx := context.Background()

	token, err := reg.RegisterFile(ctx, FileDescriptor{MessageID: 1, FileName: "f", Kind: domain.MediaVideo})
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, reg.RecordDownload(ctx, token))
		}()
	}
	wg.Wait()

	record, err := reg.ResolveFile(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(n), record.Downloads, "every concurrent download must count exactly once")
	assert.NotNil(t, record.LastDownload)
}

func TestRecordDownloadUnknownToken(t *testing.T) {
	reg, _, _, _ := newTestRegistry()

	err := reg.RecordDownload(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterBatchPreservesOrder(t *testing.T) {
	reg, _, _, _ := newTestRegistry()
	ctx := context.Background()

	token, err := reg.RegisterBatch(ctx, 100, []FileDescriptor{
		{MessageID: 10, FileName: "first.mp4", Kind: domain.MediaVideo},
		{MessageID: 11, FileName: "second.pdf", Kind: domain.MediaDocument},
		{MessageID: 12, FileName: "third.mp3", Kind: domain.MediaAudio},
	})
	require.NoError(t, err)

	batch, err := reg.ResolveBatch(ctx, token)
	require.NoError(t, err)
	require.Len(t, batch.Files, 3)
	assert.Equal(t, "first.mp4", batch.Files[0].FileName)
	assert.Equal(t, "second.pdf", batch.Files[1].FileName)
	assert.Equal(t, "third.mp3", batch.Files[2].FileName)
	assert.Equal(t, int64(100), batch.AdminID)
	assert.True(t, batch.Active)
}

func TestRegisterBatchRejectsEmpty(t *testing.T) {
	reg, _, _, _ := newTestRegistry()

	_, err := reg.RegisterBatch(context.Background(), 100, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestDeactivateBatchHidesToken(t *testing.T) {
	reg, _, _, _ := newTestRegistry()
	ctx := context.Background()

	fileToken, err := reg.RegisterFile(ctx, FileDescriptor{MessageID: 1, FileName: "keep.pdf", Kind: domain.MediaDocument})
	require.NoError(t, err)
	batchToken, err := reg.RegisterBatch(ctx, 100, []FileDescriptor{{MessageID: 2, FileName: "gone.pdf", Kind: domain.MediaDocument}})
	require.NoError(t, err)

	require.NoError(t, reg.DeactivateBatch(ctx, batchToken, 100))

	_, err = reg.ResolveBatch(ctx, batchToken)
	assert.ErrorIs(t, err, ErrNotFound, "deactivated batch must resolve as not found")

	// Individual file tokens are unaffected by a batch going away.
	_, err = reg.ResolveFile(ctx, fileToken)
	assert.NoError(t, err)
}

func TestDeactivateBatchPermissions(t *testing.T) {
	reg, _, _, _ := newTestRegistry()
	ctx := context.Background()

	token, err := reg.RegisterBatch(ctx, 100, []FileDescriptor{{MessageID: 1, FileName: "f", Kind: domain.MediaDocument}})
	require.NoError(t, err)

	err = reg.DeactivateBatch(ctx, token, 200)
	assert.ErrorIs(t, err, ErrForbidden, "a different admin must not deactivate someone else's batch")

	// The owner may deactivate any batch.
	assert.NoError(t, reg.DeactivateBatch(ctx, token, 999))
}

func TestRecordDeliveryFallsBackToBatches(t *testing.T) {
	reg, files, batches, _ := newTestRegistry()
	ctx := context.Background()

	fileToken, err := reg.RegisterFile(ctx, FileDescriptor{MessageID: 1, FileName: "f", Kind: domain.MediaDocument})
	require.NoError(t, err)
	batchToken, err := reg.RegisterBatch(ctx, 100, []FileDescriptor{{MessageID: 2, FileName: "g", Kind: domain.MediaDocument}})
	require.NoError(t, err)

	require.NoError(t, reg.RecordDelivery(ctx, fileToken, 555, 7))
	require.NoError(t, reg.RecordDelivery(ctx, batchToken, 555, 8))

	file, err := files.GetByToken(ctx, fileToken)
	require.NoError(t, err)
	require.Len(t, file.ActiveCopies, 1)
	assert.Equal(t, int64(555), file.ActiveCopies[0].ChatID)
	assert.Equal(t, 7, file.ActiveCopies[0].MessageID)

	batch, err := batches.GetByToken(ctx, batchToken)
	require.NoError(t, err)
	require.Len(t, batch.ActiveCopies, 1)
	assert.Equal(t, 8, batch.ActiveCopies[0].MessageID)
}

func TestForgetDeliveryIsIdempotent(t *testing.T) {
	reg, files, _, _ := newTestRegistry()
	ctx := context.Background()

	token, err := reg.RegisterFile(ctx, FileDescriptor{MessageID: 1, FileName: "f", Kind: domain.MediaDocument})
	require.NoError(t, err)
	require.NoError(t, reg.RecordDelivery(ctx, token, 555, 7))

	require.NoError(t, reg.ForgetDelivery(ctx, token, 555, 7))
	require.NoError(t, reg.ForgetDelivery(ctx, token, 555, 7), "forgetting twice must not error")

	file, err := files.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, file.ActiveCopies)
}

func TestSetAutoDelete(t *testing.T) {
	reg, _, _, _ := newTestRegistry()
	ctx := context.Background()

	token, err := reg.RegisterFile(ctx, FileDescriptor{MessageID: 1, FileName: "f", Kind: domain.MediaDocument})
	require.NoError(t, err)

	assert.Error(t, reg.SetAutoDelete(ctx, token, 0), "zero delay must be rejected")
	require.NoError(t, reg.SetAutoDelete(ctx, token, 30))

	record, err := reg.ResolveFile(ctx, token)
	require.NoError(t, err)
	assert.True(t, record.AutoDelete)
	assert.Equal(t, 30, record.AutoDeleteMin)

	assert.ErrorIs(t, reg.SetAutoDelete(ctx, "missing", 30), ErrNotFound)
}

func TestStatsAggregates(t *testing.T) {
	reg, _, _, users := newTestRegistry()
	ctx := context.Background()

	tok1, err := reg.RegisterFile(ctx, FileDescriptor{MessageID: 1, FileName: "a", FileSize: 100, Kind: domain.MediaDocument})
	require.NoError(t, err)
	_, err = reg.RegisterFile(ctx, FileDescriptor{MessageID: 2, FileName: "b", FileSize: 250, Kind: domain.MediaVideo, AutoDelete: true, AutoDeleteMin: 10})
	require.NoError(t, err)
	_, err = reg.RegisterBatch(ctx, 100, []FileDescriptor{{MessageID: 3, FileName: "c", Kind: domain.MediaDocument}})
	require.NoError(t, err)

	require.NoError(t, reg.RecordDownload(ctx, tok1))
	require.NoError(t, reg.RecordDownload(ctx, tok1))
	require.NoError(t, users.Upsert(ctx, &domain.UserRecord{TelegramID: 500}))

	stats, err := reg.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalFiles)
	assert.Equal(t, int64(1), stats.TotalBatches)
	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Equal(t, int64(350), stats.TotalBytes)
	assert.Equal(t, int64(2), stats.TotalDownloads)
	assert.Equal(t, int64(1), stats.AutoDeleteActive)
}

func TestStorageErrorsAreWrapped(t *testing.T) {
	files := newMemFileRepo()
	files.err = errTransport
	reg := NewRegistry(files, newMemBatchRepo(), newMemUserRepo(), NewAdmins(nil, 0))

	_, err := reg.RegisterFile(context.Background(), FileDescriptor{MessageID: 1, FileName: "f", Kind: domain.MediaDocument})
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = reg.ResolveFile(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
