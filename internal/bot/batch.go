package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sharebyte/internal/service"
)

func (b *Bot) handleBatchUpload(ctx context.Context, msg *tgbotapi.Message) {
	if !b.admins.IsAdmin(msg.From.ID) {
		b.send(msg.Chat.ID, adminOnlyText)
		return
	}

	if _, err := b.sessions.Start(msg.From.ID); err != nil {
		b.send(msg.Chat.ID,
			"You already have an active batch session. Finish it with /done_batch or cancel it with /cancel_batch first.")
		return
	}

	b.send(msg.Chat.ID,
		"🔰 Batch upload started!\n\n"+
			"Send me the files for this batch.\n\n"+
			"• /done_batch - finish and get the link\n"+
			"• /cancel_batch - discard the session\n\n"+
			"The session expires automatically if left idle.")
}

// handleBatchFile collects a media message into the admin's open session.
// Non-admins and admins without a session are ignored; this handler sees
// every non-command private message.
func (b *Bot) handleBatchFile(ctx context.Context, msg *tgbotapi.Message) {
	if !b.admins.IsAdmin(msg.From.ID) || !b.sessions.Active(msg.From.ID) {
		return
	}

	desc, ok := describeMedia(msg)
	if !ok {
		return
	}
	if b.maxFileSize > 0 && desc.FileSize > b.maxFileSize {
		b.send(msg.Chat.ID, fmt.Sprintf("❌ File too large. The limit is %s.", formatSize(b.maxFileSize)))
		return
	}

	storedID, err := b.messenger.ForwardMessage(ctx, msg.Chat.ID, msg.MessageID, b.storageChannel)
	if err != nil {
		b.send(msg.Chat.ID, "❌ Failed to store the file, it was not added to the batch.")
		return
	}

	desc.MessageID = storedID
	desc.UploaderID = msg.From.ID

	count, err := b.sessions.Append(msg.From.ID, desc)
	if err != nil {
		if errors.Is(err, service.ErrSessionExpired) {
			b.send(msg.Chat.ID, "⏰ Batch session expired. Start a new one with /batch_upload")
		}
		return
	}

	b.send(msg.Chat.ID, fmt.Sprintf("✅ File added to batch! (%d so far)\n\nSend more files or use /done_batch to finish.", count))
}

func (b *Bot) handleDoneBatch(ctx context.Context, msg *tgbotapi.Message) {
	if !b.admins.IsAdmin(msg.From.ID) {
		b.send(msg.Chat.ID, adminOnlyText)
		return
	}

	if b.sessions.Count(msg.From.ID) == 0 && b.sessions.Active(msg.From.ID) {
		b.send(msg.Chat.ID, "No files in the current batch. Send some files first or cancel with /cancel_batch")
		return
	}

	sess, err := b.sessions.End(msg.From.ID)
	switch {
	case errors.Is(err, service.ErrNoSession):
		b.send(msg.Chat.ID, "No active batch session. Start one with /batch_upload")
		return
	case errors.Is(err, service.ErrSessionExpired):
		b.send(msg.Chat.ID, "⏰ Batch session expired. Start a new one with /batch_upload")
		return
	case err != nil:
		b.send(msg.Chat.ID, tryLaterText)
		return
	}

	token, err := b.registry.RegisterBatch(ctx, msg.From.ID, sess.Files)
	if err != nil {
		b.send(msg.Chat.ID, tryLaterText)
		return
	}

	link := b.shareLink(batchTokenPrefix + token)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📦 *Batch upload complete!*\n\n🆔 Token: `%s`\n📄 Files: %d\n\n", token, len(sess.Files))
	for i, f := range sess.Files {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, f.FileName, formatSize(f.FileSize))
	}
	b.sendMarkdown(msg.Chat.ID, sb.String(), batchKeyboard(link, token))
}

func (b *Bot) handleCancelBatch(ctx context.Context, msg *tgbotapi.Message) {
	if !b.admins.IsAdmin(msg.From.ID) {
		b.send(msg.Chat.ID, adminOnlyText)
		return
	}

	if b.sessions.Cancel(msg.From.ID) {
		b.send(msg.Chat.ID, "✅ Batch session cancelled.")
	} else {
		b.send(msg.Chat.ID, "No active batch session.")
	}
}

func (b *Bot) handleMyBatches(ctx context.Context, msg *tgbotapi.Message) {
	if !b.admins.IsAdmin(msg.From.ID) {
		b.send(msg.Chat.ID, adminOnlyText)
		return
	}

	batches, err := b.registry.ListAdminBatches(ctx, msg.From.ID)
	if err != nil {
		b.send(msg.Chat.ID, tryLaterText)
		return
	}
	if len(batches) == 0 {
		b.send(msg.Chat.ID, "You have no active batches.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📦 *Your batches:*\n\n")
	for i, batch := range batches {
		fmt.Fprintf(&sb, "%d. `%s` — %d files, created %s\n%s\n\n",
			i+1, batch.Token, len(batch.Files),
			batch.CreatedAt.Format("2006-01-02 15:04"),
			b.shareLink(batchTokenPrefix+batch.Token))
	}
	b.sendMarkdownText(msg.Chat.ID, sb.String())
}
