package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sharebyte/internal/domain"
	"sharebyte/internal/service"
)

// handleUpload registers a single file: the admin replies to a media message
// with /upload, the content is forwarded into the storage channel and a
// share link comes back.
func (b *Bot) handleUpload(ctx context.Context, msg *tgbotapi.Message) {
	if !b.admins.IsAdmin(msg.From.ID) {
		b.send(msg.Chat.ID, adminOnlyText)
		return
	}

	replied := msg.ReplyToMessage
	if replied == nil {
		b.send(msg.Chat.ID, "Reply to a file with /upload to share it.")
		return
	}

	desc, ok := describeMedia(replied)
	if !ok {
		b.send(msg.Chat.ID, unsupportedText)
		return
	}
	if b.maxFileSize > 0 && desc.FileSize > b.maxFileSize {
		b.send(msg.Chat.ID, fmt.Sprintf("❌ File too large. The limit is %s.", formatSize(b.maxFileSize)))
		return
	}

	storedID, err := b.messenger.ForwardMessage(ctx, msg.Chat.ID, replied.MessageID, b.storageChannel)
	if err != nil {
		b.send(msg.Chat.ID, sendFailedText)
		return
	}

	desc.MessageID = storedID
	desc.UploaderID = msg.From.ID
	desc.AutoDelete = b.defaultAutoDelete
	desc.AutoDeleteMin = b.defaultAutoDelMin

	token, err := b.registry.RegisterFile(ctx, desc)
	if err != nil {
		b.send(msg.Chat.ID, tryLaterText)
		return
	}

	link := b.shareLink(token)
	summary := fmt.Sprintf(
		"✅ *File uploaded!*\n\n📄 Name: `%s`\n📦 Size: %s\n🆔 Token: `%s`\n\n🔗 %s",
		desc.FileName, formatSize(desc.FileSize), token, link,
	)
	b.sendMarkdown(msg.Chat.ID, summary, shareKeyboard(link))
}

// describeMedia extracts a file descriptor from a message's media, if any.
func describeMedia(m *tgbotapi.Message) (service.FileDescriptor, bool) {
	var d service.FileDescriptor

	switch {
	case m.Document != nil:
		d.Kind = domain.MediaDocument
		d.FileName = m.Document.FileName
		d.FileSize = int64(m.Document.FileSize)
	case m.Video != nil:
		d.Kind = domain.MediaVideo
		d.FileName = m.Video.FileName
		d.FileSize = int64(m.Video.FileSize)
	case m.Audio != nil:
		d.Kind = domain.MediaAudio
		d.FileName = m.Audio.FileName
		d.FileSize = int64(m.Audio.FileSize)
	case len(m.Photo) > 0:
		// Last entry is the highest resolution.
		photo := m.Photo[len(m.Photo)-1]
		d.Kind = domain.MediaPhoto
		d.FileSize = int64(photo.FileSize)
	case m.Voice != nil:
		d.Kind = domain.MediaVoice
		d.FileSize = int64(m.Voice.FileSize)
	case m.VideoNote != nil:
		d.Kind = domain.MediaVideoNote
		d.FileSize = int64(m.VideoNote.FileSize)
	case m.Animation != nil:
		d.Kind = domain.MediaAnimation
		d.FileName = m.Animation.FileName
		d.FileSize = int64(m.Animation.FileSize)
	default:
		return d, false
	}

	if d.FileName == "" {
		d.FileName = fmt.Sprintf("%s_%d", d.Kind, time.Now().Unix())
	}
	return d, true
}
