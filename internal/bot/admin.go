package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sharebyte/internal/service"
)

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	if !b.admins.IsAdmin(msg.From.ID) {
		b.send(msg.Chat.ID, adminOnlyText)
		return
	}

	stats, err := b.registry.Stats(ctx)
	if err != nil {
		b.send(msg.Chat.ID, tryLaterText)
		return
	}

	text := fmt.Sprintf(
		"📊 *Bot Statistics*\n\n"+
			"📄 Files: %d\n"+
			"📦 Batches: %d\n"+
			"👥 Users: %d\n"+
			"📥 Downloads: %d\n"+
			"💾 Stored: %s\n"+
			"⏳ Auto-delete enabled: %d",
		stats.TotalFiles, stats.TotalBatches, stats.TotalUsers,
		stats.TotalDownloads, formatSize(stats.TotalBytes), stats.AutoDeleteActive,
	)
	b.sendMarkdownText(msg.Chat.ID, text)
}

// handleBroadcast copies the replied message to every known user. Runs in
// the background; the admin gets a completion summary.
func (b *Bot) handleBroadcast(ctx context.Context, msg *tgbotapi.Message) {
	if !b.admins.IsAdmin(msg.From.ID) {
		b.send(msg.Chat.ID, adminOnlyText)
		return
	}
	if msg.ReplyToMessage == nil {
		b.send(msg.Chat.ID, "Reply to a message with /broadcast to send it to all users.")
		return
	}

	b.send(msg.Chat.ID, "📣 Broadcast started...")

	fromChat := msg.Chat.ID
	sourceID := msg.ReplyToMessage.MessageID
	go func() {
		result, err := b.broadcast.Send(ctx, fromChat, sourceID)
		if err != nil {
			log.Printf("ERROR: broadcast: %v", err)
			b.send(fromChat, tryLaterText)
			return
		}
		b.send(fromChat, fmt.Sprintf("📣 Broadcast finished: %d sent, %d failed (of %d users).",
			result.Sent, result.Failed, result.Total))
	}()
}

// handleAutoDel enables auto-deletion for a token: /auto_del <token> <minutes>.
func (b *Bot) handleAutoDel(ctx context.Context, msg *tgbotapi.Message) {
	if !b.admins.IsAdmin(msg.From.ID) {
		b.send(msg.Chat.ID, adminOnlyText)
		return
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		b.send(msg.Chat.ID, "Usage: /auto_del <token> <minutes>")
		return
	}
	minutes, err := strconv.Atoi(args[1])
	if err != nil || minutes <= 0 {
		b.send(msg.Chat.ID, "Minutes must be a positive number.")
		return
	}

	switch err := b.registry.SetAutoDelete(ctx, args[0], minutes); {
	case errors.Is(err, service.ErrNotFound):
		b.send(msg.Chat.ID, notFoundText)
	case err != nil:
		b.send(msg.Chat.ID, tryLaterText)
	default:
		b.send(msg.Chat.ID, fmt.Sprintf("✅ Future deliveries of this file will self-destruct after %d minutes.", minutes))
	}
}
