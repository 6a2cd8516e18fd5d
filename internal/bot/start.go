package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sharebyte/internal/service"
)

const batchTokenPrefix = "batch_"

// handleStart serves the plain welcome, or resolves a deep-link payload into
// a file or batch delivery.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		b.sendMarkdown(msg.Chat.ID, fmt.Sprintf(startText, b.botName), startKeyboard())
		return
	}
	b.serveToken(ctx, msg.Chat.ID, msg.From.ID, arg)
}

// serveToken runs the gate and, when allowed, delivers the token's content
// into the chat. Shared by /start and the subscription-refresh callback.
func (b *Bot) serveToken(ctx context.Context, chatID, userID int64, arg string) {
	result := b.gate.Check(ctx, userID)
	if !result.Allowed {
		b.sendMarkdown(chatID, forceSubText, forceSubKeyboard(result.Missing, arg))
		return
	}

	if token, ok := strings.CutPrefix(arg, batchTokenPrefix); ok {
		b.serveBatch(ctx, chatID, token)
		return
	}
	b.serveFile(ctx, chatID, arg)
}

func (b *Bot) serveFile(ctx context.Context, chatID int64, token string) {
	// The delivery result only matters for batches; a successful single-file
	// delivery needs no follow-up message.
	_, err := b.delivery.DeliverFile(ctx, token, chatID)
	switch {
	case errors.Is(err, service.ErrNotFound):
		b.send(chatID, notFoundText)
	case errors.Is(err, service.ErrDeliveryFailed):
		b.send(chatID, sendFailedText)
	case err != nil:
		b.send(chatID, tryLaterText)
	}
}

func (b *Bot) serveBatch(ctx context.Context, chatID int64, token string) {
	res, err := b.delivery.DeliverBatch(ctx, token, chatID)
	switch {
	case errors.Is(err, service.ErrNotFound):
		b.send(chatID, batchGoneText)
	case err != nil:
		b.send(chatID, tryLaterText)
	default:
		summary := fmt.Sprintf("📦 Delivered %d/%d files.", res.Delivered, len(res.Items))
		if res.Delivered < len(res.Items) {
			var failed []string
			for _, item := range res.Items {
				if item.Err != nil {
					failed = append(failed, item.FileName)
				}
			}
			summary += "\n⚠️ Failed: " + strings.Join(failed, ", ")
		}
		b.send(chatID, summary)
	}
}
