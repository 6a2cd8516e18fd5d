package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sharebyte/internal/service"
)

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	data := cq.Data
	switch {
	case data == "home":
		b.editMarkdown(cq, fmt.Sprintf(startText, b.botName), startKeyboard())
		b.answer(cq, "")
	case data == "help":
		b.editMarkdown(cq, helpText, helpKeyboard())
		b.answer(cq, "")
	case data == "about":
		b.editMarkdown(cq, fmt.Sprintf(aboutText, b.botName, botVersion), aboutKeyboard())
		b.answer(cq, "")
	case strings.HasPrefix(data, "check_sub:"):
		b.handleCheckSub(ctx, cq, strings.TrimPrefix(data, "check_sub:"))
	case strings.HasPrefix(data, "delete_batch_"):
		b.handleDeleteBatch(ctx, cq, strings.TrimPrefix(data, "delete_batch_"))
	default:
		b.answer(cq, "")
	}
}

// handleCheckSub re-runs the gate on explicit user action and completes the
// pending delivery once every channel is joined.
func (b *Bot) handleCheckSub(ctx context.Context, cq *tgbotapi.CallbackQuery, arg string) {
	result := b.gate.Check(ctx, cq.From.ID)
	if !result.Allowed {
		b.alert(cq, "❌ You haven't joined all the channels yet!")
		return
	}

	b.answer(cq, "✅ Subscription verified!")
	if cq.Message != nil {
		b.editMarkdownText(cq, "✅ Subscription verified, sending your file(s)...")
		b.serveToken(ctx, cq.Message.Chat.ID, cq.From.ID, arg)
	}
}

// handleDeleteBatch deactivates a batch from its summary keyboard. The
// registry enforces that only the creating admin or the owner may do this.
func (b *Bot) handleDeleteBatch(ctx context.Context, cq *tgbotapi.CallbackQuery, token string) {
	switch err := b.registry.DeactivateBatch(ctx, token, cq.From.ID); {
	case errors.Is(err, service.ErrForbidden):
		b.alert(cq, "⚠️ Only the batch owner can delete it!")
	case errors.Is(err, service.ErrNotFound):
		b.alert(cq, "❌ Batch not found!")
	case err != nil:
		b.alert(cq, tryLaterText)
	default:
		b.answer(cq, "")
		if cq.Message != nil {
			b.editMarkdownText(cq, fmt.Sprintf("✅ Batch `%s` has been deleted.", token))
		}
	}
}

func (b *Bot) answer(cq *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, text)); err != nil {
		log.Printf("ERROR: answer callback: %v", err)
	}
}

func (b *Bot) alert(cq *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(cq.ID, text)); err != nil {
		log.Printf("ERROR: answer callback: %v", err)
	}
}

func (b *Bot) editMarkdown(cq *tgbotapi.CallbackQuery, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	if cq.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.DisableWebPagePreview = true
	edit.ReplyMarkup = &keyboard
	if _, err := b.api.Request(edit); err != nil {
		log.Printf("ERROR: edit message: %v", err)
	}
}

func (b *Bot) editMarkdownText(cq *tgbotapi.CallbackQuery, text string) {
	edit := tgbotapi.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Request(edit); err != nil {
		log.Printf("ERROR: edit message: %v", err)
	}
}
