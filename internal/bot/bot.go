package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sharebyte/internal/config"
	"sharebyte/internal/domain"
	"sharebyte/internal/repository"
	"sharebyte/internal/service"
	"sharebyte/internal/transport"
)

// Bot runs the update loop and routes commands, callbacks and media to their
// handlers. Each update is handled on its own goroutine so a slow batch
// delivery never blocks unrelated requests.
type Bot struct {
	api       *tgbotapi.BotAPI
	messenger transport.Messenger

	registry  service.Registry
	gate      service.Gate
	delivery  service.Delivery
	sessions  *service.Sessions
	broadcast service.Broadcast
	users     repository.UserRepository
	admins    service.Admins

	botName           string
	storageChannel    int64
	maxFileSize       int64
	defaultAutoDelete bool
	defaultAutoDelMin int
}

// New wires the bot together.
func New(
	api *tgbotapi.BotAPI,
	messenger transport.Messenger,
	cfg config.Config,
	registry service.Registry,
	gate service.Gate,
	delivery service.Delivery,
	sessions *service.Sessions,
	broadcast service.Broadcast,
	users repository.UserRepository,
	admins service.Admins,
) *Bot {
	return &Bot{
		api:               api,
		messenger:         messenger,
		registry:          registry,
		gate:              gate,
		delivery:          delivery,
		sessions:          sessions,
		broadcast:         broadcast,
		users:             users,
		admins:            admins,
		botName:           api.Self.FirstName,
		storageChannel:    cfg.Telegram.StorageChannelID,
		maxFileSize:       cfg.Files.MaxSize,
		defaultAutoDelete: cfg.Files.AutoDelete,
		defaultAutoDelMin: cfg.Files.AutoDeleteMinutes,
	}
}

// Run consumes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = transport.LongPollTimeout

	updates := b.api.GetUpdatesChan(u)
	log.Printf("Authorized on account %s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.touchUser(ctx, update.CallbackQuery.From)
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		msg := update.Message
		if msg.From != nil {
			b.touchUser(ctx, msg.From)
		}
		if msg.IsCommand() {
			b.handleCommand(ctx, msg)
			return
		}
		if msg.Chat.IsPrivate() {
			b.handleBatchFile(ctx, msg)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "help":
		b.sendMarkdown(msg.Chat.ID, helpText, helpKeyboard())
	case "about":
		b.sendMarkdown(msg.Chat.ID, fmt.Sprintf(aboutText, b.botName, botVersion), aboutKeyboard())
	case "upload":
		b.handleUpload(ctx, msg)
	case "batch_upload":
		b.handleBatchUpload(ctx, msg)
	case "done_batch":
		b.handleDoneBatch(ctx, msg)
	case "cancel_batch":
		b.handleCancelBatch(ctx, msg)
	case "my_batches":
		b.handleMyBatches(ctx, msg)
	case "auto_del":
		b.handleAutoDel(ctx, msg)
	case "stats":
		b.handleStats(ctx, msg)
	case "broadcast":
		b.handleBroadcast(ctx, msg)
	default:
		b.send(msg.Chat.ID, "Unknown command 🤔 Use /help to see what I can do.")
	}
}

// touchUser upserts the user record on every interaction.
func (b *Bot) touchUser(ctx context.Context, from *tgbotapi.User) {
	upsertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	record := &domain.UserRecord{TelegramID: from.ID, Username: from.UserName}
	if err := b.users.Upsert(upsertCtx, record); err != nil {
		log.Printf("ERROR: upsert user %d: %v", from.ID, err)
	}
}

// shareLink builds the deep link for a token.
func (b *Bot) shareLink(token string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", b.api.Self.UserName, token)
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("ERROR: send to %d: %v", chatID, err)
	}
}

func (b *Bot) sendMarkdownText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("ERROR: send to %d: %v", chatID, err)
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("ERROR: send to %d: %v", chatID, err)
	}
}
