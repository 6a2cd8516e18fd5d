package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	// How many times a rate-limited call is retried before the error is
	// surfaced to the caller.
	maxRateLimitRetries = 3

	callTimeout = 30 * time.Second

	// LongPollTimeout is the getUpdates long-poll window, in seconds.
	LongPollTimeout = 60

	// httpTimeout bounds every Bot API round trip. It must exceed the
	// long-poll window or getUpdates requests get cut short.
	httpTimeout = 90 * time.Second
)

// NewHTTPClient returns the HTTP client for Bot API calls. The client
// library's default constructor uses a zero-timeout client, which would let
// a stalled connection hang callers forever.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// Telegram implements Messenger on top of the Bot API. Rate-limit responses
// (429 with a retry_after) are honored and retried up to maxRateLimitRetries
// times before being surfaced.
type Telegram struct {
	api     *tgbotapi.BotAPI
	protect bool // protect_content on outgoing copies
}

// NewTelegram wraps an authorized Bot API client.
func NewTelegram(api *tgbotapi.BotAPI, protectContent bool) *Telegram {
	return &Telegram{api: api, protect: protectContent}
}

// copyParams assembles a copyMessage request by hand: protect_content is not
// representable in the client library's typed config.
func copyParams(fromChat int64, messageID int, toChat int64, protect bool) tgbotapi.Params {
	params := make(tgbotapi.Params)
	params.AddNonZero64("chat_id", toChat)
	params.AddNonZero64("from_chat_id", fromChat)
	params.AddNonZero("message_id", messageID)
	params.AddBool("protect_content", protect)
	return params
}

func sendParams(chatID int64, text string, protect bool) tgbotapi.Params {
	params := make(tgbotapi.Params)
	params.AddNonZero64("chat_id", chatID)
	params.AddNonEmpty("text", text)
	params.AddBool("protect_content", protect)
	return params
}

func (t *Telegram) CopyMessage(ctx context.Context, fromChat int64, messageID int, toChat int64) (int, error) {
	params := copyParams(fromChat, messageID, toChat, t.protect)

	var newID int
	err := t.withRetry(ctx, func() error {
		resp, err := t.api.MakeRequest("copyMessage", params)
		if err != nil {
			return err
		}
		var res tgbotapi.MessageID
		if err := json.Unmarshal(resp.Result, &res); err != nil {
			return err
		}
		newID = res.MessageID
		return nil
	})
	return newID, err
}

func (t *Telegram) ForwardMessage(ctx context.Context, fromChat int64, messageID int, toChat int64) (int, error) {
	cfg := tgbotapi.NewForward(toChat, fromChat, messageID)

	var newID int
	err := t.withRetry(ctx, func() error {
		msg, err := t.api.Send(cfg)
		if err != nil {
			return err
		}
		newID = msg.MessageID
		return nil
	})
	return newID, err
}

func (t *Telegram) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	cfg := tgbotapi.NewDeleteMessage(chatID, messageID)
	return t.withRetry(ctx, func() error {
		_, err := t.api.Request(cfg)
		return err
	})
}

func (t *Telegram) GetChatMember(ctx context.Context, chatID, userID int64) (ChatMemberStatus, error) {
	cfg := tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	}

	var status ChatMemberStatus
	err := t.withRetry(ctx, func() error {
		member, err := t.api.GetChatMember(cfg)
		if err != nil {
			return err
		}
		status = ChatMemberStatus(member.Status)
		return nil
	})
	if err != nil {
		if isNotParticipant(err) {
			return StatusLeft, ErrNotParticipant
		}
		return "", err
	}
	return status, nil
}

func (t *Telegram) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	params := sendParams(chatID, text, t.protect)

	var newID int
	err := t.withRetry(ctx, func() error {
		resp, err := t.api.MakeRequest("sendMessage", params)
		if err != nil {
			return err
		}
		var msg tgbotapi.Message
		if err := json.Unmarshal(resp.Result, &msg); err != nil {
			return err
		}
		newID = msg.MessageID
		return nil
	})
	return newID, err
}

// withRetry runs call, sleeping out rate-limit responses. Other errors pass
// through untouched.
func (t *Telegram) withRetry(ctx context.Context, call func() error) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	for attempt := 0; ; attempt++ {
		err := call()
		if err == nil {
			return nil
		}

		wait, ok := retryAfter(err)
		if !ok || attempt >= maxRateLimitRetries {
			if ok {
				return &RateLimitedError{RetryAfter: wait}
			}
			return err
		}

		log.Printf("WARN: telegram rate limit, waiting %s (attempt %d)", wait, attempt+1)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// retryAfter extracts the required wait from a 429 response.
func retryAfter(err error) (time.Duration, bool) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second, true
	}
	return 0, false
}

// isNotParticipant classifies the error strings the Bot API uses for a user
// confirmed absent from a channel.
func isNotParticipant(err error) bool {
	msg := strings.ToUpper(err.Error())
	return strings.Contains(msg, "USER_NOT_PARTICIPANT") ||
		strings.Contains(msg, "USER NOT FOUND") ||
		strings.Contains(msg, "PARTICIPANT_ID_INVALID")
}
