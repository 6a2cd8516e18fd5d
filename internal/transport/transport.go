package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ChatMemberStatus mirrors the statuses the chat API reports for a user in a
// channel.
type ChatMemberStatus string

const (
	StatusCreator       ChatMemberStatus = "creator"
	StatusAdministrator ChatMemberStatus = "administrator"
	StatusMember        ChatMemberStatus = "member"
	StatusRestricted    ChatMemberStatus = "restricted"
	StatusLeft          ChatMemberStatus = "left"
	StatusKicked        ChatMemberStatus = "kicked"
)

// Joined reports whether the status counts as channel membership for the
// force-subscription gate.
func (s ChatMemberStatus) Joined() bool {
	switch s {
	case StatusCreator, StatusAdministrator, StatusMember:
		return true
	default:
		return false
	}
}

// ErrNotParticipant means the chat API confirmed the user is absent from the
// channel, as opposed to a transient query failure.
var ErrNotParticipant = errors.New("user is not a participant")

// RateLimitedError carries the wait the chat API demands before retrying.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// Messenger is the narrow slice of the chat API the rest of the system
// depends on. Implementations handle rate-limit backoff internally; callers
// only see a RateLimitedError once retries are exhausted.
type Messenger interface {
	// CopyMessage copies a message between chats without a forward header and
	// returns the new message id in the destination chat.
	CopyMessage(ctx context.Context, fromChat int64, messageID int, toChat int64) (int, error)

	// ForwardMessage forwards a message and returns the new message id.
	ForwardMessage(ctx context.Context, fromChat int64, messageID int, toChat int64) (int, error)

	// DeleteMessage removes a message from a chat.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// GetChatMember reports a user's membership status in a chat. A confirmed
	// absence is reported as (StatusLeft, nil) or ErrNotParticipant; any other
	// error is transient.
	GetChatMember(ctx context.Context, chatID, userID int64) (ChatMemberStatus, error)

	// SendMessage sends a plain text message and returns its message id.
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
}
