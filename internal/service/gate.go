package service

import (
	"context"
	"errors"
	"log"
	"time"

	"sharebyte/internal/transport"
)

// Channel is one force-subscription channel with its join link for prompts.
type Channel struct {
	ID   int64
	Name string
	Link string
}

// GateResult is the outcome of a force-subscription check. Missing lists the
// channels the user has not joined, used to render the join prompt.
type GateResult struct {
	Allowed bool
	Missing []Channel
}

// Gate evaluates force-subscription: a user is allowed only when every
// configured channel reports them as member, administrator or owner.
//
// Policy: a membership query that confirms absence counts as denial for that
// channel. A transient query failure (channel unreachable, misconfigured id)
// skips that channel's check so one broken channel cannot lock out every
// user; the condition is logged. Admins bypass the gate unconditionally.
type Gate interface {
	Check(ctx context.Context, userID int64) GateResult
}

const membershipTimeout = 5 * time.Second

// subscriptionGate implements Gate over the transport's membership queries.
type subscriptionGate struct {
	channels []Channel
	members  transport.Messenger
	admins   Admins
}

// NewGate creates the force-subscription gate. An empty channel list always
// passes.
func NewGate(channels []Channel, members transport.Messenger, admins Admins) Gate {
	return &subscriptionGate{
		channels: channels,
		members:  members,
		admins:   admins,
	}
}

func (g *subscriptionGate) Check(ctx context.Context, userID int64) GateResult {
	if len(g.channels) == 0 || g.admins.IsAdmin(userID) {
		return GateResult{Allowed: true}
	}

	var missing []Channel
	for _, ch := range g.channels {
		queryCtx, cancel := context.WithTimeout(ctx, membershipTimeout)
		status, err := g.members.GetChatMember(queryCtx, ch.ID, userID)
		cancel()

		if err != nil {
			if errors.Is(err, transport.ErrNotParticipant) {
				missing = append(missing, ch)
				continue
			}
			// Transient failure: skip this channel's check.
			log.Printf("WARN: membership check for channel %d failed, skipping: %v", ch.ID, err)
			continue
		}
		if !status.Joined() {
			missing = append(missing, ch)
		}
	}

	return GateResult{Allowed: len(missing) == 0, Missing: missing}
}
