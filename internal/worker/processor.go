package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"sharebyte/internal/queue"
	"sharebyte/internal/service"
	"sharebyte/internal/transport"
)

// Processor is plugged into the asynq worker loop. It fires armed deletions:
// remove the delivered copies from the chat, then forget their tracking
// records.
type Processor struct {
	registry  service.Registry
	messenger transport.Messenger
}

// NewProcessor constructs a worker processor.
func NewProcessor(registry service.Registry, messenger transport.Messenger) *Processor {
	return &Processor{registry: registry, messenger: messenger}
}

// Handler registers the auto-delete job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeAutoDelete, p.handleAutoDelete)
	return mux
}

func (p *Processor) handleAutoDelete(ctx context.Context, task *asynq.Task) error {
	var payload queue.AutoDeletePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	for _, msgID := range payload.MessageIDs {
		// Deletion is best-effort: the message may already be gone or the
		// bot may lack permission. The tracking record is forgotten either
		// way so it does not outlive its usefulness.
		if err := p.messenger.DeleteMessage(ctx, payload.ChatID, msgID); err != nil {
			log.Printf("WARN: auto-delete of message %d in chat %d failed: %v", msgID, payload.ChatID, err)
		}
		if err := p.registry.ForgetDelivery(ctx, payload.Token, payload.ChatID, msgID); err != nil {
			return fmt.Errorf("forget delivery %s/%d/%d: %w", payload.Token, payload.ChatID, msgID, err)
		}
	}

	log.Printf("auto-delete fired for token %s in chat %d (%d messages)", payload.Token, payload.ChatID, len(payload.MessageIDs))
	return nil
}
