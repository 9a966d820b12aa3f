package realtime

import (
	"github.com/rs/zerolog"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/infrastructure/queue"
	"github.com/yieldvault/invest-api/internal/pkg/metrics"
)

// Enqueuer accepts push jobs without blocking.
type Enqueuer interface {
	Enqueue(job queue.Job) bool
}

// Hub routes chat events to live connections. It satisfies
// ports.ChatNotifier: every method returns immediately and delivery failures
// are only logged, since the message is already persisted.
type Hub struct {
	registry *Registry
	pusher   Enqueuer
	log      zerolog.Logger
}

func NewHub(registry *Registry, pusher Enqueuer, log zerolog.Logger) *Hub {
	return &Hub{registry: registry, pusher: pusher, log: log}
}

// NewMessage broadcasts a fresh user message to every connected admin.
func (h *Hub) NewMessage(msg *domain.ChatMessage) {
	admins := h.registry.Admins()
	if len(admins) == 0 {
		metrics.ChatPushTotal.WithLabelValues("offline").Inc()
		h.log.Debug().Str("message_id", msg.ID).Msg("no admin connected, message left for polling")
		return
	}

	frame, err := encodeMessage(TypeNewMessage, msg)
	if err != nil {
		h.log.Error().Err(err).Str("message_id", msg.ID).Msg("encode new_message frame")
		return
	}
	for _, e := range admins {
		h.pusher.Enqueue(queue.Job{UserID: e.UserID, Target: e.Conn, Frame: frame})
	}
}

// AdminReply pushes a reply back to the user who wrote the original message.
func (h *Hub) AdminReply(msg *domain.ChatMessage) {
	e, ok := h.registry.Lookup(msg.UserID)
	if !ok {
		metrics.ChatPushTotal.WithLabelValues("offline").Inc()
		h.log.Debug().
			Str("message_id", msg.ID).
			Str("user_id", msg.UserID).
			Msg("sender offline, reply left for polling")
		return
	}

	frame, err := encodeMessage(TypeAdminReply, msg)
	if err != nil {
		h.log.Error().Err(err).Str("message_id", msg.ID).Msg("encode admin_reply frame")
		return
	}
	h.pusher.Enqueue(queue.Job{UserID: e.UserID, Target: e.Conn, Frame: frame})
}
