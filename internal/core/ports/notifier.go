package ports

import "github.com/yieldvault/invest-api/internal/core/domain"

// ChatNotifier pushes chat events to live connections. Implementations must
// not block and must swallow delivery failures; the store stays the source
// of truth.
type ChatNotifier interface {
	NewMessage(msg *domain.ChatMessage)
	AdminReply(msg *domain.ChatMessage)
}

// LedgerPublisher announces committed balance-affecting transactions to
// downstream consumers. Publish must not block the caller.
type LedgerPublisher interface {
	Publish(tx *domain.Transaction)
}

type nopNotifier struct{}

func (nopNotifier) NewMessage(*domain.ChatMessage) {}
func (nopNotifier) AdminReply(*domain.ChatMessage) {}

// NopChatNotifier discards every push.
func NopChatNotifier() ChatNotifier { return nopNotifier{} }

type nopPublisher struct{}

func (nopPublisher) Publish(*domain.Transaction) {}

// NopLedgerPublisher discards every event.
func NopLedgerPublisher() LedgerPublisher { return nopPublisher{} }
