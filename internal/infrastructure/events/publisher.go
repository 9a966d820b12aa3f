// Package events publishes committed ledger transactions to NATS JetStream
// for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/pkg/metrics"
)

const (
	StreamName     = "LEDGER_EVENTS"
	subjectPrefix  = "ledger.events"
	bufferSize     = 1024
	publishTimeout = 5 * time.Second
)

// streamPublisher is the part of jetstream.JetStream the publisher needs.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// LedgerEvent is the wire payload of one outbound event.
type LedgerEvent struct {
	TransactionID string                   `json:"transaction_id"`
	UserID        string                   `json:"user_id"`
	Type          domain.TransactionType   `json:"type"`
	Status        domain.TransactionStatus `json:"status"`
	Amount        string                   `json:"amount"`
	Currency      string                   `json:"currency,omitempty"`
	OccurredAt    time.Time                `json:"occurred_at"`
}

// Publisher queues events in memory and publishes them from Run. Publish
// never blocks; a full buffer drops the event.
type Publisher struct {
	js    streamPublisher
	queue chan LedgerEvent
	log   zerolog.Logger
}

func NewPublisher(js streamPublisher, log zerolog.Logger) *Publisher {
	return &Publisher{
		js:    js,
		queue: make(chan LedgerEvent, bufferSize),
		log:   log,
	}
}

// Publish implements ports.LedgerPublisher.
func (p *Publisher) Publish(tx *domain.Transaction) {
	evt := LedgerEvent{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Type:          tx.Type,
		Status:        tx.Status,
		Amount:        tx.Amount.StringFixed(domain.MoneyScale),
		Currency:      tx.Currency,
		OccurredAt:    tx.UpdatedAt,
	}
	select {
	case p.queue <- evt:
	default:
		metrics.LedgerEventsPublishedTotal.WithLabelValues("dropped").Inc()
		p.log.Warn().Str("transaction_id", tx.ID).Msg("ledger event buffer full, event dropped")
	}
}

// Run drains the queue until ctx is cancelled. Publish failures are logged
// and counted; the transaction store remains the record.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt := <-p.queue:
			if err := p.publish(ctx, evt); err != nil {
				metrics.LedgerEventsPublishedTotal.WithLabelValues("error").Inc()
				p.log.Warn().Err(err).
					Str("transaction_id", evt.TransactionID).
					Msg("ledger event publish failed")
				continue
			}
			metrics.LedgerEventsPublishedTotal.WithLabelValues("ok").Inc()
		}
	}
}

func (p *Publisher) publish(ctx context.Context, evt LedgerEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// Same transaction and status is the same event; JetStream dedups on it.
	msgID := fmt.Sprintf("%s:%s", evt.TransactionID, evt.Status)
	_, err = p.js.Publish(ctx, Subject(evt.Type, evt.Status), data, jetstream.WithMsgID(msgID))
	return err
}

// Subject builds ledger.events.<type>.<status>.
func Subject(typ domain.TransactionType, status domain.TransactionStatus) string {
	return fmt.Sprintf("%s.%s.%s", subjectPrefix, typ, status)
}

// Connect dials NATS and returns a JetStream handle.
func Connect(url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.Name("invest-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}
	return nc, js, nil
}

// EnsureStream creates or updates the outbound stream.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{subjectPrefix + ".>"},
		Storage:    jetstream.FileStorage,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     72 * time.Hour,
		Duplicates: 10 * time.Minute,
		Replicas:   1,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", StreamName, err)
	}
	return nil
}
