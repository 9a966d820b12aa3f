// Package metrics defines and registers all custom Prometheus metrics for the
// investment API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto; /metrics serves them through echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "invest"

// ── Balance metrics ───────────────────────────────────────────────────────────

// BalanceAdjustmentsTotal counts balance adjustments attempted through the engine.
// Labels:
//   - direction: "credit" or "debit"
//   - result: "ok", "insufficient_funds", "user_not_found" or "error"
var BalanceAdjustmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "balance_adjustments_total",
		Help:      "Total number of balance adjustments, by direction and result.",
	},
	[]string{"direction", "result"},
)

// ── Transaction metrics ───────────────────────────────────────────────────────

// TransactionsTotal counts transactions reaching a status.
// Labels:
//   - type: "deposit", "withdrawal" or "profit"
//   - status: the status reached (e.g. "pending", "rejected")
var TransactionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transactions_total",
		Help:      "Total number of transactions created or transitioned, by type and resulting status.",
	},
	[]string{"type", "status"},
)

// TransactionErrorsTotal counts rejected transaction operations.
// Label:
//   - reason: e.g. "insufficient_funds", "below_minimum", "invalid_transition"
var TransactionErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transaction_errors_total",
		Help:      "Total number of transaction operations that failed a business rule.",
	},
	[]string{"reason"},
)

// InvestmentsCreatedTotal counts investments opened, by plan.
var InvestmentsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "investments_created_total",
		Help:      "Total number of investments created, by plan id.",
	},
	[]string{"plan_id"},
)

// ── Chat metrics ──────────────────────────────────────────────────────────────

// ChatMessagesTotal counts persisted chat operations.
// Label:
//   - route: "user_message" or "admin_reply"
var ChatMessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_messages_total",
		Help:      "Total number of chat messages persisted, by route.",
	},
	[]string{"route"},
)

// ChatPushTotal counts live push attempts.
// Label:
//   - result: "sent", "failed", "dropped" (queue full) or "offline" (no connection)
var ChatPushTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_push_total",
		Help:      "Total number of socket push attempts, by result.",
	},
	[]string{"result"},
)

// SocketConnections tracks the number of registered live socket connections.
// Label:
//   - role: "user" or "admin"
var SocketConnections = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "socket_connections",
		Help:      "Current number of registered socket connections.",
	},
	[]string{"role"},
)

// PushQueueDepth tracks the number of frames waiting in each push worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var PushQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "push_queue_depth",
		Help:      "Current number of frames pending in each push worker channel.",
	},
	[]string{"worker_id"},
)

// LedgerEventsPublishedTotal counts outbound ledger events.
// Label:
//   - result: "ok", "error" or "dropped"
var LedgerEventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_events_published_total",
		Help:      "Total number of ledger events handed to the outbound publisher, by result.",
	},
	[]string{"result"},
)
