package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"match-mate/contract"
	"match-mate/domain"
	"match-mate/observability"
)

// Router delivers an event to every active connection of the target user.
//
// Delivery is best effort and fire-and-forget: there is no result per
// connection, no queuing for offline users, no retry. A sink that rejects a
// frame (slow consumer, closing connection) is skipped without affecting the
// others.
type Router struct {
	log      *slog.Logger
	presence contract.IPresence
	metrics  *observability.Metrics
}

func NewRouter(log *slog.Logger, presence contract.IPresence, metrics *observability.Metrics) *Router {
	return &Router{log: log, presence: presence, metrics: metrics}
}

func (r *Router) Deliver(ctx context.Context, targetUserID string, f domain.Frame) {
	sinks := r.presence.ConnectionsFor(targetUserID)
	if len(sinks) == 0 {
		// Expected outcome, not an error: there is no offline inbox.
		r.metrics.IncrMissed()
		r.log.Debug("No active connection for target, dropping event",
			"target", targetUserID, "event", f.Event)
		return
	}

	for _, sink := range sinks {
		if err := sink.Consume(ctx, f); err != nil {
			r.metrics.IncrDropped()
			r.log.Warn(fmt.Sprintf("Dropping %s frame for one connection", f.Event),
				"target", targetUserID, "conn", sink.ID(), "error", err)
			continue
		}
		r.metrics.IncrDelivered()
	}
}
