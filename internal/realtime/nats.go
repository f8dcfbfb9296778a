package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "changes"

// NatsBroker implements Broker over a NATS connection with one subject per
// table ("changes.<table>").
type NatsBroker struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewNatsBroker connects to NATS at url
func NewNatsBroker(url string, logger *slog.Logger) (*NatsBroker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return &NatsBroker{nc: nc, logger: logger}, nil
}

// Publish sends a change event on the table's subject
func (b *NatsBroker) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if err := b.nc.Publish(subjectPrefix+"."+ev.Table, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", ev.Table, err)
	}
	return nil
}

// Subscribe delivers every change event for one table to handler until the
// returned subscription is torn down.
func (b *NatsBroker) Subscribe(table string, handler func(Event)) (Subscription, error) {
	sub, err := b.nc.Subscribe(subjectPrefix+"."+table, func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.logger.Warn("dropping malformed change event", "subject", msg.Subject, "error", err)
			return
		}
		handler(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", table, err)
	}
	return natsSubscription{sub}, nil
}

// Close drains the connection
func (b *NatsBroker) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s natsSubscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}
