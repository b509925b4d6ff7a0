package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rentsaathi/listingsync/internal/logging"
)

const (
	connectWait   = 5 * time.Second
	reconnectWait = 2 * time.Second
)

type natsConn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// NATS publishes changes as JSON on their kind's subject.
type NATS struct {
	conn   natsConn
	closer func()
	origin string
	log    logging.Logger
}

// ConnectNATS dials url. origin tags published changes so a watcher can
// skip its own.
func ConnectNATS(url, origin string, log logging.Logger) (*NATS, error) {
	if log == nil {
		log = logging.Nop()
	}
	ctx := context.Background()
	opts := []nats.Option{
		nats.Name("rentsaathi listing sync " + origin),
		nats.Timeout(connectWait),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn(ctx, "nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info(ctx, "nats reconnected", "url", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	p := newNATS(nc, origin, log)
	p.closer = func() { _ = nc.Drain() }
	return p, nil
}

func newNATS(conn natsConn, origin string, log logging.Logger) *NATS {
	if log == nil {
		log = logging.Nop()
	}
	return &NATS{conn: conn, origin: origin, log: log}
}

func (p *NATS) Publish(_ context.Context, c Change) error {
	if c.Origin == "" {
		c.Origin = p.origin
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal change for %s: %w", c.Kind, err)
	}
	if err := p.conn.Publish(string(c.Kind), data); err != nil {
		return fmt.Errorf("publish to %s: %w", c.Kind, err)
	}
	return nil
}

// Watch calls fn for every change published by another origin. The returned
// func stops the subscription.
func (p *NATS) Watch(fn func(Change)) (func(), error) {
	sub, err := p.conn.Subscribe(SubjectAll, func(m *nats.Msg) {
		var c Change
		if err := json.Unmarshal(m.Data, &c); err != nil {
			p.log.Warn(context.Background(), "dropping malformed change", "subject", m.Subject, "error", err)
			return
		}
		if c.Origin == p.origin {
			return
		}
		fn(c)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", SubjectAll, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

func (p *NATS) Close() {
	if p.closer != nil {
		p.closer()
	}
}
