package events

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
	"github.com/riskibarqy/team-sheet-sync/internal/usecase"
	"github.com/streadway/amqp"
)

const (
	RoutingKeySyncCompleted = "sync.completed"
	defaultExchange         = "team-sheet-sync"
)

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Dialer opens a channel and returns the connection that owns it.
type Dialer func(url string) (Channel, io.Closer, error)

type AMQPPublisherConfig struct {
	URL      string
	Exchange string
	Dialer   Dialer
	Logger   *logging.Logger
}

// AMQPPublisher publishes sync events to a durable topic exchange. It dials
// lazily and drops the channel after a failed publish so the next event
// reconnects.
type AMQPPublisher struct {
	url      string
	exchange string
	dial     Dialer
	logger   *logging.Logger

	mu      sync.Mutex
	channel Channel
	conn    io.Closer
}

func NewAMQPPublisher(cfg AMQPPublisherConfig) *AMQPPublisher {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	exchange := strings.TrimSpace(cfg.Exchange)
	if exchange == "" {
		exchange = defaultExchange
	}
	dial := cfg.Dialer
	if dial == nil {
		dial = dialAMQP
	}

	return &AMQPPublisher{
		url:      strings.TrimSpace(cfg.URL),
		exchange: exchange,
		dial:     dial,
		logger:   logger.Named("events"),
	}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event usecase.SyncEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := sonic.Marshal(event)
	if err != nil {
		return crerr.Wrap(err, "marshal sync event")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannelLocked(); err != nil {
		return err
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	err = p.channel.Publish(p.exchange, RoutingKeySyncCompleted, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.RunID,
		Timestamp:    occurredAt,
		Type:         event.Kind,
		Body:         body,
	})
	if err != nil {
		p.resetLocked()
		return crerr.Wrapf(err, "publish %s", RoutingKeySyncCompleted)
	}

	p.logger.DebugContext(ctx, "sync event published",
		"run_id", event.RunID,
		"kind", event.Kind,
		"team_season_id", event.TeamSeasonID,
		"status", event.Status,
	)
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}

func (p *AMQPPublisher) ensureChannelLocked() error {
	if p.channel != nil {
		return nil
	}
	if p.url == "" {
		return crerr.New("amqp url is required")
	}

	ch, conn, err := p.dial(p.url)
	if err != nil {
		return crerr.Wrap(err, "dial amqp")
	}
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		if conn != nil {
			_ = conn.Close()
		}
		return crerr.Wrapf(err, "declare exchange %s", p.exchange)
	}

	p.channel = ch
	p.conn = conn
	p.logger.Info("amqp publisher connected", "exchange", p.exchange)
	return nil
}

func (p *AMQPPublisher) resetLocked() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.channel = nil
	p.conn = nil
}

func dialAMQP(url string) (Channel, io.Closer, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 30 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return ch, conn, nil
}
