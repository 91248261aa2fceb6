package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/logging"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/resilience"
	"github.com/riskibarqy/pulse-leaderboard/internal/usecase"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	eventTypeHeader      = "event-type"
	eventTypePrestige    = "prestige.awarded"
	schemaVersionHeader  = "schema-version"
	currentSchemaVersion = "1"
)

type Config struct {
	Enabled        bool
	Brokers        []string
	Topic          string
	WriteTimeout   time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes prestige events to Kafka keyed by scope, so one
// community's awards stay ordered on a single partition.
type Publisher struct {
	cfg     Config
	writer  messageWriter
	breaker *resilience.CircuitBreaker
	enabled bool
	logger  *logging.Logger
}

var _ usecase.EventPublisher = (*Publisher)(nil)

func NewPublisher(cfg Config, logger *logging.Logger) (*Publisher, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("kafka_publisher")
	if !cfg.Enabled {
		logger.Info("kafka publisher disabled")
		return &Publisher{cfg: cfg, logger: logger}, nil
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, crerr.New("kafka topic must not be empty")
	}
	if len(cfg.Brokers) == 0 {
		return nil, crerr.New("at least one kafka broker is required")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		RequiredAcks:           kafkago.RequireOne,
		Balancer:               &kafkago.Hash{},
		AllowAutoTopicCreation: false,
		WriteTimeout:           cfg.WriteTimeout,
	}
	return newPublisherWithWriter(cfg, writer, logger), nil
}

func newPublisherWithWriter(cfg Config, writer messageWriter, logger *logging.Logger) *Publisher {
	p := &Publisher{
		cfg:     cfg,
		writer:  writer,
		enabled: cfg.Enabled && writer != nil,
		logger:  logger,
	}
	p.breaker = resilience.NewCircuitBreaker("kafka", cfg.CircuitBreaker).
		OnStateChange(func(name string, from, to resilience.CircuitState) {
			p.logger.Warn("circuit breaker state changed", "breaker", name, "topic", cfg.Topic, "from", from, "to", to)
		})
	return p
}

func (p *Publisher) PublishPrestigeAwarded(ctx context.Context, event usecase.PrestigeAwardedEvent) error {
	if !p.enabled {
		return nil
	}

	value, err := sonic.Marshal(event)
	if err != nil {
		return crerr.Wrap(err, "marshal prestige event")
	}
	msg := kafkago.Message{
		Key:   []byte(event.ScopeID),
		Value: value,
		Time:  event.AwardedAt,
		Headers: []kafkago.Header{
			{Key: eventTypeHeader, Value: []byte(eventTypePrestige)},
			{Key: schemaVersionHeader, Value: []byte(currentSchemaVersion)},
		},
	}

	err = p.breaker.Execute(func() error {
		return p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		p.logger.WarnContext(ctx, "kafka write failed",
			"topic", p.cfg.Topic,
			"event_id", event.EventID,
			"circuit_state", p.breaker.State(),
			"error", err,
		)
		return fmt.Errorf("publish prestige event %s: %w", event.EventID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
