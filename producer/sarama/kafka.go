package sarama

import (
	"context"
	"fmt"

	"github.com/Shopify/sarama"
	sk "github.com/sko00o/plunger-kafka"
)

// DefaultVersion is the lowest protocol version that carries record headers
// and the one used when no version is configured.
var DefaultVersion = sarama.V2_1_0_0

type Handler struct {
	producer sarama.SyncProducer
	log      Logger
}

var _ sk.Producer = (*Handler)(nil)

// New creates a new kafka producer
func New(c sk.ProducerConfig, options ...OptionFunc) (*Handler, error) {
	h := &Handler{}

	// NOTE: we need to set logger, so we call OptionFunc here
	for _, option := range options {
		if err := option(h); err != nil {
			return nil, err
		}
	}

	cfg, err := newConfig(c)
	if err != nil {
		return nil, err
	}

	p, err := sarama.NewSyncProducer(c.Addresses, cfg)
	if err != nil {
		return nil, fmt.Errorf("new sync producer: %w", err)
	}
	h.producer = p
	return h, nil
}

func newConfig(c sk.ProducerConfig) (*sarama.Config, error) {
	acks, err := sk.ParseAcks(c.Acks)
	if err != nil {
		return nil, err
	}

	cfg := sarama.NewConfig()
	cfg.Version = DefaultVersion
	if v := c.Version; v != "" {
		version, err := sarama.ParseKafkaVersion(v)
		if err != nil {
			return nil, fmt.Errorf("set kafka version %s: %w", v, err)
		}
		cfg.Version = version
	}
	if v := c.ClientID; v != "" {
		cfg.ClientID = v
	}

	cfg.Producer.RequiredAcks = sarama.RequiredAcks(acks)
	// a failed send is reported, never retried
	cfg.Producer.Retry.Max = 0
	if v := c.MaxRequestSize; v > 0 {
		cfg.Producer.MaxMessageBytes = v
	}
	if v := c.BatchTimeout; v > 0 {
		cfg.Producer.Flush.Frequency = v
	}
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}
	return cfg, nil
}

// Send blocks until the broker acknowledged the record. sarama has no
// per-call cancellation, ctx is only checked before sending.
func (h *Handler) Send(ctx context.Context, record sk.ProducerRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	partition, offset, err := h.producer.SendMessage(newProducerMessage(record))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if h.log != nil {
		h.log.Infof("record acknowledged, partition %d offset %d", partition, offset)
	}
	return nil
}

func (h *Handler) Close() error {
	if err := h.producer.Close(); err != nil {
		if h.log != nil {
			h.log.Errorf("stop producer: %v", err)
		}
		return err
	}
	return nil
}
