package kafkago

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	sk "github.com/sko00o/plunger-kafka"
)

type Handler struct {
	writer Writer
	log    Logger
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

	acks, err := sk.ParseAcks(c.Acks)
	if err != nil {
		return nil, err
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(c.Addresses...),
		Balancer:     &kafka.Murmur2Balancer{},
		RequiredAcks: kafka.RequiredAcks(acks),
		// a failed send is reported, never retried
		MaxAttempts: 1,
		// every record is written and acknowledged on its own
		BatchSize: 1,
		Transport: &kafka.Transport{
			ClientID: c.ClientID,
		},
	}
	if v := c.MaxRequestSize; v > 0 {
		w.BatchBytes = int64(v)
	}
	if v := c.BatchTimeout; v > 0 {
		w.BatchTimeout = v
	}
	if h.log != nil {
		w.Logger = kafka.LoggerFunc(h.log.Infof)
		w.ErrorLogger = kafka.LoggerFunc(h.log.Errorf)
	}

	h.writer = w
	return h, nil
}

func (h *Handler) Send(ctx context.Context, record sk.ProducerRecord) error {
	if err := h.writer.WriteMessages(ctx, newMessage(record)); err != nil {
		return fmt.Errorf("write messages: %w", err)
	}
	return nil
}

func (h *Handler) Close() error {
	if err := h.writer.Close(); err != nil {
		// will not get error actually
		if h.log != nil {
			h.log.Errorf("stop producer: %v", err)
		}
		return err
	}
	return nil
}
