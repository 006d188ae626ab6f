package kafkago

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	sk "github.com/sko00o/plunger-kafka"
)

// defaultLinger is how long a poll waits for more records once it has one.
const defaultLinger = 10 * time.Millisecond

type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Handler struct {
	reader  reader
	pending []kafka.Message
	linger  time.Duration
	log     Logger
}

var _ sk.Consumer = (*Handler)(nil)

func New(c sk.ConsumerConfig, options ...OptionFunc) (*Handler, error) {
	h := &Handler{
		linger: defaultLinger,
	}

	// NOTE: we need to set logger in kafka reader, so we call OptionFunc here
	for _, option := range options {
		if err := option(h); err != nil {
			return nil, err
		}
	}

	if c.GroupID == "" {
		return nil, errors.New("group_id is empty")
	}
	if c.Topic == "" {
		return nil, errors.New("topic is empty")
	}
	if c.AutoOffsetReset == sk.OffsetResetNone {
		return nil, errors.New("auto offset reset none is not supported by kafka-go")
	}

	cfg := kafka.ReaderConfig{
		Brokers: c.Addresses,
		GroupID: c.GroupID,
		Topic:   c.Topic,
		// offsets are only committed by CommitMessages
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
		Dialer: &kafka.Dialer{
			ClientID:  c.ClientID,
			Timeout:   10 * time.Second,
			DualStack: true,
		},
	}
	if h.log != nil {
		cfg.Logger = kafka.LoggerFunc(h.log.Infof)
		cfg.ErrorLogger = kafka.LoggerFunc(h.log.Errorf)
	}
	if c.AutoOffsetReset == sk.OffsetResetLatest {
		cfg.StartOffset = kafka.LastOffset
	}
	if v := c.MaxPartitionFetchBytes; v > 0 {
		cfg.MaxBytes = v
	}
	if v := c.PollTimeout; v > 0 {
		cfg.MaxWait = v
	}
	if v := c.MaxPollRecords; v > 0 {
		cfg.QueueCapacity = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}
	h.reader = kafka.NewReader(cfg)

	return h, nil
}

// Poll fetches up to max messages. It waits up to timeout for the first one
// and at most the linger time for each further one.
func (h *Handler) Poll(ctx context.Context, timeout time.Duration, max int) ([]sk.Record, error) {
	if max < 1 {
		max = 1
	}
	deadline := time.Now().Add(timeout)
	records := make([]sk.Record, 0, max)

	for len(records) < max {
		wait := time.Until(deadline)
		if len(records) > 0 && wait > h.linger {
			wait = h.linger
		}
		if wait <= 0 {
			break
		}

		msg, err := h.fetch(ctx, wait)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				break
			}
			if len(records) > 0 {
				// hand out what we have, the error comes back on the next fetch
				if h.log != nil {
					h.log.Errorf("fetch message: %v", err)
				}
				break
			}
			return nil, fmt.Errorf("fetch message: %w", err)
		}

		h.pending = append(h.pending, msg)
		records = append(records, newRecord(msg))
	}

	return records, nil
}

func (h *Handler) fetch(ctx context.Context, wait time.Duration) (kafka.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	return h.reader.FetchMessage(ctx)
}

func (h *Handler) Commit(ctx context.Context) error {
	if len(h.pending) == 0 {
		return nil
	}
	if err := h.reader.CommitMessages(ctx, h.pending...); err != nil {
		return fmt.Errorf("commit messages: %w", err)
	}
	h.pending = h.pending[:0]
	return nil
}

// Unsubscribe forgets uncommitted messages, the group is left on Close.
func (h *Handler) Unsubscribe() error {
	h.pending = nil
	return nil
}

func (h *Handler) Close() error {
	if err := h.reader.Close(); err != nil {
		return fmt.Errorf("close reader: %w", err)
	}
	return nil
}

func newRecord(msg kafka.Message) sk.Record {
	r := sk.Record{
		Topic:         msg.Topic,
		Partition:     int32(msg.Partition),
		Offset:        msg.Offset,
		Key:           msg.Key,
		Value:         msg.Value,
		TimestampType: sk.NoTimestampType,
	}
	// kafka-go does not expose the timestamp type
	if !msg.Time.IsZero() {
		r.Timestamp = msg.Time
		r.TimestampType = sk.CreateTime
	}
	if len(msg.Headers) > 0 {
		r.Headers = make([]sk.Header, len(msg.Headers))
		for i, h := range msg.Headers {
			r.Headers[i] = sk.Header{Key: h.Key, Value: h.Value}
		}
	}
	return r
}
