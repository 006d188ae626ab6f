package confluent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	confluentkafka "github.com/confluentinc/confluent-kafka-go/kafka"
	sk "github.com/sko00o/plunger-kafka"
)

const (
	defaultLinger       = 10 * time.Millisecond
	defaultCloseTimeout = 10 * time.Second
)

type client interface {
	Poll(timeoutMs int) confluentkafka.Event
	Commit() ([]confluentkafka.TopicPartition, error)
	Unsubscribe() error
	Close() error
}

type Handler struct {
	client       client
	linger       time.Duration
	closeTimeout time.Duration
	log          Logger

	// Close() of librdkafka may get stuck, run it only once
	onceClose sync.Once
	errClose  error
}

var _ sk.Consumer = (*Handler)(nil)

func New(c sk.ConsumerConfig, options ...OptionFunc) (*Handler, error) {
	h := &Handler{
		linger:       defaultLinger,
		closeTimeout: defaultCloseTimeout,
	}
	for _, option := range options {
		if err := option(h); err != nil {
			return nil, err
		}
	}

	configMap, err := ConfigMap(c)
	if err != nil {
		return nil, err
	}

	consumer, err := confluentkafka.NewConsumer(configMap)
	if err != nil {
		return nil, fmt.Errorf("creating consumer: %w", err)
	}
	if err := consumer.Subscribe(c.Topic, nil); err != nil {
		_ = consumer.Close()
		return nil, fmt.Errorf("subscribe %s: %w", c.Topic, err)
	}

	h.client = consumer
	return h, nil
}

// ConfigMap returns the librdkafka configuration of a consumer that only
// commits on request.
func ConfigMap(c sk.ConsumerConfig) (*confluentkafka.ConfigMap, error) {
	if c.GroupID == "" {
		return nil, errors.New("group_id is empty")
	}
	if c.Topic == "" {
		return nil, errors.New("topic is empty")
	}

	configMap := confluentkafka.ConfigMap{
		"bootstrap.servers":  strings.Join(c.Addresses, ","),
		"group.id":           c.GroupID,
		"enable.auto.commit": false,
		"auto.offset.reset":  sk.OffsetResetEarliest,
	}
	if v := c.ClientID; v != "" {
		configMap["client.id"] = v
	}
	switch c.AutoOffsetReset {
	case sk.OffsetResetLatest, sk.OffsetResetNone:
		configMap["auto.offset.reset"] = c.AutoOffsetReset
	}
	if v := c.MaxPartitionFetchBytes; v > 0 {
		configMap["max.partition.fetch.bytes"] = v
	}
	return &configMap, nil
}

// pollMillis rounds up so a wait under a millisecond still blocks.
func pollMillis(d time.Duration) int {
	return int((d + time.Millisecond - 1) / time.Millisecond)
}

// Poll waits up to timeout for the first message and at most the linger
// time for each further one.
func (h *Handler) Poll(ctx context.Context, timeout time.Duration, max int) ([]sk.Record, error) {
	if max < 1 {
		max = 1
	}
	deadline := time.Now().Add(timeout)
	records := make([]sk.Record, 0, max)

	for len(records) < max {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wait := time.Until(deadline)
		if len(records) > 0 && wait > h.linger {
			wait = h.linger
		}
		if wait <= 0 {
			break
		}

		switch ev := h.client.Poll(pollMillis(wait)).(type) {
		case nil:
			// timed out
			if len(records) > 0 {
				return records, nil
			}

		case *confluentkafka.Message:
			if ev.TopicPartition.Error != nil {
				if len(records) > 0 {
					return records, nil
				}
				return nil, fmt.Errorf("consume: %w", ev.TopicPartition.Error)
			}
			records = append(records, newRecord(ev))

		case confluentkafka.Error:
			if ev.IsFatal() && len(records) == 0 {
				return nil, fmt.Errorf("consume: %w", ev)
			}
			if h.log != nil {
				h.log.Errorf("kafka error event: %v", ev)
			}

		default:
			if h.log != nil {
				h.log.Infof("ignoring event: %v", ev)
			}
		}
	}

	return records, nil
}

// Commit stores the position of every message handed out so far.
func (h *Handler) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := h.client.Commit(); err != nil {
		var kafkaErr confluentkafka.Error
		if errors.As(err, &kafkaErr) && kafkaErr.Code() == confluentkafka.ErrNoOffset {
			return nil
		}
		return fmt.Errorf("committing offsets: %w", err)
	}
	return nil
}

func (h *Handler) Unsubscribe() error {
	if err := h.client.Unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

func (h *Handler) Close() error {
	closeErrChan := make(chan error, 1)
	go func() {
		h.onceClose.Do(func() {
			h.errClose = h.client.Close()
		})
		closeErrChan <- h.errClose
	}()

	select {
	case <-time.After(h.closeTimeout):
		return errors.New("consumer close timeout")
	case err := <-closeErrChan:
		if err != nil {
			return fmt.Errorf("close consumer: %w", err)
		}
		return nil
	}
}

func newRecord(msg *confluentkafka.Message) sk.Record {
	r := sk.Record{
		Partition: msg.TopicPartition.Partition,
		Offset:    int64(msg.TopicPartition.Offset),
		Key:       msg.Key,
		Value:     msg.Value,
	}
	if msg.TopicPartition.Topic != nil {
		r.Topic = *msg.TopicPartition.Topic
	}

	switch msg.TimestampType {
	case confluentkafka.TimestampCreateTime:
		r.Timestamp, r.TimestampType = msg.Timestamp, sk.CreateTime
	case confluentkafka.TimestampLogAppendTime:
		r.Timestamp, r.TimestampType = msg.Timestamp, sk.LogAppendTime
	default:
		r.TimestampType = sk.NoTimestampType
	}

	if len(msg.Headers) > 0 {
		r.Headers = make([]sk.Header, len(msg.Headers))
		for i, h := range msg.Headers {
			r.Headers[i] = sk.Header{Key: h.Key, Value: h.Value}
		}
	}
	return r
}
