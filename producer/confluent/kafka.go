package confluent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	confluentkafka "github.com/confluentinc/confluent-kafka-go/kafka"
	sk "github.com/sko00o/plunger-kafka"
)

const defaultFlushTimeout = 15 * time.Second

type client interface {
	Produce(msg *confluentkafka.Message, deliveryChan chan confluentkafka.Event) error
	Events() chan confluentkafka.Event
	Flush(timeoutMs int) int
	Close()
}

type Handler struct {
	client       client
	flushTimeout time.Duration
	log          Logger

	closeOnce sync.Once
	done      chan struct{}
}

var _ sk.Producer = (*Handler)(nil)

// New creates a new kafka producer
func New(c sk.ProducerConfig, options ...OptionFunc) (*Handler, error) {
	configMap, err := ConfigMap(c)
	if err != nil {
		return nil, err
	}

	p, err := confluentkafka.NewProducer(configMap)
	if err != nil {
		return nil, fmt.Errorf("creating Kafka producer: %w", err)
	}

	return newHandler(p, options...)
}

func newHandler(c client, options ...OptionFunc) (*Handler, error) {
	h := &Handler{
		client:       c,
		flushTimeout: defaultFlushTimeout,
		done:         make(chan struct{}),
	}
	for _, option := range options {
		if err := option(h); err != nil {
			c.Close()
			return nil, err
		}
	}

	go h.run()
	return h, nil
}

// ConfigMap returns the librdkafka configuration of a producer that never
// retries a failed send.
func ConfigMap(c sk.ProducerConfig) (*confluentkafka.ConfigMap, error) {
	acks, err := sk.ParseAcks(c.Acks)
	if err != nil {
		return nil, err
	}

	configMap := confluentkafka.ConfigMap{
		"bootstrap.servers": strings.Join(c.Addresses, ","),
		"partitioner":       "murmur2_random", // compatible to java client
		"acks":              acks,
		"retries":           0,
	}
	if v := c.ClientID; v != "" {
		configMap["client.id"] = v
	}
	if v := c.MaxRequestSize; v > 0 {
		configMap["message.max.bytes"] = v
	}
	if v := c.BatchSize; v > 0 {
		configMap["batch.size"] = v
	}
	if v := c.BatchTimeout; v > 0 {
		configMap["linger.ms"] = int(v / time.Millisecond)
	}
	if v := c.BufferMemory; v > 0 {
		configMap["queue.buffering.max.kbytes"] = v / 1024
	}
	return &configMap, nil
}

// run drains the events that are not delivery reports of a Send.
func (h *Handler) run() {
	defer close(h.done)

	for event := range h.client.Events() {
		switch ev := event.(type) {
		case confluentkafka.Error:
			if h.log != nil {
				h.log.Errorf("kafka error event: %v", ev)
			}
		default:
			if h.log != nil {
				h.log.Infof("ignoring event: %v", ev)
			}
		}
	}
}

// Send blocks until the delivery report of the record arrived.
func (h *Handler) Send(ctx context.Context, record sk.ProducerRecord) error {
	deliveryChan := make(chan confluentkafka.Event, 1)
	if err := h.client.Produce(newMessage(record), deliveryChan); err != nil {
		return fmt.Errorf("produce: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case ev := <-deliveryChan:
		msg, ok := ev.(*confluentkafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event: %v", ev)
		}
		if err := msg.TopicPartition.Error; err != nil {
			return fmt.Errorf("delivery error: %w", err)
		}
		return nil
	}
}

// Close flushes outstanding records and shuts down the producer.
func (h *Handler) Close() error {
	var retErr error
	h.closeOnce.Do(func() {
		if n := h.client.Flush(int(h.flushTimeout / time.Millisecond)); n > 0 {
			retErr = fmt.Errorf("flush: %d records not delivered", n)
		}
		h.client.Close()
		<-h.done
	})
	return retErr
}

func newMessage(r sk.ProducerRecord) *confluentkafka.Message {
	topic := r.Topic
	msg := &confluentkafka.Message{
		TopicPartition: confluentkafka.TopicPartition{
			Topic:     &topic,
			Partition: confluentkafka.PartitionAny,
		},
		Key:   r.KeyBytes(),
		Value: r.Value,
	}
	if len(r.Headers) > 0 {
		msg.Headers = make([]confluentkafka.Header, len(r.Headers))
		for i, h := range r.Headers {
			msg.Headers[i] = confluentkafka.Header{Key: h.Key, Value: h.Value}
		}
	}
	return msg
}
