package kafkago

import (
	"context"

	"github.com/segmentio/kafka-go"
	sk "github.com/sko00o/plunger-kafka"
)

type Writer interface {
	Close() error
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Logger interface {
	Infof(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

type OptionFunc func(*Handler) error

func WithLogger(log Logger) OptionFunc {
	return func(h *Handler) error {
		h.log = log
		return nil
	}
}

func newMessage(r sk.ProducerRecord) kafka.Message {
	msg := kafka.Message{
		Topic: r.Topic,
		Key:   r.KeyBytes(),
		Value: r.Value,
	}
	if len(r.Headers) > 0 {
		msg.Headers = make([]kafka.Header, len(r.Headers))
		for i, h := range r.Headers {
			msg.Headers[i] = kafka.Header{Key: h.Key, Value: h.Value}
		}
	}
	return msg
}
