package sarama

import (
	"github.com/Shopify/sarama"
	sk "github.com/sko00o/plunger-kafka"
)

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

func newProducerMessage(r sk.ProducerRecord) *sarama.ProducerMessage {
	msg := &sarama.ProducerMessage{
		Topic: r.Topic,
		Value: sarama.ByteEncoder(r.Value),
	}
	if r.Key != nil {
		msg.Key = sarama.StringEncoder(*r.Key)
	}
	if len(r.Headers) > 0 {
		msg.Headers = make([]sarama.RecordHeader, len(r.Headers))
		for i, h := range r.Headers {
			msg.Headers[i] = sarama.RecordHeader{Key: []byte(h.Key), Value: h.Value}
		}
	}
	return msg
}
