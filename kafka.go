package kafka

//go:generate mockgen -source=kafka.go -destination=kafka_mock_test.go -package=kafka

import (
	"context"
	"time"
)

// Consumer is a single-topic consumer handle with manual offset commits.
type Consumer interface {
	// Poll waits up to timeout for records and returns at most max of them.
	// An empty result without error means no record arrived in time.
	Poll(ctx context.Context, timeout time.Duration, max int) ([]Record, error)
	// Commit synchronously commits the offsets of every record polled so far.
	Commit(ctx context.Context) error
	Unsubscribe() error
	Close() error
}

// Producer sends records and waits for the broker acknowledgement.
type Producer interface {
	Send(ctx context.Context, record ProducerRecord) error
	Close() error
}

type (
	ConsumerFactory func(c ConsumerConfig) (Consumer, error)
	ProducerFactory func(c ProducerConfig) (Producer, error)
)

type TimestampType int8

const (
	NoTimestampType TimestampType = -1
	CreateTime      TimestampType = 0
	LogAppendTime   TimestampType = 1
)

func (t TimestampType) String() string {
	switch t {
	case CreateTime:
		return "CreateTime"
	case LogAppendTime:
		return "LogAppendTime"
	default:
		return "NoTimestampType"
	}
}

type Header struct {
	Key   string
	Value []byte
}

// Record is a received record. A nil Key means the record has no key.
type Record struct {
	Topic         string
	Partition     int32
	Offset        int64
	Key           []byte
	Value         []byte
	Timestamp     time.Time
	TimestampType TimestampType
	Headers       []Header
}

// ProducerRecord is an outbound record. A nil Key sends without key.
type ProducerRecord struct {
	Topic   string
	Key     *string
	Value   []byte
	Headers []Header
}

func (r ProducerRecord) KeyBytes() []byte {
	if r.Key == nil {
		return nil
	}
	return []byte(*r.Key)
}
