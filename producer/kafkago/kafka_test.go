package kafkago

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sk "github.com/sko00o/plunger-kafka"
)

type fakeWriter struct {
	written []kafka.Message
	err     error
	closed  bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestHandler_Send(t *testing.T) {
	w := &fakeWriter{}
	h := &Handler{writer: w}
	key := "k"

	require.NoError(t, h.Send(context.Background(), sk.ProducerRecord{
		Topic:   "topic",
		Key:     &key,
		Value:   []byte("v"),
		Headers: []sk.Header{{Key: "h", Value: []byte("1")}},
	}))
	require.NoError(t, h.Send(context.Background(), sk.ProducerRecord{Topic: "topic", Value: []byte("w")}))

	require.Len(t, w.written, 2)
	assert.Equal(t, kafka.Message{
		Topic:   "topic",
		Key:     []byte("k"),
		Value:   []byte("v"),
		Headers: []kafka.Header{{Key: "h", Value: []byte("1")}},
	}, w.written[0])
	assert.Nil(t, w.written[1].Key)
	assert.Nil(t, w.written[1].Headers)

	require.NoError(t, h.Close())
	assert.True(t, w.closed)
}

func TestHandler_SendError(t *testing.T) {
	w := &fakeWriter{err: kafka.NotEnoughReplicas}
	h := &Handler{writer: w}

	err := h.Send(context.Background(), sk.ProducerRecord{Topic: "topic"})
	assert.True(t, errors.Is(err, kafka.NotEnoughReplicas))
}

func TestNew(t *testing.T) {
	_, err := New(sk.ProducerConfig{Addresses: []string{"localhost:9092"}, Acks: "some"})
	assert.Error(t, err)

	h, err := New(sk.ProducerConfig{
		Addresses:      []string{"localhost:9092"},
		ClientID:       "client",
		Acks:           sk.AcksLeader,
		MaxRequestSize: 2048,
		BatchTimeout:   time.Millisecond,
	})
	require.NoError(t, err)

	w, ok := h.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
	assert.Equal(t, 1, w.MaxAttempts)
	assert.Equal(t, 1, w.BatchSize)
	assert.Equal(t, int64(2048), w.BatchBytes)
	assert.Equal(t, time.Millisecond, w.BatchTimeout)
	assert.NoError(t, h.Close())
}
