package sarama

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sk "github.com/sko00o/plunger-kafka"
)

func newMockProducer(t *testing.T) *mocks.SyncProducer {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	return mocks.NewSyncProducer(t, cfg)
}

func TestHandler_Send(t *testing.T) {
	p := newMockProducer(t)
	p.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "topic" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "k" {
			return errors.New("unexpected key " + string(key))
		}
		if len(msg.Headers) != 1 || string(msg.Headers[0].Key) != "h" {
			return errors.New("unexpected headers")
		}
		return nil
	})
	p.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Key != nil {
			return errors.New("key must be absent")
		}
		return nil
	})

	h := &Handler{producer: p}
	key := "k"
	require.NoError(t, h.Send(context.Background(), sk.ProducerRecord{
		Topic:   "topic",
		Key:     &key,
		Value:   []byte("v"),
		Headers: []sk.Header{{Key: "h", Value: []byte("1")}},
	}))
	require.NoError(t, h.Send(context.Background(), sk.ProducerRecord{Topic: "topic", Value: []byte("w")}))
	require.NoError(t, h.Close())
}

func TestHandler_SendError(t *testing.T) {
	p := newMockProducer(t)
	p.ExpectSendMessageAndFail(sarama.ErrNotEnoughReplicas)

	h := &Handler{producer: p}
	err := h.Send(context.Background(), sk.ProducerRecord{Topic: "topic", Value: []byte("v")})
	assert.ErrorIs(t, err, sarama.ErrNotEnoughReplicas)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = h.Send(ctx, sk.ProducerRecord{Topic: "topic"})
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, h.Close())
}

func TestNewProducerMessage(t *testing.T) {
	key := "k"
	msg := newProducerMessage(sk.ProducerRecord{
		Topic:   "topic",
		Key:     &key,
		Value:   []byte("v"),
		Headers: []sk.Header{{Key: "a", Value: []byte("1")}, {Key: "b", Value: []byte("2")}},
	})
	assert.Equal(t, &sarama.ProducerMessage{
		Topic: "topic",
		Key:   sarama.StringEncoder("k"),
		Value: sarama.ByteEncoder("v"),
		Headers: []sarama.RecordHeader{
			{Key: []byte("a"), Value: []byte("1")},
			{Key: []byte("b"), Value: []byte("2")},
		},
	}, msg)

	msg = newProducerMessage(sk.ProducerRecord{Topic: "topic"})
	assert.Nil(t, msg.Key)
	assert.Nil(t, msg.Headers)
}

func TestNewConfig(t *testing.T) {
	cfg, err := newConfig(sk.ProducerConfig{
		ClientID:       "client",
		Acks:           sk.AcksAll,
		MaxRequestSize: 2048,
		BatchTimeout:   time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
	assert.Equal(t, 0, cfg.Producer.Retry.Max)
	assert.Equal(t, 2048, cfg.Producer.MaxMessageBytes)
	assert.Equal(t, "client", cfg.ClientID)
	assert.Equal(t, DefaultVersion, cfg.Version)
	assert.True(t, cfg.Producer.Return.Successes)

	cfg, err = newConfig(sk.ProducerConfig{Acks: sk.AcksNone, Version: "0.11.0.0"})
	require.NoError(t, err)
	assert.Equal(t, sarama.NoResponse, cfg.Producer.RequiredAcks)
	assert.Equal(t, sarama.V0_11_0_0, cfg.Version)

	_, err = newConfig(sk.ProducerConfig{Acks: "2"})
	assert.Error(t, err)
	_, err = newConfig(sk.ProducerConfig{Acks: sk.AcksAll, Version: "x"})
	assert.Error(t, err)
}
