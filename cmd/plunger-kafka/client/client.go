package client

import (
	"fmt"
	stdlog "log"
	"strings"

	"github.com/Shopify/sarama"
	log "github.com/sirupsen/logrus"

	sk "github.com/sko00o/plunger-kafka"
	confluentconsumer "github.com/sko00o/plunger-kafka/consumer/confluent"
	kafkagoconsumer "github.com/sko00o/plunger-kafka/consumer/kafkago"
	saramaconsumer "github.com/sko00o/plunger-kafka/consumer/sarama"
	confluentproducer "github.com/sko00o/plunger-kafka/producer/confluent"
	kafkagoproducer "github.com/sko00o/plunger-kafka/producer/kafkago"
	saramaproducer "github.com/sko00o/plunger-kafka/producer/sarama"
)

const (
	KafkaGo   = "kafka-go"
	Sarama    = "sarama"
	Confluent = "confluent"
)

// Names lists the supported clients, the first one is the default.
var Names = []string{KafkaGo, Sarama, Confluent}

// ConsumerFactory returns the constructor of the named client.
func ConsumerFactory(name, version string, logger *log.Logger) (sk.ConsumerFactory, error) {
	sLog := &SilentLogger{logger}

	switch strings.ToLower(name) {
	case "", KafkaGo:
		return func(c sk.ConsumerConfig) (sk.Consumer, error) {
			return kafkagoconsumer.New(c, kafkagoconsumer.WithLogger(sLog))
		}, nil
	case Sarama:
		routeSaramaLogger(logger)
		return func(c sk.ConsumerConfig) (sk.Consumer, error) {
			c.Version = version
			return saramaconsumer.New(c, saramaconsumer.WithLogger(sLog))
		}, nil
	case Confluent:
		return func(c sk.ConsumerConfig) (sk.Consumer, error) {
			return confluentconsumer.New(c, confluentconsumer.WithLogger(sLog))
		}, nil
	default:
		return nil, fmt.Errorf("unknown client %q, want one of %s", name, strings.Join(Names, ", "))
	}
}

// ProducerFactory returns the constructor of the named client.
func ProducerFactory(name, version string, logger *log.Logger) (sk.ProducerFactory, error) {
	sLog := &SilentLogger{logger}

	switch strings.ToLower(name) {
	case "", KafkaGo:
		return func(c sk.ProducerConfig) (sk.Producer, error) {
			return kafkagoproducer.New(c, kafkagoproducer.WithLogger(sLog))
		}, nil
	case Sarama:
		routeSaramaLogger(logger)
		return func(c sk.ProducerConfig) (sk.Producer, error) {
			c.Version = version
			return saramaproducer.New(c, saramaproducer.WithLogger(sLog))
		}, nil
	case Confluent:
		return func(c sk.ProducerConfig) (sk.Producer, error) {
			return confluentproducer.New(c, confluentproducer.WithLogger(sLog))
		}, nil
	default:
		return nil, fmt.Errorf("unknown client %q, want one of %s", name, strings.Join(Names, ", "))
	}
}

func routeSaramaLogger(logger *log.Logger) {
	sarama.Logger = stdlog.New(logger.WriterLevel(log.DebugLevel), "[sarama] ", 0)
}

type SilentLogger struct {
	*log.Logger
}

func (l SilentLogger) Infof(format string, v ...interface{}) {
	// NOTE: kafka client is verbose, we need to keep it quite
	l.Logger.Debugf(format, v...)
}
