package kafka

import (
	"context"

	"github.com/sko00o/plunger-kafka/command"
	"github.com/sko00o/plunger-kafka/message"
)

// PutCommand writes messages to a topic on a Kafka broker.
type PutCommand struct {
	newProducer ProducerFactory
	log         Logger

	clientID string
	producer Producer
}

var _ command.Put = (*PutCommand)(nil)

func NewPutCommand(factory ProducerFactory, log Logger) *PutCommand {
	return &PutCommand{
		newProducer: factory,
		log:         log,
	}
}

func (p *PutCommand) Initialize(_ command.Arguments) error {
	p.clientID = ClientID(now())
	return nil
}

func (p *PutCommand) BeforeFirstMessage(_ context.Context, args command.Arguments) error {
	cfg, err := NewProducerConfig(args, p.clientID)
	if err != nil {
		return command.Errorf(err, "invalid configuration: %v", err)
	}
	p.log.Debugf("producer config: %+v", cfg)

	producer, err := p.newProducer(cfg)
	if err != nil {
		return command.Errorf(err, "failed creating producer: %v", err)
	}
	p.producer = producer
	return nil
}

// SendMessage sends msg and returns once the broker acknowledged it.
func (p *PutCommand) SendMessage(ctx context.Context, args command.Arguments, msg *message.Message, count int64) error {
	if p.producer == nil {
		return command.Errorf(nil, "producer is not connected")
	}

	record := ProducerRecord{
		Topic:   args.Target.Destination,
		Key:     messageKey(args.Target, msg),
		Value:   []byte(msg.Body),
		Headers: MessageHeaders(msg),
	}
	if err := p.producer.Send(ctx, record); err != nil {
		return command.Errorf(err, "failed sending record: %v", err)
	}
	p.log.Debugf("sent message %d to %s", count+1, record.Topic)
	return nil
}

func (p *PutCommand) Close() error {
	if p.producer == nil {
		return nil
	}
	producer := p.producer
	p.producer = nil
	p.log.Infof("stop publish")
	return producer.Close()
}
