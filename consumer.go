package kafka

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/sko00o/plunger-kafka/command"
	"github.com/sko00o/plunger-kafka/message"
)

type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

var now = time.Now

type sessionState int

const (
	// stateEmpty needs a poll before the next record can be returned.
	stateEmpty sessionState = iota
	// stateHasBatch has the record at cursor ready.
	stateHasBatch
)

// CatCommand retrieves messages from a Kafka topic.
type CatCommand struct {
	newConsumer ConsumerFactory
	log         Logger

	clientID          string
	groupID           string
	autoOffsetReset   string
	commit            bool
	excludeProperties bool

	config   ConsumerConfig
	consumer Consumer

	state  sessionState
	batch  []Record
	cursor int
}

var _ command.Cat = (*CatCommand)(nil)

func NewCatCommand(factory ConsumerFactory, log Logger) *CatCommand {
	return &CatCommand{
		newConsumer: factory,
		log:         log,
	}
}

func (c *CatCommand) Initialize(args command.Arguments) error {
	c.clientID = ClientID(now())
	c.groupID = GroupID(args.Target)
	reset, err := ParseAutoOffsetReset(args.Target.ParamValue(ParamAutoOffsetReset))
	if err != nil {
		return command.Errorf(err, "invalid configuration: %v", err)
	}
	c.autoOffsetReset = reset
	c.commit = args.Commit
	c.excludeProperties = args.ExcludeProperties
	return nil
}

func (c *CatCommand) BeforeFirstMessage(_ context.Context, args command.Arguments) error {
	cfg, err := NewConsumerConfig(args, c.clientID, c.groupID, c.autoOffsetReset)
	if err != nil {
		return command.Errorf(err, "invalid configuration: %v", err)
	}
	c.log.Debugf("consumer config: %+v", cfg)

	consumer, err := c.newConsumer(cfg)
	if err != nil {
		return command.Errorf(err, "failed creating consumer: %v", err)
	}
	c.config = cfg
	c.consumer = consumer
	c.state = stateEmpty
	return nil
}

// NextMessage returns the next record of the current batch, polling a new
// batch when the current one is used up. When commits are enabled the
// offsets are committed right after the last record of a batch.
func (c *CatCommand) NextMessage(ctx context.Context, _ command.Arguments) (*message.Message, error) {
	if c.consumer == nil {
		return nil, command.Errorf(nil, "consumer is not connected")
	}

	if c.state == stateEmpty {
		records, err := c.consumer.Poll(ctx, c.config.PollTimeout, c.config.MaxPollRecords)
		if err != nil {
			return nil, command.Errorf(err, "failed polling records: %v", err)
		}
		if len(records) == 0 {
			return nil, nil
		}
		c.batch = records
		c.cursor = 0
		c.state = stateHasBatch
		c.log.Debugf("polled %d records", len(records))
	}

	record := c.batch[c.cursor]
	c.cursor++
	msg := RecordToMessage(record, c.excludeProperties)

	if c.cursor >= len(c.batch) {
		c.batch = nil
		c.cursor = 0
		c.state = stateEmpty
		if c.commit {
			if err := c.consumer.Commit(ctx); err != nil {
				return nil, command.Errorf(err, "failed committing offsets: %v", err)
			}
			c.log.Debugf("committed offsets up to partition %d offset %d", record.Partition, record.Offset)
		}
	}
	return msg, nil
}

func (c *CatCommand) IsSystemHeader(name string) bool {
	return IsSystemHeader(name)
}

func (c *CatCommand) Close() error {
	if c.consumer == nil {
		return nil
	}
	consumer := c.consumer
	c.consumer = nil
	c.batch = nil
	c.state = stateEmpty

	var errs error
	if err := consumer.Unsubscribe(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := consumer.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	c.log.Infof("stop consume")
	return errs
}
