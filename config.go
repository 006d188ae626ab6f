package kafka

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sko00o/plunger-kafka/command"
)

type ConsumerConfig struct {
	Addresses       []string `mapstructure:"addresses"`
	Topic           string   `mapstructure:"topic"`
	GroupID         string   `mapstructure:"group_id"`
	ClientID        string   `mapstructure:"client_id"`
	AutoOffsetReset string   `mapstructure:"auto_offset_reset"`

	MaxPollRecords int           `mapstructure:"max_poll_records"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
	// zero keeps the client default
	MaxPartitionFetchBytes int `mapstructure:"max_partition_fetch_bytes"`

	// sarama only
	Version string `mapstructure:"version"`
}

type ProducerConfig struct {
	Addresses []string `mapstructure:"addresses"`
	ClientID  string   `mapstructure:"client_id"`
	Acks      string   `mapstructure:"acks"`

	// zero keeps the client default
	MaxRequestSize int `mapstructure:"max_request_size"`

	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	BufferMemory int           `mapstructure:"buffer_memory"`

	// sarama only
	Version string `mapstructure:"version"`
}

// Scheme is the target scheme served by this package.
const Scheme = "kafka"

// Target parameters.
const (
	ParamAutoOffsetReset        = "autoOffsetReset"
	ParamTimeout                = "timeout"
	ParamMaxPollRecords         = "maxPollRecords"
	ParamMaxPartitionFetchBytes = "maxPartitionFetchBytes"
	ParamMaxRequestSize         = "maxRequestSize"
	ParamKey                    = "key"
)

const (
	OffsetResetEarliest = "earliest"
	OffsetResetLatest   = "latest"
	OffsetResetNone     = "none"

	AcksAll    = "all"
	AcksLeader = "1"
	AcksNone   = "0"
)

const (
	defaultPollTimeout    = time.Second
	defaultMaxPollRecords = 1
	defaultBatchSize      = 16384
	defaultBatchTimeout   = time.Millisecond
	defaultBufferMemory   = 32 << 20
)

// NewConsumerConfig builds the consumer configuration from the target parameters.
func NewConsumerConfig(args command.Arguments, clientID, groupID, autoOffsetReset string) (ConsumerConfig, error) {
	c := ConsumerConfig{
		Addresses:       args.Target.Hosts,
		Topic:           args.Target.Destination,
		GroupID:         groupID,
		ClientID:        clientID,
		AutoOffsetReset: autoOffsetReset,
		PollTimeout:     defaultPollTimeout,
	}

	var err error
	if c.MaxPollRecords, err = determineMaxPollRecords(args); err != nil {
		return c, err
	}
	if c.MaxPartitionFetchBytes, err = optionalInt(args.Target, ParamMaxPartitionFetchBytes); err != nil {
		return c, err
	}
	if v := strings.TrimSpace(args.Target.ParamValue(ParamTimeout)); v != "" {
		if c.PollTimeout, err = command.ParseDuration(v); err != nil {
			return c, fmt.Errorf("parameter %s: %w", ParamTimeout, err)
		}
		if c.PollTimeout <= 0 {
			return c, fmt.Errorf("parameter %s: must be positive", ParamTimeout)
		}
	}
	return c, nil
}

// NewProducerConfig builds the producer configuration from the target parameters.
func NewProducerConfig(args command.Arguments, clientID string) (ProducerConfig, error) {
	c := ProducerConfig{
		Addresses:    args.Target.Hosts,
		ClientID:     clientID,
		Acks:         AcksAll,
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
		BufferMemory: defaultBufferMemory,
	}
	if v := strings.TrimSpace(args.Acks); v != "" {
		c.Acks = v
	}
	if _, err := ParseAcks(c.Acks); err != nil {
		return c, err
	}

	var err error
	if c.MaxRequestSize, err = optionalInt(args.Target, ParamMaxRequestSize); err != nil {
		return c, err
	}
	return c, nil
}

// determineMaxPollRecords reads maxPollRecords (default 1) and reduces it
// to the message limit when that is smaller.
func determineMaxPollRecords(args command.Arguments) (int, error) {
	n := int64(defaultMaxPollRecords)
	if v := strings.TrimSpace(args.Target.ParamValue(ParamMaxPollRecords)); v != "" {
		var err error
		if n, err = strconv.ParseInt(v, 10, 32); err != nil {
			return 0, fmt.Errorf("parameter %s: %w", ParamMaxPollRecords, err)
		}
		if n < 1 {
			return 0, fmt.Errorf("parameter %s: must be positive, got %d", ParamMaxPollRecords, n)
		}
	}
	if args.HasLimit() && args.Limit < n {
		n = args.Limit
	}
	return int(n), nil
}

func optionalInt(t command.Target, name string) (int, error) {
	v := strings.TrimSpace(t.ParamValue(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %w", name, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("parameter %s: must be positive, got %d", name, n)
	}
	return int(n), nil
}

// ParseAutoOffsetReset validates the autoOffsetReset parameter.
func ParseAutoOffsetReset(v string) (string, error) {
	switch s := strings.ToLower(strings.TrimSpace(v)); s {
	case "":
		return OffsetResetEarliest, nil
	case OffsetResetEarliest, OffsetResetLatest, OffsetResetNone:
		return s, nil
	default:
		return "", fmt.Errorf("parameter %s: unsupported value %q", ParamAutoOffsetReset, v)
	}
}

// ParseAcks maps an acknowledgement level to the wire value: -1 (all), 1 (leader) or 0 (none).
func ParseAcks(v string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case AcksAll, "-1":
		return -1, nil
	case AcksLeader:
		return 1, nil
	case AcksNone:
		return 0, nil
	default:
		return 0, fmt.Errorf("acks: unsupported value %q", v)
	}
}
