package sarama

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/hashicorp/go-multierror"

	sk "github.com/sko00o/plunger-kafka"
)

const (
	defaultLinger = 10 * time.Millisecond
	retryBackoff  = time.Second
)

// DefaultVersion is the lowest protocol version that carries record headers
// and the one used when no version is configured.
var DefaultVersion = sarama.V2_1_0_0

type delivery struct {
	sess sarama.ConsumerGroupSession
	msg  *sarama.ConsumerMessage
}

type Handler struct {
	ctx        context.Context
	cancel     context.CancelFunc
	client     sarama.Client
	group      sarama.ConsumerGroup
	committer  offsetCommitter
	topics     []string
	deliveries chan delivery
	errs       <-chan error
	done       chan struct{}
	pending    []delivery
	linger     time.Duration
	closed     bool
	log        Logger
}

var _ sk.Consumer = (*Handler)(nil)

func New(c sk.ConsumerConfig, options ...OptionFunc) (*Handler, error) {
	if c.GroupID == "" {
		return nil, errors.New("group_id is empty")
	}
	if c.Topic == "" {
		return nil, errors.New("topic is empty")
	}

	cfg := sarama.NewConfig()
	cfg.Version = DefaultVersion
	if v := c.Version; v != "" {
		version, err := sarama.ParseKafkaVersion(v)
		if err != nil {
			return nil, fmt.Errorf("set kafka version %s: %w", v, err)
		}
		cfg.Version = version
	}
	if v := c.ClientID; v != "" {
		cfg.ClientID = v
	}

	// offsets are only committed by Commit
	cfg.Consumer.Offsets.AutoCommit.Enable = false
	switch c.AutoOffsetReset {
	case sk.OffsetResetNone:
		return nil, errors.New("auto offset reset none is not supported by sarama")
	case sk.OffsetResetLatest:
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	default:
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
	if v := c.MaxPartitionFetchBytes; v > 0 {
		cfg.Consumer.Fetch.Default = int32(v)
	}
	if v := c.MaxPollRecords; v > 0 {
		cfg.ChannelBufferSize = v
	}
	cfg.Consumer.Return.Errors = true

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	client, err := sarama.NewClient(c.Addresses, cfg)
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	group, err := sarama.NewConsumerGroupFromClient(c.GroupID, client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("new consumer group: %w", err)
	}

	committer := &coordinatorCommitter{client: client, groupID: c.GroupID}
	h, err := newHandler(group, committer, []string{c.Topic}, options...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	h.client = client
	return h, nil
}

func newHandler(group sarama.ConsumerGroup, committer offsetCommitter, topics []string, options ...OptionFunc) (*Handler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handler{
		ctx:        ctx,
		cancel:     cancel,
		group:      group,
		committer:  committer,
		topics:     topics,
		deliveries: make(chan delivery),
		errs:       group.Errors(),
		done:       make(chan struct{}),
		linger:     defaultLinger,
	}
	for _, option := range options {
		if err := option(h); err != nil {
			cancel()
			_ = group.Close()
			return nil, err
		}
	}

	go h.run()
	return h, nil
}

func (h *Handler) run() {
	defer close(h.done)

	handler := &consumeHandler{deliveries: h.deliveries}
	for {
		if err := h.group.Consume(h.ctx, h.topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) ||
				errors.Is(err, context.Canceled) {
				// reader closed
				return
			}

			if h.log != nil {
				h.log.Errorf("consume: %v", err)
			}
			select {
			case <-h.ctx.Done():
				return
			case <-time.After(retryBackoff):
			}
		}
		if h.ctx.Err() != nil {
			return
		}
	}
}

// Poll waits up to timeout for the first message and at most the linger
// time for each further one.
func (h *Handler) Poll(ctx context.Context, timeout time.Duration, max int) ([]sk.Record, error) {
	if max < 1 {
		max = 1
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	wait := timer.C

	records := make([]sk.Record, 0, max)
	for len(records) < max {
		select {
		case d := <-h.deliveries:
			h.pending = append(h.pending, d)
			records = append(records, newRecord(d.msg))
			if len(records) == 1 {
				linger := time.NewTimer(h.linger)
				defer linger.Stop()
				wait = linger.C
			}
		case err, ok := <-h.errs:
			if !ok {
				h.errs = nil
				continue
			}
			if len(records) > 0 {
				if h.log != nil {
					h.log.Errorf("consumer group: %v", err)
				}
				return records, nil
			}
			return nil, fmt.Errorf("consumer group: %w", err)
		case <-wait:
			return records, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return records, nil
}

// Commit marks every message handed out since the last commit and writes
// the next offsets to the group coordinator, waiting for its answer.
func (h *Handler) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(h.pending) == 0 {
		return nil
	}

	var sessions []sarama.ConsumerGroupSession
	offsets := make(map[sarama.ConsumerGroupSession]map[string]map[int32]int64)
	for _, d := range h.pending {
		d.sess.MarkMessage(d.msg, "")

		topics, ok := offsets[d.sess]
		if !ok {
			topics = make(map[string]map[int32]int64)
			offsets[d.sess] = topics
			sessions = append(sessions, d.sess)
		}
		partitions, ok := topics[d.msg.Topic]
		if !ok {
			partitions = make(map[int32]int64)
			topics[d.msg.Topic] = partitions
		}
		if next := d.msg.Offset + 1; next > partitions[d.msg.Partition] {
			partitions[d.msg.Partition] = next
		}
	}
	h.pending = h.pending[:0]

	var errs *multierror.Error
	for _, sess := range sessions {
		if err := h.committer.CommitOffsets(sess, offsets[sess]); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("commit offsets: %w", err)
	}
	return nil
}

// Unsubscribe stops the group session and drops uncommitted messages.
func (h *Handler) Unsubscribe() error {
	h.cancel()
	h.pending = nil
	return nil
}

// Close leaves the group and reports any group error nobody polled for.
func (h *Handler) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.cancel()

	var errs *multierror.Error
	for drained := false; !drained && h.errs != nil; {
		select {
		case err, ok := <-h.errs:
			if !ok {
				drained = true
				continue
			}
			errs = multierror.Append(errs, fmt.Errorf("consumer group: %w", err))
		default:
			drained = true
		}
	}

	if err := h.group.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("close consumer group: %w", err))
	}
	<-h.done
	if h.client != nil {
		if err := h.client.Close(); err != nil && !errors.Is(err, sarama.ErrClosedClient) {
			errs = multierror.Append(errs, fmt.Errorf("close client: %w", err))
		}
	}
	return errs.ErrorOrNil()
}

type offsetCommitter interface {
	CommitOffsets(sess sarama.ConsumerGroupSession, offsets map[string]map[int32]int64) error
}

// coordinatorCommitter sends the offset commit straight to the group
// coordinator so a rejected commit is seen by the caller.
type coordinatorCommitter struct {
	client  sarama.Client
	groupID string
}

func (c *coordinatorCommitter) CommitOffsets(sess sarama.ConsumerGroupSession, offsets map[string]map[int32]int64) error {
	broker, err := c.client.Coordinator(c.groupID)
	if err != nil {
		return fmt.Errorf("find coordinator: %w", err)
	}

	req := &sarama.OffsetCommitRequest{
		Version:                 2,
		ConsumerGroup:           c.groupID,
		ConsumerGroupGeneration: sess.GenerationID(),
		ConsumerID:              sess.MemberID(),
		RetentionTime:           -1,
	}
	for topic, partitions := range offsets {
		for partition, offset := range partitions {
			req.AddBlock(topic, partition, offset, -1, 0, "")
		}
	}

	resp, err := broker.CommitOffset(req)
	if err != nil {
		_ = c.client.RefreshCoordinator(c.groupID)
		return err
	}
	return commitResponseError(resp)
}

func commitResponseError(resp *sarama.OffsetCommitResponse) error {
	var errs *multierror.Error
	for topic, partitions := range resp.Errors {
		for partition, kerr := range partitions {
			if kerr != sarama.ErrNoError {
				errs = multierror.Append(errs, fmt.Errorf("%s/%d: %w", topic, partition, kerr))
			}
		}
	}
	return errs.ErrorOrNil()
}

type consumeHandler struct {
	deliveries chan<- delivery
}

func (consumeHandler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (consumeHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }
func (h consumeHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			select {
			case h.deliveries <- delivery{sess: sess, msg: msg}:
			case <-sess.Context().Done():
				return nil
			}
		case <-sess.Context().Done():
			return nil
		}
	}
}

func newRecord(msg *sarama.ConsumerMessage) sk.Record {
	r := sk.Record{
		Topic:         msg.Topic,
		Partition:     msg.Partition,
		Offset:        msg.Offset,
		Key:           msg.Key,
		Value:         msg.Value,
		TimestampType: sk.NoTimestampType,
	}
	// sarama does not expose the timestamp type
	if !msg.Timestamp.IsZero() {
		r.Timestamp = msg.Timestamp
		r.TimestampType = sk.CreateTime
	}
	for _, h := range msg.Headers {
		if h == nil {
			continue
		}
		r.Headers = append(r.Headers, sk.Header{Key: string(h.Key), Value: h.Value})
	}
	return r
}
