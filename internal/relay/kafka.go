package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"tokenregistry/internal/chain"
)

// wireMessage is the Kafka record value of a relayed message.
type wireMessage struct {
	ID          uuid.UUID     `json:"id"`
	SourceChain uint64        `json:"source_chain"`
	Seq         uint64        `json:"seq"`
	Sender      chain.Address `json:"sender"`
	Target      chain.Address `json:"target"`
	Block       uint64        `json:"block"`
	Payload     []byte        `json:"payload"`
}

func encodeMessage(m chain.Message) ([]byte, error) {
	return json.Marshal(wireMessage(m))
}

func decodeMessage(b []byte) (chain.Message, error) {
	var w wireMessage
	if err := json.Unmarshal(b, &w); err != nil {
		return chain.Message{}, err
	}
	if w.ID != chain.MessageID(w.SourceChain, w.Seq) {
		return chain.Message{}, fmt.Errorf("message id %s does not match %d/%d", w.ID, w.SourceChain, w.Seq)
	}
	return chain.Message(w), nil
}

// KafkaSink publishes messages to a topic, keyed by source chain so they stay
// on one partition in order.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

func NewKafkaSink(client *kgo.Client, topic string) *KafkaSink {
	return &KafkaSink{client: client, topic: topic}
}

func (s *KafkaSink) Deliver(ctx context.Context, msg chain.Message) error {
	value, err := encodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	rec := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(strconv.FormatUint(msg.SourceChain, 10)),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "message_id", Value: []byte(msg.ID.String())},
		},
	}
	if err := s.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", s.topic, err)
	}
	return nil
}

const defaultPollTimeout = 500 * time.Millisecond

// KafkaSource reads messages published by a KafkaSink. The client must be
// created with kgo.ConsumeTopics for the topic and no consumer group: the
// relay checkpoint, not committed offsets, records progress, so the topic is
// read from the start on every boot and already-delivered messages are
// filtered out.
type KafkaSource struct {
	client      *kgo.Client
	pollTimeout time.Duration

	mu      sync.Mutex
	pending []chain.Message
}

func NewKafkaSource(client *kgo.Client) *KafkaSource {
	return &KafkaSource{client: client, pollTimeout: defaultPollTimeout}
}

// Fetch returns buffered messages after the given sequence, polling the topic
// for at most the poll timeout when the buffer cannot fill the batch.
func (s *KafkaSource) Fetch(ctx context.Context, after uint64, limit int) ([]chain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drop(after)
	if limit <= 0 || len(s.pending) < limit {
		if err := s.poll(ctx, after); err != nil {
			return nil, err
		}
	}

	out := s.pending
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return append([]chain.Message(nil), out...), nil
}

func (s *KafkaSource) poll(ctx context.Context, after uint64) error {
	pctx, cancel := context.WithTimeout(ctx, s.pollTimeout)
	defer cancel()

	fetches := s.client.PollFetches(pctx)
	if fetches.IsClientClosed() {
		return errors.New("kafka client closed")
	}
	for _, fe := range fetches.Errors() {
		if errors.Is(fe.Err, context.DeadlineExceeded) || errors.Is(fe.Err, context.Canceled) {
			continue
		}
		return fmt.Errorf("fetch %s/%d: %w", fe.Topic, fe.Partition, fe.Err)
	}

	var decodeErr error
	fetches.EachRecord(func(r *kgo.Record) {
		if decodeErr != nil {
			return
		}
		msg, err := decodeMessage(r.Value)
		if err != nil {
			decodeErr = fmt.Errorf("decode record at offset %d: %w", r.Offset, err)
			return
		}
		s.push(msg, after)
	})
	if decodeErr != nil {
		return decodeErr
	}
	return ctx.Err()
}

// push appends msg unless it is stale or a producer retry of a buffered one.
func (s *KafkaSource) push(msg chain.Message, after uint64) {
	last := after
	if n := len(s.pending); n > 0 {
		last = s.pending[n-1].Seq
	}
	if msg.Seq > last {
		s.pending = append(s.pending, msg)
	}
}

func (s *KafkaSource) drop(after uint64) {
	i := 0
	for i < len(s.pending) && s.pending[i].Seq <= after {
		i++
	}
	s.pending = s.pending[i:]
}
