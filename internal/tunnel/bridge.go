package tunnel

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"tokenregistry/internal/chain"
	dErrors "tokenregistry/pkg/domain-errors"
)

// DefaultBridgeAddress is the system address relayed messages are applied
// from on each chain.
var DefaultBridgeAddress = common.HexToAddress("0x0000000000000000000000000000000000001001")

var (
	ErrDuplicate     = dErrors.Reason(dErrors.CodeConflict, "DuplicateMessage")
	ErrOutOfOrder    = dErrors.Reason(dErrors.CodeCrossChain, "OutOfOrderMessage")
	ErrUnknownSource = dErrors.Reason(dErrors.CodeCrossChain, "UnknownSourceChain")
	ErrUnknownTarget = dErrors.Reason(dErrors.CodeCrossChain, "UnknownTarget")

	ErrNoFailedMessage = dErrors.Reason(dErrors.CodeNotFound, "FailedMessageNotFound")
)

var transientCodes = []dErrors.Code{dErrors.CodePaused, dErrors.CodeTimeout, dErrors.CodeInternal}

// MessageReceiver is implemented by contracts that accept relayed messages.
type MessageReceiver interface {
	OnMessageReceived(tx *chain.Tx, sender chain.Address, payload []byte) error
}

type StateSynced struct {
	ID          string
	SourceChain uint64
	Seq         uint64
	Sender      chain.Address
	Target      chain.Address
}

func (StateSynced) EventName() string { return "StateSynced" }

// MessageFailed records a message whose sequence number was consumed without
// effect. Reason is the rejection's protocol reason.
type MessageFailed struct {
	ID          string
	SourceChain uint64
	Seq         uint64
	Sender      chain.Address
	Target      chain.Address
	Reason      string
}

func (MessageFailed) EventName() string { return "MessageFailed" }

// Bridge is the inbox of one chain for messages from one source chain. It
// applies messages strictly in sequence order, each in its own transaction
// together with the inbox mark, so a message that fails transiently can be
// delivered again.
type Bridge struct {
	chain       *chain.Chain
	address     chain.Address
	sourceChain uint64
	applied     uint64
	failed      map[uint64]chain.Message
	logger      *slog.Logger
}

type BridgeOption func(*Bridge)

func WithBridgeLogger(logger *slog.Logger) BridgeOption {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithBridgeAddress overrides DefaultBridgeAddress.
func WithBridgeAddress(addr chain.Address) BridgeOption {
	return func(b *Bridge) {
		b.address = addr
	}
}

// DeployBridge installs the inbox on c for messages from sourceChain.
func DeployBridge(ctx context.Context, c *chain.Chain, sourceChain uint64, opts ...BridgeOption) (*Bridge, error) {
	b := &Bridge{
		chain:       c,
		address:     DefaultBridgeAddress,
		sourceChain: sourceChain,
		failed:      make(map[uint64]chain.Message),
	}
	for _, opt := range opts {
		opt(b)
	}
	_, err := c.Execute(ctx, b.address, func(tx *chain.Tx) error {
		return tx.DeployAt(b.address, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bridge) Address() chain.Address { return b.address }
func (b *Bridge) SourceChain() uint64    { return b.sourceChain }

// Applied returns the sequence number of the last applied message.
func (b *Bridge) Applied() uint64 {
	var seq uint64
	b.chain.Read(func() { seq = b.applied })
	return seq
}

// Deliver applies msg. Already-applied messages return ErrDuplicate and
// change nothing; a gap in the sequence returns ErrOutOfOrder.
//
// A message the target rejects for a protocol reason consumes its sequence
// number: it is stored as failed, MessageFailed is emitted and Deliver
// returns nil so later messages on the route still apply. Transient
// rejections (see Permanent) leave the inbox untouched and are returned.
func (b *Bridge) Deliver(ctx context.Context, msg chain.Message) error {
	var rejected error
	_, err := b.chain.Execute(ctx, b.address, func(tx *chain.Tx) error {
		if err := b.next(msg); err != nil {
			return err
		}
		chain.Set(tx, &b.applied, msg.Seq)
		if err := b.apply(tx, msg); err != nil {
			rejected = err
			return err
		}
		return nil
	})
	if err != nil {
		if rejected == nil || !Permanent(rejected) {
			return err
		}
		return b.fail(ctx, msg, rejected)
	}
	if b.logger != nil {
		b.logger.InfoContext(ctx, "message applied",
			"chain", b.chain.Name(),
			"source_chain", msg.SourceChain,
			"seq", msg.Seq,
			"message_id", msg.ID,
		)
	}
	return nil
}

// Retry applies a failed message again. On success it leaves the failed set;
// otherwise it stays there and the error is returned.
func (b *Bridge) Retry(ctx context.Context, seq uint64) error {
	_, err := b.chain.Execute(ctx, b.address, func(tx *chain.Tx) error {
		msg, ok := b.failed[seq]
		if !ok {
			return ErrNoFailedMessage
		}
		chain.DeleteMap(tx, b.failed, seq)
		return b.apply(tx, msg)
	})
	if err != nil {
		return err
	}
	if b.logger != nil {
		b.logger.InfoContext(ctx, "failed message applied",
			"chain", b.chain.Name(),
			"source_chain", b.sourceChain,
			"seq", seq,
		)
	}
	return nil
}

// Failed returns the messages awaiting Retry in sequence order.
func (b *Bridge) Failed() []chain.Message {
	var out []chain.Message
	b.chain.Read(func() {
		out = make([]chain.Message, 0, len(b.failed))
		for _, msg := range b.failed {
			out = append(out, msg)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Permanent reports whether a rejection will recur however often the message
// is delivered. Pauses, timeouts and uncoded errors are transient.
func Permanent(err error) bool {
	var e *dErrors.Error
	if !errors.As(err, &e) {
		return false
	}
	for _, code := range transientCodes {
		if dErrors.HasCode(err, code) {
			return false
		}
	}
	return true
}

func (b *Bridge) next(msg chain.Message) error {
	if msg.SourceChain != b.sourceChain {
		return ErrUnknownSource
	}
	if msg.Seq <= b.applied {
		return ErrDuplicate
	}
	if msg.Seq != b.applied+1 {
		return ErrOutOfOrder
	}
	return nil
}

func (b *Bridge) apply(tx *chain.Tx, msg chain.Message) error {
	code, ok := tx.CodeAt(msg.Target)
	if !ok {
		return ErrUnknownTarget
	}
	receiver, ok := code.(MessageReceiver)
	if !ok {
		return ErrUnknownTarget
	}
	tx.Emit(b.address, StateSynced{
		ID:          msg.ID.String(),
		SourceChain: msg.SourceChain,
		Seq:         msg.Seq,
		Sender:      msg.Sender,
		Target:      msg.Target,
	})
	return receiver.OnMessageReceived(tx, msg.Sender, msg.Payload)
}

func (b *Bridge) fail(ctx context.Context, msg chain.Message, cause error) error {
	_, err := b.chain.Execute(ctx, b.address, func(tx *chain.Tx) error {
		if err := b.next(msg); err != nil {
			return err
		}
		chain.Set(tx, &b.applied, msg.Seq)
		chain.SetMap(tx, b.failed, msg.Seq, msg)
		tx.Emit(b.address, MessageFailed{
			ID:          msg.ID.String(),
			SourceChain: msg.SourceChain,
			Seq:         msg.Seq,
			Sender:      msg.Sender,
			Target:      msg.Target,
			Reason:      dErrors.ReasonOf(cause),
		})
		return nil
	})
	if err != nil {
		return err
	}
	if b.logger != nil {
		b.logger.WarnContext(ctx, "message rejected",
			"chain", b.chain.Name(),
			"source_chain", msg.SourceChain,
			"seq", msg.Seq,
			"message_id", msg.ID,
			"error", cause,
		)
	}
	return nil
}
