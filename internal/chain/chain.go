// Package chain is a single-writer ledger that reproduces the execution
// guarantees the protocol contracts depend on: serialized transactions,
// whole-transaction rollback, call frames with msg.sender semantics, typed
// event logs and an ordered outbox of cross-chain messages.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	dErrors "tokenregistry/pkg/domain-errors"
)

// EventSink observes committed logs. Sinks run while the chain lock is held so
// they see logs in commit order; they must not call back into the chain.
type EventSink interface {
	Consume(ctx context.Context, logs []Log)
}

// Config identifies a chain.
type Config struct {
	ChainID *big.Int
	Name    string
}

// Chain holds all contract state for one ledger.
type Chain struct {
	mu sync.Mutex

	chainID *big.Int
	name    string
	clock   func() time.Time
	logger  *slog.Logger

	block   uint64
	nonces  map[Address]uint64
	code    map[Address]any
	logs    []Log
	outbox  []Message
	nextSeq uint64
	sinks   []EventSink
}

type Option func(*Chain)

func WithClock(clock func() time.Time) Option {
	return func(c *Chain) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		c.logger = logger
	}
}

func WithEventSink(sink EventSink) Option {
	return func(c *Chain) {
		if sink != nil {
			c.sinks = append(c.sinks, sink)
		}
	}
}

// New constructs an empty chain at block 0.
func New(cfg Config, opts ...Option) *Chain {
	chainID := cfg.ChainID
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	c := &Chain{
		chainID: new(big.Int).Set(chainID),
		name:    cfg.Name,
		clock:   time.Now,
		nonces:  make(map[Address]uint64),
		code:    make(map[Address]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChainID returns a copy of the chain identifier.
func (c *Chain) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

// Name returns the configured display name.
func (c *Chain) Name() string { return c.name }

// AddSink registers an additional event sink.
func (c *Chain) AddSink(sink EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, sink)
}

// Execute runs fn as one transaction sent by sender. If fn returns an error
// or panics, every journaled mutation, pending log and pending message is
// discarded and the error is returned.
func (c *Chain) Execute(ctx context.Context, sender Address, fn func(tx *Tx) error) (rcpt *Receipt, err error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st := &txState{
		ctx:       ctx,
		chain:     c,
		origin:    sender,
		block:     c.block + 1,
		timestamp: c.clock(),
	}
	tx := &Tx{state: st, sender: sender}

	defer func() {
		if r := recover(); r != nil {
			st.revert()
			rcpt = nil
			err = dErrors.New(dErrors.CodeInternal, fmt.Sprintf("transaction panicked: %v", r))
		}
	}()

	if err := fn(tx); err != nil {
		st.revert()
		if c.logger != nil {
			c.logger.DebugContext(ctx, "transaction reverted",
				"chain", c.name,
				"sender", sender,
				"reason", dErrors.ReasonOf(err),
				"error", err,
			)
		}
		return nil, err
	}

	return c.commit(ctx, st), nil
}

func (c *Chain) commit(ctx context.Context, st *txState) *Receipt {
	c.block = st.block
	chainID := c.chainID.Uint64()

	logs := make([]Log, len(st.logs))
	for i, l := range st.logs {
		l.ChainID = chainID
		l.Block = st.block
		l.Index = uint(i)
		l.Timestamp = st.timestamp
		logs[i] = l
	}
	c.logs = append(c.logs, logs...)

	msgs := make([]Message, len(st.messages))
	for i, m := range st.messages {
		c.nextSeq++
		m.SourceChain = chainID
		m.Seq = c.nextSeq
		m.ID = MessageID(chainID, m.Seq)
		m.Block = st.block
		msgs[i] = m
	}
	c.outbox = append(c.outbox, msgs...)

	if len(logs) > 0 {
		for _, sink := range c.sinks {
			sink.Consume(ctx, logs)
		}
	}
	return &Receipt{Block: st.block, Logs: logs, Messages: msgs}
}

// Call runs fn like Execute against the latest state and then discards every
// effect, as eth_call does. It is the way to read contract views.
func (c *Chain) Call(ctx context.Context, sender Address, fn func(tx *Tx) error) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := &txState{
		ctx:       ctx,
		chain:     c,
		origin:    sender,
		block:     c.block + 1,
		timestamp: c.clock(),
	}
	defer func() {
		st.revert()
		if r := recover(); r != nil {
			err = dErrors.New(dErrors.CodeInternal, fmt.Sprintf("call panicked: %v", r))
		}
	}()
	return fn(&Tx{state: st, sender: sender})
}

// Read runs fn under the chain lock for consistent views of contract state.
func (c *Chain) Read(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// BlockNumber returns the last committed block.
func (c *Chain) BlockNumber() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block
}

// CodeAt returns the contract deployed at addr, if any.
func (c *Chain) CodeAt(addr Address) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	code, ok := c.code[addr]
	return code, ok
}

// Logs returns a copy of all committed logs.
func (c *Chain) Logs() []Log {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Log(nil), c.logs...)
}

// MessagesAfter returns up to limit committed outbound messages with a
// sequence number greater than after, in order. limit <= 0 means no limit.
func (c *Chain) MessagesAfter(after uint64, limit int) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Seq n lives at index n-1.
	if after >= uint64(len(c.outbox)) {
		return nil
	}
	out := c.outbox[after:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	res := make([]Message, len(out))
	for i, m := range out {
		m.Payload = append([]byte(nil), m.Payload...)
		res[i] = m
	}
	return res
}
