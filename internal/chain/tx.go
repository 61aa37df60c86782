package chain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	dErrors "tokenregistry/pkg/domain-errors"
)

// ErrAddressInUse is returned when deploying over existing code.
var ErrAddressInUse = dErrors.Reason(dErrors.CodeInvalidState, "ContractAddressInUse")

// txState is shared by every call frame of one transaction.
type txState struct {
	ctx       context.Context
	chain     *Chain
	origin    Address
	block     uint64
	timestamp time.Time
	undo      []func()
	logs      []Log
	messages  []Message
}

func (s *txState) revert() {
	for i := len(s.undo) - 1; i >= 0; i-- {
		s.undo[i]()
	}
	s.undo = nil
	s.logs = nil
	s.messages = nil
}

// Tx is one call frame. Sender is the immediate caller.
type Tx struct {
	state  *txState
	sender Address
}

// Sender returns msg.sender for this frame.
func (t *Tx) Sender() Address { return t.sender }

// Origin returns the externally owned account that started the transaction.
func (t *Tx) Origin() Address { return t.state.origin }

// BlockNumber returns the block this transaction will commit in.
func (t *Tx) BlockNumber() uint64 { return t.state.block }

// Timestamp returns the block timestamp.
func (t *Tx) Timestamp() time.Time { return t.state.timestamp }

// ChainID returns the chain identifier.
func (t *Tx) ChainID() *big.Int { return t.state.chain.ChainID() }

// Context returns the context the transaction was submitted with.
func (t *Tx) Context() context.Context { return t.state.ctx }

// As opens a nested frame in which caller becomes msg.sender. Contracts use
// it when calling other contracts.
func (t *Tx) As(caller Address) *Tx {
	return &Tx{state: t.state, sender: caller}
}

// OnRevert registers an undo step.
func (t *Tx) OnRevert(undo func()) {
	t.state.undo = append(t.state.undo, undo)
}

// Emit records an event emitted by contract.
func (t *Tx) Emit(contract Address, ev Event) {
	t.state.logs = append(t.state.logs, Log{Address: contract, Event: ev})
}

// SendMessage queues an outbound cross-chain message from sender to target
// on the counterpart chain. The message only becomes visible once the
// transaction commits.
func (t *Tx) SendMessage(sender, target Address, payload []byte) {
	t.state.messages = append(t.state.messages, Message{
		Sender:  sender,
		Target:  target,
		Payload: append([]byte(nil), payload...),
	})
}

// CodeAt returns the contract at addr as seen inside the transaction.
func (t *Tx) CodeAt(addr Address) (any, bool) {
	code, ok := t.state.chain.code[addr]
	return code, ok
}

// CreateAddress returns the CREATE address for the frame's sender and bumps
// the sender's nonce.
func (t *Tx) CreateAddress() Address {
	nonces := t.state.chain.nonces
	nonce := nonces[t.sender]
	addr := crypto.CreateAddress(t.sender, nonce)
	SetMap(t, nonces, t.sender, nonce+1)
	return addr
}

// DeployAt installs contract code at addr. It fails if code already exists,
// which is how CREATE2 collisions surface. New contracts start at nonce 1.
func (t *Tx) DeployAt(addr Address, contract any) error {
	code := t.state.chain.code
	if _, exists := code[addr]; exists {
		return ErrAddressInUse
	}
	SetMap(t, code, addr, contract)
	SetMap(t, t.state.chain.nonces, addr, 1)
	return nil
}
