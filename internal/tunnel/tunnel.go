// Package tunnel moves document tokens between a root and a child chain.
//
// A token leaving a chain is locked in that chain's tunnel before the
// message authorizing its release on the other side is sent, so it is never
// spendable on both chains. Messages are delivered by a Bridge, which is the
// only sender a tunnel accepts them from.
package tunnel

import (
	"tokenregistry/internal/chain"
	"tokenregistry/internal/registry"
	dErrors "tokenregistry/pkg/domain-errors"
)

var (
	ErrInvalidSender         = dErrors.Reason(dErrors.CodeCrossChain, "InvalidSender")
	ErrCounterpartNotSet     = dErrors.Reason(dErrors.CodeCrossChain, "CounterpartNotSet")
	ErrCounterpartAlreadySet = dErrors.Reason(dErrors.CodeInvalidState, "CounterpartAlreadySet")
	ErrCallerNotOwner        = dErrors.Reason(dErrors.CodeUnauthorized, "CallerNotOwner")
	ErrUnknownMessageType    = dErrors.Reason(dErrors.CodeCrossChain, "UnknownMessageType")
	ErrZeroAddress           = dErrors.Reason(dErrors.CodeValidation, "ZeroAddress")
)

type CounterpartSet struct {
	Counterpart chain.Address
}

func (CounterpartSet) EventName() string { return "CounterpartSet" }

// TokenLocked is emitted when a token leaves this chain.
type TokenLocked struct {
	Kind    string
	Account chain.Address
	TokenID chain.TokenID
	Data    []byte
}

func (TokenLocked) EventName() string { return "TokenLocked" }

// TokenReleased is emitted when a relayed message brings a token in.
type TokenReleased struct {
	Kind        string
	Account     chain.Address
	TokenID     chain.TokenID
	TitleEscrow chain.Address
	SourceToken chain.Address
}

func (TokenReleased) EventName() string { return "TokenReleased" }

// tunnel is the state shared by both sides.
type tunnel struct {
	address     chain.Address
	owner       chain.Address
	bridge      chain.Address
	counterpart chain.Address
	registry    *registry.Registry

	outbound chain.Hash
	inbound  chain.Hash
}

func newTunnel(tx *chain.Tx, reg *registry.Registry, bridge chain.Address, outbound, inbound chain.Hash) (*tunnel, error) {
	if reg == nil || bridge == chain.ZeroAddress {
		return nil, ErrZeroAddress
	}
	return &tunnel{
		address:  tx.CreateAddress(),
		owner:    tx.Sender(),
		bridge:   bridge,
		registry: reg,
		outbound: outbound,
		inbound:  inbound,
	}, nil
}

func (t *tunnel) Address() chain.Address       { return t.address }
func (t *tunnel) Owner() chain.Address         { return t.owner }
func (t *tunnel) Bridge() chain.Address        { return t.bridge }
func (t *tunnel) Counterpart() chain.Address   { return t.counterpart }
func (t *tunnel) Registry() *registry.Registry { return t.registry }

// SetCounterpart links this tunnel to its peer on the other chain. Only the
// deployer may call it, once.
func (t *tunnel) SetCounterpart(tx *chain.Tx, counterpart chain.Address) error {
	if tx.Sender() != t.owner {
		return ErrCallerNotOwner
	}
	if t.counterpart != chain.ZeroAddress {
		return ErrCounterpartAlreadySet
	}
	if counterpart == chain.ZeroAddress {
		return ErrZeroAddress
	}
	chain.Set(tx, &t.counterpart, counterpart)
	tx.Emit(t.address, CounterpartSet{Counterpart: counterpart})
	return nil
}

// send locks tokenID in the tunnel and queues the message releasing it on
// the other chain. The caller must be the sole owner of the token's escrow.
func (t *tunnel) send(tx *chain.Tx, tokenID chain.TokenID, data []byte) error {
	if t.counterpart == chain.ZeroAddress {
		return ErrCounterpartNotSet
	}
	account := tx.Sender()
	if err := t.registry.Withdraw(tx.As(t.address), account, tokenID); err != nil {
		return err
	}
	payload := Payload{
		Kind:    t.outbound,
		Token:   t.registry.Address(),
		Account: account,
		TokenID: tokenID,
		Data:    data,
	}
	tx.SendMessage(t.address, t.counterpart, payload.Encode())
	tx.Emit(t.address, TokenLocked{Kind: KindName(t.outbound), Account: account, TokenID: tokenID, Data: data})
	return nil
}

// OnMessageReceived applies a relayed message. It accepts only calls from the
// bridge carrying messages sent by the counterpart.
func (t *tunnel) OnMessageReceived(tx *chain.Tx, sender chain.Address, payload []byte) error {
	if tx.Sender() != t.bridge {
		return ErrInvalidSender
	}
	if t.counterpart == chain.ZeroAddress || sender != t.counterpart {
		return ErrInvalidSender
	}
	p, err := DecodePayload(payload)
	if err != nil {
		return ErrUnknownMessageType.Because(err)
	}
	if p.Kind != t.inbound {
		return ErrUnknownMessageType
	}
	escrow, err := t.registry.Deposit(tx.As(t.address), p.Account, p.TokenID)
	if err != nil {
		return err
	}
	tx.Emit(t.address, TokenReleased{
		Kind:        KindName(p.Kind),
		Account:     p.Account,
		TokenID:     p.TokenID,
		TitleEscrow: escrow,
		SourceToken: p.Token,
	})
	return nil
}

// Root is the tunnel on the chain documents are issued on.
type Root struct{ *tunnel }

// DeployRoot deploys a root tunnel owned by the sender. The tunnel needs the
// chain manager role on reg before it can move tokens.
func DeployRoot(tx *chain.Tx, reg *registry.Registry, bridge chain.Address) (*Root, error) {
	t, err := newTunnel(tx, reg, bridge, KindDeposit, KindWithdraw)
	if err != nil {
		return nil, err
	}
	r := &Root{t}
	if err := tx.DeployAt(t.address, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Deposit sends tokenID to the child chain.
func (r *Root) Deposit(tx *chain.Tx, tokenID chain.TokenID, data []byte) error {
	return r.send(tx, tokenID, data)
}

// Child is the tunnel on the chain documents are bridged to.
type Child struct{ *tunnel }

// DeployChild deploys a child tunnel owned by the sender.
func DeployChild(tx *chain.Tx, reg *registry.Registry, bridge chain.Address) (*Child, error) {
	t, err := newTunnel(tx, reg, bridge, KindWithdraw, KindDeposit)
	if err != nil {
		return nil, err
	}
	c := &Child{t}
	if err := tx.DeployAt(t.address, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Withdraw sends tokenID back to the root chain.
func (c *Child) Withdraw(tx *chain.Tx, tokenID chain.TokenID, data []byte) error {
	return c.send(tx, tokenID, data)
}
