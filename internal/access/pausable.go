package access

import (
	"tokenregistry/internal/chain"
	dErrors "tokenregistry/pkg/domain-errors"
)

var (
	ErrEnforcedPause = dErrors.Reason(dErrors.CodePaused, "EnforcedPause")
	ErrExpectedPause = dErrors.Reason(dErrors.CodeInvalidState, "ExpectedPause")
)

type Paused struct{ Account chain.Address }

func (Paused) EventName() string { return "Paused" }

type Unpaused struct{ Account chain.Address }

func (Unpaused) EventName() string { return "Unpaused" }

// Pausable is a flag owned by one contract and read by every contract that
// must stop when it stops.
type Pausable struct {
	address chain.Address
	paused  bool
}

func NewPausable(contract chain.Address) *Pausable {
	return &Pausable{address: contract}
}

func (p *Pausable) Paused() bool { return p.paused }

// WhenNotPaused returns ErrEnforcedPause while paused.
func (p *Pausable) WhenNotPaused() error {
	if p.paused {
		return ErrEnforcedPause
	}
	return nil
}

func (p *Pausable) Pause(tx *chain.Tx) error {
	if err := p.WhenNotPaused(); err != nil {
		return err
	}
	chain.Set(tx, &p.paused, true)
	tx.Emit(p.address, Paused{Account: tx.Sender()})
	return nil
}

func (p *Pausable) Unpause(tx *chain.Tx) error {
	if !p.paused {
		return ErrExpectedPause
	}
	chain.Set(tx, &p.paused, false)
	tx.Emit(p.address, Unpaused{Account: tx.Sender()})
	return nil
}
