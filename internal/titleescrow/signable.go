package titleescrow

import (
	"tokenregistry/internal/chain"
	"tokenregistry/internal/eip712"
)

// Nonce returns the next signature nonce expected from holder.
func (e *TitleEscrow) Nonce(holder chain.Address) uint64 {
	if e.auth == nil {
		return 0
	}
	return e.auth.Nonce(holder)
}

// Domain returns the typed-data domain signatures for this escrow are made
// under.
func (e *TitleEscrow) Domain() eip712.Domain {
	if e.auth == nil {
		return eip712.Domain{}
	}
	return e.auth.Domain()
}

// IsCancelled reports whether a signed transfer was cancelled by its holder.
func (e *TitleEscrow) IsCancelled(t eip712.BeneficiaryTransfer) bool {
	return e.auth != nil && e.auth.IsCancelled(t.StructHash())
}

// TransferBeneficiaryWithSig lets the beneficiary apply a transfer the holder
// endorsed off-chain. On success the holder's nonce moves on, so the same
// signature cannot be replayed.
func (e *TitleEscrow) TransferBeneficiaryWithSig(tx *chain.Tx, t eip712.BeneficiaryTransfer, sig []byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	if tx.Sender() != t.Beneficiary {
		return ErrCallerNotBeneficiary
	}
	if t.Beneficiary != e.beneficiary {
		return ErrMismatchedBeneficiary
	}
	if t.Nominee == chain.ZeroAddress || t.Nominee == e.beneficiary {
		return ErrInvalidEndorsement
	}
	if t.Holder != e.holder || t.Registry != e.registry || t.TokenID != e.tokenID {
		return ErrInvalidEndorsement
	}
	if e.nominee != chain.ZeroAddress && e.nominee != t.Nominee {
		return ErrMismatchedNominee
	}
	if err := e.auth.Verify(tx, t, sig, e.holder); err != nil {
		return err
	}

	prev := e.beneficiary
	chain.Set(tx, &e.beneficiary, t.Nominee)
	e.setNominee(tx, chain.ZeroAddress)
	e.auth.IncrementNonce(tx, e.holder)
	tx.Emit(e.address, BeneficiaryTransfer{
		FromBeneficiary: prev,
		ToBeneficiary:   t.Nominee,
		Registry:        e.registry,
		TokenID:         e.tokenID,
	})
	return nil
}

// CancelBeneficiaryTransfer withdraws an endorsement before it is used. Only
// the holder named in the struct may cancel it.
func (e *TitleEscrow) CancelBeneficiaryTransfer(tx *chain.Tx, t eip712.BeneficiaryTransfer) error {
	if err := e.whenNotPaused(); err != nil {
		return err
	}
	if err := e.whenActive(); err != nil {
		return err
	}
	if tx.Sender() != t.Holder {
		return ErrCallerNotEndorser
	}
	hash := t.StructHash()
	e.auth.Cancel(tx, hash)
	tx.Emit(e.address, CancelBeneficiaryTransfer{
		Holder:     t.Holder,
		StructHash: hash,
		Registry:   e.registry,
		TokenID:    e.tokenID,
	})
	return nil
}
