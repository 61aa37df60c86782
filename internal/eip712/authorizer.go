package eip712

import (
	"math/big"

	"tokenregistry/internal/chain"
	dErrors "tokenregistry/pkg/domain-errors"
)

var (
	ErrSignatureExpired          = dErrors.Reason(dErrors.CodeValidation, "SignatureExpired")
	ErrSignatureAlreadyCancelled = dErrors.Reason(dErrors.CodeValidation, "SignatureAlreadyCancelled")
	ErrInvalidSignature          = dErrors.Reason(dErrors.CodeValidation, "InvalidSignature")
)

// Authorizer holds the replay-protection state of one verifying contract:
// a nonce per signer and the set of cancelled struct hashes.
type Authorizer struct {
	domain    Domain
	nonces    map[chain.Address]uint64
	cancelled map[chain.Hash]bool
}

// NewAuthorizer returns an empty authorizer for domain.
func NewAuthorizer(domain Domain) *Authorizer {
	return &Authorizer{
		domain:    domain,
		nonces:    make(map[chain.Address]uint64),
		cancelled: make(map[chain.Hash]bool),
	}
}

func (a *Authorizer) Domain() Domain { return a.domain }

// Nonce returns the next expected nonce for signer.
func (a *Authorizer) Nonce(signer chain.Address) uint64 { return a.nonces[signer] }

// IsCancelled reports whether the struct hash was cancelled.
func (a *Authorizer) IsCancelled(structHash chain.Hash) bool { return a.cancelled[structHash] }

// IncrementNonce invalidates every outstanding signature of signer.
func (a *Authorizer) IncrementNonce(tx *chain.Tx, signer chain.Address) {
	chain.SetMap(tx, a.nonces, signer, a.nonces[signer]+1)
}

// Cancel marks structHash as unusable.
func (a *Authorizer) Cancel(tx *chain.Tx, structHash chain.Hash) {
	chain.SetMap(tx, a.cancelled, structHash, true)
}

// Verify checks deadline, cancellation, nonce and signer, in that order.
// It does not consume the nonce; callers increment it once the authorized
// action has been applied.
func (a *Authorizer) Verify(tx *chain.Tx, t BeneficiaryTransfer, sig []byte, signer chain.Address) error {
	deadline := t.Deadline
	if deadline == nil {
		deadline = new(big.Int)
	}
	if big.NewInt(tx.Timestamp().Unix()).Cmp(deadline) > 0 {
		return ErrSignatureExpired
	}
	if a.cancelled[t.StructHash()] {
		return ErrSignatureAlreadyCancelled
	}
	if t.Nonce == nil || t.Nonce.Cmp(new(big.Int).SetUint64(a.nonces[signer])) != 0 {
		return ErrInvalidSignature
	}
	recovered, err := Recover(a.domain, t, sig)
	if err != nil {
		return err
	}
	if recovered != signer {
		return ErrInvalidSignature
	}
	return nil
}
