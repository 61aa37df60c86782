// Package titleescrow implements the custody contract that holds one document
// token for a (beneficiary, holder) pair.
//
// An escrow is Active from initialization until the registry shreds it.
// While active, every mutating operation checks, in order: the registry pause
// flag, the active flag, that the escrow holds its token, and then the caller.
package titleescrow

import (
	"tokenregistry/internal/chain"
	"tokenregistry/internal/eip712"
	"tokenregistry/internal/interfaceid"
)

// Registry is the view of the issuing token registry the escrow relies on.
type Registry interface {
	OwnerOf(tokenID chain.TokenID) (chain.Address, error)
	Paused() bool
	SafeTransferFrom(tx *chain.Tx, from, to chain.Address, tokenID chain.TokenID, data []byte) error
}

// TitleEscrow is the state of one escrow clone.
type TitleEscrow struct {
	address  chain.Address
	registry chain.Address
	reg      Registry
	tokenID  chain.TokenID

	beneficiary chain.Address
	holder      chain.Address
	nominee     chain.Address
	active      bool
	initialized bool

	auth *eip712.Authorizer
}

// Initialize binds the escrow to registry and tokenID and sets the initial
// owners. It can run once per escrow.
func (e *TitleEscrow) Initialize(tx *chain.Tx, registry, beneficiary, holder chain.Address, tokenID chain.TokenID) error {
	if e.initialized {
		return ErrAlreadyInitialized
	}
	if beneficiary == chain.ZeroAddress || holder == chain.ZeroAddress {
		return ErrInvalidTokenTransferToZeroAddrOwners
	}
	code, ok := tx.CodeAt(registry)
	if !ok {
		return ErrInvalidRegistry
	}
	reg, ok := code.(Registry)
	if !ok {
		return ErrInvalidRegistry
	}

	chain.Set(tx, &e.initialized, true)
	chain.Set(tx, &e.registry, registry)
	chain.Set(tx, &e.reg, reg)
	chain.Set(tx, &e.tokenID, tokenID)
	chain.Set(tx, &e.beneficiary, beneficiary)
	chain.Set(tx, &e.holder, holder)
	chain.Set(tx, &e.active, true)
	chain.Set(tx, &e.auth, eip712.NewAuthorizer(eip712.NewDomain(tx.ChainID(), e.address)))
	return nil
}

func (e *TitleEscrow) Address() chain.Address     { return e.address }
func (e *TitleEscrow) Registry() chain.Address    { return e.registry }
func (e *TitleEscrow) TokenID() chain.TokenID     { return e.tokenID }
func (e *TitleEscrow) Beneficiary() chain.Address { return e.beneficiary }
func (e *TitleEscrow) Holder() chain.Address      { return e.holder }
func (e *TitleEscrow) Nominee() chain.Address     { return e.nominee }
func (e *TitleEscrow) Active() bool               { return e.active }

// IsHoldingToken reports whether the registry currently records this escrow
// as the token owner. It is callable in any state.
func (e *TitleEscrow) IsHoldingToken() bool {
	if e.reg == nil {
		return false
	}
	owner, err := e.reg.OwnerOf(e.tokenID)
	return err == nil && owner == e.address
}

// SupportsInterface answers ERC-165 queries.
func (e *TitleEscrow) SupportsInterface(id interfaceid.ID) bool {
	switch id {
	case interfaceid.ERC165, interfaceid.ERC721Receiver, interfaceid.TitleEscrow, interfaceid.TitleEscrowSignable:
		return true
	}
	return false
}

func (e *TitleEscrow) whenNotPaused() error {
	if e.reg != nil && e.reg.Paused() {
		return ErrRegistryContractPaused
	}
	return nil
}

func (e *TitleEscrow) whenActive() error {
	if !e.active {
		return ErrInactiveTitleEscrow
	}
	return nil
}

// ready runs the pause, active and holding checks shared by every owner
// operation.
func (e *TitleEscrow) ready() error {
	if err := e.whenNotPaused(); err != nil {
		return err
	}
	if err := e.whenActive(); err != nil {
		return err
	}
	if !e.IsHoldingToken() {
		return ErrTitleEscrowNotHoldingToken
	}
	return nil
}

// OnERC721Received accepts the escrow's token from its registry. Non-empty
// data carries ABI-encoded (beneficiary, holder) and resets the owners.
func (e *TitleEscrow) OnERC721Received(tx *chain.Tx, _, from chain.Address, tokenID chain.TokenID, data []byte) (interfaceid.ID, error) {
	if err := e.whenNotPaused(); err != nil {
		return interfaceid.ID{}, err
	}
	if err := e.whenActive(); err != nil {
		return interfaceid.ID{}, err
	}
	if tokenID != e.tokenID {
		return interfaceid.ID{}, ErrInvalidTokenID
	}
	if tx.Sender() != e.registry {
		return interfaceid.ID{}, ErrInvalidRegistry
	}

	if len(data) > 0 {
		beneficiary, holder, err := chain.DecodeOwners(data)
		if err != nil {
			return interfaceid.ID{}, ErrInvalidTokenTransferToZeroAddrOwners
		}
		if beneficiary == chain.ZeroAddress || holder == chain.ZeroAddress {
			return interfaceid.ID{}, ErrInvalidTokenTransferToZeroAddrOwners
		}
		chain.Set(tx, &e.beneficiary, beneficiary)
		chain.Set(tx, &e.holder, holder)
		chain.Set(tx, &e.nominee, chain.ZeroAddress)
	}

	tx.Emit(e.address, TokenReceived{
		Beneficiary: e.beneficiary,
		Holder:      e.holder,
		IsMinting:   from == chain.ZeroAddress,
		Registry:    e.registry,
		TokenID:     e.tokenID,
	})
	return interfaceid.ERC721Receiver, nil
}

// Nominate designates the next beneficiary. Nominating the zero address
// clears a pending nomination and is a no-op when none exists.
func (e *TitleEscrow) Nominate(tx *chain.Tx, nominee chain.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if tx.Sender() != e.beneficiary {
		return ErrCallerNotBeneficiary
	}
	if nominee == chain.ZeroAddress && e.nominee == chain.ZeroAddress {
		return nil
	}
	if nominee == e.beneficiary {
		return ErrTargetNomineeAlreadyBeneficiary
	}
	if nominee == e.nominee {
		return ErrNomineeAlreadyNominated
	}
	e.setNominee(tx, nominee)
	return nil
}

// TransferBeneficiary is the holder's endorsement of nominee as the new
// beneficiary. A holder who is also the beneficiary may endorse anyone.
func (e *TitleEscrow) TransferBeneficiary(tx *chain.Tx, nominee chain.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if tx.Sender() != e.holder {
		return ErrCallerNotHolder
	}
	return e.transferBeneficiary(tx, nominee)
}

func (e *TitleEscrow) transferBeneficiary(tx *chain.Tx, nominee chain.Address) error {
	if nominee == chain.ZeroAddress {
		return ErrInvalidTransferToZeroAddress
	}
	if e.beneficiary != e.holder && e.nominee != nominee {
		return ErrInvalidNominee
	}
	prev := e.beneficiary
	chain.Set(tx, &e.beneficiary, nominee)
	e.setNominee(tx, chain.ZeroAddress)
	tx.Emit(e.address, BeneficiaryTransfer{
		FromBeneficiary: prev,
		ToBeneficiary:   nominee,
		Registry:        e.registry,
		TokenID:         e.tokenID,
	})
	return nil
}

// TransferHolder hands the document to newHolder and invalidates every
// outstanding signature of the outgoing holder.
func (e *TitleEscrow) TransferHolder(tx *chain.Tx, newHolder chain.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if tx.Sender() != e.holder {
		return ErrCallerNotHolder
	}
	return e.transferHolder(tx, newHolder)
}

func (e *TitleEscrow) transferHolder(tx *chain.Tx, newHolder chain.Address) error {
	if newHolder == chain.ZeroAddress {
		return ErrInvalidTransferToZeroAddress
	}
	if newHolder == e.holder {
		return ErrRecipientAlreadyHolder
	}
	prev := e.holder
	chain.Set(tx, &e.holder, newHolder)
	e.auth.IncrementNonce(tx, prev)
	tx.Emit(e.address, HolderTransfer{
		FromHolder: prev,
		ToHolder:   newHolder,
		Registry:   e.registry,
		TokenID:    e.tokenID,
	})
	return nil
}

// TransferOwners endorses nominee and transfers holdership in one call.
func (e *TitleEscrow) TransferOwners(tx *chain.Tx, nominee, newHolder chain.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if tx.Sender() != e.holder {
		return ErrCallerNotHolder
	}
	if err := e.transferBeneficiary(tx, nominee); err != nil {
		return err
	}
	return e.transferHolder(tx, newHolder)
}

// Surrender returns the token to the registry. Only a sole owner may
// surrender. Owners are kept until the registry restores or shreds.
func (e *TitleEscrow) Surrender(tx *chain.Tx) error {
	if err := e.ready(); err != nil {
		return err
	}
	if tx.Sender() != e.beneficiary {
		return ErrCallerNotBeneficiary
	}
	if tx.Sender() != e.holder {
		return ErrCallerNotHolder
	}
	e.setNominee(tx, chain.ZeroAddress)
	tx.Emit(e.address, Surrender{SurrenderedBy: tx.Sender(), Registry: e.registry, TokenID: e.tokenID})
	return e.reg.SafeTransferFrom(tx.As(e.address), e.address, e.registry, e.tokenID, nil)
}

// Shred permanently deactivates a surrendered escrow. Only the registry
// calls it.
func (e *TitleEscrow) Shred(tx *chain.Tx) error {
	if err := e.whenNotPaused(); err != nil {
		return err
	}
	if err := e.whenActive(); err != nil {
		return err
	}
	if tx.Sender() != e.registry {
		return ErrCallerNotRegistry
	}
	if e.IsHoldingToken() {
		return ErrTokenNotSurrendered
	}
	chain.Set(tx, &e.beneficiary, chain.ZeroAddress)
	chain.Set(tx, &e.holder, chain.ZeroAddress)
	chain.Set(tx, &e.nominee, chain.ZeroAddress)
	chain.Set(tx, &e.active, false)
	tx.Emit(e.address, Shred{Registry: e.registry, TokenID: e.tokenID})
	return nil
}

// Release drops a pending nomination when the registry takes the token out
// of the escrow for a bridge withdrawal. Only the registry calls it.
func (e *TitleEscrow) Release(tx *chain.Tx) error {
	if tx.Sender() != e.registry {
		return ErrCallerNotRegistry
	}
	e.setNominee(tx, chain.ZeroAddress)
	return nil
}

func (e *TitleEscrow) setNominee(tx *chain.Tx, nominee chain.Address) {
	if e.nominee == nominee {
		return
	}
	prev := e.nominee
	chain.Set(tx, &e.nominee, nominee)
	tx.Emit(e.address, Nomination{
		PrevNominee: prev,
		Nominee:     nominee,
		Registry:    e.registry,
		TokenID:     e.tokenID,
	})
}
