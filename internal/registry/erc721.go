package registry

import (
	"tokenregistry/internal/chain"
	"tokenregistry/internal/interfaceid"
	dErrors "tokenregistry/pkg/domain-errors"
)

var (
	ErrNonexistentToken     = dErrors.Reason(dErrors.CodeNotFound, "ERC721NonexistentToken")
	ErrIncorrectOwner       = dErrors.Reason(dErrors.CodeValidation, "ERC721IncorrectOwner")
	ErrInsufficientApproval = dErrors.Reason(dErrors.CodeUnauthorized, "ERC721InsufficientApproval")
	ErrInvalidReceiver      = dErrors.Reason(dErrors.CodeValidation, "ERC721InvalidReceiver")
)

// Receiver is implemented by contracts that accept safe transfers.
type Receiver interface {
	OnERC721Received(tx *chain.Tx, operator, from chain.Address, tokenID chain.TokenID, data []byte) (interfaceid.ID, error)
}

type Transfer struct {
	From    chain.Address
	To      chain.Address
	TokenID chain.TokenID
}

func (Transfer) EventName() string { return "Transfer" }

type Approval struct {
	Owner    chain.Address
	Approved chain.Address
	TokenID  chain.TokenID
}

func (Approval) EventName() string { return "Approval" }

type ApprovalForAll struct {
	Owner    chain.Address
	Operator chain.Address
	Approved bool
}

func (ApprovalForAll) EventName() string { return "ApprovalForAll" }

type operatorKey struct {
	owner    chain.Address
	operator chain.Address
}

// ledger is the ERC-721 ownership book embedded in the registry.
type ledger struct {
	owners    map[chain.TokenID]chain.Address
	balances  map[chain.Address]uint64
	approvals map[chain.TokenID]chain.Address
	operators map[operatorKey]bool
}

func newLedger() ledger {
	return ledger{
		owners:    make(map[chain.TokenID]chain.Address),
		balances:  make(map[chain.Address]uint64),
		approvals: make(map[chain.TokenID]chain.Address),
		operators: make(map[operatorKey]bool),
	}
}

func (r *Registry) Name() string   { return r.name }
func (r *Registry) Symbol() string { return r.symbol }

// Exists reports whether tokenID was ever minted here. Burnt tokens exist.
func (r *Registry) Exists(tokenID chain.TokenID) bool {
	_, ok := r.owners[tokenID]
	return ok
}

func (r *Registry) OwnerOf(tokenID chain.TokenID) (chain.Address, error) {
	owner, ok := r.owners[tokenID]
	if !ok {
		return chain.Address{}, ErrNonexistentToken
	}
	return owner, nil
}

func (r *Registry) BalanceOf(owner chain.Address) uint64 {
	return r.balances[owner]
}

func (r *Registry) GetApproved(tokenID chain.TokenID) (chain.Address, error) {
	if !r.Exists(tokenID) {
		return chain.Address{}, ErrNonexistentToken
	}
	return r.approvals[tokenID], nil
}

func (r *Registry) IsApprovedForAll(owner, operator chain.Address) bool {
	return r.operators[operatorKey{owner, operator}]
}

func (r *Registry) Approve(tx *chain.Tx, to chain.Address, tokenID chain.TokenID) error {
	owner, err := r.OwnerOf(tokenID)
	if err != nil {
		return err
	}
	if tx.Sender() != owner && !r.IsApprovedForAll(owner, tx.Sender()) {
		return ErrInsufficientApproval
	}
	chain.SetMap(tx, r.approvals, tokenID, to)
	tx.Emit(r.address, Approval{Owner: owner, Approved: to, TokenID: tokenID})
	return nil
}

func (r *Registry) SetApprovalForAll(tx *chain.Tx, operator chain.Address, approved bool) error {
	if operator == chain.ZeroAddress {
		return ErrInvalidReceiver
	}
	chain.SetMap(tx, r.operators, operatorKey{tx.Sender(), operator}, approved)
	tx.Emit(r.address, ApprovalForAll{Owner: tx.Sender(), Operator: operator, Approved: approved})
	return nil
}

// TransferFrom moves tokenID without notifying the recipient.
func (r *Registry) TransferFrom(tx *chain.Tx, from, to chain.Address, tokenID chain.TokenID) error {
	if err := r.whenNotPaused(); err != nil {
		return err
	}
	if err := r.checkTransfer(tx, from, to, tokenID); err != nil {
		return err
	}
	r.move(tx, from, to, tokenID)
	return nil
}

// SafeTransferFrom moves tokenID and calls the recipient's receive hook when
// the recipient is a contract.
func (r *Registry) SafeTransferFrom(tx *chain.Tx, from, to chain.Address, tokenID chain.TokenID, data []byte) error {
	if err := r.TransferFrom(tx, from, to, tokenID); err != nil {
		return err
	}
	return r.checkOnReceived(tx, tx.Sender(), from, to, tokenID, data)
}

func (r *Registry) checkTransfer(tx *chain.Tx, from, to chain.Address, tokenID chain.TokenID) error {
	if to == chain.ZeroAddress {
		return ErrInvalidReceiver
	}
	owner, err := r.OwnerOf(tokenID)
	if err != nil {
		return err
	}
	if owner != from {
		return ErrIncorrectOwner
	}
	spender := tx.Sender()
	if spender != owner && r.approvals[tokenID] != spender && !r.IsApprovedForAll(owner, spender) {
		return ErrInsufficientApproval
	}
	return nil
}

// move updates ownership bookkeeping. Callers have already authorized it.
func (r *Registry) move(tx *chain.Tx, from, to chain.Address, tokenID chain.TokenID) {
	if from != chain.ZeroAddress {
		chain.DeleteMap(tx, r.approvals, tokenID)
		chain.SetMap(tx, r.balances, from, r.balances[from]-1)
	}
	chain.SetMap(tx, r.balances, to, r.balances[to]+1)
	chain.SetMap(tx, r.owners, tokenID, to)
	tx.Emit(r.address, Transfer{From: from, To: to, TokenID: tokenID})
}

// checkOnReceived runs after bookkeeping is final, so a reentrant receiver
// only ever observes the completed transfer.
func (r *Registry) checkOnReceived(tx *chain.Tx, operator, from, to chain.Address, tokenID chain.TokenID, data []byte) error {
	code, ok := tx.CodeAt(to)
	if !ok {
		return nil
	}
	receiver, ok := code.(Receiver)
	if !ok {
		return ErrTransferFailure
	}
	selector, err := receiver.OnERC721Received(tx.As(r.address), operator, from, tokenID, data)
	if err != nil {
		return err
	}
	if selector != interfaceid.ERC721Receiver {
		return ErrTransferFailure
	}
	return nil
}

// OnERC721Received accepts surrendered tokens.
func (r *Registry) OnERC721Received(_ *chain.Tx, _, _ chain.Address, _ chain.TokenID, _ []byte) (interfaceid.ID, error) {
	return interfaceid.ERC721Receiver, nil
}
