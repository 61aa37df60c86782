package registry

import (
	"tokenregistry/internal/access"
	"tokenregistry/internal/chain"
	"tokenregistry/internal/titleescrow"
)

type BridgeDeposit struct {
	TokenID     chain.TokenID
	To          chain.Address
	TitleEscrow chain.Address
	Minted      bool
}

func (BridgeDeposit) EventName() string { return "BridgeDeposit" }

type BridgeWithdrawal struct {
	TokenID     chain.TokenID
	From        chain.Address
	TitleEscrow chain.Address
}

func (BridgeWithdrawal) EventName() string { return "BridgeWithdrawal" }

// Deposit brings tokenID onto this chain for to, who becomes sole owner. A
// token this registry has never seen is minted into a fresh escrow; a token
// that left through Withdraw moves from the caller's custody back into its
// escrow. The caller needs the chain manager role.
func (r *Registry) Deposit(tx *chain.Tx, to chain.Address, tokenID chain.TokenID) (chain.Address, error) {
	if err := r.whenNotPaused(); err != nil {
		return chain.Address{}, err
	}
	if err := r.roles.CheckRole(access.ChainManagerRole, tx.Sender()); err != nil {
		return chain.Address{}, err
	}
	if to == chain.ZeroAddress {
		return chain.Address{}, titleescrow.ErrInvalidTokenTransferToZeroAddrOwners
	}

	if !r.Exists(tokenID) {
		escrow, err := r.mintTitle(tx, to, to, tokenID)
		if err != nil {
			return chain.Address{}, err
		}
		tx.Emit(r.address, BridgeDeposit{TokenID: tokenID, To: to, TitleEscrow: escrow, Minted: true})
		return escrow, nil
	}

	if r.owners[tokenID] != tx.Sender() {
		return chain.Address{}, ErrTransferFailure
	}
	escrow := r.EscrowAddress(tokenID)
	r.move(tx, tx.Sender(), escrow, tokenID)
	if err := r.checkOnReceived(tx, tx.Sender(), tx.Sender(), escrow, tokenID, chain.EncodeOwners(to, to)); err != nil {
		return chain.Address{}, err
	}
	tx.Emit(r.address, BridgeDeposit{TokenID: tokenID, To: to, TitleEscrow: escrow})
	return escrow, nil
}

// Withdraw takes tokenID out of its escrow into the caller's custody. from
// must be both beneficiary and holder of the escrow.
func (r *Registry) Withdraw(tx *chain.Tx, from chain.Address, tokenID chain.TokenID) error {
	if err := r.whenNotPaused(); err != nil {
		return err
	}
	if err := r.roles.CheckRole(access.ChainManagerRole, tx.Sender()); err != nil {
		return err
	}
	owner, err := r.OwnerOf(tokenID)
	if err != nil {
		return err
	}
	escrowAddr := r.EscrowAddress(tokenID)
	escrow, ok := titleescrow.At(tx, escrowAddr)
	if !ok || owner != escrowAddr || !escrow.Active() {
		return titleescrow.ErrTitleEscrowNotHoldingToken
	}
	if escrow.Beneficiary() != from {
		return titleescrow.ErrCallerNotBeneficiary
	}
	if escrow.Holder() != from {
		return titleescrow.ErrCallerNotHolder
	}
	if err := escrow.Release(tx.As(r.address)); err != nil {
		return err
	}
	r.move(tx, escrowAddr, tx.Sender(), tokenID)
	tx.Emit(r.address, BridgeWithdrawal{TokenID: tokenID, From: from, TitleEscrow: escrowAddr})
	return nil
}
