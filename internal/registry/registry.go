// Package registry implements the token registry: the ERC-721 ledger of
// document tokens, which mints each token into its own title escrow and
// controls the surrender, burn and restore lifecycle.
package registry

import (
	"github.com/ethereum/go-ethereum/common"

	"tokenregistry/internal/access"
	"tokenregistry/internal/chain"
	"tokenregistry/internal/interfaceid"
	"tokenregistry/internal/titleescrow"
	dErrors "tokenregistry/pkg/domain-errors"
)

// BurnAddress is where accepted documents are sent to die.
var BurnAddress = common.HexToAddress("0x000000000000000000000000000000000000dEaD")

var (
	ErrTokenExists         = dErrors.Reason(dErrors.CodeInvalidState, "TokenExists")
	ErrTokenNotSurrendered = dErrors.Reason(dErrors.CodeInvalidState, "TokenNotSurrendered")
	ErrInvalidTokenID      = dErrors.Reason(dErrors.CodeValidation, "InvalidTokenId")
	ErrTransferFailure     = dErrors.Reason(dErrors.CodeInvalidState, "TransferFailure")
	ErrRegistryPaused      = dErrors.Reason(dErrors.CodePaused, "RegistryPaused")
)

type TokenBurnt struct {
	TokenID     chain.TokenID
	TitleEscrow chain.Address
	Burner      chain.Address
}

func (TokenBurnt) EventName() string { return "TokenBurnt" }

type TokenRestored struct {
	TokenID     chain.TokenID
	TitleEscrow chain.Address
}

func (TokenRestored) EventName() string { return "TokenRestored" }

// Config holds the constructor arguments of a registry.
type Config struct {
	Name    string
	Symbol  string
	Factory *titleescrow.Factory
	// Admin receives the default admin, minter, restorer and accepter roles.
	Admin chain.Address
}

// Registry is a deployed token registry.
type Registry struct {
	ledger

	address chain.Address
	name    string
	symbol  string
	genesis uint64
	factory *titleescrow.Factory
	roles   *access.Control
	pause   *access.Pausable
}

// Deploy creates a registry at the sender's next CREATE address.
func Deploy(tx *chain.Tx, cfg Config) (*Registry, error) {
	if cfg.Factory == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "title escrow factory is required")
	}
	if cfg.Admin == chain.ZeroAddress {
		return nil, dErrors.New(dErrors.CodeBadRequest, "admin is required")
	}
	addr := tx.CreateAddress()
	r := &Registry{
		ledger:  newLedger(),
		address: addr,
		name:    cfg.Name,
		symbol:  cfg.Symbol,
		genesis: tx.BlockNumber(),
		factory: cfg.Factory,
		roles:   access.NewControl(tx, addr, cfg.Admin),
		pause:   access.NewPausable(addr),
	}
	if err := tx.DeployAt(addr, r); err != nil {
		return nil, err
	}
	admin := tx.As(cfg.Admin)
	for _, role := range []access.Role{access.MinterRole, access.RestorerRole, access.AccepterRole} {
		if err := r.roles.GrantRole(admin, role, cfg.Admin); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Address() chain.Address                  { return r.address }
func (r *Registry) Genesis() uint64                         { return r.genesis }
func (r *Registry) TitleEscrowFactory() *titleescrow.Factory { return r.factory }
func (r *Registry) Roles() *access.Control                  { return r.roles }
func (r *Registry) Paused() bool                            { return r.pause.Paused() }

// EscrowAddress is the deterministic escrow address for tokenID.
func (r *Registry) EscrowAddress(tokenID chain.TokenID) chain.Address {
	return r.factory.EscrowAddress(r.address, tokenID)
}

// SupportsInterface answers ERC-165 queries.
func (r *Registry) SupportsInterface(id interfaceid.ID) bool {
	switch id {
	case interfaceid.ERC165, interfaceid.ERC721, interfaceid.ERC721Receiver, interfaceid.TokenRegistry:
		return true
	}
	return false
}

func (r *Registry) whenNotPaused() error {
	if r.pause.Paused() {
		return ErrRegistryPaused
	}
	return nil
}

// IsSurrendered is true while the registry itself or the burn address owns
// the token.
func (r *Registry) IsSurrendered(tokenID chain.TokenID) bool {
	owner, ok := r.owners[tokenID]
	return ok && (owner == r.address || owner == BurnAddress)
}

// Mint creates the escrow for tokenID and mints the token into it.
func (r *Registry) Mint(tx *chain.Tx, beneficiary, holder chain.Address, tokenID chain.TokenID) (chain.Address, error) {
	if err := r.whenNotPaused(); err != nil {
		return chain.Address{}, err
	}
	if err := r.roles.CheckRole(access.MinterRole, tx.Sender()); err != nil {
		return chain.Address{}, err
	}
	if r.Exists(tokenID) {
		return chain.Address{}, ErrTokenExists
	}
	return r.mintTitle(tx, beneficiary, holder, tokenID)
}

func (r *Registry) mintTitle(tx *chain.Tx, beneficiary, holder chain.Address, tokenID chain.TokenID) (chain.Address, error) {
	escrow, err := r.factory.Create(tx.As(r.address), tokenID, beneficiary, holder)
	if err != nil {
		return chain.Address{}, err
	}
	to := escrow.Address()
	r.move(tx, chain.ZeroAddress, to, tokenID)
	if err := r.checkOnReceived(tx, tx.Sender(), chain.ZeroAddress, to, tokenID, chain.EncodeOwners(beneficiary, holder)); err != nil {
		return chain.Address{}, err
	}
	return to, nil
}

// Burn accepts a surrendered document: the escrow is shredded and the token
// goes to BurnAddress. It is terminal.
func (r *Registry) Burn(tx *chain.Tx, tokenID chain.TokenID) error {
	if err := r.whenNotPaused(); err != nil {
		return err
	}
	if err := r.roles.CheckRole(access.AccepterRole, tx.Sender()); err != nil {
		return err
	}
	if owner := r.owners[tokenID]; owner != r.address {
		return ErrTokenNotSurrendered
	}
	escrowAddr := r.EscrowAddress(tokenID)
	escrow, ok := titleescrow.At(tx, escrowAddr)
	if !ok {
		return ErrInvalidTokenID
	}
	if err := escrow.Shred(tx.As(r.address)); err != nil {
		return err
	}
	r.move(tx, r.address, BurnAddress, tokenID)
	tx.Emit(r.address, TokenBurnt{TokenID: tokenID, TitleEscrow: escrowAddr, Burner: tx.Sender()})
	return nil
}

// Restore rejects a surrender and returns the token to its escrow, whose
// owners are unchanged.
func (r *Registry) Restore(tx *chain.Tx, tokenID chain.TokenID) (chain.Address, error) {
	if err := r.whenNotPaused(); err != nil {
		return chain.Address{}, err
	}
	if err := r.roles.CheckRole(access.RestorerRole, tx.Sender()); err != nil {
		return chain.Address{}, err
	}
	owner, ok := r.owners[tokenID]
	if !ok {
		return chain.Address{}, ErrInvalidTokenID
	}
	if owner != r.address {
		return chain.Address{}, ErrTokenNotSurrendered
	}
	escrowAddr := r.EscrowAddress(tokenID)
	r.move(tx, r.address, escrowAddr, tokenID)
	if err := r.checkOnReceived(tx, tx.Sender(), r.address, escrowAddr, tokenID, nil); err != nil {
		return chain.Address{}, err
	}
	tx.Emit(r.address, TokenRestored{TokenID: tokenID, TitleEscrow: escrowAddr})
	return escrowAddr, nil
}

func (r *Registry) Pause(tx *chain.Tx) error {
	if err := r.roles.CheckRole(access.DefaultAdminRole, tx.Sender()); err != nil {
		return err
	}
	return r.pause.Pause(tx)
}

func (r *Registry) Unpause(tx *chain.Tx) error {
	if err := r.roles.CheckRole(access.DefaultAdminRole, tx.Sender()); err != nil {
		return err
	}
	return r.pause.Unpause(tx)
}
