package titleescrow

import (
	"tokenregistry/internal/chain"
	"tokenregistry/internal/clones"
)

// Factory deploys escrow clones at addresses derived from (registry, tokenID).
type Factory struct {
	address        chain.Address
	implementation chain.Address
}

// DeployFactory deploys a factory and its locked implementation contract.
// The implementation is created by the factory itself, as a constructor
// would.
func DeployFactory(tx *chain.Tx) (*Factory, error) {
	f := &Factory{address: tx.CreateAddress()}
	if err := tx.DeployAt(f.address, f); err != nil {
		return nil, err
	}
	f.implementation = tx.As(f.address).CreateAddress()
	impl := &TitleEscrow{address: f.implementation, initialized: true}
	if err := tx.DeployAt(f.implementation, impl); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Factory) Address() chain.Address        { return f.address }
func (f *Factory) Implementation() chain.Address { return f.implementation }

// EscrowAddress predicts where the escrow for (registry, tokenID) lives.
func (f *Factory) EscrowAddress(registry chain.Address, tokenID chain.TokenID) chain.Address {
	return clones.DeriveEscrowAddress(f.implementation, f.address, registry, tokenID)
}

// Create clones an escrow for tokenID on behalf of the calling registry and
// initializes it with the given owners.
func (f *Factory) Create(tx *chain.Tx, tokenID chain.TokenID, beneficiary, holder chain.Address) (*TitleEscrow, error) {
	registry := tx.Sender()
	addr := f.EscrowAddress(registry, tokenID)
	e := &TitleEscrow{address: addr}
	if err := tx.DeployAt(addr, e); err != nil {
		return nil, err
	}
	if err := e.Initialize(tx.As(f.address), registry, beneficiary, holder, tokenID); err != nil {
		return nil, err
	}
	tx.Emit(f.address, TitleEscrowCreated{TitleEscrow: addr, Registry: registry, TokenID: tokenID})
	return e, nil
}

// At returns the escrow deployed at addr.
func At(tx *chain.Tx, addr chain.Address) (*TitleEscrow, bool) {
	code, ok := tx.CodeAt(addr)
	if !ok {
		return nil, false
	}
	e, ok := code.(*TitleEscrow)
	return e, ok
}
