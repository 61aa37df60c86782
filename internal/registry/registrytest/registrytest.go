// Package registrytest deploys a registry and its escrow factory on an
// in-memory chain for tests.
package registrytest

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"tokenregistry/internal/chain"
	"tokenregistry/internal/registry"
	"tokenregistry/internal/titleescrow"
)

// Account returns a stable address for a test actor name.
func Account(name string) chain.Address {
	return chain.Address(crypto.Keccak256Hash([]byte(name)).Bytes()[12:])
}

// Env is a chain with one deployed registry. Admin holds every registry role.
type Env struct {
	t        testing.TB
	Chain    *chain.Chain
	Now      time.Time
	Admin    chain.Address
	Factory  *titleescrow.Factory
	Registry *registry.Registry
}

// New deploys a factory and a registry on a fresh chain with the given ID.
func New(t testing.TB, chainID int64, opts ...chain.Option) *Env {
	t.Helper()
	env := &Env{
		t:     t,
		Now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Admin: Account("admin"),
	}
	opts = append([]chain.Option{chain.WithClock(func() time.Time { return env.Now })}, opts...)
	env.Chain = chain.New(chain.Config{ChainID: big.NewInt(chainID), Name: "test"}, opts...)

	env.MustExec(env.Admin, func(tx *chain.Tx) error {
		factory, err := titleescrow.DeployFactory(tx)
		if err != nil {
			return err
		}
		reg, err := registry.Deploy(tx, registry.Config{
			Name:    "Trade Documents",
			Symbol:  "TDOC",
			Factory: factory,
			Admin:   env.Admin,
		})
		if err != nil {
			return err
		}
		env.Factory, env.Registry = factory, reg
		return nil
	})
	return env
}

// Exec runs fn as a transaction from sender and returns its error.
func (e *Env) Exec(sender chain.Address, fn func(tx *chain.Tx) error) error {
	_, err := e.Chain.Execute(context.Background(), sender, fn)
	return err
}

// MustExec fails the test if the transaction reverts.
func (e *Env) MustExec(sender chain.Address, fn func(tx *chain.Tx) error) *chain.Receipt {
	e.t.Helper()
	rcpt, err := e.Chain.Execute(context.Background(), sender, fn)
	require.NoError(e.t, err)
	return rcpt
}

// Mint mints tokenID to a new escrow as the admin.
func (e *Env) Mint(beneficiary, holder chain.Address, tokenID chain.TokenID) *titleescrow.TitleEscrow {
	e.t.Helper()
	var addr chain.Address
	e.MustExec(e.Admin, func(tx *chain.Tx) error {
		var err error
		addr, err = e.Registry.Mint(tx, beneficiary, holder, tokenID)
		return err
	})
	return e.EscrowAt(addr)
}

// Escrow returns the escrow deployed for tokenID.
func (e *Env) Escrow(tokenID chain.TokenID) *titleescrow.TitleEscrow {
	e.t.Helper()
	return e.EscrowAt(e.Registry.EscrowAddress(tokenID))
}

// EscrowAt returns the escrow deployed at addr.
func (e *Env) EscrowAt(addr chain.Address) *titleescrow.TitleEscrow {
	e.t.Helper()
	code, ok := e.Chain.CodeAt(addr)
	require.True(e.t, ok, "no contract at %s", addr)
	escrow, ok := code.(*titleescrow.TitleEscrow)
	require.True(e.t, ok, "contract at %s is not a title escrow", addr)
	return escrow
}

// OwnerOf reads the registry owner of tokenID, or the zero address.
func (e *Env) OwnerOf(tokenID chain.TokenID) chain.Address {
	owner, _ := e.Registry.OwnerOf(tokenID)
	return owner
}

// Events returns the names of events emitted in rcpt, in order.
func Events(rcpt *chain.Receipt) []string {
	names := make([]string, 0, len(rcpt.Logs))
	for _, l := range rcpt.Logs {
		names = append(names, l.Event.EventName())
	}
	return names
}
