// Package node deploys a root and a child chain joined by a tunnel pair.
package node

import (
	"context"
	"fmt"
	"math/big"

	"tokenregistry/internal/access"
	"tokenregistry/internal/chain"
	"tokenregistry/internal/registry"
	"tokenregistry/internal/titleescrow"
	"tokenregistry/internal/tunnel"
)

// Routes carried by the relayers.
const (
	RouteDeposits    = "deposits"
	RouteWithdrawals = "withdrawals"
)

// ChainSpec describes one side of the network.
type ChainSpec struct {
	ID     uint64
	Name   string
	Admin  chain.Address
	Token  string
	Symbol string
}

type Config struct {
	Root  ChainSpec
	Child ChainSpec
}

// Side is a chain with its registry, escrow factory and bridge inbox.
type Side struct {
	Chain    *chain.Chain
	Admin    chain.Address
	Factory  *titleescrow.Factory
	Registry *registry.Registry
	Bridge   *tunnel.Bridge
}

// Network is the deployed pair.
type Network struct {
	Root        *Side
	Child       *Side
	RootTunnel  *tunnel.Root
	ChildTunnel *tunnel.Child
}

// Deploy builds both chains, deploys a registry on each, and links a root and
// a child tunnel holding the chain manager role of their registry. Each admin
// owns its registry and tunnel. chainOpts apply to both chains.
func Deploy(ctx context.Context, cfg Config, bridgeOpts []tunnel.BridgeOption, chainOpts ...chain.Option) (*Network, error) {
	root, err := deploySide(ctx, cfg.Root, cfg.Child.ID, bridgeOpts, chainOpts)
	if err != nil {
		return nil, fmt.Errorf("deploy root chain: %w", err)
	}
	child, err := deploySide(ctx, cfg.Child, cfg.Root.ID, bridgeOpts, chainOpts)
	if err != nil {
		return nil, fmt.Errorf("deploy child chain: %w", err)
	}
	n := &Network{Root: root, Child: child}

	_, err = root.Chain.Execute(ctx, root.Admin, func(tx *chain.Tx) error {
		t, err := tunnel.DeployRoot(tx, root.Registry, root.Bridge.Address())
		if err != nil {
			return err
		}
		n.RootTunnel = t
		return root.Registry.Roles().GrantRole(tx, access.ChainManagerRole, t.Address())
	})
	if err != nil {
		return nil, fmt.Errorf("deploy root tunnel: %w", err)
	}
	_, err = child.Chain.Execute(ctx, child.Admin, func(tx *chain.Tx) error {
		t, err := tunnel.DeployChild(tx, child.Registry, child.Bridge.Address())
		if err != nil {
			return err
		}
		n.ChildTunnel = t
		return child.Registry.Roles().GrantRole(tx, access.ChainManagerRole, t.Address())
	})
	if err != nil {
		return nil, fmt.Errorf("deploy child tunnel: %w", err)
	}

	_, err = root.Chain.Execute(ctx, root.Admin, func(tx *chain.Tx) error {
		return n.RootTunnel.SetCounterpart(tx, n.ChildTunnel.Address())
	})
	if err != nil {
		return nil, fmt.Errorf("link root tunnel: %w", err)
	}
	_, err = child.Chain.Execute(ctx, child.Admin, func(tx *chain.Tx) error {
		return n.ChildTunnel.SetCounterpart(tx, n.RootTunnel.Address())
	})
	if err != nil {
		return nil, fmt.Errorf("link child tunnel: %w", err)
	}
	return n, nil
}

func deploySide(ctx context.Context, spec ChainSpec, peer uint64, bridgeOpts []tunnel.BridgeOption, chainOpts []chain.Option) (*Side, error) {
	if spec.Admin == chain.ZeroAddress {
		return nil, tunnel.ErrZeroAddress
	}
	c := chain.New(chain.Config{ChainID: new(big.Int).SetUint64(spec.ID), Name: spec.Name}, chainOpts...)
	side := &Side{Chain: c, Admin: spec.Admin}

	_, err := c.Execute(ctx, spec.Admin, func(tx *chain.Tx) error {
		factory, err := titleescrow.DeployFactory(tx)
		if err != nil {
			return err
		}
		reg, err := registry.Deploy(tx, registry.Config{
			Name:    spec.Token,
			Symbol:  spec.Symbol,
			Factory: factory,
			Admin:   spec.Admin,
		})
		if err != nil {
			return err
		}
		side.Factory, side.Registry = factory, reg
		return nil
	})
	if err != nil {
		return nil, err
	}

	side.Bridge, err = tunnel.DeployBridge(ctx, c, peer, bridgeOpts...)
	if err != nil {
		return nil, err
	}
	return side, nil
}

// Side returns the side whose chain ID is id.
func (n *Network) Side(id uint64) (*Side, bool) {
	switch id {
	case n.Root.Chain.ChainID().Uint64():
		return n.Root, true
	case n.Child.Chain.ChainID().Uint64():
		return n.Child, true
	}
	return nil, false
}
