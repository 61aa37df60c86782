package access

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenregistry/internal/chain"
)

var (
	contract = common.HexToAddress("0x00000000000000000000000000000000000c0de0")
	admin    = common.HexToAddress("0x00000000000000000000000000000000000ad000")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
)

func exec(t *testing.T, c *chain.Chain, sender chain.Address, fn func(tx *chain.Tx) error) error {
	t.Helper()
	_, err := c.Execute(context.Background(), sender, fn)
	return err
}

func TestRoleIDs(t *testing.T) {
	assert.Equal(t, Role{}, DefaultAdminRole)
	// keccak256("MINTER_ROLE")
	assert.Equal(t, "0x9f2df0fed2c77648de5860a4cc508cd0818c85b8b8a1ab4ceeef8d981c8956a6", MinterRole.Hex())
	assert.Equal(t, "MINTER_ROLE", RoleName(MinterRole))
}

func TestControl(t *testing.T) {
	c := chain.New(chain.Config{})
	var ctrl *Control
	require.NoError(t, exec(t, c, admin, func(tx *chain.Tx) error {
		ctrl = NewControl(tx, contract, admin)
		return nil
	}))
	assert.True(t, ctrl.HasRole(DefaultAdminRole, admin))

	t.Run("unknown accounts are denied", func(t *testing.T) {
		assert.False(t, ctrl.HasRole(MinterRole, alice))
		assert.ErrorIs(t, ctrl.CheckRole(MinterRole, alice), ErrUnauthorizedAccount)
	})

	t.Run("only the role admin grants", func(t *testing.T) {
		err := exec(t, c, alice, func(tx *chain.Tx) error { return ctrl.GrantRole(tx, MinterRole, alice) })
		assert.ErrorIs(t, err, ErrUnauthorizedAccount)

		require.NoError(t, exec(t, c, admin, func(tx *chain.Tx) error { return ctrl.GrantRole(tx, MinterRole, alice) }))
		assert.True(t, ctrl.HasRole(MinterRole, alice))
	})

	t.Run("renounce needs confirmation", func(t *testing.T) {
		err := exec(t, c, alice, func(tx *chain.Tx) error { return ctrl.RenounceRole(tx, MinterRole, admin) })
		assert.ErrorIs(t, err, ErrBadConfirmation)

		require.NoError(t, exec(t, c, alice, func(tx *chain.Tx) error { return ctrl.RenounceRole(tx, MinterRole, alice) }))
		assert.False(t, ctrl.HasRole(MinterRole, alice))
	})

	t.Run("role admin can be delegated", func(t *testing.T) {
		require.NoError(t, exec(t, c, admin, func(tx *chain.Tx) error {
			if err := ctrl.SetRoleAdmin(tx, ChainManagerRole, MinterRole); err != nil {
				return err
			}
			return ctrl.GrantRole(tx, MinterRole, alice)
		}))
		assert.Equal(t, MinterRole, ctrl.RoleAdmin(ChainManagerRole))

		require.NoError(t, exec(t, c, alice, func(tx *chain.Tx) error { return ctrl.GrantRole(tx, ChainManagerRole, alice) }))
		require.NoError(t, exec(t, c, alice, func(tx *chain.Tx) error { return ctrl.RevokeRole(tx, ChainManagerRole, alice) }))
		assert.False(t, ctrl.HasRole(ChainManagerRole, alice))
	})

	t.Run("failed grant leaves no role", func(t *testing.T) {
		err := exec(t, c, admin, func(tx *chain.Tx) error {
			if err := ctrl.GrantRole(tx, RestorerRole, alice); err != nil {
				return err
			}
			return ErrBadConfirmation
		})
		assert.ErrorIs(t, err, ErrBadConfirmation)
		assert.False(t, ctrl.HasRole(RestorerRole, alice))
	})
}

func TestPausable(t *testing.T) {
	c := chain.New(chain.Config{})
	p := NewPausable(contract)

	assert.NoError(t, p.WhenNotPaused())
	err := exec(t, c, admin, p.Unpause)
	assert.ErrorIs(t, err, ErrExpectedPause)

	rcpt, err := c.Execute(context.Background(), admin, p.Pause)
	require.NoError(t, err)
	require.Len(t, rcpt.Logs, 1)
	assert.Equal(t, Paused{Account: admin}, rcpt.Logs[0].Event)
	assert.True(t, p.Paused())
	assert.ErrorIs(t, p.WhenNotPaused(), ErrEnforcedPause)

	require.NoError(t, exec(t, c, admin, p.Unpause))
	assert.False(t, p.Paused())
}
