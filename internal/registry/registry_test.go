package registry_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"tokenregistry/internal/access"
	"tokenregistry/internal/chain"
	"tokenregistry/internal/interfaceid"
	"tokenregistry/internal/registry"
	"tokenregistry/internal/registry/registrytest"
	"tokenregistry/internal/titleescrow"
	dErrors "tokenregistry/pkg/domain-errors"
)

type RegistrySuite struct {
	suite.Suite
	env     *registrytest.Env
	reg     *registry.Registry
	tokenID chain.TokenID
	owner   chain.Address
	other   chain.Address
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.env = registrytest.New(s.T(), 1)
	s.reg = s.env.Registry
	s.tokenID = chain.TokenIDFromUint64(0xd0c)
	s.owner = registrytest.Account("owner")
	s.other = registrytest.Account("other")
}

func (s *RegistrySuite) exec(sender chain.Address, fn func(tx *chain.Tx) error) error {
	return s.env.Exec(sender, fn)
}

func (s *RegistrySuite) surrender(escrow *titleescrow.TitleEscrow) {
	s.env.MustExec(escrow.Beneficiary(), func(tx *chain.Tx) error { return escrow.Surrender(tx) })
}

func (s *RegistrySuite) burn() error {
	return s.exec(s.env.Admin, func(tx *chain.Tx) error { return s.reg.Burn(tx, s.tokenID) })
}

func (s *RegistrySuite) restore() (chain.Address, error) {
	var addr chain.Address
	err := s.exec(s.env.Admin, func(tx *chain.Tx) error {
		var err error
		addr, err = s.reg.Restore(tx, s.tokenID)
		return err
	})
	return addr, err
}

func (s *RegistrySuite) mint(beneficiary, holder chain.Address) error {
	return s.exec(s.env.Admin, func(tx *chain.Tx) error {
		_, err := s.reg.Mint(tx, beneficiary, holder, s.tokenID)
		return err
	})
}

// =============================================================================
// Deployment
// =============================================================================

func (s *RegistrySuite) TestDeployment() {
	s.Equal("Trade Documents", s.reg.Name())
	s.Equal("TDOC", s.reg.Symbol())
	s.Equal(uint64(1), s.reg.Genesis())
	s.Same(s.env.Factory, s.reg.TitleEscrowFactory())
	for _, role := range []access.Role{access.DefaultAdminRole, access.MinterRole, access.RestorerRole, access.AccepterRole} {
		s.True(s.reg.Roles().HasRole(role, s.env.Admin), access.RoleName(role))
	}
	s.False(s.reg.Roles().HasRole(access.ChainManagerRole, s.env.Admin))
	s.True(s.reg.SupportsInterface(interfaceid.ERC721))
	s.True(s.reg.SupportsInterface(interfaceid.TokenRegistry))
	s.False(s.reg.SupportsInterface(interfaceid.TitleEscrow))
}

// =============================================================================
// Mint
// =============================================================================

func (s *RegistrySuite) TestMint() {
	rcpt := s.env.MustExec(s.env.Admin, func(tx *chain.Tx) error {
		_, err := s.reg.Mint(tx, s.owner, s.owner, s.tokenID)
		return err
	})
	escrow := s.env.Escrow(s.tokenID)
	s.Equal(escrow.Address(), s.env.OwnerOf(s.tokenID))
	s.Equal(uint64(1), s.reg.BalanceOf(escrow.Address()))
	s.False(s.reg.IsSurrendered(s.tokenID))
	s.Equal([]string{"TitleEscrowCreated", "Transfer", "TokenReceived"}, registrytest.Events(rcpt))

	s.Run("duplicate token id", func() {
		s.ErrorIs(s.mint(s.other, s.other), registry.ErrTokenExists)
	})
}

func (s *RegistrySuite) TestMintRequiresMinter() {
	err := s.exec(s.other, func(tx *chain.Tx) error {
		_, err := s.reg.Mint(tx, s.owner, s.owner, s.tokenID)
		return err
	})
	s.ErrorIs(err, access.ErrUnauthorizedAccount)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.False(s.reg.Exists(s.tokenID))

	s.env.MustExec(s.env.Admin, func(tx *chain.Tx) error {
		return s.reg.Roles().GrantRole(tx, access.MinterRole, s.other)
	})
	s.Require().NoError(s.exec(s.other, func(tx *chain.Tx) error {
		_, err := s.reg.Mint(tx, s.owner, s.owner, s.tokenID)
		return err
	}))
}

// =============================================================================
// Burn and restore
// =============================================================================

func (s *RegistrySuite) TestBurnIsTerminal() {
	escrow := s.env.Mint(s.owner, s.owner, s.tokenID)

	s.Run("cannot burn an unsurrendered token", func() {
		s.ErrorIs(s.burn(), registry.ErrTokenNotSurrendered)
	})

	s.surrender(escrow)
	s.Require().NoError(s.burn())

	s.Equal(registry.BurnAddress, s.env.OwnerOf(s.tokenID))
	s.True(s.reg.IsSurrendered(s.tokenID))
	s.False(escrow.Active())

	s.Run("second burn fails", func() {
		s.ErrorIs(s.burn(), registry.ErrTokenNotSurrendered)
	})
	s.Run("mint fails", func() {
		s.ErrorIs(s.mint(s.owner, s.owner), registry.ErrTokenExists)
	})
	s.Run("restore fails", func() {
		_, err := s.restore()
		s.ErrorIs(err, registry.ErrTokenNotSurrendered)
	})
}

func (s *RegistrySuite) TestSurrenderRestoreRoundTrip() {
	holder := registrytest.Account("holder")
	escrow := s.env.Mint(s.owner, holder, s.tokenID)
	s.env.MustExec(holder, func(tx *chain.Tx) error { return escrow.TransferHolder(tx, s.owner) })
	s.surrender(escrow)
	s.True(s.reg.IsSurrendered(s.tokenID))

	addr, err := s.restore()
	s.Require().NoError(err)

	s.Equal(escrow.Address(), addr)
	s.Equal(addr, s.env.OwnerOf(s.tokenID))
	s.False(s.reg.IsSurrendered(s.tokenID))
	s.True(escrow.IsHoldingToken())
	s.True(escrow.Active())
	s.Equal(s.tokenID, escrow.TokenID())
	s.Equal(s.reg.Address(), escrow.Registry())
	s.Equal(s.owner, escrow.Beneficiary())
	s.Equal(s.owner, escrow.Holder())

	s.Run("restore twice fails", func() {
		_, err := s.restore()
		s.ErrorIs(err, registry.ErrTokenNotSurrendered)
	})
}

func (s *RegistrySuite) TestRestoreUnknownToken() {
	_, err := s.restore()
	s.ErrorIs(err, registry.ErrInvalidTokenID)
}

func (s *RegistrySuite) TestRolesGateLifecycle() {
	escrow := s.env.Mint(s.owner, s.owner, s.tokenID)
	s.surrender(escrow)

	err := s.exec(s.other, func(tx *chain.Tx) error { return s.reg.Burn(tx, s.tokenID) })
	s.ErrorIs(err, access.ErrUnauthorizedAccount)
	err = s.exec(s.other, func(tx *chain.Tx) error {
		_, err := s.reg.Restore(tx, s.tokenID)
		return err
	})
	s.ErrorIs(err, access.ErrUnauthorizedAccount)
	s.True(escrow.Active())
}

// =============================================================================
// Pause
// =============================================================================

func (s *RegistrySuite) TestPause() {
	escrow := s.env.Mint(s.owner, s.owner, s.tokenID)

	s.ErrorIs(s.exec(s.other, func(tx *chain.Tx) error { return s.reg.Pause(tx) }), access.ErrUnauthorizedAccount)
	s.env.MustExec(s.env.Admin, func(tx *chain.Tx) error { return s.reg.Pause(tx) })
	s.True(s.reg.Paused())

	s.Run("blocks lifecycle", func() {
		err := s.exec(s.env.Admin, func(tx *chain.Tx) error {
			_, err := s.reg.Mint(tx, s.owner, s.owner, chain.TokenIDFromUint64(2))
			return err
		})
		s.ErrorIs(err, registry.ErrRegistryPaused)
		s.ErrorIs(s.burn(), registry.ErrRegistryPaused)
		_, err = s.restore()
		s.ErrorIs(err, registry.ErrRegistryPaused)
	})

	s.Run("blocks escrows", func() {
		err := s.exec(s.owner, func(tx *chain.Tx) error { return escrow.Surrender(tx) })
		s.ErrorIs(err, titleescrow.ErrRegistryContractPaused)
	})

	s.Run("double pause", func() {
		err := s.exec(s.env.Admin, func(tx *chain.Tx) error { return s.reg.Pause(tx) })
		s.ErrorIs(err, access.ErrEnforcedPause)
	})

	s.env.MustExec(s.env.Admin, func(tx *chain.Tx) error { return s.reg.Unpause(tx) })
	s.False(s.reg.Paused())
	s.surrender(escrow)
}

// =============================================================================
// ERC-721
// =============================================================================

func (s *RegistrySuite) TestTransferFromRequiresApproval() {
	escrow := s.env.Mint(s.owner, s.owner, s.tokenID)
	from := escrow.Address()

	err := s.exec(s.other, func(tx *chain.Tx) error {
		return s.reg.TransferFrom(tx, from, s.other, s.tokenID)
	})
	s.ErrorIs(err, registry.ErrInsufficientApproval)

	err = s.exec(from, func(tx *chain.Tx) error {
		return s.reg.TransferFrom(tx, s.other, s.owner, s.tokenID)
	})
	s.ErrorIs(err, registry.ErrIncorrectOwner)

	err = s.exec(from, func(tx *chain.Tx) error {
		return s.reg.TransferFrom(tx, from, chain.ZeroAddress, s.tokenID)
	})
	s.ErrorIs(err, registry.ErrInvalidReceiver)

	_, err = s.reg.OwnerOf(chain.TokenIDFromUint64(999))
	s.ErrorIs(err, registry.ErrNonexistentToken)
}

func (s *RegistrySuite) TestSafeTransferToForeignEscrowFails() {
	first := s.env.Mint(s.owner, s.owner, s.tokenID)
	second := s.env.Mint(s.owner, s.owner, chain.TokenIDFromUint64(2))

	err := s.exec(first.Address(), func(tx *chain.Tx) error {
		return s.reg.SafeTransferFrom(tx, first.Address(), second.Address(), s.tokenID, nil)
	})
	s.ErrorIs(err, titleescrow.ErrInvalidTokenID)
	s.Equal(first.Address(), s.env.OwnerOf(s.tokenID))
}

func (s *RegistrySuite) TestApprove() {
	s.env.MustExec(s.env.Admin, func(tx *chain.Tx) error {
		return s.reg.Roles().GrantRole(tx, access.ChainManagerRole, s.env.Admin)
	})
	// A token in plain custody can be moved by an approved spender.
	s.env.MustExec(s.env.Admin, func(tx *chain.Tx) error {
		_, err := s.reg.Deposit(tx, s.owner, s.tokenID)
		return err
	})
	s.env.MustExec(s.env.Admin, func(tx *chain.Tx) error { return s.reg.Withdraw(tx, s.owner, s.tokenID) })
	s.Equal(s.env.Admin, s.env.OwnerOf(s.tokenID))

	s.env.MustExec(s.env.Admin, func(tx *chain.Tx) error { return s.reg.Approve(tx, s.other, s.tokenID) })
	approved, err := s.reg.GetApproved(s.tokenID)
	s.Require().NoError(err)
	s.Equal(s.other, approved)

	s.env.MustExec(s.other, func(tx *chain.Tx) error {
		return s.reg.TransferFrom(tx, s.env.Admin, s.other, s.tokenID)
	})
	s.Equal(s.other, s.env.OwnerOf(s.tokenID))
	approved, _ = s.reg.GetApproved(s.tokenID)
	s.Equal(chain.ZeroAddress, approved)
}

func (s *RegistrySuite) TestWithdrawClearsNomination() {
	s.env.MustExec(s.env.Admin, func(tx *chain.Tx) error {
		return s.reg.Roles().GrantRole(tx, access.ChainManagerRole, s.env.Admin)
	})
	escrow := s.env.Mint(s.owner, s.owner, s.tokenID)
	s.env.MustExec(s.owner, func(tx *chain.Tx) error { return escrow.Nominate(tx, s.other) })

	rcpt := s.env.MustExec(s.env.Admin, func(tx *chain.Tx) error { return s.reg.Withdraw(tx, s.owner, s.tokenID) })
	s.Equal(chain.ZeroAddress, escrow.Nominee())
	s.Contains(registrytest.Events(rcpt), "Nomination")
	s.Equal(s.owner, escrow.Beneficiary())

	err := s.exec(s.other, func(tx *chain.Tx) error { return escrow.Release(tx) })
	s.ErrorIs(err, titleescrow.ErrCallerNotRegistry)
}
