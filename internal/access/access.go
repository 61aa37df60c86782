// Package access implements role-based authorization and the pause switch
// shared by a registry and its title escrows.
package access

import (
	"github.com/ethereum/go-ethereum/crypto"

	"tokenregistry/internal/chain"
	dErrors "tokenregistry/pkg/domain-errors"
)

// Role identifies a capability. Role IDs are keccak256 of the role name, with
// the default admin role at zero.
type Role = chain.Hash

var (
	DefaultAdminRole = Role{}
	MinterRole       = crypto.Keccak256Hash([]byte("MINTER_ROLE"))
	RestorerRole     = crypto.Keccak256Hash([]byte("RESTORER_ROLE"))
	AccepterRole     = crypto.Keccak256Hash([]byte("ACCEPTER_ROLE"))
	ChainManagerRole = crypto.Keccak256Hash([]byte("CHAIN_MANAGER_ROLE"))
)

var (
	ErrUnauthorizedAccount = dErrors.Reason(dErrors.CodeUnauthorized, "AccessControlUnauthorizedAccount")
	ErrBadConfirmation     = dErrors.Reason(dErrors.CodeUnauthorized, "AccessControlBadConfirmation")
)

// RoleName returns a readable name for the built-in roles.
func RoleName(role Role) string {
	switch role {
	case DefaultAdminRole:
		return "DEFAULT_ADMIN_ROLE"
	case MinterRole:
		return "MINTER_ROLE"
	case RestorerRole:
		return "RESTORER_ROLE"
	case AccepterRole:
		return "ACCEPTER_ROLE"
	case ChainManagerRole:
		return "CHAIN_MANAGER_ROLE"
	default:
		return role.Hex()
	}
}

// Checker is the capability check contracts depend on.
type Checker interface {
	HasRole(role Role, account chain.Address) bool
}

type RoleGranted struct {
	Role    Role
	Account chain.Address
	Sender  chain.Address
}

func (RoleGranted) EventName() string { return "RoleGranted" }

type RoleRevoked struct {
	Role    Role
	Account chain.Address
	Sender  chain.Address
}

func (RoleRevoked) EventName() string { return "RoleRevoked" }

type RoleAdminChanged struct {
	Role              Role
	PreviousAdminRole Role
	NewAdminRole      Role
}

func (RoleAdminChanged) EventName() string { return "RoleAdminChanged" }

type membership struct {
	role    Role
	account chain.Address
}

// Control stores role memberships for the contract at address. Unknown
// roles and accounts are denied.
type Control struct {
	address chain.Address
	members map[membership]bool
	admins  map[Role]Role
}

// NewControl grants the default admin role to admin.
func NewControl(tx *chain.Tx, contract, admin chain.Address) *Control {
	c := &Control{
		address: contract,
		members: make(map[membership]bool),
		admins:  make(map[Role]Role),
	}
	c.grant(tx, DefaultAdminRole, admin)
	return c
}

func (c *Control) HasRole(role Role, account chain.Address) bool {
	return c.members[membership{role, account}]
}

// CheckRole fails closed when account lacks role.
func (c *Control) CheckRole(role Role, account chain.Address) error {
	if !c.HasRole(role, account) {
		return ErrUnauthorizedAccount
	}
	return nil
}

// RoleAdmin returns the role allowed to grant and revoke role.
func (c *Control) RoleAdmin(role Role) Role {
	return c.admins[role]
}

func (c *Control) GrantRole(tx *chain.Tx, role Role, account chain.Address) error {
	if err := c.CheckRole(c.RoleAdmin(role), tx.Sender()); err != nil {
		return err
	}
	c.grant(tx, role, account)
	return nil
}

func (c *Control) RevokeRole(tx *chain.Tx, role Role, account chain.Address) error {
	if err := c.CheckRole(c.RoleAdmin(role), tx.Sender()); err != nil {
		return err
	}
	c.revoke(tx, role, account)
	return nil
}

// RenounceRole lets an account drop its own role. confirmation must equal
// the caller.
func (c *Control) RenounceRole(tx *chain.Tx, role Role, confirmation chain.Address) error {
	if confirmation != tx.Sender() {
		return ErrBadConfirmation
	}
	c.revoke(tx, role, confirmation)
	return nil
}

// SetRoleAdmin changes the admin role of role. Only default admins may call it.
func (c *Control) SetRoleAdmin(tx *chain.Tx, role, adminRole Role) error {
	if err := c.CheckRole(DefaultAdminRole, tx.Sender()); err != nil {
		return err
	}
	prev := c.admins[role]
	chain.SetMap(tx, c.admins, role, adminRole)
	tx.Emit(c.address, RoleAdminChanged{Role: role, PreviousAdminRole: prev, NewAdminRole: adminRole})
	return nil
}

func (c *Control) grant(tx *chain.Tx, role Role, account chain.Address) {
	key := membership{role, account}
	if c.members[key] {
		return
	}
	chain.SetMap(tx, c.members, key, true)
	tx.Emit(c.address, RoleGranted{Role: role, Account: account, Sender: tx.Sender()})
}

func (c *Control) revoke(tx *chain.Tx, role Role, account chain.Address) {
	key := membership{role, account}
	if !c.members[key] {
		return
	}
	chain.DeleteMap(tx, c.members, key)
	tx.Emit(c.address, RoleRevoked{Role: role, Account: account, Sender: tx.Sender()})
}
