// Package clones predicts the addresses of EIP-1167 minimal proxies deployed
// with CREATE2. The registry and any off-chain tooling must agree on these
// addresses bit for bit, so nothing here may depend on runtime state.
package clones

import (
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"tokenregistry/internal/chain"
)

var (
	// creationPrefix is the constructor that returns the 45-byte runtime.
	creationPrefix = []byte{0x3d, 0x60, 0x2d, 0x80, 0x60, 0x0a, 0x3d, 0x39, 0x81, 0xf3}
	// runtimeHead and runtimeTail surround the implementation address, which
	// occupies runtime bytes 10 through 29.
	runtimeHead = []byte{0x36, 0x3d, 0x3d, 0x37, 0x3d, 0x3d, 0x3d, 0x36, 0x3d, 0x73}
	runtimeTail = []byte{0x5a, 0xf4, 0x3d, 0x82, 0x80, 0x3e, 0x90, 0x3d, 0x91, 0x60, 0x2b, 0x57, 0xfd, 0x5b, 0xf3}
)

// RuntimeSize is the length of the proxy runtime code.
const RuntimeSize = 45

func keccak(parts ...[]byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out common.Hash
	h.Sum(out[:0])
	return out
}

// RuntimeCode returns the 45-byte proxy runtime delegating to implementation.
func RuntimeCode(implementation chain.Address) []byte {
	code := make([]byte, 0, RuntimeSize)
	code = append(code, runtimeHead...)
	code = append(code, implementation.Bytes()...)
	code = append(code, runtimeTail...)
	return code
}

// InitCode returns the creation code that deploys RuntimeCode(implementation).
func InitCode(implementation chain.Address) []byte {
	return append(append([]byte{}, creationPrefix...), RuntimeCode(implementation)...)
}

// InitCodeHash is keccak256(InitCode(implementation)).
func InitCodeHash(implementation chain.Address) common.Hash {
	return keccak(InitCode(implementation))
}

// EscrowSalt is keccak256(abi.encodePacked(registry, tokenId)).
func EscrowSalt(registry chain.Address, tokenID chain.TokenID) common.Hash {
	return keccak(registry.Bytes(), tokenID.Bytes())
}

// PredictDeterministicAddress applies the CREATE2 formula
// keccak256(0xff ++ deployer ++ salt ++ initCodeHash)[12:].
func PredictDeterministicAddress(implementation chain.Address, salt common.Hash, deployer chain.Address) chain.Address {
	digest := keccak([]byte{0xff}, deployer.Bytes(), salt.Bytes(), InitCodeHash(implementation).Bytes())
	return common.BytesToAddress(digest[12:])
}

// DeriveEscrowAddress returns the address at which factory deploys the title
// escrow clone of implementation for (registry, tokenID).
func DeriveEscrowAddress(implementation, factory, registry chain.Address, tokenID chain.TokenID) chain.Address {
	return PredictDeterministicAddress(implementation, EscrowSalt(registry, tokenID), factory)
}
