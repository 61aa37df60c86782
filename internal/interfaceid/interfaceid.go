// Package interfaceid computes ERC-165 interface identifiers.
package interfaceid

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// ID is a 4-byte interface identifier.
type ID [4]byte

func (id ID) String() string { return "0x" + hex.EncodeToString(id[:]) }

// Selector returns the first four bytes of keccak256(signature).
func Selector(signature string) ID {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// Compute XOR-folds the selectors of signatures. The result does not depend
// on order; no signatures yields the zero ID.
func Compute(signatures ...string) ID {
	var id ID
	for _, sig := range signatures {
		sel := Selector(sig)
		for i := range id {
			id[i] ^= sel[i]
		}
	}
	return id
}

// Signature sets advertised by the protocol contracts.
var (
	ERC165Signatures = []string{"supportsInterface(bytes4)"}

	ERC721ReceiverSignatures = []string{"onERC721Received(address,address,uint256,bytes)"}

	ERC721Signatures = []string{
		"balanceOf(address)",
		"ownerOf(uint256)",
		"safeTransferFrom(address,address,uint256,bytes)",
		"safeTransferFrom(address,address,uint256)",
		"transferFrom(address,address,uint256)",
		"approve(address,uint256)",
		"setApprovalForAll(address,bool)",
		"getApproved(uint256)",
		"isApprovedForAll(address,address)",
	}

	TitleEscrowSignatures = []string{
		"nominate(address)",
		"transferBeneficiary(address)",
		"transferHolder(address)",
		"transferOwners(address,address)",
		"beneficiary()",
		"holder()",
		"active()",
		"nominee()",
		"registry()",
		"tokenId()",
		"isHoldingToken()",
		"surrender()",
		"shred()",
	}

	TitleEscrowSignableSignatures = []string{
		"transferBeneficiaryWithSig((address,address,address,address,uint256,uint256,uint256),(bytes32,bytes32,uint8))",
		"cancelBeneficiaryTransfer((address,address,address,address,uint256,uint256,uint256))",
	}

	TokenRegistrySignatures = []string{
		"mint(address,address,uint256)",
		"burn(uint256)",
		"restore(uint256)",
		"genesis()",
		"titleEscrowFactory()",
	}
)

// Well-known identifiers.
var (
	ERC165              = Compute(ERC165Signatures...)
	ERC721Receiver      = Compute(ERC721ReceiverSignatures...)
	ERC721              = Compute(ERC721Signatures...)
	TitleEscrow         = Compute(TitleEscrowSignatures...)
	TitleEscrowSignable = Compute(TitleEscrowSignableSignatures...)
	TokenRegistry       = Compute(TokenRegistrySignatures...)
)
