// Package eip712 hashes, signs and verifies the typed-data authorizations a
// holder gives for a beneficiary transfer.
//
// The type strings and field order are fixed: a signature produced by any
// standard EIP-712 wallet over the same struct must verify here.
package eip712

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"tokenregistry/internal/chain"
	dErrors "tokenregistry/pkg/domain-errors"
)

const (
	DomainName    = "TradeTrust"
	DomainVersion = "1"

	DomainType              = "EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"
	BeneficiaryTransferType = "BeneficiaryTransfer(address beneficiary,address holder,address nominee,address registry,uint256 tokenId,uint256 deadline,uint256 nonce)"

	// SignatureLength is r || s || v.
	SignatureLength = 65
)

var (
	domainTypeHash              = crypto.Keccak256Hash([]byte(DomainType))
	beneficiaryTransferTypeHash = crypto.Keccak256Hash([]byte(BeneficiaryTransferType))
)

// Domain scopes signatures to one contract on one chain.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract chain.Address
}

// NewDomain returns the protocol domain for a verifying contract.
func NewDomain(chainID *big.Int, verifyingContract chain.Address) Domain {
	return Domain{
		Name:              DomainName,
		Version:           DomainVersion,
		ChainID:           chainID,
		VerifyingContract: verifyingContract,
	}
}

// Separator is the EIP-712 domain separator.
func (d Domain) Separator() chain.Hash {
	return crypto.Keccak256Hash(
		domainTypeHash.Bytes(),
		crypto.Keccak256([]byte(d.Name)),
		crypto.Keccak256([]byte(d.Version)),
		word(d.ChainID),
		common.LeftPadBytes(d.VerifyingContract.Bytes(), 32),
	)
}

// BeneficiaryTransfer is the struct a holder signs to let the beneficiary
// hand the beneficiary role to nominee.
type BeneficiaryTransfer struct {
	Beneficiary chain.Address
	Holder      chain.Address
	Nominee     chain.Address
	Registry    chain.Address
	TokenID     chain.TokenID
	Deadline    *big.Int
	Nonce       *big.Int
}

// StructHash is hashStruct(BeneficiaryTransfer).
func (t BeneficiaryTransfer) StructHash() chain.Hash {
	return crypto.Keccak256Hash(
		beneficiaryTransferTypeHash.Bytes(),
		common.LeftPadBytes(t.Beneficiary.Bytes(), 32),
		common.LeftPadBytes(t.Holder.Bytes(), 32),
		common.LeftPadBytes(t.Nominee.Bytes(), 32),
		common.LeftPadBytes(t.Registry.Bytes(), 32),
		t.TokenID.Bytes(),
		word(t.Deadline),
		word(t.Nonce),
	)
}

// Digest is keccak256("\x19\x01" ++ domainSeparator ++ structHash).
func Digest(d Domain, structHash chain.Hash) chain.Hash {
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, d.Separator().Bytes(), structHash.Bytes())
}

// Sign produces a 65-byte signature with v in {27, 28}.
func Sign(key *ecdsa.PrivateKey, d Domain, t BeneficiaryTransfer) ([]byte, error) {
	digest := Digest(d, t.StructHash())
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "sign beneficiary transfer")
	}
	sig[64] += 27
	return sig, nil
}

// Recover returns the signer of t under d. Malformed or malleable signatures
// fail with ErrInvalidSignature.
func Recover(d Domain, t BeneficiaryTransfer, sig []byte) (chain.Address, error) {
	if len(sig) != SignatureLength {
		return chain.Address{}, ErrInvalidSignature
	}
	normalized := append([]byte(nil), sig...)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	r := new(big.Int).SetBytes(normalized[:32])
	s := new(big.Int).SetBytes(normalized[32:64])
	if !crypto.ValidateSignatureValues(normalized[64], r, s, true) {
		return chain.Address{}, ErrInvalidSignature
	}
	digest := Digest(d, t.StructHash())
	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return chain.Address{}, ErrInvalidSignature
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func word(v *big.Int) []byte {
	if v == nil {
		return make([]byte, 32)
	}
	return common.LeftPadBytes(v.Bytes(), 32)
}
