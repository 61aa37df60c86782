package eip712

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"tokenregistry/internal/chain"
)

func mustKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key
}

func sampleTransfer(holder chain.Address) BeneficiaryTransfer {
	return BeneficiaryTransfer{
		Beneficiary: common.HexToAddress("0x00000000000000000000000000000000000000b1"),
		Holder:      holder,
		Nominee:     common.HexToAddress("0x00000000000000000000000000000000000000b2"),
		Registry:    common.HexToAddress("0x00000000000000000000000000000000000000ee"),
		TokenID:     chain.TokenIDFromUint64(99),
		Deadline:    big.NewInt(1_900_000_000),
		Nonce:       big.NewInt(0),
	}
}

// The hand-rolled encoding must match go-ethereum's generic typed-data
// encoder, which is what wallets implement.
func TestDigestMatchesGenericTypedDataEncoder(t *testing.T) {
	escrow := common.HexToAddress("0x00000000000000000000000000000000000e5c40")
	domain := NewDomain(big.NewInt(11155111), escrow)
	transfer := sampleTransfer(common.HexToAddress("0x00000000000000000000000000000000000000a1"))

	typed := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"BeneficiaryTransfer": []apitypes.Type{
				{Name: "beneficiary", Type: "address"},
				{Name: "holder", Type: "address"},
				{Name: "nominee", Type: "address"},
				{Name: "registry", Type: "address"},
				{Name: "tokenId", Type: "uint256"},
				{Name: "deadline", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
			},
		},
		PrimaryType: "BeneficiaryTransfer",
		Domain: apitypes.TypedDataDomain{
			Name:              DomainName,
			Version:           DomainVersion,
			ChainId:           math.NewHexOrDecimal256(11155111),
			VerifyingContract: escrow.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"beneficiary": transfer.Beneficiary.Hex(),
			"holder":      transfer.Holder.Hex(),
			"nominee":     transfer.Nominee.Hex(),
			"registry":    transfer.Registry.Hex(),
			"tokenId":     transfer.TokenID.Big().String(),
			"deadline":    transfer.Deadline.String(),
			"nonce":       transfer.Nonce.String(),
		},
	}

	want, _, err := apitypes.TypedDataAndHash(typed)
	require.NoError(t, err)
	assert.Equal(t, want, Digest(domain, transfer.StructHash()).Bytes())
}

func TestSignAndRecover(t *testing.T) {
	key := mustKey(t)
	signer := crypto.PubkeyToAddress(key.PublicKey)
	domain := NewDomain(big.NewInt(1), common.HexToAddress("0x1"))
	transfer := sampleTransfer(signer)

	sig, err := Sign(key, domain, transfer)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)
	assert.Contains(t, []byte{27, 28}, sig[64])

	got, err := Recover(domain, transfer, sig)
	require.NoError(t, err)
	assert.Equal(t, signer, got)

	t.Run("v in 0/1 form is accepted", func(t *testing.T) {
		raw := append([]byte(nil), sig...)
		raw[64] -= 27
		got, err := Recover(domain, transfer, raw)
		require.NoError(t, err)
		assert.Equal(t, signer, got)
	})

	t.Run("other domain recovers someone else", func(t *testing.T) {
		other := NewDomain(big.NewInt(2), domain.VerifyingContract)
		got, err := Recover(other, transfer, sig)
		if err == nil {
			assert.NotEqual(t, signer, got)
		}
	})

	t.Run("short signature is rejected", func(t *testing.T) {
		_, err := Recover(domain, transfer, sig[:64])
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("high s is rejected", func(t *testing.T) {
		n := crypto.S256().Params().N
		raw := append([]byte(nil), sig...)
		s := new(big.Int).SetBytes(raw[32:64])
		copy(raw[32:64], common.LeftPadBytes(new(big.Int).Sub(n, s).Bytes(), 32))
		raw[64] = (raw[64] - 27) ^ 1
		_, err := Recover(domain, transfer, raw)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}

type AuthorizerSuite struct {
	suite.Suite
	chain  *chain.Chain
	now    time.Time
	key    *ecdsa.PrivateKey
	holder chain.Address
	auth   *Authorizer
}

func TestAuthorizerSuite(t *testing.T) {
	suite.Run(t, new(AuthorizerSuite))
}

func (s *AuthorizerSuite) SetupTest() {
	s.now = time.Unix(1_800_000_000, 0)
	s.chain = chain.New(chain.Config{ChainID: big.NewInt(1)}, chain.WithClock(func() time.Time { return s.now }))
	s.key = mustKey(s.T())
	s.holder = crypto.PubkeyToAddress(s.key.PublicKey)
	s.auth = NewAuthorizer(NewDomain(big.NewInt(1), common.HexToAddress("0xe5c")))
}

func (s *AuthorizerSuite) verify(t BeneficiaryTransfer, sig []byte) error {
	_, err := s.chain.Execute(context.Background(), s.holder, func(tx *chain.Tx) error {
		return s.auth.Verify(tx, t, sig, s.holder)
	})
	return err
}

func (s *AuthorizerSuite) sign(t BeneficiaryTransfer) []byte {
	sig, err := Sign(s.key, s.auth.Domain(), t)
	s.Require().NoError(err)
	return sig
}

func (s *AuthorizerSuite) TestValidSignature() {
	t := sampleTransfer(s.holder)
	s.NoError(s.verify(t, s.sign(t)))
}

func (s *AuthorizerSuite) TestExpired() {
	t := sampleTransfer(s.holder)
	t.Deadline = big.NewInt(s.now.Unix() - 1)
	s.ErrorIs(s.verify(t, s.sign(t)), ErrSignatureExpired)
}

func (s *AuthorizerSuite) TestDeadlineIsInclusive() {
	t := sampleTransfer(s.holder)
	t.Deadline = big.NewInt(s.now.Unix())
	s.NoError(s.verify(t, s.sign(t)))
}

func (s *AuthorizerSuite) TestCancelled() {
	t := sampleTransfer(s.holder)
	sig := s.sign(t)
	_, err := s.chain.Execute(context.Background(), s.holder, func(tx *chain.Tx) error {
		s.auth.Cancel(tx, t.StructHash())
		return nil
	})
	s.Require().NoError(err)
	s.True(s.auth.IsCancelled(t.StructHash()))
	s.ErrorIs(s.verify(t, sig), ErrSignatureAlreadyCancelled)
}

func (s *AuthorizerSuite) TestStaleNonce() {
	t := sampleTransfer(s.holder)
	sig := s.sign(t)
	_, err := s.chain.Execute(context.Background(), s.holder, func(tx *chain.Tx) error {
		s.auth.IncrementNonce(tx, s.holder)
		return nil
	})
	s.Require().NoError(err)
	s.Equal(uint64(1), s.auth.Nonce(s.holder))
	s.ErrorIs(s.verify(t, sig), ErrInvalidSignature)
}

func (s *AuthorizerSuite) TestWrongSigner() {
	t := sampleTransfer(s.holder)
	other := mustKey(s.T())
	sig, err := Sign(other, s.auth.Domain(), t)
	s.Require().NoError(err)
	s.ErrorIs(s.verify(t, sig), ErrInvalidSignature)
}

func (s *AuthorizerSuite) TestRevertedCancelLeavesNoTrace() {
	t := sampleTransfer(s.holder)
	_, err := s.chain.Execute(context.Background(), s.holder, func(tx *chain.Tx) error {
		s.auth.Cancel(tx, t.StructHash())
		s.auth.IncrementNonce(tx, s.holder)
		return ErrInvalidSignature
	})
	s.ErrorIs(err, ErrInvalidSignature)
	s.False(s.auth.IsCancelled(t.StructHash()))
	s.Equal(uint64(0), s.auth.Nonce(s.holder))
}
