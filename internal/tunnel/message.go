package tunnel

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"tokenregistry/internal/chain"
)

// Message kinds carried in the first word of every payload.
var (
	KindDeposit  = crypto.Keccak256Hash([]byte("DEPOSIT"))
	KindWithdraw = crypto.Keccak256Hash([]byte("WITHDRAW"))
)

var payloadArgs = chain.Arguments("bytes32", "address", "address", "uint256", "bytes")

// Payload is the body of a tunnel message: abi.encode(kind, token, account,
// tokenId, data). Token is the registry on the sending chain; Account is the
// depositor or withdrawer, who becomes sole owner on the receiving chain.
type Payload struct {
	Kind    chain.Hash
	Token   chain.Address
	Account chain.Address
	TokenID chain.TokenID
	Data    []byte
}

func (p Payload) Encode() []byte {
	data := p.Data
	if data == nil {
		data = []byte{}
	}
	out, err := payloadArgs.Pack([32]byte(p.Kind), p.Token, p.Account, p.TokenID.Big(), data)
	if err != nil {
		// Every field has a fixed ABI type.
		panic(err)
	}
	return out
}

// DecodePayload parses an encoded payload. It does not check the kind.
func DecodePayload(b []byte) (Payload, error) {
	values, err := payloadArgs.Unpack(b)
	if err != nil {
		return Payload{}, fmt.Errorf("decode tunnel payload: %w", err)
	}
	kind, ok1 := values[0].([32]byte)
	token, ok2 := values[1].(chain.Address)
	account, ok3 := values[2].(chain.Address)
	tokenID, ok4 := values[3].(*big.Int)
	data, ok5 := values[4].([]byte)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return Payload{}, fmt.Errorf("decode tunnel payload: unexpected field types")
	}
	return Payload{
		Kind:    chain.Hash(kind),
		Token:   token,
		Account: account,
		TokenID: chain.TokenIDFromBig(tokenID),
		Data:    data,
	}, nil
}

// KindName returns a readable name for logs.
func KindName(kind chain.Hash) string {
	switch kind {
	case KindDeposit:
		return "deposit"
	case KindWithdraw:
		return "withdraw"
	default:
		return "unknown"
	}
}
