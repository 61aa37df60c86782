package chain

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	dErrors "tokenregistry/pkg/domain-errors"
)

// Address is a 20-byte account or contract address.
type Address = common.Address

// Hash is a 32-byte keccak digest.
type Hash = common.Hash

// TokenID is a 256-bit document identifier stored big-endian.
type TokenID = common.Hash

// ZeroAddress is the unset address.
var ZeroAddress = Address{}

// TokenIDFromBig converts an integer token ID. Values wider than 256 bits are
// truncated to the low 256 bits, matching uint256 semantics.
func TokenIDFromBig(v *big.Int) TokenID {
	return common.BigToHash(v)
}

// TokenIDFromUint64 is a convenience for small numeric token IDs.
func TokenIDFromUint64(v uint64) TokenID {
	return common.BigToHash(new(big.Int).SetUint64(v))
}

// ParseTokenID accepts a 0x-prefixed hex string of up to 32 bytes or a
// decimal integer.
func ParseTokenID(s string) (TokenID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TokenID{}, dErrors.New(dErrors.CodeBadRequest, "token id is required")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if len(s) > 66 {
			return TokenID{}, dErrors.New(dErrors.CodeBadRequest, "token id exceeds 32 bytes")
		}
		v, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return TokenID{}, dErrors.New(dErrors.CodeBadRequest, "token id is not valid hex")
		}
		return TokenIDFromBig(v), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 || v.BitLen() > 256 {
		return TokenID{}, dErrors.New(dErrors.CodeBadRequest, "token id is not a uint256")
	}
	return TokenIDFromBig(v), nil
}

// ParseAddress validates a hex address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return Address{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("invalid address %q", s))
	}
	return common.HexToAddress(s), nil
}

// Event is a typed log entry emitted by a contract.
type Event interface {
	EventName() string
}

// Log is a committed event with its position in the chain.
type Log struct {
	ChainID   uint64
	Address   Address
	Block     uint64
	Index     uint
	Timestamp time.Time
	Event     Event
}

// Message is a committed outbound cross-chain message. Seq is assigned in
// commit order and never reused; ID is derived from (SourceChain, Seq).
type Message struct {
	ID          uuid.UUID
	SourceChain uint64
	Seq         uint64
	Sender      Address
	Target      Address
	Block       uint64
	Payload     []byte
}

// MessageID is the stable identifier of the seq-th message of a chain.
func MessageID(sourceChain, seq uint64) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "tokenregistry/%d/%d", sourceChain, seq))
}

// Receipt summarizes a committed transaction.
type Receipt struct {
	Block    uint64
	Logs     []Log
	Messages []Message
}
