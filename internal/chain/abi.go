package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var addressPairArgs = mustArguments("address", "address")

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, 0, len(types))
	for _, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(fmt.Sprintf("abi type %s: %v", t, err))
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args
}

// Arguments builds an ABI argument list from Solidity type names. It panics on
// unknown types and is meant for package-level codecs.
func Arguments(types ...string) abi.Arguments {
	return mustArguments(types...)
}

// EncodeOwners ABI-encodes a (beneficiary, holder) pair as abi.encode would.
func EncodeOwners(beneficiary, holder Address) []byte {
	data, err := addressPairArgs.Pack(beneficiary, holder)
	if err != nil {
		// Two addresses always pack.
		panic(err)
	}
	return data
}

// DecodeOwners reverses EncodeOwners.
func DecodeOwners(data []byte) (beneficiary, holder Address, err error) {
	values, err := addressPairArgs.Unpack(data)
	if err != nil {
		return Address{}, Address{}, fmt.Errorf("decode owners: %w", err)
	}
	return values[0].(Address), values[1].(Address), nil
}
