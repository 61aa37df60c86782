package httptransport

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"tokenregistry/internal/chain"
	"tokenregistry/internal/eip712"
	dErrors "tokenregistry/pkg/domain-errors"
)

const maxDataBytes = 4096

func parseAddressField(field, value string) (chain.Address, error) {
	if strings.TrimSpace(value) == "" {
		return chain.Address{}, dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	addr, err := chain.ParseAddress(value)
	if err != nil {
		return chain.Address{}, dErrors.New(dErrors.CodeValidation, field+" must be a hex address")
	}
	return addr, nil
}

func parseUint256Field(field, value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	v, ok := new(big.Int).SetString(value, 0)
	if !ok || v.Sign() < 0 || v.BitLen() > 256 {
		return nil, dErrors.New(dErrors.CodeValidation, field+" must be a uint256")
	}
	return v, nil
}

// MintRequest is the body of POST /chains/{chainID}/tokens.
type MintRequest struct {
	TokenID     string `json:"token_id"`
	Beneficiary string `json:"beneficiary"`
	Holder      string `json:"holder"`

	tokenID     chain.TokenID
	beneficiary chain.Address
	holder      chain.Address
}

func (r *MintRequest) Validate() error {
	var err error
	if r.tokenID, err = chain.ParseTokenID(r.TokenID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "token_id must be a uint256")
	}
	if r.beneficiary, err = parseAddressField("beneficiary", r.Beneficiary); err != nil {
		return err
	}
	if r.holder, err = parseAddressField("holder", r.Holder); err != nil {
		return err
	}
	return nil
}

// NomineeRequest is the body of the nominate and transfer-beneficiary
// endpoints.
type NomineeRequest struct {
	Nominee string `json:"nominee"`

	nominee chain.Address
}

func (r *NomineeRequest) Validate() error {
	var err error
	r.nominee, err = parseAddressField("nominee", r.Nominee)
	return err
}

// HolderRequest is the body of POST .../transfer-holder.
type HolderRequest struct {
	Holder string `json:"holder"`

	holder chain.Address
}

func (r *HolderRequest) Validate() error {
	var err error
	r.holder, err = parseAddressField("holder", r.Holder)
	return err
}

// OwnersRequest is the body of POST .../transfer-owners.
type OwnersRequest struct {
	Nominee string `json:"nominee"`
	Holder  string `json:"holder"`

	nominee chain.Address
	holder  chain.Address
}

func (r *OwnersRequest) Validate() error {
	var err error
	if r.nominee, err = parseAddressField("nominee", r.Nominee); err != nil {
		return err
	}
	r.holder, err = parseAddressField("holder", r.Holder)
	return err
}

// Endorsement is a beneficiary transfer authorised by the holder. Deadline
// and nonce are decimal or 0x-prefixed integers.
type Endorsement struct {
	Beneficiary string `json:"beneficiary"`
	Holder      string `json:"holder"`
	Nominee     string `json:"nominee"`
	Registry    string `json:"registry"`
	TokenID     string `json:"token_id"`
	Deadline    string `json:"deadline"`
	Nonce       string `json:"nonce"`
}

func (e Endorsement) parse() (eip712.BeneficiaryTransfer, error) {
	var (
		t   eip712.BeneficiaryTransfer
		err error
	)
	if t.Beneficiary, err = parseAddressField("endorsement.beneficiary", e.Beneficiary); err != nil {
		return t, err
	}
	if t.Holder, err = parseAddressField("endorsement.holder", e.Holder); err != nil {
		return t, err
	}
	if t.Nominee, err = parseAddressField("endorsement.nominee", e.Nominee); err != nil {
		return t, err
	}
	if t.Registry, err = parseAddressField("endorsement.registry", e.Registry); err != nil {
		return t, err
	}
	if t.TokenID, err = chain.ParseTokenID(e.TokenID); err != nil {
		return t, dErrors.New(dErrors.CodeValidation, "endorsement.token_id must be a uint256")
	}
	if t.Deadline, err = parseUint256Field("endorsement.deadline", e.Deadline); err != nil {
		return t, err
	}
	if t.Nonce, err = parseUint256Field("endorsement.nonce", e.Nonce); err != nil {
		return t, err
	}
	return t, nil
}

// SignedTransferRequest is the body of POST .../transfer-beneficiary-with-sig.
type SignedTransferRequest struct {
	Endorsement Endorsement `json:"endorsement"`
	Signature   string      `json:"signature"`

	transfer  eip712.BeneficiaryTransfer
	signature []byte
}

func (r *SignedTransferRequest) Validate() error {
	var err error
	if r.transfer, err = r.Endorsement.parse(); err != nil {
		return err
	}
	r.signature, err = hexutil.Decode(strings.TrimSpace(r.Signature))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "signature must be 0x-prefixed hex")
	}
	return nil
}

// CancelRequest is the body of POST .../cancel-beneficiary-transfer.
type CancelRequest struct {
	Endorsement Endorsement `json:"endorsement"`

	transfer eip712.BeneficiaryTransfer
}

func (r *CancelRequest) Validate() error {
	var err error
	r.transfer, err = r.Endorsement.parse()
	return err
}

// BridgeRequest is the body of POST .../bridge. Data is optional opaque
// calldata carried with the document.
type BridgeRequest struct {
	Data string `json:"data,omitempty"`

	data []byte
}

func (r *BridgeRequest) Validate() error {
	r.Data = strings.TrimSpace(r.Data)
	if r.Data == "" {
		return nil
	}
	data, err := hexutil.Decode(r.Data)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "data must be 0x-prefixed hex")
	}
	if len(data) > maxDataBytes {
		return dErrors.New(dErrors.CodeValidation, "data exceeds 4096 bytes")
	}
	r.data = data
	return nil
}
