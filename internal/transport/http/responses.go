package httptransport

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"tokenregistry/internal/chain"
	"tokenregistry/internal/events"
	"tokenregistry/internal/node"
)

// DomainResponse is the typed-data domain an endorsement must be signed under.
type DomainResponse struct {
	Name              string        `json:"name"`
	Version           string        `json:"version"`
	ChainID           string        `json:"chain_id"`
	VerifyingContract chain.Address `json:"verifying_contract"`
}

type EscrowResponse struct {
	Address      chain.Address  `json:"address"`
	Beneficiary  chain.Address  `json:"beneficiary"`
	Holder       chain.Address  `json:"holder"`
	Nominee      chain.Address  `json:"nominee"`
	Active       bool           `json:"active"`
	HoldingToken bool           `json:"holding_token"`
	HolderNonce  uint64         `json:"holder_nonce"`
	Domain       DomainResponse `json:"domain"`
}

// TokenResponse is the response for GET /chains/{chainID}/tokens/{tokenID}.
type TokenResponse struct {
	ChainID     uint64          `json:"chain_id"`
	Registry    chain.Address   `json:"registry"`
	TokenID     string          `json:"token_id"`
	Exists      bool            `json:"exists"`
	Owner       *chain.Address  `json:"owner,omitempty"`
	Surrendered bool            `json:"surrendered"`
	Escrow      *EscrowResponse `json:"title_escrow,omitempty"`
}

func FromTokenView(v *node.TokenView) *TokenResponse {
	resp := &TokenResponse{
		ChainID:     v.ChainID,
		Registry:    v.Registry,
		TokenID:     hexutil.EncodeBig(v.TokenID.Big()),
		Exists:      v.Exists,
		Surrendered: v.Surrendered,
	}
	if v.Exists {
		owner := v.Owner
		resp.Owner = &owner
	}
	if e := v.Escrow; e != nil {
		resp.Escrow = &EscrowResponse{
			Address:      e.Address,
			Beneficiary:  e.Beneficiary,
			Holder:       e.Holder,
			Nominee:      e.Nominee,
			Active:       e.Active,
			HoldingToken: e.HoldingToken,
			HolderNonce:  e.HolderNonce,
			Domain: DomainResponse{
				Name:              e.Domain.Name,
				Version:           e.Domain.Version,
				VerifyingContract: e.Domain.VerifyingContract,
			},
		}
		if e.Domain.ChainID != nil {
			resp.Escrow.Domain.ChainID = e.Domain.ChainID.String()
		}
	}
	return resp
}

type EventResponse struct {
	ID         string          `json:"id"`
	Block      uint64          `json:"block"`
	LogIndex   uint            `json:"log_index"`
	Contract   chain.Address   `json:"contract"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// HistoryResponse is the response for GET .../events.
type HistoryResponse struct {
	ChainID uint64          `json:"chain_id"`
	TokenID string          `json:"token_id"`
	Events  []EventResponse `json:"events"`
}

func FromRecords(chainID uint64, tokenID chain.TokenID, records []events.Record) *HistoryResponse {
	resp := &HistoryResponse{
		ChainID: chainID,
		TokenID: hexutil.EncodeBig(tokenID.Big()),
		Events:  make([]EventResponse, 0, len(records)),
	}
	for _, r := range records {
		resp.Events = append(resp.Events, EventResponse{
			ID:         r.ID.String(),
			Block:      r.Block,
			LogIndex:   r.LogIndex,
			Contract:   r.Contract,
			Name:       r.Name,
			Payload:    r.Payload,
			OccurredAt: r.OccurredAt,
		})
	}
	return resp
}

// EscrowAddressResponse answers mint and restore.
type EscrowAddressResponse struct {
	TitleEscrow chain.Address `json:"title_escrow"`
}

// StatusResponse answers the state-changing endpoints that return nothing,
// and the health probes.
type StatusResponse struct {
	Status  string   `json:"status"`
	Failing []string `json:"failing,omitempty"`
}
