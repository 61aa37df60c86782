// Package events persists committed chain logs for provenance queries.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"tokenregistry/internal/chain"
)

// Record is one persisted log. Registry and TokenID locate the document the
// log is about; logs that concern no document leave TokenID nil.
type Record struct {
	ID         uuid.UUID
	ChainID    uint64
	Block      uint64
	LogIndex   uint
	Contract   chain.Address
	Registry   chain.Address
	TokenID    *chain.TokenID
	Name       string
	Payload    json.RawMessage
	OccurredAt time.Time
}

// Store persists records. Append is idempotent on (ChainID, Block, LogIndex).
type Store interface {
	Append(ctx context.Context, records []Record) error
	// ListByToken returns the history of a document in commit order.
	ListByToken(ctx context.Context, chainID uint64, registry chain.Address, tokenID chain.TokenID) ([]Record, error)
}

// RecordID is the stable identifier of a log.
func RecordID(chainID, block uint64, index uint) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "tokenregistry/%d/log/%d/%d", chainID, block, index))
}

var (
	addressType = reflect.TypeFor[chain.Address]()
	tokenIDType = reflect.TypeFor[chain.TokenID]()
)

// FromLog converts a committed log. Events carrying a TokenID field are
// attributed to their Registry field, or to the emitting contract when they
// have none.
func FromLog(l chain.Log) (Record, error) {
	payload, err := json.Marshal(l.Event)
	if err != nil {
		return Record{}, fmt.Errorf("marshal %s: %w", l.Event.EventName(), err)
	}
	r := Record{
		ID:         RecordID(l.ChainID, l.Block, l.Index),
		ChainID:    l.ChainID,
		Block:      l.Block,
		LogIndex:   l.Index,
		Contract:   l.Address,
		Registry:   l.Address,
		Name:       l.Event.EventName(),
		Payload:    payload,
		OccurredAt: l.Timestamp,
	}

	v := reflect.Indirect(reflect.ValueOf(l.Event))
	if v.Kind() != reflect.Struct {
		return r, nil
	}
	if f := v.FieldByName("TokenID"); f.IsValid() && f.Type() == tokenIDType {
		id := f.Interface().(chain.TokenID)
		r.TokenID = &id
	}
	if f := v.FieldByName("Registry"); f.IsValid() && f.Type() == addressType {
		r.Registry = f.Interface().(chain.Address)
	}
	return r, nil
}
