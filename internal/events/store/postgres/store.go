package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"tokenregistry/internal/chain"
	"tokenregistry/internal/events"
	txcontext "tokenregistry/pkg/platform/tx"
)

// Store implements events.Store on the chain_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts records in one transaction, joining one already in ctx.
// Logs already stored are ignored via ON CONFLICT DO NOTHING.
func (s *Store) Append(ctx context.Context, records []events.Record) error {
	err := txcontext.Run(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.insert(ctx, tx, records)
	})
	if err != nil {
		return fmt.Errorf("append chain events: %w", err)
	}
	return nil
}

func (s *Store) insert(ctx context.Context, tx *sql.Tx, records []events.Record) error {
	query := `
		INSERT INTO chain_events (
			id, chain_id, block, log_index, contract, registry,
			token_id, name, payload, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (chain_id, block, log_index) DO NOTHING
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var tokenID *string
		if r.TokenID != nil {
			hex := r.TokenID.Hex()
			tokenID = &hex
		}
		_, err := stmt.ExecContext(ctx,
			r.ID,
			int64(r.ChainID),
			int64(r.Block),
			int(r.LogIndex),
			r.Contract.Hex(),
			r.Registry.Hex(),
			tokenID,
			r.Name,
			[]byte(r.Payload),
			r.OccurredAt,
		)
		if err != nil {
			return fmt.Errorf("insert chain event: %w", err)
		}
	}
	return nil
}

// ListByToken returns the history of a document in commit order.
func (s *Store) ListByToken(ctx context.Context, chainID uint64, registry chain.Address, tokenID chain.TokenID) ([]events.Record, error) {
	query := `
		SELECT id, chain_id, block, log_index, contract, registry,
			   token_id, name, payload, occurred_at
		FROM chain_events
		WHERE chain_id = $1 AND registry = $2 AND token_id = $3
		ORDER BY block, log_index
	`
	rows, err := s.db.QueryContext(ctx, query, int64(chainID), registry.Hex(), tokenID.Hex())
	if err != nil {
		return nil, fmt.Errorf("query chain events: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]events.Record, error) {
	var out []events.Record
	for rows.Next() {
		var (
			r                  events.Record
			chainID, block     int64
			logIndex           int
			contract, registry string
			tokenID            sql.NullString
			payload            []byte
		)
		err := rows.Scan(
			&r.ID,
			&chainID,
			&block,
			&logIndex,
			&contract,
			&registry,
			&tokenID,
			&r.Name,
			&payload,
			&r.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chain event: %w", err)
		}
		r.ChainID, r.Block, r.LogIndex = uint64(chainID), uint64(block), uint(logIndex)
		r.Contract = common.HexToAddress(contract)
		r.Registry = common.HexToAddress(registry)
		if tokenID.Valid {
			id := common.HexToHash(tokenID.String)
			r.TokenID = &id
		}
		r.Payload = payload
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chain events: %w", err)
	}
	return out, nil
}
