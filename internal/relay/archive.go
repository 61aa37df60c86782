package relay

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"tokenregistry/internal/chain"
	"tokenregistry/internal/tunnel"
	txcontext "tokenregistry/pkg/platform/tx"
)

const archiveAggregate = "bridge_message"

// Archive records every relayed message in the outbox table. It is an
// idempotent Sink and, for replays after a broker loss, a Source.
type Archive struct {
	db          *sql.DB
	sourceChain uint64
	clock       func() time.Time
}

// NewArchive returns an archive of messages from sourceChain.
func NewArchive(db *sql.DB, sourceChain uint64) *Archive {
	return &Archive{db: db, sourceChain: sourceChain, clock: time.Now}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (a *Archive) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return a.db
}

// Deliver inserts msg. Re-inserting a message is a no-op.
func (a *Archive) Deliver(ctx context.Context, msg chain.Message) error {
	if msg.SourceChain != a.sourceChain {
		return tunnel.ErrUnknownSource
	}
	payload, err := encodeMessage(msg)
	if err != nil {
		return fmt.Errorf("marshal archive payload: %w", err)
	}
	eventType := "unknown"
	if p, err := tunnel.DecodePayload(msg.Payload); err == nil {
		eventType = tunnel.KindName(p.Kind)
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, source_chain, seq, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = a.execer(ctx).ExecContext(ctx, query,
		msg.ID,
		archiveAggregate,
		strconv.FormatUint(msg.SourceChain, 10),
		eventType,
		int64(msg.SourceChain),
		int64(msg.Seq),
		payload,
		a.clock(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// Fetch returns archived messages after the given sequence in order.
func (a *Archive) Fetch(ctx context.Context, after uint64, limit int) ([]chain.Message, error) {
	if limit <= 0 {
		limit = defaultBatchSize
	}
	query := `
		SELECT payload
		FROM outbox
		WHERE aggregate_type = $1 AND source_chain = $2 AND seq > $3
		ORDER BY seq
		LIMIT $4
	`
	rows, err := a.db.QueryContext(ctx, query, archiveAggregate, int64(a.sourceChain), int64(after), limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var msgs []chain.Message
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		msg, err := decodeMessage(raw)
		if err != nil {
			return nil, fmt.Errorf("decode outbox entry: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return msgs, nil
}
