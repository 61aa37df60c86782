package relay

import (
	"context"

	"tokenregistry/internal/chain"
)

// ChainSource reads the outbox of a chain.
type ChainSource struct {
	chain *chain.Chain
}

func NewChainSource(c *chain.Chain) *ChainSource {
	return &ChainSource{chain: c}
}

func (s *ChainSource) Fetch(ctx context.Context, after uint64, limit int) ([]chain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.chain.MessagesAfter(after, limit), nil
}
