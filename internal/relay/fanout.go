package relay

import (
	"context"
	"errors"

	"tokenregistry/internal/chain"
	"tokenregistry/internal/tunnel"
)

// FanOut delivers each message to every sink in order. It reports a
// duplicate only when every sink did; any other failure stops delivery to the
// remaining sinks so the whole message is retried.
type FanOut []Sink

func (f FanOut) Deliver(ctx context.Context, msg chain.Message) error {
	duplicates := 0
	for _, sink := range f {
		err := sink.Deliver(ctx, msg)
		switch {
		case err == nil:
		case errors.Is(err, tunnel.ErrDuplicate):
			duplicates++
		default:
			return err
		}
	}
	if len(f) > 0 && duplicates == len(f) {
		return tunnel.ErrDuplicate
	}
	return nil
}
