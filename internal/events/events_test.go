package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"tokenregistry/internal/access"
	"tokenregistry/internal/chain"
	"tokenregistry/internal/events"
	"tokenregistry/internal/events/store/memory"
	"tokenregistry/internal/platform/metrics"
	"tokenregistry/internal/registry"
	"tokenregistry/internal/registry/registrytest"
	"tokenregistry/internal/titleescrow"
)

func TestFromLog(t *testing.T) {
	tokenID := chain.TokenIDFromUint64(7)
	reg := registrytest.Account("registry")
	escrow := registrytest.Account("escrow")
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("escrow events are attributed to their registry", func(t *testing.T) {
		r, err := events.FromLog(chain.Log{
			ChainID: 1, Address: escrow, Block: 4, Index: 2, Timestamp: at,
			Event: titleescrow.Surrender{SurrenderedBy: escrow, Registry: reg, TokenID: tokenID},
		})
		require.NoError(t, err)
		assert.Equal(t, events.RecordID(1, 4, 2), r.ID)
		assert.Equal(t, escrow, r.Contract)
		assert.Equal(t, reg, r.Registry)
		require.NotNil(t, r.TokenID)
		assert.Equal(t, tokenID, *r.TokenID)
		assert.Equal(t, "Surrender", r.Name)
		assert.Equal(t, at, r.OccurredAt)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(r.Payload, &payload))
		assert.Equal(t, tokenID.Hex(), payload["TokenID"])
	})

	t.Run("registry events are attributed to the emitter", func(t *testing.T) {
		r, err := events.FromLog(chain.Log{
			ChainID: 1, Address: reg,
			Event: registry.Transfer{From: chain.ZeroAddress, To: escrow, TokenID: tokenID},
		})
		require.NoError(t, err)
		assert.Equal(t, reg, r.Registry)
		require.NotNil(t, r.TokenID)
	})

	t.Run("events about no document carry no token", func(t *testing.T) {
		r, err := events.FromLog(chain.Log{
			ChainID: 1, Address: reg,
			Event: access.RoleGranted{Role: access.MinterRole, Account: escrow, Sender: reg},
		})
		require.NoError(t, err)
		assert.Nil(t, r.TokenID)
	})
}

// =============================================================================
// Sink Test Suite
// =============================================================================
// The sink is attached to a live chain so records come from real commits.

type SinkSuite struct {
	suite.Suite
	store   *memory.InMemoryStore
	metrics *metrics.Metrics
	env     *registrytest.Env
	alice   chain.Address
	tokenID chain.TokenID
}

func TestSinkSuite(t *testing.T) {
	suite.Run(t, new(SinkSuite))
}

func (s *SinkSuite) SetupTest() {
	s.store = memory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.env = registrytest.New(s.T(), 1, chain.WithEventSink(events.NewSink(s.store, events.WithMetrics(s.metrics))))
	s.alice = registrytest.Account("alice")
	s.tokenID = chain.TokenIDFromUint64(0xd0c)
}

func (s *SinkSuite) history() []string {
	records, err := s.store.ListByToken(context.Background(), 1, s.env.Registry.Address(), s.tokenID)
	s.Require().NoError(err)
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	return names
}

func (s *SinkSuite) TestTokenHistory() {
	escrow := s.env.Mint(s.alice, s.alice, s.tokenID)
	s.Equal([]string{"TitleEscrowCreated", "Transfer", "TokenReceived"}, s.history())

	s.env.MustExec(s.alice, func(tx *chain.Tx) error {
		return escrow.Surrender(tx)
	})
	s.Equal([]string{"TitleEscrowCreated", "Transfer", "TokenReceived", "Surrender", "Transfer"}, s.history())

	other, err := s.store.ListByToken(context.Background(), 1, s.env.Registry.Address(), chain.TokenIDFromUint64(1))
	s.Require().NoError(err)
	s.Empty(other)
	s.Positive(testutil.ToFloat64(s.metrics.EventsPersisted.WithLabelValues("1")))
}

func (s *SinkSuite) TestRevertedTransactionsLeaveNoRecords() {
	err := s.env.Exec(s.alice, func(tx *chain.Tx) error {
		_, err := s.env.Registry.Mint(tx, s.alice, s.alice, s.tokenID)
		return err
	})
	s.ErrorIs(err, access.ErrUnauthorizedAccount)
	s.Empty(s.history())
}

func (s *SinkSuite) TestAppendIsIdempotent() {
	s.env.Mint(s.alice, s.alice, s.tokenID)
	records, err := s.store.ListByToken(context.Background(), 1, s.env.Registry.Address(), s.tokenID)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Append(context.Background(), records))
	s.Len(s.history(), len(records))
}

// =============================================================================
// Queue and Worker
// =============================================================================

type failingStore struct {
	events.Store
	calls atomic.Int32
}

func (f *failingStore) Append(context.Context, []events.Record) error {
	f.calls.Add(1)
	return errors.New("database unavailable")
}

func TestQueueWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.NewInMemoryStore()
	queue := events.NewQueue(16)
	env := registrytest.New(t, 1, chain.WithEventSink(queue))
	worker := events.NewWorker(store, queue)
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	tokenID := chain.TokenIDFromUint64(9)
	env.Mint(env.Admin, env.Admin, tokenID)

	require.Eventually(t, func() bool {
		records, err := store.ListByToken(ctx, 1, env.Registry.Address(), tokenID)
		return err == nil && len(records) == 3
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWorkerSurvivesStoreErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &failingStore{}
	queue := events.NewQueue(16)
	env := registrytest.New(t, 1, chain.WithEventSink(queue))
	done := make(chan error, 1)
	go func() { done <- events.NewWorker(store, queue).Run(ctx) }()

	env.Mint(env.Admin, env.Admin, chain.TokenIDFromUint64(1))
	env.Mint(env.Admin, env.Admin, chain.TokenIDFromUint64(2))

	// Deployment, then one batch per mint.
	require.Eventually(t, func() bool { return store.calls.Load() == 3 }, time.Second, 10*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
