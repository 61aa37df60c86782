//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"tokenregistry/internal/chain"
	"tokenregistry/internal/events"
	"tokenregistry/internal/events/store/postgres"
	"tokenregistry/internal/registry"
	"tokenregistry/internal/registry/registrytest"
	txcontext "tokenregistry/pkg/platform/tx"
	"tokenregistry/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx   context.Context
	pg    *containers.PostgresContainer
	store *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = postgres.New(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx))
}

func (s *PostgresStoreSuite) TestHistoryFromLiveChain() {
	env := registrytest.New(s.T(), 5, chain.WithEventSink(events.NewSink(s.store)))
	alice := registrytest.Account("alice")
	tokenID := chain.TokenIDFromUint64(0xd0c)

	escrow := env.Mint(alice, alice, tokenID)
	env.MustExec(alice, func(tx *chain.Tx) error {
		return escrow.Surrender(tx)
	})

	records, err := s.store.ListByToken(s.ctx, 5, env.Registry.Address(), tokenID)
	s.Require().NoError(err)
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	s.Equal([]string{"TitleEscrowCreated", "Transfer", "TokenReceived", "Surrender", "Transfer"}, names)
	s.Equal(escrow.Address(), records[2].Contract)
	s.Require().NotNil(records[2].TokenID)
	s.Equal(tokenID, *records[2].TokenID)
	s.Contains(string(records[3].Payload), `"SurrenderedBy"`)

	s.Run("append is idempotent", func() {
		s.Require().NoError(s.store.Append(s.ctx, records))
		again, err := s.store.ListByToken(s.ctx, 5, env.Registry.Address(), tokenID)
		s.Require().NoError(err)
		s.Len(again, len(records))
	})
}

func (s *PostgresStoreSuite) TestAppendJoinsOuterTransaction() {
	tokenID := chain.TokenIDFromUint64(1)
	reg := registrytest.Account("registry")
	record, err := events.FromLog(chain.Log{ChainID: 9, Address: reg, Block: 1, Event: registry.Transfer{To: reg, TokenID: tokenID}})
	s.Require().NoError(err)

	tx, err := s.pg.DB.BeginTx(s.ctx, nil)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Append(txcontext.WithTx(s.ctx, tx), []events.Record{record}))
	s.Require().NoError(tx.Rollback())

	records, err := s.store.ListByToken(s.ctx, 9, reg, tokenID)
	s.Require().NoError(err)
	s.Empty(records, "rolled back with the outer transaction")
}
