package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	dErrors "tokenregistry/pkg/domain-errors"
)

type pinged struct{ N int }

func (pinged) EventName() string { return "Pinged" }

type recordingSink struct{ logs []Log }

func (s *recordingSink) Consume(_ context.Context, logs []Log) {
	s.logs = append(s.logs, logs...)
}

type ChainSuite struct {
	suite.Suite
	chain *Chain
	sink  *recordingSink
	now   time.Time
	alice Address
	bob   Address
}

func TestChainSuite(t *testing.T) {
	suite.Run(t, new(ChainSuite))
}

func (s *ChainSuite) SetupTest() {
	s.now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.sink = &recordingSink{}
	s.chain = New(Config{ChainID: big.NewInt(11155111), Name: "root"},
		WithClock(func() time.Time { return s.now }),
		WithEventSink(s.sink),
	)
	s.alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	s.bob = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
}

func (s *ChainSuite) TestCommitAssignsBlocksAndLogs() {
	contract := common.HexToAddress("0x1000000000000000000000000000000000000001")

	rcpt, err := s.chain.Execute(context.Background(), s.alice, func(tx *Tx) error {
		s.Equal(s.alice, tx.Sender())
		s.Equal(uint64(1), tx.BlockNumber())
		s.Equal(s.now, tx.Timestamp())
		tx.Emit(contract, pinged{N: 1})
		tx.Emit(contract, pinged{N: 2})
		return nil
	})
	s.Require().NoError(err)
	s.Equal(uint64(1), rcpt.Block)
	s.Require().Len(rcpt.Logs, 2)
	s.Equal(uint(1), rcpt.Logs[1].Index)
	s.Equal(uint64(11155111), rcpt.Logs[0].ChainID)
	s.Equal(uint64(1), s.chain.BlockNumber())
	s.Len(s.sink.logs, 2)
}

func (s *ChainSuite) TestFailedTransactionRollsBackEverything() {
	value := 1
	store := map[string]int{"kept": 1}
	boom := errors.New("boom")

	_, err := s.chain.Execute(context.Background(), s.alice, func(tx *Tx) error {
		Set(tx, &value, 2)
		SetMap(tx, store, "added", 5)
		SetMap(tx, store, "kept", 9)
		DeleteMap(tx, store, "kept")
		tx.Emit(s.alice, pinged{})
		tx.SendMessage(s.alice, s.bob, []byte("lost"))
		return boom
	})
	s.ErrorIs(err, boom)
	s.Equal(1, value)
	s.Equal(map[string]int{"kept": 1}, store)
	s.Empty(s.chain.Logs())
	s.Empty(s.chain.MessagesAfter(0, 0))
	s.Empty(s.sink.logs)
	s.Equal(uint64(0), s.chain.BlockNumber())
}

func (s *ChainSuite) TestPanicIsRevertedAndReported() {
	value := "before"
	_, err := s.chain.Execute(context.Background(), s.alice, func(tx *Tx) error {
		Set(tx, &value, "after")
		panic("unexpected")
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Equal("before", value)
}

func (s *ChainSuite) TestCancelledContextNeverExecutes() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	_, err := s.chain.Execute(ctx, s.alice, func(tx *Tx) error {
		called = true
		return nil
	})
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	s.False(called)
}

func (s *ChainSuite) TestNestedFrames() {
	contract := common.HexToAddress("0x2000000000000000000000000000000000000002")
	_, err := s.chain.Execute(context.Background(), s.alice, func(tx *Tx) error {
		inner := tx.As(contract)
		s.Equal(contract, inner.Sender())
		s.Equal(s.alice, inner.Origin())
		return nil
	})
	s.NoError(err)
}

func (s *ChainSuite) TestOutboxSequencesAreMonotonic() {
	for i := range 3 {
		_, err := s.chain.Execute(context.Background(), s.alice, func(tx *Tx) error {
			tx.SendMessage(s.alice, s.bob, []byte{byte(i)})
			return nil
		})
		s.Require().NoError(err)
	}
	msgs := s.chain.MessagesAfter(0, 0)
	s.Require().Len(msgs, 3)
	for i, m := range msgs {
		s.Equal(uint64(i+1), m.Seq)
		s.Equal(MessageID(11155111, m.Seq), m.ID)
		s.Equal(s.bob, m.Target)
		s.Equal([]byte{byte(i)}, m.Payload)
	}
	s.Len(s.chain.MessagesAfter(1, 1), 1)
	s.Equal(uint64(2), s.chain.MessagesAfter(1, 1)[0].Seq)
	s.Empty(s.chain.MessagesAfter(3, 0))
}

func (s *ChainSuite) TestDeployUsesCreateAddressAndRejectsCollisions() {
	_, err := s.chain.Execute(context.Background(), s.alice, func(tx *Tx) error {
		addr := tx.CreateAddress()
		s.Equal(crypto.CreateAddress(s.alice, 0), addr)
		s.Require().NoError(tx.DeployAt(addr, "code"))
		s.ErrorIs(tx.DeployAt(addr, "other"), ErrAddressInUse)
		s.Equal(crypto.CreateAddress(s.alice, 1), tx.CreateAddress())
		s.Equal(crypto.CreateAddress(addr, 1), tx.As(addr).CreateAddress())
		return nil
	})
	s.Require().NoError(err)
	code, ok := s.chain.CodeAt(crypto.CreateAddress(s.alice, 0))
	s.True(ok)
	s.Equal("code", code)
}

func (s *ChainSuite) TestCallDiscardsEffects() {
	var counter int
	err := s.chain.Call(context.Background(), s.alice, func(tx *Tx) error {
		Set(tx, &counter, 7)
		tx.Emit(s.bob, pinged{N: 7})
		s.Equal(7, counter)
		return nil
	})
	s.Require().NoError(err)
	s.Equal(0, counter)
	s.Empty(s.chain.Logs())
	s.Equal(uint64(0), s.chain.BlockNumber())
}

func TestParseTokenID(t *testing.T) {
	t.Run("decimal", func(t *testing.T) {
		id, err := ParseTokenID("42")
		require.NoError(t, err)
		assert.Equal(t, TokenIDFromUint64(42), id)
	})
	t.Run("hex", func(t *testing.T) {
		id, err := ParseTokenID("0x2a")
		require.NoError(t, err)
		assert.Equal(t, TokenIDFromUint64(42), id)
	})
	t.Run("rejects negative", func(t *testing.T) {
		_, err := ParseTokenID("-1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
	t.Run("rejects oversized hex", func(t *testing.T) {
		_, err := ParseTokenID("0x1" + "0000000000000000000000000000000000000000000000000000000000000000")
		assert.Error(t, err)
	})
}

func TestOwnersRoundTrip(t *testing.T) {
	b := common.HexToAddress("0x00000000000000000000000000000000000000b1")
	h := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	data := EncodeOwners(b, h)
	require.Len(t, data, 64)
	gotB, gotH, err := DecodeOwners(data)
	require.NoError(t, err)
	assert.Equal(t, b, gotB)
	assert.Equal(t, h, gotH)

	_, _, err = DecodeOwners(data[:10])
	assert.Error(t, err)
}
