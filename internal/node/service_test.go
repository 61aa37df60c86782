package node_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"tokenregistry/internal/access"
	"tokenregistry/internal/chain"
	"tokenregistry/internal/eip712"
	"tokenregistry/internal/events"
	"tokenregistry/internal/events/store/memory"
	"tokenregistry/internal/node"
	"tokenregistry/internal/platform/metrics"
	"tokenregistry/internal/registry"
	"tokenregistry/internal/registry/registrytest"
	"tokenregistry/internal/relay"
	"tokenregistry/internal/titleescrow"
	dErrors "tokenregistry/pkg/domain-errors"
)

const (
	rootID  = 1
	childID = 137
)

// =============================================================================
// Service Test Suite
// =============================================================================

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	net       *node.Network
	store     *memory.InMemoryStore
	metrics   *metrics.Metrics
	svc       *node.Service
	rootAdmin chain.Address
	alice     chain.Address
	bob       chain.Address
	tokenID   chain.TokenID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.rootAdmin = registrytest.Account("root-admin")
	s.alice = registrytest.Account("alice")
	s.bob = registrytest.Account("bob")
	s.tokenID = chain.TokenIDFromUint64(0xb01)
	s.store = memory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())

	var err error
	s.net, err = node.Deploy(s.ctx, node.Config{
		Root:  node.ChainSpec{ID: rootID, Name: "root", Admin: s.rootAdmin, Token: "Bills of Lading", Symbol: "BOL"},
		Child: node.ChainSpec{ID: childID, Name: "child", Admin: registrytest.Account("child-admin"), Token: "Bills of Lading", Symbol: "BOL"},
	}, nil, chain.WithEventSink(events.NewSink(s.store)))
	s.Require().NoError(err)

	s.svc = node.NewService(s.net, node.WithMetrics(s.metrics), node.WithHistory(s.store))
}

func (s *ServiceSuite) mint(beneficiary, holder chain.Address) chain.Address {
	escrow, err := s.svc.Mint(s.ctx, rootID, s.rootAdmin, beneficiary, holder, s.tokenID)
	s.Require().NoError(err)
	return escrow
}

func (s *ServiceSuite) token(chainID uint64) *node.TokenView {
	view, err := s.svc.Token(s.ctx, chainID, s.tokenID)
	s.Require().NoError(err)
	return view
}

func (s *ServiceSuite) TestMintAndView() {
	escrow := s.mint(s.alice, s.bob)

	view := s.token(rootID)
	s.True(view.Exists)
	s.Equal(escrow, view.Owner)
	s.False(view.Surrendered)
	s.Equal(s.net.Root.Registry.Address(), view.Registry)
	s.Require().NotNil(view.Escrow)
	s.Equal(s.alice, view.Escrow.Beneficiary)
	s.Equal(s.bob, view.Escrow.Holder)
	s.True(view.Escrow.Active)
	s.True(view.Escrow.HoldingToken)
	s.Equal(escrow, view.Escrow.Domain.VerifyingContract)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.ProtocolCalls.WithLabelValues("mint", "ok")))
}

func (s *ServiceSuite) TestUnmintedTokenView() {
	view := s.token(rootID)
	s.False(view.Exists)
	s.Nil(view.Escrow)
}

func (s *ServiceSuite) TestUnknownChain() {
	_, err := s.svc.Token(s.ctx, 5, s.tokenID)
	s.ErrorIs(err, node.ErrUnknownChain)

	err = s.svc.Surrender(s.ctx, 5, s.alice, s.tokenID)
	s.ErrorIs(err, node.ErrUnknownChain)
}

func (s *ServiceSuite) TestRevertsAreCountedByReason() {
	_, err := s.svc.Mint(s.ctx, rootID, s.alice, s.alice, s.alice, s.tokenID)
	s.ErrorIs(err, access.ErrUnauthorizedAccount)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ProtocolCalls.WithLabelValues("mint", "AccessControlUnauthorizedAccount")))

	err = s.svc.Nominate(s.ctx, rootID, s.alice, s.tokenID, s.bob)
	s.ErrorIs(err, node.ErrNoTitleEscrow)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestEndorsementFlow() {
	s.mint(s.alice, s.alice)

	s.Require().NoError(s.svc.Nominate(s.ctx, rootID, s.alice, s.tokenID, s.bob))
	s.Equal(s.bob, s.token(rootID).Escrow.Nominee)

	s.Require().NoError(s.svc.TransferBeneficiary(s.ctx, rootID, s.alice, s.tokenID, s.bob))
	s.Require().NoError(s.svc.TransferHolder(s.ctx, rootID, s.alice, s.tokenID, s.bob))

	view := s.token(rootID)
	s.Equal(s.bob, view.Escrow.Beneficiary)
	s.Equal(s.bob, view.Escrow.Holder)
	s.Equal(chain.ZeroAddress, view.Escrow.Nominee)

	err := s.svc.TransferHolder(s.ctx, rootID, s.alice, s.tokenID, s.alice)
	s.ErrorIs(err, titleescrow.ErrCallerNotHolder)
}

func (s *ServiceSuite) TestTransferOwners() {
	s.mint(s.alice, s.alice)
	s.Require().NoError(s.svc.Nominate(s.ctx, rootID, s.alice, s.tokenID, s.bob))
	s.Require().NoError(s.svc.TransferOwners(s.ctx, rootID, s.alice, s.tokenID, s.bob, s.bob))

	view := s.token(rootID)
	s.Equal(s.bob, view.Escrow.Beneficiary)
	s.Equal(s.bob, view.Escrow.Holder)
}

func (s *ServiceSuite) TestSurrenderBurnAndRestore() {
	s.mint(s.alice, s.alice)

	s.Require().NoError(s.svc.Surrender(s.ctx, rootID, s.alice, s.tokenID))
	s.True(s.token(rootID).Surrendered)

	escrow, err := s.svc.Restore(s.ctx, rootID, s.rootAdmin, s.tokenID)
	s.Require().NoError(err)
	s.Equal(escrow, s.token(rootID).Owner)

	s.Require().NoError(s.svc.Surrender(s.ctx, rootID, s.alice, s.tokenID))
	s.Require().NoError(s.svc.Burn(s.ctx, rootID, s.rootAdmin, s.tokenID))
	view := s.token(rootID)
	s.True(view.Exists)
	s.Equal(registry.BurnAddress, view.Owner)
	s.Require().NotNil(view.Escrow)
	s.False(view.Escrow.Active)
}

func (s *ServiceSuite) TestPause() {
	s.mint(s.alice, s.alice)
	s.Require().NoError(s.svc.Pause(s.ctx, rootID, s.rootAdmin))

	err := s.svc.Nominate(s.ctx, rootID, s.alice, s.tokenID, s.bob)
	s.True(dErrors.HasCode(err, dErrors.CodePaused))

	s.Require().NoError(s.svc.Unpause(s.ctx, rootID, s.rootAdmin))
	s.Require().NoError(s.svc.Nominate(s.ctx, rootID, s.alice, s.tokenID, s.bob))
}

func (s *ServiceSuite) TestSignedTransfer() {
	key, err := crypto.GenerateKey()
	s.Require().NoError(err)
	holder := crypto.PubkeyToAddress(key.PublicKey)
	s.mint(s.alice, holder)

	t := s.endorsement(holder)
	sig, err := eip712.Sign(key, s.token(rootID).Escrow.Domain, t)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.TransferBeneficiaryWithSig(s.ctx, rootID, s.alice, s.tokenID, t, sig))
	view := s.token(rootID)
	s.Equal(s.bob, view.Escrow.Beneficiary)
	s.Equal(uint64(1), view.Escrow.HolderNonce)
}

func (s *ServiceSuite) TestCancelledSignatureIsRejected() {
	key, err := crypto.GenerateKey()
	s.Require().NoError(err)
	holder := crypto.PubkeyToAddress(key.PublicKey)
	s.mint(s.alice, holder)

	t := s.endorsement(holder)
	sig, err := eip712.Sign(key, s.token(rootID).Escrow.Domain, t)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.CancelBeneficiaryTransfer(s.ctx, rootID, holder, s.tokenID, t))
	err = s.svc.TransferBeneficiaryWithSig(s.ctx, rootID, s.alice, s.tokenID, t, sig)
	s.ErrorIs(err, titleescrow.ErrSignatureAlreadyCancelled)
}

func (s *ServiceSuite) endorsement(holder chain.Address) eip712.BeneficiaryTransfer {
	return eip712.BeneficiaryTransfer{
		Beneficiary: s.alice,
		Holder:      holder,
		Nominee:     s.bob,
		Registry:    s.net.Root.Registry.Address(),
		TokenID:     s.tokenID,
		Deadline:    big.NewInt(time.Now().Add(time.Hour).Unix()),
		Nonce:       new(big.Int).SetUint64(s.token(rootID).Escrow.HolderNonce),
	}
}

func (s *ServiceSuite) TestBridgeRoundTrip() {
	s.mint(s.alice, s.alice)
	deposits, err := relay.New(node.RouteDeposits, relay.NewChainSource(s.net.Root.Chain), s.net.Child.Bridge, relay.NewMemoryCheckpoint())
	s.Require().NoError(err)
	withdrawals, err := relay.New(node.RouteWithdrawals, relay.NewChainSource(s.net.Child.Chain), s.net.Root.Bridge, relay.NewMemoryCheckpoint())
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Bridge(s.ctx, rootID, s.alice, s.tokenID, []byte("memo")))
	s.Equal(s.net.RootTunnel.Address(), s.token(rootID).Owner)

	_, err = deposits.RelayOnce(s.ctx)
	s.Require().NoError(err)
	child := s.token(childID)
	s.True(child.Exists)
	s.Require().NotNil(child.Escrow)
	s.Equal(s.alice, child.Escrow.Beneficiary)

	s.Require().NoError(s.svc.Bridge(s.ctx, childID, s.alice, s.tokenID, nil))
	_, err = withdrawals.RelayOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(s.net.Root.Registry.EscrowAddress(s.tokenID), s.token(rootID).Owner)
}

func (s *ServiceSuite) TestRetryRejectedDeposit() {
	childAdmin := registrytest.Account("child-admin")
	_, err := s.svc.Mint(s.ctx, childID, childAdmin, childAdmin, childAdmin, s.tokenID)
	s.Require().NoError(err)
	s.mint(s.alice, s.alice)
	deposits, err := relay.New(node.RouteDeposits, relay.NewChainSource(s.net.Root.Chain), s.net.Child.Bridge, relay.NewMemoryCheckpoint())
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Bridge(s.ctx, rootID, s.alice, s.tokenID, nil))
	n, err := deposits.RelayOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	failed, err := s.svc.FailedMessages(childID)
	s.Require().NoError(err)
	s.Require().Len(failed, 1)
	seq := failed[0].Seq

	err = s.svc.RetryMessage(s.ctx, childID, s.alice, seq)
	s.ErrorIs(err, access.ErrUnauthorizedAccount)
	err = s.svc.RetryMessage(s.ctx, childID, childAdmin, seq)
	s.ErrorIs(err, registry.ErrTransferFailure)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ProtocolCalls.WithLabelValues("retry_message", "TransferFailure")))

	s.Require().NoError(s.svc.Bridge(s.ctx, childID, childAdmin, s.tokenID, nil))
	s.Require().NoError(s.svc.RetryMessage(s.ctx, childID, childAdmin, seq))
	s.Equal(s.alice, s.token(childID).Escrow.Beneficiary)

	failed, err = s.svc.FailedMessages(childID)
	s.Require().NoError(err)
	s.Empty(failed)
}

func (s *ServiceSuite) TestHistory() {
	s.mint(s.alice, s.alice)
	s.Require().NoError(s.svc.Surrender(s.ctx, rootID, s.alice, s.tokenID))

	records, err := s.svc.History(s.ctx, rootID, s.tokenID)
	s.Require().NoError(err)
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	s.Equal([]string{"TitleEscrowCreated", "Transfer", "TokenReceived", "Surrender", "Transfer"}, names)

	s.Run("disabled without a store", func() {
		_, err := node.NewService(s.net).History(s.ctx, rootID, s.tokenID)
		s.ErrorIs(err, node.ErrHistoryDisabled)
	})
}

func TestDeployRejectsZeroAdmin(t *testing.T) {
	_, err := node.Deploy(context.Background(), node.Config{
		Root:  node.ChainSpec{ID: rootID, Name: "root"},
		Child: node.ChainSpec{ID: childID, Name: "child", Admin: registrytest.Account("admin")},
	}, nil)
	require.Error(t, err)
}
