package node

import (
	"context"
	"log/slog"

	"tokenregistry/internal/access"
	"tokenregistry/internal/chain"
	"tokenregistry/internal/eip712"
	"tokenregistry/internal/events"
	"tokenregistry/internal/platform/metrics"
	"tokenregistry/internal/titleescrow"
	dErrors "tokenregistry/pkg/domain-errors"
)

var (
	ErrUnknownChain    = dErrors.Reason(dErrors.CodeNotFound, "UnknownChain")
	ErrNoTitleEscrow   = dErrors.Reason(dErrors.CodeNotFound, "TitleEscrowNotFound")
	ErrHistoryDisabled = dErrors.Reason(dErrors.CodeNotFound, "HistoryDisabled")
)

const (
	resultOK       = "ok"
	resultInternal = "internal"
)

// EscrowView is the state of a title escrow.
type EscrowView struct {
	Address      chain.Address
	Beneficiary  chain.Address
	Holder       chain.Address
	Nominee      chain.Address
	Active       bool
	HoldingToken bool
	// HolderNonce is the nonce a beneficiary transfer signed by the holder
	// must carry.
	HolderNonce uint64
	Domain      eip712.Domain
}

// TokenView is the state of a document on one chain.
type TokenView struct {
	ChainID     uint64
	Registry    chain.Address
	TokenID     chain.TokenID
	Exists      bool
	Owner       chain.Address
	Surrendered bool
	Escrow      *EscrowView
}

// Service runs protocol operations against a Network on behalf of callers.
type Service struct {
	net     *Network
	history events.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithHistory enables History queries.
func WithHistory(store events.Store) ServiceOption {
	return func(s *Service) {
		s.history = store
	}
}

func NewService(net *Network, opts ...ServiceOption) *Service {
	s := &Service{net: net, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) side(chainID uint64) (*Side, error) {
	side, ok := s.net.Side(chainID)
	if !ok {
		return nil, ErrUnknownChain
	}
	return side, nil
}

// exec runs fn as one transaction from caller on chainID and records the
// outcome under op.
func (s *Service) exec(ctx context.Context, op string, chainID uint64, caller chain.Address, fn func(side *Side, tx *chain.Tx) error) error {
	side, err := s.side(chainID)
	if err != nil {
		return err
	}
	_, err = side.Chain.Execute(ctx, caller, func(tx *chain.Tx) error {
		return fn(side, tx)
	})
	return s.observe(ctx, op, side, caller, err)
}

// observe records the outcome of op and passes err through.
func (s *Service) observe(ctx context.Context, op string, side *Side, caller chain.Address, err error) error {
	if err != nil {
		result := dErrors.ReasonOf(err)
		if result == "" {
			result = resultInternal
		}
		s.metrics.ObserveCall(op, result)
		s.logger.InfoContext(ctx, "protocol call reverted",
			"operation", op,
			"chain", side.Chain.Name(),
			"caller", caller,
			"reason", result,
			"error", err,
		)
		return err
	}
	s.metrics.ObserveCall(op, resultOK)
	return nil
}

// escrowCall runs fn against the escrow of tokenID.
func (s *Service) escrowCall(ctx context.Context, op string, chainID uint64, caller chain.Address, tokenID chain.TokenID, fn func(e *titleescrow.TitleEscrow, tx *chain.Tx) error) error {
	return s.exec(ctx, op, chainID, caller, func(side *Side, tx *chain.Tx) error {
		e, ok := titleescrow.At(tx, side.Registry.EscrowAddress(tokenID))
		if !ok {
			return ErrNoTitleEscrow
		}
		return fn(e, tx)
	})
}

// Mint issues tokenID into a new escrow and returns the escrow address.
func (s *Service) Mint(ctx context.Context, chainID uint64, caller, beneficiary, holder chain.Address, tokenID chain.TokenID) (chain.Address, error) {
	var escrow chain.Address
	err := s.exec(ctx, "mint", chainID, caller, func(side *Side, tx *chain.Tx) error {
		var err error
		escrow, err = side.Registry.Mint(tx, beneficiary, holder, tokenID)
		return err
	})
	return escrow, err
}

func (s *Service) Burn(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID) error {
	return s.exec(ctx, "burn", chainID, caller, func(side *Side, tx *chain.Tx) error {
		return side.Registry.Burn(tx, tokenID)
	})
}

func (s *Service) Restore(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID) (chain.Address, error) {
	var escrow chain.Address
	err := s.exec(ctx, "restore", chainID, caller, func(side *Side, tx *chain.Tx) error {
		var err error
		escrow, err = side.Registry.Restore(tx, tokenID)
		return err
	})
	return escrow, err
}

func (s *Service) Pause(ctx context.Context, chainID uint64, caller chain.Address) error {
	return s.exec(ctx, "pause", chainID, caller, func(side *Side, tx *chain.Tx) error {
		return side.Registry.Pause(tx)
	})
}

func (s *Service) Unpause(ctx context.Context, chainID uint64, caller chain.Address) error {
	return s.exec(ctx, "unpause", chainID, caller, func(side *Side, tx *chain.Tx) error {
		return side.Registry.Unpause(tx)
	})
}

func (s *Service) Nominate(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID, nominee chain.Address) error {
	return s.escrowCall(ctx, "nominate", chainID, caller, tokenID, func(e *titleescrow.TitleEscrow, tx *chain.Tx) error {
		return e.Nominate(tx, nominee)
	})
}

func (s *Service) TransferBeneficiary(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID, nominee chain.Address) error {
	return s.escrowCall(ctx, "transfer_beneficiary", chainID, caller, tokenID, func(e *titleescrow.TitleEscrow, tx *chain.Tx) error {
		return e.TransferBeneficiary(tx, nominee)
	})
}

func (s *Service) TransferHolder(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID, holder chain.Address) error {
	return s.escrowCall(ctx, "transfer_holder", chainID, caller, tokenID, func(e *titleescrow.TitleEscrow, tx *chain.Tx) error {
		return e.TransferHolder(tx, holder)
	})
}

func (s *Service) TransferOwners(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID, nominee, holder chain.Address) error {
	return s.escrowCall(ctx, "transfer_owners", chainID, caller, tokenID, func(e *titleescrow.TitleEscrow, tx *chain.Tx) error {
		return e.TransferOwners(tx, nominee, holder)
	})
}

func (s *Service) Surrender(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID) error {
	return s.escrowCall(ctx, "surrender", chainID, caller, tokenID, func(e *titleescrow.TitleEscrow, tx *chain.Tx) error {
		return e.Surrender(tx)
	})
}

func (s *Service) TransferBeneficiaryWithSig(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID, t eip712.BeneficiaryTransfer, sig []byte) error {
	return s.escrowCall(ctx, "transfer_beneficiary_with_sig", chainID, caller, tokenID, func(e *titleescrow.TitleEscrow, tx *chain.Tx) error {
		return e.TransferBeneficiaryWithSig(tx, t, sig)
	})
}

func (s *Service) CancelBeneficiaryTransfer(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID, t eip712.BeneficiaryTransfer) error {
	return s.escrowCall(ctx, "cancel_beneficiary_transfer", chainID, caller, tokenID, func(e *titleescrow.TitleEscrow, tx *chain.Tx) error {
		return e.CancelBeneficiaryTransfer(tx, t)
	})
}

// Bridge sends tokenID to the other chain: a deposit from the root chain or
// a withdrawal from the child chain.
func (s *Service) Bridge(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID, data []byte) error {
	return s.exec(ctx, "bridge", chainID, caller, func(side *Side, tx *chain.Tx) error {
		if side == s.net.Root {
			return s.net.RootTunnel.Deposit(tx, tokenID, data)
		}
		return s.net.ChildTunnel.Withdraw(tx, tokenID, data)
	})
}

// FailedMessages lists the relayed messages chainID rejected.
func (s *Service) FailedMessages(chainID uint64) ([]chain.Message, error) {
	side, err := s.side(chainID)
	if err != nil {
		return nil, err
	}
	return side.Bridge.Failed(), nil
}

// RetryMessage applies a rejected message again once its cause is resolved.
// Only the registry admin of chainID may retry.
func (s *Service) RetryMessage(ctx context.Context, chainID uint64, caller chain.Address, seq uint64) error {
	side, err := s.side(chainID)
	if err != nil {
		return err
	}
	err = side.Chain.Call(ctx, caller, func(*chain.Tx) error {
		return side.Registry.Roles().CheckRole(access.DefaultAdminRole, caller)
	})
	if err == nil {
		err = side.Bridge.Retry(ctx, seq)
	}
	return s.observe(ctx, "retry_message", side, caller, err)
}

// Token reads the state of tokenID without changing anything.
func (s *Service) Token(ctx context.Context, chainID uint64, tokenID chain.TokenID) (*TokenView, error) {
	side, err := s.side(chainID)
	if err != nil {
		return nil, err
	}
	view := &TokenView{ChainID: chainID, Registry: side.Registry.Address(), TokenID: tokenID}
	err = side.Chain.Call(ctx, chain.ZeroAddress, func(tx *chain.Tx) error {
		view.Exists = side.Registry.Exists(tokenID)
		if view.Exists {
			view.Owner, _ = side.Registry.OwnerOf(tokenID)
			view.Surrendered = side.Registry.IsSurrendered(tokenID)
		}
		e, ok := titleescrow.At(tx, side.Registry.EscrowAddress(tokenID))
		if !ok {
			return nil
		}
		view.Escrow = &EscrowView{
			Address:      e.Address(),
			Beneficiary:  e.Beneficiary(),
			Holder:       e.Holder(),
			Nominee:      e.Nominee(),
			Active:       e.Active(),
			HoldingToken: e.IsHoldingToken(),
			HolderNonce:  e.Nonce(e.Holder()),
			Domain:       e.Domain(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// History returns the persisted events of tokenID on chainID.
func (s *Service) History(ctx context.Context, chainID uint64, tokenID chain.TokenID) ([]events.Record, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	side, err := s.side(chainID)
	if err != nil {
		return nil, err
	}
	return s.history.ListByToken(ctx, chainID, side.Registry.Address(), tokenID)
}
