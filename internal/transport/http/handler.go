package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tokenregistry/internal/chain"
	"tokenregistry/internal/eip712"
	"tokenregistry/internal/events"
	"tokenregistry/internal/node"
	"tokenregistry/internal/platform/middleware"
	dErrors "tokenregistry/pkg/domain-errors"
	"tokenregistry/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the protocol surface the handlers drive. Every state-changing
// call runs as one transaction sent by caller.
type Service interface {
	Token(ctx context.Context, chainID uint64, tokenID chain.TokenID) (*node.TokenView, error)
	History(ctx context.Context, chainID uint64, tokenID chain.TokenID) ([]events.Record, error)

	Mint(ctx context.Context, chainID uint64, caller, beneficiary, holder chain.Address, tokenID chain.TokenID) (chain.Address, error)
	Burn(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID) error
	Restore(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID) (chain.Address, error)
	Pause(ctx context.Context, chainID uint64, caller chain.Address) error
	Unpause(ctx context.Context, chainID uint64, caller chain.Address) error

	Nominate(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID, nominee chain.Address) error
	TransferBeneficiary(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID, nominee chain.Address) error
	TransferHolder(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID, holder chain.Address) error
	TransferOwners(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID, nominee, holder chain.Address) error
	Surrender(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID) error
	TransferBeneficiaryWithSig(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID, t eip712.BeneficiaryTransfer, sig []byte) error
	CancelBeneficiaryTransfer(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID, t eip712.BeneficiaryTransfer) error
	Bridge(ctx context.Context, chainID uint64, caller chain.Address, tokenID chain.TokenID, data []byte) error
}

// Handler wires the document endpoints to the node service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the read-only endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/chains/{chainID}/tokens/{tokenID}", h.HandleGetToken)
	r.Get("/chains/{chainID}/tokens/{tokenID}/events", h.HandleGetHistory)
}

// RegisterProtected mounts the endpoints that send transactions. They expect
// an authenticated caller in the request context.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/chains/{chainID}/tokens", h.HandleMint)
	r.Post("/chains/{chainID}/pause", h.HandlePause)
	r.Post("/chains/{chainID}/unpause", h.HandleUnpause)

	const token = "/chains/{chainID}/tokens/{tokenID}"
	r.Post(token+"/burn", h.HandleBurn)
	r.Post(token+"/restore", h.HandleRestore)
	r.Post(token+"/nominate", h.HandleNominate)
	r.Post(token+"/transfer-beneficiary", h.HandleTransferBeneficiary)
	r.Post(token+"/transfer-holder", h.HandleTransferHolder)
	r.Post(token+"/transfer-owners", h.HandleTransferOwners)
	r.Post(token+"/surrender", h.HandleSurrender)
	r.Post(token+"/transfer-beneficiary-with-sig", h.HandleTransferBeneficiaryWithSig)
	r.Post(token+"/cancel-beneficiary-transfer", h.HandleCancelBeneficiaryTransfer)
	r.Post(token+"/bridge", h.HandleBridge)
}

func chainParam(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "chainID"), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "chain id must be a decimal integer")
	}
	return id, nil
}

func tokenParam(r *http.Request) (uint64, chain.TokenID, error) {
	chainID, err := chainParam(r)
	if err != nil {
		return 0, chain.TokenID{}, err
	}
	tokenID, err := chain.ParseTokenID(chi.URLParam(r, "tokenID"))
	if err != nil {
		return 0, chain.TokenID{}, err
	}
	return chainID, tokenID, nil
}

// txTarget is what a state-changing request acts on.
type txTarget struct {
	requestID string
	caller    chain.Address
	chainID   uint64
	tokenID   chain.TokenID
}

// target resolves the caller and path parameters, writing the error response
// itself when they are unusable.
func (h *Handler) target(w http.ResponseWriter, r *http.Request, withToken bool) (txTarget, bool) {
	ctx := r.Context()
	t := txTarget{requestID: middleware.GetRequestID(ctx)}

	caller, ok := middleware.GetCaller(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "caller missing from authenticated context",
			"request_id", t.requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return t, false
	}
	t.caller = caller

	var err error
	if withToken {
		t.chainID, t.tokenID, err = tokenParam(r)
	} else {
		t.chainID, err = chainParam(r)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return t, false
	}
	return t, true
}

// finish writes the outcome of a transaction.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, op string, t txTarget, err error, resp any) {
	ctx := r.Context()
	if err != nil {
		h.logger.InfoContext(ctx, "transaction rejected",
			"request_id", t.requestID,
			"operation", op,
			"chain_id", t.chainID,
			"caller", t.caller,
			"reason", dErrors.ReasonOf(err),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "transaction committed",
		"request_id", t.requestID,
		"operation", op,
		"chain_id", t.chainID,
		"caller", t.caller,
	)
	if resp == nil {
		resp = &StatusResponse{Status: "committed"}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGetToken handles GET /chains/{chainID}/tokens/{tokenID}.
func (h *Handler) HandleGetToken(w http.ResponseWriter, r *http.Request) {
	chainID, tokenID, err := tokenParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.service.Token(r.Context(), chainID, tokenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTokenView(view))
}

// HandleGetHistory handles GET /chains/{chainID}/tokens/{tokenID}/events.
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chainID, tokenID, err := tokenParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := h.service.History(ctx, chainID, tokenID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load token history",
			"request_id", middleware.GetRequestID(ctx),
			"chain_id", chainID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecords(chainID, tokenID, records))
}

// HandleMint handles POST /chains/{chainID}/tokens.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	t, ok := h.target(w, r, false)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[MintRequest](w, r, h.logger, r.Context(), t.requestID)
	if !ok {
		return
	}
	t.tokenID = req.tokenID
	escrow, err := h.service.Mint(r.Context(), t.chainID, t.caller, req.beneficiary, req.holder, req.tokenID)
	h.finish(w, r, "mint", t, err, &EscrowAddressResponse{TitleEscrow: escrow})
}

func (h *Handler) HandleBurn(w http.ResponseWriter, r *http.Request) {
	t, ok := h.target(w, r, true)
	if !ok {
		return
	}
	err := h.service.Burn(r.Context(), t.chainID, t.caller, t.tokenID)
	h.finish(w, r, "burn", t, err, nil)
}

func (h *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	t, ok := h.target(w, r, true)
	if !ok {
		return
	}
	escrow, err := h.service.Restore(r.Context(), t.chainID, t.caller, t.tokenID)
	h.finish(w, r, "restore", t, err, &EscrowAddressResponse{TitleEscrow: escrow})
}

func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	t, ok := h.target(w, r, false)
	if !ok {
		return
	}
	h.finish(w, r, "pause", t, h.service.Pause(r.Context(), t.chainID, t.caller), nil)
}

func (h *Handler) HandleUnpause(w http.ResponseWriter, r *http.Request) {
	t, ok := h.target(w, r, false)
	if !ok {
		return
	}
	h.finish(w, r, "unpause", t, h.service.Unpause(r.Context(), t.chainID, t.caller), nil)
}

func (h *Handler) HandleNominate(w http.ResponseWriter, r *http.Request) {
	t, ok := h.target(w, r, true)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[NomineeRequest](w, r, h.logger, r.Context(), t.requestID)
	if !ok {
		return
	}
	err := h.service.Nominate(r.Context(), t.chainID, t.caller, t.tokenID, req.nominee)
	h.finish(w, r, "nominate", t, err, nil)
}

func (h *Handler) HandleTransferBeneficiary(w http.ResponseWriter, r *http.Request) {
	t, ok := h.target(w, r, true)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[NomineeRequest](w, r, h.logger, r.Context(), t.requestID)
	if !ok {
		return
	}
	err := h.service.TransferBeneficiary(r.Context(), t.chainID, t.caller, t.tokenID, req.nominee)
	h.finish(w, r, "transfer_beneficiary", t, err, nil)
}

func (h *Handler) HandleTransferHolder(w http.ResponseWriter, r *http.Request) {
	t, ok := h.target(w, r, true)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[HolderRequest](w, r, h.logger, r.Context(), t.requestID)
	if !ok {
		return
	}
	err := h.service.TransferHolder(r.Context(), t.chainID, t.caller, t.tokenID, req.holder)
	h.finish(w, r, "transfer_holder", t, err, nil)
}

func (h *Handler) HandleTransferOwners(w http.ResponseWriter, r *http.Request) {
	t, ok := h.target(w, r, true)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[OwnersRequest](w, r, h.logger, r.Context(), t.requestID)
	if !ok {
		return
	}
	err := h.service.TransferOwners(r.Context(), t.chainID, t.caller, t.tokenID, req.nominee, req.holder)
	h.finish(w, r, "transfer_owners", t, err, nil)
}

func (h *Handler) HandleSurrender(w http.ResponseWriter, r *http.Request) {
	t, ok := h.target(w, r, true)
	if !ok {
		return
	}
	err := h.service.Surrender(r.Context(), t.chainID, t.caller, t.tokenID)
	h.finish(w, r, "surrender", t, err, nil)
}

func (h *Handler) HandleTransferBeneficiaryWithSig(w http.ResponseWriter, r *http.Request) {
	t, ok := h.target(w, r, true)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SignedTransferRequest](w, r, h.logger, r.Context(), t.requestID)
	if !ok {
		return
	}
	err := h.service.TransferBeneficiaryWithSig(r.Context(), t.chainID, t.caller, t.tokenID, req.transfer, req.signature)
	h.finish(w, r, "transfer_beneficiary_with_sig", t, err, nil)
}

func (h *Handler) HandleCancelBeneficiaryTransfer(w http.ResponseWriter, r *http.Request) {
	t, ok := h.target(w, r, true)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CancelRequest](w, r, h.logger, r.Context(), t.requestID)
	if !ok {
		return
	}
	err := h.service.CancelBeneficiaryTransfer(r.Context(), t.chainID, t.caller, t.tokenID, req.transfer)
	h.finish(w, r, "cancel_beneficiary_transfer", t, err, nil)
}

// HandleBridge handles POST .../bridge: a deposit when sent to the root chain
// and a withdrawal when sent to the child chain.
func (h *Handler) HandleBridge(w http.ResponseWriter, r *http.Request) {
	t, ok := h.target(w, r, true)
	if !ok {
		return
	}
	req := &BridgeRequest{}
	if r.ContentLength != 0 {
		if req, ok = httputil.DecodeAndPrepare[BridgeRequest](w, r, h.logger, r.Context(), t.requestID); !ok {
			return
		}
	}
	err := h.service.Bridge(r.Context(), t.chainID, t.caller, t.tokenID, req.data)
	h.finish(w, r, "bridge", t, err, nil)
}
