package titleescrow

import (
	"tokenregistry/internal/eip712"
	dErrors "tokenregistry/pkg/domain-errors"
)

// Authorization failures.
var (
	ErrCallerNotBeneficiary = dErrors.Reason(dErrors.CodeUnauthorized, "CallerNotBeneficiary")
	ErrCallerNotHolder      = dErrors.Reason(dErrors.CodeUnauthorized, "CallerNotHolder")
	ErrCallerNotRegistry    = dErrors.Reason(dErrors.CodeUnauthorized, "CallerNotRegistry")
	ErrCallerNotEndorser    = dErrors.Reason(dErrors.CodeUnauthorized, "CallerNotEndorser")
	ErrInvalidRegistry      = dErrors.Reason(dErrors.CodeUnauthorized, "InvalidRegistry")
)

// Lifecycle failures.
var (
	ErrInactiveTitleEscrow        = dErrors.Reason(dErrors.CodeInvalidState, "InactiveTitleEscrow")
	ErrTitleEscrowNotHoldingToken = dErrors.Reason(dErrors.CodeInvalidState, "TitleEscrowNotHoldingToken")
	ErrTokenNotSurrendered        = dErrors.Reason(dErrors.CodeInvalidState, "TokenNotSurrendered")
	ErrAlreadyInitialized         = dErrors.Reason(dErrors.CodeInvalidState, "AlreadyInitialized")
	ErrRegistryContractPaused     = dErrors.Reason(dErrors.CodePaused, "RegistryContractPaused")
)

// Input failures.
var (
	ErrInvalidTokenID                       = dErrors.Reason(dErrors.CodeValidation, "InvalidTokenId")
	ErrTargetNomineeAlreadyBeneficiary      = dErrors.Reason(dErrors.CodeValidation, "TargetNomineeAlreadyBeneficiary")
	ErrNomineeAlreadyNominated              = dErrors.Reason(dErrors.CodeValidation, "NomineeAlreadyNominated")
	ErrInvalidTransferToZeroAddress         = dErrors.Reason(dErrors.CodeValidation, "InvalidTransferToZeroAddress")
	ErrInvalidNominee                       = dErrors.Reason(dErrors.CodeValidation, "InvalidNominee")
	ErrRecipientAlreadyHolder               = dErrors.Reason(dErrors.CodeValidation, "RecipientAlreadyHolder")
	ErrInvalidTokenTransferToZeroAddrOwners = dErrors.Reason(dErrors.CodeValidation, "InvalidTokenTransferToZeroAddressOwners")
	ErrMismatchedBeneficiary                = dErrors.Reason(dErrors.CodeValidation, "MismatchedEndorsedBeneficiaryAndCurrentBeneficiary")
	ErrInvalidEndorsement                   = dErrors.Reason(dErrors.CodeValidation, "InvalidEndorsement")
	ErrMismatchedNominee                    = dErrors.Reason(dErrors.CodeValidation, "MismatchedEndorsedNomineeAndOnChainNominee")
)

// Signature failures are shared with the authorizer.
var (
	ErrSignatureExpired          = eip712.ErrSignatureExpired
	ErrSignatureAlreadyCancelled = eip712.ErrSignatureAlreadyCancelled
	ErrInvalidSignature          = eip712.ErrInvalidSignature
)
