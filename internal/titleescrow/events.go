package titleescrow

import "tokenregistry/internal/chain"

type TokenReceived struct {
	Beneficiary chain.Address
	Holder      chain.Address
	IsMinting   bool
	Registry    chain.Address
	TokenID     chain.TokenID
}

func (TokenReceived) EventName() string { return "TokenReceived" }

type Nomination struct {
	PrevNominee chain.Address
	Nominee     chain.Address
	Registry    chain.Address
	TokenID     chain.TokenID
}

func (Nomination) EventName() string { return "Nomination" }

type BeneficiaryTransfer struct {
	FromBeneficiary chain.Address
	ToBeneficiary   chain.Address
	Registry        chain.Address
	TokenID         chain.TokenID
}

func (BeneficiaryTransfer) EventName() string { return "BeneficiaryTransfer" }

type HolderTransfer struct {
	FromHolder chain.Address
	ToHolder   chain.Address
	Registry   chain.Address
	TokenID    chain.TokenID
}

func (HolderTransfer) EventName() string { return "HolderTransfer" }

type Surrender struct {
	SurrenderedBy chain.Address
	Registry      chain.Address
	TokenID       chain.TokenID
}

func (Surrender) EventName() string { return "Surrender" }

type Shred struct {
	Registry chain.Address
	TokenID  chain.TokenID
}

func (Shred) EventName() string { return "Shred" }

type CancelBeneficiaryTransfer struct {
	Holder     chain.Address
	StructHash chain.Hash
	Registry   chain.Address
	TokenID    chain.TokenID
}

func (CancelBeneficiaryTransfer) EventName() string { return "CancelBeneficiaryTransfer" }

// TitleEscrowCreated is emitted by the factory.
type TitleEscrowCreated struct {
	TitleEscrow chain.Address
	Registry    chain.Address
	TokenID     chain.TokenID
}

func (TitleEscrowCreated) EventName() string { return "TitleEscrowCreated" }
