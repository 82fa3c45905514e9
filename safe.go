package multisafe

import (
	"context"
)

// Safe is the per network signing engine bound to one multisig wallet. It
// hides the chain specific encoding behind a uniform contract.
//
// Create methods return nil and no error when the operation is not available
// for the wallet on this network. Capabilities lists what is available up
// front.
type Safe interface {
	Capabilities() CapabilitySet

	CreatePaymentTransaction(ctx context.Context, inputs []UTXO, outputs []Output, fee int64, memo string) (*UnsignedTransaction, error)
	CreateVoteTransaction(ctx context.Context, inputs []UTXO, votes []VoteContent, fee int64, memo string) (*UnsignedTransaction, error)
	CreateProposalTransaction(ctx context.Context, proposal []byte) (*UnsignedTransaction, error)
	CreateDIDPublicationTransaction(ctx context.Context, document []byte) (*UnsignedTransaction, error)

	// SignTransaction stores the transaction for the offline flow and
	// returns a delegated result.
	SignTransaction(ctx context.Context, sub SubWallet, rawTx string, transfer *Transfer) SignTransactionResult
	// SignTransactionReal adds the signature of this device.
	SignTransactionReal(ctx context.Context, sub SubWallet, rawTx string) SignTransactionResult

	HasCosignerSigned(xpub, rawTx string) (bool, error)
	HasSigningWalletSigned(rawTx string) (bool, error)
	HasEnoughSignaturesToPublish(rawTx string) (bool, error)

	ConvertSignedTransactionToPublishableTransaction(ctx context.Context, sub SubWallet, signedTx string) (string, error)
	GetOfflineTransactionHash(otx *OfflineTransaction) (string, error)
}

// UTXO is an unspent output owned by the multisig address.
type UTXO struct {
	TxHash  string `json:"tx_hash"`
	Index   uint32 `json:"index"`
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

// Output is a payment destination.
type Output struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

// VoteCandidate is a weighted vote for a candidate.
type VoteCandidate struct {
	Candidate string `json:"candidate"`
	Votes     int64  `json:"votes"`
}

// VoteContent groups votes of one kind.
type VoteContent struct {
	Type       string          `json:"type"`
	Candidates []VoteCandidate `json:"candidates"`
}

// UnsignedTransaction is a freshly created transaction.
type UnsignedTransaction struct {
	Type  OfflineTransactionType `json:"type"`
	RawTx string                 `json:"raw_tx"`
}

// Transfer describes the user intent that originated a transaction. It is
// handed to the Navigator together with the pending transaction.
type Transfer struct {
	Outputs []Output `json:"outputs"`
	Fee     int64    `json:"fee"`
	Memo    string   `json:"memo"`
}
