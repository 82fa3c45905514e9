package multisafe

// ErrorType classifies a signing attempt that did not produce a signed
// transaction.
type ErrorType int

const (
	// ErrorTypeNone marks a successful result.
	ErrorTypeNone ErrorType = iota
	// ErrorTypeDelegated means authorization was handed to the offline
	// multisig flow. It is not a failure.
	ErrorTypeDelegated
	// ErrorTypeCancelled means the user declined to provide the password.
	ErrorTypeCancelled
	// ErrorTypeFailure is any other signing or persistence failure.
	ErrorTypeFailure
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeNone:
		return "none"
	case ErrorTypeDelegated:
		return "delegated"
	case ErrorTypeCancelled:
		return "cancelled"
	case ErrorTypeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// SignTransactionResult is the result of a signing attempt. Either
// SignedTransaction is set, or ErrorType tells why it is not.
type SignTransactionResult struct {
	SignedTransaction string
	ErrorType         ErrorType
	// AlreadySigned is set on success when this device had signed the
	// transaction before and SignedTransaction is the unchanged input.
	AlreadySigned bool
}

// OK returns true if the result carries a signed transaction.
func (r SignTransactionResult) OK() bool {
	return r.ErrorType == ErrorTypeNone
}

// Signed returns a successful result.
func Signed(rawTx string, alreadySigned bool) SignTransactionResult {
	return SignTransactionResult{SignedTransaction: rawTx, AlreadySigned: alreadySigned}
}

// Delegated returns a result telling the caller that signing continues in
// the offline multisig flow.
func Delegated() SignTransactionResult {
	return SignTransactionResult{ErrorType: ErrorTypeDelegated}
}

// Cancelled returns a result of a declined password prompt.
func Cancelled() SignTransactionResult {
	return SignTransactionResult{ErrorType: ErrorTypeCancelled}
}

// Failed returns a failure result.
func Failed() SignTransactionResult {
	return SignTransactionResult{ErrorType: ErrorTypeFailure}
}
