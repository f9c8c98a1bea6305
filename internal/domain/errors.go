package domain

import "errors"

var (
	// ErrInvalidInput marks malformed request bodies and parameters.
	// The adapter maps it to 400 and is allowed to echo the reason.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAddressRequired is returned when neither a token nor an address reached
	// the decision engine.
	ErrAddressRequired = errors.New("Address is required")
	// ErrInvalidAddress rejects anything that is not 0x + 40 hex characters.
	// Checked before any cryptographic work runs.
	ErrInvalidAddress = errors.New("Invalid Ethereum address format")

	ErrSignatureRequired = errors.New("Signature is required")
	ErrNonceRequired     = errors.New("Nonce is required")
	ErrIssuedAtRequired  = errors.New("issuedAt is required")
	ErrInvalidIssuedAt   = errors.New("Invalid issuedAt timestamp")
	// ErrSignatureExpired fires before signature recovery so stale requests
	// never cost an ecrecover.
	ErrSignatureExpired = errors.New("Signature expired")
	ErrNonceUsed        = errors.New("Nonce already used")
	// ErrSignatureMismatch hides which of message or key was wrong.
	ErrSignatureMismatch = errors.New("Signature does not match address")

	// ErrInvalidToken covers bad signature and expiry alike; the distinction
	// must not leak to callers.
	ErrInvalidToken = errors.New("Invalid or expired token")
	// ErrTokenAddressMismatch is returned when a request carries both a token
	// and an address field and they disagree after normalization.
	ErrTokenAddressMismatch = errors.New("Token does not match requested address")
	// ErrProofRequired guards token issuance: a cached snapshot alone is not
	// proof of liveness.
	ErrProofRequired = errors.New("Signature required to issue token")

	ErrRateLimited = errors.New("Rate limit exceeded. Please try again later.")
)
