package token

import "errors"

var (
	ErrNilState             = errors.New("token: state not configured")
	ErrAuthorizationFailure = errors.New("token: authorization failure")
	ErrMintNotFound         = errors.New("token: mint not found")
	ErrMintExists           = errors.New("token: mint already exists")
	ErrAccountNotFound      = errors.New("token: account not found")
	ErrAccountExists        = errors.New("token: account already exists")
	ErrMintMismatch         = errors.New("token: mint mismatch")
	ErrInsufficientFunds    = errors.New("token: insufficient funds")
	ErrNonZeroBalance       = errors.New("token: account balance is not zero")
	ErrSupplyOverflow       = errors.New("token: supply overflow")
	ErrInvalidAmount        = errors.New("token: amount must be positive")
	ErrInvalidAddress       = errors.New("token: address must not be zero")
	ErrProgramAddress       = errors.New("token: address is reserved for program accounts")
	ErrNotProgramAddress    = errors.New("token: address is not a program address")
)
