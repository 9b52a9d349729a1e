package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of these so the HTTP
// layer can pick a status code with errors.Is.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
)

// Domain errors. The message is what the client sees.
var (
	ErrInvalidInitData  = newKindError(ErrUnauthenticated, "Invalid Telegram data")
	ErrUserNotFound     = newKindError(ErrNotFound, "User not found")
	ErrInvalidBet       = newKindError(ErrInvalidInput, "Minimum bet is 10")
	ErrOfferUnavailable = newKindError(ErrConflict, "Battle not available")
	ErrSelfAcceptance   = newKindError(ErrConflict, "Cannot fight yourself")
	ErrUnknownAnimal    = newKindError(ErrInvalidInput, "Invalid animal")
	ErrUnknownItem      = newKindError(ErrInvalidInput, "Invalid item")
	ErrAlreadyOwned     = newKindError(ErrConflict, "Already owned")
	ErrUnknownTask      = newKindError(ErrInvalidInput, "Invalid task")
	ErrUnknownGiveaway  = newKindError(ErrInvalidInput, "Invalid giveaway")
	ErrGiveawayClosed   = newKindError(ErrConflict, "Giveaway is not active")
	ErrPromoNotFound    = newKindError(ErrInvalidInput, "Invalid code")
	ErrPromoExhausted   = newKindError(ErrConflict, "Code expired")
	ErrPromoAlreadyUsed = newKindError(ErrConflict, "Already used")
	ErrInvalidField     = newKindError(ErrInvalidInput, "Invalid field")
	ErrInvalidPlatform  = newKindError(ErrInvalidInput, "Invalid platform")
	ErrDiceCooldown     = newKindError(ErrConflict, "Wait 24 hours")
	ErrNotAdmin         = newKindError(ErrForbidden, "Not authorized")
	ErrInvalidAmount    = newKindError(ErrInvalidInput, "Amount must not be negative")
)

// kindError is a client-facing message tied to one error kind
type kindError struct {
	kind    error
	message string
}

func newKindError(kind error, message string) *kindError {
	return &kindError{kind: kind, message: message}
}

func (e *kindError) Error() string {
	return e.message
}

func (e *kindError) Unwrap() error {
	return e.kind
}

// insufficientFunds reports how far short a balance was
func insufficientFunds(have, need int64) error {
	return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, have, need)
}

// PublicMessage returns the message safe to show to a client for err
func PublicMessage(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.message
	}
	if errors.Is(err, ErrInsufficientFunds) {
		return "Not enough points"
	}
	return "Internal server error"
}
