package ports

import (
	"context"

	"bankline/internal/core/domain"

	"github.com/shopspring/decimal"
)

// AccountRef is an opaque handle to a ledger-owned account. Sessions hold at
// most one after authenticating and never a private copy of the account.
// The accessors expose only fields that are immutable after registration.
type AccountRef interface {
	Email() string
	Name() string
	PPSNumber() string
}

// RegisterRequest carries the raw registration fields as received from the
// client. BalanceText is parsed by the ledger, not the protocol layer.
type RegisterRequest struct {
	Name        string
	PPSNumber   string
	Email       string
	Password    string
	Address     string
	BalanceText string
}

// Ledger owns all accounts and serializes concurrent access to them. Every
// operation is atomic with respect to all others.
type Ledger interface {
	// Register creates a new account. Fails with apperror.ErrDuplicateKey if
	// the email or PPS number is already taken, apperror.ErrInvalidAmount if
	// the opening balance is unparseable or negative.
	Register(ctx context.Context, req RegisterRequest) (AccountRef, error)

	// Authenticate resolves an account by email and compares the password
	// secret. Returns apperror.ErrInvalidCredentials on any mismatch without
	// distinguishing which field was wrong.
	Authenticate(ctx context.Context, email, password string) (AccountRef, error)

	// FindByEmail resolves an account by email, apperror.ErrAccountNotFound
	// if absent.
	FindByEmail(ctx context.Context, email string) (AccountRef, error)

	// Lodge adds amount to the account balance and appends a lodge record.
	// Returns the new balance.
	Lodge(ctx context.Context, ref AccountRef, amount decimal.Decimal) (decimal.Decimal, error)

	// Transfer atomically debits from and credits to, appending one record to
	// each side. Fails with apperror.ErrInsufficientFunds without mutating
	// anything if the sender's balance is short. Returns the sender's new
	// balance.
	Transfer(ctx context.Context, from, to AccountRef, amount decimal.Decimal) (decimal.Decimal, error)

	// ChangePassword overwrites the account's password secret.
	ChangePassword(ctx context.Context, ref AccountRef, newSecret string) error

	// ListAccounts returns a consistent point-in-time snapshot of every
	// account in insertion order. It never observes a transfer mid-flight.
	ListAccounts(ctx context.Context) ([]domain.AccountSnapshot, error)

	// GetTransactions returns a copy of the account's history in
	// chronological order.
	GetTransactions(ctx context.Context, ref AccountRef) ([]domain.TransactionRecord, error)
}
