package ports

import (
	"context"

	"bankline/internal/core/domain"
)

// Persistence is the external collaborator the ledger notifies after
// mutations. The ledger never interprets the storage format; failures are
// reported back and logged, they do not abort the completed operation.
type Persistence interface {
	// LoadAccounts returns all stored accounts in insertion order.
	LoadAccounts(ctx context.Context) ([]domain.Account, error)
	// SaveAccounts replaces the stored account set with the given snapshot.
	SaveAccounts(ctx context.Context, accounts []domain.Account) error
	// AppendTransaction records a single transaction for the given account.
	AppendTransaction(ctx context.Context, email string, record domain.TransactionRecord) error
}
