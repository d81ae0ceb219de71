package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind discriminates the direction of a money movement as seen
// from the owning account.
type TransactionKind string

const (
	TransactionKindLodge       TransactionKind = "LODGE"
	TransactionKindTransferOut TransactionKind = "TRANSFER_OUT"
	TransactionKindTransferIn  TransactionKind = "TRANSFER_IN"
)

// TransactionRecord is an immutable entry in an account's history. Records
// are appended in chronological order and never reordered or truncated.
type TransactionRecord struct {
	ID               uuid.UUID       `json:"id"`
	Kind             TransactionKind `json:"kind"`
	Amount           decimal.Decimal `json:"amount"`
	Counterparty     string          `json:"counterparty,omitempty"` // email of the other side, transfers only
	ResultingBalance decimal.Decimal `json:"resulting_balance"`
	CreatedAt        time.Time       `json:"created_at"`
}
