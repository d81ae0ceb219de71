package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a registered customer account. Email and PPSNumber are each
// globally unique identity keys and never change after registration; the
// ledger is the only component allowed to mutate Balance, PasswordSecret or
// Transactions.
type Account struct {
	Email          string              `json:"email"`
	PPSNumber      string              `json:"pps_number"`
	Name           string              `json:"name"`
	Address        string              `json:"address"`
	PasswordSecret string              `json:"password_secret"` // plaintext by contract, see DESIGN.md
	Balance        decimal.Decimal     `json:"balance"`
	Transactions   []TransactionRecord `json:"transactions"`
	CreatedAt      time.Time           `json:"created_at"`
}

// Snapshot returns a point-in-time copy safe to hand outside the ledger.
func (a *Account) Snapshot() AccountSnapshot {
	return AccountSnapshot{
		Email:     a.Email,
		PPSNumber: a.PPSNumber,
		Name:      a.Name,
		Address:   a.Address,
		Balance:   a.Balance,
	}
}

// AccountSnapshot is a read-only view of an account without secrets or
// transaction history, used for listings.
type AccountSnapshot struct {
	Email     string          `json:"email"`
	PPSNumber string          `json:"pps_number"`
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	Balance   decimal.Decimal `json:"balance"`
}
