package postgres

import (
	"context"
	"fmt"

	"bankline/internal/core/domain"
	"bankline/internal/core/ports"

	"github.com/shopspring/decimal"
)

// Store implements ports.Persistence on PostgreSQL. Accounts are kept as a
// replaceable snapshot table ordered by insertion position; transactions are
// an append-only journal. Money columns are TEXT holding exact decimal
// strings, so no precision is lost round-tripping through the database.
type Store struct {
	pool Pool
}

// NewStore creates a Store over the given pool.
func NewStore(pool Pool) *Store {
	return &Store{pool: pool}
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS accounts (
	email            TEXT PRIMARY KEY,
	pps_number       TEXT NOT NULL UNIQUE,
	name             TEXT NOT NULL,
	address          TEXT NOT NULL,
	password_secret  TEXT NOT NULL,
	balance          TEXT NOT NULL,
	position         BIGINT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS transactions (
	seq               BIGSERIAL PRIMARY KEY,
	id                UUID NOT NULL,
	account_email     TEXT NOT NULL,
	kind              TEXT NOT NULL,
	amount            TEXT NOT NULL,
	counterparty      TEXT NOT NULL DEFAULT '',
	resulting_balance TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL
)`

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

// LoadAccounts returns all accounts in insertion order with their full
// transaction history attached.
func (s *Store) LoadAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT email, pps_number, name, address, password_secret, balance, created_at
		 FROM accounts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	index := make(map[string]int)
	for rows.Next() {
		var acct domain.Account
		var balanceText string
		if err := rows.Scan(&acct.Email, &acct.PPSNumber, &acct.Name, &acct.Address,
			&acct.PasswordSecret, &balanceText, &acct.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		if acct.Balance, err = decimal.NewFromString(balanceText); err != nil {
			return nil, fmt.Errorf("parsing balance for %s: %w", acct.Email, err)
		}
		index[acct.Email] = len(accounts)
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}

	txRows, err := s.pool.Query(ctx,
		`SELECT account_email, id, kind, amount, counterparty, resulting_balance, created_at
		 FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer txRows.Close()

	for txRows.Next() {
		var email, amountText, balanceText string
		var rec domain.TransactionRecord
		if err := txRows.Scan(&email, &rec.ID, &rec.Kind, &amountText,
			&rec.Counterparty, &balanceText, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		if rec.Amount, err = decimal.NewFromString(amountText); err != nil {
			return nil, fmt.Errorf("parsing transaction amount: %w", err)
		}
		if rec.ResultingBalance, err = decimal.NewFromString(balanceText); err != nil {
			return nil, fmt.Errorf("parsing resulting balance: %w", err)
		}
		i, ok := index[email]
		if !ok {
			// Journal rows for accounts missing from the snapshot are kept in
			// the table but not loaded.
			continue
		}
		accounts[i].Transactions = append(accounts[i].Transactions, rec)
	}
	if err := txRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return accounts, nil
}

// SaveAccounts replaces the account snapshot in a single transaction.
func (s *Store) SaveAccounts(ctx context.Context, accounts []domain.Account) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM accounts`); err != nil {
		return fmt.Errorf("clearing accounts: %w", err)
	}

	for i, acct := range accounts {
		_, err := tx.Exec(ctx,
			`INSERT INTO accounts (email, pps_number, name, address, password_secret, balance, position, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			acct.Email, acct.PPSNumber, acct.Name, acct.Address,
			acct.PasswordSecret, acct.Balance.String(), int64(i), acct.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting account %s: %w", acct.Email, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// AppendTransaction inserts one journal row.
func (s *Store) AppendTransaction(ctx context.Context, email string, record domain.TransactionRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transactions (id, account_email, kind, amount, counterparty, resulting_balance, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, email, string(record.Kind), record.Amount.String(),
		record.Counterparty, record.ResultingBalance.String(), record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	return nil
}

var _ ports.Persistence = (*Store)(nil)
