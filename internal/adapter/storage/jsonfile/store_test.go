package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bankline/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return NewStore(filepath.Join(dir, "accounts.json"), filepath.Join(dir, "journal.jsonl"))
}

func sampleAccount(email string, balance string) domain.Account {
	return domain.Account{
		Email:          email,
		PPSNumber:      "1234567AB",
		Name:           "Alice",
		Address:        "1 Main Street",
		PasswordSecret: "secret",
		Balance:        decimal.RequireFromString(balance),
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
}

func TestLoadAccounts_MissingFileIsEmptyLedger(t *testing.T) {
	store := newTestStore(t)

	accounts, err := store.LoadAccounts(context.Background())
	require.NoError(t, err)
	assert.Nil(t, accounts)
}

func TestSaveAndLoadAccounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := sampleAccount("alice@bank.com", "150.50")
	alice.Transactions = []domain.TransactionRecord{{
		ID:               uuid.New(),
		Kind:             domain.TransactionKindLodge,
		Amount:           decimal.RequireFromString("50.50"),
		ResultingBalance: decimal.RequireFromString("150.50"),
		CreatedAt:        alice.CreatedAt,
	}}
	bob := sampleAccount("bob@bank.com", "40")
	bob.PPSNumber = "7654321CD"

	require.NoError(t, store.SaveAccounts(ctx, []domain.Account{alice, bob}))

	loaded, err := store.LoadAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "alice@bank.com", loaded[0].Email)
	assert.True(t, loaded[0].Balance.Equal(alice.Balance))
	require.Len(t, loaded[0].Transactions, 1)
	assert.Equal(t, alice.Transactions[0].ID, loaded[0].Transactions[0].ID)
	assert.True(t, loaded[0].Transactions[0].Amount.Equal(alice.Transactions[0].Amount))

	assert.Equal(t, "bob@bank.com", loaded[1].Email)
	assert.Equal(t, "7654321CD", loaded[1].PPSNumber)
}

func TestSaveAccounts_ReplacesPreviousSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAccounts(ctx, []domain.Account{sampleAccount("alice@bank.com", "100")}))
	require.NoError(t, store.SaveAccounts(ctx, []domain.Account{sampleAccount("bob@bank.com", "40")}))

	loaded, err := store.LoadAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "bob@bank.com", loaded[0].Email)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(store.accountsPath))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestAppendTransaction_JournalKeepsAppendOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := domain.TransactionRecord{
		ID:               uuid.New(),
		Kind:             domain.TransactionKindLodge,
		Amount:           decimal.RequireFromString("50"),
		ResultingBalance: decimal.RequireFromString("150"),
		CreatedAt:        time.Now().UTC().Truncate(time.Second),
	}
	second := domain.TransactionRecord{
		ID:               uuid.New(),
		Kind:             domain.TransactionKindTransferOut,
		Amount:           decimal.RequireFromString("60"),
		Counterparty:     "bob@bank.com",
		ResultingBalance: decimal.RequireFromString("90"),
		CreatedAt:        time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, store.AppendTransaction(ctx, "alice@bank.com", first))
	require.NoError(t, store.AppendTransaction(ctx, "alice@bank.com", second))

	records, err := store.ReadJournal(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, second.ID, records[1].ID)
	assert.Equal(t, domain.TransactionKindTransferOut, records[1].Kind)
	assert.Equal(t, "bob@bank.com", records[1].Counterparty)
}

func TestReadJournal_MissingFileIsEmpty(t *testing.T) {
	store := newTestStore(t)

	records, err := store.ReadJournal(context.Background())
	require.NoError(t, err)
	assert.Nil(t, records)
}
