package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"bankline/internal/core/domain"
	"bankline/internal/core/ports"
)

// Store persists accounts as a single JSON snapshot file and transactions as
// a JSON-lines journal. The snapshot is the source of truth on load; the
// journal exists for audit and is never replayed.
type Store struct {
	mu           sync.Mutex
	accountsPath string
	journalPath  string
}

// journalEntry is one line of the transaction journal.
type journalEntry struct {
	Email  string                   `json:"email"`
	Record domain.TransactionRecord `json:"record"`
}

// NewStore creates a store over the given file paths. Files are created on
// first write.
func NewStore(accountsPath, journalPath string) *Store {
	return &Store{
		accountsPath: accountsPath,
		journalPath:  journalPath,
	}
}

// LoadAccounts reads the snapshot file. A missing file is an empty ledger,
// not an error.
func (s *Store) LoadAccounts(ctx context.Context) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.accountsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.accountsPath, err)
	}

	var accounts []domain.Account
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.accountsPath, err)
	}
	return accounts, nil
}

// SaveAccounts atomically replaces the snapshot file: write to a temp file
// in the same directory, fsync, rename over the old snapshot.
func (s *Store) SaveAccounts(ctx context.Context, accounts []domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding accounts: %w", err)
	}

	dir := filepath.Dir(s.accountsPath)
	tmp, err := os.CreateTemp(dir, ".accounts-*.json")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.accountsPath); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// AppendTransaction adds one journal line and syncs it to disk.
func (s *Store) AppendTransaction(ctx context.Context, email string, record domain.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.journalPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(journalEntry{Email: email, Record: record}); err != nil {
		return fmt.Errorf("appending journal entry: %w", err)
	}
	return f.Sync()
}

// ReadJournal returns all journal entries in append order. Used by tooling
// and tests; the server never replays the journal.
func (s *Store) ReadJournal(ctx context.Context) ([]domain.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.journalPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	var out []domain.TransactionRecord
	dec := json.NewDecoder(f)
	for dec.More() {
		var entry journalEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, fmt.Errorf("decoding journal entry: %w", err)
		}
		out = append(out, entry.Record)
	}
	return out, nil
}

var _ ports.Persistence = (*Store)(nil)
