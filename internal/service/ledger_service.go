package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bankline/internal/core/domain"
	"bankline/internal/core/ports"
	"bankline/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// managedAccount pairs an account with its own mutex. Email, PPSNumber, Name
// and Address are immutable after registration and may be read without the
// lock; Balance, PasswordSecret and Transactions only under it.
type managedAccount struct {
	mu   sync.Mutex
	data domain.Account
}

func (a *managedAccount) Email() string     { return a.data.Email }
func (a *managedAccount) Name() string      { return a.data.Name }
func (a *managedAccount) PPSNumber() string { return a.data.PPSNumber }

var _ ports.AccountRef = (*managedAccount)(nil)

// LedgerService implements ports.Ledger over an in-memory registry.
//
// Locking discipline:
//   - mu guards the registry maps and insertion order. Register takes the
//     write lock; per-account mutations take the read lock plus the affected
//     account locks; snapshot reads (ListAccounts) take the write lock, which
//     excludes every in-flight mutation and therefore can never observe a
//     half-applied transfer.
//   - Two-account operations acquire the account locks in canonical key
//     order (lexicographic email), never in call-argument order, so opposing
//     concurrent transfers cannot deadlock.
type LedgerService struct {
	mu      sync.RWMutex
	byEmail map[string]*managedAccount
	byPPS   map[string]*managedAccount
	order   []*managedAccount

	store    ports.Persistence
	verifier ports.PasswordVerifier
	log      zerolog.Logger
}

// NewLedgerService builds the registry from the persistence collaborator's
// stored accounts. Stored duplicates are a corruption and refuse to load.
func NewLedgerService(ctx context.Context, store ports.Persistence, verifier ports.PasswordVerifier, log zerolog.Logger) (*LedgerService, error) {
	accounts, err := store.LoadAccounts(ctx)
	if err != nil {
		return nil, apperror.ErrPersistence(err)
	}

	s := &LedgerService{
		byEmail:  make(map[string]*managedAccount, len(accounts)),
		byPPS:    make(map[string]*managedAccount, len(accounts)),
		store:    store,
		verifier: verifier,
		log:      log,
	}
	for _, acct := range accounts {
		if _, taken := s.byEmail[acct.Email]; taken {
			return nil, fmt.Errorf("stored accounts contain duplicate email %q", acct.Email)
		}
		if _, taken := s.byPPS[acct.PPSNumber]; taken {
			return nil, fmt.Errorf("stored accounts contain duplicate PPS number %q", acct.PPSNumber)
		}
		m := &managedAccount{data: acct}
		s.byEmail[acct.Email] = m
		s.byPPS[acct.PPSNumber] = m
		s.order = append(s.order, m)
	}

	log.Info().Int("accounts", len(accounts)).Msg("ledger loaded")
	return s, nil
}

// Register creates and inserts a new account.
func (s *LedgerService) Register(ctx context.Context, req ports.RegisterRequest) (ports.AccountRef, error) {
	balance, err := decimal.NewFromString(req.BalanceText)
	if err != nil {
		return nil, apperror.ErrInvalidAmount()
	}
	if balance.IsNegative() {
		return nil, apperror.ErrInvalidAmount()
	}

	m := &managedAccount{data: domain.Account{
		Email:          req.Email,
		PPSNumber:      req.PPSNumber,
		Name:           req.Name,
		Address:        req.Address,
		PasswordSecret: req.Password,
		Balance:        balance,
		CreatedAt:      time.Now().UTC(),
	}}

	s.mu.Lock()
	if _, taken := s.byEmail[req.Email]; taken {
		s.mu.Unlock()
		return nil, apperror.ErrDuplicateKey()
	}
	if _, taken := s.byPPS[req.PPSNumber]; taken {
		s.mu.Unlock()
		return nil, apperror.ErrDuplicateKey()
	}
	s.byEmail[req.Email] = m
	s.byPPS[req.PPSNumber] = m
	s.order = append(s.order, m)
	s.mu.Unlock()

	s.saveAccounts(ctx)

	s.log.Info().Str("email", req.Email).Msg("account registered")
	return m, nil
}

// Authenticate resolves by email and compares the password secret. The error
// never reveals which of the two checks failed.
func (s *LedgerService) Authenticate(ctx context.Context, email, password string) (ports.AccountRef, error) {
	s.mu.RLock()
	m := s.byEmail[email]
	s.mu.RUnlock()
	if m == nil {
		return nil, apperror.ErrInvalidCredentials()
	}

	m.mu.Lock()
	ok := s.verifier.Verify(m.data.PasswordSecret, password)
	m.mu.Unlock()
	if !ok {
		return nil, apperror.ErrInvalidCredentials()
	}
	return m, nil
}

// FindByEmail resolves an account by email.
func (s *LedgerService) FindByEmail(ctx context.Context, email string) (ports.AccountRef, error) {
	s.mu.RLock()
	m := s.byEmail[email]
	s.mu.RUnlock()
	if m == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	return m, nil
}

// Lodge adds amount to the account and appends a lodge record.
func (s *LedgerService) Lodge(ctx context.Context, ref ports.AccountRef, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, apperror.ErrInvalidAmount()
	}
	m, err := s.resolve(ref)
	if err != nil {
		return decimal.Zero, err
	}

	s.mu.RLock()
	m.mu.Lock()
	m.data.Balance = m.data.Balance.Add(amount)
	rec := newRecord(domain.TransactionKindLodge, amount, "", m.data.Balance)
	m.data.Transactions = append(m.data.Transactions, rec)
	newBalance := m.data.Balance
	m.mu.Unlock()
	s.mu.RUnlock()

	s.appendRecord(ctx, m.Email(), rec)
	s.saveAccounts(ctx)

	s.log.Info().Str("email", m.Email()).Str("amount", amount.String()).Msg("lodgement applied")
	return newBalance, nil
}

// Transfer atomically moves amount between two accounts. Nothing is mutated
// on failure.
func (s *LedgerService) Transfer(ctx context.Context, from, to ports.AccountRef, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, apperror.ErrInvalidAmount()
	}
	sender, err := s.resolve(from)
	if err != nil {
		return decimal.Zero, err
	}
	receiver, err := s.resolve(to)
	if err != nil {
		return decimal.Zero, err
	}

	s.mu.RLock()
	first, second := lockOrder(sender, receiver)
	first.mu.Lock()
	if second != first {
		second.mu.Lock()
	}

	if sender.data.Balance.LessThan(amount) {
		if second != first {
			second.mu.Unlock()
		}
		first.mu.Unlock()
		s.mu.RUnlock()
		return decimal.Zero, apperror.ErrInsufficientFunds()
	}

	sender.data.Balance = sender.data.Balance.Sub(amount)
	receiver.data.Balance = receiver.data.Balance.Add(amount)

	outRec := newRecord(domain.TransactionKindTransferOut, amount, receiver.Email(), sender.data.Balance)
	inRec := newRecord(domain.TransactionKindTransferIn, amount, sender.Email(), receiver.data.Balance)
	sender.data.Transactions = append(sender.data.Transactions, outRec)
	receiver.data.Transactions = append(receiver.data.Transactions, inRec)
	newBalance := sender.data.Balance

	if second != first {
		second.mu.Unlock()
	}
	first.mu.Unlock()
	s.mu.RUnlock()

	s.appendRecord(ctx, sender.Email(), outRec)
	s.appendRecord(ctx, receiver.Email(), inRec)
	s.saveAccounts(ctx)

	s.log.Info().
		Str("from", sender.Email()).
		Str("to", receiver.Email()).
		Str("amount", amount.String()).
		Msg("transfer applied")
	return newBalance, nil
}

// ChangePassword unconditionally overwrites the account's password secret.
func (s *LedgerService) ChangePassword(ctx context.Context, ref ports.AccountRef, newSecret string) error {
	m, err := s.resolve(ref)
	if err != nil {
		return err
	}

	s.mu.RLock()
	m.mu.Lock()
	m.data.PasswordSecret = newSecret
	m.mu.Unlock()
	s.mu.RUnlock()

	s.saveAccounts(ctx)

	s.log.Info().Str("email", m.Email()).Msg("password changed")
	return nil
}

// ListAccounts returns a consistent snapshot of every account in insertion
// order. The write lock excludes all mutations for the duration of the copy.
func (s *LedgerService) ListAccounts(ctx context.Context) ([]domain.AccountSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.AccountSnapshot, 0, len(s.order))
	for _, m := range s.order {
		out = append(out, m.data.Snapshot())
	}
	return out, nil
}

// GetTransactions returns a copy of the account's history.
func (s *LedgerService) GetTransactions(ctx context.Context, ref ports.AccountRef) ([]domain.TransactionRecord, error) {
	m, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	m.mu.Lock()
	out := make([]domain.TransactionRecord, len(m.data.Transactions))
	copy(out, m.data.Transactions)
	m.mu.Unlock()
	s.mu.RUnlock()

	return out, nil
}

// resolve recovers the managed account behind an opaque ref.
func (s *LedgerService) resolve(ref ports.AccountRef) (*managedAccount, error) {
	m, ok := ref.(*managedAccount)
	if !ok || m == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	return m, nil
}

// lockOrder returns the two accounts in canonical key order. A self-transfer
// yields the same account twice; callers lock it once.
func lockOrder(a, b *managedAccount) (*managedAccount, *managedAccount) {
	if a == b {
		return a, a
	}
	if a.Email() < b.Email() {
		return a, b
	}
	return b, a
}

func newRecord(kind domain.TransactionKind, amount decimal.Decimal, counterparty string, resulting decimal.Decimal) domain.TransactionRecord {
	return domain.TransactionRecord{
		ID:               uuid.New(),
		Kind:             kind,
		Amount:           amount,
		Counterparty:     counterparty,
		ResultingBalance: resulting,
		CreatedAt:        time.Now().UTC(),
	}
}

// saveAccounts pushes a full snapshot to the persistence collaborator.
// Best-effort: a storage failure is logged, the completed operation stands.
func (s *LedgerService) saveAccounts(ctx context.Context) {
	s.mu.Lock()
	snapshot := make([]domain.Account, 0, len(s.order))
	for _, m := range s.order {
		acct := m.data
		acct.Transactions = make([]domain.TransactionRecord, len(m.data.Transactions))
		copy(acct.Transactions, m.data.Transactions)
		snapshot = append(snapshot, acct)
	}
	s.mu.Unlock()

	if err := s.store.SaveAccounts(ctx, snapshot); err != nil {
		s.log.Warn().Err(err).Msg("failed to save accounts")
	}
}

func (s *LedgerService) appendRecord(ctx context.Context, email string, rec domain.TransactionRecord) {
	if err := s.store.AppendTransaction(ctx, email, rec); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("failed to journal transaction")
	}
}

var _ ports.Ledger = (*LedgerService)(nil)
