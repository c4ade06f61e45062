package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-importer/internal/models"
)

// MemoryStore keeps everything in process. It backs dry runs and tests.
type MemoryStore struct {
	txMu         sync.Mutex
	mu           sync.Mutex
	accounts     map[string]*Account
	categories   []Category
	transactions []Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: map[string]*Account{}}
}

func (s *MemoryStore) FindOrCreateAccount(_ context.Context, userID, name string, bank models.BankType) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.UserID == userID && a.Name == name {
			return *a, nil
		}
	}
	a := &Account{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     name,
		Type:     AccountTypeBank,
		BankName: string(bank),
		Balance:  decimal.Zero,
	}
	s.accounts[a.ID] = a
	return *a, nil
}

func (s *MemoryStore) FindOrCreateCategory(_ context.Context, userID, name string, txType models.TransactionType) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.UserID == userID && c.Name == name {
			return c, nil
		}
	}
	c := Category{ID: uuid.NewString(), UserID: userID, Name: name, Type: txType}
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *MemoryStore) TransactionExists(_ context.Context, userID string, date time.Time, description string, amount decimal.Decimal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.transactions {
		if t.UserID == userID && t.Date.Equal(date) && t.Description == description && t.Amount.Equal(amount) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) CreateTransaction(_ context.Context, txn Transaction) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn.ID = uuid.NewString()
	s.transactions = append(s.transactions, txn)
	return txn, nil
}

func (s *MemoryStore) AdjustAccountBalance(_ context.Context, accountID string, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %s not found", accountID)
	}
	a.Balance = a.Balance.Add(delta)
	return nil
}

// RunInTx serializes fn against other RunInTx calls and restores the
// previous contents when fn fails.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	accounts := make(map[string]Account, len(s.accounts))
	for id, a := range s.accounts {
		accounts[id] = *a
	}
	categories := len(s.categories)
	transactions := len(s.transactions)
	s.mu.Unlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.accounts = make(map[string]*Account, len(accounts))
		for id, a := range accounts {
			s.accounts[id] = &a
		}
		s.categories = s.categories[:categories]
		s.transactions = s.transactions[:transactions]
		return err
	}
	return nil
}

// Transactions returns a copy of the stored transactions.
func (s *MemoryStore) Transactions() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Transaction(nil), s.transactions...)
}

// Categories returns a copy of the stored categories.
func (s *MemoryStore) Categories() []Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Category(nil), s.categories...)
}

// Account returns the account with the given id.
func (s *MemoryStore) Account(id string) (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return Account{}, false
	}
	return *a, true
}
