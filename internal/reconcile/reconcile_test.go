package reconcile

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-importer/internal/models"
)

func sampleResult() models.ParsingResult {
	return models.ParsingResult{
		Success:      true,
		BankDetected: models.BankNubank,
		Transactions: []models.ParsedTransaction{
			{Date: "2024-03-10", Description: "iFood", Amount: 45.9, Type: models.TypeExpense, Category: "Restaurante"},
			{Date: "2024-03-11", Description: "Pix recebido", Amount: 200, Type: models.TypeIncome},
			{Date: "2024-03-12", Description: "Mercado", Amount: 100.1, Type: models.TypeExpense},
		},
	}
}

func newTestReconciler(store Store) *Reconciler {
	return New(store, log.New(io.Discard), "")
}

func TestImportCreatesAccountAndTransactions(t *testing.T) {
	store := NewMemoryStore()
	r := newTestReconciler(store)

	report, err := r.Import(context.Background(), Request{UserID: "u1", SourceName: "nubank.csv"}, sampleResult())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, 0, report.Duplicates)
	assert.Equal(t, 3, report.TotalProcessed)
	assert.Equal(t, "Nubank", report.AccountName)
	assert.Equal(t, models.BankNubank, report.BankDetected)
	assert.Empty(t, report.Errors)

	txns := store.Transactions()
	require.Len(t, txns, 3)
	assert.Equal(t, "Importado de nubank.csv (NUBANK)", txns[0].Notes)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), txns[0].Date)
	assert.True(t, decimal.RequireFromString("45.90").Equal(txns[0].Amount))

	account, ok := store.Account(txns[0].AccountID)
	require.True(t, ok)
	assert.Equal(t, AccountTypeBank, account.Type)
	assert.Equal(t, "NUBANK", account.BankName)
	assert.True(t, decimal.RequireFromString("54.00").Equal(account.Balance), account.Balance.String())
}

func TestImportCategories(t *testing.T) {
	store := NewMemoryStore()
	r := newTestReconciler(store)

	_, err := r.Import(context.Background(), Request{UserID: "u1"}, sampleResult())
	require.NoError(t, err)

	categories := store.Categories()
	require.Len(t, categories, 2)
	assert.Equal(t, "Restaurante", categories[0].Name)
	assert.Equal(t, models.TypeExpense, categories[0].Type)
	assert.Equal(t, "Geral", categories[1].Name)
	assert.Equal(t, models.TypeIncome, categories[1].Type)

	txns := store.Transactions()
	require.Len(t, txns, 3)
	assert.Equal(t, txns[1].CategoryID, txns[2].CategoryID)
}

func TestImportReusesCategoryAcrossTypes(t *testing.T) {
	store := NewMemoryStore()
	r := newTestReconciler(store)
	result := models.ParsingResult{
		Success:      true,
		BankDetected: models.BankNubank,
		Transactions: []models.ParsedTransaction{
			{Date: "2024-03-10", Description: "iFood", Amount: 45.9, Type: models.TypeExpense, Category: "Restaurante"},
			{Date: "2024-03-11", Description: "Estorno iFood", Amount: 45.9, Type: models.TypeIncome, Category: "Restaurante"},
		},
	}

	_, err := r.Import(context.Background(), Request{UserID: "u1"}, result)
	require.NoError(t, err)

	assert.Len(t, store.Categories(), 1)
}

func TestImportSkipsDuplicates(t *testing.T) {
	store := NewMemoryStore()
	r := newTestReconciler(store)
	req := Request{UserID: "u1", AccountName: "Conta Nubank"}

	_, err := r.Import(context.Background(), req, sampleResult())
	require.NoError(t, err)

	report, err := r.Import(context.Background(), req, sampleResult())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 3, report.Duplicates)
	assert.Equal(t, 3, report.Skipped)
	assert.Equal(t, "Conta Nubank", report.AccountName)
	assert.Len(t, store.Transactions(), 3)
	assert.Len(t, store.Categories(), 2)
}

func TestImportDuplicatesAreScopedToUser(t *testing.T) {
	store := NewMemoryStore()
	r := newTestReconciler(store)

	_, err := r.Import(context.Background(), Request{UserID: "u1"}, sampleResult())
	require.NoError(t, err)
	report, err := r.Import(context.Background(), Request{UserID: "u2"}, sampleResult())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Imported)
	assert.Len(t, store.Transactions(), 6)
}

func TestImportRejectsFailedParse(t *testing.T) {
	r := newTestReconciler(NewMemoryStore())

	_, err := r.Import(context.Background(), Request{UserID: "u1"}, models.ParsingResult{Success: false})
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestImportRequiresUser(t *testing.T) {
	r := newTestReconciler(NewMemoryStore())

	_, err := r.Import(context.Background(), Request{}, sampleResult())
	assert.Error(t, err)
}

type failingStore struct {
	*MemoryStore
	failOn        string
	failBalanceOn bool
}

func (s *failingStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.MemoryStore.RunInTx(ctx, func(ctx context.Context, _ Store) error {
		return fn(ctx, s)
	})
}

func (s *failingStore) CreateTransaction(ctx context.Context, txn Transaction) (Transaction, error) {
	if txn.Description == s.failOn {
		return Transaction{}, errors.New("disk full")
	}
	return s.MemoryStore.CreateTransaction(ctx, txn)
}

func (s *failingStore) AdjustAccountBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	if s.failBalanceOn {
		return errors.New("connection reset")
	}
	return s.MemoryStore.AdjustAccountBalance(ctx, accountID, delta)
}

func TestImportCollectsPerTransactionErrors(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), failOn: "Pix recebido"}
	r := newTestReconciler(store)

	report, err := r.Import(context.Background(), Request{UserID: "u1"}, sampleResult())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Duplicates)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "disk full")
}

func TestImportStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestReconciler(NewMemoryStore()).Import(ctx, Request{UserID: "u1"}, sampleResult())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImportRollsBackWhenBalanceUpdateFails(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), failBalanceOn: true}
	r := newTestReconciler(store)
	req := Request{UserID: "u1"}

	report, err := r.Import(context.Background(), req, sampleResult())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 3, report.Skipped)
	require.Len(t, report.Errors, 3)
	assert.Contains(t, report.Errors[0], "connection reset")
	assert.Empty(t, store.Transactions())
	assert.Empty(t, store.Categories())

	store.failBalanceOn = false
	report, err = r.Import(context.Background(), req, sampleResult())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, 0, report.Duplicates)

	txns := store.Transactions()
	require.Len(t, txns, 3)
	account, ok := store.Account(txns[0].AccountID)
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("54.00").Equal(account.Balance), account.Balance.String())
}
