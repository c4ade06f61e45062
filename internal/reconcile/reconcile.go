// Package reconcile persists parsed statements, skipping transactions that
// were already imported.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-importer/internal/models"
)

// DefaultCategory is used for transactions without a category.
const DefaultCategory = "Geral"

// AccountTypeBank is the type given to accounts created during import.
const AccountTypeBank = "BANK"

// ErrParseFailed is returned when asked to import an unsuccessful result.
var ErrParseFailed = errors.New("cannot import a failed parse")

// Account is a user's ledger account.
type Account struct {
	ID       string
	UserID   string
	Name     string
	Type     string
	BankName string
	Balance  decimal.Decimal
}

// Category groups transactions of one direction.
type Category struct {
	ID     string
	UserID string
	Name   string
	Type   models.TransactionType
}

// Transaction is a stored ledger entry.
type Transaction struct {
	ID          string
	UserID      string
	AccountID   string
	CategoryID  string
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Type        models.TransactionType
	Notes       string
}

// Store is the persistence boundary used by Reconciler.
type Store interface {
	FindOrCreateAccount(ctx context.Context, userID, name string, bank models.BankType) (Account, error)
	// FindOrCreateCategory matches on user and name; txType is only used
	// when the category has to be created.
	FindOrCreateCategory(ctx context.Context, userID, name string, txType models.TransactionType) (Category, error)
	// TransactionExists matches on user, date, description and amount.
	TransactionExists(ctx context.Context, userID string, date time.Time, description string, amount decimal.Decimal) (bool, error)
	CreateTransaction(ctx context.Context, txn Transaction) (Transaction, error)
	AdjustAccountBalance(ctx context.Context, accountID string, delta decimal.Decimal) error
	// RunInTx runs fn atomically against the Store passed to it.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// Request identifies who is importing what.
type Request struct {
	UserID string
	// AccountName defaults to the detected bank's display name.
	AccountName string
	// SourceName is the uploaded filename, recorded in transaction notes.
	SourceName string
}

// Report summarizes one import.
type Report struct {
	Imported       int             `json:"importedCount"`
	Duplicates     int             `json:"duplicateCount"`
	Skipped        int             `json:"skippedCount"`
	TotalProcessed int             `json:"totalProcessed"`
	AccountName    string          `json:"accountName"`
	BankDetected   models.BankType `json:"bankDetected"`
	Errors         []string        `json:"errors"`
}

// Reconciler writes parsed transactions through a Store.
type Reconciler struct {
	store           Store
	logger          *log.Logger
	defaultCategory string
}

// New creates a Reconciler. An empty defaultCategory means DefaultCategory.
func New(store Store, logger *log.Logger, defaultCategory string) *Reconciler {
	if defaultCategory == "" {
		defaultCategory = DefaultCategory
	}
	return &Reconciler{store: store, logger: logger, defaultCategory: defaultCategory}
}

// Import stores every transaction of result that is not already present.
// Failures on individual transactions are collected in the report; the
// returned error is reserved for problems that stop the whole import.
func (r *Reconciler) Import(ctx context.Context, req Request, result models.ParsingResult) (Report, error) {
	if !result.Success {
		return Report{}, ErrParseFailed
	}
	if req.UserID == "" {
		return Report{}, fmt.Errorf("user id is required")
	}

	accountName := req.AccountName
	if accountName == "" {
		accountName = result.BankDetected.DisplayName()
	}

	account, err := r.store.FindOrCreateAccount(ctx, req.UserID, accountName, result.BankDetected)
	if err != nil {
		return Report{}, fmt.Errorf("resolve account %q: %w", accountName, err)
	}

	report := Report{
		AccountName:  account.Name,
		BankDetected: result.BankDetected,
		Errors:       []string{},
	}
	notes := fmt.Sprintf("Importado de %s (%s)", req.SourceName, result.BankDetected)

	for _, parsed := range result.Transactions {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.TotalProcessed++

		imported, err := r.importOne(ctx, req.UserID, account, parsed, notes)
		switch {
		case err != nil:
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("%s %s: %v", parsed.Date, parsed.Description, err))
			r.logger.Warn("transaction not imported", "date", parsed.Date, "description", parsed.Description, "err", err)
		case !imported:
			report.Duplicates++
			report.Skipped++
		default:
			report.Imported++
		}
	}

	r.logger.Info("statement imported",
		"user", req.UserID,
		"account", account.Name,
		"imported", report.Imported,
		"duplicates", report.Duplicates,
		"errors", len(report.Errors),
	)
	return report, nil
}

// importOne returns false when the transaction already exists. The insert
// and the balance adjustment commit together or not at all.
func (r *Reconciler) importOne(ctx context.Context, userID string, account Account, parsed models.ParsedTransaction, notes string) (bool, error) {
	date, err := time.Parse(time.DateOnly, parsed.Date)
	if err != nil {
		return false, fmt.Errorf("invalid date: %w", err)
	}
	amount := decimal.NewFromFloat(parsed.Amount).Round(2)

	categoryName := parsed.Category
	if categoryName == "" {
		categoryName = r.defaultCategory
	}

	imported := false
	err = r.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		exists, err := tx.TransactionExists(ctx, userID, date, parsed.Description, amount)
		if err != nil {
			return fmt.Errorf("duplicate check: %w", err)
		}
		if exists {
			return nil
		}

		category, err := tx.FindOrCreateCategory(ctx, userID, categoryName, parsed.Type)
		if err != nil {
			return fmt.Errorf("resolve category %q: %w", categoryName, err)
		}

		_, err = tx.CreateTransaction(ctx, Transaction{
			UserID:      userID,
			AccountID:   account.ID,
			CategoryID:  category.ID,
			Date:        date,
			Description: parsed.Description,
			Amount:      amount,
			Type:        parsed.Type,
			Notes:       notes,
		})
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		delta := amount
		if parsed.Type == models.TypeExpense {
			delta = amount.Neg()
		}
		if err := tx.AdjustAccountBalance(ctx, account.ID, delta); err != nil {
			return fmt.Errorf("update balance: %w", err)
		}
		imported = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return imported, nil
}
