package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/insightdelivered/statement-importer/internal/models"
)

type accountRow struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID        string `bun:",pk"`
	UserID    string `bun:",notnull"`
	Name      string `bun:",notnull"`
	Type      string `bun:",notnull"`
	BankName  string
	Balance   decimal.Decimal `bun:"type:numeric(14,2),notnull"`
	CreatedAt time.Time       `bun:",nullzero,notnull,default:current_timestamp"`
}

type categoryRow struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID        string    `bun:",pk"`
	UserID    string    `bun:",notnull"`
	Name      string    `bun:",notnull"`
	Type      string    `bun:",notnull"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

type transactionRow struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID          string          `bun:",pk"`
	UserID      string          `bun:",notnull"`
	AccountID   string          `bun:",notnull"`
	CategoryID  string          `bun:",notnull"`
	Date        time.Time       `bun:"type:date,notnull"`
	Description string          `bun:",notnull"`
	Amount      decimal.Decimal `bun:"type:numeric(14,2),notnull"`
	Type        string          `bun:",notnull"`
	Notes       string          `bun:"type:text"`
	CreatedAt   time.Time       `bun:",nullzero,notnull,default:current_timestamp"`
}

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	db bun.IDB
}

// OpenPostgres connects to the database at dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return NewPostgresStore(db), nil
}

func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*bun.DB); ok {
		return db.Close()
	}
	return nil
}

// RunInTx runs fn inside a database transaction. The Store handed to fn
// writes through that transaction, which rolls back when fn fails.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &PostgresStore{db: tx})
	})
}

// Migrate creates the tables and the duplicate-lookup index when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, model := range []any{(*accountRow)(nil), (*categoryRow)(nil), (*transactionRow)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	if _, err := s.dedupIndexQuery().Exec(ctx); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (s *PostgresStore) dedupIndexQuery() *bun.CreateIndexQuery {
	return s.db.NewCreateIndex().
		Model((*transactionRow)(nil)).
		Index("transactions_dedup_idx").
		IfNotExists().
		Column("user_id", "date", "description", "amount")
}

func (s *PostgresStore) FindOrCreateAccount(ctx context.Context, userID, name string, bank models.BankType) (Account, error) {
	row := new(accountRow)
	err := s.db.NewSelect().Model(row).
		Where("user_id = ?", userID).
		Where("name = ?", name).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return row.toAccount(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Account{}, err
	}

	row = &accountRow{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     name,
		Type:     AccountTypeBank,
		BankName: string(bank),
		Balance:  decimal.Zero,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return Account{}, err
	}
	return row.toAccount(), nil
}

func (s *PostgresStore) FindOrCreateCategory(ctx context.Context, userID, name string, txType models.TransactionType) (Category, error) {
	row := new(categoryRow)
	err := s.categoryLookupQuery(row, userID, name).Scan(ctx)
	if err == nil {
		return row.toCategory(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Category{}, err
	}

	row = &categoryRow{ID: uuid.NewString(), UserID: userID, Name: name, Type: string(txType)}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return Category{}, err
	}
	return row.toCategory(), nil
}

func (s *PostgresStore) categoryLookupQuery(row *categoryRow, userID, name string) *bun.SelectQuery {
	return s.db.NewSelect().Model(row).
		Where("user_id = ?", userID).
		Where("name = ?", name).
		Limit(1)
}

func (s *PostgresStore) TransactionExists(ctx context.Context, userID string, date time.Time, description string, amount decimal.Decimal) (bool, error) {
	return s.transactionExistsQuery(userID, date, description, amount).Exists(ctx)
}

func (s *PostgresStore) transactionExistsQuery(userID string, date time.Time, description string, amount decimal.Decimal) *bun.SelectQuery {
	return s.db.NewSelect().Model((*transactionRow)(nil)).
		Where("user_id = ?", userID).
		Where("date = ?", date.Format(time.DateOnly)).
		Where("description = ?", description).
		Where("amount = ?", amount.StringFixed(2))
}

func (s *PostgresStore) CreateTransaction(ctx context.Context, txn Transaction) (Transaction, error) {
	txn.ID = uuid.NewString()
	row := &transactionRow{
		ID:          txn.ID,
		UserID:      txn.UserID,
		AccountID:   txn.AccountID,
		CategoryID:  txn.CategoryID,
		Date:        txn.Date,
		Description: txn.Description,
		Amount:      txn.Amount,
		Type:        string(txn.Type),
		Notes:       txn.Notes,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

func (s *PostgresStore) AdjustAccountBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	res, err := s.balanceUpdateQuery(accountID, delta).Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("account %s not found", accountID)
	}
	return nil
}

func (s *PostgresStore) balanceUpdateQuery(accountID string, delta decimal.Decimal) *bun.UpdateQuery {
	return s.db.NewUpdate().Model((*accountRow)(nil)).
		Set("balance = balance + ?", delta.StringFixed(2)).
		Where("id = ?", accountID)
}

func (r *accountRow) toAccount() Account {
	return Account{
		ID:       r.ID,
		UserID:   r.UserID,
		Name:     r.Name,
		Type:     r.Type,
		BankName: r.BankName,
		Balance:  r.Balance,
	}
}

func (r *categoryRow) toCategory() Category {
	return Category{ID: r.ID, UserID: r.UserID, Name: r.Name, Type: models.TransactionType(r.Type)}
}
