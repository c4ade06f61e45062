package models

// TransactionType is the direction of money movement.
type TransactionType string

const (
	TypeIncome  TransactionType = "INCOME"
	TypeExpense TransactionType = "EXPENSE"
)

// ParsedTransaction is one normalized statement entry.
// Amount is always non-negative; the direction lives in Type.
type ParsedTransaction struct {
	Date           string          `json:"date"` // YYYY-MM-DD
	Description    string          `json:"description"`
	Amount         float64         `json:"amount"`
	Type           TransactionType `json:"type"`
	Category       string          `json:"category,omitempty"`
	Account        string          `json:"account,omitempty"`
	DateWasGuessed bool            `json:"dateWasGuessed,omitempty"`
	LineNumber     int             `json:"lineNumber,omitempty"`
}

// Summary aggregates a set of parsed transactions.
type Summary struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Balance  float64 `json:"balance"`
}

// SkippedLine records an input line that did not yield a transaction.
type SkippedLine struct {
	LineNumber int    `json:"lineNumber"`
	RawText    string `json:"rawText"`
	Reason     string `json:"reason"`
}

// ParsingResult is the outcome of parsing a single statement file.
type ParsingResult struct {
	Success           bool                `json:"success"`
	BankDetected      BankType            `json:"bankDetected"`
	TotalTransactions int                 `json:"totalTransactions"`
	Transactions      []ParsedTransaction `json:"transactions"`
	Summary           Summary             `json:"summary"`
	Errors            []string            `json:"errors"`
	SkippedLines      []SkippedLine       `json:"skippedLines"`
	AccountNumber     string              `json:"accountNumber,omitempty"`
	SourceFile        string              `json:"sourceFile,omitempty"`
}
