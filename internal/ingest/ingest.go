// Package ingest turns an uploaded statement file into a ParsingResult.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-importer/internal/extractor"
	"github.com/insightdelivered/statement-importer/internal/models"
	"github.com/insightdelivered/statement-importer/internal/parser"
)

// ErrUnsupportedExtension is returned for files outside the allow-list.
var ErrUnsupportedExtension = errors.New("unsupported file extension")

// AllowedExtensions lists the accepted upload types.
var AllowedExtensions = []string{".csv", ".txt", ".pdf", ".xlsx", ".xls", ".ofx"}

// Options tunes parsing behaviour.
type Options struct {
	// StrictDates drops lines whose date could not be parsed instead of
	// dating them today.
	StrictDates bool
}

// Service parses statement files. It holds no per-call state and is safe
// for concurrent use.
type Service struct {
	logger *log.Logger
	opts   Options
}

// New creates a Service.
func New(logger *log.Logger, opts Options) *Service {
	return &Service{logger: logger, opts: opts}
}

// ValidateExtension checks a filename against AllowedExtensions. Files
// without an extension are read as text.
func ValidateExtension(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return nil
	}
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
}

// ParseFile reads filePath, using originalName for format and bank
// detection. It never returns an error: failures are reported through
// Success and Errors.
func (s *Service) ParseFile(filePath, originalName string) models.ParsingResult {
	return s.parse(filePath, originalName, "")
}

// ParseFileAs is ParseFile with the bank detection overridden.
func (s *Service) ParseFileAs(filePath, originalName string, bank models.BankType) models.ParsingResult {
	return s.parse(filePath, originalName, bank)
}

func (s *Service) parse(filePath, originalName string, forced models.BankType) (result models.ParsingResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("statement parse panicked", "file", originalName, "panic", r)
			result = failure(originalName, fmt.Errorf("internal error: %v", r))
		}
	}()

	s.logger.Info("parsing statement", "file", originalName)

	if _, err := os.Stat(filePath); err != nil {
		return failure(originalName, fmt.Errorf("file not found: %w", err))
	}
	if err := ValidateExtension(originalName); err != nil {
		return failure(originalName, err)
	}
	if forced != "" && !forced.Valid() {
		return failure(originalName, fmt.Errorf("unsupported bank type: %q", forced))
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	text, err := readContent(filePath, ext)
	if err != nil {
		s.logger.Error("could not read statement", "file", originalName, "err", err)
		return failure(originalName, err)
	}

	bank := forced
	if bank == "" {
		bank = parser.DetectBank(text, originalName)
	}

	result = models.ParsingResult{
		Success:    true,
		SourceFile: originalName,
		Errors:     []string{},
	}

	if ext == ".ofx" {
		if meta, ok := parser.ReadOFXMetadata([]byte(text)); ok {
			result.AccountNumber = meta.AccountID
			if byCode, known := parser.BankFromCode(meta.BankID); known && bank == models.BankGeneric {
				bank = byCode
			}
		}
		result.Transactions, result.SkippedLines = parser.ParseOFX(text)
	} else {
		lp, err := parser.New(bank)
		if err != nil {
			return failure(originalName, err)
		}
		result.Transactions, result.SkippedLines = s.parseLines(text, lp)
	}

	if s.opts.StrictDates {
		result.Transactions, result.SkippedLines = dropGuessedDates(result.Transactions, result.SkippedLines, strings.Split(text, "\n"))
	}
	if result.SkippedLines == nil {
		result.SkippedLines = []models.SkippedLine{}
	}

	result.BankDetected = bank
	result.TotalTransactions = len(result.Transactions)
	result.Summary = Summarize(result.Transactions)

	s.logger.Info("statement parsed",
		"file", originalName,
		"bank", bank,
		"transactions", result.TotalTransactions,
		"skipped", len(result.SkippedLines),
	)
	return result
}

// parseLines runs the line parser over every non-empty, non-header line.
// A panic on one line only skips that line.
func (s *Service) parseLines(text string, lp parser.LineParser) ([]models.ParsedTransaction, []models.SkippedLine) {
	transactions := []models.ParsedTransaction{}
	var skipped []models.SkippedLine

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || parser.IsHeaderLine(line) {
			continue
		}

		txn, err := parseLineSafely(lp, line)
		if err != nil {
			s.logger.Debug("line skipped", "line", i+1, "reason", err)
			skipped = append(skipped, models.SkippedLine{LineNumber: i + 1, RawText: line, Reason: err.Error()})
			continue
		}
		txn.LineNumber = i + 1
		transactions = append(transactions, txn)
	}
	return transactions, skipped
}

func parseLineSafely(lp parser.LineParser, line string) (txn models.ParsedTransaction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s parser panicked: %v", lp.BankName(), r)
		}
	}()
	return lp.ParseLine(line)
}

// dropGuessedDates moves transactions with a fallback date to skipped,
// reporting the source line they came from.
func dropGuessedDates(txns []models.ParsedTransaction, skipped []models.SkippedLine, lines []string) ([]models.ParsedTransaction, []models.SkippedLine) {
	kept := txns[:0]
	for _, t := range txns {
		if t.DateWasGuessed {
			raw := t.Description
			if t.LineNumber > 0 && t.LineNumber <= len(lines) {
				raw = strings.TrimSpace(lines[t.LineNumber-1])
			}
			skipped = append(skipped, models.SkippedLine{LineNumber: t.LineNumber, RawText: raw, Reason: "unparseable date"})
			continue
		}
		kept = append(kept, t)
	}
	return kept, skipped
}

func readContent(filePath, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractor.ExtractTextCombined(filePath)
	case ".xlsx":
		return extractor.ReadXLSX(filePath)
	case ".xls":
		return extractor.ReadXLS(filePath)
	default:
		return extractor.ReadText(filePath)
	}
}

// Summarize totals income and expenses to the cent.
func Summarize(txns []models.ParsedTransaction) models.Summary {
	income, expenses := decimal.Zero, decimal.Zero
	for _, t := range txns {
		amount := decimal.NewFromFloat(t.Amount)
		if t.Type == models.TypeIncome {
			income = income.Add(amount)
		} else {
			expenses = expenses.Add(amount)
		}
	}
	income, expenses = income.Round(2), expenses.Round(2)

	return models.Summary{
		Income:   income.InexactFloat64(),
		Expenses: expenses.InexactFloat64(),
		Balance:  income.Sub(expenses).InexactFloat64(),
	}
}

func failure(originalName string, err error) models.ParsingResult {
	return models.ParsingResult{
		Success:      false,
		BankDetected: models.BankUnknown,
		Transactions: []models.ParsedTransaction{},
		Errors:       []string{err.Error()},
		SkippedLines: []models.SkippedLine{},
		SourceFile:   originalName,
	}
}
