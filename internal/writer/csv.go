package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/insightdelivered/statement-importer/internal/models"
)

// CSVWriter writes parsed transactions to CSV.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the result to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, result models.ParsingResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, result); err != nil {
		return err
	}
	return f.Close()
}

// Write writes the result in CSV format to out.
func (w *CSVWriter) Write(out io.Writer, result models.ParsingResult) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		meta := [][]string{
			{"# Bank", string(result.BankDetected)},
			{"# Source", result.SourceFile},
			{"# Account Number", result.AccountNumber},
		}
		for _, row := range meta {
			if row[1] == "" {
				continue
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	header := []string{"Date", "Description", "Type", "Amount", "Category", "Account"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range result.Transactions {
		row := []string{
			txn.Date,
			txn.Description,
			string(txn.Type),
			formatAmount(txn.Amount),
			txn.Category,
			txn.Account,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
