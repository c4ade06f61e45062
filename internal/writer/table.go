package writer

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/insightdelivered/statement-importer/internal/models"
)

// WriteTable renders the transactions and summary of result as a table.
func WriteTable(out io.Writer, result models.ParsingResult) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(fmt.Sprintf("%s (%s)", result.SourceFile, result.BankDetected.DisplayName()))
	t.AppendHeader(table.Row{"Date", "Description", "Type", "Amount", "Category"})

	for _, txn := range result.Transactions {
		date := txn.Date
		if txn.DateWasGuessed {
			date += "*"
		}
		t.AppendRow(table.Row{date, txn.Description, txn.Type, formatAmount(txn.Amount), txn.Category})
	}

	t.AppendFooter(table.Row{"", "Income", "", formatAmount(result.Summary.Income), ""})
	t.AppendFooter(table.Row{"", "Expenses", "", formatAmount(result.Summary.Expenses), ""})
	t.AppendFooter(table.Row{"", "Balance", "", formatAmount(result.Summary.Balance), ""})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 50},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
}

// WriteSkipped lists the lines that produced no transaction.
func WriteSkipped(out io.Writer, skipped []models.SkippedLine) {
	if len(skipped) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle("Skipped lines")
	t.AppendHeader(table.Row{"Line", "Reason", "Text"})
	for _, s := range skipped {
		t.AppendRow(table.Row{s.LineNumber, s.Reason, s.RawText})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, WidthMax: 60}})
	t.SetStyle(table.StyleLight)
	t.Render()
}
