package parser

import (
	"strings"

	"github.com/insightdelivered/statement-importer/internal/models"
)

// NubankParser handles the Nubank CSV export:
// date,category,title,amount
type NubankParser struct{}

func (p *NubankParser) BankName() string { return "Nubank" }

func (p *NubankParser) ParseLine(line string) (models.ParsedTransaction, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 4 {
		return models.ParsedTransaction{}, skipf("expected 4 comma-separated fields, got %d", len(fields))
	}
	for i, f := range fields {
		fields[i] = strings.TrimSpace(strings.ReplaceAll(f, `"`, ""))
	}

	if !LooksLikeMonetaryValue(fields[3]) {
		return models.ParsedTransaction{}, skipf("unparseable amount %q", fields[3])
	}
	amount, txType := signedToRecord(ParseAmount(fields[3]))
	date, guessed := standardizeDate(fields[0])

	return models.ParsedTransaction{
		Date:           date,
		Description:    CleanDescription(fields[2]),
		Amount:         amount,
		Type:           txType,
		Category:       fields[1],
		Account:        "Nubank",
		DateWasGuessed: guessed,
	}, nil
}
