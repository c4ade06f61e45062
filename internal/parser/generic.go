package parser

import (
	"strings"

	"github.com/insightdelivered/statement-importer/internal/models"
)

var genericSeparators = []string{";", ",", "\t"}

// GenericParser infers the column roles of a delimited line. It serves Itaú
// and every bank without a dedicated layout.
type GenericParser struct {
	Bank models.BankType
}

func (p *GenericParser) BankName() string {
	if p.Bank == "" {
		return models.BankGeneric.DisplayName()
	}
	return p.Bank.DisplayName()
}

func (p *GenericParser) ParseLine(line string) (models.ParsedTransaction, error) {
	fields := splitDelimited(line)
	if fields == nil {
		return models.ParsedTransaction{}, skipf("no separator yields at least 3 fields")
	}

	dateIdx, descIdx, amountIdx := findFieldIndices(fields)
	if dateIdx < 0 {
		return models.ParsedTransaction{}, skipf("no date field")
	}
	if amountIdx < 0 {
		return models.ParsedTransaction{}, skipf("no amount field")
	}

	description := DefaultDescription
	if descIdx >= 0 {
		description = CleanDescription(fields[descIdx])
	}
	amount, txType := signedToRecord(ParseAmount(fields[amountIdx]))
	date, guessed := standardizeDate(fields[dateIdx])

	return models.ParsedTransaction{
		Date:           date,
		Description:    description,
		Amount:         amount,
		Type:           txType,
		DateWasGuessed: guessed,
	}, nil
}

// splitDelimited tries each separator in turn and returns the first split
// with at least 3 fields, or nil.
func splitDelimited(line string) []string {
	for _, sep := range genericSeparators {
		parts := strings.Split(line, sep)
		if len(parts) < 3 {
			continue
		}
		for i, part := range parts {
			parts[i] = strings.TrimSpace(strings.ReplaceAll(part, `"`, ""))
		}
		return parts
	}
	return nil
}

// findFieldIndices picks the first date-like field, the first monetary field
// and the first field after the date longer than 3 characters as the
// description. Each field fills at most one role. Missing roles are -1.
func findFieldIndices(fields []string) (dateIdx, descIdx, amountIdx int) {
	dateIdx, descIdx, amountIdx = -1, -1, -1
	for i, field := range fields {
		if dateIdx < 0 && LooksLikeDate(field) {
			dateIdx = i
			continue
		}
		if amountIdx < 0 && LooksLikeMonetaryValue(field) {
			amountIdx = i
			continue
		}
		if descIdx < 0 && dateIdx >= 0 && len([]rune(field)) > 3 {
			descIdx = i
		}
	}
	return dateIdx, descIdx, amountIdx
}
