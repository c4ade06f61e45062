package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-importer/internal/models"
)

// bradescoAmount finds the first decimal-comma amount with cents on a line.
var bradescoAmount = regexp.MustCompile(`([+-]?)\s*(?:R\$\s*)?([+-]?)\s*((?:\d{1,3}(?:\.\d{3})+|\d+),\d{2})`)

// debitMarkers flag a line as an expense even without a minus sign.
var debitMarkers = []string{"DÉBITO", "DEBITO", "PAGAMENTO"}

// BradescoParser handles the semicolon-separated Bradesco export:
// date;description;...;amount;...
type BradescoParser struct{}

func (p *BradescoParser) BankName() string { return "Bradesco" }

func (p *BradescoParser) ParseLine(line string) (models.ParsedTransaction, error) {
	return parseSemicolonLine(line, "Bradesco")
}

// BancoDoBrasilParser handles Banco do Brasil exports, which follow the
// Bradesco layout but may use tabs between columns.
type BancoDoBrasilParser struct{}

func (p *BancoDoBrasilParser) BankName() string { return "Banco do Brasil" }

func (p *BancoDoBrasilParser) ParseLine(line string) (models.ParsedTransaction, error) {
	return parseSemicolonLine(strings.ReplaceAll(line, "\t", ";"), "Banco do Brasil")
}

func parseSemicolonLine(line, account string) (models.ParsedTransaction, error) {
	fields := strings.Split(line, ";")
	if len(fields) < 3 {
		return models.ParsedTransaction{}, skipf("expected at least 3 fields separated by ';', got %d", len(fields))
	}

	m := bradescoAmount.FindStringSubmatch(line)
	if m == nil {
		return models.ParsedTransaction{}, skipf("no amount found")
	}

	amount := ParseAmount(m[3])
	upper := strings.ToUpper(line)
	expense := m[1] == "-" || m[2] == "-"
	for _, marker := range debitMarkers {
		if strings.Contains(upper, marker) {
			expense = true
			break
		}
	}

	date, guessed := standardizeDate(fields[0])
	txType := models.TypeIncome
	if expense {
		txType = models.TypeExpense
	}

	return models.ParsedTransaction{
		Date:           date,
		Description:    CleanDescription(fields[1]),
		Amount:         amount,
		Type:           txType,
		Account:        account,
		DateWasGuessed: guessed,
	}, nil
}
