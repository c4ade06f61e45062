package parser

import (
	"errors"
	"fmt"

	"github.com/insightdelivered/statement-importer/internal/models"
)

// LineParser turns a single statement line into a transaction.
type LineParser interface {
	// ParseLine returns an error describing why the line was skipped when it
	// does not hold a usable transaction.
	ParseLine(line string) (models.ParsedTransaction, error)
	// BankName returns the human-readable layout name.
	BankName() string
}

// New returns the line parser for the given bank layout.
func New(bank models.BankType) (LineParser, error) {
	switch bank {
	case models.BankBradesco:
		return &BradescoParser{}, nil
	case models.BankNubank:
		return &NubankParser{}, nil
	case models.BankBancoDoBrasil:
		return &BancoDoBrasilParser{}, nil
	case models.BankItau,
		models.BankSantander,
		models.BankCaixa,
		models.BankInter,
		models.BankC6,
		models.BankNext,
		models.BankBTG,
		models.BankGeneric:
		return &GenericParser{Bank: bank}, nil
	default:
		return nil, fmt.Errorf("unsupported bank type: %q", bank)
	}
}

// ErrSkipped matches every error returned by ParseLine.
var ErrSkipped = errors.New("line skipped")

type skipError struct {
	reason string
}

func (e *skipError) Error() string        { return e.reason }
func (e *skipError) Is(target error) bool { return target == ErrSkipped }

func skipf(format string, args ...any) error {
	return &skipError{reason: fmt.Sprintf(format, args...)}
}
