package models

import (
	"fmt"
	"strings"
)

// BankType identifies the statement layout a file was produced by.
type BankType string

const (
	BankBradesco      BankType = "BRADESCO"
	BankNubank        BankType = "NUBANK"
	BankBancoDoBrasil BankType = "BANCO_DO_BRASIL"
	BankItau          BankType = "ITAU"
	BankSantander     BankType = "SANTANDER"
	BankCaixa         BankType = "CAIXA"
	BankInter         BankType = "INTER"
	BankC6            BankType = "C6_BANK"
	BankNext          BankType = "NEXT"
	BankBTG           BankType = "BTG_PACTUAL"
	BankGeneric       BankType = "GENERIC"

	// BankUnknown is only reported on results that failed before detection.
	BankUnknown BankType = "UNKNOWN"
)

// Banks lists every parseable bank tag, in detection order.
var Banks = []BankType{
	BankBradesco,
	BankNubank,
	BankBancoDoBrasil,
	BankItau,
	BankSantander,
	BankCaixa,
	BankInter,
	BankC6,
	BankNext,
	BankBTG,
	BankGeneric,
}

var displayNames = map[BankType]string{
	BankBradesco:      "Bradesco",
	BankNubank:        "Nubank",
	BankBancoDoBrasil: "Banco do Brasil",
	BankItau:          "Itaú",
	BankSantander:     "Santander",
	BankCaixa:         "Caixa Econômica Federal",
	BankInter:         "Banco Inter",
	BankC6:            "C6 Bank",
	BankNext:          "Next",
	BankBTG:           "BTG Pactual",
	BankGeneric:       "Conta Importada",
	BankUnknown:       "Desconhecido",
}

// DisplayName returns the human label used for account names.
func (b BankType) DisplayName() string {
	if name, ok := displayNames[b]; ok {
		return name
	}
	return string(b)
}

// Valid reports whether b is one of the parseable tags.
func (b BankType) Valid() bool {
	for _, known := range Banks {
		if b == known {
			return true
		}
	}
	return false
}

// ParseBankType accepts a tag such as "nubank" or "BANCO_DO_BRASIL".
// Hyphens and spaces are treated as underscores.
func ParseBankType(s string) (BankType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	switch normalized {
	case "BB":
		return BankBancoDoBrasil, nil
	case "C6":
		return BankC6, nil
	case "BTG":
		return BankBTG, nil
	}

	b := BankType(normalized)
	if !b.Valid() {
		return "", fmt.Errorf("unsupported bank type: %q", s)
	}
	return b, nil
}
