package parser

import (
	"strings"

	"github.com/insightdelivered/statement-importer/internal/models"
)

type bankKeywords struct {
	bank     models.BankType
	keywords []string
}

// bankSignatures is checked in order; the first hit wins.
var bankSignatures = []bankKeywords{
	{models.BankBradesco, []string{"BRADESCO", "BANCO BRADESCO"}},
	{models.BankNubank, []string{"NUBANK", "NU PAGAMENTOS"}},
	{models.BankBancoDoBrasil, []string{"BANCO DO BRASIL", "BB "}},
	{models.BankItau, []string{"ITAU", "ITAÚ"}},
	{models.BankSantander, []string{"SANTANDER"}},
	{models.BankCaixa, []string{"CAIXA ECONÔMICA", "CAIXA ECONOMICA"}},
	{models.BankInter, []string{"INTER", "BANCO INTER"}},
	{models.BankC6, []string{"C6 BANK", "C6BANK"}},
	{models.BankNext, []string{"NEXT"}},
	{models.BankBTG, []string{"BTG PACTUAL", "BTG"}},
}

// bankCodes maps FEBRABAN institution codes, as found in OFX BANKID.
var bankCodes = map[string]models.BankType{
	"1":   models.BankBancoDoBrasil,
	"33":  models.BankSantander,
	"77":  models.BankInter,
	"104": models.BankCaixa,
	"208": models.BankBTG,
	"237": models.BankBradesco,
	"260": models.BankNubank,
	"336": models.BankC6,
	"341": models.BankItau,
}

// DetectBank guesses the issuing bank from the file content, then from the
// filename. The content always takes precedence. The result is advisory and
// defaults to GENERIC.
func DetectBank(content, filename string) models.BankType {
	if bank, ok := matchSignature(strings.ToUpper(content)); ok {
		return bank
	}
	if bank, ok := matchSignature(strings.ToUpper(filename)); ok {
		return bank
	}
	return models.BankGeneric
}

// BankFromCode resolves a FEBRABAN code such as "0237" or "341".
func BankFromCode(code string) (models.BankType, bool) {
	code = strings.TrimLeft(strings.TrimSpace(code), "0")
	bank, ok := bankCodes[code]
	return bank, ok
}

func matchSignature(upper string) (models.BankType, bool) {
	for _, sig := range bankSignatures {
		for _, kw := range sig.keywords {
			if strings.Contains(upper, kw) {
				return sig.bank, true
			}
		}
	}
	return "", false
}
