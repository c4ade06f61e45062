package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/insightdelivered/statement-importer/internal/models"
)

// DefaultDescription replaces descriptions that are empty after cleanup.
const DefaultDescription = "Transação"

const maxDescriptionLength = 100

// today is swapped in tests.
var today = time.Now

// Date shapes accepted by LooksLikeDate. Only the first three can be normalized.
var (
	dateDMYSlash = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	dateDMYDash  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	dateYMD      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	dateDMYShort = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2}$`)
)

// monetaryPattern matches a whole field holding an amount: optional sign
// on either side of R$, digits with optional thousands groups, optional cents.
var monetaryPattern = regexp.MustCompile(`^[+-]?\s*(?:R\$\s*)?[+-]?\s*(?:\d{1,3}(?:[.,]\d{3})+|\d+)(?:[.,]\d{1,2})?$`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// headerKeywords mark column-title rows in Portuguese and English exports.
var headerKeywords = []string{
	"data", "date",
	"histórico", "historico",
	"description", "descrição", "descricao",
	"valor", "value", "amount",
	"débito", "debito",
	"crédito", "credito",
	"saldo", "balance",
	"tipo", "type",
	"category", "categoria",
}

// ParseAmount converts "R$ 1.234,56", "-50,00", "(10,00)" or "12.5" into a
// signed float. A comma is taken as the decimal separator whenever present.
// Unparseable input yields 0.
func ParseAmount(raw string) float64 {
	s := strings.ReplaceAll(raw, "R$", "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if negative {
		value = -value
	}
	return value
}

// StandardizeDate converts DD/MM/YYYY, DD-MM-YYYY or YYYY-MM-DD into
// YYYY-MM-DD. Anything else becomes today's date.
func StandardizeDate(raw string) string {
	iso, _ := standardizeDate(raw)
	return iso
}

// standardizeDate also reports whether the result is a fallback.
func standardizeDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)

	var year, month, day string
	if m := dateDMYSlash.FindStringSubmatch(s); m != nil {
		day, month, year = m[1], m[2], m[3]
	} else if m := dateDMYDash.FindStringSubmatch(s); m != nil {
		day, month, year = m[1], m[2], m[3]
	} else if m := dateYMD.FindStringSubmatch(s); m != nil {
		year, month, day = m[1], m[2], m[3]
	} else {
		return today().Format(time.DateOnly), true
	}

	y, _ := strconv.Atoi(year)
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	iso := fmt.Sprintf("%04d-%02d-%02d", y, mo, d)
	if _, err := time.Parse(time.DateOnly, iso); err != nil {
		return today().Format(time.DateOnly), true
	}
	return iso, false
}

// LooksLikeDate reports whether a field is shaped like a statement date.
func LooksLikeDate(s string) bool {
	s = strings.TrimSpace(s)
	return dateDMYSlash.MatchString(s) ||
		dateDMYDash.MatchString(s) ||
		dateYMD.MatchString(s) ||
		dateDMYShort.MatchString(s)
}

// LooksLikeMonetaryValue reports whether a whole field is an amount.
func LooksLikeMonetaryValue(s string) bool {
	return monetaryPattern.MatchString(strings.TrimSpace(s))
}

// CleanDescription trims, collapses whitespace, strips quotes and caps the
// length at 100 characters.
func CleanDescription(s string) string {
	s = strings.NewReplacer(`"`, "", "'", "").Replace(s)
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")

	runes := []rune(s)
	if len(runes) > maxDescriptionLength {
		s = strings.TrimSpace(string(runes[:maxDescriptionLength]))
	}
	if s == "" {
		return DefaultDescription
	}
	return s
}

// IsHeaderLine reports whether the line contains any column-title keyword.
// Such lines are never parsed, even when they also hold transaction data.
func IsHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range headerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// signedToRecord splits a signed amount into magnitude and direction.
func signedToRecord(amount float64) (float64, models.TransactionType) {
	if amount < 0 {
		return math.Abs(amount), models.TypeExpense
	}
	return math.Abs(amount), models.TypeIncome
}
