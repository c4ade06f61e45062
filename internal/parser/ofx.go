package parser

import (
	"bytes"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"

	"github.com/insightdelivered/statement-importer/internal/models"
)

// OFXAccount labels transactions read from OFX files.
const OFXAccount = "OFX Import"

var (
	ofxTransaction = regexp.MustCompile(`(?s)<STMTTRN>(.*?)</STMTTRN>`)
	ofxDatePosted  = regexp.MustCompile(`<DTPOSTED>\s*(\d{8})`)
	ofxAmount      = regexp.MustCompile(`<TRNAMT>\s*([+-]?\d+(?:[.,]\d+)?)`)
	ofxMemo        = regexp.MustCompile(`<MEMO>([^<\r\n]*)`)
	ofxName        = regexp.MustCompile(`<NAME>([^<\r\n]*)`)
)

// OFXMetadata is the statement-level information of a well-formed OFX file.
type OFXMetadata struct {
	BankID    string
	AccountID string
}

// ParseOFX scans every <STMTTRN> block. Blocks without a valid posting date
// or amount are reported as skipped and the rest still parse. Works on
// SGML-style files with unclosed leaf tags.
func ParseOFX(content string) ([]models.ParsedTransaction, []models.SkippedLine) {
	transactions := []models.ParsedTransaction{}
	var skipped []models.SkippedLine

	for i, m := range ofxTransaction.FindAllStringSubmatch(content, -1) {
		block := m[1]

		dm := ofxDatePosted.FindStringSubmatch(block)
		if dm == nil {
			skipped = append(skipped, ofxSkip(i, block, "missing DTPOSTED"))
			continue
		}
		date, ok := ofxDate(dm[1])
		if !ok {
			skipped = append(skipped, ofxSkip(i, block, "invalid DTPOSTED "+dm[1]))
			continue
		}

		am := ofxAmount.FindStringSubmatch(block)
		if am == nil {
			skipped = append(skipped, ofxSkip(i, block, "missing TRNAMT"))
			continue
		}
		amount, txType := signedToRecord(ParseAmount(am[1]))

		description := "Transação OFX"
		if mm := ofxMemo.FindStringSubmatch(block); mm != nil && strings.TrimSpace(mm[1]) != "" {
			description = mm[1]
		} else if nm := ofxName.FindStringSubmatch(block); nm != nil && strings.TrimSpace(nm[1]) != "" {
			description = nm[1]
		}

		transactions = append(transactions, models.ParsedTransaction{
			Date:        date,
			Description: CleanDescription(description),
			Amount:      amount,
			Type:        txType,
			Account:     OFXAccount,
		})
	}

	return transactions, skipped
}

// ReadOFXMetadata extracts the bank and account identifiers with a strict
// OFX decoder. It returns false when the file does not decode.
func ReadOFXMetadata(content []byte) (meta OFXMetadata, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	resp, err := ofxgo.ParseResponse(bytes.NewReader(content))
	if err != nil {
		return OFXMetadata{}, false
	}

	for _, msg := range resp.Bank {
		if stmt, isStmt := msg.(*ofxgo.StatementResponse); isStmt {
			return OFXMetadata{
				BankID:    stmt.BankAcctFrom.BankID.String(),
				AccountID: stmt.BankAcctFrom.AcctID.String(),
			}, true
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, isStmt := msg.(*ofxgo.CCStatementResponse); isStmt {
			return OFXMetadata{AccountID: stmt.CCAcctFrom.AcctID.String()}, true
		}
	}
	return OFXMetadata{}, false
}

// ofxDate turns YYYYMMDD into YYYY-MM-DD.
func ofxDate(raw string) (string, bool) {
	if len(raw) != 8 {
		return "", false
	}
	t, err := time.Parse("20060102", raw)
	if err != nil {
		return "", false
	}
	return t.Format(time.DateOnly), true
}

func ofxSkip(index int, block, reason string) models.SkippedLine {
	raw := []rune(strings.Join(strings.Fields(block), " "))
	if len(raw) > 200 {
		raw = raw[:200]
	}
	return models.SkippedLine{LineNumber: index + 1, RawText: string(raw), Reason: reason}
}
