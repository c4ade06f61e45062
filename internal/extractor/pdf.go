package extractor

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoReadableText is returned when no method produced usable text.
var ErrNoReadableText = errors.New("no readable text in PDF")

// statementWords appear in virtually every Brazilian or English statement.
var statementWords = []string{
	"extrato", "saldo", "conta", "agência", "agencia", "lançamento", "lancamento",
	"banco", "valor", "data", "pix", "transferência", "transferencia",
	"statement", "balance", "account", "date", "amount",
}

// ExtractText returns the text of each PDF page. Row extraction is tried
// first, then whole-document plain text, then pdftotext when installed.
func ExtractText(filePath string) ([]string, error) {
	pages, libErr := extractWithLibrary(filePath)
	if libErr == nil && isReadableText(pages) {
		return pages, nil
	}

	popplerPages, popplerErr := extractWithPdftotext(filePath)
	if popplerErr == nil && isReadableText(popplerPages) {
		return popplerPages, nil
	}

	if libErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoReadableText, libErr)
	}
	return nil, fmt.Errorf("%w: the file may be scanned or use unsupported font encodings", ErrNoReadableText)
}

// ExtractTextCombined returns every page joined by newlines.
func ExtractTextCombined(filePath string) (string, error) {
	pages, err := ExtractText(filePath)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n"), nil
}

// extractWithLibrary guards against panics inside the PDF library, which
// happen on malformed cross-reference tables.
func extractWithLibrary(filePath string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	pages = extractByRow(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	if plain := extractByReaderPlainText(r); plain != "" {
		return []string{plain}, nil
	}
	return pages, nil
}

func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			if line := strings.TrimSpace(strings.Join(words, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func extractByReaderPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func extractWithPdftotext(filePath string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}
	out, err := exec.Command("pdftotext", "-layout", filePath, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	var pages []string
	for _, page := range strings.Split(string(out), "\f") {
		if page = strings.TrimSpace(page); page != "" {
			pages = append(pages, page)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}

// isReadableText requires some volume of text, mostly printable, that
// contains at least one word expected on a statement.
func isReadableText(pages []string) bool {
	combined := strings.Join(pages, "\n")
	if len(strings.TrimSpace(combined)) <= 50 {
		return false
	}
	if textQuality(combined) <= 0.6 {
		return false
	}
	lower := strings.ToLower(combined)
	for _, word := range statementWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// textQuality is the share of runes that are letters, digits, spaces or
// common punctuation.
func textQuality(text string) float64 {
	total, readable := 0, 0
	for _, r := range text {
		total++
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			readable++
		case strings.ContainsRune("áàâãéêíóôõúüçÁÀÂÃÉÊÍÓÔÕÚÜÇ", r):
			readable++
		case strings.ContainsRune(" \t\n\r.,-/:;()'\"$%&@#!?+=*", r):
			readable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}
