package extractor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "plain utf-8",
			input:    []byte("05/03/2024;Padaria São João;-9,50\n"),
			expected: "05/03/2024;Padaria São João;-9,50\n",
		},
		{
			name:     "byte order mark is dropped",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("a;b;c")...),
			expected: "a;b;c",
		},
		{
			name:     "windows-1252 is converted",
			input:    []byte("Padaria S\xe3o Jo\xe3o;Cart\xe3o"),
			expected: "Padaria São João;Cartão",
		},
		{
			name:     "line endings are normalized",
			input:    []byte("a\r\nb\rc"),
			expected: "a\nb\nc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestReadTextMissingFile(t *testing.T) {
	if _, err := ReadText(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadXLSXFirstSheetOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extrato.xlsx")

	f := excelize.NewFile()
	rows := [][]any{
		{"Data", "Histórico", "Valor"},
		{"05/03/2024", "Mercado Central", "-150,00"},
		{},
		{"06/03/2024", "Pix recebido", "200,00"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if _, err := f.NewSheet("Outra"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	if err := f.SetCellValue("Outra", "A1", "nao deve aparecer"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	f.Close()

	text, err := ReadXLSX(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Data;Histórico;Valor\n05/03/2024;Mercado Central;-150,00\n06/03/2024;Pix recebido;200,00\n"
	if text != want {
		t.Errorf("got %q, want %q", text, want)
	}
	if strings.Contains(text, "nao deve aparecer") {
		t.Error("only the first sheet should be read")
	}
}

func TestReadXLSXInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadXLSX(path); err == nil {
		t.Error("expected error for invalid workbook")
	}
}

func TestReadXLSInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xls")
	if err := os.WriteFile(path, []byte("not a workbook"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadXLS(path); err == nil {
		t.Error("expected error for invalid workbook")
	}
}

func TestRenderRowsQuotesDelimiter(t *testing.T) {
	got, err := renderRows([][]string{{"05/03/2024", "Loja; filial 2", "10,00"}, {"", " "}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "05/03/2024;\"Loja; filial 2\";10,00\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractTextMissingFile(t *testing.T) {
	_, err := ExtractText(filepath.Join(t.TempDir(), "missing.pdf"))
	if !errors.Is(err, ErrNoReadableText) {
		t.Errorf("expected ErrNoReadableText, got %v", err)
	}
}

func TestExtractTextFromPDF(t *testing.T) {
	pages, err := extractWithLibrary("testdata/bradesco.pdf")
	if err != nil {
		t.Fatalf("library extraction failed: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}

	text, err := ExtractTextCombined("testdata/bradesco.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(text, "\n")
	want := []string{
		"BANCO BRADESCO S.A. - Extrato de conta corrente",
		"Agencia 1234 Conta 12345-6",
		"05/03/2024;Mercado Central;-150,00",
		"06/03/2024;Salario;3.000,00",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), text)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i+1, lines[i], want[i])
		}
	}
}

func TestIsReadableText(t *testing.T) {
	tests := []struct {
		name     string
		pages    []string
		expected bool
	}{
		{
			name:     "statement text",
			pages:    []string{"Extrato de conta corrente\n05/03/2024 Pix recebido 200,00\nSaldo final 1.200,00"},
			expected: true,
		},
		{
			name:     "too short",
			pages:    []string{"Extrato"},
			expected: false,
		},
		{
			name:     "no statement words",
			pages:    []string{strings.Repeat("lorem ipsum dolor sit amet ", 5)},
			expected: false,
		},
		{
			name:     "binary garbage",
			pages:    []string{strings.Repeat("\x01\x02\x03□■", 30) + " extrato"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isReadableText(tt.pages); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}
