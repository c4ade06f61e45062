package parser

import (
	"testing"

	"github.com/insightdelivered/statement-importer/internal/models"
)

func TestDetectBank(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		filename string
		expected models.BankType
	}{
		{
			name:     "detects Bradesco from content",
			content:  "BANCO BRADESCO S.A.\nExtrato de conta corrente",
			filename: "extrato.csv",
			expected: models.BankBradesco,
		},
		{
			name:     "content wins over filename",
			content:  "Banco Bradesco\n05/03/2024;Mercado;-10,00",
			filename: "nubank_2024-03.csv",
			expected: models.BankBradesco,
		},
		{
			name:     "falls back to filename",
			content:  "2024-03-10,Restaurante,iFood,-45.90",
			filename: "Nubank_2024-03.csv",
			expected: models.BankNubank,
		},
		{
			name:     "detects Itau with accent",
			content:  "Itaú Unibanco\n",
			filename: "extrato.txt",
			expected: models.BankItau,
		},
		{
			name:     "detects Caixa without accent",
			content:  "CAIXA ECONOMICA FEDERAL",
			filename: "extrato.csv",
			expected: models.BankCaixa,
		},
		{
			name:     "detects C6 from filename",
			content:  "15/03/2024;Padaria;-9,50",
			filename: "c6bank-marco.csv",
			expected: models.BankC6,
		},
		{
			name:     "nothing matches",
			content:  "15/03/2024;Compra Mercado;-89,90",
			filename: "extrato.csv",
			expected: models.BankGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectBank(tt.content, tt.filename)
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBankFromCode(t *testing.T) {
	tests := []struct {
		code     string
		expected models.BankType
		ok       bool
	}{
		{"237", models.BankBradesco, true},
		{"0237", models.BankBradesco, true},
		{"001", models.BankBancoDoBrasil, true},
		{"0341", models.BankItau, true},
		{"999", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, ok := BankFromCode(tt.code)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("BankFromCode(%q): got (%q, %v), want (%q, %v)", tt.code, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		bankType models.BankType
		wantName string
	}{
		{models.BankBradesco, "Bradesco"},
		{models.BankNubank, "Nubank"},
		{models.BankBancoDoBrasil, "Banco do Brasil"},
		{models.BankItau, "Itaú"},
		{models.BankSantander, "Santander"},
		{models.BankGeneric, "Conta Importada"},
	}

	for _, tt := range tests {
		t.Run(string(tt.bankType), func(t *testing.T) {
			p, err := New(tt.bankType)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.BankName() != tt.wantName {
				t.Errorf("got %q, want %q", p.BankName(), tt.wantName)
			}
		})
	}
}

func TestNewCoversEveryBank(t *testing.T) {
	for _, bank := range models.Banks {
		if _, err := New(bank); err != nil {
			t.Errorf("New(%q): unexpected error: %v", bank, err)
		}
	}
}

func TestNewUnsupported(t *testing.T) {
	for _, bank := range []models.BankType{models.BankUnknown, "metro", ""} {
		if _, err := New(bank); err == nil {
			t.Errorf("New(%q): expected error", bank)
		}
	}
}
