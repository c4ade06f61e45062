package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-importer/internal/models"
)

const bradescoCSV = "Data;Histórico;Valor\n05/03/2024;Mercado Central;-150,00\n06/03/2024;Salario;3.000,00\n"

func writeStatement(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestParse_Table(t *testing.T) {
	path := writeStatement(t, "bradesco.csv", bradescoCSV)

	out, err := runCommand(t, "parse", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Mercado Central")
	assert.Contains(t, out, "150.00")
	assert.Contains(t, out, "2850.00")
}

func TestParse_JSON(t *testing.T) {
	path := writeStatement(t, "bradesco.csv", bradescoCSV)

	out, err := runCommand(t, "parse", "--output", "json", path)
	require.NoError(t, err)

	var result models.ParsingResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	assert.Equal(t, models.BankBradesco, result.BankDetected)
	assert.Equal(t, 2, result.TotalTransactions)
}

func TestParse_CSVFile(t *testing.T) {
	path := writeStatement(t, "extrato.txt", bradescoCSV)
	outPath := filepath.Join(t.TempDir(), "out.csv")

	out, err := runCommand(t, "parse", "--bank", "bradesco", "--output", "csv", "--out", outPath, "--header=false", path)
	require.NoError(t, err)
	assert.Contains(t, out, outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-03-05,Mercado Central,EXPENSE,150.00")
	assert.NotContains(t, string(data), "# Bank")
}

func TestParse_CSVRefusesToOverwriteInput(t *testing.T) {
	path := writeStatement(t, "extrato.csv", bradescoCSV)

	_, err := runCommand(t, "parse", "--output", "csv", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to overwrite")
}

func TestParse_RejectsBadFlags(t *testing.T) {
	path := writeStatement(t, "bradesco.csv", bradescoCSV)

	_, err := runCommand(t, "parse", "--output", "xml", path)
	assert.Error(t, err)

	_, err = runCommand(t, "parse", "--bank", "monzo", path)
	assert.Error(t, err)

	_, err = runCommand(t, "parse", "--out", "x.csv", path, path)
	assert.Error(t, err)
}

func TestParse_MissingFile(t *testing.T) {
	_, err := runCommand(t, "parse", filepath.Join(t.TempDir(), "gone.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestImport_DryRun(t *testing.T) {
	path := writeStatement(t, "bradesco.csv", bradescoCSV)

	out, err := runCommand(t, "import", "--user", "u1", "--dry-run", path)
	require.NoError(t, err)

	assert.Contains(t, out, "dry run")
	assert.Contains(t, out, "account:    Bradesco")
	assert.Contains(t, out, "imported:   2")
	assert.Contains(t, out, "duplicates: 0")
}

func TestImport_RequiresDatabase(t *testing.T) {
	path := writeStatement(t, "bradesco.csv", bradescoCSV)

	_, err := runCommand(t, "import", "--user", "u1", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.dsn")
}

func TestImport_RequiresUser(t *testing.T) {
	path := writeStatement(t, "bradesco.csv", bradescoCSV)

	_, err := runCommand(t, "import", "--dry-run", path)
	assert.Error(t, err)
}
