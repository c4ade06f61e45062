package commands

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-importer/internal/ingest"
	"github.com/insightdelivered/statement-importer/internal/models"
	"github.com/insightdelivered/statement-importer/internal/writer"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

type parseOptions struct {
	bank    string
	format  string
	outPath string
	header  bool
}

func newParseCommand(global *globalOptions) *cobra.Command {
	opts := parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <file> [file ...]",
		Short: "Parse statements and print or export the normalized transactions",
		Example: `  # Auto-detect the bank and print a table
  statement-importer parse extrato.csv

  # Force the layout and export CSV next to the input
  statement-importer parse --bank bradesco --output csv extrato.pdf

  # Machine-readable output
  statement-importer parse --output json nubank.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.format {
			case formatTable, formatCSV, formatJSON:
			default:
				return fmt.Errorf("unknown output format %q, use table, csv or json", opts.format)
			}
			if opts.outPath != "" && len(args) > 1 {
				return fmt.Errorf("--out can only be used with a single input file")
			}

			var bank models.BankType
			if opts.bank != "" {
				b, err := models.ParseBankType(opts.bank)
				if err != nil {
					return err
				}
				bank = b
			}

			cfg, logger, err := global.load(cmd)
			if err != nil {
				return err
			}
			svc := newParser(cfg, logger)

			for _, path := range args {
				if err := runParse(cmd, svc, path, bank, opts); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.bank, "bank", "", "bank layout to use instead of auto-detection")
	cmd.Flags().StringVarP(&opts.format, "output", "o", formatTable, "output format: table, csv or json")
	cmd.Flags().StringVar(&opts.outPath, "out", "", "CSV output path (defaults to the input path with a .csv extension)")
	cmd.Flags().BoolVar(&opts.header, "header", true, "include metadata rows in CSV output")

	return cmd
}

func runParse(cmd *cobra.Command, svc *ingest.Service, path string, bank models.BankType, opts parseOptions) error {
	name := filepath.Base(path)

	var result models.ParsingResult
	if bank != "" {
		result = svc.ParseFileAs(path, name, bank)
	} else {
		result = svc.ParseFile(path, name)
	}
	if !result.Success {
		return fmt.Errorf("parsing failed: %s", strings.Join(result.Errors, "; "))
	}

	out := cmd.OutOrStdout()
	switch opts.format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case formatCSV:
		outPath := opts.outPath
		if outPath == "" {
			outPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".csv"
		}
		if outPath == path {
			return fmt.Errorf("refusing to overwrite input %s, pass --out", path)
		}
		w := &writer.CSVWriter{IncludeHeader: opts.header}
		if err := w.WriteToFile(outPath, result); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d transaction(s) from %s written to %s\n",
			name, result.TotalTransactions, result.BankDetected.DisplayName(), outPath)
	default:
		writer.WriteTable(out, result)
		writer.WriteSkipped(out, result.SkippedLines)
	}
	return nil
}
