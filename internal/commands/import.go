package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-importer/internal/models"
	"github.com/insightdelivered/statement-importer/internal/reconcile"
)

func newImportCommand(global *globalOptions) *cobra.Command {
	var (
		userID  string
		account string
		bank    string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Parse a statement and store its new transactions in the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := global.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var store reconcile.Store
			if dryRun {
				store = reconcile.NewMemoryStore()
			} else {
				if cfg.Database.DSN == "" {
					return fmt.Errorf("database.dsn is not set, configure it or use --dry-run")
				}
				pg, err := reconcile.OpenPostgres(ctx, cfg.Database.DSN)
				if err != nil {
					return err
				}
				defer pg.Close()
				if err := pg.Migrate(ctx); err != nil {
					return err
				}
				store = pg
			}

			path := args[0]
			name := filepath.Base(path)
			svc := newParser(cfg, logger)

			var result models.ParsingResult
			if bank != "" {
				b, err := models.ParseBankType(bank)
				if err != nil {
					return err
				}
				result = svc.ParseFileAs(path, name, b)
			} else {
				result = svc.ParseFile(path, name)
			}
			if !result.Success {
				return fmt.Errorf("parsing %s failed: %s", path, strings.Join(result.Errors, "; "))
			}

			rec := reconcile.New(store, logger, cfg.Import.DefaultCategory)
			report, err := rec.Import(ctx, reconcile.Request{
				UserID:      userID,
				AccountName: account,
				SourceName:  name,
			}, result)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, "dry run, nothing was stored")
			}
			fmt.Fprintf(out, "account:    %s (%s)\n", report.AccountName, report.BankDetected.DisplayName())
			fmt.Fprintf(out, "processed:  %d\n", report.TotalProcessed)
			fmt.Fprintf(out, "imported:   %d\n", report.Imported)
			fmt.Fprintf(out, "duplicates: %d\n", report.Duplicates)
			for _, e := range report.Errors {
				fmt.Fprintf(out, "error: %s\n", e)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "ledger user id (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&account, "account", "", "target account name (defaults to the bank name)")
	cmd.Flags().StringVar(&bank, "bank", "", "bank layout to use instead of auto-detection")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "reconcile against an empty in-memory ledger")

	return cmd
}
