package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/oncopipe/drug-detective/constants"
	"github.com/oncopipe/drug-detective/internal/common"
	"github.com/oncopipe/drug-detective/internal/export"
	"github.com/oncopipe/drug-detective/internal/extract"
	"github.com/oncopipe/drug-detective/internal/llm"
	"github.com/oncopipe/drug-detective/internal/llm/openai"
	"github.com/oncopipe/drug-detective/internal/pipeline"
	repo "github.com/oncopipe/drug-detective/internal/repository"
)

var (
	flagFolder string
	flagDBURL  string
	flagOut    string
)

var rootCmd = &cobra.Command{
	Use:           "drug-detective",
	Short:         "Extract drug-trial attributes from scientific PDF abstracts",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process new PDFs in the input folder through the extraction pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, cfg, err := setup()
		if err != nil {
			return err
		}
		if cfg.LLM.APIKey == "" {
			return common.NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", common.ErrSetup)
		}

		ctx := cmd.Context()
		db, driver, err := repo.Open(ctx, repo.Config{DSN: cfg.Database.DSN, DialTimeout: cfg.Database.DialTimeout}, logger)
		if err != nil {
			return err
		}
		defer closeDB(db, logger)

		abstracts := repo.NewAbstractRepository(db, driver, logger)
		drugs := repo.NewDrugRepository(db, driver, logger)
		ledger := repo.NewLedgerRepository(db, driver, logger)

		extractor := extract.NewPDFExtractor(logger)
		client := openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		validator := llm.NewValidator(logger)

		processor := pipeline.NewProcessor(logger, extractor, client, validator, abstracts, drugs, ledger, cfg.Pipeline.PDFFolder)

		stats, err := processor.Run(ctx)
		if err != nil {
			return err
		}

		// Per-file failures do not fail the run.
		fmt.Printf("Pipeline complete.\n")
		fmt.Printf("- Files scanned:   %d\n", stats.Scanned)
		fmt.Printf("- Already done:    %d\n", stats.Skipped)
		fmt.Printf("- Processed:       %d\n", stats.Succeeded)
		fmt.Printf("- Failed:          %d\n", stats.Failed)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export extracted drug attributes to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, cfg, err := setup()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		db, driver, err := repo.Open(ctx, repo.Config{DSN: cfg.Database.DSN, DialTimeout: cfg.Database.DialTimeout}, logger)
		if err != nil {
			return err
		}
		defer closeDB(db, logger)

		abstracts := repo.NewAbstractRepository(db, driver, logger)
		drugs := repo.NewDrugRepository(db, driver, logger)
		svc := export.NewService(abstracts, drugs, logger)

		data, err := svc.ExportAttributesXLSX(ctx)
		if err != nil {
			return err
		}
		if err := os.WriteFile(flagOut, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", flagOut, err)
		}
		fmt.Printf("Exported drug attributes to %s\n", flagOut)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show processed-file ledger counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, cfg, err := setup()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		db, driver, err := repo.Open(ctx, repo.Config{DSN: cfg.Database.DSN, DialTimeout: cfg.Database.DialTimeout}, logger)
		if err != nil {
			return err
		}
		defer closeDB(db, logger)

		ledger := repo.NewLedgerRepository(db, driver, logger)
		counts, err := ledger.Counts(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Ledger:\n")
		fmt.Printf("- success: %d\n", counts[constants.StatusSuccess])
		fmt.Printf("- failed:  %d\n", counts[constants.StatusFailed])
		return nil
	},
}

// setup builds the logger and configuration shared by every subcommand.
// CLI flags override environment values when set.
func setup() (*slog.Logger, *common.Config, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if flagFolder != "" {
		cfg.Pipeline.PDFFolder = flagFolder
	}
	if flagDBURL != "" {
		cfg.Database.DSN = flagDBURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return logger, cfg, nil
}

func closeDB(db *sql.DB, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagFolder, "folder", "", "input folder containing PDF abstracts (overrides PDF_FOLDER)")
	rootCmd.PersistentFlags().StringVar(&flagDBURL, "db", "", "database DSN (overrides DB_URL)")
	exportCmd.Flags().StringVar(&flagOut, "out", "drug_attributes.xlsx", "output XLSX file path")
	rootCmd.AddCommand(runCmd, exportCmd, statusCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
