// Command preprocess runs the weekly bank file normalization pipeline:
// discover the week's exports, combine and transform them per bank, and
// merge the results into the canonical securities and transactions files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"bankfeed/internal/config"
	"bankfeed/internal/discovery"
	"bankfeed/internal/infrastructure"
	"bankfeed/internal/mappings"
	"bankfeed/internal/pipeline"
	"bankfeed/internal/validation"
	"bankfeed/pkg/contracts"
)

func main() {
	date := flag.String("date", "", "statement date DD_MM_YYYY (defaults to the latest date found in the input directory)")
	inputDir := flag.String("input-dir", "", "directory containing the raw bank exports")
	outputDir := flag.String("output-dir", "", "directory for canonical output files")
	banks := flag.String("banks", "", "comma-separated bank codes to run (defaults to all)")
	dryRun := flag.Bool("dry-run", false, "discover files and log intended actions without processing")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.VersionString())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}
	if *inputDir != "" {
		cfg.Paths.InputDir = *inputDir
	}
	if *outputDir != "" {
		cfg.Paths.OutputDir = *outputDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateInputDirectory(cfg.Paths.InputDir, ""); err != nil {
		logger.Error("Input directory validation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if !*dryRun {
		if err := validator.ValidateOutputDirectory(cfg.Paths.OutputDir); err != nil {
			logger.Error("Output directory validation failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	runDate := *date
	if runDate == "" {
		runDate, err = discovery.LatestDate(cfg.Paths.InputDir)
		if err != nil {
			logger.Error("Could not determine statement date", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Using latest statement date found", slog.String("date", runDate))
	}

	var store *mappings.Store
	if cfg.Mappings.Passphrase != "" {
		if err := validator.ValidateMappingFile(cfg.Mappings.File); err != nil {
			logger.Error("Mapping file validation failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		store, err = mappings.Open(cfg.Mappings.File, cfg.Mappings.Passphrase, logger)
		if err != nil {
			logger.Error("Failed to open mapping workbook", slog.String("error", err.Error()))
			os.Exit(1)
		}
	} else {
		logger.Warn("No mapping passphrase configured; banks requiring mappings will be skipped")
	}

	var bankList []string
	if *banks != "" {
		for _, b := range strings.Split(*banks, ",") {
			if b = strings.TrimSpace(b); b != "" {
				bankList = append(bankList, b)
			}
		}
	}

	orch := pipeline.New(cfg, store, logger)
	report, err := orch.Run(context.Background(), pipeline.Request{
		Date:      runDate,
		InputDir:  cfg.Paths.InputDir,
		OutputDir: cfg.Paths.OutputDir,
		Banks:     bankList,
		DryRun:    *dryRun,
	})
	if err != nil {
		logger.Error("Pipeline run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	printReport(report)
	if report.Failed() {
		os.Exit(1)
	}
}

func printReport(report *pipeline.Report) {
	fmt.Printf("Run %s (%s) finished in %s\n", report.RunID, report.Date, report.Duration.Round(1e7))
	for _, b := range report.Banks {
		switch b.Status {
		case pipeline.StatusDone:
			fmt.Printf("  %-10s ok      %d securities, %d transactions (%d files)\n",
				b.Bank, b.Securities, b.Transactions, b.Files)
		case pipeline.StatusSkipped:
			fmt.Printf("  %-10s skipped %s\n", b.Bank, b.ErrorDetail)
		case pipeline.StatusFailed:
			fmt.Printf("  %-10s FAILED  [%s at %s] %s\n", b.Bank, b.ErrorCode, b.FailedStage, b.ErrorDetail)
		}
	}
	fmt.Printf("Total: %d securities, %d transactions\n",
		report.TotalSecurities, report.TotalTransactions)
}
