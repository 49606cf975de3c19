// Command encryptmaps seals a plaintext account-mapping workbook into the
// encrypted envelope the pipeline consumes. The plaintext file should be
// deleted after sealing; the pipeline never reads it.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"bankfeed/internal/config"
	"bankfeed/internal/infrastructure"
	"bankfeed/internal/mappings"
	"bankfeed/internal/validation"
)

func main() {
	in := flag.String("in", "Mappings.xlsx", "plaintext mapping workbook")
	out := flag.String("out", "Mappings.xlsx.enc", "encrypted output file")
	flag.Parse()

	logger, err := infrastructure.InitializeLogger(config.LoggingConfig{
		Level: "info", Format: "text", Output: "console",
	})
	if err != nil {
		logger = slog.Default()
	}

	passphrase := os.Getenv("BANKFEED_MAPPINGS_PASSPHRASE")
	if passphrase == "" {
		logger.Error("BANKFEED_MAPPINGS_PASSPHRASE is not set")
		os.Exit(1)
	}

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateExcelFile(*in); err != nil {
		logger.Error("Input workbook validation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	plain, err := os.ReadFile(*in)
	if err != nil {
		logger.Error("Failed to read workbook", slog.String("error", err.Error()))
		os.Exit(1)
	}
	sealed, err := mappings.Encrypt(plain, passphrase)
	if err != nil {
		logger.Error("Encryption failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := os.WriteFile(*out, sealed, 0o600); err != nil {
		logger.Error("Failed to write encrypted file", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Sealed %s -> %s (%d bytes)\n", *in, *out, len(sealed))
	logger.Info("Mapping workbook sealed",
		slog.String("input", *in), slog.String("output", *out))
}
