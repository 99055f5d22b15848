package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hbomb79/Glimpse/internal"
	"github.com/hbomb79/Glimpse/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
)

var log = logger.Get("Main")

// main is the entry point to the program. It gathers the operational
// parameters from the command line, loads user configuration (file if
// present, environment otherwise), and runs the batch pipeline under
// a signal-cancellable context. Per-row failures never cause a
// non-zero exit; only fatal startup conditions do.
func main() {
	input := flag.String("input", "", "path to the CSV file containing media URLs")
	column := flag.String("column", "", "name of the column containing URLs (defaults to the first column)")
	outDir := flag.String("out_dir", "", "output directory for per-URL job artifacts (overrides configured output root)")
	start := flag.Int("start", 0, "start row ordinal, inclusive")
	end := flag.Int("end", -1, "end row ordinal, exclusive (-1 processes through the last row)")
	overwrite := flag.Bool("overwrite", false, "clear and recompute artifacts for jobs that already exist")
	configPath := flag.String("config", "", "path to the yaml configuration file")
	flag.Parse()

	// A .env alongside the working directory may carry the embedding
	// provider credentials; absence is fine.
	godotenv.Load()

	if *input == "" {
		log.Emit(logger.FATAL, "No input file provided; specify one with -input\n")
		os.Exit(1)
	}

	config := internal.GlimpseConfig{}
	if err := loadConfig(&config, *configPath); err != nil {
		log.Emit(logger.FATAL, "Failed to load configuration: %s\n", err.Error())
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	glimpse := internal.New(config, internal.RunOptions{
		InputPath:  *input,
		URLColumn:  *column,
		OutputRoot: *outDir,
		Start:      *start,
		End:        *end,
		Overwrite:  *overwrite,
	})
	if err := glimpse.Run(ctx); err != nil {
		log.Emit(logger.FATAL, "Run failed: %s\n", err.Error())
		os.Exit(1)
	}
}

// loadConfig reads configuration from the explicitly provided path,
// falling back to the user's config directory, and finally to the
// environment alone when no file exists.
func loadConfig(config *internal.GlimpseConfig, explicitPath string) error {
	path := explicitPath
	if path == "" {
		if home, err := homedir.Dir(); err == nil {
			candidate := filepath.Join(home, ".config", "glimpse", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}

	if path != "" {
		return config.LoadFromFile(path)
	}

	return config.LoadFromEnv()
}
