package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lombahub/lomba-events/internal/api"
	"github.com/lombahub/lomba-events/internal/config"
	"github.com/lombahub/lomba-events/internal/normalize"
	"github.com/lombahub/lomba-events/internal/pipeline"
	"github.com/lombahub/lomba-events/internal/record"
	"github.com/lombahub/lomba-events/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig  string
	flagVerbose bool

	flagNoDeepScrape bool
	flagInput        string
	flagFormat       string
	flagAddr         string
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lomba-events",
		Short: "Collect and normalize Indonesian competition listings",
		Long: `lomba-events collects competition and event listings, normalizes the
messy source text (titles, prices, date roles, registration links,
categories) into canonical records, and serves them over a read API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(newScrapeCmd(), newNormalizeCmd(), newServeCmd(), newPurgeCmd())
	return cmd
}

// setup loads .env if present and configures the global logger.
func setup() error {
	godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if flagVerbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	return nil
}

// loadConfig reads the configured file or falls back to defaults with
// environment overrides applied.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if path := os.Getenv("LOMBA_DB_PATH"); path != "" {
		cfg.Database.Path = path
	}
	if addr := os.Getenv("LOMBA_HTTP_ADDR"); addr != "" {
		cfg.HTTP.Addr = addr
	}

	if !flagVerbose {
		if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", cfg.Database.Path, err)
	}
	return store, nil
}

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Collect all enabled sources and store normalized events",
		RunE:  runScrape,
	}
	cmd.Flags().BoolVar(&flagNoDeepScrape, "no-deep-scrape", false, "Skip fetching each event's detail page")
	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	p := pipeline.New(cfg, store, log.Logger)
	p.DeepScrape = !flagNoDeepScrape

	stats, err := p.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "collected %d, stored %d, skipped %d, failed %d\n",
		stats.Collected, stats.Stored, stats.Skipped, stats.Failed)
	return nil
}

func newNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize raw records from a JSON file or stdin",
		Long: `Reads a JSON array of raw records, runs each through the
normalization engine, and prints the canonical records as JSON. Records
without a usable title are dropped. Nothing is stored.`,
		RunE: runNormalize,
	}
	cmd.Flags().StringVar(&flagInput, "input", "-", "Input file, or - for stdin")
	cmd.Flags().StringVar(&flagFormat, "format", "json", "Output format: text or json")
	return cmd
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	var in io.Reader = cmd.InOrStdin()
	if flagInput != "-" && flagInput != "" {
		f, err := os.Open(flagInput)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in = f
	}

	var raws []record.RawEvent
	if err := json.NewDecoder(in).Decode(&raws); err != nil {
		return fmt.Errorf("decoding raw records: %w", err)
	}

	n := normalize.New(cfg.EffectiveRules())
	canonical := make([]record.CanonicalEvent, 0, len(raws))
	for _, raw := range raws {
		ev, err := n.Normalize(raw, nil)
		if errors.Is(err, normalize.ErrNoTitle) {
			log.Debug().Str("url", raw.URL).Msg("dropping record without a usable title")
			continue
		}
		if err != nil {
			return fmt.Errorf("normalizing %q: %w", raw.TitleRaw, err)
		}
		canonical = append(canonical, ev)
	}

	return writeEvents(cmd.OutOrStdout(), canonical, format)
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API over HTTP",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	addr := cfg.HTTP.Addr
	if flagAddr != "" {
		addr = flagAddr
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewServer(store, log.Logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("serving read API")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func newPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete events whose registration deadline has passed",
		RunE:  runPurge,
	}
}

func runPurge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	p := pipeline.New(cfg, store, log.Logger)
	deleted, err := p.Purge(cmd.Context())
	if err != nil {
		return fmt.Errorf("purging: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired events\n", deleted)
	return nil
}

// Execute runs the root command and returns a process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}
