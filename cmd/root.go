package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/s2match/cache"
	"github.com/s0up4200/s2match/config"
	"github.com/s0up4200/s2match/filter"
	"github.com/s0up4200/s2match/rallyhere"
	"github.com/s0up4200/s2match/smite"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	client  *rallyhere.Client
	closer  io.Closer

	// Persistent flags
	noCache  bool
	logLevel string

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "s2match",
	Short: "Query SMITE 2 players, matches and ranks from RallyHere",
	Long: `s2match is a CLI tool for the RallyHere API used by SMITE 2.

It looks up players by display name, retrieves match history, stats and
ranks, and reshapes the raw responses into a stable JSON schema that can be
filtered and summarized.`,
	SilenceUsage:      true,
	PersistentPreRunE: initializeApp,
}

// SetVersion sets the version reported by the CLI and used by update
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", v, bt)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the root command and releases what initializeApp opened,
// whether or not the command failed.
func run(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := shutdownApp(); cerr != nil {
		logger.Warn().Err(cerr).Msg("Failed to close cache")
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "bypass the response cache")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the log level (debug, info, warn, error)")
}

// initializeApp loads the configuration and creates the client
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	presets = filter.NewManager(filter.WithCompiler(compiler))
	if err := presets.RegisterFilters(cfg.Filter.Presets); err != nil {
		return fmt.Errorf("invalid filter preset: %w", err)
	}

	items := loadItems(cfg.Items.Path)

	store, err := newCacheStore(cmd.Context(), cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}

	client, err = rallyhere.New(clientConfig(cfg), logger,
		rallyhere.WithTimeout(cfg.RallyHere.Timeout),
		rallyhere.WithCache(store),
		rallyhere.WithItems(items),
		rallyhere.WithPageSize(cfg.Request.PageSize),
	)
	if err != nil {
		return fmt.Errorf("failed to create RallyHere client: %w", err)
	}

	logger.Debug().
		Str("base_url", cfg.RallyHere.BaseURL).
		Bool("cache", cfg.Cache.Enabled && !noCache).
		Str("cache_backend", cfg.Cache.Backend).
		Int("items", items.Len()).
		Msg("Client ready")

	return nil
}

// shutdownApp closes the cache backend, if one was opened
func shutdownApp() error {
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

// clientConfig maps the loaded configuration onto the client settings
func clientConfig(c *config.Config) rallyhere.Config {
	return rallyhere.Config{
		ClientID:       c.RallyHere.ClientID,
		ClientSecret:   c.RallyHere.ClientSecret,
		BaseURL:        c.RallyHere.BaseURL,
		CacheEnabled:   c.Cache.Enabled && !noCache,
		RateLimitDelay: c.Request.RateLimitDelay,
		MaxRetries:     c.Request.MaxRetries,
		BaseRetryDelay: c.Request.BaseRetryDelay,
		MaxRetryDelay:  c.Request.MaxRetryDelay,
	}
}

// newCacheStore builds the configured cache backend. It returns nil when
// caching is off.
func newCacheStore(ctx context.Context, c config.CacheConfig) (cache.Store, error) {
	if !c.Enabled || noCache {
		return nil, nil
	}

	switch c.Backend {
	case config.BackendRedis:
		store, err := cache.NewRedisStore(ctx, cache.RedisOptions{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Prefix:   c.Redis.Prefix,
			TTL:      c.TTL,
		})
		if err != nil {
			return nil, err
		}
		closer = store
		return store, nil
	default:
		return cache.NewMemoryStore(c.TTL, c.MaxSize), nil
	}
}

// loadItems reads the item table. A missing or unreadable table leaves
// items unresolved instead of failing.
func loadItems(path string) *smite.ItemTable {
	if path == "" {
		return nil
	}
	items, err := smite.LoadItems(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug().Str("path", path).Msg("No item table found, items stay unresolved")
		} else {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to load item table, items stay unresolved")
		}
		return nil
	}
	return items
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format, colored only on a terminal
	fd := os.Stderr.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !tty,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
