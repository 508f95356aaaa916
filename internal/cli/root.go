package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/selwyth/diverse-crowd/config"
	"github.com/selwyth/diverse-crowd/internal/platform/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	cfg       *config.Config
	rootDir   string
	cacheName string
	refresh   bool
	log       *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "crowd",
	Short: "Diverse Crowd - find which authors write most alike",
	Long: `Crowd fetches recent posts for a roster of authors, embeds their words
and reports which authors are closest to each other in embedding space.

Example usage:
  crowd fetch                          # Fetch and cache posts for the roster
  crowd train                          # Train word vectors on the cached posts
  crowd similar -a benshapiro          # Closest authors to benshapiro
  crowd similar --word-vectors glove-twitter-25 -a mollywood`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		// Credentials may live in a .env file next to the config.
		if err := godotenv.Load(filepath.Join(rootDir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cacheName != "" {
			cfg.Cache.Name = cacheName
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		level, err := logger.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return err
		}
		logCfg := logger.DefaultConfig()
		logCfg.Level = level
		if cfg.Logging.Format != "" {
			logCfg.Format = cfg.Logging.Format
		}
		log = logger.New(logCfg)

		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./crowd.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&cacheName, "name", "", "cache name for posts and trained vectors (default from config)")
	rootCmd.PersistentFlags().BoolVar(&refresh, "refresh", false, "ignore cached results and recompute them")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
