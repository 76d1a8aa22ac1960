package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nixter77/news-agregator/internal/config"
	"github.com/Nixter77/news-agregator/internal/fetch"
	"github.com/Nixter77/news-agregator/internal/store"
	"github.com/Nixter77/news-agregator/internal/translate"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig  string
	flagLimit   int
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "news-agregator",
	Short: "Aggregate world news feeds into one deduplicated, searchable list",
	Long: "news-agregator fetches the configured syndication feeds, merges them into a\n" +
		"single time-ordered, link-deduplicated collection and prints the newest items.",
	RunE: runList,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().IntVarP(&flagLimit, "limit", "n", 20, "max items to print")

	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("news-agregator %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	cobra.OnInitialize(setupLogging)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

func setupLogging() {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// newStore wires config, raw fetcher and translator into a Store.
func newStore() (*store.Store, *config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	client, err := fetch.NewClient(cfg.CacheDir, cfg.TTL())
	if err != nil {
		return nil, nil, fmt.Errorf("opening feed cache: %w", err)
	}
	return store.New(cfg, client, translate.New()), cfg, nil
}

func runList(cmd *cobra.Command, args []string) error {
	st, _, err := newStore()
	if err != nil {
		return err
	}

	items, err := st.Items(cmd.Context())
	if err != nil {
		return err
	}

	now := time.Now()
	for i, it := range items {
		if flagLimit > 0 && i >= flagLimit {
			break
		}
		fmt.Printf("%-10s  %-18s  %s\n", it.Age(now), it.Source, it.Title)
		fmt.Printf("            %s\n", it.Link)
	}
	return nil
}
