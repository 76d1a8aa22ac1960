package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nixter77/news-agregator/internal/config"
	"github.com/Nixter77/news-agregator/internal/fetch"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the raw feed cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show raw feed cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := cacheClient()
		if err != nil {
			return err
		}
		entries, size, err := client.Stats()
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}
		fmt.Printf("Cache: %s\n", cfg.CacheDir)
		fmt.Printf("Feeds: %d\n", entries)
		fmt.Printf("Size: %s\n", formatBytes(size))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached feed payloads",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := cacheClient()
		if err != nil {
			return err
		}
		deleted, err := client.Clear()
		if err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		if deleted == 0 {
			fmt.Println("Nothing to clear.")
		} else {
			fmt.Printf("Deleted %d cached feed(s).\n", deleted)
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func cacheClient() (*fetch.Client, *config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	client, err := fetch.NewClient(cfg.CacheDir, cfg.TTL())
	if err != nil {
		return nil, nil, fmt.Errorf("opening feed cache: %w", err)
	}
	return client, cfg, nil
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
