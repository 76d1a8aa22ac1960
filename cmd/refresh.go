package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force a full refresh, ignoring the cache TTL",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, cfg, err := newStore()
		if err != nil {
			return err
		}

		start := time.Now()
		if err := st.Refresh(cmd.Context()); err != nil {
			return err
		}

		items, err := st.Items(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Refreshed %d source(s): %d item(s) in %s.\n",
			len(cfg.Sources), len(items), time.Since(start).Round(time.Millisecond))
		return nil
	},
}
