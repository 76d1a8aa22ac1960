package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <terms>",
	Short: "Search cached items (all terms must match, Cyrillic matches Latin)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := newStore()
		if err != nil {
			return err
		}

		// Populate the snapshot first; search itself never refreshes.
		if _, err := st.Items(cmd.Context()); err != nil {
			return err
		}

		query := strings.Join(args, " ")
		matches := st.Search(query)
		if len(matches) == 0 {
			fmt.Printf("No items match %q.\n", query)
			return nil
		}

		now := time.Now()
		for _, it := range matches {
			fmt.Printf("%-10s  %-18s  %s\n", it.Age(now), it.Source, it.Title)
			fmt.Printf("            %s\n", it.Link)
		}
		return nil
	},
}
