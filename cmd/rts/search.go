package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/selection"
)

func newSearchCmd(a *app) *cobra.Command {
	var root string
	var n int

	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Query the test index directly",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := selection.Open(a.cfg, root, a.metrics)
			if err != nil {
				return err
			}
			defer sess.Close()

			hits, err := sess.Store.Search(strings.Join(args, " "), a.limit(n))
			if err != nil {
				return err
			}
			for _, h := range hits {
				fmt.Fprintf(cmd.OutOrStdout(), "%.4f\t%s\n", h.Score, h.Doc.Key())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "project root")
	cmd.Flags().IntVarP(&n, "limit", "n", 0, "maximum hits (default selection.limit)")
	return cmd
}
