package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/selection"
)

func newIndexCmd(a *app) *cobra.Command {
	var root string
	var changed []string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Bring the test index up to date without selecting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := selection.Open(a.cfg, root, a.metrics)
			if err != nil {
				return err
			}
			defer sess.Close()

			set := make(map[string]struct{}, len(changed))
			for _, p := range changed {
				set[p] = struct{}{}
			}
			report, err := sess.Maintainer.Run(cmd.Context(), set, sess.Store.Existed())
			if err != nil {
				return err
			}
			stats := sess.Store.Stats()
			fmt.Fprintf(cmd.OutOrStdout(),
				"namespace=%s bootstrap=%t files=%d failed=%d inserted=%d removed=%d docs=%d\n",
				sess.Namespace, report.Bootstrap, report.Files, report.FilesFailed,
				report.Inserted, report.Removed, stats.Docs,
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "project root")
	cmd.Flags().StringSliceVar(&changed, "changed", nil, "changed files relative to the root")
	return cmd
}
