package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/change"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
)

func newCompareCmd(a *app) *cobra.Command {
	var root, oldPath, relPath, format string
	var n, contextLines int

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Select tests for the difference between an old copy of a file and its current version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if oldPath == "" || relPath == "" {
				return errors.New(errors.ErrInvalidInput, errors.ExitUsage, "--old and --path are required")
			}
			before, err := os.ReadFile(oldPath)
			if err != nil {
				return errors.Newf(errors.ErrFileNotFound, errors.ExitUsage, "reading %s: %v", oldPath, err)
			}
			after, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
			if err != nil {
				return errors.Newf(errors.ErrFileNotFound, errors.ExitUsage, "reading %s: %v", relPath, err)
			}
			d, err := change.Compare(filepath.ToSlash(relPath), before, after, contextLines)
			if err != nil {
				return err
			}
			return a.runSelect(cmd, root, []change.Diff{d}, n, format)
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "project root")
	cmd.Flags().StringVar(&oldPath, "old", "", "previous version of the file")
	cmd.Flags().StringVar(&relPath, "path", "", "file path relative to the root")
	cmd.Flags().IntVarP(&n, "limit", "n", 0, "hits kept per query (default selection.limit)")
	cmd.Flags().IntVar(&contextLines, "context", 3, "context lines around each change")
	cmd.Flags().StringVar(&format, "format", formatPlain, "output format: plain, surefire or json")
	return cmd
}
