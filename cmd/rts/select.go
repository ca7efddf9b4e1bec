package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/change"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/selection"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
)

const (
	formatPlain    = "plain"
	formatSurefire = "surefire"
	formatJSON     = "json"
)

func newSelectCmd(a *app) *cobra.Command {
	var root, diffPath, format string
	var n int

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Select tests for a unified diff read from a file or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, diffPath)
			if err != nil {
				return err
			}
			diffs, err := change.ParseUnified(data)
			if err != nil {
				return err
			}
			return a.runSelect(cmd, root, diffs, n, format)
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "project root")
	cmd.Flags().StringVar(&diffPath, "diff", "-", "unified diff file, - for stdin")
	cmd.Flags().IntVarP(&n, "limit", "n", 0, "hits kept per query (default selection.limit)")
	cmd.Flags().StringVar(&format, "format", formatPlain, "output format: plain, surefire or json")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" || path == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading diff from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Newf(errors.ErrFileNotFound, errors.ExitUsage, "reading diff %s: %v", path, err)
	}
	return data, nil
}

type selectOutput struct {
	RunID   string                  `json:"runId"`
	Tests   []string                `json:"tests"`
	Filter  string                  `json:"surefireFilter"`
	Queries []selection.QueryResult `json:"queries"`
}

func (a *app) runSelect(cmd *cobra.Command, root string, diffs []change.Diff, n int, format string) error {
	switch format {
	case formatPlain, formatSurefire, formatJSON:
	default:
		return errors.Newf(errors.ErrInvalidInput, errors.ExitUsage, "unknown format %q", format)
	}

	sess, err := selection.Open(a.cfg, root, a.metrics)
	if err != nil {
		return err
	}
	defer sess.Close()

	res, err := sess.Select(cmd.Context(), diffs, a.limit(n))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case formatSurefire:
		fmt.Fprintln(out, selection.SurefireFilter(res.Tests))
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(selectOutput{
			RunID:   res.RunID,
			Tests:   res.Tests.Sorted(),
			Filter:  selection.SurefireFilter(res.Tests),
			Queries: res.Queries,
		})
	default:
		for _, id := range res.Tests.Sorted() {
			fmt.Fprintln(out, id)
		}
	}
	return nil
}
