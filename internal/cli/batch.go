package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/proofcheck/internal/loader"
	"github.com/roach88/proofcheck/internal/logging"
	"github.com/roach88/proofcheck/internal/verify"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Workers int // concurrent verifications
	Retries int // extra load attempts after a transient failure
}

// BatchItem is the outcome for one artifact.
type BatchItem struct {
	Path    string         `json:"path"`
	Passed  bool           `json:"passed"`
	Summary string         `json:"summary,omitempty"`
	Report  *verify.Report `json:"report"`
}

// BatchResult holds the overall batch result, items in input order.
type BatchResult struct {
	Items  []BatchItem `json:"items"`
	Passed int         `json:"passed"`
	Failed int         `json:"failed"`
	Total  int         `json:"total"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <path>...",
		Short: "Verify many artifacts concurrently",
		Long: `Verify every artifact named on the command line. Directories are searched
recursively for .json, .yaml and .yml files.

Artifacts are verified on a bounded worker pool. Transient read failures are
retried; malformed or failing artifacts are not. Results are printed in
input order.

Exit codes:
  0 - Every artifact passed
  1 - One or more artifacts failed
  2 - Command error (directory unreadable, etc.)

Examples:
  proofcheck batch ./proofs
  proofcheck batch a.json b.yaml --workers 8
  proofcheck batch ./proofs --record receipts.db --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent verifications (default from config, 4)")
	cmd.Flags().IntVar(&opts.Retries, "retries", 0, "retries for transient read failures (default from config, 2)")

	return cmd
}

func runBatch(opts *BatchOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := *opts.config

	if cmd.Flags().Changed("workers") {
		cfg.Batch.Workers = opts.Workers
	}
	if cmd.Flags().Changed("retries") {
		cfg.Batch.Retries = opts.Retries
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	paths, err := expandArtifacts(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find artifacts", err)
	}
	if len(paths) == 0 {
		if formatter.JSON() {
			return formatter.Success(BatchResult{Items: []BatchItem{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No artifacts found.")
		return nil
	}

	v, err := opts.newVerifier(verify.WithLoadRetry(cfg.RetryPolicy()))
	if err != nil {
		return outputSetupError(formatter, err)
	}

	logger := logging.New("batch")
	logger.Debug("batch starting", "artifacts", len(paths), "workers", cfg.Batch.Workers)

	reports := make([]*verify.Report, len(paths))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(cfg.Batch.Workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := v.VerifyFile(ctx, path)
			if err != nil {
				logger.Debug("artifact not loaded", "path", path, "error", err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return WrapExitError(ExitCommandError, "batch interrupted", err)
	}

	result := BatchResult{
		Items: make([]BatchItem, len(reports)),
		Total: len(reports),
	}
	for i, r := range reports {
		item := BatchItem{Path: paths[i], Passed: r.Passed, Report: r}
		if r.Passed {
			result.Passed++
		} else {
			item.Summary = failureSummary(r)
			result.Failed++
		}
		result.Items[i] = item
	}

	if cfg.RecordDB != "" {
		if err := recordReports(cmd.Context(), cfg.RecordDB, formatter, reports...); err != nil {
			return err
		}
	}

	if formatter.JSON() {
		if result.Failed > 0 {
			if err := formatter.Failure(result, ErrCodeBatchFailed, fmt.Sprintf("%d artifact(s) failed", result.Failed)); err != nil {
				return err
			}
			return quietExit(ExitFailure)
		}
		return formatter.Success(result)
	}
	return outputBatchText(cmd, opts, result)
}

// outputBatchText prints one line per artifact and a summary.
func outputBatchText(cmd *cobra.Command, opts *BatchOptions, result BatchResult) error {
	w := cmd.OutOrStdout()

	for _, item := range result.Items {
		if item.Passed {
			fmt.Fprintf(w, "✓ %s\n", item.Path)
		} else {
			fmt.Fprintf(w, "✗ %s\n", item.Path)
			for _, c := range item.Report.Failed() {
				fmt.Fprintf(w, "  %s\n", c.Message)
			}
			if item.Report.Error != "" || item.Report.SchemaViolation != nil {
				fmt.Fprintf(w, "  %s\n", item.Summary)
			}
		}
		if opts.Verbose && item.Report.Error == "" {
			transcript, err := renderTranscript(item.Report, true)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, indent(transcript, "    "))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Batch Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		// Verification failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d artifact(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All artifacts passed")
	return nil
}

// expandArtifacts replaces each directory argument with the artifacts below
// it, sorted by path. Other arguments are kept as given, even when they do
// not exist, so they are reported as load failures.
func expandArtifacts(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if isArtifactFile(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}

func isArtifactFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return true
	default:
		return loader.DetectFormat(path) == loader.FormatYAML
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
