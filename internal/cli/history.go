package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/proofcheck/internal/ledger"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB       string // ledger path (falls back to record_db)
	Artifact string // filter by artifact path
	Digest   string // filter by canonical digest
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded verification receipts",
		Long: `List receipts recorded with --record, newest first.

Exit codes:
  0 - Receipts listed (possibly none)
  2 - Command error (ledger not found, etc.)

Examples:
  proofcheck history --db receipts.db
  proofcheck history --db receipts.db --artifact proof.json --limit 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to the SQLite ledger (default from config record_db)")
	cmd.Flags().StringVar(&opts.Artifact, "artifact", "", "only receipts for this artifact path")
	cmd.Flags().StringVar(&opts.Digest, "digest", "", "only receipts for this canonical digest")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum receipts to list (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	dbPath := opts.DB
	if dbPath == "" {
		dbPath = opts.config.RecordDB
	}
	if dbPath == "" {
		return NewExitError(ExitCommandError, "--db is required (or set record_db in the config file)")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		_ = formatter.Error(ErrCodeLedger, fmt.Sprintf("ledger not found: %s", dbPath), nil)
		return quietExit(ExitCommandError)
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--limit must not be negative, got %d", opts.Limit))
	}

	l, err := ledger.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeLedger, fmt.Sprintf("cannot open ledger %s", dbPath), err.Error())
		return WrapExitError(ExitCommandError, "open ledger", err)
	}
	defer l.Close()

	receipts, err := l.List(cmd.Context(), ledger.Filter{
		ArtifactPath:    opts.Artifact,
		CanonicalDigest: opts.Digest,
		Limit:           opts.Limit,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "list receipts", err)
	}

	if formatter.JSON() {
		return formatter.Success(receipts)
	}

	w := cmd.OutOrStdout()
	if len(receipts) == 0 {
		fmt.Fprintln(w, "No receipts recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECKED AT\tRESULT\tSCHEMA\tDIGEST\tARTIFACT")
	for _, rc := range receipts {
		result := "PASS"
		if !rc.Passed {
			result = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rc.CheckedAt.Format(time.RFC3339),
			result,
			rc.SchemaMode,
			shortDigest(rc.CanonicalDigest),
			rc.ArtifactPath)
	}
	return tw.Flush()
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
