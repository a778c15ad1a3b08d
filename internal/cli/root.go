package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/proofcheck/internal/config"
	"github.com/roach88/proofcheck/internal/logging"
	"github.com/roach88/proofcheck/internal/schema"
	"github.com/roach88/proofcheck/internal/verify"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	ConfigFile  string
	SchemaMode  string
	SchemaFile  string
	Consistency bool
	RecordDB    string

	// config is resolved before any command runs: defaults, then the
	// config file, then flags that were set explicitly.
	config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// usageLine is printed for a wrong positional argument count.
const usageLine = "Usage: proofcheck <artifact.json>"

// NewRootCommand creates the root command. Run with a single artifact it
// verifies that artifact.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "proofcheck <artifact>",
		Short: "Verify canonical proof artifacts",
		Long: `Verify that a canonical proof artifact produced by a simulation engine
satisfies its published guarantees.

The artifact is loaded, validated against the proof schema and checked for
energy conservation, dynamical stability, hash-chain integrity and
deterministic replay. Every check runs and reports independently.

Exit codes:
  0 - All checks passed
  1 - A check failed, or the artifact is missing, malformed or off-schema
  2 - Command error (ledger cannot be opened, etc.)

Examples:
  proofcheck proof.json
  proofcheck proof.yaml --schema-mode cue
  proofcheck proof.json --consistency --record receipts.db
  proofcheck proof.json --format json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				fmt.Fprintln(cmd.OutOrStdout(), usageLine)
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprint(cmd.OutOrStdout(), cmd.UsageString())
				return quietExit(ExitFailure)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logs, digests in transcript)")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigFile, "config", "", "YAML config file")
	flags.StringVar(&opts.SchemaMode, "schema-mode", string(schema.ModeAuto), "schema validation (auto|strict|cue|fallback)")
	flags.StringVar(&opts.SchemaFile, "schema", "", "schema description overriding the embedded one")
	flags.BoolVar(&opts.Consistency, "consistency", false, "recompute drift from the sampled energies")
	flags.StringVar(&opts.RecordDB, "record", "", "record a receipt in this SQLite ledger")

	// Add subcommands
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	err := cmd.Execute()
	if shouldPrint(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	}
	return GetExitCode(err)
}

// resolve layers explicit flags over the config file and initializes logging.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = o.Format
	}
	if flags.Changed("schema-mode") {
		cfg.SchemaMode = o.SchemaMode
	}
	if flags.Changed("schema") {
		cfg.SchemaFile = o.SchemaFile
	}
	if flags.Changed("consistency") {
		cfg.Consistency = o.Consistency
	}
	if flags.Changed("record") {
		cfg.RecordDB = o.RecordDB
	}

	// Validate format flag
	if !isValidFormat(cfg.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", cfg.Format, ValidFormats)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	if o.Verbose {
		level = slog.LevelDebug
	}
	logging.Init(level, cfg.Log.Format, cmd.ErrOrStderr())

	o.Format = cfg.Format
	o.config = cfg
	return nil
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// newVerifier selects the schema strategy and builds a verifier from the
// resolved configuration.
func (o *RootOptions) newVerifier(extra ...verify.Option) (*verify.Verifier, error) {
	mode, err := schema.ParseMode(o.config.SchemaMode)
	if err != nil {
		return nil, err
	}
	validator, err := schema.Select(schema.Options{
		Mode:       mode,
		SchemaFile: o.config.SchemaFile,
		Logger:     logging.New("schema"),
	})
	if err != nil {
		return nil, err
	}

	opts := []verify.Option{
		verify.WithConsistency(o.config.Consistency),
		verify.WithLogger(logging.New("verify")),
	}
	return verify.New(validator, append(opts, extra...)...), nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
