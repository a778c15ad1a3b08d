package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/proofcheck/internal/schema"
)

// Schema description engines printed by the schema command.
const (
	EngineJSONSchema = "jsonschema"
	EngineCUE        = "cue"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	var engine string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the embedded proof schema",
		Long: `Print the schema description used by the strict validators.

The jsonschema engine backs --schema-mode strict (and auto), the cue engine
backs --schema-mode cue. Either output can be edited and passed back with
--schema.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var src []byte
			switch engine {
			case EngineJSONSchema:
				src = schema.JSONSchemaSource
			case EngineCUE:
				src = schema.CUESource
			default:
				return fmt.Errorf("invalid engine %q: must be %s or %s", engine, EngineJSONSchema, EngineCUE)
			}

			formatter := rootOpts.formatter(cmd)
			if formatter.JSON() {
				return formatter.Success(map[string]string{
					"engine": engine,
					"source": string(src),
				})
			}
			_, err := cmd.OutOrStdout().Write(src)
			return err
		},
	}

	cmd.Flags().StringVar(&engine, "engine", EngineJSONSchema, "schema engine (jsonschema|cue)")

	return cmd
}
