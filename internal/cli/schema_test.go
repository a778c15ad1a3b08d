package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/proofcheck/internal/schema"
)

func TestSchemaCommand_PrintsEmbeddedSources(t *testing.T) {
	out, _, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Equal(t, string(schema.JSONSchemaSource), out)

	out, _, err = execute(t, "schema", "--engine", "cue")
	require.NoError(t, err)
	assert.Equal(t, string(schema.CUESource), out)
}

func TestSchemaCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "schema", "--engine", "cue", "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "cue", data["engine"])
	assert.Equal(t, string(schema.CUESource), data["source"])
}

func TestSchemaCommand_InvalidEngine(t *testing.T) {
	_, _, err := execute(t, "schema", "--engine", "xsd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid engine")
}
