package structuredoutput

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "age": {"type": "integer"}
  },
  "required": ["name"]
}`

func TestValidateAcceptsConformingInput(t *testing.T) {
	adapter, err := New([]byte(testSchema))
	require.NoError(t, err)

	out, err := adapter.Validate(map[string]any{"name": "ada", "age": float64(30)})
	require.NoError(t, err)
	require.Equal(t, "ada", out.(map[string]any)["name"])
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	adapter, err := New([]byte(testSchema))
	require.NoError(t, err)

	_, err = adapter.Validate(map[string]any{"age": float64(30)})
	require.Error(t, err)
	var exc *Exception
	require.ErrorAs(t, err, &exc)
}

func TestSpecCarriesSchemaAndName(t *testing.T) {
	adapter, err := New([]byte(testSchema))
	require.NoError(t, err)

	spec := adapter.Spec("capture structured output")
	require.Equal(t, ToolName, spec.Name)
	require.JSONEq(t, testSchema, string(spec.InputSchema))
}
