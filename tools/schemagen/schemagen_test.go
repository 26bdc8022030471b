package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/bstviz/internal/server"
	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
)

func validate(t *testing.T, schema *Schema, value any) *gojsonschema.Result {
	t.Helper()

	schemaJSON, err := json.Marshal(schema)
	require.NoError(t, err)

	doc, err := json.Marshal(value)
	require.NoError(t, err)

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(doc))
	require.NoError(t, err)

	return result
}

func TestFrameSchemaAcceptsSnapshot(t *testing.T) {
	t.Parallel()

	ctrl := layout.New(layout.DefaultParams())
	ctrl.Seed(50, 25, 75, 10)
	ctrl.Search(10)
	ctrl.Tick(0.1)

	schema := generateSchema("frame", &layout.Frame{})

	result := validate(t, schema, ctrl.Snapshot())
	assert.True(t, result.Valid(), "%v", result.Errors())

	assert.Equal(t, "Frame", schema.Title)
	assert.Contains(t, schema.Definitions, "NodeView")
	assert.Equal(t, &Schema{Type: "string"}, schema.Definitions["NodeView"].Properties["highlight"])
}

func TestCommandRequestSchema(t *testing.T) {
	t.Parallel()

	schema := generateSchema("command_request", &server.CommandRequest{})

	assert.Empty(t, schema.Required)
	assert.Equal(t, "Command Request", schema.Title)

	key := 4
	assert.True(t, validate(t, schema, server.CommandRequest{Op: "insert", Key: &key}).Valid())
}

func TestEmbeddedFieldsAreFlattened(t *testing.T) {
	t.Parallel()

	for name, value := range payloads() {
		schema := generateSchema(name, value)
		assert.NotEmpty(t, schema.Properties, name)
	}

	state := generateSchema("mcp_state", payloads()["mcp_state"])
	assert.Contains(t, state.Properties, "inorder")
	assert.Contains(t, state.Properties, "search_state")
	assert.Contains(t, state.Required, "size")
}
