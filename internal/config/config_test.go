package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitebski/seedgraph/internal/plan"
)

const chatSchemaYAML = `
tables:
  - name: workspace
    primary_key: [id]
    columns:
      - {name: id, type: uuid}
      - {name: name, type: varchar(255)}
  - name: users
    primary_key: [id]
    columns:
      - {name: id, type: uuid}
      - {name: email, type: varchar(255)}
      - {name: workspace_id, type: uuid}
    relations:
      - name: workspace
        target: workspace
        columns: [workspace_id]
        target_columns: [id]
  - name: channel
    primary_key: [id]
    columns:
      - {name: id, type: uuid}
      - {name: name, type: varchar(255)}
      - {name: workspace_id, type: uuid}
    relations:
      - name: channel_workspace
        target: workspace
        columns: [workspace_id]
        target_columns: [id]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSchema(t *testing.T) {
	path := writeFile(t, "schema.yaml", chatSchemaYAML)

	schema, err := LoadSchema(path)
	require.NoError(t, err)

	assert.True(t, schema.Has("workspace"))
	assert.True(t, schema.Has("users"))

	users, err := schema.Table("users")
	require.NoError(t, err)
	require.Len(t, users.Parents, 1)
	assert.Equal(t, "workspace", users.Parents[0].Target)

	workspace, err := schema.Table("workspace")
	require.NoError(t, err)
	require.Len(t, workspace.Children, 2, "child edges are synthesized from declared relations")
}

func TestLoadSchemaUnknownTarget(t *testing.T) {
	path := writeFile(t, "schema.yaml", `
tables:
  - name: users
    columns:
      - {name: id, type: uuid}
      - {name: team_id, type: uuid}
    relations:
      - target: teams
        columns: [team_id]
        target_columns: [id]
`)

	_, err := LoadSchema(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teams")
}

func TestLoadSchemaEmpty(t *testing.T) {
	path := writeFile(t, "schema.yaml", "tables: []\n")
	_, err := LoadSchema(path)
	require.Error(t, err)
}

func TestLoadSchemaMissingFile(t *testing.T) {
	_, err := LoadSchema(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadPlanPipesSteps(t *testing.T) {
	schemaPath := writeFile(t, "schema.yaml", chatSchemaYAML)
	schema, err := LoadSchema(schemaPath)
	require.NoError(t, err)

	planPath := writeFile(t, "plan.yaml", `
seed: demo
steps:
  - table: users
    count: 3
  - table: channel
    count: 1
`)

	engine := plan.NewEngine(schema, plan.WithAutoConnect(true))
	p, err := LoadPlan(engine, planPath)
	require.NoError(t, err)

	st, err := p.Generate(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, st.Len("users"))
	assert.Equal(t, 1, st.Len("channel"))
	require.Equal(t, 1, st.Len("workspace"), "steps share one store")
	assert.Equal(t, st.Rows("workspace")[0]["id"], st.Rows("channel")[0]["workspace_id"])
}

func TestLoadPlanRowsAndData(t *testing.T) {
	schemaPath := writeFile(t, "schema.yaml", chatSchemaYAML)
	schema, err := LoadSchema(schemaPath)
	require.NoError(t, err)

	planPath := writeFile(t, "plan.yaml", `
steps:
  - table: channel
    rows:
      - data: {name: general}
      - data: {name: random}
`)

	engine := plan.NewEngine(schema, plan.WithAutoConnect(true))
	p, err := LoadPlan(engine, planPath)
	require.NoError(t, err)

	st, err := p.Generate(context.Background(), nil)
	require.NoError(t, err)

	rows := st.Rows("channel")
	require.Len(t, rows, 2)
	assert.Equal(t, "general", rows[0]["name"])
	assert.Equal(t, "random", rows[1]["name"])
}

func TestLoadPlanRange(t *testing.T) {
	schemaPath := writeFile(t, "schema.yaml", chatSchemaYAML)
	schema, err := LoadSchema(schemaPath)
	require.NoError(t, err)

	planPath := writeFile(t, "plan.yaml", `
steps:
  - table: workspace
    min: 2
    max: 4
`)

	engine := plan.NewEngine(schema)
	p, err := LoadPlan(engine, planPath)
	require.NoError(t, err)

	st, err := p.Generate(context.Background(), nil)
	require.NoError(t, err)

	n := st.Len("workspace")
	assert.GreaterOrEqual(t, n, 2)
	assert.LessOrEqual(t, n, 4)
}

func TestLoadPlanSeedReproducible(t *testing.T) {
	schemaPath := writeFile(t, "schema.yaml", chatSchemaYAML)
	schema, err := LoadSchema(schemaPath)
	require.NoError(t, err)

	planPath := writeFile(t, "plan.yaml", `
seed: fixed
steps:
  - table: users
    count: 1
`)

	run := func() interface{} {
		engine := plan.NewEngine(schema)
		p, err := LoadPlan(engine, planPath)
		require.NoError(t, err)
		st, err := p.Generate(context.Background(), nil)
		require.NoError(t, err)
		return st.Rows("users")[0]["email"]
	}

	assert.Equal(t, run(), run())
}

func TestLoadPlanEmpty(t *testing.T) {
	schemaPath := writeFile(t, "schema.yaml", chatSchemaYAML)
	schema, err := LoadSchema(schemaPath)
	require.NoError(t, err)

	planPath := writeFile(t, "plan.yaml", "steps: []\n")
	_, err = LoadPlan(plan.NewEngine(schema), planPath)
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "3306", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.AutoConnect)
}
