package plan

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitebski/seedgraph/internal/resolver"
	"github.com/vitebski/seedgraph/internal/store"
	"github.com/vitebski/seedgraph/pkg/models"
)

func chatSchema(t *testing.T) *models.Schema {
	t.Helper()

	workspace := &models.Table{
		Name:       "workspace",
		PrimaryKey: []string{"id"},
		Columns: []models.Column{
			{Name: "id", Type: "uuid"},
			{Name: "name", Type: "varchar(255)"},
		},
		Children: []models.ChildRelation{
			{Name: "users", Target: "users", ParentRelation: "workspace"},
			{Name: "channels", Target: "channel", ParentRelation: "workspace"},
		},
	}
	users := &models.Table{
		Name:       "users",
		PrimaryKey: []string{"id"},
		Columns: []models.Column{
			{Name: "id", Type: "uuid"},
			{Name: "email", Type: "varchar(255)"},
			{Name: "workspace_id", Type: "uuid"},
		},
		Parents: []models.Relation{
			{Name: "workspace", Target: "workspace", Columns: []string{"workspace_id"}, TargetColumns: []string{"id"}},
		},
		Children: []models.ChildRelation{
			{Name: "memberships", Target: "channel_member", ParentRelation: "user"},
		},
	}
	channel := &models.Table{
		Name:       "channel",
		PrimaryKey: []string{"id"},
		Columns: []models.Column{
			{Name: "id", Type: "uuid"},
			{Name: "name", Type: "varchar(255)"},
			{Name: "workspace_id", Type: "uuid"},
		},
		Parents: []models.Relation{
			{Name: "workspace", Target: "workspace", Columns: []string{"workspace_id"}, TargetColumns: []string{"id"}},
		},
		Children: []models.ChildRelation{
			{Name: "channel_member", Target: "channel_member", ParentRelation: "channel"},
		},
	}
	channelMember := &models.Table{
		Name:       "channel_member",
		PrimaryKey: []string{"id"},
		Columns: []models.Column{
			{Name: "id", Type: "uuid"},
			{Name: "user_id", Type: "uuid"},
			{Name: "channel_id", Type: "uuid"},
		},
		Parents: []models.Relation{
			{Name: "user", Target: "users", Columns: []string{"user_id"}, TargetColumns: []string{"id"}},
			{Name: "channel", Target: "channel", Columns: []string{"channel_id"}, TargetColumns: []string{"id"}},
		},
	}

	schema, err := models.NewSchema(workspace, users, channel, channelMember)
	require.NoError(t, err)
	return schema
}

func TestPipeSharesStoreAcrossPlans(t *testing.T) {
	engine := NewEngine(chatSchema(t), WithSeed("t"), WithAutoConnect(true))

	p := Pipe([]*Plan{
		engine.Generate("users", Count(3)),
		engine.Generate("channel", Count(1)),
	}, nil)

	st, err := p.Generate(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, st.Len("users"))
	require.Equal(t, 1, st.Len("workspace"), "later plans connect to earlier output")
	ws := st.Rows("workspace")[0]
	assert.Equal(t, ws["id"], st.Rows("channel")[0]["workspace_id"])
}

func TestMergeRunsIndependently(t *testing.T) {
	engine := NewEngine(chatSchema(t), WithSeed("t"), WithAutoConnect(true))

	p := Merge([]*Plan{
		engine.Generate("users", Count(1)),
		engine.Generate("users", Count(1)),
	}, nil)

	st, err := p.Generate(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, st.Len("users"))
	assert.Equal(t, 2, st.Len("workspace"), "merged plans never see each other's rows")
}

func TestMergeConcatenatesInInputOrder(t *testing.T) {
	engine := NewEngine(chatSchema(t), WithSeed("t"))

	p := Merge([]*Plan{
		engine.Generate("workspace", Rows(resolver.RowSpec{
			Fields: map[string]resolver.FieldValue{"name": resolver.Value("first")},
		})),
		engine.Generate("workspace", Rows(resolver.RowSpec{
			Fields: map[string]resolver.FieldValue{"name": resolver.Value("second")},
		})),
	}, nil)

	st, err := p.Generate(context.Background(), nil)
	require.NoError(t, err)

	rows := st.Rows("workspace")
	require.Len(t, rows, 2)
	assert.Equal(t, "first", rows[0]["name"])
	assert.Equal(t, "second", rows[1]["name"])
}

func TestPipeRepeatedTableDrawsFreshRows(t *testing.T) {
	engine := NewEngine(chatSchema(t), WithSeed("fixed"), WithAutoConnect(true))

	p := Pipe([]*Plan{
		engine.Generate("users", Count(2)),
		engine.Generate("users", Count(2)),
	}, nil)

	st, err := p.Generate(context.Background(), nil)
	require.NoError(t, err)

	rows := st.Rows("users")
	require.Len(t, rows, 4)

	ids := make(map[interface{}]bool)
	for _, u := range rows {
		ids[u["id"]] = true
	}
	assert.Len(t, ids, 4, "piped requests for one table must not replay primary keys")
	assert.NotEqual(t, rows[0]["email"], rows[2]["email"], "second plan must not replay the first plan's rows")
	assert.NotEqual(t, rows[1]["email"], rows[3]["email"])
}

func TestGenerateDeterministic(t *testing.T) {
	run := func() *store.Store {
		engine := NewEngine(chatSchema(t), WithSeed("t"), WithAutoConnect(true))
		p := Pipe([]*Plan{
			engine.Generate("users", Count(2)),
			engine.Generate("channel", Count(1)),
		}, nil)
		st, err := p.Generate(context.Background(), nil)
		require.NoError(t, err)
		return st
	}

	a, b := run(), run()
	require.Equal(t, a.Tables(), b.Tables())
	for _, table := range a.Tables() {
		assert.True(t, reflect.DeepEqual(a.Rows(table), b.Rows(table)),
			"table %s differs between identically seeded runs", table)
	}
}

func TestComposeSeedOverride(t *testing.T) {
	engine := NewEngine(chatSchema(t), WithSeed("ambient"))

	run := func(seed string) store.Row {
		p := Pipe([]*Plan{engine.Generate("users", Count(1))}, &ComposeOptions{Seed: seed})
		st, err := p.Generate(context.Background(), nil)
		require.NoError(t, err)
		return st.Rows("users")[0]
	}

	assert.NotEqual(t, run("a")["email"], run("b")["email"])
	assert.Equal(t, run("a")["email"], run("a")["email"])
}

func TestComposeModelOverride(t *testing.T) {
	engine := NewEngine(chatSchema(t), WithSeed("t"))

	opts := &ComposeOptions{Models: map[string]resolver.ModelOverride{
		"workspace": {Data: map[string]interface{}{"name": "pinned"}},
	}}
	p := Pipe([]*Plan{engine.Generate("workspace", Count(2))}, opts)

	st, err := p.Generate(context.Background(), nil)
	require.NoError(t, err)
	for _, row := range st.Rows("workspace") {
		assert.Equal(t, "pinned", row["name"])
	}
}

func TestBuildErrorSurfacesOnGenerate(t *testing.T) {
	engine := NewEngine(chatSchema(t), WithSeed("t"))

	bad := engine.Generate("users", Rows(resolver.RowSpec{
		Fields: map[string]resolver.FieldValue{"bogus": resolver.Value(1)},
	}))
	require.Error(t, bad.Err())

	p := Pipe([]*Plan{engine.Generate("workspace", Count(1)), bad}, nil)

	_, err := p.Generate(context.Background(), nil)
	var specErr *resolver.SpecificationError
	require.ErrorAs(t, err, &specErr)
}

func TestGenerateWithInitialStore(t *testing.T) {
	engine := NewEngine(chatSchema(t), WithSeed("t"), WithAutoConnect(true))

	initial := store.NewSeeded(map[string][]store.Row{
		"workspace": {{"id": "ws-ext", "name": "imported"}},
	}, true)

	st, err := engine.Generate("users", Count(2)).Generate(context.Background(), initial)
	require.NoError(t, err)

	assert.Equal(t, 1, st.Len("workspace"), "pre-seeded workspace is reused, not recreated")
	for _, u := range st.Rows("users") {
		assert.Equal(t, "ws-ext", u["workspace_id"])
	}
}

func TestGenerateCancelledContext(t *testing.T) {
	engine := NewEngine(chatSchema(t), WithSeed("t"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Generate("users", Count(1)).Generate(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCountBetweenBounds(t *testing.T) {
	engine := NewEngine(chatSchema(t), WithSeed("t"))

	st, err := engine.Generate("workspace", CountBetween(2, 4)).Generate(context.Background(), nil)
	require.NoError(t, err)

	n := st.Len("workspace")
	assert.GreaterOrEqual(t, n, 2)
	assert.LessOrEqual(t, n, 4)
}

func TestTimesHelper(t *testing.T) {
	engine := NewEngine(chatSchema(t), WithSeed("t"))

	spec := Times(func(x Repeat) []resolver.RowSpec {
		return x(3, func(i int) resolver.RowSpec {
			return resolver.RowSpec{Fields: map[string]resolver.FieldValue{
				"name": resolver.Value([]string{"a", "b", "c"}[i]),
			}}
		})
	})
	st, err := engine.Generate("workspace", spec).Generate(context.Background(), nil)
	require.NoError(t, err)

	rows := st.Rows("workspace")
	require.Len(t, rows, 3)
	assert.Equal(t, "b", rows[1]["name"])
}
