package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/depersonalizer/internal/generator"
	"github.com/mesh-intelligence/depersonalizer/internal/memstore"
	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

func peopleSchema(table string) types.RecordSchema {
	return types.RecordSchema{
		Table: table,
		Key:   "id",
		Fields: []types.Field{
			{Name: "id", Kind: types.KindInteger},
			{Name: "name", Kind: types.KindChar},
			{Name: "email", Kind: types.KindEmail},
			{Name: "nickname", Kind: types.KindChar},
		},
	}
}

func peopleRows(n int) []map[string]any {
	rows := make([]map[string]any, n)
	for i := range n {
		rows[i] = map[string]any{
			"id":       i + 1,
			"name":     fmt.Sprintf("Alice Smith %d", i),
			"email":    fmt.Sprintf("alice%d@x.com", i),
			"nickname": "Ally",
		}
	}
	return rows
}

func testConfig(rts ...types.RecordTypeConfig) types.Config {
	cfg := types.DefaultConfig()
	cfg.BatchSize = 3
	cfg.RecordTypes = rts
	return cfg
}

func testRegistry(t *testing.T) *generator.Registry {
	t.Helper()
	reg, err := generator.Builtin("en", 1)
	require.NoError(t, err)
	return reg
}

func TestRunReplacesUserFields(t *testing.T) {
	db := memstore.New()
	db.AddTable(peopleSchema("app_user"), peopleRows(10)...)
	cfg := testConfig(types.RecordTypeConfig{
		Name:                "app.User",
		UniqueFields:        []string{"email"},
		ExtraFieldSourceMap: types.FieldSourceMap{"name": "person.full_name"},
	})

	run, err := New(cfg, testRegistry(t), db.Open).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, run.Reports, 1)

	rep := run.Reports[0]
	assert.Equal(t, types.StatusProcessed, rep.Status)
	assert.Equal(t, []string{"email", "name"}, rep.Fields)
	assert.Equal(t, 10, rep.Records)
	assert.Equal(t, 4, rep.Batches)
	assert.Equal(t, 10, run.Records())

	seen := make(map[string]bool)
	for _, row := range db.Rows("app_user") {
		name := row["name"].(string)
		email := row["email"].(string)
		assert.NotContains(t, name, "Alice Smith")
		assert.NotContains(t, email, "@x.com")
		assert.True(t, strings.HasSuffix(email, ")"), email)
		assert.False(t, seen[email], "duplicate email %s", email)
		seen[email] = true
		assert.Equal(t, "Ally", row["nickname"], "nickname is not eligible")
	}
}

func TestRunExtraNamesScopedToRecordType(t *testing.T) {
	db := memstore.New()
	db.AddTable(peopleSchema("app_user"), peopleRows(4)...)
	db.AddTable(peopleSchema("app_profile"), peopleRows(4)...)
	cfg := testConfig(
		types.RecordTypeConfig{Name: "app.User"},
		types.RecordTypeConfig{
			Name:                "app.Profile",
			ExtraFieldNames:     []string{"nickname"},
			ExtraFieldSourceMap: types.FieldSourceMap{"nickname": "person.first_name"},
		},
	)

	run, err := New(cfg, testRegistry(t), db.Open).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, run.Reports, 2)

	assert.Equal(t, "app.User", run.Reports[0].RecordType)
	assert.Equal(t, []string{"email", "name"}, run.Reports[0].Fields)
	assert.Equal(t, "app.Profile", run.Reports[1].RecordType)
	assert.Equal(t, []string{"email", "name", "nickname"}, run.Reports[1].Fields)

	for _, row := range db.Rows("app_user") {
		assert.Equal(t, "Ally", row["nickname"])
	}
	for _, row := range db.Rows("app_profile") {
		assert.NotEqual(t, "Ally", row["nickname"])
	}
}

func TestRunConfigurationErrorTouchesNothing(t *testing.T) {
	tests := []struct {
		name    string
		rts     []types.RecordTypeConfig
		wantErr error
	}{
		{
			name:    "eligible name without mapping",
			rts:     []types.RecordTypeConfig{{Name: "app.User", ExtraFieldNames: []string{"nickname"}}},
			wantErr: types.ErrConfiguration,
		},
		{
			name: "mapping only on sibling record type",
			rts: []types.RecordTypeConfig{
				{Name: "app.User", ExtraFieldNames: []string{"nickname"}},
				{Name: "app.Profile", ExtraFieldSourceMap: types.FieldSourceMap{"nickname": "person.first_name"}},
			},
			wantErr: types.ErrConfiguration,
		},
		{
			name:    "unknown generator path",
			rts:     []types.RecordTypeConfig{{Name: "app.User", ExtraFieldSourceMap: types.FieldSourceMap{"name": "person.nope"}}},
			wantErr: types.ErrUnknownGeneratorPath,
		},
		{
			name:    "no record types",
			wantErr: types.ErrNoRecordTypes,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := memstore.New()
			db.AddTable(peopleSchema("app_user"), peopleRows(2)...)

			_, err := New(testConfig(tt.rts...), testRegistry(t), db.Open).Run(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrConfiguration)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, memstore.Calls{}, db.Calls())
		})
	}
}

func TestValidateReportsOffendingField(t *testing.T) {
	cfg := testConfig(types.RecordTypeConfig{Name: "app.User", ExtraFieldNames: []string{"nickname"}})
	err := Validate(cfg, testRegistry(t))

	var cerr *types.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "nickname", cerr.Field)
	assert.Contains(t, err.Error(), "doesn't have a source")
}

func TestRunSkipsRecordTypesMissingFromStore(t *testing.T) {
	db := memstore.New()
	db.AddTable(peopleSchema("app_user"), peopleRows(2)...)
	cfg := testConfig(types.RecordTypeConfig{Name: "app.Ghost"}, types.RecordTypeConfig{Name: "app.User"})

	run, err := New(cfg, testRegistry(t), db.Open).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, run.Reports, 2)
	assert.Equal(t, types.StatusMissing, run.Reports[0].Status)
	assert.Equal(t, "app_ghost", run.Reports[0].Table)
	assert.Equal(t, types.StatusProcessed, run.Reports[1].Status)
}

func TestRunContinuesAfterRecordTypeFailure(t *testing.T) {
	db := memstore.New()
	db.AddTable(peopleSchema("app_user"), peopleRows(5)...)
	db.AddTable(peopleSchema("app_profile"), peopleRows(5)...)
	db.Fail[types.OpUpdate+":app_user"] = errors.New("disk full")
	cfg := testConfig(types.RecordTypeConfig{Name: "app.User"}, types.RecordTypeConfig{Name: "app.Profile"})

	run, err := New(cfg, testRegistry(t), db.Open).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrRunFailed)
	assert.ErrorIs(t, err, types.ErrStore)
	assert.Contains(t, err.Error(), "disk full")

	require.Len(t, run.Failed(), 1)
	assert.Equal(t, types.StatusFailed, run.Reports[0].Status)
	assert.Equal(t, types.StatusProcessed, run.Reports[1].Status)
	assert.Len(t, db.UpdatedKeys("app_profile"), 5)
}

func TestRunFailFastCancelsRemaining(t *testing.T) {
	db := memstore.New()
	db.AddTable(peopleSchema("app_user"), peopleRows(5)...)
	db.AddTable(peopleSchema("app_profile"), peopleRows(5)...)
	db.Fail[types.OpSchema+":app_user"] = errors.New("permission denied")
	cfg := testConfig(types.RecordTypeConfig{Name: "app.User"}, types.RecordTypeConfig{Name: "app.Profile"})
	cfg.FailFast = true

	run, err := New(cfg, testRegistry(t), db.Open).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrRunFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, types.StatusFailed, run.Reports[0].Status)
	assert.Equal(t, types.StatusCancelled, run.Reports[1].Status)
	assert.Empty(t, db.UpdatedKeys("app_profile"))
}

func TestRunParallelWorkersUseOwnStores(t *testing.T) {
	db := memstore.New()
	var rts []types.RecordTypeConfig
	for i := range 6 {
		name := fmt.Sprintf("app.Model%d", i)
		rt := types.RecordTypeConfig{Name: name, UniqueFields: []string{"email"}}
		db.AddTable(peopleSchema(rt.TableName()), peopleRows(7)...)
		rts = append(rts, rt)
	}
	cfg := testConfig(rts...)
	cfg.Workers = 3

	run, err := New(cfg, testRegistry(t), db.Open).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, run.Reports, 6)
	for i, rep := range run.Reports {
		assert.Equal(t, rts[i].Name, rep.RecordType, "reports keep configuration order")
		assert.Equal(t, types.StatusProcessed, rep.Status)
		assert.Equal(t, 7, rep.Records)
	}

	calls := db.Calls()
	assert.Equal(t, 7, calls.Opens, "one catalog connection plus one per record type")
	assert.Equal(t, calls.Opens, calls.Closes)
	assert.Equal(t, 42, calls.Updated)
}

func TestRunStoreOpenFailure(t *testing.T) {
	db := memstore.New()
	db.Fail[types.OpOpen] = errors.New("connection refused")
	cfg := testConfig(types.RecordTypeConfig{Name: "app.User"})

	_, err := New(cfg, testRegistry(t), db.Open).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStore)
	assert.NotErrorIs(t, err, types.ErrConfiguration)
}

func TestRunCancelledBeforeDispatch(t *testing.T) {
	db := memstore.New()
	db.AddTable(peopleSchema("app_user"), peopleRows(2)...)
	cfg := testConfig(types.RecordTypeConfig{Name: "app.User"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	run, err := New(cfg, testRegistry(t), db.Open).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, types.StatusCancelled, run.Reports[0].Status)
	assert.Equal(t, 0, db.Calls().BulkUpdate)
}

func TestSelect(t *testing.T) {
	rts := []types.RecordTypeConfig{
		{Name: "app.User"},
		{Name: "shop.Order"},
		{Name: "app.Profile", Table: "profiles"},
	}
	present, missing := Select([]string{"profiles", "app_user", "auth_group"}, rts)
	assert.Equal(t, []types.RecordTypeConfig{rts[0], rts[2]}, present)
	assert.Equal(t, []types.RecordTypeConfig{rts[1]}, missing)
}
