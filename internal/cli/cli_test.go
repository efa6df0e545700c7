package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

// testEnv isolates one CLI invocation sequence in temp directories.
type testEnv struct {
	configDir string
	stateDir  string
	dsn       string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	return testEnv{
		configDir: filepath.Join(dir, "config"),
		stateDir:  filepath.Join(dir, "state"),
		dsn:       filepath.Join(dir, "app.db"),
	}
}

func (e testEnv) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--config-dir", e.configDir, "--state-dir", e.stateDir))
	err := root.Execute()
	return out.String(), err
}

func (e testEnv) writeConfig(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt), []byte(content), 0o644))
}

func TestVersion(t *testing.T) {
	e := newTestEnv(t)
	out, err := e.execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "depersonalize v")
	assert.Contains(t, out, modulePath)
}

func TestInitWritesDefaultConfig(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.execute(t, "init", "--dsn", e.dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration written")

	data, err := os.ReadFile(filepath.Join(e.configDir, configFileExt))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, e.dsn)
	assert.Contains(t, content, "app.User")
	assert.Contains(t, content, "field_source_map:")
	assert.Contains(t, content, "person.full_name")

	out, err = e.execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
	after, err := os.ReadFile(filepath.Join(e.configDir, configFileExt))
	require.NoError(t, err)
	assert.Equal(t, data, after, "init is idempotent")
}

func TestCheckDefaultConfig(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.execute(t, "init")
	require.NoError(t, err)

	out, err := e.execute(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration OK: 2 record types")
	assert.Contains(t, out, "app.User (app_user): name, full_name, first_name, last_name, email")
}

func TestCheckReportsUnmappedField(t *testing.T) {
	e := newTestEnv(t)
	e.writeConfig(t, `
record_types:
  - name: app.User
    field_names: [nickname]
`)

	out, err := e.execute(t, "check")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConfiguration)
	assert.Contains(t, out, `field "nickname" doesn't have a source`)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestCheckLayersEnvAndFlags(t *testing.T) {
	e := newTestEnv(t)
	e.writeConfig(t, `
batch_size: 20
workers: 2
additional_field_source_map:
  nickname: person.first_name
record_types:
  - name: app.User
    field_names: [nickname]
`)
	t.Setenv("DEPERSONALIZER_BATCH_SIZE", "50")

	out, err := e.execute(t, "check", "--json", "--workers", "3")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.EqualValues(t, 50, got["batch_size"], "env overrides config.yaml")
	assert.EqualValues(t, 3, got["workers"], "flag overrides config.yaml")
	assert.Equal(t, "sqlite", got["driver"])
	sourceMap := got["field_source_map"].(map[string]any)
	assert.Equal(t, "finance.company", sourceMap["name"], "defaults survive a partial config")
}

func TestSeedRunAndReport(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.execute(t, "init", "--dsn", e.dsn)
	require.NoError(t, err)

	out, err := e.execute(t, "seed", "--rows", "25", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 25 rows into app_user, app_customer")

	out, err = e.execute(t, "types", "--json")
	require.NoError(t, err)
	var listing catalogListing
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	assert.ElementsMatch(t, []string{"app_customer", "app_user"}, listing.Tables)
	assert.Equal(t, "app.User", listing.Configured["app_user"])
	assert.Empty(t, listing.Missing)

	out, err = e.execute(t, "run", "--json", "--batch-size", "10")
	require.NoError(t, err, out)
	var run types.RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	require.Len(t, run.Reports, 2)
	assert.Equal(t, types.StatusProcessed, run.Reports[0].Status)
	assert.Equal(t, []string{"email", "first_name", "last_name"}, run.Reports[0].Fields)
	assert.Equal(t, 25, run.Reports[0].Records)
	assert.Equal(t, 3, run.Reports[0].Batches)
	assert.Equal(t, []string{"email", "full_name", "name"}, run.Reports[1].Fields)

	db, err := sql.Open("sqlite", e.dsn)
	require.NoError(t, err)
	defer db.Close()
	rows, err := db.Query(`SELECT email FROM app_user`)
	require.NoError(t, err)
	seen := make(map[string]bool)
	for rows.Next() {
		var email string
		require.NoError(t, rows.Scan(&email))
		assert.True(t, strings.HasSuffix(email, ")"), email)
		assert.False(t, seen[email], "duplicate %s", email)
		seen[email] = true
	}
	require.NoError(t, rows.Err())
	assert.Len(t, seen, 25)

	out, err = e.execute(t, "report")
	require.NoError(t, err)
	assert.Contains(t, out, "app.Customer")
	assert.Contains(t, out, "50 records across 2 record types")
}

func TestRunConfigurationErrorWritesNothing(t *testing.T) {
	e := newTestEnv(t)
	e.writeConfig(t, fmt.Sprintf(`
dsn: %s
record_types:
  - name: app.User
    field_source_map:
      email: person.nope
`, e.dsn))

	_, err := e.execute(t, "run")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnknownGeneratorPath)
	assert.Equal(t, exitUserError, exitCode(err))
	assert.NoFileExists(t, filepath.Join(e.stateDir, "reports", "last-run.jsonl"))
	assert.NoFileExists(t, e.dsn)
}

func TestRunStoreUnavailable(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.execute(t, "init")
	require.NoError(t, err)

	_, err = e.execute(t, "run", "--dsn", filepath.Join(e.stateDir, "no", "such", "dir", "app.db"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStore)
	assert.Equal(t, exitSysError, exitCode(err))
}

func TestGenerators(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.execute(t, "generators")
	require.NoError(t, err)
	assert.Contains(t, out, "person.full_name\n")
	assert.Contains(t, out, "finance.company\n")

	out, err = e.execute(t, "generators", "--json")
	require.NoError(t, err)
	var paths []string
	require.NoError(t, json.Unmarshal([]byte(out), &paths))
	assert.Contains(t, paths, "person.email")

	_, err = e.execute(t, "generators", "--locale", "xx")
	assert.ErrorIs(t, err, types.ErrUnknownLocale)
}

func TestSeedRejectsNonPositiveRows(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.execute(t, "seed", "--rows", "0", "--dsn", e.dsn)
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitSuccess},
		{"configuration", &types.ConfigurationError{Field: "email"}, exitUserError},
		{"run failed", errors.Join(types.ErrRunFailed, errors.New("boom")), exitSysError},
		{"store", &types.StoreError{Op: types.OpOpen, Err: errors.New("refused")}, exitSysError},
		{"usage", errors.New(`unknown flag: --nope`), exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
