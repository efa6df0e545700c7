package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.RecordTypes = []RecordTypeConfig{{Name: "app.User"}}
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "defaults with one record type"},
		{name: "empty driver returns ErrDriverEmpty", mutate: func(c *Config) { c.Driver = "" }, wantErr: ErrDriverEmpty},
		{name: "unknown driver returns ErrDriverUnknown", mutate: func(c *Config) { c.Driver = "oracle" }, wantErr: ErrDriverUnknown},
		{name: "postgres is accepted", mutate: func(c *Config) { c.Driver = DriverPostgres }},
		{name: "zero batch size", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: ErrBatchSizeInvalid},
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -1 }, wantErr: ErrWorkersInvalid},
		{name: "unknown field kind", mutate: func(c *Config) { c.FieldKinds = []FieldKind{"blob"} }, wantErr: ErrFieldKindUnknown},
		{name: "no record types", mutate: func(c *Config) { c.RecordTypes = nil }, wantErr: ErrNoRecordTypes},
		{name: "unnamed record type", mutate: func(c *Config) { c.RecordTypes = []RecordTypeConfig{{}} }, wantErr: ErrRecordTypeNameEmpty},
		{
			name: "duplicate record type",
			mutate: func(c *Config) {
				c.RecordTypes = []RecordTypeConfig{{Name: "app.User"}, {Name: "app.User"}}
			},
			wantErr: ErrDuplicateRecordType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
		})
	}
}

func TestDefaultConfigIsIndependent(t *testing.T) {
	a := DefaultConfig()
	a.FieldSourceMap["name"] = "person.full_name"
	a.FieldNames[0] = "changed"

	b := DefaultConfig()
	assert.Equal(t, "finance.company", b.FieldSourceMap["name"])
	assert.Equal(t, "name", b.FieldNames[0])
}

func TestEligibleFieldNames(t *testing.T) {
	cfg := DefaultConfig()
	user := RecordTypeConfig{Name: "app.User"}
	profile := RecordTypeConfig{Name: "app.Profile", ExtraFieldNames: []string{"nickname", "email"}}
	cfg.RecordTypes = []RecordTypeConfig{user, profile}

	assert.Equal(t, DefaultFieldNames(), cfg.EligibleFieldNames(user))
	assert.Equal(t, append(DefaultFieldNames(), "nickname"), cfg.EligibleFieldNames(profile))
	assert.Equal(t, append(DefaultFieldNames(), "nickname"), cfg.AllEligibleFieldNames())
	assert.Len(t, cfg.FieldNames, 5, "global names are not modified")
}

func TestSourceMapIsScopedToRecordType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AdditionalFieldSourceMap = FieldSourceMap{"phone": "person.telephone"}
	user := RecordTypeConfig{Name: "app.User"}
	profile := RecordTypeConfig{
		Name:                "app.Profile",
		ExtraFieldSourceMap: FieldSourceMap{"nickname": "person.first_name", "name": "person.full_name"},
	}
	cfg.RecordTypes = []RecordTypeConfig{user, profile}

	userMap := cfg.SourceMap(user)
	_, ok := userMap.Path("nickname")
	assert.False(t, ok, "sibling overrides do not leak")
	assert.Equal(t, "finance.company", userMap["name"])
	assert.Equal(t, "person.telephone", userMap["phone"])

	profileMap := cfg.SourceMap(profile)
	assert.Equal(t, "person.first_name", profileMap["nickname"])
	assert.Equal(t, "person.full_name", profileMap["name"])

	merged := cfg.MergedSourceMap()
	assert.Equal(t, "person.first_name", merged["nickname"])
	assert.Equal(t, "person.telephone", merged["phone"])
	assert.Equal(t, "finance.company", cfg.FieldSourceMap["name"], "base map is not modified")
}

func TestConfigPolicy(t *testing.T) {
	cfg := DefaultConfig()
	rt := RecordTypeConfig{Name: "app.User", ExtraFieldNames: []string{"nickname"}}
	p := cfg.Policy(rt)

	assert.True(t, p.Allows(Field{Name: "nickname", Kind: KindChar}))
	assert.True(t, p.Allows(Field{Name: "email", Kind: KindEmail}))
	assert.False(t, p.Allows(Field{Name: "email", Kind: KindText}))
}

func TestConfigRecordType(t *testing.T) {
	cfg := validConfig()
	rt, ok := cfg.RecordType("app.User")
	assert.True(t, ok)
	assert.Equal(t, "app_user", rt.TableName())

	_, ok = cfg.RecordType("app.Nope")
	assert.False(t, ok)
}
