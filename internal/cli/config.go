package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/depersonalizer/internal/paths"
	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "DEPERSONALIZER"

	cfgKeyDriver     = "driver"
	cfgKeyDSN        = "dsn"
	cfgKeyLocale     = "locale"
	cfgKeyBatchSize  = "batch_size"
	cfgKeyWorkers    = "workers"
	cfgKeyFailFast   = "fail_fast"
	cfgKeyFieldKinds = "field_kinds"
	cfgKeyFieldNames = "field_names"
	cfgKeySourceMap  = "field_source_map"
	cfgKeyAdditional = "additional_field_source_map"
	cfgKeyStateDir   = "state_dir"
	cfgKeyLogLevel   = "log_level"
	cfgKeyLogFile    = "log_file"
)

// loadConfig reads config.yaml from configDir, falling back to the per-user
// configuration directory. A missing config.yaml is not an error: defaults
// and DEPERSONALIZER_* environment variables still apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	def := types.DefaultConfig()

	v := viper.New()
	v.SetDefault(cfgKeyDriver, def.Driver)
	v.SetDefault(cfgKeyDSN, "")
	v.SetDefault(cfgKeyLocale, def.Locale)
	v.SetDefault(cfgKeyBatchSize, def.BatchSize)
	v.SetDefault(cfgKeyWorkers, def.Workers)
	v.SetDefault(cfgKeyFailFast, false)
	v.SetDefault(cfgKeyFieldKinds, lo.Map(def.FieldKinds, func(k types.FieldKind, _ int) string { return string(k) }))
	v.SetDefault(cfgKeyFieldNames, def.FieldNames)
	// A map[string]any default is merged key by key with config.yaml.
	v.SetDefault(cfgKeySourceMap, lo.MapValues(def.FieldSourceMap, func(path, _ string) any { return path }))
	v.SetDefault(cfgKeyStateDir, "")
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyLogFile, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if userDir, err := paths.UserConfigDir(); err == nil {
		v.AddConfigPath(userDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// bindFlags binds command flags to configuration keys. A flag set on the
// command line overrides the environment and config.yaml.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	return nil
}

// decodeConfig resolves the run configuration from v.
func decodeConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, &types.ConfigurationError{Err: fmt.Errorf("decode config: %w", err)}
	}
	return cfg, nil
}

// storeFlagKeys are the connection flags shared by commands that open a store.
var storeFlagKeys = map[string]string{
	"driver": cfgKeyDriver,
	"dsn":    cfgKeyDSN,
}

func addStoreFlags(fs *pflag.FlagSet) {
	fs.String("driver", "", "store driver: sqlite, postgres or mysql")
	fs.String("dsn", "", "data source name of the store")
}
