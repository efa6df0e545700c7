package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	types.Config `yaml:",inline"`

	StateDir string `yaml:"state_dir,omitempty"`
	LogLevel string `yaml:"log_level"`
}

const configHeader = `# depersonalize configuration
#
# Every key may be overridden by a DEPERSONALIZER_<KEY> environment variable,
# and run options also by command-line flags.

`

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration",
		Long:  "Create the configuration directory and write config.yaml with the built-in defaults.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(sess.configDir, 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			driver, _ := cmd.Flags().GetString("driver")
			dsn, _ := cmd.Flags().GetString("dsn")
			path := filepath.Join(sess.configDir, configFileExt)
			written, err := writeConfigIfMissing(path, defaultConfigFile(driver, dsn), force)
			if err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			if !written {
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration already exists: %s\n", path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written: %s\n", path)
			return nil
		},
	}
	addStoreFlags(cmd.Flags())
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config.yaml")
	return cmd
}

// defaultConfigFile returns the defaults with the record types created by the
// seed command, so that a fresh setup runs end to end.
func defaultConfigFile(driver, dsn string) configFile {
	cfg := types.DefaultConfig()
	if driver != "" {
		cfg.Driver = driver
	}
	cfg.DSN = dsn
	cfg.RecordTypes = []types.RecordTypeConfig{
		{Name: "app.User", UniqueFields: []string{"email"}},
		{Name: "app.Customer", UniqueFields: []string{"email"}},
	}
	return configFile{Config: cfg, LogLevel: "info"}
}

// writeConfigIfMissing creates config.yaml unless it exists and force is
// unset. It reports whether the file was written.
func writeConfigIfMissing(path string, cfg configFile, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&cfg); err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return false, err
	}
	return true, os.WriteFile(path, buf.Bytes(), 0o644)
}
