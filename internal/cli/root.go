// Package cli implements the depersonalize command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/depersonalizer/internal/logging"
	"github.com/mesh-intelligence/depersonalizer/internal/paths"
	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// skipSetup marks commands that run without configuration or logging.
const skipSetup = "skip-setup"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	stateDir  string
	logLevel  string
	logFile   string
	jsonMode  bool
}

var flags rootFlags

// session is the state prepared for a subcommand by the root command.
type session struct {
	v         *viper.Viper
	configDir string
	stateDir  string
	logCloser io.Closer
}

var sess *session

// NewRootCmd creates the top-level "depersonalize" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "depersonalize",
		Short: "Replace personal data in a database with generated values",
		Long: "Depersonalize rewrites personally identifying fields of configured record types\n" +
			"with synthetic values, keeping unique fields unique.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:       true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .depersonalizer)")
	pf.StringVar(&flags.stateDir, "state-dir", "", "directory for logs and run reports")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&flags.logFile, "log-file", "", `log file, or "-" for stderr (default: <state-dir>/logs)`)
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newTypesCmd())
	root.AddCommand(newGeneratorsCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newReportCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	os.Exit(exitCode(root.Execute()))
}

// exitCode maps a command error to the process exit code. Configuration and
// usage errors are the user's to fix; store and run failures are not.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, types.ErrConfiguration):
		return exitUserError
	case errors.Is(err, types.ErrRunFailed), errors.Is(err, types.ErrStore):
		return exitSysError
	default:
		return exitUserError
	}
}

// setup resolves directories, loads configuration and starts logging.
func setup(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipSetup] != "" {
		return nil
	}
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	stateDir, err := paths.ResolveStateDir(flags.stateDir, v.GetString(cfgKeyStateDir))
	if err != nil {
		return fmt.Errorf("resolve state dir: %w", err)
	}

	level := v.GetString(cfgKeyLogLevel)
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	logFile := v.GetString(cfgKeyLogFile)
	if flags.logFile != "" {
		logFile = flags.logFile
	}
	opts := logging.Options{Level: level, File: logFile}
	switch logFile {
	case "":
		opts.File = paths.LogFile(stateDir, cmd.Name())
	case "-":
		opts.File = ""
		opts.Console = cmd.ErrOrStderr()
	}
	closer, err := logging.Init(opts)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	sess = &session{v: v, configDir: configDir, stateDir: stateDir, logCloser: closer}
	log.Infof("Args: %v", logging.RedactArgs(os.Args))
	log.Infof("config dir %s, state dir %s", configDir, stateDir)
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if sess == nil || sess.logCloser == nil {
		return nil
	}
	err := sess.logCloser.Close()
	sess.logCloser = nil
	return err
}
