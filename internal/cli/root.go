// Package cli implements the draftctl command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/formdraft/internal/paths"
)

var log = logging.Logger("cli")

// Version is the draftctl version, overridden at link time.
var Version = "0.1.0"

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries an exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

func sysError(format string, args ...any) error {
	return &exitError{code: exitSysError, err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by the root command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// rootFlags holds global flag values for one command tree.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	logLevel  string
	jsonMode  bool
}

// app is the state shared by the subcommands of one root command.
type app struct {
	flags     rootFlags
	configDir string
	settings  settings
}

// NewRootCmd creates the draftctl command tree with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "draftctl",
		Short: "Inspect and manage saved form drafts",
		Long: "draftctl reads and writes form drafts through the same persistence\n" +
			"engine the forms use, on any supported storage backend.",
		Version: Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/formdraft)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/formdraft)")
	pf.StringVar(&a.flags.backend, "backend", "", "storage backend: memory, sqlite, file, bolt, leveldb")
	pf.StringVar(&a.flags.logLevel, "log-level", "error", "log level: debug, info, warn, error")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newSaveCmd(a),
		newSetCmd(a),
		newShowCmd(a),
		newInfoCmd(a),
		newListCmd(a),
		newClearCmd(a),
		newRecoverCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "draftctl:", err)
	}
	os.Exit(ExitCode(err))
}

// setup applies the log level and loads configuration before any
// subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	lvl, err := logging.LevelFromString(a.flags.logLevel)
	if err != nil {
		return userError("invalid --log-level %q", a.flags.logLevel)
	}
	logging.SetAllLoggers(lvl)

	if cmd.Name() == "version" {
		return nil
	}

	a.configDir, err = paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError("resolve config dir: %w", err)
	}
	a.settings, err = loadSettings(a.configDir, a.flags)
	if err != nil {
		return userError("%w", err)
	}
	log.Debugw("configuration loaded", "configDir", a.configDir, "backend", a.settings.Store.Backend, "dataDir", a.settings.Store.DataDir)
	return nil
}

func writeLine(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}
