package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pypilatest/internal/config"
	"pypilatest/internal/console"
	"pypilatest/internal/debug"
	appErrors "pypilatest/internal/errors"
	"pypilatest/internal/pip"
	"pypilatest/internal/pypi"
	"pypilatest/internal/session"
	"pypilatest/internal/update"
)

// flagKeys maps persistent flags to the configuration keys they override.
var flagKeys = map[string]string{
	"debug":              config.KeyDebug,
	"registry-host":      config.KeyRegistryHost,
	"timeout":            config.KeyRegistryTimeout,
	"pip":                config.KeyPackageManagerBin,
	"force-color":        config.KeyForceColor,
	"yes":                config.KeyAssumeYes,
	"skip-version-check": config.KeySkipVersionCheck,
}

// app holds what the commands write to and how they terminate, so tests can
// swap them.
type app struct {
	stdout io.Writer
	stderr io.Writer
	exit   session.ExitFunc

	// extra checker options appended after the configured ones
	checkerOpts []update.CheckerOption
}

func newApp() *app {
	return &app{stdout: os.Stdout, stderr: os.Stderr, exit: os.Exit}
}

func newRootCmd(a *app) *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   "pypi-latest",
		Short: "Check whether an installed Python package is the latest PyPI release",
		Long: `pypi-latest compares the installed version of a package with the newest
release on PyPI and can upgrade it through pip after asking.

Examples:
  # Report whether cookietemple 1.2.0 is current
  pypi-latest check cookietemple 1.2.0

  # Offer an upgrade when a newer release exists
  pypi-latest upgrade cookietemple 1.2.0

  # Upgrade without asking (CI)
  pypi-latest upgrade --yes cookietemple 1.2.0`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion(cmd.OutOrStdout())
				return nil
			}
			return cmd.Help()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.Flags().BoolVar(&showVersion, "version", false, "Print version information and exit")

	pf := root.PersistentFlags()
	pf.Bool("debug", false, "Write a debug log to ~/.pypi-latest/debug.log")
	pf.String("registry-host", config.DefaultRegistryHost, "Registry host queried over https")
	pf.Duration("timeout", config.DefaultRegistryTimeout, "Registry request timeout")
	pf.String("pip", config.DefaultPackageManager, "Package manager executable used for upgrades")
	pf.Bool("force-color", false, "Style output even when not writing to a terminal")
	pf.BoolP("yes", "y", false, "Upgrade without asking")
	pf.Bool("skip-version-check", false, "Do nothing (or set PYPI_LATEST_SKIP_VERSION_CHECK=true)")

	root.SuggestionsMinimumDistance = 2
	root.AddCommand(newCheckCmd(a), newUpgradeCmd(a))
	return root
}

// invocation is the per-run state built from configuration and flags.
type invocation struct {
	settings config.Settings
	sess     *session.Session
	log      *debug.Log
}

func (r *invocation) Close() {
	r.log.Close()
}

// setup resolves configuration with changed flags as overrides, then opens
// the debug log and builds the session.
func (a *app) setup(cmd *cobra.Command) (*invocation, error) {
	overrides := map[string]any{}
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}
	if err := config.ApplyOverrides(overrides); err != nil {
		return nil, appErrors.New(appErrors.CodeConfigurationError, "", fmt.Errorf("apply flags: %w", err))
	}
	settings, err := config.Load()
	if err != nil {
		return nil, appErrors.New(appErrors.CodeConfigurationError, "", err)
	}

	dbg, err := debug.Open(settings.Debug)
	if err != nil {
		_, _ = fmt.Fprintf(a.stderr, "Warning: debug logging disabled: %v\n", err)
		dbg = nil
	}

	out := console.New(a.stdout, console.Options{ForceStyled: settings.ForceColor})
	sess := session.New(dbg.Logger(), out, session.WithExit(a.exit))
	sess.Log.Debug().
		Str("registry_host", settings.RegistryHost).
		Dur("timeout", settings.RegistryTimeout).
		Str("package_manager", settings.PackageManager).
		Bool("force_color", settings.ForceColor).
		Msg("configuration loaded")

	return &invocation{settings: settings, sess: sess, log: dbg}, nil
}

func (a *app) checker(rt *invocation) *update.Checker {
	s := rt.settings
	opts := []update.CheckerOption{
		update.WithRegistry(pypi.NewClient(
			pypi.WithHost(s.RegistryHost),
			pypi.WithTimeout(s.RegistryTimeout),
		)),
		update.WithPackageManager(pip.NewManager(pip.WithBinary(s.PackageManager))),
		update.WithAssumeYes(s.AssumeYes),
	}
	opts = append(opts, a.checkerOpts...)
	return update.NewChecker(rt.sess, opts...)
}
