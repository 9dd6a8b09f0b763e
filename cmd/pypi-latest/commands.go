package main

import (
	"github.com/spf13/cobra"

	appErrors "pypilatest/internal/errors"
	"pypilatest/internal/update"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <package> <local-version>",
		Short: "Report whether the installed version is the newest release",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, id, skip, err := a.prepare(cmd, args)
			if err != nil || skip {
				return err
			}
			defer rt.Close()

			result := a.checker(rt).CheckLatest(cmd.Context(), id)
			reportCheckResult(rt.sess.Out, id, result)
			return nil
		},
	}
}

func newUpgradeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade <package> <local-version>",
		Short: "Check for a newer release and offer to upgrade with pip",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, id, skip, err := a.prepare(cmd, args)
			if err != nil || skip {
				return err
			}
			defer rt.Close()

			result, err := a.checker(rt).CheckAndOfferUpgrade(cmd.Context(), id)
			rt.sess.Log.Debug().Stringer("status", result.Status).Msg("upgrade flow finished")
			return commandError(err)
		},
	}
}

// prepare builds the runtime and identity. skip reports that the check is
// disabled by configuration.
func (a *app) prepare(cmd *cobra.Command, args []string) (*invocation, update.Identity, bool, error) {
	rt, err := a.setup(cmd)
	if err != nil {
		return nil, update.Identity{}, false, err
	}
	if rt.settings.SkipVersionCheck {
		rt.sess.Log.Debug().Msg("version check skipped by configuration")
		rt.Close()
		return nil, update.Identity{}, true, nil
	}
	id, err := update.NewIdentity(args[0], args[1])
	if err != nil {
		rt.Close()
		return nil, update.Identity{}, false, err
	}
	return rt, id, false, nil
}

// commandError drops errors whose exit has already been requested through
// the session, so main does not report them twice.
func commandError(err error) error {
	if err == nil || appErrors.ExitCode(err) != 0 {
		return nil
	}
	return err
}
