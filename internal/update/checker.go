package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"pypilatest/internal/pip"
	"pypilatest/internal/prompt"
	"pypilatest/internal/pypi"
	"pypilatest/internal/session"
)

// UpgradeQuestion is asked before upgrading an outdated package.
const UpgradeQuestion = "Do you want to upgrade?"

// Status is the outcome of a check.
type Status int

const (
	StatusUpToDate Status = iota
	StatusOutdated
	StatusAhead
	StatusRegistryUnreachable
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusUpToDate:
		return "up-to-date"
	case StatusOutdated:
		return "outdated"
	case StatusAhead:
		return "ahead"
	case StatusRegistryUnreachable:
		return "registry-unreachable"
	default:
		return "unknown"
	}
}

// Result describes one check. Remote is set for Outdated and Ahead.
type Result struct {
	Status Status
	Local  string
	Remote string
}

// RegistryClient returns the newest published version of a package.
type RegistryClient interface {
	LatestVersion(ctx context.Context, name string) (string, error)
}

// Confirmer asks a yes/no question.
type Confirmer interface {
	Confirm(question, def string) (bool, error)
}

// PackageManager probes for and runs the external installer.
type PackageManager interface {
	Bin() string
	ProbeCommand() []string
	Probe(ctx context.Context) (string, error)
	Upgrade(ctx context.Context, pkg string, stdout, stderr io.Writer) error
}

// Checker compares an installed package against the registry.
type Checker struct {
	sess      *session.Session
	registry  RegistryClient
	confirmer Confirmer
	manager   PackageManager
	assumeYes bool
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithRegistry sets the registry client.
func WithRegistry(r RegistryClient) CheckerOption {
	return func(c *Checker) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithConfirmer sets who answers the upgrade question.
func WithConfirmer(cf Confirmer) CheckerOption {
	return func(c *Checker) {
		if cf != nil {
			c.confirmer = cf
		}
	}
}

// WithPackageManager sets the installer.
func WithPackageManager(m PackageManager) CheckerOption {
	return func(c *Checker) {
		if m != nil {
			c.manager = m
		}
	}
}

// WithAssumeYes skips the upgrade question and upgrades outdated packages.
func WithAssumeYes(yes bool) CheckerOption {
	return func(c *Checker) {
		c.assumeYes = yes
	}
}

// NewChecker creates a Checker backed by pypi.org, an interactive prompt and
// pip unless overridden.
func NewChecker(sess *session.Session, opts ...CheckerOption) *Checker {
	if sess == nil {
		sess = session.Discard()
	}
	c := &Checker{sess: sess}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = pypi.NewClient()
	}
	if c.confirmer == nil {
		c.confirmer = prompt.New(sess)
	}
	if c.manager == nil {
		c.manager = pip.NewManager()
	}
	return c
}

// CheckLatest compares the installed version with the newest release and
// announces the outcome. It never fails: registry trouble yields
// StatusRegistryUnreachable.
func (c *Checker) CheckLatest(ctx context.Context, id Identity) Result {
	log := c.sess.Log
	out := c.sess.Out
	result := Result{Status: StatusUpToDate, Local: id.LocalVersion()}

	log.Debug().Str("package", id.Name()).Str("local", id.LocalVersion()).Msg("latest local version")

	local, err := ParseVersion(id.LocalVersion())
	if err != nil {
		log.Debug().Err(err).Str("package", id.Name()).Msg("local version unparseable, skipping check")
		return result
	}

	log.Debug().Str("package", id.Name()).Msg("checking whether a newer version exists on PyPI")
	spin := out.StartSpinner(fmt.Sprintf("Checking PyPI for %s...", id.Name()))
	remoteRaw, err := c.registry.LatestVersion(ctx, id.Name())
	spin.Stop()

	if err != nil {
		return c.unreachable(id, err)
	}
	latest, err := ParseVersion(remoteRaw)
	if err != nil {
		return c.unreachable(id, err)
	}
	result.Remote = remoteRaw

	switch cmp := local.Compare(latest); {
	case cmp > 0:
		result.Status = StatusAhead
		out.Warn("Installed version %s of %s is newer than the latest release %s! You are running a nightly version and features may break!",
			id.LocalVersion(), id.Name(), remoteRaw)
	case cmp == 0:
		result.Status = StatusUpToDate
	default:
		result.Status = StatusOutdated
		out.Error("Installed version %s of %s is outdated. Newest version is %s!",
			id.LocalVersion(), id.Name(), remoteRaw)
	}

	log.Debug().Str("package", id.Name()).Str("remote", remoteRaw).Stringer("status", result.Status).Msg("version check complete")
	return result
}

func (c *Checker) unreachable(id Identity, err error) Result {
	c.sess.Log.Debug().Err(err).Str("package", id.Name()).
		Bool("not_found", errors.Is(err, pypi.ErrNotFound)).
		Msg("registry lookup failed")
	c.sess.Out.Error("Unable to contact PyPI to check for the latest %s version. Do you have an internet connection?", id.Name())
	return Result{Status: StatusRegistryUnreachable, Local: id.LocalVersion()}
}

// CheckAndOfferUpgrade runs CheckLatest and, only for an outdated package,
// asks whether to upgrade. A cancelled prompt has already terminated the
// process through the session; its error is returned for completeness.
func (c *Checker) CheckAndOfferUpgrade(ctx context.Context, id Identity) (Result, error) {
	result := c.CheckLatest(ctx, id)
	if result.Status != StatusOutdated {
		return result, nil
	}

	confirmed := c.assumeYes
	if !confirmed {
		var err error
		confirmed, err = c.confirmer.Confirm(UpgradeQuestion, "y")
		if err != nil {
			return result, err
		}
	}
	if !confirmed {
		c.sess.Log.Debug().Str("package", id.Name()).Msg("upgrade declined")
		return result, nil
	}
	return result, c.Upgrade(ctx, id)
}

// Upgrade installs the newest release with the package manager. A missing
// package manager exits the process with status 1; a failed install is
// reported and swallowed.
func (c *Checker) Upgrade(ctx context.Context, id Identity) error {
	log := c.sess.Log
	out := c.sess.Out
	bin := c.manager.Bin()

	log.Debug().Str("package", id.Name()).Msgf("attempting upgrade via %s install --upgrade %s", bin, id.Name())

	if _, err := c.manager.Probe(ctx); err != nil {
		probe := strings.Join(c.manager.ProbeCommand(), " ")
		log.Debug().Err(err).Str("probe", probe).Msg("package manager not accessible")
		out.Error("Unable to find '%s' in the PATH. Is it installed?", bin)
		out.Error("Run command was %s", out.Command(probe))
		c.sess.Exit(1)
		return err
	}

	w := out.Writer()
	if err := c.manager.Upgrade(ctx, id.Name(), w, w); err != nil {
		log.Debug().Err(err).Str("package", id.Name()).Msg("upgrade failed")
		out.Error("Unable to upgrade %s", id.Name())
		cause := err
		if inner := errors.Unwrap(err); inner != nil {
			cause = inner
		}
		out.Error("Exception: %v", cause)
		return nil
	}

	log.Debug().Str("package", id.Name()).Msg("upgrade complete")
	return nil
}
