package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"pypilatest/internal/config"
	appErrors "pypilatest/internal/errors"
	"pypilatest/internal/pip"
	"pypilatest/internal/session"
	"pypilatest/internal/update"
)

type fakeRegistry struct {
	version string
	err     error
	calls   int
}

func (f *fakeRegistry) LatestVersion(ctx context.Context, name string) (string, error) {
	f.calls++
	return f.version, f.err
}

type fakeConfirmer struct {
	answer bool
	asked  int
}

func (f *fakeConfirmer) Confirm(question, def string) (bool, error) {
	f.asked++
	return f.answer, nil
}

type fakeManager struct {
	probeErr error
	upgrades []string
}

func (f *fakeManager) Bin() string            { return "pip" }
func (f *fakeManager) ProbeCommand() []string { return []string{"pip", "--version"} }

func (f *fakeManager) Probe(ctx context.Context) (string, error) {
	return "pip 24.0", f.probeErr
}

func (f *fakeManager) Upgrade(ctx context.Context, pkg string, stdout, stderr io.Writer) error {
	f.upgrades = append(f.upgrades, pkg)
	return nil
}

type testRun struct {
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	exit     session.ExitRecorder
	registry *fakeRegistry
	confirm  *fakeConfirmer
	manager  *fakeManager
}

func newTestRun(t *testing.T, remote string) *testRun {
	t.Helper()
	t.Cleanup(config.ResetForTesting(t))
	return &testRun{
		registry: &fakeRegistry{version: remote},
		confirm:  &fakeConfirmer{},
		manager:  &fakeManager{},
	}
}

func (r *testRun) execute(args ...string) error {
	a := &app{
		stdout: &r.stdout,
		stderr: &r.stderr,
		exit:   r.exit.Exit,
		checkerOpts: []update.CheckerOption{
			update.WithRegistry(r.registry),
			update.WithConfirmer(r.confirm),
			update.WithPackageManager(r.manager),
		},
	}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func (r *testRun) output() string {
	return ansi.Strip(r.stdout.String())
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd(newApp())
	if root.Use != "pypi-latest" {
		t.Errorf("expected Use to be 'pypi-latest', got '%s'", root.Use)
	}
	if root.Short == "" || root.Long == "" {
		t.Error("expected Short and Long descriptions to be set")
	}

	found := map[string]bool{}
	for _, cmd := range root.Commands() {
		found[cmd.Name()] = true
	}
	for _, expected := range []string{"check", "upgrade"} {
		if !found[expected] {
			t.Errorf("expected command '%s' to be registered", expected)
		}
	}
}

func TestRootCommandHasPersistentFlags(t *testing.T) {
	root := newRootCmd(newApp())
	for name := range flagKeys {
		flag := root.PersistentFlags().Lookup(name)
		if flag == nil {
			t.Errorf("expected --%s flag to be registered", name)
			continue
		}
		if flag.Usage == "" {
			t.Errorf("expected --%s flag to have usage text", name)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	run := newTestRun(t, "")
	if err := run.execute("--version"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(run.stdout.String(), "pypi-latest version") {
		t.Fatalf("expected version output, got %q", run.stdout.String())
	}
}

func TestCheckUpToDate(t *testing.T) {
	run := newTestRun(t, "1.2.0")
	if err := run.execute("check", "cookietemple", "1.2.0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(run.output(), "cookietemple 1.2.0 is the latest version.") {
		t.Fatalf("unexpected output %q", run.output())
	}
	if run.confirm.asked != 0 {
		t.Fatal("check must never prompt")
	}
}

func TestCheckOutdatedSuggestsUpgrade(t *testing.T) {
	run := newTestRun(t, "1.3.0")
	if err := run.execute("check", "cookietemple", "1.2.0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := run.output()
	if !strings.Contains(out, "is outdated. Newest version is 1.3.0!") {
		t.Fatalf("missing outdated notice: %q", out)
	}
	if !strings.Contains(out, "'pypi-latest upgrade cookietemple 1.2.0'") {
		t.Fatalf("missing upgrade hint: %q", out)
	}
	if len(run.manager.upgrades) != 0 {
		t.Fatal("check must never upgrade")
	}
}

func TestCheckNonReleaseVersion(t *testing.T) {
	run := newTestRun(t, "1.3.0")
	if err := run.execute("check", "cookietemple", "dev"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.registry.calls != 0 {
		t.Fatal("registry should not be queried for a non-release version")
	}
	if !strings.Contains(run.output(), "not a release version") {
		t.Fatalf("unexpected output %q", run.output())
	}
}

func TestCheckRequiresArguments(t *testing.T) {
	run := newTestRun(t, "1.0.0")
	if err := run.execute("check", "cookietemple"); err == nil {
		t.Fatal("expected error for missing local version")
	}
}

func TestUpgradeFlow(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		run := newTestRun(t, "1.3.0")
		if err := run.execute("upgrade", "cookietemple", "1.2.0"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.confirm.asked != 1 || len(run.manager.upgrades) != 0 {
			t.Fatalf("expected one question and no upgrade, got asked=%d upgrades=%v", run.confirm.asked, run.manager.upgrades)
		}
	})

	t.Run("accepted", func(t *testing.T) {
		run := newTestRun(t, "1.3.0")
		run.confirm.answer = true
		if err := run.execute("upgrade", "cookietemple", "1.2.0"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(run.manager.upgrades) != 1 {
			t.Fatalf("expected upgrade, got %v", run.manager.upgrades)
		}
	})

	t.Run("assume yes", func(t *testing.T) {
		run := newTestRun(t, "1.3.0")
		if err := run.execute("upgrade", "--yes", "cookietemple", "1.2.0"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.confirm.asked != 0 || len(run.manager.upgrades) != 1 {
			t.Fatalf("expected silent upgrade, got asked=%d upgrades=%v", run.confirm.asked, run.manager.upgrades)
		}
	})

	t.Run("current version", func(t *testing.T) {
		run := newTestRun(t, "1.2.0")
		if err := run.execute("upgrade", "cookietemple", "1.2.0"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.confirm.asked != 0 {
			t.Fatal("up-to-date package must not prompt")
		}
	})
}

func TestUpgradeMissingPipExitsWithOne(t *testing.T) {
	run := newTestRun(t, "1.3.0")
	run.confirm.answer = true
	run.manager.probeErr = appErrors.New(appErrors.CodePackageManagerMissing, "",
		pip.ManagerError{Kind: pip.ManagerErrorNotInstalled, Bin: "pip", Err: errors.New("not found")})

	if err := run.execute("upgrade", "cookietemple", "1.2.0"); err != nil {
		t.Fatalf("exit was already requested, main should not see an error: %v", err)
	}
	if !run.exit.Called || run.exit.Code != 1 {
		t.Fatalf("expected exit 1, got %+v", run.exit)
	}
	if !strings.Contains(run.output(), "Unable to find 'pip' in the PATH. Is it installed?") {
		t.Fatalf("unexpected output %q", run.output())
	}
}

func TestSkipVersionCheck(t *testing.T) {
	run := newTestRun(t, "1.3.0")
	if err := run.execute("upgrade", "--skip-version-check", "cookietemple", "1.2.0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.registry.calls != 0 {
		t.Fatal("registry should not be queried when the check is skipped")
	}
	if run.stdout.Len() != 0 {
		t.Fatalf("expected no output, got %q", run.stdout.String())
	}
}

func TestSetupAppliesFlagOverrides(t *testing.T) {
	t.Cleanup(config.ResetForTesting(t))

	a := &app{stdout: io.Discard, stderr: io.Discard, exit: func(int) {}}
	root := newRootCmd(a)
	check, _, err := root.Find([]string{"check"})
	if err != nil {
		t.Fatalf("find check: %v", err)
	}
	if err := check.ParseFlags([]string{"--registry-host", "mirror.example.com", "--timeout", "3s", "--pip", "pip3"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	rt, err := a.setup(check)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer rt.Close()

	if rt.settings.RegistryHost != "mirror.example.com" {
		t.Errorf("RegistryHost = %q", rt.settings.RegistryHost)
	}
	if rt.settings.RegistryTimeout != 3*time.Second {
		t.Errorf("RegistryTimeout = %s", rt.settings.RegistryTimeout)
	}
	if rt.settings.PackageManager != "pip3" {
		t.Errorf("PackageManager = %q", rt.settings.PackageManager)
	}
}

func TestRegistryHostWithSchemeRejected(t *testing.T) {
	run := newTestRun(t, "1.0.0")
	err := run.execute("check", "--registry-host", "http://pypi.org", "cookietemple", "1.0.0")
	if !appErrors.IsCode(err, appErrors.CodeConfigurationError) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestForceColorStylesOutput(t *testing.T) {
	run := newTestRun(t, "1.3.0")
	if err := run.execute("check", "--force-color", "cookietemple", "1.2.0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(run.stdout.String(), "\x1b[") {
		t.Fatalf("expected ANSI styling, got %q", run.stdout.String())
	}
	if !strings.Contains(run.output(), "Newest version is 1.3.0!") {
		t.Fatalf("unexpected stripped output %q", run.output())
	}
}
