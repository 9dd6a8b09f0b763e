package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildInfo identifies the running binary.
type buildInfo struct {
	Version  string
	Commit   string
	Date     string
	Modified bool
}

// currentBuild prefers linker-injected values and falls back to what the Go
// toolchain embedded, so `go install` builds still report something useful.
func currentBuild() buildInfo {
	b := buildInfo{Version: version, Commit: commit, Date: date}
	if info, ok := debug.ReadBuildInfo(); ok {
		b = b.fill(info)
	}
	if b.Version == "" {
		b.Version = "dev"
	}
	return b
}

func (b buildInfo) fill(info *debug.BuildInfo) buildInfo {
	if b.Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = strings.TrimPrefix(info.Main.Version, "v")
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.Date == "" {
				b.Date = s.Value
			}
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b
}

func (b buildInfo) String() string {
	var details []string
	if b.Commit != "" {
		details = append(details, shortCommit(b.Commit))
	}
	if b.Date != "" {
		details = append(details, b.Date)
	}
	if b.Modified {
		details = append(details, "modified")
	}

	line := "pypi-latest version " + b.Version
	if len(details) > 0 {
		line += " (" + strings.Join(details, ", ") + ")"
	}
	return line
}

func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}

func printVersion(w io.Writer) {
	_, _ = fmt.Fprintln(w, currentBuild())
	_, _ = fmt.Fprintf(w, "%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
