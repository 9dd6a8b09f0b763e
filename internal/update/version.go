package update

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SnapshotSuffix marks locally built development versions.
const SnapshotSuffix = "-SNAPSHOT"

// Identity names the installed package and its version. It is immutable
// once built.
type Identity struct {
	name         string
	localVersion string
}

// NewIdentity validates and builds an Identity.
func NewIdentity(name, localVersion string) (Identity, error) {
	name = strings.TrimSpace(name)
	localVersion = strings.TrimSpace(localVersion)
	if name == "" {
		return Identity{}, fmt.Errorf("package name is required")
	}
	if localVersion == "" {
		return Identity{}, fmt.Errorf("local version of %s is required", name)
	}
	return Identity{name: name, localVersion: localVersion}, nil
}

// Name returns the package name.
func (id Identity) Name() string { return id.name }

// LocalVersion returns the installed version exactly as given.
func (id Identity) LocalVersion() string { return id.localVersion }

// StripSnapshot removes a trailing -SNAPSHOT marker.
func StripSnapshot(v string) string {
	return strings.TrimSuffix(v, SnapshotSuffix)
}

// ParseVersion parses a version for comparison. A -SNAPSHOT suffix is
// ignored and a leading 'v' is accepted.
func ParseVersion(s string) (*semver.Version, error) {
	s = StripSnapshot(strings.TrimSpace(s))
	if s == "" {
		return nil, fmt.Errorf("empty version string")
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid version format %q: %w", s, err)
	}
	return v, nil
}
