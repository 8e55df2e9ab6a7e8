package registry

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Semver is a validated semantic version, stored without the leading "v"
// that golang.org/x/mod/semver requires internally.
type Semver struct {
	raw string
}

// ParseSemver validates s ("1.16.0", "1.15.0-beta.5") as a full semantic
// version.
func ParseSemver(s string) (Semver, error) {
	v := "v" + strings.TrimPrefix(s, "v")
	if !semver.IsValid(v) {
		return Semver{}, fmt.Errorf("invalid semver: %s", s)
	}
	// Require all three of major.minor.patch; semver.IsValid also accepts
	// the shortened "1" and "1.2" forms that the registry rejects.
	if semver.Canonical(v) != strings.SplitN(v, "+", 2)[0] {
		return Semver{}, fmt.Errorf("invalid semver: %s", s)
	}
	return Semver{raw: strings.TrimPrefix(v, "v")}, nil
}

// String renders the version without a leading "v".
func (v Semver) String() string { return v.raw }

// Prerelease returns the pre-release suffix including the leading "-", or
// "" for a release version.
func (v Semver) Prerelease() string {
	return semver.Prerelease("v" + v.raw)
}

// Compare orders two versions per semver precedence rules.
func (v Semver) Compare(o Semver) int {
	return semver.Compare("v"+v.raw, "v"+o.raw)
}

// MaxVersion returns the highest of versions, or "0.0.0" for an empty set.
func MaxVersion(versions []Semver) Semver {
	max := Semver{raw: "0.0.0"}
	for _, v := range versions {
		if v.Compare(max) > 0 {
			max = v
		}
	}
	return max
}
