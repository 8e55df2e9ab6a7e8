package registry

import (
	"sort"
	"strings"
	"time"
)

// Channel classifies a rust toolchain build.
type Channel int

const (
	ChannelStable Channel = iota
	ChannelBeta
	ChannelNightly
)

func (c Channel) String() string {
	switch c {
	case ChannelStable:
		return "stable"
	case ChannelBeta:
		return "beta"
	case ChannelNightly:
		return "nightly"
	}
	return "unknown"
}

// ChannelVersion is a parsed rust version descriptor: the channel plus the
// channel-specific ordering key (release version for stable, build date
// for beta and nightly).
type ChannelVersion struct {
	Channel Channel
	Version Semver    // set for stable
	Date    time.Time // set for beta and nightly
}

// Key renders the ordering key used in build-info reports: the canonical
// version string for stable, an RFC 3339 UTC timestamp for beta/nightly.
func (cv ChannelVersion) Key() string {
	if cv.Channel == ChannelStable {
		return cv.Version.String()
	}
	return cv.Date.UTC().Format(time.RFC3339)
}

// ParseChannelVersion parses a rust version descriptor. Recognized shapes:
//
//	rustc 1.14.0 (e8a012324 2016-12-16)
//	rustc 1.15.0-beta.5 (10893a9a3 2017-01-19)
//	rustc 1.16.0-nightly (df8debf6d 2017-01-25)
func ParseChannelVersion(descriptor string) (ChannelVersion, error) {
	fields := strings.FieldsFunc(descriptor, func(r rune) bool {
		return r == ' ' || r == '(' || r == ')'
	})
	pieces := fields[:0]
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			pieces = append(pieces, f)
		}
	}
	if len(pieces) != 4 {
		return ChannelVersion{}, &MalformedDescriptorError{Descriptor: descriptor}
	}

	release, date := pieces[1], pieces[3]
	switch {
	case strings.Contains(release, "nightly"):
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return ChannelVersion{}, &MalformedDescriptorError{Descriptor: descriptor}
		}
		return ChannelVersion{Channel: ChannelNightly, Date: d}, nil
	case strings.Contains(release, "beta"):
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return ChannelVersion{}, &MalformedDescriptorError{Descriptor: descriptor}
		}
		return ChannelVersion{Channel: ChannelBeta, Date: d}, nil
	default:
		v, err := ParseSemver(release)
		if err != nil {
			return ChannelVersion{}, &MalformedDescriptorError{Descriptor: descriptor}
		}
		if v.Prerelease() != "" {
			return ChannelVersion{}, &ChannelError{Descriptor: descriptor}
		}
		return ChannelVersion{Channel: ChannelStable, Version: v}, nil
	}
}

// TargetResults maps a target triple to its pass/fail flag.
type TargetResults map[string]bool

// BuildInfoReport is the aggregated pass/fail matrix for one crate
// version: per channel, a map from ordering key to per-target results,
// plus the sorted ordering keys so consumers can render each channel's
// progression without re-deriving it.
type BuildInfoReport struct {
	ID       uint                     `json:"id"`
	Ordering map[string][]string      `json:"ordering"`
	Stable   map[string]TargetResults `json:"stable"`
	Beta     map[string]TargetResults `json:"beta"`
	Nightly  map[string]TargetResults `json:"nightly"`
}

// NewBuildInfoReport returns an empty report for the given version id.
func NewBuildInfoReport(versionID uint) *BuildInfoReport {
	return &BuildInfoReport{
		ID: versionID,
		Ordering: map[string][]string{
			ChannelStable.String():  {},
			ChannelBeta.String():    {},
			ChannelNightly.String(): {},
		},
		Stable:  make(map[string]TargetResults),
		Beta:    make(map[string]TargetResults),
		Nightly: make(map[string]TargetResults),
	}
}

// Add records one build result under its channel and ordering key.
func (r *BuildInfoReport) Add(cv ChannelVersion, target string, passed bool) {
	var matrix map[string]TargetResults
	switch cv.Channel {
	case ChannelStable:
		matrix = r.Stable
	case ChannelBeta:
		matrix = r.Beta
	default:
		matrix = r.Nightly
	}

	key := cv.Key()
	results, ok := matrix[key]
	if !ok {
		results = make(TargetResults)
		matrix[key] = results
		r.insertOrdered(cv, key)
	}
	results[target] = passed
}

// insertOrdered keeps the channel's ordering list sorted ascending.
// Stable keys sort by semver precedence; beta and nightly keys are RFC
// 3339 timestamps, which sort correctly as strings.
func (r *BuildInfoReport) insertOrdered(cv ChannelVersion, key string) {
	channel := cv.Channel.String()
	keys := r.Ordering[channel]
	var at int
	if cv.Channel == ChannelStable {
		at = sort.Search(len(keys), func(i int) bool {
			existing, err := ParseSemver(keys[i])
			if err != nil {
				return true
			}
			return existing.Compare(cv.Version) >= 0
		})
	} else {
		at = sort.SearchStrings(keys, key)
	}
	keys = append(keys, "")
	copy(keys[at+1:], keys[at:])
	keys[at] = key
	r.Ordering[channel] = keys
}
