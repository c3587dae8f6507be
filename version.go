package ats

import (
	"fmt"
	"runtime/debug"
)

// Version is set at build time via -ldflags "-X
// 'github.com/dickinsaudio/ats-go.Version=X'", mirroring the teacher's
// SAMOYED_VERSION convention.
var Version string

const (
	versionMajor = 1
	versionMinor = 0
	versionPatch = 0
)

// VersionMajor, VersionMinor and VersionPatch report the compiled-in
// semantic version.
func VersionMajor() uint { return versionMajor }
func VersionMinor() uint { return versionMinor }
func VersionPatch() uint { return versionPatch }

func buildSetting(bi *debug.BuildInfo, key, fallback string) string {
	if bi == nil {
		return fallback
	}
	for _, s := range bi.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return fallback
}

// VersionHash returns the VCS revision ats-go was built from, or
// "unknown" outside a module build.
func VersionHash() string {
	bi, _ := debug.ReadBuildInfo()
	hash := buildSetting(bi, "vcs.revision", "unknown")
	if buildSetting(bi, "vcs.modified", "false") == "true" {
		hash += "-dirty"
	}
	return hash
}

// VersionSuffix reports Version, or "dev" when unset (a non-release
// build).
func VersionSuffix() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// VersionFull formats the full human-readable version string reported
// by cmd/atsdemo --version, modelled on the teacher's printVersion.
func VersionFull() string {
	return fmt.Sprintf("ats-go %d.%d.%d-%s (%s)",
		versionMajor, versionMinor, versionPatch, VersionSuffix(), VersionHash())
}
