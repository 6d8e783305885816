// Package version provides release and schema version information.
package version

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the current released version.
var Version = "0.4.2"

// DevVersion is the current development version.
var DevVersion = "0.4.2"

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}

// GetMinorVersion returns the "major.minor" prefix of a version string.
// Migration directories are grouped by minor version.
func GetMinorVersion(version string) string {
	versionList := strings.Split(version, ".")
	if len(versionList) < 3 {
		return ""
	}
	return versionList[0] + "." + versionList[1]
}

// GetSchemaVersion returns the schema version for the current release.
// The patch component is always 0: schema only changes on minor releases.
func GetSchemaVersion(mode string) string {
	minorVersion := GetMinorVersion(GetCurrentVersion(mode))
	if minorVersion == "" {
		return ""
	}
	return minorVersion + ".0"
}

// IsVersionGreaterOrEqualThan returns true if version >= target.
func IsVersionGreaterOrEqualThan(version, target string) bool {
	return semver.Compare(fmt.Sprintf("v%s", version), fmt.Sprintf("v%s", target)) > -1
}

// IsVersionGreaterThan returns true if version > target.
func IsVersionGreaterThan(version, target string) bool {
	return semver.Compare(fmt.Sprintf("v%s", version), fmt.Sprintf("v%s", target)) > 0
}
