// Package potluck is a rich-text editing toolkit: a terminal editor bound to
// an event-emitting document engine, background attachment uploads, and a
// sanitizing renderer for the HTML the editor produces.
package potluck

import (
	_ "embed"
	"regexp"
	"strings"
)

//go:embed VERSION
var version string

var semver = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?(?:\+[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?$`)

// Version is the release version, without a leading "v".
func Version() string { return strings.TrimSpace(version) }

// UserAgent identifies potluck on outgoing HTTP requests.
func UserAgent() string { return "potluck/" + Version() }

// ValidVersion reports whether v is a SemVer 2.0.0 string.
func ValidVersion(v string) bool { return semver.MatchString(v) }
