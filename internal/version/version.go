// Package version records the build metadata stamped into the jls
// binary via -ldflags.
package version

import (
	"strings"

	"github.com/fatih/color"
)

var (
	// Number is the semantic version of the build.
	Number = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var segmentColors = []*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Colorized renders Number with the major, minor, and patch segments
// highlighted for terminal output. With colors disabled it is exactly
// Number.
func Colorized() string {
	parts := strings.SplitN(Number, ".", 3)
	for i := range parts {
		if i < len(segmentColors) {
			parts[i] = segmentColors[i].Sprint(parts[i])
		}
	}
	return strings.Join(parts, ".")
}
