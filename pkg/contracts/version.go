// Package contracts holds the types and constants shared between the
// executables and the canonical output consumers.
package contracts

import (
	"fmt"
	"runtime"
)

// Version is the application version, overridden at release time.
const Version = "0.3.0"

// DataFormatVersion tags the canonical output layout. Consumers of the
// securities and transactions workbooks pin against this.
const DataFormatVersion = "v1"

// Set during build using ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionString returns the one-line version banner.
func VersionString() string {
	return fmt.Sprintf("bankfeed v%s (data format %s, built %s, commit %s, %s %s/%s)",
		Version, DataFormatVersion, BuildTime, GitCommit,
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
