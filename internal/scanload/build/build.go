// Package build holds build information set at link time, e.g.,
// -ldflags "-X github.com/G-Research/scanload/internal/scanload/build.ReleaseVersion=v0.1.0".
package build

import (
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"
)

var (
	ReleaseVersion = "UNKNOWN"
	GitCommit      = "UNKNOWN"
	GoVersion      = runtime.Version()
	BuildTime      = "UNKNOWN"
)

// PrintVersion writes build information to out.
func PrintVersion(out io.Writer) error {
	w := tabwriter.NewWriter(out, 1, 1, 1, ' ', 0)
	fmt.Fprintf(w, "Version:\t%s\n", ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", BuildTime)
	return w.Flush()
}
