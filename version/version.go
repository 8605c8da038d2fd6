// Package version reports the build of the ipld binary. The variables are
// set at link time with -ldflags "-X".
package version

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
)

var (
	mainpkg  = "github.com/distribution/ipld"
	version  = ""
	revision = ""
)

// Package returns the import path the binary was built from.
func Package() string {
	return mainpkg
}

// Version returns the release the binary was built from. Without a link
// time value it falls back to the module version recorded by the go tool,
// then to "(devel)".
func Version() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// Revision returns the VCS revision, if known.
func Revision() string {
	if revision != "" {
		return revision
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return ""
}

// FprintVersion writes "<cmd> <package> <version> [revision]" to w.
func FprintVersion(w io.Writer) {
	if rev := Revision(); rev != "" {
		fmt.Fprintln(w, os.Args[0], Package(), Version(), rev)
		return
	}
	fmt.Fprintln(w, os.Args[0], Package(), Version())
}

// PrintVersion writes the version to stdout.
func PrintVersion() {
	FprintVersion(os.Stdout)
}
