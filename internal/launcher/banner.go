package launcher

import (
	"fmt"
	"io"
	"strings"
)

const gnuFormatFlag = "--gnu_format"

// IsVersionCommand reports whether the first non-flag argument is "version".
func IsVersionCommand(args []string) bool {
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		return arg == "version"
	}
	return false
}

// PrintVersionBanner writes the launcher's own version line in the format the
// version command will use.
func PrintVersionBanner(w io.Writer, args []string, launcherVersion string) {
	for _, arg := range args {
		if arg == gnuFormatFlag {
			fmt.Fprintf(w, "Baton %s\n", launcherVersion)
			return
		}
	}
	fmt.Fprintf(w, "Baton version: %s\n", launcherVersion)
}
