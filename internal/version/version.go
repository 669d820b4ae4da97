// Package version reports the supportdesk build version.
package version

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Version is set at build time via -ldflags.
var Version = "0.1.0"

// String returns a one-line description of the running binary.
func String() string {
	return fmt.Sprintf("supportdesk %s (%s %s/%s)", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Compare compares two dotted versions. It returns -1 if a < b, 0 if equal,
// and 1 if a > b. A leading "v" and any pre-release suffix are ignored.
func Compare(a, b string) int {
	pa, pb := parse(a), parse(b)
	for i := 0; i < 3; i++ {
		switch {
		case pa[i] < pb[i]:
			return -1
		case pa[i] > pb[i]:
			return 1
		}
	}
	return 0
}

func parse(v string) [3]int {
	v = strings.TrimPrefix(v, "v")
	if idx := strings.IndexAny(v, "-+"); idx >= 0 {
		v = v[:idx]
	}
	var out [3]int
	for i, part := range strings.SplitN(v, ".", 3) {
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		out[i] = n
	}
	return out
}
