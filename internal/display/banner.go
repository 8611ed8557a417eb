package display

import (
	"fmt"
	"io"
)

const bannerArt = `     _          _       _                   _
 ___| |__  _ __(_)_ __ | | ____      _____| |__  _ __ ___
/ __| '_ \| '__| | '_ \| |/ /\ \ /\ / / _ \ '_ \| '_ ` + "`" + ` _ \
\__ \ | | | |  | | | | |   <  \ V  V /  __/ |_) | | | | | |
|___/_| |_|_|  |_|_| |_|_|\_\  \_/\_/ \___|_.__/|_| |_| |_|
`

// PrintBanner writes the ASCII art banner and version to w, in bright
// magenta when color is set.
func PrintBanner(w io.Writer, color bool, version string) {
	if color {
		fmt.Fprint(w, "\033[1;95m")
	}
	fmt.Fprint(w, bannerArt)
	if color {
		fmt.Fprint(w, "\033[0m")
	}
	fmt.Fprintf(w, "  v%s\n\n", version)
}
