package console

import (
	"os"

	"github.com/mattn/go-isatty"
)

// RunningOnTerminal checks whether stdout is a terminal, used to decide
// whether the download progress bar and colored status lines should render.
func RunningOnTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}
