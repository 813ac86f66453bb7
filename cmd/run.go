package cmd

import (
	"fmt"

	"github.com/smira/commander"
)

// Run parses cmdArgs against cmd's flag tree and dispatches, converting a
// panicked FatalError into a process return code, the same recover shape
// as cmd/run.go's Run.
func Run(cmd *commander.Command, cmdArgs []string) (returnCode int) {
	defer func() {
		if r := recover(); r != nil {
			fatal, ok := r.(*FatalError)
			if !ok {
				panic(r)
			}
			fmt.Println("ERROR:", fatal.Message)
			returnCode = fatal.ReturnCode
		}
	}()

	flags, args, err := cmd.ParseFlags(cmdArgs)
	if err != nil {
		Fatal(err)
	}

	updateGlobalFlags(flags)
	setupLogging(flags)

	if err := cmd.Dispatch(args); err != nil {
		Fatal(err)
	}

	return 0
}
