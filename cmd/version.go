package cmd

import (
	"fmt"

	"github.com/smira/commander"
	"github.com/smira/flag"
)

// Version is aptprep's release version, stamped manually at tag time.
const Version = "0.1.0"

func aptprepVersion(cmd *commander.Command, args []string) error {
	fmt.Printf("aptprep version: %s\n", Version)
	return nil
}

func makeCmdVersion() *commander.Command {
	return &commander.Command{
		Run:       aptprepVersion,
		UsageLine: "version",
		Short:     "display version",
		Long: `
Shows aptprep version.

ex:
  $ aptprep version
`,
		Flag: *flag.NewFlagSet("aptprep-version", flag.ExitOnError),
	}
}
