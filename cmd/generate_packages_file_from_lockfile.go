package cmd

import (
	"fmt"

	"github.com/aptprep/aptprep/localindex"
	"github.com/smira/commander"
	"github.com/smira/flag"
)

func makeCmdGeneratePackagesFileFromLockfile() *commander.Command {
	cmd := &commander.Command{
		Run:       aptprepGeneratePackagesFile,
		UsageLine: "generate_packages_file_from_lockfile <downloaded-dir>",
		Short:     "emit a local Packages index over a downloaded artifact tree",
		Long: `
Walks a directory previously populated by 'aptprep download' and writes a
Packages index describing every .deb found there, so the directory can be
served as a self-contained, offline-installable repository.

ex:
  $ aptprep generate_packages_file_from_lockfile ./out
`,
		Flag: *flag.NewFlagSet("aptprep-generate-packages-file-from-lockfile", flag.ExitOnError),
	}
	return cmd
}

func aptprepGeneratePackagesFile(cmd *commander.Command, args []string) error {
	if len(args) != 1 {
		cmd.Usage()
		return commander.ErrCommandError
	}

	outputDir := args[0]
	if err := localindex.Generate(outputDir); err != nil {
		return err
	}

	fmt.Printf("Wrote %s/Packages\n", outputDir)
	return nil
}
