package cmd

import (
	"os"

	"github.com/smira/commander"
	"github.com/smira/flag"
)

// RootCommand builds aptprep's command tree: lock, download, and
// generate_packages_file_from_lockfile, plus version. Grounded on the
// teacher's cmd/cmd.go RootCommand.
func RootCommand() *commander.Command {
	cmd := &commander.Command{
		UsageLine: os.Args[0],
		Short:     "offline Debian repository snapshot preparer",
		Long: `
aptprep prepares a self-contained, offline-installable snapshot of a
Debian-style package repository. It resolves the transitive dependency
closure of a requested package set, records it in a reproducible
lockfile, downloads every resolved artifact with integrity verification,
and emits a local file://-consumable package index.`,
		Flag: *flag.NewFlagSet("aptprep", flag.ExitOnError),
		Subcommands: []*commander.Command{
			makeCmdLock(),
			makeCmdDownload(),
			makeCmdGeneratePackagesFileFromLockfile(),
			makeCmdVersion(),
		},
	}

	addGlobalFlags(&cmd.Flag)
	return cmd
}
