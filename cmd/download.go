package cmd

import (
	"context"
	"fmt"

	"github.com/aptprep/aptprep/config"
	"github.com/aptprep/aptprep/console"
	"github.com/aptprep/aptprep/download"
	"github.com/aptprep/aptprep/fetch"
	"github.com/aptprep/aptprep/lockfile"
	"github.com/aptprep/aptprep/repo"
	"github.com/aptprep/aptprep/utils"
	"github.com/smira/commander"
	"github.com/smira/flag"
)

func makeCmdDownload() *commander.Command {
	cmd := &commander.Command{
		Run:       aptprepDownload,
		UsageLine: "download <config.yaml> <input.lock>",
		Short:     "download every artifact named in a lockfile",
		Long: `
Reads a lockfile produced by 'aptprep lock' and downloads every entry into
the configured output directory, verifying each artifact's checksum.
Already-present files with a matching checksum are skipped.

ex:
  $ aptprep download aptprep.yaml aptprep.lock
`,
		Flag: *flag.NewFlagSet("aptprep-download", flag.ExitOnError),
	}
	return cmd
}

func aptprepDownload(cmd *commander.Command, args []string) error {
	if len(args) != 2 {
		cmd.Usage()
		return commander.ErrCommandError
	}
	configPath, lockPath := args[0], args[1]

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	lf, err := lockfile.Load(lockPath)
	if err != nil {
		return err
	}

	sources := make(map[string]*repo.Source, len(cfg.SourceRepositories))
	for _, srcCfg := range cfg.SourceRepositories {
		src, err := repo.NewSource(srcCfg)
		if err != nil {
			return fmt.Errorf("configuring source %s: %w", srcCfg.SourceURL, err)
		}
		sources[src.ID] = src
	}

	metrics, stopMetrics := startMetricsServer()
	defer stopMetrics()

	fetcher := fetch.New(fetch.DefaultOptions(), metrics)

	progress := console.NewProgress()
	progress.Start()
	defer progress.Shutdown()
	progress.InitBar(totalSize(lf))

	d := download.New(fetcher, cfg.Output.Path)
	results, err := d.DownloadAll(context.Background(), lf, sources)
	if err != nil {
		return err
	}

	skipped := 0
	var downloadedBytes int64
	for _, r := range results {
		if r.Skipped {
			skipped++
		} else {
			progress.AddBar(r.Entry.Size)
			downloadedBytes += r.Entry.Size
		}
	}

	progress.ShutdownBar()
	progress.Printf("Downloaded %d artifacts (%s) (%d already present) into %s\n",
		len(results)-skipped, utils.HumanBytes(downloadedBytes), skipped, cfg.Output.Path)
	return nil
}

func totalSize(lf *lockfile.Lockfile) int64 {
	var total int64
	for _, e := range lf.Entries {
		total += e.Size
	}
	return total
}
