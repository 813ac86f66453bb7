package cmd

import (
	"context"
	"fmt"

	"github.com/aptprep/aptprep/candidate"
	"github.com/aptprep/aptprep/config"
	"github.com/aptprep/aptprep/console"
	"github.com/aptprep/aptprep/control"
	"github.com/aptprep/aptprep/fetch"
	"github.com/aptprep/aptprep/lockfile"
	"github.com/aptprep/aptprep/repo"
	"github.com/aptprep/aptprep/resolve"
	"github.com/smira/commander"
	"github.com/smira/flag"
	"golang.org/x/sync/errgroup"
)

func makeCmdLock() *commander.Command {
	cmd := &commander.Command{
		Run:       aptprepLock,
		UsageLine: "lock <config.yaml> <output.lock>",
		Short:     "resolve the configured package set and write a lockfile",
		Long: `
Reads a YAML configuration, fetches Release/Packages indexes from every
configured source repository, resolves the transitive dependency closure
of the requested packages for each target architecture, and writes the
result as a reproducible lockfile.

ex:
  $ aptprep lock aptprep.yaml aptprep.lock
`,
		Flag: *flag.NewFlagSet("aptprep-lock", flag.ExitOnError),
	}
	return cmd
}

func aptprepLock(cmd *commander.Command, args []string) error {
	if len(args) != 2 {
		cmd.Usage()
		return commander.ErrCommandError
	}
	configPath, lockPath := args[0], args[1]

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	requests, err := cfg.PackageRequests()
	if err != nil {
		return err
	}
	requirements := make([]resolve.Requirement, 0, len(requests))
	for _, r := range requests {
		requirements = append(requirements, resolve.Requirement{Name: r.Name, Constraint: r.Constraint})
	}

	metrics, stopMetrics := startMetricsServer()
	defer stopMetrics()

	fetcher := fetch.New(fetch.DefaultOptions(), metrics)

	progress := console.NewProgress()
	progress.Start()
	defer progress.Shutdown()

	ctx := context.Background()

	universes := make(map[string]*candidate.Universe)

	for _, srcCfg := range cfg.SourceRepositories {
		src, err := repo.NewSource(srcCfg)
		if err != nil {
			return fmt.Errorf("configuring source %s: %w", srcCfg.SourceURL, err)
		}

		for _, architecture := range src.Architectures {
			if !wantsArchitecture(cfg.Output.TargetArchitectures, architecture) {
				continue
			}

			progress.Printf("Fetching %s (%s)...\n", src.BaseURL, architecture)

			u, err := fetchSourceUniverse(ctx, fetcher, src, architecture)
			if err != nil {
				return err
			}

			if existing, ok := universes[architecture]; ok {
				if err := existing.Merge(u); err != nil {
					return err
				}
			} else {
				universes[architecture] = u
			}
		}
	}

	perArch := make(map[string][]*candidate.Package)
	for _, architecture := range cfg.Output.TargetArchitectures {
		universe, ok := universes[architecture]
		if !ok {
			return fmt.Errorf("no source repository advertises architecture %s", architecture)
		}

		progress.Printf("Resolving dependencies for %s...\n", architecture)
		solution, err := resolve.Solve(universe, requirements)
		if err != nil {
			return err
		}
		perArch[architecture] = solution.Packages()
	}

	lf := lockfile.New(perArch)
	if err := lockfile.Write(lockPath, lf); err != nil {
		return err
	}

	progress.Printf("Wrote %d package entries to %s\n", len(lf.Entries), lockPath)
	return nil
}

// fetchSourceUniverse fetches every (distribution, component) Packages file
// src advertises for architecture and folds them into one Universe. One
// producer goroutine fetches every distribution/component in turn, and it
// runs concurrently with the universe-building consumer, the two decoupled
// by a bounded control.StanzaStream per the concurrency model's
// fetch/parse backpressure requirement.
func fetchSourceUniverse(ctx context.Context, fetcher *fetch.Fetcher, src *repo.Source, architecture string) (*candidate.Universe, error) {
	stream := control.NewStanzaStream(control.DefaultStreamBuffer)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer stream.Close()

		for _, distribution := range src.Distributions {
			release, err := repo.FetchRelease(gctx, fetcher, src, distribution)
			if err != nil {
				return err
			}

			for _, component := range src.Components {
				stanzas, err := repo.FetchPackages(gctx, fetcher, src, release, distribution, component, architecture)
				if err != nil {
					return err
				}
				if err := stream.SendAll(gctx, stanzas); err != nil {
					return err
				}
			}
		}
		return nil
	})

	var universe *candidate.Universe
	g.Go(func() error {
		u, err := candidate.NewUniverseFromStream(gctx, architecture, stream, src.ID)
		if err != nil {
			return err
		}
		universe = u
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return universe, nil
}

func wantsArchitecture(targets []string, architecture string) bool {
	for _, t := range targets {
		if t == architecture {
			return true
		}
	}
	return false
}
