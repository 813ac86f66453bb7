// Package cmd wires aptprep's commander.Command subcommands (lock,
// download, generate_packages_file_from_lockfile) to the rest of the
// module. Grounded on cmd/cmd.go, cmd/run.go, and context/context.go's
// FatalError/Fatal panic-recover shape and global flag plumbing.
package cmd

import (
	"net/http"
	"os"

	"github.com/aptprep/aptprep/fetch"
	"github.com/aptprep/aptprep/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/smira/commander"
	"github.com/smira/flag"
)

// FatalError aborts execution with a non-zero exit code and a
// human-readable message, in the same panic/recover shape as
// context.FatalError.
type FatalError struct {
	ReturnCode int
	Message    string
}

// Fatal panics with a FatalError, caught and turned into a process exit
// code by Run.
func Fatal(err error) {
	returnCode := 1
	if err == commander.ErrFlagError || err == commander.ErrCommandError {
		returnCode = 2
	}
	panic(&FatalError{ReturnCode: returnCode, Message: err.Error()})
}

// verboseFlag counts repeated -v/--verbose occurrences, the same way
// cmd/mirror.go's keyRingsFlag accumulates repeated --keyring flags via
// flag.Value.
type verboseFlag struct {
	count int
}

func (v *verboseFlag) Set(string) error {
	v.count++
	return nil
}

func (v *verboseFlag) Get() interface{} { return v.count }

func (v *verboseFlag) String() string { return "" }

func (v *verboseFlag) IsBoolFlag() bool { return true }

var verbosity verboseFlag

// globalFlags holds the merged flag set produced by commander.Command's
// ParseFlags at Run time, so subcommand handlers can read global flags
// (--metrics-addr, --verbose) that live on the root command rather than
// their own local flag set. Mirrors context.UpdateFlags.
var globalFlags *flag.FlagSet

func updateGlobalFlags(f *flag.FlagSet) {
	globalFlags = f
}

// addGlobalFlags attaches the flags shared by every subcommand: repeatable
// -v/--verbose, --json-log, and --metrics-addr.
func addGlobalFlags(fs *flag.FlagSet) {
	fs.Var(&verbosity, "verbose", "increase logging verbosity (repeatable)")
	fs.Bool("json-log", false, "emit structured JSON log records instead of console output")
	fs.String("metrics-addr", "", "if set, serve Prometheus metrics on this address for the command's duration")
}

func setupLogging(flags *flag.FlagSet) {
	jsonLog := flags.Lookup("json-log").Value.Get().(bool)
	logging.Setup(verbosity.count, jsonLog, os.Stderr)
}

// startMetricsServer starts a background Prometheus metrics listener when
// --metrics-addr is set, returning the fetch.Metrics sink to pass to
// fetch.New (nil when disabled) and a shutdown func.
func startMetricsServer() (*fetch.Metrics, func()) {
	addr := globalFlags.Lookup("metrics-addr").Value.String()
	if addr == "" {
		return nil, func() {}
	}

	reg := prometheus.NewRegistry()
	metrics := fetch.NewMetrics(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()

	return metrics, func() { _ = server.Close() }
}
