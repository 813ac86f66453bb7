// Package aptlyerrors defines the typed error kinds shared across aptprep's
// pipeline stages, each carrying enough context (URL, package, field) to
// diagnose a failure without rerunning at higher verbosity.
package aptlyerrors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ConfigError wraps a problem in a loaded YAML configuration: a missing
// required field, a malformed version constraint, or similar.
type ConfigError struct {
	Path  string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config %s: field %s: %s", e.Path, e.Field, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError wraps err as a ConfigError, attaching file and field context.
func NewConfigError(path, field string, err error) error {
	return &ConfigError{Path: path, Field: field, Err: errors.WithStack(err)}
}

// FetchError wraps a network/transport failure, a terminal 4xx response, or
// a timeout encountered while retrieving a URL.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %s", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError wraps err as a FetchError for url, optionally carrying the
// response status code (0 when the failure occurred before a response, e.g.
// a connection refusal or timeout).
func NewFetchError(url string, statusCode int, err error) error {
	return &FetchError{URL: url, StatusCode: statusCode, Err: errors.WithStack(err)}
}

// ParseError wraps a malformed Release/Packages stanza or Debian version
// string.
type ParseError struct {
	Source string // e.g. URL or file path of the stanza stream
	Field  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("parse %s: field %s: %s", e.Source, e.Field, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError wraps err as a ParseError.
func NewParseError(source, field string, err error) error {
	return &ParseError{Source: source, Field: field, Err: errors.WithStack(err)}
}

// ResolutionError reports that no solution exists for a requested package
// set. Derivation holds the human-readable explanation, one line per
// failed search step (an unsatisfiable clause or a rejected conflicting
// candidate), in the order they were recorded.
type ResolutionError struct {
	Architecture string
	Derivation   []string
}

func (e *ResolutionError) Error() string {
	if len(e.Derivation) == 0 {
		return fmt.Sprintf("resolution failed for architecture %s", e.Architecture)
	}
	return fmt.Sprintf("resolution failed for architecture %s:\n  %s",
		e.Architecture, strings.Join(e.Derivation, "\n  "))
}

// NewResolutionError constructs a ResolutionError carrying its derivation
// trail.
func NewResolutionError(architecture string, derivation []string) error {
	return &ResolutionError{Architecture: architecture, Derivation: derivation}
}

// IntegrityError reports a size or checksum mismatch on a downloaded
// artifact. It is always terminal for that artifact.
type IntegrityError struct {
	Package       string
	Version       string
	Path          string
	Expected, Got string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for %s %s at %s: expected %s, got %s",
		e.Package, e.Version, e.Path, e.Expected, e.Got)
}

// NewIntegrityError constructs an IntegrityError.
func NewIntegrityError(pkg, version, path, expected, got string) error {
	return &IntegrityError{Package: pkg, Version: version, Path: path, Expected: expected, Got: got}
}

// IOError wraps a local filesystem failure (permission, disk full, missing
// directory) that isn't better described by one of the other kinds.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io %s: %s", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIOError wraps err as an IOError.
func NewIOError(path string, err error) error {
	return &IOError{Path: path, Err: errors.WithStack(err)}
}
