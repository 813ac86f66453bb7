// Package config loads aptprep's YAML configuration into typed structs. It
// is the sole place YAML is parsed; every downstream package consumes plain
// Go values, following the same config/value boundary that
// utils.ConfigStructure / utils.LoadConfig draw.
package config

import (
	"fmt"
	"os"

	"github.com/aptprep/aptprep/aptlyerrors"
	"github.com/aptprep/aptprep/debver"
	"github.com/aptprep/aptprep/utils"
	"gopkg.in/yaml.v3"
)

// SourceRepository describes one upstream repository to fetch indexes from.
type SourceRepository struct {
	SourceURL        string   `yaml:"source_url"`
	Architectures    []string `yaml:"architectures"`
	Distributions    []string `yaml:"distributions"`
	DistributionPath string   `yaml:"distribution_path,omitempty"`
	Components       []string `yaml:"components,omitempty"`
}

// Output describes where downloaded artifacts and the local index land.
type Output struct {
	Path                 string   `yaml:"path"`
	TargetArchitectures  []string `yaml:"target_architectures"`
}

// Config is the parsed, validated representation of an aptprep YAML file.
type Config struct {
	Output             Output             `yaml:"output"`
	SourceRepositories []SourceRepository `yaml:"source_repositories"`
	Packages           []string           `yaml:"packages"`
}

// PackageRequest is a single root package/([constraint]) entry, as parsed
// from Config.Packages.
type PackageRequest struct {
	Name       string
	Constraint debver.Constraint
}

// Load reads and validates a YAML configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, aptlyerrors.NewConfigError(path, "", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, aptlyerrors.NewConfigError(path, "", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, aptlyerrors.NewConfigError(path, "", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Output.TargetArchitectures) == 0 {
		return fmt.Errorf("output.target_architectures is required and must be non-empty")
	}
	if len(c.SourceRepositories) == 0 {
		return fmt.Errorf("source_repositories must contain at least one entry")
	}

	advertised := make(map[string]struct{})

	for i, src := range c.SourceRepositories {
		if src.SourceURL == "" {
			return fmt.Errorf("source_repositories[%d].source_url is required", i)
		}
		if len(src.Architectures) == 0 {
			return fmt.Errorf("source_repositories[%d].architectures is required and must be non-empty", i)
		}
		if len(src.Components) == 0 {
			c.SourceRepositories[i].Components = []string{"main"}
		}

		// A user can list the same distribution or component twice (a copy-paste
		// slip in the YAML); collapse duplicates so downstream code that keys
		// off these lists, like repo.NewSource's source ID derivation, doesn't
		// fetch the same distribution twice under one Source.
		c.SourceRepositories[i].Distributions = utils.StrSliceDeduplicate(src.Distributions)
		c.SourceRepositories[i].Components = utils.StrSliceDeduplicate(c.SourceRepositories[i].Components)

		for _, arch := range src.Architectures {
			advertised[arch] = struct{}{}
		}
	}

	allArchitectures := utils.SortedStringKeys(advertised)
	if err := utils.StringsIsSubset(c.Output.TargetArchitectures, allArchitectures,
		"output.target_architectures names %q, which no source_repositories entry advertises"); err != nil {
		return err
	}

	if len(c.Packages) == 0 {
		return fmt.Errorf("packages must list at least one requested package")
	}

	if _, err := c.PackageRequests(); err != nil {
		return err
	}

	return nil
}

// PackageRequests parses Config.Packages into structured requests, using
// the same "name" / "name (OP version)" grammar as a dependency alternative.
func (c *Config) PackageRequests() ([]PackageRequest, error) {
	requests := make([]PackageRequest, 0, len(c.Packages))

	for _, raw := range c.Packages {
		alt, err := debver.ParseAlternative(raw)
		if err != nil {
			return nil, fmt.Errorf("packages entry %q: %w", raw, err)
		}
		requests = append(requests, PackageRequest{Name: alt.Package, Constraint: alt.Constraint})
	}

	return requests, nil
}
