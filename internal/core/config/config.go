// SPDX-License-Identifier: Apache-2.0

// Package config loads canopy's own configuration: the workspace dot-
// directory layout and the user-level service profiles that name the
// services a command may target.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default locations.
const (
	DefaultConfigDir        = ".canopy"
	DefaultProfilesFileName = "profiles.toml"
)

// ServiceProfile describes one managed service a workspace can talk to.
type ServiceProfile struct {
	Endpoint    string `toml:"endpoint"`
	Environment string `toml:"environment"`
	Timeout     string `toml:"timeout"`
}

// Profiles is the parsed user-level profiles file.
type Profiles struct {
	Services map[string]ServiceProfile `toml:"services"`
}

// ProfilesPath returns the profiles file location inside the workspace
// dot-directory, honoring the CANOPY_PROFILES override.
func ProfilesPath(dir string) string {
	if override := os.Getenv("CANOPY_PROFILES"); override != "" {
		return override
	}
	return filepath.Join(dir, DefaultConfigDir, DefaultProfilesFileName)
}

// LoadProfiles reads and validates a profiles file.
func LoadProfiles(path string) (*Profiles, error) {
	var p Profiles
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return nil, fmt.Errorf("error loading profiles: %w", err)
	}

	for name, svc := range p.Services {
		if strings.TrimSpace(svc.Endpoint) == "" {
			return nil, fmt.Errorf("profile %q has no endpoint", name)
		}
		if svc.Timeout != "" {
			if _, err := time.ParseDuration(svc.Timeout); err != nil {
				return nil, fmt.Errorf("profile %q: invalid timeout: %w", name, err)
			}
		}
	}
	return &p, nil
}

// ServiceNames returns all profiled service names, sorted.
func (p *Profiles) ServiceNames() []string {
	names := make([]string, 0, len(p.Services))
	for name := range p.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve validates a requested service list against the profiles. An empty
// request selects every profiled service.
func (p *Profiles) Resolve(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return p.ServiceNames(), nil
	}
	for _, name := range requested {
		if _, ok := p.Services[name]; !ok {
			return nil, fmt.Errorf("unknown service %q (profiled: %s)", name, strings.Join(p.ServiceNames(), ", "))
		}
	}
	return requested, nil
}
