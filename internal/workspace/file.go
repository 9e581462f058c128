// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/canopyhq/canopy/internal/clock"
	"github.com/canopyhq/canopy/internal/core/format"
	"github.com/canopyhq/canopy/internal/core/models"
)

// File names under the workspace dot-directory.
const (
	DefaultDir        = ".canopy"
	WorkspaceFileName = "workspace.yaml"
	StateFileName     = "state.yaml"
)

// Element is one configuration element. Common elements are shared across
// environments; Overrides carries per-environment overlays.
type Element struct {
	ID        string                            `yaml:"id"`
	Service   string                            `yaml:"service"`
	Common    bool                              `yaml:"common,omitempty"`
	Payload   map[string]interface{}            `yaml:"payload,omitempty"`
	Overrides map[string]map[string]interface{} `yaml:"overrides,omitempty"`
}

type workspaceFile struct {
	Name               string                            `yaml:"name"`
	CurrentEnvironment string                            `yaml:"current_environment"`
	Environments       []string                          `yaml:"environments"`
	Elements           []Element                         `yaml:"elements,omitempty"`
	ServiceConfigs     map[string]map[string]interface{} `yaml:"service_configs,omitempty"`
}

type serviceState struct {
	Environment string `yaml:"environment"`
	LastFetched string `yaml:"last_fetched"`
}

type stateFile struct {
	Services map[string]serviceState `yaml:"services,omitempty"`
}

// FileStore is a Store backed by YAML files under <dir>/.canopy/.
type FileStore struct {
	dir   string
	ws    workspaceFile
	state stateFile
	clk   clock.Clock
}

// Open loads the workspace under dir. The state file is optional; a missing
// one means no service has been fetched yet.
func Open(dir string) (*FileStore, error) {
	s := &FileStore{dir: dir, clk: clock.System{}}

	if err := format.ParseFile(s.workspacePath(), &s.ws); err != nil {
		return nil, fmt.Errorf("error loading workspace: %w", err)
	}

	if err := format.ParseFile(s.statePath(), &s.state); err != nil {
		if !os.IsNotExist(underlying(err)) {
			return nil, fmt.Errorf("error loading workspace state: %w", err)
		}
	}
	if s.state.Services == nil {
		s.state.Services = make(map[string]serviceState)
	}

	return s, nil
}

// SetClock overrides the clock used for state timestamps, for tests.
func (s *FileStore) SetClock(c clock.Clock) {
	s.clk = c
}

func underlying(err error) error {
	type unwrapper interface{ Unwrap() error }
	for {
		u, ok := err.(unwrapper)
		if !ok {
			return err
		}
		err = u.Unwrap()
	}
}

func (s *FileStore) workspacePath() string {
	return filepath.Join(s.dir, DefaultDir, WorkspaceFileName)
}

func (s *FileStore) statePath() string {
	return filepath.Join(s.dir, DefaultDir, StateFileName)
}

func (s *FileStore) Name() string {
	return s.ws.Name
}

func (s *FileStore) CurrentEnvironment() string {
	return s.ws.CurrentEnvironment
}

func (s *FileStore) ListEnvironments() []string {
	return append([]string(nil), s.ws.Environments...)
}

// SwitchEnvironment points the store at another declared environment for
// this invocation. The switch is persisted with the next mutation.
func (s *FileStore) SwitchEnvironment(env string) error {
	for _, known := range s.ws.Environments {
		if known == env {
			s.ws.CurrentEnvironment = env
			return nil
		}
	}
	return fmt.Errorf("unknown environment %q (declared: %v)", env, s.ws.Environments)
}

func (s *FileStore) ElementCount() int {
	return len(s.ws.Elements)
}

func (s *FileStore) HasCommonElements() bool {
	for _, el := range s.ws.Elements {
		if el.Common {
			return true
		}
	}
	return false
}

// Errors validates the in-memory workspace. Missing identity or service is
// blocking; an overlay for an environment the workspace does not declare is
// only a warning.
func (s *FileStore) Errors() []models.ValidationError {
	var errs []models.ValidationError
	known := make(map[string]bool, len(s.ws.Environments))
	for _, env := range s.ws.Environments {
		known[env] = true
	}

	seen := make(map[string]bool, len(s.ws.Elements))
	for _, el := range s.ws.Elements {
		if el.ID == "" {
			errs = append(errs, models.ValidationError{
				Message:  "element has empty id",
				Severity: models.SeverityError,
			})
			continue
		}
		if seen[el.ID] {
			errs = append(errs, models.ValidationError{
				Element:  el.ID,
				Message:  "duplicate element id",
				Severity: models.SeverityError,
			})
		}
		seen[el.ID] = true

		if el.Service == "" {
			errs = append(errs, models.ValidationError{
				Element:  el.ID,
				Message:  "element has no service",
				Severity: models.SeverityError,
			})
		}
		for env := range el.Overrides {
			if !known[env] {
				errs = append(errs, models.ValidationError{
					Element:  el.ID,
					Message:  fmt.Sprintf("overlay for undeclared environment %q", env),
					Severity: models.SeverityWarning,
				})
			}
		}
	}
	return errs
}

func (s *FileStore) HasErrors() bool {
	for _, e := range s.Errors() {
		if e.Blocking() {
			return true
		}
	}
	return false
}

// ApplyChanges mutates the workspace under the given mode and persists it.
// The returned bool reports whether the post-apply state has no blocking
// errors.
func (s *FileStore) ApplyChanges(changes []models.Change, mode models.Mode) (bool, error) {
	for _, ch := range changes {
		switch ch.Kind {
		case models.ActionAdd:
			s.addElement(ch, mode)
		case models.ActionModify:
			s.modifyElement(ch, mode)
		case models.ActionRemove:
			s.removeElement(ch, mode)
		default:
			return false, fmt.Errorf("unknown action kind %q for element %s", ch.Kind, ch.Element)
		}
	}

	if err := s.persistWorkspace(); err != nil {
		return false, err
	}
	return !s.HasErrors(), nil
}

func (s *FileStore) findElement(id string) *Element {
	for i := range s.ws.Elements {
		if s.ws.Elements[i].ID == id {
			return &s.ws.Elements[i]
		}
	}
	return nil
}

func (s *FileStore) addElement(ch models.Change, mode models.Mode) {
	if existing := s.findElement(ch.Element); existing != nil {
		// Treat a re-add as a modify of the existing element.
		s.modifyElement(ch, mode)
		return
	}

	el := Element{ID: ch.Element, Service: ch.Service}
	if mode == models.ModeIsolated {
		el.Overrides = map[string]map[string]interface{}{
			s.ws.CurrentEnvironment: ch.Payload,
		}
	} else {
		el.Payload = ch.Payload
	}
	s.ws.Elements = append(s.ws.Elements, el)
}

func (s *FileStore) modifyElement(ch models.Change, mode models.Mode) {
	el := s.findElement(ch.Element)
	if el == nil {
		s.addElement(ch, mode)
		return
	}

	switch mode {
	case models.ModeAlign:
		// The fetched version becomes the shared copy for every environment.
		el.Payload = ch.Payload
		el.Overrides = nil
		el.Common = true
	case models.ModeOverride:
		// Shadow the shared copy in the current environment only.
		if el.Overrides == nil {
			el.Overrides = make(map[string]map[string]interface{})
		}
		el.Overrides[s.ws.CurrentEnvironment] = ch.Payload
	case models.ModeIsolated:
		// Detach from the shared copy entirely.
		el.Common = false
		el.Payload = ch.Payload
	default:
		el.Payload = ch.Payload
	}
}

func (s *FileStore) removeElement(ch models.Change, mode models.Mode) {
	if mode == models.ModeOverride {
		if el := s.findElement(ch.Element); el != nil {
			delete(el.Overrides, s.ws.CurrentEnvironment)
		}
		return
	}

	for i := range s.ws.Elements {
		if s.ws.Elements[i].ID == ch.Element {
			s.ws.Elements = append(s.ws.Elements[:i], s.ws.Elements[i+1:]...)
			return
		}
	}
}

func (s *FileStore) UpdateServiceConfig(service string, config map[string]interface{}) error {
	if s.ws.ServiceConfigs == nil {
		s.ws.ServiceConfigs = make(map[string]map[string]interface{})
	}
	s.ws.ServiceConfigs[service] = config
	return s.persistWorkspace()
}

// Element returns a copy of the element with the given id, if present.
func (s *FileStore) Element(id string) (Element, bool) {
	if el := s.findElement(id); el != nil {
		return *el, true
	}
	return Element{}, false
}

// ServiceConfig returns the stored configuration for a service, if any.
func (s *FileStore) ServiceConfig(service string) (map[string]interface{}, bool) {
	cfg, ok := s.ws.ServiceConfigs[service]
	return cfg, ok
}

func (s *FileStore) UpdateStateOnly(services []string) (bool, error) {
	now := s.clk.Now().Format(time.RFC3339)
	for _, svc := range services {
		s.state.Services[svc] = serviceState{
			Environment: s.ws.CurrentEnvironment,
			LastFetched: now,
		}
	}
	if err := s.persistState(); err != nil {
		return false, err
	}
	return !s.HasErrors(), nil
}

func (s *FileStore) StateRecency(service string) models.StateRecency {
	st, ok := s.state.Services[service]
	if !ok {
		return models.RecencyNonexistent
	}
	if st.Environment != s.ws.CurrentEnvironment {
		return models.RecencyOutdated
	}
	if _, err := time.Parse(time.RFC3339, st.LastFetched); err != nil {
		return models.RecencyOutdated
	}
	return models.RecencyValid
}

func (s *FileStore) persistWorkspace() error {
	if err := format.WriteFile(s.workspacePath(), &s.ws); err != nil {
		return fmt.Errorf("error persisting workspace: %w", err)
	}
	return nil
}

func (s *FileStore) persistState() error {
	if err := format.WriteFile(s.statePath(), &s.state); err != nil {
		return fmt.Errorf("error persisting workspace state: %w", err)
	}
	return nil
}
