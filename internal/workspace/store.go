// SPDX-License-Identifier: Apache-2.0

// Package workspace is the persistent configuration store: elements,
// per-environment overlays, service configuration and per-service state
// metadata, kept on disk under the workspace dot-directory.
package workspace

import "github.com/canopyhq/canopy/internal/core/models"

// Store is the orchestrator's view of the persistent configuration store.
// A Store is mutated at most once per command invocation.
type Store interface {
	// Name returns the workspace name used to tag telemetry.
	Name() string

	// HasErrors reports whether the store currently has blocking errors.
	HasErrors() bool

	// Errors returns all current validation findings, warnings included.
	Errors() []models.ValidationError

	// ApplyChanges commits an approved change-set under the given mode and
	// reports whether the post-apply state is free of blocking errors.
	ApplyChanges(changes []models.Change, mode models.Mode) (bool, error)

	// UpdateServiceConfig writes back an updated service configuration.
	UpdateServiceConfig(service string, config map[string]interface{}) error

	// UpdateStateOnly refreshes environment-local state metadata for the
	// given services without touching any element. It reports whether the
	// update left the store error-free.
	UpdateStateOnly(services []string) (bool, error)

	// CurrentEnvironment returns the environment this workspace points at.
	CurrentEnvironment() string

	// ListEnvironments returns all environments the workspace knows about.
	ListEnvironments() []string

	// HasCommonElements reports whether any element is shared across
	// environments.
	HasCommonElements() bool

	// StateRecency classifies how fresh the persisted state is for a service.
	StateRecency(service string) models.StateRecency

	// ElementCount returns the total number of elements, for size telemetry.
	ElementCount() int
}
