// SPDX-License-Identifier: Apache-2.0

// Package engine is the boundary to the external planning/diffing engine.
// The orchestrator only consumes this interface; computing diffs and merging
// sources of truth happen on the far side of it.
package engine

import (
	"github.com/canopyhq/canopy/internal/core/models"
	"github.com/canopyhq/canopy/internal/workspace"
)

// Status is the lifecycle phase of one plan item during an apply.
type Status string

const (
	StatusStarted   Status = "started"
	StatusFinished  Status = "finished"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// StatusEvent is one progress callback for an in-flight apply. Key is the
// item's group key; items without one never produce events. Parent is set
// only on cancellation and names the failed item that caused it.
type StatusEvent struct {
	Key    string
	Status Status
	Item   models.PlanItem
	Detail string
	Parent string
}

// StatusFunc receives apply progress callbacks. All events for one apply
// arrive on the same logical sequence; no reentrancy.
type StatusFunc func(StatusEvent)

// ProgressPhase is the lifecycle of one fetch step.
type ProgressPhase int

const (
	PhaseBegin ProgressPhase = iota
	PhaseDone
	PhaseFailed
)

// ProgressEvent is one fetch-side step notification ("will fetch <service>",
// "will calculate diff") with begin/done/fail sub-events.
type ProgressEvent struct {
	Step   string
	Phase  ProgressPhase
	Detail string
}

// ProgressFunc receives fetch progress events.
type ProgressFunc func(ProgressEvent)

// Engine is the external planning/diffing/merging engine.
type Engine interface {
	// Preview computes a plan of intended changes for the given services.
	Preview(store workspace.Store, services []string) (*models.Plan, error)

	// Fetch pulls remote changes, reporting per-adapter progress. It returns
	// a result even when the fetch itself failed; an error means the call
	// could not run at all.
	Fetch(store workspace.Store, progress ProgressFunc, services []string) (*models.FetchResult, error)

	// Deploy applies a plan, streaming per-item status callbacks. It returns
	// a result even on partial failure; an error means setup failed before
	// any item ran.
	Deploy(store workspace.Store, plan *models.Plan, status StatusFunc, services []string) (*models.DeployResult, error)
}
