// SPDX-License-Identifier: Apache-2.0

// Package fetch gates an externally fetched change-set: it filters the
// changes down to an approved subset, writes back service configuration,
// aligns environment state, and commits through the apply safety check.
package fetch

import (
	"fmt"

	"github.com/canopyhq/canopy/internal/canopy"
	"github.com/canopyhq/canopy/internal/canopy/condition"
	"github.com/canopyhq/canopy/internal/core/models"
	"github.com/canopyhq/canopy/internal/core/schema"
	"github.com/canopyhq/canopy/internal/engine"
	"github.com/canopyhq/canopy/internal/prompt"
	"github.com/canopyhq/canopy/internal/render"
	"github.com/canopyhq/canopy/internal/telemetry"
	"github.com/canopyhq/canopy/internal/workspace"
)

// Options are the per-invocation fetch settings. Mode is the resolved mode
// (the alignment advisor has already run by the time the gate sees it).
type Options struct {
	Force      bool
	StateOnly  bool
	ReportSize bool
	Mode       models.Mode
	Filter     string
	Services   []string
}

// Gate runs one fetch invocation.
type Gate struct {
	engine   engine.Engine
	store    workspace.Store
	prompter prompt.Prompter
	out      *render.Printer
	tel      telemetry.Sink
}

func NewGate(eng engine.Engine, store workspace.Store, prompter prompt.Prompter,
	out *render.Printer, tel telemetry.Sink) *Gate {
	return &Gate{engine: eng, store: store, prompter: prompter, out: out, tel: tel}
}

// Run fetches, approves and commits changes. Telemetry is emitted once the
// outcome is known: success events and the failure event are mutually
// exclusive per run.
func (g *Gate) Run(opts Options) error {
	// State-only combined with a non-default mode is caller misuse, not a
	// user error. Nothing runs, not even the state updater.
	if opts.StateOnly && opts.Mode != models.ModeDefault {
		return fmt.Errorf("cannot combine state-only with mode %q: %w", opts.Mode, canopy.ErrContractViolation)
	}

	if g.store.HasErrors() {
		for _, verr := range g.store.Errors() {
			if verr.Blocking() {
				g.out.Error("%s: %s", verr.Element, verr.Message)
			}
		}
		g.tel.Count("fetch.failure", 0)
		return fmt.Errorf("cannot fetch: %w", canopy.ErrPrecondition)
	}

	if opts.StateOnly {
		return g.runStateOnly(opts)
	}

	result, err := g.engine.Fetch(g.store, g.progressSink(), opts.Services)
	if err != nil {
		g.tel.Count("fetch.failure", 0)
		return fmt.Errorf("error invoking fetch: %w", err)
	}

	// Merge errors are warnings no matter how the rest of the run ends.
	for _, me := range result.MergeErrors {
		g.out.Warning("%s: %s", me.Element, me.Message)
	}

	if !result.Success {
		g.out.Error("Fetch reported failure; nothing was applied.")
		g.tel.Count("fetch.failure", len(result.Changes))
		return fmt.Errorf("fetch unsuccessful: %w", canopy.ErrEngineFailure)
	}

	if err := g.applyConfigChanges(result.ConfigChanges); err != nil {
		return err
	}

	approved, err := g.approve(result.Changes, opts)
	if err != nil {
		g.tel.Count("fetch.failure", len(result.Changes))
		return err
	}

	if err := Commit(g.store, approved, opts.Mode, g.out); err != nil {
		g.tel.Count("fetch.failure", len(approved))
		return err
	}

	g.out.Success("Applied %d of %d changes.", len(approved), len(result.Changes))
	g.tel.Event("fetch.start")
	g.tel.Count("fetch.changes", len(approved))
	if opts.ReportSize {
		g.tel.Count("workspace.size", g.store.ElementCount())
	}
	return nil
}

// runStateOnly refreshes per-service state metadata without touching any
// element, mapping the updater's boolean straight onto the command outcome.
func (g *Gate) runStateOnly(opts Options) error {
	ok, err := g.store.UpdateStateOnly(opts.Services)
	if err != nil {
		g.tel.Count("fetch.failure", 0)
		return fmt.Errorf("error updating state metadata: %w", err)
	}
	if !ok {
		g.tel.Count("fetch.failure", 0)
		return fmt.Errorf("state metadata update left workspace erroneous: %w", canopy.ErrEngineFailure)
	}

	g.out.Success("State metadata updated for %d services.", len(opts.Services))
	g.tel.Event("fetch.start")
	g.tel.Count("fetch.changes", 0)
	return nil
}

func (g *Gate) progressSink() engine.ProgressFunc {
	return func(ev engine.ProgressEvent) {
		switch ev.Phase {
		case engine.PhaseBegin:
			g.out.Step(ev.Step)
		case engine.PhaseDone:
			g.out.StepDone(ev.Step)
		case engine.PhaseFailed:
			g.out.StepFailed(ev.Step, ev.Detail)
		}
	}
}

// applyConfigChanges asks once for all bundled service-config updates.
// Declining aborts the whole command before the main change-set is touched.
func (g *Gate) applyConfigChanges(configChanges []models.ConfigChange) error {
	if len(configChanges) == 0 {
		return nil
	}

	ok, err := g.prompter.Confirm(fmt.Sprintf("Apply %d service configuration updates?", len(configChanges)))
	if err != nil {
		g.tel.Count("fetch.failure", 0)
		return fmt.Errorf("error reading config approval: %w", err)
	}
	if !ok {
		return fmt.Errorf("service configuration update declined: %w", canopy.ErrUserDeclined)
	}

	for _, cc := range configChanges {
		if err := schema.ValidateServiceConfig(cc.Config); err != nil {
			g.tel.Count("fetch.failure", 0)
			return fmt.Errorf("service %q: %w", cc.Service, err)
		}
		if err := g.store.UpdateServiceConfig(cc.Service, cc.Config); err != nil {
			g.tel.Count("fetch.failure", 0)
			return fmt.Errorf("error updating config for service %q: %w", cc.Service, err)
		}
	}
	return nil
}

// approve narrows the fetched changes to the approved subset: force takes
// everything, a filter expression selects declaratively, otherwise the
// interactive selector decides. The result is always a subset of the input.
func (g *Gate) approve(changes []models.FetchChange, opts Options) ([]models.FetchChange, error) {
	if len(changes) == 0 {
		return nil, nil
	}
	if opts.Force {
		return changes, nil
	}
	if opts.Filter != "" {
		filter, err := condition.NewChangeFilter(opts.Filter)
		if err != nil {
			return nil, err
		}
		return filter.Select(changes)
	}

	approved, err := g.prompter.SelectChanges(changes)
	if err != nil {
		return nil, fmt.Errorf("error selecting changes: %w", err)
	}
	return approved, nil
}
