// SPDX-License-Identifier: Apache-2.0

// Package deploy decides whether a computed plan is executed, wires the
// action tracker into the external apply call and aggregates the outcome.
package deploy

import (
	"fmt"

	"github.com/canopyhq/canopy/internal/canopy"
	"github.com/canopyhq/canopy/internal/canopy/tracker"
	"github.com/canopyhq/canopy/internal/core/models"
	"github.com/canopyhq/canopy/internal/engine"
	"github.com/canopyhq/canopy/internal/prompt"
	"github.com/canopyhq/canopy/internal/render"
	"github.com/canopyhq/canopy/internal/telemetry"
	"github.com/canopyhq/canopy/internal/workspace"
)

// Options are the per-invocation deploy settings.
type Options struct {
	Force        bool
	DryRun       bool
	DetailedPlan bool
	Services     []string
}

// Driver runs one deploy invocation.
type Driver struct {
	engine      engine.Engine
	store       workspace.Store
	prompter    prompt.Prompter
	out         *render.Printer
	tel         telemetry.Sink
	trackerOpts []tracker.Option
}

// NewDriver creates a deploy driver. trackerOpts customize the action
// tracker, mainly for tests.
func NewDriver(eng engine.Engine, store workspace.Store, prompter prompt.Prompter,
	out *render.Printer, tel telemetry.Sink, trackerOpts ...tracker.Option) *Driver {
	return &Driver{
		engine:      eng,
		store:       store,
		prompter:    prompter,
		out:         out,
		tel:         tel,
		trackerOpts: trackerOpts,
	}
}

// Run executes (or declines to execute) the given plan and returns the
// deploy result. A declined or empty run returns a trivial success and skips
// telemetry action counts entirely.
func (d *Driver) Run(plan *models.Plan, opts Options) (*models.DeployResult, error) {
	for _, ce := range plan.ChangeErrors {
		d.out.Warning("%s: %s", ce.Element, ce.Message)
	}

	d.printPlan(plan, opts.DetailedPlan)

	if opts.DryRun {
		d.out.Info("Dry run: no changes will be deployed.")
		return trivialSuccess(), nil
	}

	execute, err := d.shouldExecute(plan, opts)
	if err != nil {
		return nil, err
	}
	if !execute {
		d.out.Info("Deploy cancelled.")
		return trivialSuccess(), nil
	}

	d.out.Info("Deploying %d changes to environment %q...", len(plan.Items), d.store.CurrentEnvironment())

	tr := tracker.New(d.out, d.trackerOpts...)
	result, err := d.engine.Deploy(d.store, plan, statusSink(tr), opts.Services)
	tr.Shutdown()
	if err != nil {
		return nil, fmt.Errorf("error invoking deploy: %w", err)
	}

	for _, de := range result.Errors {
		d.out.Error("%s: %s", de.Element, de.Message)
	}

	succeeded, failed := tr.Outcome(result.Errors)
	d.out.DeploySummary(succeeded, failed)
	d.tel.Count("deploy.actions.succeeded", succeeded)
	d.tel.Count("deploy.actions.failed", failed)

	if !result.Success {
		return result, fmt.Errorf("deploy failed with %d errors: %w", len(result.Errors), canopy.ErrEngineFailure)
	}
	return result, nil
}

// shouldExecute is the decision gate: force wins, an empty plan never
// prompts, otherwise the user confirms exactly once.
func (d *Driver) shouldExecute(plan *models.Plan, opts Options) (bool, error) {
	if opts.Force {
		return true, nil
	}
	if plan.Empty() {
		return false, nil
	}
	ok, err := d.prompter.Confirm(fmt.Sprintf("Deploy %d changes to environment %q?",
		len(plan.Items), d.store.CurrentEnvironment()))
	if err != nil {
		return false, fmt.Errorf("error reading confirmation: %w", err)
	}
	return ok, nil
}

func (d *Driver) printPlan(plan *models.Plan, detailed bool) {
	if plan.Empty() {
		d.out.Info("No changes to deploy.")
		return
	}
	if detailed {
		for _, item := range plan.Items {
			d.out.Info("  %s %s (%s)", item.Kind, item.Element, item.Service)
		}
		return
	}
	counts := plan.CountByKind()
	d.out.Info("Plan: %d to add, %d to modify, %d to remove",
		counts[models.ActionAdd], counts[models.ActionModify], counts[models.ActionRemove])
}

// statusSink adapts engine callbacks onto the tracker, dropping untrackable
// items: no group key, no progress output.
func statusSink(tr *tracker.Tracker) engine.StatusFunc {
	return func(ev engine.StatusEvent) {
		if ev.Key == "" {
			return
		}
		switch ev.Status {
		case engine.StatusStarted:
			tr.Started(ev.Key, ev.Item)
		case engine.StatusFinished:
			tr.Finished(ev.Key)
		case engine.StatusError:
			tr.Errored(ev.Key, ev.Detail)
		case engine.StatusCancelled:
			tr.Cancelled(ev.Key, ev.Parent)
		}
	}
}

func trivialSuccess() *models.DeployResult {
	return &models.DeployResult{Success: true, Errors: []models.DeployError{}}
}
