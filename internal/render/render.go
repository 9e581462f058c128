// SPDX-License-Identifier: Apache-2.0

// Package render prints the human-readable lines canopy emits while
// orchestrating a deploy or fetch. All orchestration output funnels through
// a Printer so tests can capture it.
package render

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/canopyhq/canopy/internal/core/models"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	stepColor    = color.New(color.FgCyan)
	dimColor     = color.New(color.FgHiBlack)
)

// Printer writes orchestration output. Out receives progress and summaries,
// ErrOut receives errors and warnings.
type Printer struct {
	Out    io.Writer
	ErrOut io.Writer
}

// NewPrinter returns a Printer bound to stdout/stderr.
func NewPrinter() *Printer {
	return &Printer{Out: os.Stdout, ErrOut: os.Stderr}
}

// Info prints a plain informational line.
func (p *Printer) Info(format string, args ...interface{}) {
	fmt.Fprintf(p.Out, format+"\n", args...)
}

// Success prints a green check line.
func (p *Printer) Success(format string, args ...interface{}) {
	_, _ = successColor.Fprintf(p.Out, "✓ "+format+"\n", args...)
}

// Warning prints a yellow warning line.
func (p *Printer) Warning(format string, args ...interface{}) {
	_, _ = warningColor.Fprintf(p.ErrOut, "⚠ "+format+"\n", args...)
}

// Error prints a red error line to ErrOut.
func (p *Printer) Error(format string, args ...interface{}) {
	_, _ = errorColor.Fprintf(p.ErrOut, "✗ "+format+"\n", args...)
}

// Step prints the start of a named fetch step.
func (p *Printer) Step(name string) {
	_, _ = stepColor.Fprintf(p.Out, "→ %s...\n", name)
}

// StepDone prints the completion of a named fetch step.
func (p *Printer) StepDone(name string) {
	_, _ = successColor.Fprintf(p.Out, "✓ %s done\n", name)
}

// StepFailed prints the failure of a named fetch step.
func (p *Printer) StepFailed(name, detail string) {
	_, _ = errorColor.Fprintf(p.ErrOut, "✗ %s failed: %s\n", name, detail)
}

// ActionStarted prints the start line for a tracked plan item.
func (p *Printer) ActionStarted(item models.PlanItem) {
	fmt.Fprintf(p.Out, "[%s] %s %s started\n", item.Service, item.Kind, item.Element)
}

// ActionInProgress prints a heartbeat line for a live plan item.
func (p *Printer) ActionInProgress(item models.PlanItem, elapsed time.Duration) {
	_, _ = dimColor.Fprintf(p.Out, "[%s] %s %s in progress, elapsed=%s\n",
		item.Service, item.Kind, item.Element, elapsed.Round(time.Second))
}

// ActionFinished prints the completion line for a tracked plan item.
func (p *Printer) ActionFinished(item models.PlanItem, elapsed time.Duration) {
	fmt.Fprintf(p.Out, "[%s] %s %s done, elapsed=%s\n",
		item.Service, item.Kind, item.Element, elapsed.Round(time.Second))
}

// ActionFailed prints the error line for a tracked plan item.
func (p *Printer) ActionFailed(item models.PlanItem, detail string) {
	_, _ = errorColor.Fprintf(p.ErrOut, "[%s] %s %s error: %s\n",
		item.Service, item.Kind, item.Element, detail)
}

// ActionCancelled prints the cancellation line for a plan item, which can
// arrive for items that never started.
func (p *Printer) ActionCancelled(key, parentKey string) {
	_, _ = warningColor.Fprintf(p.Out, "%s cancelled because parent %s failed\n", key, parentKey)
}

// DeploySummary prints the epilogue after an executed deploy.
func (p *Printer) DeploySummary(succeeded, failed int) {
	if failed > 0 {
		_, _ = errorColor.Fprintf(p.Out, "Deploy finished: %d succeeded, %d failed\n", succeeded, failed)
		return
	}
	_, _ = successColor.Fprintf(p.Out, "Deploy finished: %d succeeded\n", succeeded)
}
