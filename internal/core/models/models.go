// SPDX-License-Identifier: Apache-2.0

package models

import "fmt"

// ActionKind classifies what a change does to an element.
type ActionKind string

const (
	ActionAdd    ActionKind = "add"
	ActionModify ActionKind = "modify"
	ActionRemove ActionKind = "remove"
)

// PlanItem is one unit of change in a computed plan. GroupKey is the stable
// identity used to correlate progress callbacks; items without one are
// untrackable and never produce progress output.
type PlanItem struct {
	Element   string     `yaml:"element" json:"element"`
	Service   string     `yaml:"service" json:"service"`
	Kind      ActionKind `yaml:"kind" json:"kind"`
	GroupKey  string     `yaml:"group_key,omitempty" json:"group_key,omitempty"`
	DependsOn []string   `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
}

// ChangeError is a validation issue discovered during planning, before any
// execution takes place.
type ChangeError struct {
	Element string `yaml:"element" json:"element"`
	Message string `yaml:"message" json:"message"`
}

// Plan is an ordered collection of intended changes produced by the external
// planning engine. It is immutable once computed.
type Plan struct {
	Items        []PlanItem    `yaml:"items" json:"items"`
	ChangeErrors []ChangeError `yaml:"change_errors,omitempty" json:"change_errors,omitempty"`
}

// Empty reports whether the plan contains no items.
func (p *Plan) Empty() bool {
	return len(p.Items) == 0
}

// CountByKind returns the number of items per action kind.
func (p *Plan) CountByKind() map[ActionKind]int {
	counts := make(map[ActionKind]int)
	for _, item := range p.Items {
		counts[item.Kind]++
	}
	return counts
}

// DeployError identifies a failed element in a deploy result.
type DeployError struct {
	Element string `yaml:"element" json:"element"`
	Message string `yaml:"message" json:"message"`
}

// DeployResult is returned by the external apply call, even on partial failure.
type DeployResult struct {
	Success bool          `yaml:"success" json:"success"`
	Errors  []DeployError `yaml:"errors,omitempty" json:"errors,omitempty"`
	Changes []Change      `yaml:"changes,omitempty" json:"changes,omitempty"`
}

// Change is a single element-level delta.
type Change struct {
	Element string                 `yaml:"element" json:"element"`
	Service string                 `yaml:"service" json:"service"`
	Kind    ActionKind             `yaml:"kind" json:"kind"`
	Payload map[string]interface{} `yaml:"payload,omitempty" json:"payload,omitempty"`
}

// FetchChange pairs an element-level delta with its service-local counterpart.
type FetchChange struct {
	Change        Change `yaml:"change" json:"change"`
	ServiceChange Change `yaml:"service_change" json:"service_change"`
}

// MergeError is a non-fatal conflict detected while combining change sources.
// It is surfaced as a warning and never blocks success.
type MergeError struct {
	Element string `yaml:"element" json:"element"`
	Message string `yaml:"message" json:"message"`
}

// ConfigChange is a service configuration update bundled with a fetch result.
type ConfigChange struct {
	Service string                 `yaml:"service" json:"service"`
	Config  map[string]interface{} `yaml:"config" json:"config"`
}

// FetchResult is the raw outcome of the external fetch operation.
type FetchResult struct {
	Changes       []FetchChange  `yaml:"changes,omitempty" json:"changes,omitempty"`
	MergeErrors   []MergeError   `yaml:"merge_errors,omitempty" json:"merge_errors,omitempty"`
	ConfigChanges []ConfigChange `yaml:"config_changes,omitempty" json:"config_changes,omitempty"`
	Success       bool           `yaml:"success" json:"success"`
}

// Mode governs how a change-set interacts with elements shared across
// environments when committed to the workspace.
type Mode string

const (
	ModeDefault  Mode = "default"
	ModeAlign    Mode = "align"
	ModeOverride Mode = "override"
	ModeIsolated Mode = "isolated"
)

// ParseMode converts a CLI flag value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDefault, ModeAlign, ModeOverride, ModeIsolated:
		return Mode(s), nil
	case "":
		return ModeDefault, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected default, align, override or isolated)", s)
	}
}

// StateRecency describes whether the workspace already reflects a service's
// last-known state.
type StateRecency int

const (
	RecencyValid StateRecency = iota
	RecencyOutdated
	RecencyNonexistent
)

func (r StateRecency) String() string {
	switch r {
	case RecencyValid:
		return "valid"
	case RecencyOutdated:
		return "outdated"
	case RecencyNonexistent:
		return "nonexistent"
	default:
		return "unknown"
	}
}

// Severity classifies a workspace validation error.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ValidationError is reported by the workspace after loading or mutating it.
// Only error-severity entries block an operation.
type ValidationError struct {
	Element  string   `yaml:"element,omitempty" json:"element,omitempty"`
	Message  string   `yaml:"message" json:"message"`
	Severity Severity `yaml:"severity" json:"severity"`
}

// Blocking reports whether this validation error fails an operation.
func (v ValidationError) Blocking() bool {
	return v.Severity == SeverityError
}
