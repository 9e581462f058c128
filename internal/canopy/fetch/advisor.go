// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"fmt"

	"github.com/canopyhq/canopy/internal/canopy"
	"github.com/canopyhq/canopy/internal/core/models"
	"github.com/canopyhq/canopy/internal/prompt"
	"github.com/canopyhq/canopy/internal/workspace"
)

// AlignAdvice is the closed set of reasons the alignment advisor can reach.
type AlignAdvice int

const (
	AdviceForce AlignAdvice = iota
	AdviceAlreadyAligned
	AdviceNoCommonElements
	AdviceNothingNew
	AdviceNeedsPrompt
)

func (a AlignAdvice) String() string {
	switch a {
	case AdviceForce:
		return "force"
	case AdviceAlreadyAligned:
		return "already-aligned"
	case AdviceNoCommonElements:
		return "no-common-elements"
	case AdviceNothingNew:
		return "nothing-new"
	case AdviceNeedsPrompt:
		return "needs-prompt"
	default:
		return "unknown"
	}
}

// Advise decides whether switching to align mode is worth offering: only
// when common elements exist and at least one requested service has never
// been fetched into this workspace.
func Advise(force bool, mode models.Mode, store workspace.Store, services []string) AlignAdvice {
	switch {
	case force:
		return AdviceForce
	case mode == models.ModeAlign:
		return AdviceAlreadyAligned
	case !store.HasCommonElements():
		return AdviceNoCommonElements
	case !anyNonexistent(store, services):
		return AdviceNothingNew
	default:
		return AdviceNeedsPrompt
	}
}

func anyNonexistent(store workspace.Store, services []string) bool {
	for _, svc := range services {
		if store.StateRecency(svc) == models.RecencyNonexistent {
			return true
		}
	}
	return false
}

// Advisor resolves the mode for one fetch invocation, prompting at most once.
type Advisor struct {
	store    workspace.Store
	prompter prompt.Prompter
}

func NewAdvisor(store workspace.Store, prompter prompt.Prompter) *Advisor {
	return &Advisor{store: store, prompter: prompter}
}

// Resolve returns the mode the fetch should run under. Accepting the prompt
// switches to align for this run only; declining keeps the requested mode;
// cancelling aborts the command before any fetch happens.
func (a *Advisor) Resolve(force bool, mode models.Mode, services []string) (models.Mode, error) {
	if Advise(force, mode, a.store, services) != AdviceNeedsPrompt {
		return mode, nil
	}

	choice, err := a.prompter.AlignChoice(
		"New services are being fetched into a workspace with shared elements. Switch to align mode for this run?")
	if err != nil {
		return mode, fmt.Errorf("error reading alignment choice: %w", err)
	}

	switch choice {
	case prompt.AlignAccept:
		return models.ModeAlign, nil
	case prompt.AlignCancel:
		return mode, fmt.Errorf("alignment prompt cancelled: %w", canopy.ErrUserDeclined)
	default:
		return mode, nil
	}
}
