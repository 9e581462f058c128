// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"fmt"

	"github.com/canopyhq/canopy/internal/canopy"
	"github.com/canopyhq/canopy/internal/core/models"
	"github.com/canopyhq/canopy/internal/render"
	"github.com/canopyhq/canopy/internal/workspace"
)

// Commit applies an approved change-set to the store and re-validates.
// Blocking errors after the mutation fail the whole operation even though
// the write may have happened; warnings are surfaced and tolerated. A
// zero-change commit never touches the store.
func Commit(store workspace.Store, approved []models.FetchChange, mode models.Mode, out *render.Printer) error {
	if len(approved) == 0 {
		out.Info("No changes to apply.")
		return nil
	}

	changes := make([]models.Change, 0, len(approved))
	for _, fc := range approved {
		changes = append(changes, fc.Change)
	}

	clean, err := store.ApplyChanges(changes, mode)
	if err != nil {
		return fmt.Errorf("error applying changes: %w", err)
	}

	blocking := 0
	for _, verr := range store.Errors() {
		if verr.Blocking() {
			blocking++
			out.Error("%s: %s", verr.Element, verr.Message)
		} else {
			out.Warning("%s: %s", verr.Element, verr.Message)
		}
	}

	if !clean || blocking > 0 {
		return fmt.Errorf("workspace reports %d blocking errors after applying changes: %w",
			blocking, canopy.ErrEngineFailure)
	}
	return nil
}
