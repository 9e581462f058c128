//go:build integration

// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/canopyhq/canopy/internal/canopy"
	"github.com/canopyhq/canopy/internal/canopy/deploy"
	"github.com/canopyhq/canopy/internal/canopy/fetch"
	"github.com/canopyhq/canopy/internal/core/config"
	"github.com/canopyhq/canopy/internal/core/models"
	"github.com/canopyhq/canopy/internal/engine"
	"github.com/canopyhq/canopy/internal/prompt"
	"github.com/canopyhq/canopy/internal/render"
	"github.com/canopyhq/canopy/internal/telemetry"
	"github.com/canopyhq/canopy/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBasicWorkflow runs the canopy workflow end-to-end against a temporary
// workspace: profile loading, a replayed fetch through the gate, and a
// replayed deploy through the driver.
func TestBasicWorkflow(t *testing.T) {
	tempDir := t.TempDir()
	dotDir := filepath.Join(tempDir, workspace.DefaultDir)
	require.NoError(t, os.MkdirAll(dotDir, 0755))

	writeFile := func(name, content string) string {
		path := filepath.Join(tempDir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	writeFile(filepath.Join(workspace.DefaultDir, workspace.WorkspaceFileName), `
name: integration
current_environment: staging
environments:
  - staging
  - production
elements:
  - id: api-limits
    service: billing
    common: true
    payload:
      rate: 100
`)

	// 1. Profile loading and service resolution
	t.Run("ProfileResolution", func(t *testing.T) {
		path := writeFile(filepath.Join(workspace.DefaultDir, config.DefaultProfilesFileName), `
[services.billing]
endpoint = "https://billing.internal"
environment = "staging"
timeout = "30s"

[services.catalog]
endpoint = "https://catalog.internal"
`)

		profiles, err := config.LoadProfiles(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"billing", "catalog"}, profiles.ServiceNames())

		active, err := profiles.Resolve([]string{"billing"})
		require.NoError(t, err)
		assert.Equal(t, []string{"billing"}, active)

		_, err = profiles.Resolve([]string{"unknown"})
		assert.Error(t, err)

		fmt.Printf("✓ Profiles loaded and resolved\n")
	})

	// 2. Fetch through the gate, replaying a recorded change-set
	t.Run("FetchGate", func(t *testing.T) {
		changeset := writeFile("changeset.yaml", `
success: true
changes:
  - change:
      element: api-limits
      service: billing
      kind: modify
      payload:
        rate: 250
    service_change:
      element: api-limits
      service: billing
      kind: modify
merge_errors:
  - element: api-limits
    message: "remote copy diverged; remote wins"
`)

		store, err := workspace.Open(tempDir)
		require.NoError(t, err)

		gate := fetch.NewGate(engine.NewFileEngine("", "", changeset), store,
			prompt.NewTerminal(), render.NewPrinter(), telemetry.Noop{})
		err = gate.Run(fetch.Options{
			Force:    true,
			Mode:     models.ModeDefault,
			Services: []string{"billing"},
		})
		require.NoError(t, err)

		el, ok := store.Element("api-limits")
		require.True(t, ok)
		assert.Equal(t, 250, el.Payload["rate"])

		fmt.Printf("✓ Fetched change-set committed to workspace\n")
	})

	// 3. Deploy through the driver, replaying a recorded partial failure
	t.Run("DeployReplay", func(t *testing.T) {
		plan := writeFile("plan.yaml", `
items:
  - element: api-limits
    service: billing
    kind: modify
    group_key: billing/api-limits
  - element: webhooks
    service: billing
    kind: add
    group_key: billing/webhooks
    depends_on:
      - billing/api-limits
`)
		recorded := writeFile("result.yaml", `
success: false
errors:
  - element: api-limits
    message: "endpoint rejected payload"
`)

		store, err := workspace.Open(tempDir)
		require.NoError(t, err)

		eng := engine.NewFileEngine(plan, recorded, "")
		loaded, err := eng.Preview(store, []string{"billing"})
		require.NoError(t, err)
		assert.Len(t, loaded.Items, 2)

		driver := deploy.NewDriver(eng, store, prompt.NewTerminal(),
			render.NewPrinter(), telemetry.Noop{})
		result, err := driver.Run(loaded, deploy.Options{Force: true, Services: []string{"billing"}})
		require.Error(t, err)
		assert.ErrorIs(t, err, canopy.ErrEngineFailure)
		require.NotNil(t, result)
		assert.Len(t, result.Errors, 1)

		fmt.Printf("✓ Recorded deploy failure surfaced with correct taxonomy\n")
	})

	// 4. State-only refresh and recency transitions
	t.Run("StateRecency", func(t *testing.T) {
		store, err := workspace.Open(tempDir)
		require.NoError(t, err)
		assert.Equal(t, models.RecencyNonexistent, store.StateRecency("billing"))

		ok, err := store.UpdateStateOnly([]string{"billing"})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, models.RecencyValid, store.StateRecency("billing"))

		require.NoError(t, store.SwitchEnvironment("production"))
		assert.Equal(t, models.RecencyOutdated, store.StateRecency("billing"))

		fmt.Printf("✓ State recency tracks environment switches\n")
	})

	fmt.Printf("\n✅ All integration tests passed successfully!\n")
}
