// SPDX-License-Identifier: Apache-2.0

package engine_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/canopyhq/canopy/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planDoc = `items:
  - element: price-rules
    service: crm
    kind: modify
    group_key: crm/price-rules
  - element: invoice-layout
    service: billing
    kind: add
    group_key: billing/invoice-layout
    depends_on: [crm/price-rules]
  - element: untracked
    service: crm
    kind: remove
`

const fetchDoc = `success: true
changes:
  - change:
      element: price-rules
      service: crm
      kind: modify
    service_change:
      element: price-rules
      service: crm
      kind: modify
merge_errors:
  - element: tax-table
    message: both sides changed
`

func writeDoc(t *testing.T, name, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestFileEnginePreview(t *testing.T) {
	eng := engine.NewFileEngine(writeDoc(t, "plan.yaml", planDoc), "", "")

	plan, err := eng.Preview(nil, nil)
	require.NoError(t, err)
	require.Len(t, plan.Items, 3)
	assert.Equal(t, "crm/price-rules", plan.Items[0].GroupKey)
	assert.Empty(t, plan.Items[2].GroupKey)
}

func TestFileEngineDeployCallbacks(t *testing.T) {
	eng := engine.NewFileEngine(writeDoc(t, "plan.yaml", planDoc), "", "")
	plan, err := eng.Preview(nil, nil)
	require.NoError(t, err)

	var events []engine.StatusEvent
	result, err := eng.Deploy(nil, plan, func(ev engine.StatusEvent) {
		events = append(events, ev)
	}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)

	// Two tracked items, started+finished each; the untracked one is silent.
	require.Len(t, events, 4)
	assert.Equal(t, engine.StatusStarted, events[0].Status)
	assert.Equal(t, engine.StatusFinished, events[1].Status)
	for _, ev := range events {
		assert.NotEmpty(t, ev.Key)
	}
}

func TestFileEngineDeployReplaysFailures(t *testing.T) {
	resultDoc := `success: false
errors:
  - element: price-rules
    message: remote rejected update
`
	eng := engine.NewFileEngine(
		writeDoc(t, "plan.yaml", planDoc),
		writeDoc(t, "result.yaml", resultDoc),
		"",
	)
	plan, err := eng.Preview(nil, nil)
	require.NoError(t, err)

	var events []engine.StatusEvent
	result, err := eng.Deploy(nil, plan, func(ev engine.StatusEvent) {
		events = append(events, ev)
	}, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)

	// price-rules errors, so its dependent is cancelled with the parent key.
	var sawError, sawCancelled bool
	for _, ev := range events {
		switch ev.Status {
		case engine.StatusError:
			sawError = true
			assert.Equal(t, "crm/price-rules", ev.Key)
		case engine.StatusCancelled:
			sawCancelled = true
			assert.Equal(t, "crm/price-rules", ev.Parent)
		}
	}
	assert.True(t, sawError)
	assert.True(t, sawCancelled)
}

func TestFileEngineFetch(t *testing.T) {
	eng := engine.NewFileEngine("", "", writeDoc(t, "changes.yaml", fetchDoc))

	var steps []engine.ProgressEvent
	result, err := eng.Fetch(nil, func(ev engine.ProgressEvent) {
		steps = append(steps, ev)
	}, []string{"crm", "billing"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.Changes, 1)
	require.Len(t, result.MergeErrors, 1)

	// begin/done per service plus begin/done for the diff step.
	require.Len(t, steps, 6)
	assert.Equal(t, "fetch crm", steps[0].Step)
	assert.Equal(t, engine.PhaseBegin, steps[0].Phase)
	assert.Equal(t, "calculate diff", steps[4].Step)
	assert.Equal(t, engine.PhaseDone, steps[5].Phase)
}

func TestFileEngineFetchMissingExport(t *testing.T) {
	eng := engine.NewFileEngine("", "", filepath.Join(t.TempDir(), "missing.yaml"))

	var failed bool
	_, err := eng.Fetch(nil, func(ev engine.ProgressEvent) {
		if ev.Phase == engine.PhaseFailed {
			failed = true
		}
	}, nil)
	assert.Error(t, err)
	assert.True(t, failed)
}
