// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"

	"github.com/canopyhq/canopy/internal/core/format"
	"github.com/canopyhq/canopy/internal/core/models"
	"github.com/canopyhq/canopy/internal/workspace"
)

// FileEngine replays plans and change-set exports produced by an external
// planner. It lets the orchestrator run against precomputed documents when
// no live engine is linked in: Deploy walks the plan file emitting status
// callbacks, Fetch loads a recorded change-set emitting per-service steps.
type FileEngine struct {
	planPath   string
	resultPath string
	fetchPath  string
}

// NewFileEngine creates an engine replaying the given documents. planPath
// backs Preview/Deploy, fetchPath backs Fetch; resultPath optionally holds a
// recorded DeployResult (element errors) to replay partial failures.
func NewFileEngine(planPath, resultPath, fetchPath string) *FileEngine {
	return &FileEngine{planPath: planPath, resultPath: resultPath, fetchPath: fetchPath}
}

func (e *FileEngine) Preview(_ workspace.Store, _ []string) (*models.Plan, error) {
	var plan models.Plan
	if err := format.ParseFile(e.planPath, &plan); err != nil {
		return nil, fmt.Errorf("error loading plan: %w", err)
	}
	return &plan, nil
}

func (e *FileEngine) Deploy(_ workspace.Store, plan *models.Plan, status StatusFunc, _ []string) (*models.DeployResult, error) {
	result := &models.DeployResult{Success: true}
	if e.resultPath != "" {
		if err := format.ParseFile(e.resultPath, result); err != nil {
			return nil, fmt.Errorf("error loading recorded deploy result: %w", err)
		}
	}

	failed := make(map[string]string, len(result.Errors))
	for _, de := range result.Errors {
		failed[de.Element] = de.Message
	}

	var failedKeys []string
	for _, item := range plan.Items {
		if item.GroupKey == "" {
			continue
		}
		status(StatusEvent{Key: item.GroupKey, Status: StatusStarted, Item: item})
		if msg, ok := failed[item.Element]; ok {
			status(StatusEvent{Key: item.GroupKey, Status: StatusError, Item: item, Detail: msg})
			failedKeys = append(failedKeys, item.GroupKey)
			continue
		}
		if parent := dependsOnFailed(item, failedKeys); parent != "" {
			status(StatusEvent{Key: item.GroupKey, Status: StatusCancelled, Item: item, Parent: parent})
			continue
		}
		status(StatusEvent{Key: item.GroupKey, Status: StatusFinished, Item: item})
	}

	return result, nil
}

func dependsOnFailed(item models.PlanItem, failedKeys []string) string {
	for _, dep := range item.DependsOn {
		for _, key := range failedKeys {
			if dep == key {
				return key
			}
		}
	}
	return ""
}

func (e *FileEngine) Fetch(_ workspace.Store, progress ProgressFunc, services []string) (*models.FetchResult, error) {
	for _, svc := range services {
		step := fmt.Sprintf("fetch %s", svc)
		progress(ProgressEvent{Step: step, Phase: PhaseBegin})
		progress(ProgressEvent{Step: step, Phase: PhaseDone})
	}

	progress(ProgressEvent{Step: "calculate diff", Phase: PhaseBegin})
	var result models.FetchResult
	if err := format.ParseFile(e.fetchPath, &result); err != nil {
		progress(ProgressEvent{Step: "calculate diff", Phase: PhaseFailed, Detail: err.Error()})
		return nil, fmt.Errorf("error loading change-set: %w", err)
	}
	progress(ProgressEvent{Step: "calculate diff", Phase: PhaseDone})

	return &result, nil
}
