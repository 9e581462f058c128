// SPDX-License-Identifier: Apache-2.0

package fetch_test

import (
	"errors"
	"testing"

	"github.com/canopyhq/canopy/internal/canopy"
	"github.com/canopyhq/canopy/internal/canopy/fetch"
	"github.com/canopyhq/canopy/internal/core/models"
	"github.com/canopyhq/canopy/internal/prompt"
	"github.com/canopyhq/canopy/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func adviseStore(common bool, recency models.StateRecency) *testutil.MockStore {
	store := &testutil.MockStore{}
	store.On("HasCommonElements").Return(common).Maybe()
	store.On("StateRecency", mock.Anything).Return(recency).Maybe()
	return store
}

func TestAdvise(t *testing.T) {
	services := []string{"crm"}

	tests := []struct {
		name     string
		force    bool
		mode     models.Mode
		common   bool
		recency  models.StateRecency
		expected fetch.AlignAdvice
	}{
		{name: "force short-circuits", force: true, mode: models.ModeDefault, common: true, recency: models.RecencyNonexistent, expected: fetch.AdviceForce},
		{name: "already aligned", mode: models.ModeAlign, common: true, recency: models.RecencyNonexistent, expected: fetch.AdviceAlreadyAligned},
		{name: "no common elements", mode: models.ModeDefault, common: false, recency: models.RecencyNonexistent, expected: fetch.AdviceNoCommonElements},
		{name: "nothing new", mode: models.ModeDefault, common: true, recency: models.RecencyValid, expected: fetch.AdviceNothingNew},
		{name: "outdated is not new", mode: models.ModeDefault, common: true, recency: models.RecencyOutdated, expected: fetch.AdviceNothingNew},
		{name: "needs prompt", mode: models.ModeDefault, common: true, recency: models.RecencyNonexistent, expected: fetch.AdviceNeedsPrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := adviseStore(tt.common, tt.recency)
			got := fetch.Advise(tt.force, tt.mode, store, services)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// Any requested service that was never fetched makes the prompt eligible,
// even when the others are current.
func TestAdviseMixedServiceRecency(t *testing.T) {
	store := &testutil.MockStore{}
	store.On("HasCommonElements").Return(true)
	store.On("StateRecency", "crm").Return(models.RecencyValid)
	store.On("StateRecency", "billing").Return(models.RecencyNonexistent)

	got := fetch.Advise(false, models.ModeDefault, store, []string{"crm", "billing"})
	assert.Equal(t, fetch.AdviceNeedsPrompt, got)
}

func TestResolvePromptsAtMostOnce(t *testing.T) {
	store := adviseStore(true, models.RecencyNonexistent)
	prompter := &testutil.MockPrompter{}
	prompter.On("AlignChoice", mock.Anything).Return(prompt.AlignAccept, nil).Once()

	advisor := fetch.NewAdvisor(store, prompter)
	mode, err := advisor.Resolve(false, models.ModeDefault, []string{"crm"})
	require.NoError(t, err)
	assert.Equal(t, models.ModeAlign, mode)
	prompter.AssertNumberOfCalls(t, "AlignChoice", 1)
}

func TestResolveDeclineKeepsRequestedMode(t *testing.T) {
	store := adviseStore(true, models.RecencyNonexistent)
	prompter := &testutil.MockPrompter{}
	prompter.On("AlignChoice", mock.Anything).Return(prompt.AlignDecline, nil)

	advisor := fetch.NewAdvisor(store, prompter)
	mode, err := advisor.Resolve(false, models.ModeOverride, []string{"crm"})
	require.NoError(t, err)
	assert.Equal(t, models.ModeOverride, mode)
}

func TestResolveCancelAbortsCommand(t *testing.T) {
	store := adviseStore(true, models.RecencyNonexistent)
	prompter := &testutil.MockPrompter{}
	prompter.On("AlignChoice", mock.Anything).Return(prompt.AlignCancel, nil)

	advisor := fetch.NewAdvisor(store, prompter)
	_, err := advisor.Resolve(false, models.ModeDefault, []string{"crm"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, canopy.ErrUserDeclined))
	assert.Equal(t, canopy.ExitUserInput, canopy.ExitCode(err))
}

func TestResolveNoPromptWhenIneligible(t *testing.T) {
	store := adviseStore(false, models.RecencyNonexistent)
	prompter := &testutil.MockPrompter{}

	advisor := fetch.NewAdvisor(store, prompter)
	mode, err := advisor.Resolve(false, models.ModeDefault, []string{"crm"})
	require.NoError(t, err)
	assert.Equal(t, models.ModeDefault, mode)
	prompter.AssertNotCalled(t, "AlignChoice", mock.Anything)
}
