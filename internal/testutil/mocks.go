// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"github.com/stretchr/testify/mock"

	"github.com/canopyhq/canopy/internal/core/models"
	"github.com/canopyhq/canopy/internal/engine"
	"github.com/canopyhq/canopy/internal/prompt"
	"github.com/canopyhq/canopy/internal/workspace"
)

// MockEngine mocks the external planning/diffing engine boundary.
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Preview(store workspace.Store, services []string) (*models.Plan, error) {
	args := m.Called(store, services)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockEngine) Fetch(store workspace.Store, progress engine.ProgressFunc, services []string) (*models.FetchResult, error) {
	args := m.Called(store, progress, services)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FetchResult), args.Error(1)
}

func (m *MockEngine) Deploy(store workspace.Store, plan *models.Plan, status engine.StatusFunc, services []string) (*models.DeployResult, error) {
	args := m.Called(store, plan, status, services)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeployResult), args.Error(1)
}

// MockStore mocks the persistent configuration store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Name() string {
	return m.Called().String(0)
}

func (m *MockStore) HasErrors() bool {
	return m.Called().Bool(0)
}

func (m *MockStore) Errors() []models.ValidationError {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.ValidationError)
}

func (m *MockStore) ApplyChanges(changes []models.Change, mode models.Mode) (bool, error) {
	args := m.Called(changes, mode)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) UpdateServiceConfig(service string, config map[string]interface{}) error {
	return m.Called(service, config).Error(0)
}

func (m *MockStore) UpdateStateOnly(services []string) (bool, error) {
	args := m.Called(services)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) CurrentEnvironment() string {
	return m.Called().String(0)
}

func (m *MockStore) ListEnvironments() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockStore) HasCommonElements() bool {
	return m.Called().Bool(0)
}

func (m *MockStore) StateRecency(service string) models.StateRecency {
	return m.Called(service).Get(0).(models.StateRecency)
}

func (m *MockStore) ElementCount() int {
	return m.Called().Int(0)
}

// MockPrompter mocks the interactive approval surface.
type MockPrompter struct {
	mock.Mock
}

func (m *MockPrompter) Confirm(message string) (bool, error) {
	args := m.Called(message)
	return args.Bool(0), args.Error(1)
}

func (m *MockPrompter) AlignChoice(message string) (prompt.AlignDecision, error) {
	args := m.Called(message)
	return args.Get(0).(prompt.AlignDecision), args.Error(1)
}

func (m *MockPrompter) SelectChanges(changes []models.FetchChange) ([]models.FetchChange, error) {
	args := m.Called(changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FetchChange), args.Error(1)
}

// MockSink records telemetry calls for assertion.
type MockSink struct {
	Events []string
	Counts map[string]int
}

func NewMockSink() *MockSink {
	return &MockSink{Counts: make(map[string]int)}
}

func (s *MockSink) Event(name string) {
	s.Events = append(s.Events, name)
}

func (s *MockSink) Count(name string, value int) {
	s.Events = append(s.Events, name)
	s.Counts[name] = value
}
