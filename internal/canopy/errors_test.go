// SPDX-License-Identifier: Apache-2.0

package canopy_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/canopyhq/canopy/internal/canopy"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil", err: nil, expected: canopy.ExitSuccess},
		{name: "declined", err: canopy.ErrUserDeclined, expected: canopy.ExitUserInput},
		{name: "wrapped declined", err: fmt.Errorf("config update: %w", canopy.ErrUserDeclined), expected: canopy.ExitUserInput},
		{name: "engine failure", err: canopy.ErrEngineFailure, expected: canopy.ExitAppError},
		{name: "precondition", err: canopy.ErrPrecondition, expected: canopy.ExitAppError},
		{name: "contract", err: canopy.ErrContractViolation, expected: canopy.ExitAppError},
		{name: "arbitrary", err: errors.New("boom"), expected: canopy.ExitAppError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, canopy.ExitCode(tt.err))
		})
	}
}
