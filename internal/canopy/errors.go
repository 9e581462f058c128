// SPDX-License-Identifier: Apache-2.0

// Package canopy holds the error taxonomy shared by the orchestration
// packages and its mapping to process exit codes.
package canopy

import "errors"

// Sentinel errors for the orchestrator's failure taxonomy. Orchestration
// code wraps these with context; the CLI boundary matches them with
// errors.Is to pick an exit code.
var (
	// ErrPrecondition: the workspace already reports errors before any
	// engine call.
	ErrPrecondition = errors.New("workspace has pre-existing errors")

	// ErrContractViolation: a caller combined state-only with a non-default
	// mode. This signals programmer or configuration misuse, not user error.
	ErrContractViolation = errors.New("state-only update requires default mode")

	// ErrEngineFailure: the external fetch/deploy reported failure, or the
	// workspace reported blocking errors after a commit.
	ErrEngineFailure = errors.New("engine reported failure")

	// ErrUserDeclined: the user rejected a required approval. Mapped to a
	// distinct exit code and not counted as an application failure.
	ErrUserDeclined = errors.New("operation declined by user")
)

// Exit codes returned by the canopy binary.
const (
	ExitSuccess   = 0
	ExitAppError  = 1
	ExitUserInput = 2
)

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrUserDeclined):
		return ExitUserInput
	default:
		return ExitAppError
	}
}
