// SPDX-License-Identifier: Apache-2.0

// Package prompt holds the interactive questions canopy asks before mutating
// anything: plain confirmations, the tri-state alignment choice, and the
// change-subset selector.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/canopyhq/canopy/internal/core/models"
)

// AlignDecision is the answer to the environment-alignment prompt.
type AlignDecision int

const (
	AlignAccept AlignDecision = iota
	AlignDecline
	AlignCancel
)

// Prompter asks the user for the approvals the orchestrator needs.
type Prompter interface {
	// Confirm asks a yes/no question.
	Confirm(message string) (bool, error)

	// AlignChoice asks whether to switch to align mode for this run.
	AlignChoice(message string) (AlignDecision, error)

	// SelectChanges returns the approved subset of changes. The result may
	// be empty and is not required to preserve input order.
	SelectChanges(changes []models.FetchChange) ([]models.FetchChange, error)
}

// Terminal is a Prompter reading answers from an input stream.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a Prompter bound to stdin/stdout.
func NewTerminal() *Terminal {
	return &Terminal{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

// NewTerminalWith creates a Prompter with explicit streams, for tests.
func NewTerminalWith(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("error reading input: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

func (t *Terminal) Confirm(message string) (bool, error) {
	fmt.Fprintf(t.out, "%s (y/n): ", message)
	answer, err := t.readLine()
	if err != nil {
		return false, err
	}
	return answer == "y" || answer == "yes", nil
}

func (t *Terminal) AlignChoice(message string) (AlignDecision, error) {
	fmt.Fprintf(t.out, "%s (y=switch / n=keep mode / c=cancel): ", message)
	answer, err := t.readLine()
	if err != nil {
		return AlignCancel, err
	}
	switch answer {
	case "y", "yes":
		return AlignAccept, nil
	case "c", "cancel":
		return AlignCancel, nil
	default:
		return AlignDecline, nil
	}
}

func (t *Terminal) SelectChanges(changes []models.FetchChange) ([]models.FetchChange, error) {
	for i, fc := range changes {
		fmt.Fprintf(t.out, "  [%d] %s %s (%s)\n", i+1, fc.Change.Kind, fc.Change.Element, fc.Change.Service)
	}
	fmt.Fprint(t.out, "Select changes to apply (numbers, 'a' for all, empty for none): ")

	answer, err := t.readLine()
	if err != nil {
		return nil, err
	}
	if answer == "" {
		return nil, nil
	}
	if answer == "a" || answer == "all" {
		return changes, nil
	}

	var approved []models.FetchChange
	seen := make(map[int]bool)
	for _, field := range strings.FieldsFunc(answer, func(r rune) bool { return r == ',' || r == ' ' }) {
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > len(changes) {
			return nil, fmt.Errorf("invalid selection %q", field)
		}
		// Repeats are tolerated but count once; the result stays a subset.
		if seen[n] {
			continue
		}
		seen[n] = true
		approved = append(approved, changes[n-1])
	}
	return approved, nil
}
