// Package lifecycle defines the trip phase machine: which commands may move a
// trip from one phase to another. It holds no trip data; callers pass the
// current phase in and get the destination phase back.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/pkordes/fahrtenbuch/internal/domain"
)

// Event names accepted by Transition.
const (
	EventComplete = "complete" // Started -> Completed
	EventAbandon  = "abandon"  // Started -> Ghost
	EventRevise   = "revise"   // Started -> Started, edit of start fields
	EventAmend    = "amend"    // Completed -> Completed
	EventRecover  = "recover"  // Ghost -> Completed
	EventRestart  = "restart"  // Ghost -> Started
)

var events = fsm.Events{
	{Name: EventComplete, Src: []string{string(domain.PhaseStarted)}, Dst: string(domain.PhaseCompleted)},
	{Name: EventAbandon, Src: []string{string(domain.PhaseStarted)}, Dst: string(domain.PhaseGhost)},
	{Name: EventRevise, Src: []string{string(domain.PhaseStarted)}, Dst: string(domain.PhaseStarted)},
	{Name: EventAmend, Src: []string{string(domain.PhaseCompleted)}, Dst: string(domain.PhaseCompleted)},
	{Name: EventRecover, Src: []string{string(domain.PhaseGhost)}, Dst: string(domain.PhaseCompleted)},
	{Name: EventRestart, Src: []string{string(domain.PhaseGhost)}, Dst: string(domain.PhaseStarted)},
}

// Transition applies event to a trip in phase from and returns the resulting
// phase. A disallowed or unknown event returns an error wrapping
// domain.ErrInvalidState.
func Transition(from domain.Phase, event string) (domain.Phase, error) {
	m := fsm.NewFSM(string(from), events, fsm.Callbacks{})

	if err := m.Event(context.Background(), event); err != nil {
		// Self-transitions (revise, amend) are legal edits; fsm reports them as
		// NoTransitionError.
		var noop fsm.NoTransitionError
		if !errors.As(err, &noop) {
			return from, fmt.Errorf("%w: cannot %s a %s trip", domain.ErrInvalidState, event, from)
		}
	}
	return domain.Phase(m.Current()), nil
}

// Can reports whether event is allowed from phase from.
func Can(from domain.Phase, event string) bool {
	return fsm.NewFSM(string(from), events, fsm.Callbacks{}).Can(event)
}

// EventFor returns the event that moves a trip from phase from to phase to.
// It is used by edits, where the caller states the desired phase rather than a
// command.
func EventFor(from, to domain.Phase) (string, error) {
	for _, e := range events {
		if e.Dst != string(to) {
			continue
		}
		for _, src := range e.Src {
			if src == string(from) {
				return e.Name, nil
			}
		}
	}
	return "", fmt.Errorf("%w: a %s trip cannot become %s", domain.ErrInvalidState, from, to)
}
