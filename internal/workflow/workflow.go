// Package workflow holds the pure, stateless lifecycle rules for each case
// family: legal states, legal transitions, which actor role may trigger them,
// and the guard each payload must satisfy. Nothing here touches the store.
package workflow

import (
	"fmt"
	"time"

	"github.com/campus-osa/care-desk-api/internal/models"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

// Family identifies a case collection.
type Family string

const (
	FamilyCounseling Family = "counseling_cases"
	FamilySupport    Family = "support_cases"
	FamilyAdmission  Family = "admission_applications"
)

// Status is a case status value, family-scoped.
type Status string

// Action names a transition an actor can request.
type Action string

// Payload carries the fields a guard may require. Guards only read it.
type Payload struct {
	ScheduledAt  *time.Time
	Reason       string
	Notes        string
	ActionsTaken string
	Comments     string
	ReferredBy   string
	SignatureURI string
}

// Guard validates a payload before any write happens.
type Guard func(Payload) error

// Transition is one legal edge in a family's state machine.
type Transition struct {
	Action Action
	From   Status
	To     Status
	Roles  []models.UserRole
	Guard  Guard
}

// Allows reports whether the role may trigger this transition.
func (t Transition) Allows(role models.UserRole) bool {
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Machine is a static transition table. Terminal states have no outgoing
// edges and therefore resolve nothing.
type Machine struct {
	family      Family
	transitions []Transition
}

// NewMachine builds a machine from its transition table.
func NewMachine(family Family, transitions ...Transition) *Machine {
	return &Machine{family: family, transitions: transitions}
}

// Family returns the case family this machine governs.
func (m *Machine) Family() Family {
	return m.family
}

// LegalTransitions returns the outgoing edges from the given status.
func (m *Machine) LegalTransitions(from Status) []Transition {
	var out []Transition
	for _, t := range m.transitions {
		if t.From == from {
			out = append(out, t)
		}
	}
	return out
}

// Resolve finds the edge for (status, action) or rejects the attempt.
func (m *Machine) Resolve(from Status, action Action) (Transition, error) {
	for _, t := range m.transitions {
		if t.From == from && t.Action == action {
			return t, nil
		}
	}
	return Transition{}, appErrors.Clone(appErrors.ErrIllegalTransition,
		fmt.Sprintf("action %s is not allowed while the case is %s", action, from))
}

// Terminal reports whether the status has no outgoing edges.
func (m *Machine) Terminal(s Status) bool {
	return len(m.LegalTransitions(s)) == 0
}

func guardFailed(message string) error {
	return appErrors.Clone(appErrors.ErrGuardFailed, message)
}
