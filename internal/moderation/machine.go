// Package moderation implements the pending/validated/rejected workflow shared
// by every moderatable record.
package moderation

import (
	"fmt"
	"strings"
	"time"

	"github.com/emrgen/lexicon/internal/apperr"
	"github.com/emrgen/lexicon/internal/model"
	"gorm.io/gorm"
)

// Actor is the caller of an operation as resolved by the auth provider.
type Actor struct {
	ID          string
	CanModerate bool
}

// Check rejects anonymous actors.
func (a Actor) Check() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("%w: actor id is required", apperr.ErrValidation)
	}
	return nil
}

// unborn is the state of a record that has not been created yet.
const unborn model.ValidationStatus = ""

// Machine enforces the moderation transitions.
type Machine struct {
	transitions map[model.ValidationStatus]map[model.Action]model.ValidationStatus
}

// NewMachine creates the machine with the dictionary workflow:
// edits send judged content back to pending, only pending content can be
// judged, deletion keeps the last status for the audit trail.
func NewMachine() *Machine {
	return &Machine{
		transitions: map[model.ValidationStatus]map[model.Action]model.ValidationStatus{
			unborn: {
				model.ActionCreate: model.StatusPending,
			},
			model.StatusPending: {
				model.ActionValidate: model.StatusValidated,
				model.ActionReject:   model.StatusRejected,
				model.ActionUpdate:   model.StatusPending,
				model.ActionDelete:   model.StatusPending,
			},
			model.StatusValidated: {
				model.ActionUpdate: model.StatusPending,
				model.ActionDelete: model.StatusValidated,
			},
			model.StatusRejected: {
				model.ActionUpdate: model.StatusPending,
				model.ActionDelete: model.StatusRejected,
			},
		},
	}
}

// Next returns the status reached from `from` through action.
func (m *Machine) Next(from model.ValidationStatus, action model.Action) (model.ValidationStatus, error) {
	to, ok := m.transitions[from][action]
	if !ok {
		return from, fmt.Errorf("%w: cannot %s a %s entity", apperr.ErrInvalidTransition, action, describe(from))
	}
	return to, nil
}

// CanTransition reports whether action is allowed from status `from`.
func (m *Machine) CanTransition(from model.ValidationStatus, action model.Action) bool {
	_, ok := m.transitions[from][action]
	return ok
}

// Allowed returns the actions allowed from status `from`.
func (m *Machine) Allowed(from model.ValidationStatus) []model.Action {
	var out []model.Action
	for _, action := range []model.Action{model.ActionCreate, model.ActionUpdate, model.ActionValidate, model.ActionReject, model.ActionDelete} {
		if m.CanTransition(from, action) {
			out = append(out, action)
		}
	}
	return out
}

// Apply moves e through action on behalf of actor. Validate and reject
// require the moderation capability and stamp validationDate/validatedBy.
// An edit resets the status to pending but keeps the last judgement stamps.
func (m *Machine) Apply(e *model.Entity, action model.Action, actor Actor, now time.Time) error {
	if err := actor.Check(); err != nil {
		return err
	}
	if e.IsDeleted() {
		return fmt.Errorf("%w: entity %s is deleted", apperr.ErrInvalidTransition, e.ID)
	}

	judging := action == model.ActionValidate || action == model.ActionReject
	if judging && !actor.CanModerate {
		return fmt.Errorf("%w: %s requires moderation capability", apperr.ErrInvalidTransition, action)
	}

	to, err := m.Next(e.ValidationStatus, action)
	if err != nil {
		return err
	}

	switch action {
	case model.ActionCreate:
		e.CreatedBy = actor.ID
	case model.ActionValidate, model.ActionReject:
		at := now
		by := actor.ID
		e.ValidationDate = &at
		e.ValidatedBy = &by
	case model.ActionDelete:
		e.DeletedAt = gorm.DeletedAt{Time: now, Valid: true}
	}
	e.ValidationStatus = to

	return nil
}

func describe(s model.ValidationStatus) string {
	if s == unborn {
		return "new"
	}
	return string(s)
}
