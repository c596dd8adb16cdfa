package service

import (
	"fmt"

	"github.com/emrgen/lexicon/internal/apperr"
)

var (
	// ErrNothingToUpdate is returned when an update leaves every field as it was.
	ErrNothingToUpdate = fmt.Errorf("%w: nothing to update", apperr.ErrValidation)
	// ErrTermTaken is returned when another word already uses the term.
	ErrTermTaken = fmt.Errorf("%w: term already exists", apperr.ErrValidation)
	// ErrNotASnapshot is returned when a revert points at a ledger row that does not hold an entity snapshot.
	ErrNotASnapshot = fmt.Errorf("%w: contribution does not hold an entity snapshot", apperr.ErrValidation)
)
