package entity

import "errors"

// Domain errors for the review scheduling aggregates.
var (
	ErrItemNotFound         = errors.New("learning item not found")
	ErrDuplicateItem        = errors.New("learning item already exists")
	ErrInvalidItemTerm      = errors.New("invalid learning item term")
	ErrProgressNotFound     = errors.New("progress record not found")
	ErrConflict             = errors.New("concurrent progress update conflict")
	ErrInvalidAttempt       = errors.New("invalid attempt payload")
	ErrInvalidLearnerID     = errors.New("invalid learner ID")
	ErrInvalidFilter        = errors.New("invalid filter expression")
	ErrInvalidConfiguration = errors.New("invalid scheduler configuration")
)
