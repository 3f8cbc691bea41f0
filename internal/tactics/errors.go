package tactics

import "errors"

var (
	// ErrUnitNotFound signals that a referenced unit id is absent from the
	// current roster.
	ErrUnitNotFound = errors.New("unit not found")

	// ErrInvalidAttack signals a same-team or out-of-reach attack attempt.
	ErrInvalidAttack = errors.New("cannot attack target")

	// ErrInvalidMove signals a destination outside the unit's reachable
	// tiles or one already occupied.
	ErrInvalidMove = errors.New("invalid move")
)
