package covenant

import "errors"

// ErrEmptyHistory indicates an operation that requires at least one
// transition was given none. This is a caller precondition violation.
var ErrEmptyHistory = errors.New("empty transition history")

// ErrFacilityNotFound indicates a facility id that is not part of the
// loaded portfolio.
var ErrFacilityNotFound = errors.New("facility not found")
