package battle

import "errors"

// All operation failures are reported through this fixed set so callers can
// branch with errors.Is and map them to stable API codes.
var (
	ErrNotFound         = errors.New("battle not found")
	ErrForbidden        = errors.New("not permitted for this battle")
	ErrInvalidState     = errors.New("operation not valid in current battle state")
	ErrInvalidTarget    = errors.New("invalid battle target")
	ErrDuplicateRequest = errors.New("an open battle already exists between these users")
	ErrDuplicatePlay    = errors.New("already played a card this round")
	ErrInsufficientDeck = errors.New("player has no configured cards")
	ErrUnavailable      = errors.New("battle store unavailable, retry later")
)
