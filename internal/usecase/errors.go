package usecase

import "errors"

var (
	// ErrPreconditionFailed rejects a command whose preconditions do
	// not hold, e.g. starting a game with a single player.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrIdentityUnavailable means anonymous identity provisioning
	// failed; callers fall back to a locally generated identifier
	// instead of blocking the user.
	ErrIdentityUnavailable = errors.New("identity unavailable")
)
