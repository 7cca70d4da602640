package ticketing

import "errors"

var (
	// ErrConfigurationMissing is returned when a guild has no usable
	// configuration (no config stored, or no ticket category set).
	ErrConfigurationMissing = errors.New("guild configuration missing or incomplete")

	// ErrPermissionDenied is returned when the actor lacks the role a
	// transition requires.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrRosterFull is returned when every helper slot is occupied.
	ErrRosterFull = errors.New("helper roster is full")

	// ErrAlreadyJoined is returned on a duplicate join.
	ErrAlreadyJoined = errors.New("already in the helper roster")

	// ErrNotJoined is returned when leaving a roster the actor is not in.
	ErrNotJoined = errors.New("not in the helper roster")

	// ErrHelperNotFound is returned when removing a helper that is not in
	// the roster. The roster is left unchanged.
	ErrHelperNotFound = errors.New("helper not found in roster")

	// ErrNoSession is returned when a channel has no open ticket session.
	ErrNoSession = errors.New("no open ticket session for channel")

	// ErrSessionClosed is returned when mutating a session that has left
	// the open state.
	ErrSessionClosed = errors.New("ticket session is closed")
)
