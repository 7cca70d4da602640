package request

import "errors"

// ErrInternalServer is the message returned when a handler panics or fails
// unexpectedly.
var ErrInternalServer = errors.New("internal server error")
