package storage

import "errors"

// ErrUnavailable marks failures where the backing store could not be reached.
var ErrUnavailable = errors.New("storage unavailable")
