package learning

import "errors"

// ErrStorageUnavailable wraps any unreachable-storage condition. The failing
// operation is abandoned, not retried; callers treat it as non-fatal and
// degrade to "no adaptive response available".
var ErrStorageUnavailable = errors.New("learning: storage unavailable")
