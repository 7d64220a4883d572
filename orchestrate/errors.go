package orchestrate

import "errors"

// ErrNilResult indicates a handler returned neither a result nor an
// error, which violates the handler contract.
var ErrNilResult = errors.New("orchestrate: handler returned nil result")
