package bus

import "errors"

// ErrNotRegistered is returned by AwaitMessage when called for a
// participant that has no mailbox, either because it never registered or
// because it has already unregistered.
var ErrNotRegistered = errors.New("bus: participant not registered")
