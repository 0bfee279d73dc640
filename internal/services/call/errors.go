package call

import (
	"errors"
	"fmt"
)

// ErrTrunkNotConfigured is returned by Dispatch when no outbound SIP trunk id
// is configured. Fatal to the dispatch attempt; surfaced to the caller.
var ErrTrunkNotConfigured = errors.New("SIP_OUTBOUND_TRUNK_ID is not configured")

// DispatchError wraps a room or participant provisioning failure. The caller
// may retry the whole dispatch: the delete-then-create step makes dispatch
// idempotent per phone number. The room is not guaranteed to have been cleaned
// up on failure.
type DispatchError struct {
	Op  string // which provisioning step failed
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Op, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
