package recovery

import "fmt"

// SequenceMismatchError reports a resend answered with a different
// sequence, which happens when the requested one does not fit the one-byte
// header.
type SequenceMismatchError struct {
	Requested int32
	Received  int32
}

func (e *SequenceMismatchError) Error() string {
	return fmt.Sprintf("recovery: requested sequence %d, received %d", e.Requested, e.Received)
}
