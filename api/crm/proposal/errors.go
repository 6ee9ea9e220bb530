package proposal

import (
	"fmt"
	"strings"
)

// ValidationError blocks a submission before any store call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// FetchError wraps a backend read failure. Operations that hit one yield
// empty data and surface the error; they never return partial results.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string { return "fetch " + e.Op + ": " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// WriteError wraps an insert/update failure. No automatic retry.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string { return "write " + e.Op + ": " + e.Err.Error() }
func (e *WriteError) Unwrap() error { return e.Err }

// PartialWriteWarning reports that the proposal header was created but one
// or more line items failed to persist. The header stays in place and is
// flagged for item repair; this is less severe than a WriteError.
type PartialWriteWarning struct {
	ProposalID  string
	FailedItems []int // indexes into the submitted item list
	Errs        []error
}

func (w *PartialWriteWarning) Error() string {
	msgs := make([]string, 0, len(w.Errs))
	for _, e := range w.Errs {
		msgs = append(msgs, e.Error())
	}
	return fmt.Sprintf("proposal %s created but %d item(s) failed: %s",
		w.ProposalID, len(w.FailedItems), strings.Join(msgs, "; "))
}
