package proposal

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"MedFieldCRM/api/crm/rates"
	"MedFieldCRM/internal/logger"

	"github.com/google/uuid"
)

// Header is the proposal header as entered on the form. Status is not a
// field: every new proposal is created as pending.
type Header struct {
	ClinicID        string
	UserID          string
	Currency        rates.Currency
	Notes           string
	SubmissionToken string // client-generated; dedupes double taps
}

// Store is the persistence boundary of the orchestrator. Kept narrow so
// submission behavior is observable in tests without a database.
type Store interface {
	// FindByToken returns the id of an existing proposal carrying the
	// submission token, if any.
	FindByToken(ctx context.Context, token string) (string, bool, error)
	InsertHeader(ctx context.Context, h Header, c *Calculator, t Totals) (string, error)
	InsertItem(ctx context.Context, proposalID string, it Item) error
	// MarkNeedsItemRepair flags the header and queues the failed items for
	// the repair sweep.
	MarkNeedsItemRepair(ctx context.Context, proposalID string, failed []Item) error
}

type SubmitResult struct {
	ProposalID string
	Duplicate  bool
	Totals     Totals
	Warning    *PartialWriteWarning
}

// Orchestrator runs the two-phase proposal write: header first, then all
// line items. The two phases are not atomic; a partial item failure leaves
// the header in place, flagged for repair, and is reported as a warning
// rather than a failure.
type Orchestrator struct {
	store Store
	rates rates.RateProvider
}

func NewOrchestrator(store Store, rp rates.RateProvider) *Orchestrator {
	return &Orchestrator{store: store, rates: rp}
}

// Submit validates, dedupes, and persists a proposal. Validation failures
// return before any store call.
func (o *Orchestrator) Submit(ctx context.Context, h Header, calc *Calculator) (SubmitResult, error) {
	if h.ClinicID == "" {
		return SubmitResult{}, &ValidationError{Field: "clinic_id", Reason: "a clinic must be selected"}
	}
	if h.UserID == "" {
		return SubmitResult{}, &ValidationError{Field: "user_id", Reason: "required"}
	}
	items := calc.Items()
	if len(items) == 0 {
		return SubmitResult{}, &ValidationError{Field: "items", Reason: "at least one item is required"}
	}
	if !rates.IsSupported(h.Currency) {
		return SubmitResult{}, &ValidationError{Field: "currency", Reason: "must be one of TRY, USD, EUR"}
	}

	if h.SubmissionToken == "" {
		h.SubmissionToken = uuid.NewString()
	}
	if existingID, found, err := o.store.FindByToken(ctx, h.SubmissionToken); err != nil {
		return SubmitResult{}, &FetchError{Op: "submission token", Err: err}
	} else if found {
		logger.Audit(fmt.Sprintf("duplicate submission token %s, returning proposal %s", h.SubmissionToken, existingID))
		return SubmitResult{ProposalID: existingID, Duplicate: true, Totals: calc.Totals()}, nil
	}

	// The static rate table is not persisted anywhere else; the snapshot in
	// the notes is the only durable record of the rates used.
	h.Notes = appendSnapshot(h.Notes, rates.Snapshot(o.rates))

	totals := calc.Totals()
	proposalID, err := o.store.InsertHeader(ctx, h, calc, totals)
	if err != nil {
		return SubmitResult{}, &WriteError{Op: "proposal header", Err: err}
	}

	// Items are written concurrently; each failure is collected per index.
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		failed []int
		errs   []error
	)
	for i := range items {
		wg.Add(1)
		go func(idx int, it Item) {
			defer wg.Done()
			if err := o.store.InsertItem(ctx, proposalID, it); err != nil {
				mu.Lock()
				failed = append(failed, idx)
				errs = append(errs, err)
				mu.Unlock()
			}
		}(i, items[i])
	}
	wg.Wait()

	result := SubmitResult{ProposalID: proposalID, Totals: totals}
	if len(failed) > 0 {
		sort.Ints(failed)
		failedItems := make([]Item, 0, len(failed))
		for _, idx := range failed {
			failedItems = append(failedItems, items[idx])
		}
		if err := o.store.MarkNeedsItemRepair(ctx, proposalID, failedItems); err != nil {
			logger.Warn(fmt.Sprintf("proposal %s: failed to flag for item repair: %v", proposalID, err))
		}
		result.Warning = &PartialWriteWarning{ProposalID: proposalID, FailedItems: failed, Errs: errs}
		logger.Warn(result.Warning.Error())
	}
	return result, nil
}

func appendSnapshot(notes, snapshot string) string {
	if notes == "" {
		return snapshot
	}
	return notes + "\n\n" + snapshot
}
