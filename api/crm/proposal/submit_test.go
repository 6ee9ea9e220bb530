package proposal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"MedFieldCRM/api/crm/rates"
)

// mockStore counts every call so tests can assert that validation
// failures never reach the database.
type mockStore struct {
	mu sync.Mutex

	existingToken string
	existingID    string

	failItemIdx map[int]error
	headerErr   error
	tokenErr    error

	findCalls   int
	headerCalls int
	itemCalls   int
	repairCalls int

	insertedHeader *Header
	insertedItems  []Item
	repairedItems  []Item
	itemSeq        int
}

func (m *mockStore) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findCalls + m.headerCalls + m.itemCalls + m.repairCalls
}

func (m *mockStore) FindByToken(ctx context.Context, token string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	if m.tokenErr != nil {
		return "", false, m.tokenErr
	}
	if m.existingToken != "" && token == m.existingToken {
		return m.existingID, true, nil
	}
	return "", false, nil
}

func (m *mockStore) InsertHeader(ctx context.Context, h Header, c *Calculator, t Totals) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headerCalls++
	if m.headerErr != nil {
		return "", m.headerErr
	}
	m.insertedHeader = &h
	return "prop-1", nil
}

func (m *mockStore) InsertItem(ctx context.Context, proposalID string, it Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.itemSeq
	m.itemSeq++
	m.itemCalls++
	if err, ok := m.failItemIdx[idx]; ok {
		return err
	}
	m.insertedItems = append(m.insertedItems, it)
	return nil
}

func (m *mockStore) MarkNeedsItemRepair(ctx context.Context, proposalID string, failed []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repairCalls++
	m.repairedItems = failed
	return nil
}

func validHeader() Header {
	return Header{ClinicID: "clinic-1", UserID: "user-1", Currency: rates.TRY}
}

func calcWithItems(t *testing.T, n int) *Calculator {
	t.Helper()
	c := NewCalculator(rates.NewStaticProvider(), rates.TRY)
	for i := 0; i < n; i++ {
		c.AddItem(mustItem(t, "1", "100", rates.TRY, "0"))
	}
	return c
}

func TestSubmitValidationBeforeAnyStoreCall(t *testing.T) {
	store := &mockStore{}
	o := NewOrchestrator(store, rates.NewStaticProvider())

	cases := []struct {
		name string
		h    Header
		calc *Calculator
	}{
		{"no clinic", Header{UserID: "u", Currency: rates.TRY}, calcWithItems(t, 1)},
		{"no user", Header{ClinicID: "c", Currency: rates.TRY}, calcWithItems(t, 1)},
		{"no items", validHeader(), calcWithItems(t, 0)},
		{"bad currency", Header{ClinicID: "c", UserID: "u", Currency: "GBP"}, calcWithItems(t, 1)},
	}
	for _, c := range cases {
		_, err := o.Submit(context.Background(), c.h, c.calc)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: expected ValidationError, got %v", c.name, err)
		}
	}
	if n := store.totalCalls(); n != 0 {
		t.Errorf("validation failures reached the store: %d calls", n)
	}
}

func TestSubmitHappyPath(t *testing.T) {
	store := &mockStore{}
	o := NewOrchestrator(store, rates.NewStaticProvider())

	res, err := o.Submit(context.Background(), validHeader(), calcWithItems(t, 3))
	if err != nil {
		t.Fatal(err)
	}
	if res.ProposalID != "prop-1" || res.Duplicate || res.Warning != nil {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(store.insertedItems) != 3 {
		t.Errorf("inserted %d items, want 3", len(store.insertedItems))
	}
	if store.insertedHeader.SubmissionToken == "" {
		t.Error("submission token not generated")
	}
	if !strings.Contains(store.insertedHeader.Notes, "Exchange rates at submission:") {
		t.Errorf("rate snapshot missing from notes: %q", store.insertedHeader.Notes)
	}
}

func TestSubmitKeepsUserNotes(t *testing.T) {
	store := &mockStore{}
	o := NewOrchestrator(store, rates.NewStaticProvider())

	h := validHeader()
	h.Notes = "patient prefers morning surgery"
	if _, err := o.Submit(context.Background(), h, calcWithItems(t, 1)); err != nil {
		t.Fatal(err)
	}
	notes := store.insertedHeader.Notes
	if !strings.HasPrefix(notes, "patient prefers morning surgery") {
		t.Errorf("user notes lost: %q", notes)
	}
	if !strings.Contains(notes, "1 USD = 37.9200 TRY") {
		t.Errorf("snapshot not appended: %q", notes)
	}
}

func TestSubmitDuplicateToken(t *testing.T) {
	store := &mockStore{existingToken: "tok-1", existingID: "prop-7"}
	o := NewOrchestrator(store, rates.NewStaticProvider())

	h := validHeader()
	h.SubmissionToken = "tok-1"
	res, err := o.Submit(context.Background(), h, calcWithItems(t, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Duplicate || res.ProposalID != "prop-7" {
		t.Errorf("duplicate not detected: %+v", res)
	}
	if store.headerCalls != 0 || store.itemCalls != 0 {
		t.Errorf("duplicate submission wrote to the store: %d/%d", store.headerCalls, store.itemCalls)
	}
}

func TestSubmitTokenLookupFailure(t *testing.T) {
	store := &mockStore{tokenErr: errors.New("db down")}
	o := NewOrchestrator(store, rates.NewStaticProvider())

	_, err := o.Submit(context.Background(), validHeader(), calcWithItems(t, 1))
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Errorf("expected FetchError, got %v", err)
	}
	if store.headerCalls != 0 {
		t.Error("header written despite token lookup failure")
	}
}

func TestSubmitHeaderFailure(t *testing.T) {
	store := &mockStore{headerErr: errors.New("insert failed")}
	o := NewOrchestrator(store, rates.NewStaticProvider())

	_, err := o.Submit(context.Background(), validHeader(), calcWithItems(t, 2))
	var we *WriteError
	if !errors.As(err, &we) {
		t.Errorf("expected WriteError, got %v", err)
	}
	if store.itemCalls != 0 {
		t.Error("items written despite header failure")
	}
}

func TestSubmitPartialItemFailure(t *testing.T) {
	store := &mockStore{failItemIdx: map[int]error{1: errors.New("constraint violation")}}
	o := NewOrchestrator(store, rates.NewStaticProvider())

	res, err := o.Submit(context.Background(), validHeader(), calcWithItems(t, 3))
	if err != nil {
		t.Fatalf("partial failure must not fail the submission: %v", err)
	}
	if res.Warning == nil {
		t.Fatal("expected a partial write warning")
	}
	if len(res.Warning.FailedItems) != 1 {
		t.Errorf("failed items = %v, want exactly one", res.Warning.FailedItems)
	}
	if res.ProposalID != "prop-1" {
		t.Errorf("header should survive: %+v", res)
	}
	if store.repairCalls != 1 || len(store.repairedItems) != 1 {
		t.Errorf("repair queue not populated: calls=%d items=%d", store.repairCalls, len(store.repairedItems))
	}
}
