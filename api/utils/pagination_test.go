package utils

import (
	"net/http/httptest"
	"testing"
)

func TestExtractPagination(t *testing.T) {
	cases := []struct {
		name       string
		url        string
		wantPage   int
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{"defaults", "/crm/proposals/get-proposals", 1, 25, 0, false},
		{"explicit", "/crm/proposals/get-proposals?page=3&limit=10", 3, 10, 20, false},
		{"zero page", "/crm/proposals/get-proposals?page=0", 0, 0, 0, true},
		{"negative limit", "/crm/proposals/get-proposals?limit=-5", 0, 0, 0, true},
		{"not a number", "/crm/proposals/get-proposals?page=abc", 0, 0, 0, true},
	}
	for _, c := range cases {
		r := httptest.NewRequest("GET", c.url, nil)
		p, err := ExtractPagination(r)
		if c.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", c.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if p.Page != c.wantPage || p.Limit != c.wantLimit || p.Offset != c.wantOffset {
			t.Errorf("%s: got page=%d limit=%d offset=%d", c.name, p.Page, p.Limit, p.Offset)
		}
	}
}

func TestSetPaginationStats(t *testing.T) {
	p := PaginationParams{Page: 1, Limit: 25}
	p.SetPaginationStats(101)
	if p.TotalRecords != 101 || p.TotalPages != 5 {
		t.Errorf("101 records at limit 25: got %d records, %d pages", p.TotalRecords, p.TotalPages)
	}
	p.SetPaginationStats(0)
	if p.TotalPages != 0 {
		t.Errorf("zero records must yield zero pages, got %d", p.TotalPages)
	}
}
