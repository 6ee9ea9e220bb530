package location

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"MedFieldCRM/api"
	"MedFieldCRM/api/crm/scope"
	"MedFieldCRM/internal/dashboard"
)

func ctxWithScopeUser(u scope.User) context.Context {
	return context.WithValue(context.Background(), api.ScopeUserKey, u)
}

func TestLiveLocationsRequiresSession(t *testing.T) {
	hub := dashboard.NewHub()
	h := LiveLocations(hub)

	req := httptest.NewRequest(http.MethodGet, "/location/live", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous subscriber got %d, want 401", rec.Code)
	}
	hub.Publish(dashboard.LocationEvent{UserID: "field-user-9", Latitude: 41, Longitude: 29, Event: "ping"})
	if strings.Contains(rec.Body.String(), "field-user-9") {
		t.Errorf("anonymous subscriber received location data: %q", rec.Body.String())
	}
}

func TestLiveLocationsRejectsNonManagers(t *testing.T) {
	h := LiveLocations(dashboard.NewHub())
	for _, role := range []scope.Role{scope.RoleFieldUser, scope.RoleRegionalManager} {
		req := httptest.NewRequest(http.MethodGet, "/location/live", nil)
		req = req.WithContext(ctxWithScopeUser(scope.User{ID: "u1", Role: role, RegionID: "r1"}))
		rec := httptest.NewRecorder()
		h(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s subscriber got %d, want 403", role, rec.Code)
		}
	}
}

func TestLiveLocationsStreamsToManager(t *testing.T) {
	hub := dashboard.NewHub()
	h := LiveLocations(hub)

	ctx, cancel := context.WithCancel(ctxWithScopeUser(scope.User{ID: "m1", Role: scope.RoleManager}))
	req := httptest.NewRequest(http.MethodGet, "/location/live", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h(rec, req)
	}()

	// the subscription attaches asynchronously; keep publishing until the
	// handler has had a chance to register
	for i := 0; i < 20; i++ {
		hub.Publish(dashboard.LocationEvent{UserID: "field-user-9", Latitude: 41, Longitude: 29, Event: "ping"})
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	wg.Wait()

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q, want text/event-stream", ct)
	}
	body := rec.Body.String()
	var ev dashboard.LocationEvent
	found := false
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				t.Fatalf("bad event payload: %v", err)
			}
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("manager stream carried no events: %q", body)
	}
	if ev.UserID != "field-user-9" || ev.Latitude != 41 || ev.Longitude != 29 {
		t.Errorf("decoded event = %+v", ev)
	}
}
