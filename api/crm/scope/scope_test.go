package scope

import (
	"context"
	"errors"
	"testing"
)

type fakeResolver struct {
	ids []string
	err error
}

func (f *fakeResolver) ClinicIDsInRegion(ctx context.Context, regionID string) ([]string, error) {
	return f.ids, f.err
}

func TestAdminAndManagerUnrestricted(t *testing.T) {
	b := &Builder{Clinics: &fakeResolver{err: errors.New("must not be called")}}
	for _, role := range []Role{RoleAdmin, RoleManager} {
		s, err := b.For(context.Background(), User{ID: "u1", Role: role}, ResourceProposals)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", role, err)
		}
		if !s.Unrestricted {
			t.Errorf("%s should be unrestricted, got %+v", role, s)
		}
	}
}

func TestRegionalManagerProposalsScopedToClinics(t *testing.T) {
	b := &Builder{Clinics: &fakeResolver{ids: []string{"c1", "c2"}}}
	u := User{ID: "u1", Role: RoleRegionalManager, RegionID: "r1"}
	s, err := b.For(context.Background(), u, ResourceProposals)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.ClinicIDs) != 2 {
		t.Errorf("expected clinic-id scope, got %+v", s)
	}
}

func TestRegionalManagerClinicsScopedToRegion(t *testing.T) {
	b := &Builder{Clinics: &fakeResolver{err: errors.New("must not be called for clinics")}}
	u := User{ID: "u1", Role: RoleRegionalManager, RegionID: "r1"}
	s, err := b.For(context.Background(), u, ResourceClinics)
	if err != nil {
		t.Fatal(err)
	}
	if s.RegionID != "r1" {
		t.Errorf("expected region scope, got %+v", s)
	}
}

func TestFieldUserSeesOwnRows(t *testing.T) {
	b := &Builder{Clinics: &fakeResolver{}}
	u := User{ID: "u9", Role: RoleFieldUser, RegionID: "r1"}
	for _, res := range []Resource{ResourceProposals, ResourceSurgeryReports, ResourceVisitReports} {
		s, err := b.For(context.Background(), u, res)
		if err != nil {
			t.Fatal(err)
		}
		if s.OwnerID != "u9" {
			t.Errorf("%s: expected owner scope, got %+v", res, s)
		}
	}
}

func TestFieldUserClinicsAreRegionScoped(t *testing.T) {
	b := &Builder{Clinics: &fakeResolver{}}
	u := User{ID: "u9", Role: RoleFieldUser, RegionID: "r1"}
	s, err := b.For(context.Background(), u, ResourceClinics)
	if err != nil {
		t.Fatal(err)
	}
	if s.RegionID != "r1" {
		t.Errorf("expected region scope for clinic listing, got %+v", s)
	}
}

func TestMissingRegionDeniesByDefault(t *testing.T) {
	b := &Builder{Clinics: &fakeResolver{ids: []string{"c1"}}}
	u := User{ID: "u1", Role: RoleRegionalManager}
	s, err := b.For(context.Background(), u, ResourceProposals)
	if err != nil {
		t.Fatal(err)
	}
	if !s.DenyAll {
		t.Errorf("missing region must deny, got %+v", s)
	}
}

func TestMissingRegionAllowPolicy(t *testing.T) {
	b := &Builder{Clinics: &fakeResolver{}, Policy: AllowWhenRegionMissing}
	u := User{ID: "u1", Role: RoleRegionalManager}
	s, err := b.For(context.Background(), u, ResourceProposals)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Unrestricted {
		t.Errorf("allow policy must grant access, got %+v", s)
	}
}

func TestResolverFailureDeniesAll(t *testing.T) {
	b := &Builder{Clinics: &fakeResolver{err: errors.New("db down")}}
	u := User{ID: "u1", Role: RoleRegionalManager, RegionID: "r1"}
	s, err := b.For(context.Background(), u, ResourceProposals)
	if err == nil {
		t.Fatal("expected resolver error to surface")
	}
	if !s.DenyAll {
		t.Errorf("resolver failure must deny, got %+v", s)
	}
}

func TestEmptyRegionDeniesAll(t *testing.T) {
	b := &Builder{Clinics: &fakeResolver{ids: nil}}
	u := User{ID: "u1", Role: RoleRegionalManager, RegionID: "r-empty"}
	s, err := b.For(context.Background(), u, ResourceProposals)
	if err != nil {
		t.Fatal(err)
	}
	if !s.DenyAll {
		t.Errorf("region without clinics must deny, got %+v", s)
	}
}

func TestUnknownRoleDeniesAll(t *testing.T) {
	b := &Builder{Clinics: &fakeResolver{}}
	s, err := b.For(context.Background(), User{ID: "u1", Role: "intern"}, ResourceProposals)
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
	if !s.DenyAll {
		t.Errorf("unknown role must deny, got %+v", s)
	}
}

func TestWhereClause(t *testing.T) {
	cases := []struct {
		name     string
		scope    Scope
		want     string
		wantArgs int
	}{
		{"unrestricted", Scope{Unrestricted: true}, "", 0},
		{"deny", Scope{DenyAll: true}, "FALSE", 0},
		{"owner", Scope{OwnerID: "u1"}, "user_id = $3", 1},
		{"region", Scope{RegionID: "r1"}, "region_id = $3", 1},
		{"clinics", Scope{ClinicIDs: []string{"c1"}}, "clinic_id = ANY($3)", 1},
		{"zero value", Scope{}, "FALSE", 0},
	}
	for _, c := range cases {
		clause, args := c.scope.WhereClause(3)
		if clause != c.want || len(args) != c.wantArgs {
			t.Errorf("%s: WhereClause(3) = %q, %d args; want %q, %d", c.name, clause, len(args), c.want, c.wantArgs)
		}
	}
}
