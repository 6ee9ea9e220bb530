package scope

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

type Role string

const (
	RoleAdmin           Role = "admin"
	RoleManager         Role = "manager"
	RoleRegionalManager Role = "regional_manager"
	RoleFieldUser       Role = "field_user"
)

type Resource string

const (
	ResourceClinics        Resource = "clinics"
	ResourceProposals      Resource = "proposals"
	ResourceSurgeryReports Resource = "surgery_reports"
	ResourceVisitReports   Resource = "visit_reports"
)

// User is the slice of the authenticated user that scoping needs.
type User struct {
	ID       string
	Role     Role
	RegionID string // empty when unassigned
}

// MissingRegionPolicy decides what happens when a region-scoped role has no
// region_id. The legacy behavior silently skipped the filter and granted
// broad access; deny is the default here.
type MissingRegionPolicy int

const (
	DenyWhenRegionMissing MissingRegionPolicy = iota
	AllowWhenRegionMissing
)

// ClinicResolver pre-resolves the clinic ids belonging to a region, for
// resources that only relate to a region through their clinic.
type ClinicResolver interface {
	ClinicIDsInRegion(ctx context.Context, regionID string) ([]string, error)
}

// SQLClinicResolver resolves clinic ids straight from the clinics table.
type SQLClinicResolver struct {
	DB *sql.DB
}

func (r *SQLClinicResolver) ClinicIDsInRegion(ctx context.Context, regionID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id FROM clinics WHERE region_id = $1 AND status = 'active'`, regionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Scope is the resolved visibility filter for one user on one resource.
// Exactly one of Unrestricted/DenyAll or one filter field is set.
type Scope struct {
	Unrestricted bool
	DenyAll      bool
	OwnerID      string   // filter rows by user_id
	RegionID     string   // filter clinics by region_id
	ClinicIDs    []string // filter rows by clinic_id membership
}

type Builder struct {
	Clinics ClinicResolver
	Policy  MissingRegionPolicy
}

// For computes the scope for a user on a resource.
//
// admin/manager see everything. regional_manager sees rows tied to clinics
// in their region. field_user sees their own rows, except clinic listings
// which are region-scoped like regional_manager. Failed or empty clinic-id
// resolution yields DenyAll, never unrestricted.
func (b *Builder) For(ctx context.Context, u User, res Resource) (Scope, error) {
	switch u.Role {
	case RoleAdmin, RoleManager:
		return Scope{Unrestricted: true}, nil

	case RoleRegionalManager:
		return b.regionScope(ctx, u, res)

	case RoleFieldUser:
		if res == ResourceClinics {
			return b.regionScope(ctx, u, res)
		}
		return Scope{OwnerID: u.ID}, nil

	default:
		return Scope{DenyAll: true}, fmt.Errorf("unknown role %q", u.Role)
	}
}

func (b *Builder) regionScope(ctx context.Context, u User, res Resource) (Scope, error) {
	if u.RegionID == "" {
		if b.Policy == AllowWhenRegionMissing {
			return Scope{Unrestricted: true}, nil
		}
		return Scope{DenyAll: true}, nil
	}
	if res == ResourceClinics {
		return Scope{RegionID: u.RegionID}, nil
	}
	ids, err := b.Clinics.ClinicIDsInRegion(ctx, u.RegionID)
	if err != nil {
		return Scope{DenyAll: true}, err
	}
	if len(ids) == 0 {
		return Scope{DenyAll: true}, nil
	}
	return Scope{ClinicIDs: ids}, nil
}

// WhereClause renders the scope as a SQL predicate starting at the given
// placeholder index. Unrestricted yields an empty clause; DenyAll yields a
// clause that matches nothing.
func (s Scope) WhereClause(argIndex int) (string, []interface{}) {
	switch {
	case s.DenyAll:
		return "FALSE", nil
	case s.Unrestricted:
		return "", nil
	case s.OwnerID != "":
		return fmt.Sprintf("user_id = $%d", argIndex), []interface{}{s.OwnerID}
	case s.RegionID != "":
		return fmt.Sprintf("region_id = $%d", argIndex), []interface{}{s.RegionID}
	case len(s.ClinicIDs) > 0:
		return fmt.Sprintf("clinic_id = ANY($%d)", argIndex), []interface{}{pq.Array(s.ClinicIDs)}
	}
	return "FALSE", nil
}
