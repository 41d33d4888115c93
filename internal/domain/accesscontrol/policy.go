package accesscontrol

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var policyModel string

// Resource names a guarded page or action.
type Resource string

const (
	ResourceInventory       Resource = "inventory"
	ResourceReports         Resource = "reports"
	ResourceSchedule        Resource = "schedule"
	ResourceStaff           Resource = "staff"
	ResourceProfile         Resource = "profile"
	ResourceAdminUsers      Resource = "admin.users"
	ResourceAdminLocations  Resource = "admin.locations"
	ResourceAdminMonitoring Resource = "admin.monitoring"
)

// AdminOnly reports whether the resource is reserved for RoleAdmin.
// Denials on these resources redirect without an error marker.
func (r Resource) AdminOnly() bool {
	switch r {
	case ResourceAdminUsers, ResourceAdminLocations, ResourceAdminMonitoring:
		return true
	}
	return false
}

// RoutePolicy is the single table of which roles may reach which resource.
var RoutePolicy = map[Resource][]RoleName{
	ResourceInventory: {RoleSystemAdmin, RoleMedicalDirector, RoleDepartmentHead, RoleNurse},
	ResourceReports:   {RoleSystemAdmin, RoleMedicalDirector, RoleDepartmentHead, RoleDoctor, RoleOffice},
	ResourceStaff:     {RoleSystemAdmin, RoleMedicalDirector, RoleDepartmentHead},
	ResourceSchedule:  Roles,
	ResourceProfile:   Roles,

	ResourceAdminUsers:      {RoleAdmin},
	ResourceAdminLocations:  {RoleAdmin},
	ResourceAdminMonitoring: {RoleAdmin},
}

// Policy answers allow-list questions against RoutePolicy.
type Policy struct {
	enforcer casbin.IEnforcer
}

// NewPolicy builds an in-memory enforcer seeded from table.
func NewPolicy(table map[Resource][]RoleName) (*Policy, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("parse policy model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create policy enforcer: %w", err)
	}

	var rules [][]string
	for resource, roles := range table {
		for _, role := range roles {
			rules = append(rules, []string{string(role), string(resource)})
		}
	}
	if len(rules) > 0 {
		if _, err := enforcer.AddPolicies(rules); err != nil {
			return nil, fmt.Errorf("load route policy: %w", err)
		}
	}

	return &Policy{enforcer: enforcer}, nil
}

// Allowed is false for the empty role and on any enforcer error.
func (p *Policy) Allowed(role RoleName, resource Resource) bool {
	if role == "" {
		return false
	}
	ok, err := p.enforcer.Enforce(string(role), string(resource))
	if err != nil {
		return false
	}
	return ok
}
