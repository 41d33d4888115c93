package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtectedPagesRedirectAnonymousToLogin(t *testing.T) {
	env := newTestEnv(t)

	pages := []string{
		"/",
		"/dashboard",
		"/dashboard/nurse",
		"/dashboard/inventory",
		"/dashboard/reports",
		"/dashboard/schedule",
		"/dashboard/staff",
		"/dashboard/profile",
		"/dashboard/admin/users",
		"/dashboard/admin/users/create",
		"/dashboard/admin/locations",
		"/admin/monitoring",
	}

	for _, page := range pages {
		t.Run(page, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, page, "", nil)

			assert.Equal(t, http.StatusSeeOther, rr.Code)
			assert.Equal(t, "/auth/login", rr.Header().Get("Location"))
		})
	}

	t.Run("invalid token", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/dashboard/inventory", "forged", nil)
		assert.Equal(t, "/auth/login", rr.Header().Get("Location"))
	})
}

func TestHomeRouting(t *testing.T) {
	env := newTestEnv(t)

	t.Run("unassigned user sees the pending notice", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/", "pending", nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Access pending")
		assert.Contains(t, rr.Body.String(), "pending@portal.test")
	})

	t.Run("assigned user goes to the role dashboard", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/", "nurse", nil)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/dashboard/nurse", rr.Header().Get("Location"))
	})
}

func TestDashboardRedirect(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/dashboard?error=access_denied", "doctor", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard/doctor?error=access_denied", rr.Header().Get("Location"))

	rr = env.do(t, http.MethodGet, "/dashboard", "pending", nil)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestRoleDashboard(t *testing.T) {
	env := newTestEnv(t)

	t.Run("own role", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/dashboard/nurse", "nurse", nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, `href="/dashboard/inventory"`)
		assert.Contains(t, body, `href="/dashboard/schedule"`)
		assert.NotContains(t, body, `href="/dashboard/reports"`)
		assert.NotContains(t, body, `href="/dashboard/admin/users"`)
	})

	t.Run("another role", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/dashboard/doctor", "nurse", nil)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/dashboard?error=access_denied", rr.Header().Get("Location"))
	})

	t.Run("denial marker is shown", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/dashboard/nurse?error=access_denied", "nurse", nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "You do not have access to that page.")
	})

	t.Run("admin dashboard is not shadowed by admin pages", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/dashboard/admin", "admin", nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `href="/dashboard/admin/users"`)
	})
}

func TestRouteGuard(t *testing.T) {
	env := newTestEnv(t)

	const denied = "/dashboard?error=access_denied"

	tests := []struct {
		token    string
		path     string
		status   int
		location string
	}{
		{"nurse", "/dashboard/inventory", http.StatusOK, ""},
		{"system_admin", "/dashboard/inventory", http.StatusOK, ""},
		{"doctor", "/dashboard/inventory", http.StatusSeeOther, denied},
		{"admin", "/dashboard/inventory", http.StatusSeeOther, denied},
		{"pending", "/dashboard/inventory", http.StatusSeeOther, denied},

		{"doctor", "/dashboard/reports", http.StatusOK, ""},
		{"office", "/dashboard/reports", http.StatusOK, ""},
		{"nurse", "/dashboard/reports", http.StatusSeeOther, denied},

		{"department_head", "/dashboard/staff", http.StatusOK, ""},
		{"office", "/dashboard/staff", http.StatusSeeOther, denied},

		{"owner", "/dashboard/schedule", http.StatusOK, ""},
		{"pending", "/dashboard/schedule", http.StatusSeeOther, denied},

		{"retailer", "/dashboard/profile", http.StatusOK, ""},

		{"admin", "/dashboard/admin/users", http.StatusOK, ""},
		{"admin", "/dashboard/admin/users/create", http.StatusOK, ""},
		{"admin", "/dashboard/admin/locations", http.StatusOK, ""},
		{"admin", "/admin/monitoring", http.StatusOK, ""},
		{"system_admin", "/dashboard/admin/users", http.StatusSeeOther, "/dashboard"},
		{"system_admin", "/dashboard/admin/locations", http.StatusSeeOther, "/dashboard"},
		{"system_admin", "/admin/monitoring", http.StatusSeeOther, "/dashboard"},
		{"pending", "/admin/monitoring", http.StatusSeeOther, "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.token+" "+tt.path, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, tt.path, tt.token, nil)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.location, rr.Header().Get("Location"))
		})
	}
}

func TestStaffPageUsesCallerScope(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/dashboard/staff", "medical_director", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, env.users.listScope.LocationID)

	rr = env.do(t, http.MethodGet, "/dashboard/admin/users?role=nurse", "admin", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `<option value="nurse" selected>`)
}

func TestUnknownPathRendersNotFound(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/nowhere", "", nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "does not exist")
}
