package permissions_test

import (
	"net/http"
	"testing"

	"cleanbook/permissions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	data := permissions.Get()
	require.NotNil(t, data)
	assert.False(t, data.Skip)
	assert.NotEmpty(t, data.Endpoints)

	for _, endpoint := range data.Endpoints {
		assert.True(t, endpoint.Skip || len(endpoint.Permissions) > 0, "%s %s has neither roles nor skip", endpoint.Method, endpoint.Path)
	}
}

func TestPermissionData_FindPermissions(t *testing.T) {
	data := permissions.Get()
	require.NotNil(t, data)

	t.Run("subrouter root with trailing slash", func(t *testing.T) {
		perm := data.FindPermissions("/v1/bookings/", http.MethodPost)
		assert.Equal(t, []string{"customer"}, perm.Permissions)
	})

	t.Run("path parameter pattern", func(t *testing.T) {
		perm := data.FindPermissions("/v1/bookings/{id}/cleaner", http.MethodPatch)
		assert.Equal(t, []string{"admin"}, perm.Permissions)
	})

	t.Run("public route", func(t *testing.T) {
		assert.True(t, data.FindPermissions("/v1/services/", http.MethodGet).Skip)
		assert.True(t, data.FindPermissions("/v1/auth/login", http.MethodPost).Skip)
	})

	t.Run("same path different method", func(t *testing.T) {
		assert.True(t, data.FindPermissions("/v1/services", http.MethodGet).Skip)
		assert.False(t, data.FindPermissions("/v1/services", http.MethodPost).Skip)
	})

	t.Run("unknown route", func(t *testing.T) {
		assert.Equal(t, permissions.Permission{}, data.FindPermissions("/v1/unknown", http.MethodGet))
	})
}

func TestPermission_Allows(t *testing.T) {
	admins := permissions.Permission{Permissions: []string{"admin"}}

	assert.True(t, admins.Allows("admin"))
	assert.False(t, admins.Allows("cleaner"))
	assert.False(t, admins.Allows(""))
	assert.True(t, permissions.Permission{}.Allows("customer"), "no roles means any authenticated caller")
}

func TestPermissionData_ZeroValue(t *testing.T) {
	data := &permissions.PermissionData{Endpoints: []permissions.Permission{
		{Path: "/v1/reviews/", Method: "post", Permissions: []string{"customer"}},
	}}

	assert.Equal(t, []string{"customer"}, data.FindPermissions("/v1/reviews", http.MethodPost).Permissions)
}
