package profile_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/backoffice-console/profile"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := profile.ParseRole(" admin ")
	require.NoError(t, err)
	require.Equal(t, profile.RoleAdmin, r)

	_, err = profile.ParseRole("SUPERUSER")
	require.Error(t, err)
}

func TestProfile_UnmarshalJSON(t *testing.T) {
	t.Run("decodes a manager", func(t *testing.T) {
		var p profile.Profile
		err := json.Unmarshal([]byte(`{
			"id": 42,
			"name": "Amina",
			"email": "amina@example.com",
			"role": "MANAGER",
			"permissions": ["SAV", "CONFIRMATEUR", "SAV"],
			"createdAt": "2024-05-01T10:00:00Z"
		}`), &p)
		require.NoError(t, err)
		require.Equal(t, "42", p.ID.String())
		require.Equal(t, profile.RoleManager, p.Role)
		require.Equal(t, profile.PermissionSet{profile.PermSAV, profile.PermConfirmateur}, p.Permissions)
		require.False(t, p.CreatedAt.IsZero())
	})

	t.Run("unknown permission is dropped", func(t *testing.T) {
		var p profile.Profile
		err := json.Unmarshal([]byte(`{"id":"u-1","role":"MANAGER","permissions":["COMPTABLE","SAV"]}`), &p)
		require.NoError(t, err)
		require.Equal(t, profile.PermissionSet{profile.PermSAV}, p.Permissions)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		var p profile.Profile
		err := json.Unmarshal([]byte(`{"id":1,"role":"GUEST","permissions":[]}`), &p)
		require.Error(t, err)
	})
}

func TestProfile_LandingRoute(t *testing.T) {
	tests := []struct {
		name  string
		p     *profile.Profile
		route string
	}{
		{"nil profile", nil, profile.LandingDashboard},
		{"admin", &profile.Profile{Role: profile.RoleAdmin, Permissions: profile.PermissionSet{profile.PermSAV}}, profile.LandingDashboard},
		{"stock agent first", &profile.Profile{Role: profile.RoleManager, Permissions: profile.PermissionSet{profile.PermSAV, profile.PermAgentDeStock}}, profile.LandingFournisseurs},
		{"confirmateur", &profile.Profile{Role: profile.RoleManager, Permissions: profile.PermissionSet{profile.PermConfirmateur, profile.PermSAV}}, profile.LandingCommandes},
		{"sav", &profile.Profile{Role: profile.RoleManager, Permissions: profile.PermissionSet{profile.PermSAV}}, profile.LandingClients},
		{"manager without permissions", &profile.Profile{Role: profile.RoleManager}, profile.LandingDashboard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.route, tt.p.LandingRoute())
		})
	}
}

func TestProfile_Checks(t *testing.T) {
	var nilProfile *profile.Profile
	require.False(t, nilProfile.IsAdmin())
	require.False(t, nilProfile.HasRole(profile.RoleAdmin))
	require.False(t, nilProfile.HasAnyPermission(profile.PermSAV))

	p := &profile.Profile{Role: profile.RoleManager, Permissions: profile.PermissionSet{profile.PermConfirmateur}}
	require.True(t, p.HasRole(profile.RoleAdmin, profile.RoleManager))
	require.True(t, p.HasAnyPermission(profile.PermSAV, profile.PermConfirmateur))
	require.False(t, p.HasAnyPermission())

	c := p.Clone()
	c.Permissions[0] = profile.PermSAV
	require.Equal(t, profile.PermConfirmateur, p.Permissions[0])
}
