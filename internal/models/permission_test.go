package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllPermissionsCoversEveryFlag(t *testing.T) {
	all := AllPermissions()
	assert.Len(t, all, 13)

	seen := map[string]struct{}{}
	for _, p := range all {
		assert.True(t, p.Valid())
		assert.NotEmpty(t, p.Column())
		seen[p.Column()] = struct{}{}
	}
	assert.Len(t, seen, 13)
}

func TestParsePermissionIsCaseInsensitive(t *testing.T) {
	for _, s := range []string{"ReadClass", "readclass", "READCLASS"} {
		p, err := ParsePermission(s)
		require.NoError(t, err)
		assert.Equal(t, PermReadClass, p)
	}
	_, err := ParsePermission("ReadEverything")
	assert.Error(t, err)
}

func TestGrantFlagRoundTrip(t *testing.T) {
	var g PermissionGrant
	for _, p := range AllPermissions() {
		assert.False(t, g.HasFlag(p))
		g.SetFlag(p, true)
		assert.True(t, g.HasFlag(p))
		g.SetFlag(p, false)
		assert.False(t, g.HasFlag(p))
	}
}
