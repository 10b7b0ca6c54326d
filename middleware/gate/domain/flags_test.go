package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlags_Predicates(t *testing.T) {
	f := FlagStaff | FlagVerified

	assert.True(t, f.Has(FlagStaff))
	assert.False(t, f.Has(FlagFriendBan))
	assert.False(t, f.Has(0), "zero bit is never present")

	assert.True(t, f.HasAny(FlagFriendBan|FlagVerified))
	assert.False(t, f.HasAny(FlagFriendBan|FlagGuildBan))

	assert.True(t, f.HasAll(FlagStaff|FlagVerified))
	assert.False(t, f.HasAll(FlagStaff|FlagDeveloper))
	assert.True(t, f.HasAll(0), "empty requirement is always satisfied")
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags("FriendBan", " Staff ", "")
	require.NoError(t, err)
	assert.Equal(t, FlagFriendBan|FlagStaff, f)
	assert.Equal(t, []string{"FriendBan", "Staff"}, f.Names())
	assert.Equal(t, "FriendBan|Staff", f.String())

	_, err = ParseFlags("NotAFlag")
	require.Error(t, err)

	assert.Panics(t, func() { MustParseFlags("Nope") })
	assert.Equal(t, "none", Flags(0).String())
}
