package application

import (
	"testing"

	"authgate/middleware/gate/domain"

	"github.com/stretchr/testify/assert"
)

func TestCheckFlags(t *testing.T) {
	staffBypass := []domain.FlagOption{{Flag: domain.FlagStaff, Bypass: true}}

	cases := []struct {
		name    string
		flags   domain.Flags
		options []domain.FlagOption
		want    bool
	}{
		{"no options", domain.FlagStaff, nil, false},
		{"holder bypasses", domain.FlagStaff | domain.FlagVerified, staffBypass, true},
		{"non holder", domain.FlagVerified, staffBypass, false},
		{"entry without bypass", domain.FlagStaff, []domain.FlagOption{{Flag: domain.FlagStaff}}, false},
		{"any entry is enough", domain.FlagVerifiedBot, []domain.FlagOption{
			{Flag: domain.FlagStaff, Bypass: true},
			{Flag: domain.FlagVerifiedBot, Bypass: true},
		}, true},
		{"zero flag never matches", domain.FlagStaff, []domain.FlagOption{{Flag: 0, Bypass: true}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CheckFlags(tc.flags, tc.options))
		})
	}
}

func TestCheckAccess_DetailNamesFlags(t *testing.T) {
	p := domain.AccessPolicy{
		Flags:           domain.FlagVerified | domain.FlagEmailVerified,
		DisallowedFlags: domain.FlagFriendBan,
	}

	v, ok := checkAccess(domain.Caller{Flags: domain.FlagFriendBan}, p, true)
	assert.False(t, ok)
	assert.Equal(t, domain.ReasonFlagDisallowed, v.Reason)
	assert.Equal(t, domain.FlagFriendBan.String(), v.Detail)

	v, ok = checkAccess(domain.Caller{Flags: domain.FlagVerified}, p, true)
	assert.False(t, ok)
	assert.Equal(t, domain.ReasonMissingFlag, v.Reason)
	assert.Equal(t, domain.FlagEmailVerified.String(), v.Detail)
}

func TestRequesterAllowed(t *testing.T) {
	assert.True(t, requesterAllowed(domain.RequesterBot, domain.RequesterAll))
	assert.True(t, requesterAllowed(domain.RequesterBot, ""))
	assert.True(t, requesterAllowed("", domain.RequesterUser))
	assert.False(t, requesterAllowed("", domain.RequesterBot))
	assert.False(t, requesterAllowed(domain.RequesterUser, domain.RequesterBot))
}
