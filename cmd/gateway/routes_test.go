package main

import (
	"testing"

	"authgate/middleware/gate/domain"
)

func TestAPIRoutes_AreValidAndUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range apiRoutes() {
		if err := r.Validate(); err != nil {
			t.Fatalf("invalid route: %v", err)
		}
		k := r.Method + " " + r.Pattern
		if seen[k] {
			t.Fatalf("duplicated route %s", k)
		}
		seen[k] = true

		if !r.Rate.Requests.Enabled() {
			t.Fatalf("route %s has no rate budget", k)
		}
	}
	if len(seen) != 7 {
		t.Fatalf("expected 7 routes, got %d", len(seen))
	}
}

func TestAPIRoutes_BlockVetoesFriendBan(t *testing.T) {
	for _, r := range apiRoutes() {
		if r.Pattern != "/v1/users/{id}/block" {
			continue
		}
		if !r.Access.DisallowedFlags.Has(domain.FlagFriendBan) {
			t.Fatalf("block route must veto FriendBan")
		}
		return
	}
	t.Fatalf("block route not registered")
}
