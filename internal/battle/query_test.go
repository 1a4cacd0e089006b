package battle

import (
	"context"
	"testing"
)

func TestUserBattles_OrderAndMembership(t *testing.T) {
	decks := defaultStubDecks()
	decks["u3"] = decks["u1"]
	m := newTestManager(t, decks)
	ctx := context.Background()

	b1, err := m.RequestBattle(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("RequestBattle 1: %v", err)
	}
	b2, err := m.RequestBattle(ctx, "u3", "u1")
	if err != nil {
		t.Fatalf("RequestBattle 2: %v", err)
	}
	b3, err := m.RequestBattle(ctx, "u2", "u3")
	if err != nil {
		t.Fatalf("RequestBattle 3: %v", err)
	}

	got, err := m.UserBattles(ctx, "u1")
	if err != nil {
		t.Fatalf("UserBattles: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("u1 battles = %d, want 2", len(got))
	}
	if got[0].ID != b1.ID || got[1].ID != b2.ID {
		t.Fatalf("battles out of creation order: %s, %s", got[0].ID, got[1].ID)
	}
	for _, b := range got {
		if b.ID == b3.ID {
			t.Fatalf("u1 must not see a battle they are not part of")
		}
	}

	empty, err := m.UserBattles(ctx, "nobody")
	if err != nil {
		t.Fatalf("UserBattles for unknown user: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("unknown user battles = %d, want 0", len(empty))
	}
}

func TestRequestProjections(t *testing.T) {
	decks := defaultStubDecks()
	decks["u3"] = decks["u1"]
	m := newTestManager(t, decks)
	ctx := context.Background()

	sent, err := m.RequestBattle(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("RequestBattle: %v", err)
	}
	received, err := m.RequestBattle(ctx, "u3", "u1")
	if err != nil {
		t.Fatalf("RequestBattle: %v", err)
	}
	// An accepted battle is no longer a pending request in either view.
	active, err := m.RequestBattle(ctx, "u2", "u3")
	if err != nil {
		t.Fatalf("RequestBattle: %v", err)
	}
	if _, err := m.AcceptBattle(ctx, active.ID, "u3"); err != nil {
		t.Fatalf("AcceptBattle: %v", err)
	}

	for _, uid := range []string{"u1", "u2", "u3"} {
		battles, err := m.UserBattles(ctx, uid)
		if err != nil {
			t.Fatalf("UserBattles(%s): %v", uid, err)
		}
		switch uid {
		case "u1":
			if s := SentRequests(battles, uid); len(s) != 1 || s[0].ID != sent.ID {
				t.Fatalf("u1 sent = %+v", s)
			}
			if r := ReceivedRequests(battles, uid); len(r) != 1 || r[0].ID != received.ID {
				t.Fatalf("u1 received = %+v", r)
			}
		case "u2":
			if s := SentRequests(battles, uid); len(s) != 0 {
				t.Fatalf("u2 sent = %d, want 0", len(s))
			}
			if r := ReceivedRequests(battles, uid); len(r) != 1 || r[0].ID != sent.ID {
				t.Fatalf("u2 received = %+v", r)
			}
		case "u3":
			if s := SentRequests(battles, uid); len(s) != 1 || s[0].ID != received.ID {
				t.Fatalf("u3 sent = %+v", s)
			}
			if r := ReceivedRequests(battles, uid); len(r) != 0 {
				t.Fatalf("u3 received = %d, want 0", len(r))
			}
		}
	}
}
