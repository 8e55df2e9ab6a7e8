package identity

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/openregistry/registry-go/internal/store"
)

func seedUser(t *testing.T, db *store.Memory, login string, ghID int64, active bool) *store.User {
	t.Helper()
	u := &store.User{Login: login, GHID: ghID, Active: active}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestCurrentUser_HeaderWins(t *testing.T) {
	db := store.NewMemory()
	seedUser(t, db, "alice", 42, true)
	seedUser(t, db, "bob", 43, true)
	r := NewResolver(db)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderUser, "alice")
	req.Header.Set("Authorization", "Bearer bob")

	u, err := r.CurrentUser(req)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if u.Login != "alice" {
		t.Errorf("login = %s, want alice (header precedence)", u.Login)
	}
}

func TestCurrentUser_AuthorizationFallback(t *testing.T) {
	db := store.NewMemory()
	seedUser(t, db, "bob", 43, true)
	r := NewResolver(db)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer bob")

	u, err := r.CurrentUser(req)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if u.Login != "bob" {
		t.Errorf("login = %s, want bob", u.Login)
	}
}

func TestCurrentUser_NoHeaders(t *testing.T) {
	r := NewResolver(store.NewMemory())
	req := httptest.NewRequest("GET", "/", nil)

	if _, err := r.CurrentUser(req); !errors.Is(err, ErrNoActor) {
		t.Fatalf("err = %v, want ErrNoActor", err)
	}
}

func TestCurrentUser_UnknownLogin(t *testing.T) {
	r := NewResolver(store.NewMemory())
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderUser, "ghost")

	if _, err := r.CurrentUser(req); !errors.Is(err, ErrUnknownActor) {
		t.Fatalf("err = %v, want ErrUnknownActor", err)
	}
}

func TestCurrentUser_PicksHighestGHIDActiveRow(t *testing.T) {
	db := store.NewMemory()
	seedUser(t, db, "alice", -1, false) // placeholder row
	seedUser(t, db, "alice", 100, true)
	current := seedUser(t, db, "alice", 200, true)
	r := NewResolver(db)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderUser, "alice")

	u, err := r.CurrentUser(req)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if u.ID != current.ID {
		t.Errorf("resolved row %d (gh_id %d), want %d", u.ID, u.GHID, current.ID)
	}
}

func TestCurrentUser_OnlyInactiveRows(t *testing.T) {
	db := store.NewMemory()
	seedUser(t, db, "alice", -1, false)
	r := NewResolver(db)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderUser, "alice")

	if _, err := r.CurrentUser(req); !errors.Is(err, ErrUnknownActor) {
		t.Fatalf("err = %v, want ErrUnknownActor", err)
	}
}

func TestStaticTeamDirectory(t *testing.T) {
	dir := NewStaticTeamDirectory(map[string][]string{
		"github:org:maintainers": {"alice", "bob"},
	})
	ctx := context.Background()
	team := &store.Team{Login: "github:org:maintainers"}

	ok, err := dir.HasPublishRights(ctx, &store.User{Login: "alice"}, team)
	if err != nil || !ok {
		t.Errorf("alice: ok=%v err=%v, want member", ok, err)
	}
	ok, err = dir.HasPublishRights(ctx, &store.User{Login: "mallory"}, team)
	if err != nil || ok {
		t.Errorf("mallory: ok=%v err=%v, want non-member", ok, err)
	}
	ok, err = dir.HasPublishRights(ctx, &store.User{Login: "alice"}, &store.Team{Login: "github:other:team"})
	if err != nil || ok {
		t.Errorf("unknown team: ok=%v err=%v, want false", ok, err)
	}
}

func TestStaticTeamDirectory_NilMapping(t *testing.T) {
	dir := NewStaticTeamDirectory(nil)
	ok, err := dir.HasPublishRights(context.Background(), &store.User{Login: "alice"}, &store.Team{Login: "t"})
	if err != nil || ok {
		t.Errorf("nil mapping: ok=%v err=%v, want false", ok, err)
	}
}
