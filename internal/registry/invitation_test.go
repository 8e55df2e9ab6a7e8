package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/openregistry/registry-go/internal/store"
)

func TestInvitation_AcceptLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	pkg := env.createCrate(t, "widget", alice)

	if err := env.svc.AddOwners(ctx, alice, "widget", []string{"bob"}); err != nil {
		t.Fatalf("AddOwners: %v", err)
	}

	invitations, err := env.svc.ListInvitations(ctx, bob)
	if err != nil {
		t.Fatalf("ListInvitations: %v", err)
	}
	if len(invitations) != 1 {
		t.Fatalf("invitation count = %d, want 1", len(invitations))
	}
	inv := invitations[0]
	if inv.CrateName != "widget" || inv.InvitedByUsername != "alice" {
		t.Errorf("invitation = %+v, want crate widget invited by alice", inv)
	}

	if err := env.svc.AcceptInvitation(ctx, bob, pkg.ID); err != nil {
		t.Fatalf("AcceptInvitation: %v", err)
	}

	isOwner, err := env.svc.IsOwner(ctx, "widget", bob)
	if err != nil {
		t.Fatalf("IsOwner: %v", err)
	}
	if !isOwner {
		t.Error("bob should be an owner after accepting")
	}

	// The invitation row is gone, not archived.
	invitations, err = env.svc.ListInvitations(ctx, bob)
	if err != nil {
		t.Fatalf("ListInvitations: %v", err)
	}
	if len(invitations) != 0 {
		t.Errorf("invitation count after accept = %d, want 0", len(invitations))
	}
}

func TestInvitation_Decline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	pkg := env.createCrate(t, "widget", alice)

	if err := env.svc.AddOwners(ctx, alice, "widget", []string{"bob"}); err != nil {
		t.Fatalf("AddOwners: %v", err)
	}
	if err := env.svc.DeclineInvitation(ctx, bob, pkg.ID); err != nil {
		t.Fatalf("DeclineInvitation: %v", err)
	}

	isOwner, err := env.svc.IsOwner(ctx, "widget", bob)
	if err != nil {
		t.Fatalf("IsOwner: %v", err)
	}
	if isOwner {
		t.Error("bob must not become an owner by declining")
	}
}

func TestInvitation_AcceptMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	pkg := env.createCrate(t, "widget", alice)

	if err := env.svc.AcceptInvitation(ctx, bob, pkg.ID); !errors.Is(err, ErrInvitationNotFound) {
		t.Errorf("accept without invitation: got %v, want ErrInvitationNotFound", err)
	}
	if err := env.svc.DeclineInvitation(ctx, bob, pkg.ID); !errors.Is(err, ErrInvitationNotFound) {
		t.Errorf("decline without invitation: got %v, want ErrInvitationNotFound", err)
	}
}

func TestInvitation_AcceptAfterBecomingOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	pkg := env.createCrate(t, "widget", alice)

	if err := env.svc.AddOwners(ctx, alice, "widget", []string{"bob"}); err != nil {
		t.Fatalf("AddOwners: %v", err)
	}

	// Bob gains ownership through another path while the invitation is
	// still pending.
	err := env.db.AddOwner(ctx, &store.PackageOwner{
		PackageID: pkg.ID,
		OwnerID:   bob.ID,
		OwnerKind: store.OwnerUser,
	})
	if err != nil {
		t.Fatalf("AddOwner: %v", err)
	}

	if err := env.svc.AcceptInvitation(ctx, bob, pkg.ID); !errors.Is(err, ErrAlreadyOwner) {
		t.Fatalf("accept as existing owner: got %v, want ErrAlreadyOwner", err)
	}

	// The failed accept rolled back, so the invitation is still there.
	invitations, err := env.svc.ListInvitations(ctx, bob)
	if err != nil {
		t.Fatalf("ListInvitations: %v", err)
	}
	if len(invitations) != 1 {
		t.Errorf("invitation count = %d, want 1", len(invitations))
	}
}

func TestInvitation_ReinviteIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	env.createCrate(t, "widget", alice)

	if err := env.svc.AddOwners(ctx, alice, "widget", []string{"bob"}); err != nil {
		t.Fatalf("first AddOwners: %v", err)
	}
	if err := env.svc.AddOwners(ctx, alice, "widget", []string{"bob"}); err != nil {
		t.Fatalf("second AddOwners should be a no-op, got %v", err)
	}

	invitations, err := env.svc.ListInvitations(ctx, bob)
	if err != nil {
		t.Fatalf("ListInvitations: %v", err)
	}
	if len(invitations) != 1 {
		t.Errorf("invitation count = %d, want 1", len(invitations))
	}
}

func TestInvitation_InviteExistingOwnerFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	env.createCrate(t, "widget", alice)

	err := env.svc.AddOwners(ctx, alice, "widget", []string{"alice"})
	if !errors.Is(err, ErrAlreadyOwner) {
		t.Fatalf("expected ErrAlreadyOwner, got %v", err)
	}
}

func TestInvitation_DuplicateLoginsPickHighestGHID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	env.createCrate(t, "widget", alice)

	// Two accounts share the login; the placeholder has a negative gh_id,
	// the real account the highest one.
	stale := &store.User{Login: "bob", GHID: -1, Active: false}
	if err := env.db.CreateUser(ctx, stale); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	current := &store.User{Login: "bob", GHID: 7777, Active: true}
	if err := env.db.CreateUser(ctx, current); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := env.svc.AddOwners(ctx, alice, "widget", []string{"bob"}); err != nil {
		t.Fatalf("AddOwners: %v", err)
	}

	if _, err := env.svc.ListInvitations(ctx, stale); err != nil {
		t.Fatalf("ListInvitations(stale): %v", err)
	}
	got, err := env.svc.ListInvitations(ctx, current)
	if err != nil {
		t.Fatalf("ListInvitations(current): %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("the invitation must target the highest gh_id account, got %d invitations", len(got))
	}
	staleInvs, err := env.svc.ListInvitations(ctx, stale)
	if err != nil {
		t.Fatalf("ListInvitations(stale): %v", err)
	}
	if len(staleInvs) != 0 {
		t.Errorf("stale account has %d invitations, want 0", len(staleInvs))
	}
}
