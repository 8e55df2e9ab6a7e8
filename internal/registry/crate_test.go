package registry

import (
	"context"
	"errors"
	"testing"
)

func TestShowCrate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	pkg := env.createCrate(t, "widget", alice)
	env.createVersion(t, pkg, "0.9.0")
	env.createVersion(t, pkg, "1.2.0")
	top := env.createVersion(t, pkg, "1.13.0")
	env.createCategory(t, "parsing", "Parsing")
	if err := env.svc.UpdateCrateCategories(ctx, alice, "widget", []string{"parsing"}); err != nil {
		t.Fatalf("UpdateCrateCategories: %v", err)
	}

	crate, err := env.svc.ShowCrate(ctx, "widget")
	if err != nil {
		t.Fatalf("ShowCrate: %v", err)
	}
	if crate.Name != "widget" || crate.ID != "widget" {
		t.Errorf("crate = %+v", crate)
	}
	if crate.MaxVersion != "1.13.0" {
		t.Errorf("max_version = %s, want 1.13.0", crate.MaxVersion)
	}
	if len(crate.Versions) != 3 {
		t.Errorf("version ids = %v, want 3 entries", crate.Versions)
	}
	if len(crate.Categories) != 1 || crate.Categories[0] != "parsing" {
		t.Errorf("categories = %v", crate.Categories)
	}
	if crate.Links.Owners != "/api/v1/crates/widget/owners" {
		t.Errorf("owners link = %s", crate.Links.Owners)
	}

	// Yanked versions stay listed but drop out of max_version.
	if err := env.db.SetVersionYanked(ctx, top.ID, true); err != nil {
		t.Fatalf("SetVersionYanked: %v", err)
	}
	crate, err = env.svc.ShowCrate(ctx, "widget")
	if err != nil {
		t.Fatalf("ShowCrate: %v", err)
	}
	if crate.MaxVersion != "1.2.0" {
		t.Errorf("max_version after yank = %s, want 1.2.0", crate.MaxVersion)
	}
	if len(crate.Versions) != 3 {
		t.Errorf("version ids after yank = %v, want 3 entries", crate.Versions)
	}
}

func TestShowCrate_AllYanked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	pkg := env.createCrate(t, "widget", alice)
	v := env.createVersion(t, pkg, "0.1.0")
	if err := env.db.SetVersionYanked(ctx, v.ID, true); err != nil {
		t.Fatalf("SetVersionYanked: %v", err)
	}

	crate, err := env.svc.ShowCrate(ctx, "widget")
	if err != nil {
		t.Fatalf("ShowCrate: %v", err)
	}
	if crate.MaxVersion != "0.0.0" {
		t.Errorf("max_version = %s, want 0.0.0", crate.MaxVersion)
	}
}

func TestShowCrate_NamespacedName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	pkg := env.createCrate(t, "foo/bar", alice)
	env.createVersion(t, pkg, "1.0.0")

	crate, err := env.svc.ShowCrate(ctx, "foo/bar")
	if err != nil {
		t.Fatalf("ShowCrate: %v", err)
	}
	if crate.Links.Versions != "/api/v1/crates/foo~bar/versions" {
		t.Errorf("versions link = %s", crate.Links.Versions)
	}
}

func TestShowCrate_Unknown(t *testing.T) {
	env := newTestEnv(t)

	var notFound *NotFoundError
	if _, err := env.svc.ShowCrate(context.Background(), "ghost"); !errors.As(err, &notFound) {
		t.Fatalf("ShowCrate(ghost): got %v, want NotFoundError", err)
	}
}
