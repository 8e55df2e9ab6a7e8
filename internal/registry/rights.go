package registry

import (
	"context"

	"github.com/openregistry/registry-go/internal/store"
)

// RightLevel is the authorization tier computed for a user against a
// crate's current owners. A richer hierarchy (team-scoped granularity)
// belongs to the external team-permission collaborator; this core only
// distinguishes "may publish" from "may not".
type RightLevel int

const (
	RightsNone RightLevel = iota
	RightsPublish
)

func (r RightLevel) String() string {
	if r >= RightsPublish {
		return "publish"
	}
	return "none"
}

// Rights computes the level user holds against the given owner set:
// Publish when the user is a directly-listed individual owner, or when
// any team owner confirms membership with publish privilege.
func (s *Service) Rights(ctx context.Context, user *store.User, owners []Owner) (RightLevel, error) {
	for _, o := range owners {
		switch o.Kind() {
		case store.OwnerUser:
			if o.ID() == user.ID {
				return RightsPublish, nil
			}
		case store.OwnerTeam:
			to, ok := o.(TeamOwner)
			if !ok {
				continue
			}
			member, err := s.teams.HasPublishRights(ctx, user, to.Team)
			if err != nil {
				return RightsNone, &RetryableError{Op: "team membership lookup", Err: err}
			}
			if member {
				return RightsPublish, nil
			}
		}
	}
	return RightsNone, nil
}

// RightsOnCrate is Rights extended with the namespace rule: owning a
// namespace crate grants Publish on every crate beneath it, while owning
// a child grants nothing on the parent or on siblings. The walk applies
// through arbitrarily deep chains (owning "foo" covers "foo/bar/baz");
// whether namespace rights should instead stop one level down is an open
// call, recorded in DESIGN.md.
func (s *Service) RightsOnCrate(ctx context.Context, ds store.Datastore, user *store.User, pkg *store.Package) (RightLevel, error) {
	owners, err := s.loadOwners(ctx, ds, pkg.ID)
	if err != nil {
		return RightsNone, err
	}
	level, err := s.Rights(ctx, user, owners)
	if err != nil || level >= RightsPublish {
		return level, err
	}
	return s.namespaceRights(ctx, ds, user, pkg.Name)
}

// namespaceRights resolves the ancestors of name and returns Publish if
// the user holds direct rights on any of them.
func (s *Service) namespaceRights(ctx context.Context, ds store.Datastore, user *store.User, name string) (RightLevel, error) {
	for _, ancestor := range AncestorNames(name) {
		pkg, err := ds.GetPackageByName(ctx, CanonicalName(ancestor))
		if err != nil {
			if err == store.ErrNotFound {
				continue
			}
			return RightsNone, err
		}
		owners, err := s.loadOwners(ctx, ds, pkg.ID)
		if err != nil {
			return RightsNone, err
		}
		level, err := s.Rights(ctx, user, owners)
		if err != nil {
			return RightsNone, err
		}
		if level >= RightsPublish {
			return RightsPublish, nil
		}
	}
	return RightsNone, nil
}

// namespaceExists reports whether any ancestor of name is a known crate.
// Used to pick the distinguishing "belongs to a namespace which exists"
// error over a generic not-found.
func (s *Service) namespaceExists(ctx context.Context, ds store.Datastore, name string) (bool, error) {
	for _, ancestor := range AncestorNames(name) {
		_, err := ds.GetPackageByName(ctx, CanonicalName(ancestor))
		if err == nil {
			return true, nil
		}
		if err != store.ErrNotFound {
			return false, err
		}
	}
	return false, nil
}
