package registry

import (
	"context"
	"log/slog"

	"github.com/openregistry/registry-go/internal/logutil"
	"github.com/openregistry/registry-go/internal/store"
)

// TeamMembership is the external team-permission collaborator. It is
// queried once per team owner during rights resolution.
type TeamMembership interface {
	// HasPublishRights reports whether the user belongs to the team with
	// enough privilege to publish.
	HasPublishRights(ctx context.Context, user *store.User, team *store.Team) (bool, error)
}

// IndexNotifier is the index-publication collaborator. It is invoked
// synchronously inside the yank transaction; a failure aborts the
// transaction.
type IndexNotifier interface {
	NotifyYankStateChanged(ctx context.Context, crateName, version string, yanked bool) error
}

// NopIndexNotifier discards yank notifications. Used when no index
// service is configured.
type NopIndexNotifier struct{}

func (NopIndexNotifier) NotifyYankStateChanged(ctx context.Context, crateName, version string, yanked bool) error {
	return nil
}

// Service is the ownership/invitation/release core. It holds no mutable
// state of its own; every operation reads current state from the
// datastore, decides, and writes the new state transactionally.
type Service struct {
	db    store.Datastore
	teams TeamMembership
	index IndexNotifier
	log   *slog.Logger
}

// NewService creates the registry service around its collaborators.
func NewService(db store.Datastore, teams TeamMembership, index IndexNotifier, log *slog.Logger) *Service {
	return &Service{
		db:    db,
		teams: teams,
		index: index,
		log:   logutil.NoopIfNil(log),
	}
}

// CrateByName resolves a crate by display name (canonical lookup), or a
// NotFoundError.
func (s *Service) CrateByName(ctx context.Context, name string) (*store.Package, error) {
	pkg, err := s.db.GetPackageByName(ctx, CanonicalName(name))
	if err != nil {
		if err == store.ErrNotFound {
			return nil, &NotFoundError{Crate: name}
		}
		return nil, err
	}
	return pkg, nil
}

// crateVersion resolves (crate, version) or a NotFoundError naming both.
func (s *Service) crateVersion(ctx context.Context, ds store.Datastore, name, num string) (*store.Package, *store.Version, error) {
	pkg, err := ds.GetPackageByName(ctx, CanonicalName(name))
	if err != nil {
		if err == store.ErrNotFound {
			return nil, nil, &NotFoundError{Crate: name}
		}
		return nil, nil, err
	}
	v, err := ds.GetVersion(ctx, pkg.ID, num)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, nil, &NotFoundError{Crate: name, Version: num}
		}
		return nil, nil, err
	}
	return pkg, v, nil
}
