package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/openregistry/registry-go/internal/store"
)

// OwnerNotFoundError reports an owner add/remove naming a login that
// could not be resolved on the crate.
type OwnerNotFoundError struct {
	Login string
}

func (e *OwnerNotFoundError) Error() string {
	return fmt.Sprintf("could not find owner with login `%s`", e.Login)
}

// isTeamLogin reports whether login names a team ("github:org:team")
// rather than an individual account.
func isTeamLogin(login string) bool {
	return strings.Contains(login, ":")
}

// loadOwners materializes the owner rows of a crate into Owner values,
// user owners first then team owners, each ordered by id.
func (s *Service) loadOwners(ctx context.Context, ds store.Datastore, packageID uint) ([]Owner, error) {
	rows, err := ds.ListOwners(ctx, packageID)
	if err != nil {
		return nil, err
	}

	var userIDs, teamIDs []uint
	for _, row := range rows {
		if row.OwnerKind == store.OwnerUser {
			userIDs = append(userIDs, row.OwnerID)
		} else {
			teamIDs = append(teamIDs, row.OwnerID)
		}
	}

	users, err := ds.ListUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	teams, err := ds.ListTeamsByIDs(ctx, teamIDs)
	if err != nil {
		return nil, err
	}

	owners := make([]Owner, 0, len(users)+len(teams))
	for _, u := range users {
		owners = append(owners, UserOwner{User: u})
	}
	for _, t := range teams {
		owners = append(owners, TeamOwner{Team: t})
	}
	return owners, nil
}

// Owners returns the current owners of a crate by name.
func (s *Service) Owners(ctx context.Context, crateName string) ([]Owner, error) {
	pkg, err := s.CrateByName(ctx, crateName)
	if err != nil {
		return nil, err
	}
	return s.loadOwners(ctx, s.db, pkg.ID)
}

// IsOwner reports whether user is a directly-listed individual owner.
func (s *Service) IsOwner(ctx context.Context, crateName string, user *store.User) (bool, error) {
	owners, err := s.Owners(ctx, crateName)
	if err != nil {
		return false, err
	}
	for _, o := range owners {
		if o.Kind() == store.OwnerUser && o.ID() == user.ID {
			return true, nil
		}
	}
	return false, nil
}

// AddOwners processes an owner-add request naming one or more logins.
// Team logins gain an owner row immediately; user logins receive a
// pending ownership invitation instead (converted to an owner row on
// accept). The whole batch is atomic: naming a login that is already an
// owner fails everything with ErrAlreadyOwner.
func (s *Service) AddOwners(ctx context.Context, actor *store.User, crateName string, logins []string) error {
	pkg, err := s.CrateByName(ctx, crateName)
	if err != nil {
		return err
	}

	return s.db.Tx(ctx, func(tx store.Datastore) error {
		// Authorization is re-checked inside the transaction so a
		// concurrent owner removal cannot leave a stale decision.
		level, err := s.RightsOnCrate(ctx, tx, actor, pkg)
		if err != nil {
			return err
		}
		if level < RightsPublish {
			return fmt.Errorf("only owners have permission to modify owners: %w", ErrInsufficientRights)
		}

		for _, login := range logins {
			if isTeamLogin(login) {
				if err := s.addTeamOwner(ctx, tx, pkg, login); err != nil {
					return err
				}
				continue
			}
			if err := s.inviteUser(ctx, tx, actor, pkg, login); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) addTeamOwner(ctx context.Context, tx store.Datastore, pkg *store.Package, login string) error {
	team, err := tx.GetTeamByLogin(ctx, login)
	if err != nil {
		if err == store.ErrNotFound {
			return &OwnerNotFoundError{Login: login}
		}
		return err
	}
	err = tx.AddOwner(ctx, &store.PackageOwner{
		PackageID: pkg.ID,
		OwnerID:   team.ID,
		OwnerKind: store.OwnerTeam,
	})
	if err == store.ErrAlreadyExists {
		return fmt.Errorf("`%s` %w", login, ErrAlreadyOwner)
	}
	return err
}

// RemoveOwners removes one or more named owners from a crate. The batch
// is atomic, and fails with ErrLastOwner when it would leave the crate
// without any individual owner.
func (s *Service) RemoveOwners(ctx context.Context, actor *store.User, crateName string, logins []string) error {
	pkg, err := s.CrateByName(ctx, crateName)
	if err != nil {
		return err
	}

	return s.db.Tx(ctx, func(tx store.Datastore) error {
		level, err := s.RightsOnCrate(ctx, tx, actor, pkg)
		if err != nil {
			return err
		}
		if level < RightsPublish {
			return fmt.Errorf("only owners have permission to modify owners: %w", ErrInsufficientRights)
		}

		owners, err := s.loadOwners(ctx, tx, pkg.ID)
		if err != nil {
			return err
		}

		remaining := CountIndividualOwners(owners)
		for _, login := range logins {
			target, err := findOwnerByLogin(owners, login)
			if err != nil {
				return err
			}
			if target.Kind() == store.OwnerUser {
				remaining--
			}
			if remaining < 1 {
				return ErrLastOwner
			}
			if err := tx.RemoveOwner(ctx, pkg.ID, target.ID(), target.Kind()); err != nil {
				return err
			}
		}
		return nil
	})
}

func findOwnerByLogin(owners []Owner, login string) (Owner, error) {
	for _, o := range owners {
		if o.Login() == login {
			return o, nil
		}
	}
	return nil, &OwnerNotFoundError{Login: login}
}
