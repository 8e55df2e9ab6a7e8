package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/openregistry/registry-go/internal/store"
)

// EncodableInvitation is the public view of one pending ownership
// invitation, as listed for the invited user.
type EncodableInvitation struct {
	CrateID           uint      `json:"crate_id"`
	CrateName         string    `json:"crate_name"`
	InvitedByUsername string    `json:"invited_by_username"`
	CreatedAt         time.Time `json:"created_at"`
}

// inviteUser records a pending invitation for login on pkg, called from
// AddOwners inside the owner-add transaction. When several user rows
// share the login (placeholder accounts from earlier data migrations),
// the row with the highest gh_id is taken as the most recent account we
// know of. Re-inviting a user with a pending invitation is a no-op;
// inviting an existing owner is an error.
func (s *Service) inviteUser(ctx context.Context, tx store.Datastore, actor *store.User, pkg *store.Package, login string) error {
	candidates, err := tx.FindUsersByLogin(ctx, login)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return &OwnerNotFoundError{Login: login}
	}
	target := candidates[0]
	for _, u := range candidates[1:] {
		if u.GHID > target.GHID {
			target = u
		}
	}

	rows, err := tx.ListOwners(ctx, pkg.ID)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row.OwnerKind == store.OwnerUser && row.OwnerID == target.ID {
			return fmt.Errorf("`%s` %w", login, ErrAlreadyOwner)
		}
	}

	err = tx.CreateInvitation(ctx, &store.OwnerInvitation{
		PackageID:       pkg.ID,
		InvitedUserID:   target.ID,
		InvitedByUserID: actor.ID,
	})
	if err == store.ErrAlreadyExists {
		// Already invited; idempotent at the invitation layer.
		return nil
	}
	return err
}

// AcceptInvitation converts the actor's pending invitation on crateID
// into an owner row. The delete and the insert commit together or not at
// all.
func (s *Service) AcceptInvitation(ctx context.Context, actor *store.User, crateID uint) error {
	return s.db.Tx(ctx, func(tx store.Datastore) error {
		if _, err := tx.GetInvitation(ctx, crateID, actor.ID); err != nil {
			if err == store.ErrNotFound {
				return ErrInvitationNotFound
			}
			return err
		}
		if err := tx.DeleteInvitation(ctx, crateID, actor.ID); err != nil {
			return err
		}
		err := tx.AddOwner(ctx, &store.PackageOwner{
			PackageID: crateID,
			OwnerID:   actor.ID,
			OwnerKind: store.OwnerUser,
		})
		if err == store.ErrAlreadyExists {
			// Ownership arrived through another path while the
			// invitation was pending.
			return fmt.Errorf("`%s` %w", actor.Login, ErrAlreadyOwner)
		}
		return err
	})
}

// DeclineInvitation removes the actor's pending invitation on crateID
// without any membership change.
func (s *Service) DeclineInvitation(ctx context.Context, actor *store.User, crateID uint) error {
	err := s.db.DeleteInvitation(ctx, crateID, actor.ID)
	if err == store.ErrNotFound {
		return ErrInvitationNotFound
	}
	return err
}

// ListInvitations returns every pending invitation for the actor across
// all crates, with inviter and crate details resolved for display.
func (s *Service) ListInvitations(ctx context.Context, actor *store.User) ([]EncodableInvitation, error) {
	rows, err := s.db.ListInvitationsForUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	out := make([]EncodableInvitation, 0, len(rows))
	for _, inv := range rows {
		pkg, err := s.db.GetPackage(ctx, inv.PackageID)
		if err != nil {
			return nil, err
		}
		view := EncodableInvitation{
			CrateID:   inv.PackageID,
			CrateName: pkg.Name,
			CreatedAt: inv.CreatedAt,
		}
		if inviter, err := s.db.GetUser(ctx, inv.InvitedByUserID); err == nil {
			view.InvitedByUsername = inviter.Login
		}
		out = append(out, view)
	}
	return out, nil
}
