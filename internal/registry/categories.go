package registry

import (
	"context"
	"fmt"

	"github.com/openregistry/registry-go/internal/store"
)

// EncodableCategory is the public view of a category.
type EncodableCategory struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	CratesCnt   int64  `json:"crates_cnt"`
}

// NewEncodableCategory renders a stored category.
func NewEncodableCategory(c *store.Category) EncodableCategory {
	return EncodableCategory{
		ID:          c.Slug,
		Category:    c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		CratesCnt:   c.CratesCnt,
	}
}

// updateCrateCategories reconciles a crate's category memberships
// toward the requested slug list. Slugs not present in the category
// table are dropped without error; memberships already in place are
// left untouched.
func (s *Service) updateCrateCategories(ctx context.Context, tx store.Datastore, packageID uint, slugs []string) error {
	current, err := tx.ListPackageCategoryIDs(ctx, packageID)
	if err != nil {
		return err
	}

	known := make(map[string]uint, len(slugs))
	for _, slug := range slugs {
		c, err := tx.GetCategoryBySlug(ctx, slug)
		if err == store.ErrNotFound {
			continue
		}
		if err != nil {
			return err
		}
		known[slug] = c.ID
	}

	diff := ReconcileResolved(current, slugs, func(slug string) (uint, bool) {
		id, ok := known[slug]
		return id, ok
	})
	if diff.Empty() {
		return nil
	}

	if len(diff.ToRemove) > 0 {
		if err := tx.RemovePackageCategories(ctx, packageID, diff.ToRemove); err != nil {
			return err
		}
	}
	if len(diff.ToAdd) > 0 {
		if err := tx.AddPackageCategories(ctx, packageID, diff.ToAdd); err != nil {
			return err
		}
	}
	return nil
}

// UpdateCrateCategories replaces a crate's category memberships with the
// named slugs. Only an owner may do this; unknown slugs are dropped.
func (s *Service) UpdateCrateCategories(ctx context.Context, actor *store.User, crateName string, slugs []string) error {
	return s.db.Tx(ctx, func(tx store.Datastore) error {
		pkg, err := tx.GetPackageByName(ctx, CanonicalName(crateName))
		if err != nil {
			if err == store.ErrNotFound {
				return &NotFoundError{Crate: crateName}
			}
			return err
		}

		level, err := s.RightsOnCrate(ctx, tx, actor, pkg)
		if err != nil {
			return err
		}
		if level < RightsPublish {
			return fmt.Errorf("must be an owner to update categories: %w", ErrInsufficientRights)
		}

		return s.updateCrateCategories(ctx, tx, pkg.ID, slugs)
	})
}

// ListCategories returns a page of categories plus the total count.
func (s *Service) ListCategories(ctx context.Context, opts store.ListCategoriesOptions) ([]EncodableCategory, int64, error) {
	cats, total, err := s.db.ListCategories(ctx, opts)
	if err != nil {
		return nil, 0, err
	}
	out := make([]EncodableCategory, 0, len(cats))
	for _, c := range cats {
		out = append(out, NewEncodableCategory(c))
	}
	return out, total, nil
}

// ShowCategory resolves one category by slug.
func (s *Service) ShowCategory(ctx context.Context, slug string) (EncodableCategory, error) {
	c, err := s.db.GetCategoryBySlug(ctx, slug)
	if err != nil {
		if err == store.ErrNotFound {
			return EncodableCategory{}, &NotFoundError{Crate: "category " + slug}
		}
		return EncodableCategory{}, err
	}
	return NewEncodableCategory(c), nil
}

// CrateCategories lists the category views attached to a crate.
func (s *Service) CrateCategories(ctx context.Context, packageID uint) ([]EncodableCategory, error) {
	ids, err := s.db.ListPackageCategoryIDs(ctx, packageID)
	if err != nil {
		return nil, err
	}
	out := make([]EncodableCategory, 0, len(ids))
	for _, id := range ids {
		c, err := s.db.GetCategory(ctx, id)
		if err != nil {
			if err == store.ErrNotFound {
				continue
			}
			return nil, err
		}
		out = append(out, NewEncodableCategory(c))
	}
	return out, nil
}
