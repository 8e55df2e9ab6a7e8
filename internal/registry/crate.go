package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/openregistry/registry-go/internal/store"
)

// EncodableCrate is the public view of a crate.
type EncodableCrate struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	MaxVersion string     `json:"max_version"`
	Versions   []uint     `json:"versions"`
	Categories []string   `json:"categories"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Links      CrateLinks `json:"links"`
}

// CrateLinks are the related-resource paths rendered with a crate.
type CrateLinks struct {
	Versions         string `json:"versions"`
	Owners           string `json:"owners"`
	ReverseDeps      string `json:"reverse_dependencies"`
	VersionDownloads string `json:"version_downloads"`
}

// ShowCrate resolves the crate view by name. The reported max_version is
// the highest non-yanked version, or "0.0.0" when every version is
// yanked.
func (s *Service) ShowCrate(ctx context.Context, crateName string) (EncodableCrate, error) {
	pkg, err := s.db.GetPackageByName(ctx, CanonicalName(crateName))
	if err != nil {
		if err == store.ErrNotFound {
			return EncodableCrate{}, &NotFoundError{Crate: crateName}
		}
		return EncodableCrate{}, err
	}

	versions, err := s.db.ListVersionsForPackage(ctx, pkg.ID)
	if err != nil {
		return EncodableCrate{}, err
	}
	ids := make([]uint, 0, len(versions))
	var live []Semver
	for _, row := range versions {
		ids = append(ids, row.ID)
		if row.Yanked {
			continue
		}
		v, err := ParseSemver(row.Num)
		if err != nil {
			return EncodableCrate{}, fmt.Errorf("stored version %q: %w", row.Num, err)
		}
		live = append(live, v)
	}

	cats, err := s.CrateCategories(ctx, pkg.ID)
	if err != nil {
		return EncodableCrate{}, err
	}
	slugs := make([]string, 0, len(cats))
	for _, c := range cats {
		slugs = append(slugs, c.Slug)
	}

	safe := EncodeFileSafeName(pkg.Name)
	return EncodableCrate{
		ID:         pkg.Name,
		Name:       pkg.Name,
		MaxVersion: MaxVersion(live).String(),
		Versions:   ids,
		Categories: slugs,
		CreatedAt:  pkg.CreatedAt,
		UpdatedAt:  pkg.UpdatedAt,
		Links: CrateLinks{
			Versions:         fmt.Sprintf("/api/v1/crates/%s/versions", safe),
			Owners:           fmt.Sprintf("/api/v1/crates/%s/owners", safe),
			ReverseDeps:      fmt.Sprintf("/api/v1/crates/%s/reverse_dependencies", safe),
			VersionDownloads: fmt.Sprintf("/api/v1/crates/%s/downloads", safe),
		},
	}, nil
}
