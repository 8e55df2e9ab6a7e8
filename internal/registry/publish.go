package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openregistry/registry-go/internal/store"
)

// PublishRequest is one crate-version upload.
type PublishRequest struct {
	Name       string              `json:"name"`
	Version    string              `json:"vers"`
	Features   map[string][]string `json:"features"`
	Categories []string            `json:"categories"`
}

// EncodableVersion is the public view of a crate version.
type EncodableVersion struct {
	ID           uint                `json:"id"`
	Crate        string              `json:"crate"`
	Num          string              `json:"num"`
	DownloadPath string              `json:"dl_path"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Downloads    int64               `json:"downloads"`
	Features     map[string][]string `json:"features"`
	Yanked       bool                `json:"yanked"`
	Links        VersionLinks        `json:"links"`
}

// VersionLinks are the related-resource paths rendered with a version.
type VersionLinks struct {
	Dependencies     string `json:"dependencies"`
	VersionDownloads string `json:"version_downloads"`
	Authors          string `json:"authors"`
}

// NewEncodableVersion renders a stored version against its crate name.
func NewEncodableVersion(v *store.Version, crateName string) EncodableVersion {
	features := make(map[string][]string)
	if v.FeaturesJSON != "" {
		// Feature maps are written by publish; a decode failure here
		// means a corrupt row, rendered as empty rather than failing
		// the read.
		_ = json.Unmarshal([]byte(v.FeaturesJSON), &features)
	}
	safe := EncodeFileSafeName(crateName)
	return EncodableVersion{
		ID:           v.ID,
		Crate:        crateName,
		Num:          v.Num,
		DownloadPath: fmt.Sprintf("/api/v1/crates/%s/%s/download", safe, v.Num),
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
		Downloads:    v.Downloads,
		Features:     features,
		Yanked:       v.Yanked,
		Links: VersionLinks{
			Dependencies:     fmt.Sprintf("/api/v1/crates/%s/%s/dependencies", safe, v.Num),
			VersionDownloads: fmt.Sprintf("/api/v1/crates/%s/%s/downloads", safe, v.Num),
			Authors:          fmt.Sprintf("/api/v1/crates/%s/%s/authors", safe, v.Num),
		},
	}
}

// Publish uploads a new crate version, creating the crate on first
// publish. For a brand-new name inside an existing namespace the actor
// must hold rights on the namespace; without them the failure names the
// namespace situation instead of a generic not-found. Unknown category
// slugs in the request are dropped silently.
func (s *Service) Publish(ctx context.Context, actor *store.User, req PublishRequest) (*store.Version, error) {
	v, err := ParseSemver(req.Version)
	if err != nil {
		return nil, err
	}

	featuresJSON, err := json.Marshal(req.Features)
	if err != nil {
		return nil, err
	}

	var out *store.Version
	err = s.db.Tx(ctx, func(tx store.Datastore) error {
		pkg, err := tx.GetPackageByName(ctx, CanonicalName(req.Name))
		switch err {
		case nil:
			level, rerr := s.RightsOnCrate(ctx, tx, actor, pkg)
			if rerr != nil {
				return rerr
			}
			if level < RightsPublish {
				return fmt.Errorf("crate name `%s` is already claimed: %w", req.Name, ErrInsufficientRights)
			}
		case store.ErrNotFound:
			pkg, err = s.createCrate(ctx, tx, actor, req.Name)
			if err != nil {
				return err
			}
		default:
			return err
		}

		version := &store.Version{
			PackageID:    pkg.ID,
			Num:          v.String(),
			FeaturesJSON: string(featuresJSON),
		}
		if err := tx.CreateVersion(ctx, version); err != nil {
			if err == store.ErrAlreadyExists {
				return &DuplicateVersionError{Version: v.String()}
			}
			return err
		}

		if err := s.updateCrateCategories(ctx, tx, pkg.ID, req.Categories); err != nil {
			return err
		}

		out = version
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// createCrate inserts a new crate owned by actor, enforcing the
// namespace rule for namespaced names.
func (s *Service) createCrate(ctx context.Context, tx store.Datastore, actor *store.User, name string) (*store.Package, error) {
	if ParentName(name) != "" {
		exists, err := s.namespaceExists(ctx, tx, name)
		if err != nil {
			return nil, err
		}
		if exists {
			level, err := s.namespaceRights(ctx, tx, actor, name)
			if err != nil {
				return nil, err
			}
			if level < RightsPublish {
				return nil, ErrNamespaceExistsChildMissing
			}
		}
	}

	pkg := &store.Package{Name: name, Canonical: CanonicalName(name)}
	if err := tx.CreatePackage(ctx, pkg); err != nil {
		return nil, err
	}
	err := tx.AddOwner(ctx, &store.PackageOwner{
		PackageID: pkg.ID,
		OwnerID:   actor.ID,
		OwnerKind: store.OwnerUser,
	})
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

// ShowVersion resolves one version view by crate name and number.
func (s *Service) ShowVersion(ctx context.Context, crateName, num string) (EncodableVersion, error) {
	pkg, version, err := s.crateVersion(ctx, s.db, crateName, num)
	if err != nil {
		return EncodableVersion{}, err
	}
	return NewEncodableVersion(version, pkg.Name), nil
}

// ShowVersionByID resolves one version view by its numeric id.
func (s *Service) ShowVersionByID(ctx context.Context, id uint) (EncodableVersion, error) {
	version, err := s.db.GetVersionByID(ctx, id)
	if err != nil {
		if err == store.ErrNotFound {
			return EncodableVersion{}, &NotFoundError{Crate: fmt.Sprintf("version %d", id)}
		}
		return EncodableVersion{}, err
	}
	pkg, err := s.db.GetPackage(ctx, version.PackageID)
	if err != nil {
		return EncodableVersion{}, err
	}
	return NewEncodableVersion(version, pkg.Name), nil
}

// ListVersions resolves version views for the requested ids, skipping
// unknown ones.
func (s *Service) ListVersions(ctx context.Context, ids []uint) ([]EncodableVersion, error) {
	versions, err := s.db.ListVersionsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]EncodableVersion, 0, len(versions))
	for _, v := range versions {
		pkg, err := s.db.GetPackage(ctx, v.PackageID)
		if err != nil {
			return nil, err
		}
		out = append(out, NewEncodableVersion(v, pkg.Name))
	}
	return out, nil
}
