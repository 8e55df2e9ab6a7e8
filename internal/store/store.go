// Package store provides persistence primitives and driver abstractions
// for the registry datastore. The datastore owns all durable state; the
// domain core reads current state, computes a decision, and writes the
// new state inside a single transaction.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Common errors for store operations.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrClosed        = errors.New("store closed")
)

// PackageStore defines operations on crates and their versions.
type PackageStore interface {
	CreatePackage(ctx context.Context, pkg *Package) error
	GetPackage(ctx context.Context, id uint) (*Package, error)
	// GetPackageByName looks up a crate by its canonical name form.
	GetPackageByName(ctx context.Context, canonical string) (*Package, error)

	CreateVersion(ctx context.Context, v *Version) error
	GetVersion(ctx context.Context, packageID uint, num string) (*Version, error)
	GetVersionByID(ctx context.Context, id uint) (*Version, error)
	// ListVersionsByIDs returns the versions matching any of ids,
	// silently skipping unknown ids.
	ListVersionsByIDs(ctx context.Context, ids []uint) ([]*Version, error)
	// ListVersionsForPackage returns all versions of a crate in id order.
	ListVersionsForPackage(ctx context.Context, packageID uint) ([]*Version, error)
	SetVersionYanked(ctx context.Context, versionID uint, yanked bool) error
}

// ActorStore defines operations on user and team identities.
type ActorStore interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uint) (*User, error)
	// FindUsersByLogin returns every user row carrying the login,
	// including inactive placeholder accounts.
	FindUsersByLogin(ctx context.Context, login string) ([]*User, error)
	ListUsersByIDs(ctx context.Context, ids []uint) ([]*User, error)

	CreateTeam(ctx context.Context, t *Team) error
	GetTeam(ctx context.Context, id uint) (*Team, error)
	GetTeamByLogin(ctx context.Context, login string) (*Team, error)
	ListTeamsByIDs(ctx context.Context, ids []uint) ([]*Team, error)
}

// OwnerStore defines operations on crate owner rows and pending owner
// invitations.
type OwnerStore interface {
	ListOwners(ctx context.Context, packageID uint) ([]*PackageOwner, error)
	AddOwner(ctx context.Context, row *PackageOwner) error
	RemoveOwner(ctx context.Context, packageID, ownerID uint, kind OwnerKind) error

	CreateInvitation(ctx context.Context, inv *OwnerInvitation) error
	GetInvitation(ctx context.Context, packageID, invitedUserID uint) (*OwnerInvitation, error)
	DeleteInvitation(ctx context.Context, packageID, invitedUserID uint) error
	ListInvitationsForUser(ctx context.Context, invitedUserID uint) ([]*OwnerInvitation, error)
}

// BuildInfoStore defines operations on per-toolchain build records.
type BuildInfoStore interface {
	// UpsertBuildRecord inserts the record, or on a (version,
	// rust_version, target) conflict updates only the passed flag and
	// the updated-at timestamp.
	UpsertBuildRecord(ctx context.Context, rec *BuildRecord) error
	ListBuildRecords(ctx context.Context, versionID uint) ([]*BuildRecord, error)
}

// CategoryStore defines operations on categories and crate-category
// membership.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id uint) (*Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)
	ListCategories(ctx context.Context, opts ListCategoriesOptions) ([]*Category, int64, error)

	ListPackageCategoryIDs(ctx context.Context, packageID uint) ([]uint, error)
	AddPackageCategories(ctx context.Context, packageID uint, categoryIDs []uint) error
	RemovePackageCategories(ctx context.Context, packageID uint, categoryIDs []uint) error
}

// ListCategoriesOptions controls category listing.
type ListCategoriesOptions struct {
	Limit  int
	Offset int
	// Sort is "alpha" (default) or "crates" (most crates first).
	Sort string
}

// Datastore is the full repo surface plus the transaction boundary.
type Datastore interface {
	PackageStore
	ActorStore
	OwnerStore
	BuildInfoStore
	CategoryStore

	// Tx runs fn inside one atomic transaction: either every write fn
	// performs applies, or none do. The Datastore passed to fn sees
	// fn's own uncommitted writes.
	Tx(ctx context.Context, fn func(Datastore) error) error
}

// Driver is a persistence backend. Implementations must be safe for
// concurrent use.
type Driver interface {
	Datastore

	// Init initializes the driver (create tables, load data, etc).
	Init(ctx context.Context) error

	// Close releases resources held by the driver.
	Close() error

	// Name returns the driver name (memory, sqlite).
	Name() string
}

// DriverConfig holds configuration for driver selection and
// initialization.
type DriverConfig struct {
	// Driver is the driver name: memory, sqlite.
	Driver string `json:"driver" mapstructure:"driver"`

	// DataDir is the directory for data files (the sqlite database).
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// DriverFactory is a function that creates a driver instance.
type DriverFactory func(cfg *DriverConfig) (Driver, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]DriverFactory)
)

// Register registers a driver factory by name.
// This is typically called from init() in driver packages.
func Register(name string, factory DriverFactory) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = factory
}

// New creates a driver instance based on the configuration.
func New(cfg *DriverConfig) (Driver, error) {
	driversMu.RLock()
	factory, ok := drivers[cfg.Driver]
	driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown driver: %s", cfg.Driver)
	}

	return factory(cfg)
}

// AvailableDrivers returns the list of registered driver names.
func AvailableDrivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	return names
}
