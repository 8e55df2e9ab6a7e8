// Package sqlite implements a SQLite-based persistence driver using GORM.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/openregistry/registry-go/internal/store"
)

func init() {
	store.Register("sqlite", NewDriver)
}

// repo holds the shared query implementations. The driver and its
// transactional views both embed it, differing only in the *gorm.DB they
// carry.
type repo struct {
	h *gorm.DB
}

// Driver implements the store.Driver interface using SQLite via GORM.
type Driver struct {
	dataDir string
	db      *gorm.DB
	repo
}

// NewDriver creates a new SQLite driver instance.
func NewDriver(cfg *store.DriverConfig) (store.Driver, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data_dir is required for sqlite driver")
	}

	return &Driver{
		dataDir: cfg.DataDir,
	}, nil
}

// Name returns the driver name.
func (d *Driver) Name() string {
	return "sqlite"
}

// Init opens the SQLite database and runs AutoMigrate.
func (d *Driver) Init(ctx context.Context) error {
	dbPath := filepath.Join(d.dataDir, "registry.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	d.db = db
	d.repo = repo{h: db}

	// AutoMigrate creates/updates tables based on model structs
	if err := db.AutoMigrate(
		&store.Package{},
		&store.User{},
		&store.Team{},
		&store.PackageOwner{},
		&store.OwnerInvitation{},
		&store.Version{},
		&store.BuildRecord{},
		&store.Category{},
		&store.PackageCategory{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (d *Driver) Close() error {
	if d.db == nil {
		return nil
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Tx runs fn inside one database transaction.
func (d *Driver) Tx(ctx context.Context, fn func(store.Datastore) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txView{repo: repo{h: tx}})
	})
}

// txView is the transactional datastore handed to Tx callbacks.
type txView struct {
	repo
}

// Nested transactions become savepoints via GORM.
func (t *txView) Tx(ctx context.Context, fn func(store.Datastore) error) error {
	return t.h.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txView{repo: repo{h: tx}})
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrAlreadyExists
	default:
		return err
	}
}

// PackageStore

func (r repo) CreatePackage(ctx context.Context, pkg *store.Package) error {
	var count int64
	if err := r.h.WithContext(ctx).Model(&store.Package{}).
		Where("canonical = ?", pkg.Canonical).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return store.ErrAlreadyExists
	}
	return translate(r.h.WithContext(ctx).Create(pkg).Error)
}

func (r repo) GetPackage(ctx context.Context, id uint) (*store.Package, error) {
	var pkg store.Package
	if err := r.h.WithContext(ctx).First(&pkg, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &pkg, nil
}

func (r repo) GetPackageByName(ctx context.Context, canonical string) (*store.Package, error) {
	var pkg store.Package
	if err := r.h.WithContext(ctx).First(&pkg, "canonical = ?", canonical).Error; err != nil {
		return nil, translate(err)
	}
	return &pkg, nil
}

func (r repo) CreateVersion(ctx context.Context, v *store.Version) error {
	var count int64
	if err := r.h.WithContext(ctx).Model(&store.Version{}).
		Where("package_id = ? AND num = ?", v.PackageID, v.Num).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return store.ErrAlreadyExists
	}
	return translate(r.h.WithContext(ctx).Create(v).Error)
}

func (r repo) GetVersion(ctx context.Context, packageID uint, num string) (*store.Version, error) {
	var v store.Version
	err := r.h.WithContext(ctx).First(&v, "package_id = ? AND num = ?", packageID, num).Error
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r repo) GetVersionByID(ctx context.Context, id uint) (*store.Version, error) {
	var v store.Version
	if err := r.h.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r repo) ListVersionsByIDs(ctx context.Context, ids []uint) ([]*store.Version, error) {
	out := []*store.Version{}
	if len(ids) == 0 {
		return out, nil
	}
	err := r.h.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&out).Error
	return out, translate(err)
}

func (r repo) ListVersionsForPackage(ctx context.Context, packageID uint) ([]*store.Version, error) {
	out := []*store.Version{}
	err := r.h.WithContext(ctx).Where("package_id = ?", packageID).Order("id").Find(&out).Error
	return out, translate(err)
}

func (r repo) SetVersionYanked(ctx context.Context, versionID uint, yanked bool) error {
	res := r.h.WithContext(ctx).Model(&store.Version{}).
		Where("id = ?", versionID).
		Updates(map[string]any{"yanked": yanked, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ActorStore

func (r repo) CreateUser(ctx context.Context, u *store.User) error {
	return translate(r.h.WithContext(ctx).Create(u).Error)
}

func (r repo) GetUser(ctx context.Context, id uint) (*store.User, error) {
	var u store.User
	if err := r.h.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r repo) FindUsersByLogin(ctx context.Context, login string) ([]*store.User, error) {
	out := []*store.User{}
	err := r.h.WithContext(ctx).Where("login = ?", login).Order("id").Find(&out).Error
	return out, translate(err)
}

func (r repo) ListUsersByIDs(ctx context.Context, ids []uint) ([]*store.User, error) {
	out := []*store.User{}
	if len(ids) == 0 {
		return out, nil
	}
	err := r.h.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&out).Error
	return out, translate(err)
}

func (r repo) CreateTeam(ctx context.Context, t *store.Team) error {
	var count int64
	if err := r.h.WithContext(ctx).Model(&store.Team{}).
		Where("login = ?", t.Login).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return store.ErrAlreadyExists
	}
	return translate(r.h.WithContext(ctx).Create(t).Error)
}

func (r repo) GetTeam(ctx context.Context, id uint) (*store.Team, error) {
	var t store.Team
	if err := r.h.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r repo) GetTeamByLogin(ctx context.Context, login string) (*store.Team, error) {
	var t store.Team
	if err := r.h.WithContext(ctx).First(&t, "login = ?", login).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r repo) ListTeamsByIDs(ctx context.Context, ids []uint) ([]*store.Team, error) {
	out := []*store.Team{}
	if len(ids) == 0 {
		return out, nil
	}
	err := r.h.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&out).Error
	return out, translate(err)
}

// OwnerStore

func (r repo) ListOwners(ctx context.Context, packageID uint) ([]*store.PackageOwner, error) {
	var rows []*store.PackageOwner
	err := r.h.WithContext(ctx).
		Where("package_id = ?", packageID).
		Order("owner_id").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	// User rows first, then team rows, each ordered by owner id.
	users := []*store.PackageOwner{}
	teams := []*store.PackageOwner{}
	for _, o := range rows {
		if o.OwnerKind == store.OwnerUser {
			users = append(users, o)
		} else {
			teams = append(teams, o)
		}
	}
	return append(users, teams...), nil
}

func (r repo) AddOwner(ctx context.Context, row *store.PackageOwner) error {
	var count int64
	err := r.h.WithContext(ctx).Model(&store.PackageOwner{}).
		Where("package_id = ? AND owner_id = ? AND owner_kind = ?",
			row.PackageID, row.OwnerID, row.OwnerKind).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return store.ErrAlreadyExists
	}
	return translate(r.h.WithContext(ctx).Create(row).Error)
}

func (r repo) RemoveOwner(ctx context.Context, packageID, ownerID uint, kind store.OwnerKind) error {
	res := r.h.WithContext(ctx).
		Where("package_id = ? AND owner_id = ? AND owner_kind = ?", packageID, ownerID, kind).
		Delete(&store.PackageOwner{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r repo) CreateInvitation(ctx context.Context, inv *store.OwnerInvitation) error {
	var count int64
	err := r.h.WithContext(ctx).Model(&store.OwnerInvitation{}).
		Where("package_id = ? AND invited_user_id = ?", inv.PackageID, inv.InvitedUserID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return store.ErrAlreadyExists
	}
	return translate(r.h.WithContext(ctx).Create(inv).Error)
}

func (r repo) GetInvitation(ctx context.Context, packageID, invitedUserID uint) (*store.OwnerInvitation, error) {
	var inv store.OwnerInvitation
	err := r.h.WithContext(ctx).
		First(&inv, "package_id = ? AND invited_user_id = ?", packageID, invitedUserID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (r repo) DeleteInvitation(ctx context.Context, packageID, invitedUserID uint) error {
	res := r.h.WithContext(ctx).
		Where("package_id = ? AND invited_user_id = ?", packageID, invitedUserID).
		Delete(&store.OwnerInvitation{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r repo) ListInvitationsForUser(ctx context.Context, invitedUserID uint) ([]*store.OwnerInvitation, error) {
	out := []*store.OwnerInvitation{}
	err := r.h.WithContext(ctx).
		Where("invited_user_id = ?", invitedUserID).
		Order("package_id").
		Find(&out).Error
	return out, translate(err)
}

// BuildInfoStore

func (r repo) UpsertBuildRecord(ctx context.Context, rec *store.BuildRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	return translate(r.h.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "version_id"}, {Name: "rust_version"}, {Name: "target"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"passed", "updated_at"}),
	}).Create(rec).Error)
}

func (r repo) ListBuildRecords(ctx context.Context, versionID uint) ([]*store.BuildRecord, error) {
	out := []*store.BuildRecord{}
	err := r.h.WithContext(ctx).
		Where("version_id = ?", versionID).
		Order("rust_version").
		Order("target").
		Find(&out).Error
	return out, translate(err)
}

// CategoryStore

func (r repo) CreateCategory(ctx context.Context, c *store.Category) error {
	var count int64
	if err := r.h.WithContext(ctx).Model(&store.Category{}).
		Where("slug = ?", c.Slug).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return store.ErrAlreadyExists
	}
	return translate(r.h.WithContext(ctx).Create(c).Error)
}

func (r repo) GetCategory(ctx context.Context, id uint) (*store.Category, error) {
	var c store.Category
	if err := r.h.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r repo) GetCategoryBySlug(ctx context.Context, slug string) (*store.Category, error) {
	var c store.Category
	if err := r.h.WithContext(ctx).First(&c, "slug = ?", slug).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r repo) ListCategories(ctx context.Context, opts store.ListCategoriesOptions) ([]*store.Category, int64, error) {
	var total int64
	if err := r.h.WithContext(ctx).Model(&store.Category{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q := r.h.WithContext(ctx)
	if opts.Sort == "crates" {
		q = q.Order("crates_cnt DESC")
	} else {
		q = q.Order("slug ASC")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	out := []*store.Category{}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, translate(err)
	}
	return out, total, nil
}

func (r repo) ListPackageCategoryIDs(ctx context.Context, packageID uint) ([]uint, error) {
	out := []uint{}
	err := r.h.WithContext(ctx).Model(&store.PackageCategory{}).
		Where("package_id = ?", packageID).
		Order("category_id").
		Pluck("category_id", &out).Error
	return out, translate(err)
}

func (r repo) AddPackageCategories(ctx context.Context, packageID uint, categoryIDs []uint) error {
	// Counters only move for memberships actually inserted, so rows are
	// created one at a time and checked for effect.
	for _, cid := range categoryIDs {
		row := store.PackageCategory{PackageID: packageID, CategoryID: cid}
		res := r.h.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}
		err := r.h.WithContext(ctx).Model(&store.Category{}).
			Where("id = ?", cid).
			UpdateColumn("crates_cnt", gorm.Expr("crates_cnt + 1")).Error
		if err != nil {
			return translate(err)
		}
	}
	return nil
}

func (r repo) RemovePackageCategories(ctx context.Context, packageID uint, categoryIDs []uint) error {
	for _, cid := range categoryIDs {
		res := r.h.WithContext(ctx).
			Where("package_id = ? AND category_id = ?", packageID, cid).
			Delete(&store.PackageCategory{})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}
		err := r.h.WithContext(ctx).Model(&store.Category{}).
			Where("id = ? AND crates_cnt > 0", cid).
			UpdateColumn("crates_cnt", gorm.Expr("crates_cnt - 1")).Error
		if err != nil {
			return translate(err)
		}
	}
	return nil
}
